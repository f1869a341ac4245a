package appointment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/clinic/clinic/internal/domain/office"
	"github.com/clinic/clinic/internal/domain/patient"
	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/db"
)

var errInjected = errors.New("injected write failure")

// memStore backs the repository and both lookups. RunAtomic snapshots the
// appointment tables so a failing op leaves no trace.
type memStore struct {
	offices  map[int64]*office.Office
	patients map[int64]*patient.Patient
	appts    map[int64]*Appointment
	links    map[int64][]int64
	nextID   int64

	failOn      string
	atomicCalls int
}

func newMemStore() *memStore {
	return &memStore{
		offices:  make(map[int64]*office.Office),
		patients: make(map[int64]*patient.Patient),
		appts:    make(map[int64]*Appointment),
		links:    make(map[int64][]int64),
		nextID:   1,
	}
}

func (m *memStore) addOffice(id int64, name string) {
	m.offices[id] = &office.Office{ID: id, Name: name}
}

func (m *memStore) addPatient(id int64, name string) {
	m.patients[id] = &patient.Patient{ID: id, Name: name}
}

func (m *memStore) RunAtomic(ctx context.Context, ops ...db.Op) error {
	m.atomicCalls++
	appts := make(map[int64]*Appointment, len(m.appts))
	for k, v := range m.appts {
		cp := *v
		appts[k] = &cp
	}
	links := make(map[int64][]int64, len(m.links))
	for k, v := range m.links {
		links[k] = append([]int64(nil), v...)
	}
	nextID := m.nextID

	for i, op := range ops {
		if err := op(ctx); err != nil {
			m.appts, m.links, m.nextID = appts, links, nextID
			return &db.AtomicError{Step: i, Err: err}
		}
	}
	return nil
}

func (m *memStore) Insert(_ context.Context, a *Appointment) error {
	if m.failOn == "insert" {
		return errInjected
	}
	a.ID = m.nextID
	m.nextID++
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

func (m *memStore) UpdateFields(_ context.Context, a *Appointment) error {
	if m.failOn == "update" {
		return errInjected
	}
	if _, ok := m.appts[a.ID]; !ok {
		return fmt.Errorf("appointment %d: %w", a.ID, apperr.ErrNotFound)
	}
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

func (m *memStore) ReplacePatients(_ context.Context, id int64, ids []int64) error {
	delete(m.links, id)
	if m.failOn == "replace" {
		return errInjected
	}
	m.links[id] = append([]int64(nil), ids...)
	return nil
}

func (m *memStore) GetByID(_ context.Context, id int64) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, fmt.Errorf("appointment %d: %w", id, apperr.ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

func (m *memStore) PatientsOf(_ context.Context, id int64) ([]*patient.Patient, error) {
	var out []*patient.Patient
	for _, pid := range m.links[id] {
		if p, ok := m.patients[pid]; ok {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ListSummaries(_ context.Context, f ListFilter) ([]*Summary, error) {
	var out []*Summary
	for _, a := range m.appts {
		if f.Date != nil && !onDay(*f.Date, a.DateTime) {
			continue
		}
		s := &Summary{ID: a.ID, OfficeID: a.OfficeID, DateTime: a.DateTime, Reason: a.Reason, Patients: []string{}}
		if o, ok := m.offices[a.OfficeID]; ok {
			name := o.Name
			s.OfficeName = &name
		}
		for _, pid := range m.links[a.ID] {
			if p, ok := m.patients[pid]; ok {
				s.Patients = append(s.Patients, p.Name)
			}
		}
		sort.Strings(s.Patients)
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) Delete(_ context.Context, id int64) (bool, error) {
	if _, ok := m.appts[id]; !ok {
		return false, nil
	}
	delete(m.appts, id)
	delete(m.links, id)
	return true, nil
}

type memOffices struct{ m *memStore }

func (o memOffices) GetByID(_ context.Context, id int64) (*office.Office, error) {
	off, ok := o.m.offices[id]
	if !ok {
		return nil, fmt.Errorf("office %d: %w", id, apperr.ErrNotFound)
	}
	return off, nil
}

type memPatients struct{ m *memStore }

func (p memPatients) GetMany(_ context.Context, ids []int64) (map[int64]*patient.Patient, error) {
	out := make(map[int64]*patient.Patient)
	for _, id := range ids {
		if pt, ok := p.m.patients[id]; ok {
			out[id] = pt
		}
	}
	return out, nil
}

func newTestService() (*Service, *memStore) {
	m := newMemStore()
	m.addOffice(1, "Main")
	m.addPatient(1, "Ana")
	m.addPatient(2, "Bruno")
	m.addPatient(3, "Carla")
	m.addPatient(4, "Diego")
	return NewService(m, memOffices{m}, memPatients{m}, m), m
}

// onDay mirrors the SQL day filter: t's calendar day in its own offset.
func onDay(d Date, t time.Time) bool {
	y, m, day := t.Date()
	return y == d.Year && m == d.Month && day == d.Day
}
