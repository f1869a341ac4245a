package appointment

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/domain/office"
	"github.com/clinic/clinic/internal/domain/patient"
	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/db"
)

// Service owns the appointment aggregate: the appointment row plus its
// association set, which are always written together.
type Service struct {
	repo     Repository
	offices  OfficeLookup
	patients PatientLookup
	uow      db.UnitOfWork
}

func NewService(repo Repository, offices OfficeLookup, patients PatientLookup, uow db.UnitOfWork) *Service {
	return &Service{repo: repo, offices: offices, patients: patients, uow: uow}
}

// validate runs before any write. The first failing check wins: cardinality,
// then the office, then each patient in input order. A zero date_time is
// reported only after the references check out.
func (s *Service) validate(ctx context.Context, f *Fields, patientIDs []int64) error {
	if f.Reason != nil && strings.TrimSpace(*f.Reason) == "" {
		f.Reason = nil
	}

	if err := checkCardinality(patientIDs); err != nil {
		return err
	}

	if _, err := s.offices.GetByID(ctx, f.OfficeID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.MissingReference("office", f.OfficeID)
		}
		return err
	}

	found, err := s.patients.GetMany(ctx, patientIDs)
	if err != nil {
		return err
	}
	for _, id := range patientIDs {
		if _, ok := found[id]; !ok {
			return apperr.MissingReference("patient", id)
		}
	}

	if f.DateTime.IsZero() {
		return apperr.Invalid("date_time is required")
	}
	return nil
}

// Create inserts the appointment and its association rows as one unit and
// returns the committed state.
func (s *Service) Create(ctx context.Context, f Fields, patientIDs []int64) (*Detail, error) {
	if err := s.validate(ctx, &f, patientIDs); err != nil {
		return nil, err
	}

	a := &Appointment{Fields: f}
	err := s.uow.RunAtomic(ctx,
		func(ctx context.Context) error { return s.repo.Insert(ctx, a) },
		func(ctx context.Context) error { return s.repo.ReplacePatients(ctx, a.ID, patientIDs) },
	)
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Int64("appointment_id", a.ID).
		Int("patients", len(patientIDs)).
		Msg("appointment created")
	return s.Get(ctx, a.ID)
}

// Update overwrites the scalar fields and replaces the whole association
// set. Patients left out of patientIDs are detached.
func (s *Service) Update(ctx context.Context, id int64, f Fields, patientIDs []int64) (*Detail, error) {
	if err := s.validate(ctx, &f, patientIDs); err != nil {
		return nil, err
	}

	a := &Appointment{ID: id, Fields: f}
	err := s.uow.RunAtomic(ctx,
		func(ctx context.Context) error { return s.repo.UpdateFields(ctx, a) },
		func(ctx context.Context) error { return s.repo.ReplacePatients(ctx, id, patientIDs) },
	)
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Int64("appointment_id", id).
		Int("patients", len(patientIDs)).
		Msg("appointment updated")
	return s.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Detail, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	d := &Detail{Appointment: *a}
	o, err := s.offices.GetByID(ctx, a.OfficeID)
	switch {
	case err == nil:
		d.Office = o
	case errors.Is(err, apperr.ErrNotFound):
		zerolog.Ctx(ctx).Warn().Int64("appointment_id", id).Int64("office_id", a.OfficeID).Msg("appointment references missing office")
	default:
		return nil, err
	}

	ps, err := s.repo.PatientsOf(ctx, id)
	if err != nil {
		return nil, err
	}
	if ps == nil {
		ps = []*patient.Patient{}
	}
	d.Patients = ps
	return d, nil
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]*Summary, error) {
	items, err := s.repo.ListSummaries(ctx, f)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*Summary{}
	}
	return items, nil
}

// Remove deletes the appointment and, through the store, its association
// rows. A missing id reports false.
func (s *Service) Remove(ctx context.Context, id int64) (bool, error) {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if ok {
		zerolog.Ctx(ctx).Info().Int64("appointment_id", id).Msg("appointment removed")
	}
	return ok, nil
}

var _ OfficeLookup = (*office.Service)(nil)
var _ PatientLookup = (*patient.Service)(nil)
