package appointment

import (
	"context"

	"github.com/clinic/clinic/internal/domain/office"
	"github.com/clinic/clinic/internal/domain/patient"
)

// Repository persists appointment rows and their association sets. Writes
// run on whatever querier the context carries, so they can be composed into
// one unit of work.
type Repository interface {
	// Insert assigns the store-generated id to a.ID.
	Insert(ctx context.Context, a *Appointment) error
	// UpdateFields returns apperr.ErrNotFound when no row has a.ID.
	UpdateFields(ctx context.Context, a *Appointment) error
	// ReplacePatients drops every association of id, then links ids.
	ReplacePatients(ctx context.Context, id int64, patientIDs []int64) error
	GetByID(ctx context.Context, id int64) (*Appointment, error)
	PatientsOf(ctx context.Context, id int64) ([]*patient.Patient, error)
	ListSummaries(ctx context.Context, f ListFilter) ([]*Summary, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type OfficeLookup interface {
	GetByID(ctx context.Context, id int64) (*office.Office, error)
}

// PatientLookup resolves ids in bulk; ids not found are absent from the map.
type PatientLookup interface {
	GetMany(ctx context.Context, ids []int64) (map[int64]*patient.Patient, error)
}
