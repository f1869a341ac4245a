package patient

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/platform/apperr"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func validate(p *Patient) error {
	p.normalize()
	if p.ID <= 0 {
		return apperr.Invalid("id must be a positive integer")
	}
	if p.Name == "" {
		return apperr.Invalid("name is required")
	}
	if p.Email != nil {
		if _, err := mail.ParseAddress(*p.Email); err != nil {
			return apperr.Invalid("email %q is not a valid address", *p.Email)
		}
	}
	return nil
}

// Create stores a new patient under its caller-supplied id. An existing id is
// a conflict and is never overwritten.
func (s *Service) Create(ctx context.Context, p *Patient) error {
	if err := validate(p); err != nil {
		return err
	}
	exists, err := s.repo.Exists(ctx, p.ID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("patient %d: %w", p.ID, apperr.ErrConflictingIdentity)
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Int64("patient_id", p.ID).Msg("patient created")
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

// GetMany is the lookup used by the appointment service.
func (s *Service) GetMany(ctx context.Context, ids []int64) (map[int64]*Patient, error) {
	return s.repo.GetMany(ctx, ids)
}

func (s *Service) List(ctx context.Context) ([]*Patient, error) {
	return s.repo.List(ctx)
}

func (s *Service) Update(ctx context.Context, p *Patient) error {
	if err := validate(p); err != nil {
		return err
	}
	return s.repo.Update(ctx, p)
}

// Delete removes a patient unless an appointment still lists it.
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	used, err := s.repo.IsReferenced(ctx, id)
	if err != nil {
		return false, err
	}
	if used {
		return false, apperr.InUse("patient", id)
	}
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if ok {
		zerolog.Ctx(ctx).Info().Int64("patient_id", id).Msg("patient deleted")
	}
	return ok, nil
}
