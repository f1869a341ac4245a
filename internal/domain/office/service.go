package office

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/platform/apperr"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func validate(o *Office) error {
	o.Name = strings.TrimSpace(o.Name)
	if o.Name == "" {
		return apperr.Invalid("name is required")
	}
	if o.Location != nil && strings.TrimSpace(*o.Location) == "" {
		o.Location = nil
	}
	return nil
}

func (s *Service) Create(ctx context.Context, o *Office) error {
	if err := validate(o); err != nil {
		return err
	}
	o.ID = 0
	if err := s.repo.Create(ctx, o); err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Int64("office_id", o.ID).Msg("office created")
	return nil
}

// GetByID also serves as the appointment service's office lookup.
func (s *Service) GetByID(ctx context.Context, id int64) (*Office, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Office, error) {
	return s.repo.List(ctx)
}

func (s *Service) Update(ctx context.Context, o *Office) error {
	if err := validate(o); err != nil {
		return err
	}
	return s.repo.Update(ctx, o)
}

// Delete refuses to remove an office that still hosts appointments.
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	used, err := s.repo.IsReferenced(ctx, id)
	if err != nil {
		return false, err
	}
	if used {
		return false, apperr.InUse("office", id)
	}
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if ok {
		zerolog.Ctx(ctx).Info().Int64("office_id", id).Msg("office deleted")
	}
	return ok, nil
}
