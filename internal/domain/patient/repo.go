package patient

import "context"

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id int64) (*Patient, error)
	Exists(ctx context.Context, id int64) (bool, error)
	// GetMany returns the patients found among ids, keyed by id. Missing ids
	// are simply absent from the map.
	GetMany(ctx context.Context, ids []int64) (map[int64]*Patient, error)
	List(ctx context.Context) ([]*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id int64) (bool, error)
	IsReferenced(ctx context.Context, id int64) (bool, error)
}
