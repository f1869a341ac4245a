package office

import "context"

type Repository interface {
	// Create assigns the store-generated id to o.ID.
	Create(ctx context.Context, o *Office) error
	GetByID(ctx context.Context, id int64) (*Office, error)
	List(ctx context.Context) ([]*Office, error)
	Update(ctx context.Context, o *Office) error
	Delete(ctx context.Context, id int64) (bool, error)
	IsReferenced(ctx context.Context, id int64) (bool, error)
}
