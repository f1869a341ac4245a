package office

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/db"
)

var Table = db.Table{Name: "office"}

var writeCols = []string{"name", "location"}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Querier {
	if q := db.QuerierFromContext(ctx); q != nil {
		return q
	}
	return r.pool
}

func scanOffice(row pgx.Row) (*Office, error) {
	var o Office
	if err := row.Scan(&o.ID, &o.Name, &o.Location); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repoPG) Create(ctx context.Context, o *Office) error {
	id, err := db.Insert(ctx, r.conn(ctx), Table, 0, writeCols, o.Name, o.Location)
	if err != nil {
		return fmt.Errorf("create office: %w", err)
	}
	o.ID = id
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Office, error) {
	o, err := scanOffice(r.conn(ctx).QueryRow(ctx, `SELECT id, name, location FROM office WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, fmt.Errorf("office %d: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get office %d: %w", id, err)
	}
	return o, nil
}

func (r *repoPG) List(ctx context.Context) ([]*Office, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT id, name, location FROM office ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list offices: %w", err)
	}
	defer rows.Close()
	var out []*Office
	for rows.Next() {
		o, err := scanOffice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan office: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, o *Office) error {
	n, err := db.UpdateByID(ctx, r.conn(ctx), Table, o.ID, writeCols, o.Name, o.Location)
	if err != nil {
		return fmt.Errorf("update office %d: %w", o.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("office %d: %w", o.ID, apperr.ErrNotFound)
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id int64) (bool, error) {
	n, err := db.DeleteByID(ctx, r.conn(ctx), Table, id)
	if db.IsForeignKeyViolation(err) {
		return false, apperr.InUse("office", id)
	}
	if err != nil {
		return false, fmt.Errorf("delete office %d: %w", id, err)
	}
	return n > 0, nil
}

func (r *repoPG) IsReferenced(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM appointment WHERE office_id = $1)`, id).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check office %d references: %w", id, err)
	}
	return ok, nil
}
