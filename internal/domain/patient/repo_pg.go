package patient

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/db"
)

// Table is the patient row layout. Keys come from the caller.
var Table = db.Table{Name: "patient", CallerSuppliedID: true}

var writeCols = []string{"name", "phone", "email"}

const patientCols = `id, name, phone, email`

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Querier {
	if q := db.QuerierFromContext(ctx); q != nil {
		return q
	}
	return r.pool
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	if err := row.Scan(&p.ID, &p.Name, &p.Phone, &p.Email); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	_, err := db.Insert(ctx, r.conn(ctx), Table, p.ID, writeCols, p.Name, p.Phone, p.Email)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("create patient %d: %w", p.ID, apperr.ErrConflictingIdentity)
	}
	if err != nil {
		return fmt.Errorf("create patient %d: %w", p.ID, err)
	}
	return nil
}

func (r *repoPG) Exists(ctx context.Context, id int64) (bool, error) {
	ok, err := db.Exists(ctx, r.conn(ctx), Table, id)
	if err != nil {
		return false, fmt.Errorf("check patient %d: %w", id, err)
	}
	return ok, nil
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, fmt.Errorf("patient %d: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get patient %d: %w", id, err)
	}
	return p, nil
}

func (r *repoPG) GetMany(ctx context.Context, ids []int64) (map[int64]*Patient, error) {
	out := make(map[int64]*Patient, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+patientCols+` FROM patient WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("get patients: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (r *repoPG) List(ctx context.Context) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+patientCols+` FROM patient ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()
	var out []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	n, err := db.UpdateByID(ctx, r.conn(ctx), Table, p.ID, writeCols, p.Name, p.Phone, p.Email)
	if err != nil {
		return fmt.Errorf("update patient %d: %w", p.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("patient %d: %w", p.ID, apperr.ErrNotFound)
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id int64) (bool, error) {
	n, err := db.DeleteByID(ctx, r.conn(ctx), Table, id)
	if db.IsForeignKeyViolation(err) {
		return false, apperr.InUse("patient", id)
	}
	if err != nil {
		return false, fmt.Errorf("delete patient %d: %w", id, err)
	}
	return n > 0, nil
}

func (r *repoPG) IsReferenced(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM appointment_patient WHERE patient_id = $1)`, id).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check patient %d references: %w", id, err)
	}
	return ok, nil
}
