package appointment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/clinic/internal/domain/patient"
	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/db"
)

var Table = db.Table{Name: "appointment"}

var writeCols = []string{"office_id", "date_time", "utc_offset_minutes", "reason"}

const apptCols = `id, office_id, date_time, utc_offset_minutes, reason`

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Querier {
	if q := db.QuerierFromContext(ctx); q != nil {
		return q
	}
	return r.pool
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var at time.Time
	var offset int
	if err := row.Scan(&a.ID, &a.OfficeID, &at, &offset, &a.Reason); err != nil {
		return nil, err
	}
	a.DateTime = withOffset(at, offset)
	return &a, nil
}

func (r *repoPG) Insert(ctx context.Context, a *Appointment) error {
	id, err := db.Insert(ctx, r.conn(ctx), Table, 0, writeCols,
		a.OfficeID, a.DateTime, offsetMinutes(a.DateTime), a.Reason)
	if db.IsForeignKeyViolation(err) {
		return apperr.MissingReference("office", a.OfficeID)
	}
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	a.ID = id
	return nil
}

func (r *repoPG) UpdateFields(ctx context.Context, a *Appointment) error {
	n, err := db.UpdateByID(ctx, r.conn(ctx), Table, a.ID, writeCols,
		a.OfficeID, a.DateTime, offsetMinutes(a.DateTime), a.Reason)
	if db.IsForeignKeyViolation(err) {
		return apperr.MissingReference("office", a.OfficeID)
	}
	if err != nil {
		return fmt.Errorf("update appointment %d: %w", a.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("appointment %d: %w", a.ID, apperr.ErrNotFound)
	}
	return nil
}

func (r *repoPG) ReplacePatients(ctx context.Context, id int64, patientIDs []int64) error {
	q := r.conn(ctx)
	if _, err := q.Exec(ctx, `DELETE FROM appointment_patient WHERE appointment_id = $1`, id); err != nil {
		return fmt.Errorf("clear patients of appointment %d: %w", id, err)
	}
	if len(patientIDs) == 0 {
		return nil
	}
	_, err := q.Exec(ctx, `
		INSERT INTO appointment_patient (appointment_id, patient_id)
		SELECT $1, unnest($2::bigint[])`, id, patientIDs)
	if db.IsForeignKeyViolation(err) {
		return fmt.Errorf("link patients to appointment %d: %w", id, apperr.ErrReferenceNotFound)
	}
	if err != nil {
		return fmt.Errorf("link patients to appointment %d: %w", id, err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	a, err := scanAppointment(r.conn(ctx).QueryRow(ctx, `SELECT `+apptCols+` FROM appointment WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, fmt.Errorf("appointment %d: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment %d: %w", id, err)
	}
	return a, nil
}

func (r *repoPG) PatientsOf(ctx context.Context, id int64) ([]*patient.Patient, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT p.id, p.name, p.phone, p.email
		FROM patient p
		JOIN appointment_patient ap ON ap.patient_id = p.id
		WHERE ap.appointment_id = $1
		ORDER BY p.id`, id)
	if err != nil {
		return nil, fmt.Errorf("patients of appointment %d: %w", id, err)
	}
	defer rows.Close()
	var out []*patient.Patient
	for rows.Next() {
		var p patient.Patient
		if err := rows.Scan(&p.ID, &p.Name, &p.Phone, &p.Email); err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// summaryQuery builds the first of the two list queries. The day filter is
// evaluated in each row's stored offset.
func summaryQuery(f ListFilter) (string, []interface{}) {
	var b strings.Builder
	b.WriteString(`SELECT a.id, a.office_id, a.date_time, a.utc_offset_minutes, a.reason, o.name
		FROM appointment a
		LEFT JOIN office o ON o.id = a.office_id`)
	var args []interface{}
	if f.Date != nil {
		args = append(args, f.Date.String())
		b.WriteString(`
		WHERE ((a.date_time AT TIME ZONE 'UTC') + a.utc_offset_minutes * INTERVAL '1 minute')::date = $1::date`)
	}
	b.WriteString(`
		ORDER BY a.date_time, a.id`)
	return b.String(), args
}

func (r *repoPG) ListSummaries(ctx context.Context, f ListFilter) ([]*Summary, error) {
	q := r.conn(ctx)
	sql, args := summaryQuery(f)
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var out []*Summary
	byID := make(map[int64]*Summary)
	var ids []int64
	for rows.Next() {
		var s Summary
		var at time.Time
		var offset int
		if err := rows.Scan(&s.ID, &s.OfficeID, &at, &offset, &s.Reason, &s.OfficeName); err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		s.DateTime = withOffset(at, offset)
		s.Patients = []string{}
		out = append(out, &s)
		byID[s.ID] = &s
		ids = append(ids, s.ID)
	}
	// A transaction allows one open result set at a time.
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}

	names, err := q.Query(ctx, `
		SELECT ap.appointment_id, p.name
		FROM appointment_patient ap
		JOIN patient p ON p.id = ap.patient_id
		WHERE ap.appointment_id = ANY($1)
		ORDER BY ap.appointment_id, p.name`, ids)
	if err != nil {
		return nil, fmt.Errorf("list appointment patients: %w", err)
	}
	defer names.Close()
	for names.Next() {
		var apptID int64
		var name string
		if err := names.Scan(&apptID, &name); err != nil {
			return nil, fmt.Errorf("scan appointment patient: %w", err)
		}
		if s, ok := byID[apptID]; ok {
			s.Patients = append(s.Patients, name)
		}
	}
	return out, names.Err()
}

func (r *repoPG) Delete(ctx context.Context, id int64) (bool, error) {
	n, err := db.DeleteByID(ctx, r.conn(ctx), Table, id)
	if err != nil {
		return false, fmt.Errorf("delete appointment %d: %w", id, err)
	}
	return n > 0, nil
}
