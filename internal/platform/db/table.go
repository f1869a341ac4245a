package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Table describes how rows of one entity are keyed. CallerSuppliedID marks
// entities whose identity comes from an external system of record; all
// others get a store-generated key.
type Table struct {
	Name             string
	IDColumn         string
	CallerSuppliedID bool
}

// ErrIdentityMode is returned when an id is supplied for a store-keyed table
// or missing for a caller-keyed one.
var ErrIdentityMode = errors.New("identity does not match table key mode")

func (t Table) idCol() string {
	if t.IDColumn == "" {
		return "id"
	}
	return t.IDColumn
}

func insertSQL(t Table, cols []string) string {
	if t.CallerSuppliedID {
		cols = append([]string{t.idCol()}, cols...)
	}
	ph := make([]string, len(cols))
	for i := range cols {
		ph[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		t.Name, strings.Join(cols, ", "), strings.Join(ph, ", "), t.idCol())
}

func updateSQL(t Table, cols []string) string {
	set := make([]string, len(cols))
	for i, c := range cols {
		set[i] = fmt.Sprintf("%s = $%d", c, i+1)
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d",
		t.Name, strings.Join(set, ", "), t.idCol(), len(cols)+1)
}

// Insert writes one row and returns its key. For caller-keyed tables id is
// written as given; for store-keyed tables id must be zero.
func Insert(ctx context.Context, q Querier, t Table, id int64, cols []string, args ...interface{}) (int64, error) {
	if len(cols) != len(args) {
		return 0, fmt.Errorf("insert %s: %d columns, %d values", t.Name, len(cols), len(args))
	}
	if t.CallerSuppliedID {
		if id <= 0 {
			return 0, fmt.Errorf("insert %s: %w: id required", t.Name, ErrIdentityMode)
		}
		args = append([]interface{}{id}, args...)
	} else if id != 0 {
		return 0, fmt.Errorf("insert %s: %w: id is generated", t.Name, ErrIdentityMode)
	}

	var out int64
	if err := q.QueryRow(ctx, insertSQL(t, cols), args...).Scan(&out); err != nil {
		return 0, err
	}
	return out, nil
}

// UpdateByID updates the given columns of one row and reports rows affected.
func UpdateByID(ctx context.Context, q Querier, t Table, id int64, cols []string, args ...interface{}) (int64, error) {
	if len(cols) != len(args) {
		return 0, fmt.Errorf("update %s: %d columns, %d values", t.Name, len(cols), len(args))
	}
	tag, err := q.Exec(ctx, updateSQL(t, cols), append(args, id)...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteByID removes one row and reports rows affected.
func DeleteByID(ctx context.Context, q Querier, t Table, id int64) (int64, error) {
	tag, err := q.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s = $1", t.Name, t.idCol()), id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Exists reports whether a row with the given key is present.
func Exists(ctx context.Context, q Querier, t Table, id int64) (bool, error) {
	var ok bool
	err := q.QueryRow(ctx, fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s = $1)", t.Name, t.idCol()), id).Scan(&ok)
	return ok, err
}
