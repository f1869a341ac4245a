package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type contextKey string

const querierKey contextKey = "db_querier"

// Querier is the subset of pgx shared by *pgxpool.Pool, *pgxpool.Conn and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// WithQuerier returns a context whose repository calls run on q.
func WithQuerier(ctx context.Context, q Querier) context.Context {
	return context.WithValue(ctx, querierKey, q)
}

// QuerierFromContext returns the querier attached by WithQuerier, or nil.
func QuerierFromContext(ctx context.Context) Querier {
	if ctx == nil {
		return nil
	}
	q, _ := ctx.Value(querierKey).(Querier)
	return q
}

// Op is a single write step of a unit of work. It must route its statements
// through the querier found in ctx.
type Op func(ctx context.Context) error

// UnitOfWork executes a list of writes with all-or-nothing visibility.
type UnitOfWork interface {
	RunAtomic(ctx context.Context, ops ...Op) error
}

// AtomicError reports which step aborted a unit of work. Nothing the unit
// wrote is visible after it is returned.
type AtomicError struct {
	Step int
	Err  error
}

func (e *AtomicError) Error() string {
	return fmt.Sprintf("unit of work aborted at step %d: %v", e.Step, e.Err)
}

func (e *AtomicError) Unwrap() error { return e.Err }

type txBeginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// TxRunner is the PostgreSQL UnitOfWork. Each RunAtomic call is one READ
// COMMITTED transaction.
type TxRunner struct {
	db txBeginner
}

// NewTxRunner builds a TxRunner over a pool (or anything that can begin a tx).
func NewTxRunner(db txBeginner) *TxRunner {
	return &TxRunner{db: db}
}

func (r *TxRunner) RunAtomic(ctx context.Context, ops ...Op) error {
	if len(ops) == 0 {
		return nil
	}

	// Already inside a transaction: join it, the outer owner commits.
	if _, ok := QuerierFromContext(ctx).(pgx.Tx); ok {
		return runOps(ctx, ops)
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := runOps(WithQuerier(ctx, tx), ops); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return &AtomicError{Step: len(ops), Err: fmt.Errorf("commit: %w", err)}
	}
	return nil
}

func runOps(ctx context.Context, ops []Op) error {
	for i, op := range ops {
		if err := op(ctx); err != nil {
			var ae *AtomicError
			if errors.As(err, &ae) {
				return err
			}
			return &AtomicError{Step: i, Err: err}
		}
	}
	return nil
}
