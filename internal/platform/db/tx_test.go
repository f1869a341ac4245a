package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeTx implements just enough of pgx.Tx for the runner.
type fakeTx struct {
	pgx.Tx
	commitErr  error
	committed  bool
	rolledBack bool
	execs      []string
}

func (f *fakeTx) Commit(ctx context.Context) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(ctx context.Context) error {
	if f.committed {
		return pgx.ErrTxClosed
	}
	f.rolledBack = true
	return nil
}

func (f *fakeTx) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

type fakeBeginner struct {
	tx       *fakeTx
	err      error
	begins   int
	isoLevel pgx.TxIsoLevel
}

func (f *fakeBeginner) BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	f.begins++
	f.isoLevel = opts.IsoLevel
	if f.err != nil {
		return nil, f.err
	}
	return f.tx, nil
}

func execOp(sql string) Op {
	return func(ctx context.Context) error {
		_, err := QuerierFromContext(ctx).Exec(ctx, sql)
		return err
	}
}

func TestRunAtomic_CommitsAllOps(t *testing.T) {
	tx := &fakeTx{}
	b := &fakeBeginner{tx: tx}

	err := NewTxRunner(b).RunAtomic(context.Background(), execOp("one"), execOp("two"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tx.committed {
		t.Error("expected commit")
	}
	if tx.rolledBack {
		t.Error("expected no rollback after commit")
	}
	if len(tx.execs) != 2 || tx.execs[0] != "one" || tx.execs[1] != "two" {
		t.Errorf("ops ran out of order or on the wrong querier: %v", tx.execs)
	}
	if b.isoLevel != pgx.ReadCommitted {
		t.Errorf("expected read committed, got %q", b.isoLevel)
	}
}

func TestRunAtomic_RollsBackOnFailure(t *testing.T) {
	tx := &fakeTx{}
	boom := errors.New("boom")
	ran := 0

	err := NewTxRunner(&fakeBeginner{tx: tx}).RunAtomic(context.Background(),
		execOp("one"),
		func(ctx context.Context) error { return boom },
		func(ctx context.Context) error { ran++; return nil },
	)

	var ae *AtomicError
	if !errors.As(err, &ae) {
		t.Fatalf("expected *AtomicError, got %T: %v", err, err)
	}
	if ae.Step != 1 {
		t.Errorf("expected step 1, got %d", ae.Step)
	}
	if !errors.Is(err, boom) {
		t.Error("expected cause to unwrap")
	}
	if ran != 0 {
		t.Error("ops after the failing one must not run")
	}
	if tx.committed || !tx.rolledBack {
		t.Errorf("expected rollback only, committed=%v rolledBack=%v", tx.committed, tx.rolledBack)
	}
}

func TestRunAtomic_CommitFailure(t *testing.T) {
	tx := &fakeTx{commitErr: errors.New("serialization failure")}

	err := NewTxRunner(&fakeBeginner{tx: tx}).RunAtomic(context.Background(), execOp("one"))

	var ae *AtomicError
	if !errors.As(err, &ae) {
		t.Fatalf("expected *AtomicError, got %v", err)
	}
	if ae.Step != 1 {
		t.Errorf("expected commit step 1, got %d", ae.Step)
	}
	if !tx.rolledBack {
		t.Error("expected rollback after failed commit")
	}
}

func TestRunAtomic_BeginFailure(t *testing.T) {
	b := &fakeBeginner{err: errors.New("pool closed")}

	err := NewTxRunner(b).RunAtomic(context.Background(), execOp("one"))
	if err == nil {
		t.Fatal("expected error")
	}
	var ae *AtomicError
	if errors.As(err, &ae) {
		t.Error("begin failure is not a step failure")
	}
}

func TestRunAtomic_NoOps(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}
	if err := NewTxRunner(b).RunAtomic(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.begins != 0 {
		t.Errorf("expected no transaction, got %d begins", b.begins)
	}
}

func TestRunAtomic_JoinsOuterTransaction(t *testing.T) {
	outer := &fakeTx{}
	b := &fakeBeginner{tx: &fakeTx{}}
	ctx := WithQuerier(context.Background(), outer)

	if err := NewTxRunner(b).RunAtomic(ctx, execOp("inner")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.begins != 0 {
		t.Error("expected no new transaction")
	}
	if outer.committed {
		t.Error("inner unit must not commit the outer transaction")
	}
	if len(outer.execs) != 1 {
		t.Errorf("expected op on outer tx, got %v", outer.execs)
	}
}

func TestRunAtomic_NestedErrorKeepsInnerStep(t *testing.T) {
	tx := &fakeTx{}
	r := NewTxRunner(&fakeBeginner{tx: tx})
	boom := errors.New("boom")

	err := r.RunAtomic(context.Background(),
		execOp("one"),
		func(ctx context.Context) error {
			return r.RunAtomic(ctx, execOp("two"), func(context.Context) error { return boom })
		},
	)

	var ae *AtomicError
	if !errors.As(err, &ae) || ae.Step != 1 {
		t.Fatalf("expected inner step 1, got %v", err)
	}
	if !tx.rolledBack {
		t.Error("expected rollback")
	}
}

func TestQuerierFromContext(t *testing.T) {
	if QuerierFromContext(context.Background()) != nil {
		t.Error("expected nil querier on empty context")
	}
	if QuerierFromContext(nil) != nil {
		t.Error("expected nil querier on nil context")
	}
	tx := &fakeTx{}
	if QuerierFromContext(WithQuerier(context.Background(), tx)) != tx {
		t.Error("expected attached querier")
	}
}
