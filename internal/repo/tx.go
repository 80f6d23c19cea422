package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TxRunner runs a function against book and loan repos bound to a single
// database transaction. The loan service uses it to keep its conflict check,
// the loan write, and the availability flip in one atomic unit — a reader
// must never see a loan and its book's availability disagree.
//
// If fn returns an error the transaction is rolled back and the error is
// returned unchanged, so sentinel errors (domain.ErrConflict etc.) survive
// for errors.Is checks in callers.
type TxRunner interface {
	InTx(ctx context.Context, fn func(books BookRepo, loans LoanRepo) error) error
}

// pgTxRunner is the Postgres implementation of TxRunner on a pgxpool.Pool.
type pgTxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner constructs a TxRunner backed by the provided pool.
func NewTxRunner(pool *pgxpool.Pool) TxRunner {
	return &pgTxRunner{pool: pool}
}

// InTx begins a transaction (read committed, the Postgres default), hands
// fn repos bound to it, and commits on success.
func (r *pgTxRunner) InTx(ctx context.Context, fn func(books BookRepo, loans LoanRepo) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("repo.TxRunner.InTx: begin: %w", err)
	}
	// Rollback after a successful commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewBookRepo(tx), NewLoanRepo(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repo.TxRunner.InTx: commit: %w", err)
	}
	return nil
}
