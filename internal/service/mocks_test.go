package service_test

import (
	"context"

	"github.com/librarydesk/backend/internal/domain"
	"github.com/librarydesk/backend/internal/repo"
)

// ---- mock repos ------------------------------------------------------------

// mockBookRepo is a hand-written test double for repo.BookRepo.
// Set only the method fields your test needs.
type mockBookRepo struct {
	create          func(ctx context.Context, book domain.Book) (domain.Book, error)
	getByID         func(ctx context.Context, id int64) (domain.Book, error)
	list            func(ctx context.Context) ([]domain.Book, error)
	update          func(ctx context.Context, book domain.Book) (domain.Book, error)
	setAvailability func(ctx context.Context, id int64, available bool) error
}

func (m *mockBookRepo) Create(ctx context.Context, book domain.Book) (domain.Book, error) {
	return m.create(ctx, book)
}
func (m *mockBookRepo) GetByID(ctx context.Context, id int64) (domain.Book, error) {
	return m.getByID(ctx, id)
}
func (m *mockBookRepo) List(ctx context.Context) ([]domain.Book, error) {
	return m.list(ctx)
}
func (m *mockBookRepo) Update(ctx context.Context, book domain.Book) (domain.Book, error) {
	return m.update(ctx, book)
}
func (m *mockBookRepo) SetAvailability(ctx context.Context, id int64, available bool) error {
	return m.setAvailability(ctx, id, available)
}

// compile-time check: mockBookRepo must satisfy repo.BookRepo.
var _ repo.BookRepo = (*mockBookRepo)(nil)

// mockLoanRepo is a hand-written test double for repo.LoanRepo.
type mockLoanRepo struct {
	create    func(ctx context.Context, loan domain.Loan) (domain.Loan, error)
	getByID   func(ctx context.Context, id int64) (domain.Loan, error)
	list      func(ctx context.Context) ([]domain.Loan, error)
	update    func(ctx context.Context, loan domain.Loan) (domain.Loan, error)
	countOpen func(ctx context.Context, bookID, excludeID int64) (int64, error)
}

func (m *mockLoanRepo) Create(ctx context.Context, loan domain.Loan) (domain.Loan, error) {
	return m.create(ctx, loan)
}
func (m *mockLoanRepo) GetByID(ctx context.Context, id int64) (domain.Loan, error) {
	return m.getByID(ctx, id)
}
func (m *mockLoanRepo) List(ctx context.Context) ([]domain.Loan, error) {
	return m.list(ctx)
}
func (m *mockLoanRepo) Update(ctx context.Context, loan domain.Loan) (domain.Loan, error) {
	return m.update(ctx, loan)
}
func (m *mockLoanRepo) CountOpen(ctx context.Context, bookID, excludeID int64) (int64, error) {
	return m.countOpen(ctx, bookID, excludeID)
}

// compile-time check: mockLoanRepo must satisfy repo.LoanRepo.
var _ repo.LoanRepo = (*mockLoanRepo)(nil)

// mockTxRunner hands the callback the configured mocks directly — there is
// no real transaction, which is exactly right for unit tests: the rollback
// guarantees are the repo layer's job and are covered by integration tests.
type mockTxRunner struct {
	books repo.BookRepo
	loans repo.LoanRepo
}

func (m *mockTxRunner) InTx(_ context.Context, fn func(books repo.BookRepo, loans repo.LoanRepo) error) error {
	return fn(m.books, m.loans)
}

// compile-time check: mockTxRunner must satisfy repo.TxRunner.
var _ repo.TxRunner = (*mockTxRunner)(nil)
