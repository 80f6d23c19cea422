package service

import (
	"context"
	"fmt"
	"time"

	"github.com/librarydesk/backend/internal/domain"
	"github.com/librarydesk/backend/internal/repo"
)

// LoanService implements the loan lifecycle: opening loans, generic updates,
// and returns. It owns the one-open-loan-per-book invariant and is the only
// writer of Book.IsAvailable.
//
// Every mutating operation runs inside one transaction via TxRunner, so the
// conflict check, the loan write, and the availability flip commit or roll
// back together. The partial unique index on the loans table backstops the
// check against races between concurrent transactions.
type LoanService struct {
	tx    repo.TxRunner
	loans repo.LoanRepo

	// now is swappable in tests; defaults to time.Now.
	now func() time.Time
}

// NewLoanService constructs a LoanService. tx is used for all writes; loans
// serves the plain reads that need no transaction.
func NewLoanService(tx repo.TxRunner, loans repo.LoanRepo) *LoanService {
	return &LoanService{tx: tx, loans: loans, now: time.Now}
}

// Open creates a new open loan for bookID and flips the book unavailable.
// Returns domain.ErrNotFound if the book does not exist, domain.ErrConflict
// if the book already has an open loan. On any error nothing is persisted.
func (s *LoanService) Open(ctx context.Context, borrowerID, bookID int64) (domain.Loan, error) {
	var created domain.Loan

	err := s.tx.InTx(ctx, func(books repo.BookRepo, loans repo.LoanRepo) error {
		if _, err := books.GetByID(ctx, bookID); err != nil {
			return err
		}

		n, err := loans.CountOpen(ctx, bookID, 0)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: book already has an open loan", domain.ErrConflict)
		}

		created, err = loans.Create(ctx, domain.Loan{BorrowerID: borrowerID, BookID: bookID})
		if err != nil {
			return err
		}

		return reconcileAvailability(ctx, books, loans, bookID)
	})
	if err != nil {
		return domain.Loan{}, fmt.Errorf("service.LoanService.Open: %w", err)
	}
	return created, nil
}

// Update is the generic mutation entry point: borrower, book, and return
// date may change; rent_date never does. Clearing the return date re-opens
// the loan and re-marks the book unavailable — the same conflict check as
// Open applies whenever the resulting state is open.
//
// Availability is recomputed for the loan's book and, when the update moves
// the loan to a different book, for the previous book too.
// Returns domain.ErrNotFound if the loan (or a newly referenced book) does
// not exist, domain.ErrConflict if the invariant would be violated; the
// pre-update state is kept on any failure.
func (s *LoanService) Update(ctx context.Context, loan domain.Loan) (domain.Loan, error) {
	var updated domain.Loan

	err := s.tx.InTx(ctx, func(books repo.BookRepo, loans repo.LoanRepo) error {
		current, err := loans.GetByID(ctx, loan.ID)
		if err != nil {
			return err
		}

		if loan.BookID != current.BookID {
			if _, err := books.GetByID(ctx, loan.BookID); err != nil {
				return err
			}
		}

		if loan.Open() {
			n, err := loans.CountOpen(ctx, loan.BookID, loan.ID)
			if err != nil {
				return err
			}
			if n > 0 {
				return fmt.Errorf("%w: book already has an open loan", domain.ErrConflict)
			}
		}

		updated, err = loans.Update(ctx, loan)
		if err != nil {
			return err
		}

		if err := reconcileAvailability(ctx, books, loans, loan.BookID); err != nil {
			return err
		}
		if current.BookID != loan.BookID {
			return reconcileAvailability(ctx, books, loans, current.BookID)
		}
		return nil
	})
	if err != nil {
		return domain.Loan{}, fmt.Errorf("service.LoanService.Update: %w", err)
	}
	return updated, nil
}

// Return closes an open loan, setting return_date to today and flipping the
// book back to available. Idempotent: a loan that is already closed is
// returned unchanged, keeping the date of the first return.
// Returns domain.ErrNotFound if the loan does not exist.
func (s *LoanService) Return(ctx context.Context, id int64) (domain.Loan, error) {
	var result domain.Loan

	err := s.tx.InTx(ctx, func(books repo.BookRepo, loans repo.LoanRepo) error {
		current, err := loans.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if !current.Open() {
			result = current
			return nil
		}

		today := dateOnly(s.now())
		current.ReturnDate = &today

		result, err = loans.Update(ctx, current)
		if err != nil {
			return err
		}

		return reconcileAvailability(ctx, books, loans, current.BookID)
	})
	if err != nil {
		return domain.Loan{}, fmt.Errorf("service.LoanService.Return: %w", err)
	}
	return result, nil
}

// GetByID returns a single loan by ID.
// Returns domain.ErrNotFound if no loan with that ID exists.
func (s *LoanService) GetByID(ctx context.Context, id int64) (domain.Loan, error) {
	result, err := s.loans.GetByID(ctx, id)
	if err != nil {
		return domain.Loan{}, fmt.Errorf("service.LoanService.GetByID: %w", err)
	}
	return result, nil
}

// List returns all loans, most recently rented first.
// Always returns a non-nil slice so callers can safely range over it.
func (s *LoanService) List(ctx context.Context) ([]domain.Loan, error) {
	loans, err := s.loans.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.LoanService.List: %w", err)
	}
	if loans == nil {
		return []domain.Loan{}, nil
	}
	return loans, nil
}

// reconcileAvailability recomputes a book's availability flag from the open
// loan count. It is the single write path to the flag: available exactly
// when no open loan references the book.
func reconcileAvailability(ctx context.Context, books repo.BookRepo, loans repo.LoanRepo, bookID int64) error {
	n, err := loans.CountOpen(ctx, bookID, 0)
	if err != nil {
		return err
	}
	return books.SetAvailability(ctx, bookID, n == 0)
}

// dateOnly truncates t to a calendar date in UTC, matching the DATE columns
// loans are stored with.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
