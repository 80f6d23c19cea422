package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/librarydesk/backend/internal/domain"
)

// LoanRepo defines the persistence operations for Loans.
// Loans have no Delete — closed loans stay forever as the lending history.
type LoanRepo interface {
	// Create inserts a new open loan. rent_date is set by the database to
	// the current date. Returns domain.ErrConflict if the one-open-loan-
	// per-book index rejects the row.
	Create(ctx context.Context, loan domain.Loan) (domain.Loan, error)

	// GetByID retrieves a single loan by its primary key.
	// Returns domain.ErrNotFound if no loan with that ID exists.
	GetByID(ctx context.Context, id int64) (domain.Loan, error)

	// List returns all loans ordered by rent_date descending, then id
	// descending (most recent first).
	List(ctx context.Context) ([]domain.Loan, error)

	// Update overwrites borrower, book, and return_date of an existing loan
	// and returns the updated record. rent_date is immutable and never part
	// of the SET list. Returns domain.ErrNotFound if the loan does not
	// exist, domain.ErrConflict if the open-loan index rejects the change.
	Update(ctx context.Context, loan domain.Loan) (domain.Loan, error)

	// CountOpen returns how many open loans (return_date IS NULL) reference
	// bookID, excluding the loan with excludeID. Pass excludeID = 0 when
	// no loan should be excluded.
	CountOpen(ctx context.Context, bookID, excludeID int64) (int64, error)
}

// pgLoanRepo is the Postgres implementation of LoanRepo.
type pgLoanRepo struct {
	db db
}

// NewLoanRepo constructs a LoanRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewLoanRepo(db db) LoanRepo {
	return &pgLoanRepo{db: db}
}

// Create inserts a new loan row. The partial unique index
// loans_one_open_per_book backstops the service-level conflict check: if two
// transactions race past the count, the second insert fails with a unique
// violation, surfaced as domain.ErrConflict.
func (r *pgLoanRepo) Create(ctx context.Context, loan domain.Loan) (domain.Loan, error) {
	const q = `
		INSERT INTO loans (borrower_id, book_id, return_date)
		VALUES (@borrower_id, @book_id, @return_date)
		RETURNING id, borrower_id, book_id, rent_date, return_date, created_at, updated_at`

	args := pgx.NamedArgs{
		"borrower_id": loan.BorrowerID,
		"book_id":     loan.BookID,
		"return_date": loan.ReturnDate, // nil becomes NULL = open
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanLoan(row)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Loan{}, fmt.Errorf("repo.LoanRepo.Create: book already has an open loan: %w", domain.ErrConflict)
		}
		return domain.Loan{}, fmt.Errorf("repo.LoanRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a loan by primary key.
func (r *pgLoanRepo) GetByID(ctx context.Context, id int64) (domain.Loan, error) {
	const q = `
		SELECT id, borrower_id, book_id, rent_date, return_date, created_at, updated_at
		FROM loans
		WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanLoan(row)
	if err != nil {
		return domain.Loan{}, fmt.Errorf("repo.LoanRepo.GetByID: %w", err)
	}
	return result, nil
}

// List returns all loans, most recent rent_date first, ties broken by id.
func (r *pgLoanRepo) List(ctx context.Context) ([]domain.Loan, error) {
	const q = `
		SELECT id, borrower_id, book_id, rent_date, return_date, created_at, updated_at
		FROM loans
		ORDER BY rent_date DESC, id DESC`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.LoanRepo.List: %w", err)
	}
	defer rows.Close()

	var loans []domain.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.LoanRepo.List: scan: %w", err)
		}
		loans = append(loans, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.LoanRepo.List: rows: %w", err)
	}

	return loans, nil
}

// Update overwrites the mutable fields of a loan. rent_date is not in the
// SET list — it records when the book went out and never changes.
func (r *pgLoanRepo) Update(ctx context.Context, loan domain.Loan) (domain.Loan, error) {
	const q = `
		UPDATE loans
		SET borrower_id = @borrower_id,
		    book_id     = @book_id,
		    return_date = @return_date,
		    updated_at  = now()
		WHERE id = @id
		RETURNING id, borrower_id, book_id, rent_date, return_date, created_at, updated_at`

	args := pgx.NamedArgs{
		"id":          loan.ID,
		"borrower_id": loan.BorrowerID,
		"book_id":     loan.BookID,
		"return_date": loan.ReturnDate,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanLoan(row)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Loan{}, fmt.Errorf("repo.LoanRepo.Update: book already has an open loan: %w", domain.ErrConflict)
		}
		return domain.Loan{}, fmt.Errorf("repo.LoanRepo.Update: %w", err)
	}
	return result, nil
}

// CountOpen is the conflict check query: open loans on bookID other than
// excludeID. Run it inside the same transaction as the write it guards.
func (r *pgLoanRepo) CountOpen(ctx context.Context, bookID, excludeID int64) (int64, error) {
	const q = `
		SELECT count(*)
		FROM loans
		WHERE book_id = @book_id
		  AND return_date IS NULL
		  AND id <> @exclude_id`

	var n int64
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"book_id": bookID, "exclude_id": excludeID}).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("repo.LoanRepo.CountOpen: %w", err)
	}
	return n, nil
}

// scanLoan maps a single database row into a domain.Loan.
// It handles the date and nullable return_date conversions.
func scanLoan(s scanner) (domain.Loan, error) {
	var (
		l        domain.Loan
		rentDate pgtype.Date
		returned pgtype.Date
	)

	err := s.Scan(&l.ID, &l.BorrowerID, &l.BookID, &rentDate, &returned, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Loan{}, domain.ErrNotFound
		}
		return domain.Loan{}, err
	}

	l.RentDate = rentDate.Time
	if returned.Valid {
		rd := returned.Time
		l.ReturnDate = &rd
	}

	return l, nil
}

// isUniqueViolation reports whether err is a Postgres unique_violation
// (SQLSTATE 23505), which the loans_one_open_per_book index raises when a
// second open loan targets the same book.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
