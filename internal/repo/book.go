// Package repo contains all database access logic for the Library Desk API.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here — only SQL and type mapping.
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

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// BookRepo defines the persistence operations for Books.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a mock.
type BookRepo interface {
	// Create inserts a new book and returns the persisted record (with
	// DB-generated id, created_at, and updated_at populated).
	Create(ctx context.Context, book domain.Book) (domain.Book, error)

	// GetByID retrieves a single book by its primary key.
	// Returns domain.ErrNotFound if no book with that ID exists.
	GetByID(ctx context.Context, id int64) (domain.Book, error)

	// List returns all books in store-default order (id ascending).
	List(ctx context.Context) ([]domain.Book, error)

	// Update overwrites title, author, and published_date of an existing
	// book and returns the updated record. The availability flag is not
	// touched — only SetAvailability writes it.
	// Returns domain.ErrNotFound if no book with that ID exists.
	Update(ctx context.Context, book domain.Book) (domain.Book, error)

	// SetAvailability writes the derived availability flag. Idempotent.
	// Callable only from the loan service's reconcile step.
	// Returns domain.ErrNotFound if no book with that ID exists.
	SetAvailability(ctx context.Context, id int64, available bool) error
}

// pgBookRepo is the Postgres implementation of BookRepo.
type pgBookRepo struct {
	db db
}

// NewBookRepo constructs a BookRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewBookRepo(db db) BookRepo {
	return &pgBookRepo{db: db}
}

// Create inserts a new book row and returns the full persisted record.
func (r *pgBookRepo) Create(ctx context.Context, book domain.Book) (domain.Book, error) {
	const q = `
		INSERT INTO books (title, author, published_date, is_available)
		VALUES (@title, @author, @published_date, @is_available)
		RETURNING id, title, author, published_date, is_available, created_at, updated_at`

	args := pgx.NamedArgs{
		"title":          book.Title,
		"author":         book.Author,
		"published_date": book.PublishedDate, // nil becomes NULL
		"is_available":   book.IsAvailable,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanBook(row)
	if err != nil {
		return domain.Book{}, fmt.Errorf("repo.BookRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a book by primary key.
func (r *pgBookRepo) GetByID(ctx context.Context, id int64) (domain.Book, error) {
	const q = `
		SELECT id, title, author, published_date, is_available, created_at, updated_at
		FROM books
		WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanBook(row)
	if err != nil {
		return domain.Book{}, fmt.Errorf("repo.BookRepo.GetByID: %w", err)
	}
	return result, nil
}

// List returns all books ordered by id ascending (store-default order).
func (r *pgBookRepo) List(ctx context.Context) ([]domain.Book, error) {
	const q = `
		SELECT id, title, author, published_date, is_available, created_at, updated_at
		FROM books
		ORDER BY id`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.BookRepo.List: %w", err)
	}
	defer rows.Close()

	var books []domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.BookRepo.List: scan: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.BookRepo.List: rows: %w", err)
	}

	return books, nil
}

// Update overwrites the catalog fields of a book and returns the updated record.
// is_available is deliberately absent from the SET list.
func (r *pgBookRepo) Update(ctx context.Context, book domain.Book) (domain.Book, error) {
	const q = `
		UPDATE books
		SET title          = @title,
		    author         = @author,
		    published_date = @published_date,
		    updated_at     = now()
		WHERE id = @id
		RETURNING id, title, author, published_date, is_available, created_at, updated_at`

	args := pgx.NamedArgs{
		"id":             book.ID,
		"title":          book.Title,
		"author":         book.Author,
		"published_date": book.PublishedDate,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanBook(row)
	if err != nil {
		return domain.Book{}, fmt.Errorf("repo.BookRepo.Update: %w", err)
	}
	return result, nil
}

// SetAvailability writes the derived flag. Writing the same value twice is a
// no-op at the data level, which makes the reconcile step safely re-runnable.
func (r *pgBookRepo) SetAvailability(ctx context.Context, id int64, available bool) error {
	const q = `
		UPDATE books
		SET is_available = @is_available,
		    updated_at   = now()
		WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "is_available": available})
	if err != nil {
		return fmt.Errorf("repo.BookRepo.SetAvailability: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.BookRepo.SetAvailability: %w", domain.ErrNotFound)
	}
	return nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing the scan
// helpers to be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanBook maps a single database row into a domain.Book.
// It handles the nullable published_date conversion.
func scanBook(s scanner) (domain.Book, error) {
	var (
		b         domain.Book
		published pgtype.Date
	)

	err := s.Scan(&b.ID, &b.Title, &b.Author, &published, &b.IsAvailable, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Book{}, domain.ErrNotFound
		}
		return domain.Book{}, err
	}

	if published.Valid {
		pd := published.Time
		b.PublishedDate = &pd
	}

	return b, nil
}
