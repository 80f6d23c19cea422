// Package service contains the business logic for the Library Desk API.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here — services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/librarydesk/backend/internal/domain"
	"github.com/librarydesk/backend/internal/repo"
)

// CatalogService implements business logic for Book operations.
// It never touches the availability flag — that belongs to LoanService.
type CatalogService struct {
	books repo.BookRepo
}

// NewCatalogService constructs a CatalogService backed by the provided BookRepo.
func NewCatalogService(books repo.BookRepo) *CatalogService {
	return &CatalogService{books: books}
}

// Create validates and persists a new book. Every new book starts available,
// regardless of what the caller put in the flag.
// Returns domain.ErrValidation if the title is empty.
func (s *CatalogService) Create(ctx context.Context, book domain.Book) (domain.Book, error) {
	if err := validateBook(book); err != nil {
		return domain.Book{}, err
	}
	book.IsAvailable = true
	result, err := s.books.Create(ctx, book)
	if err != nil {
		return domain.Book{}, fmt.Errorf("service.CatalogService.Create: %w", err)
	}
	return result, nil
}

// GetByID returns a single book by ID.
// Returns domain.ErrNotFound if no book with that ID exists.
func (s *CatalogService) GetByID(ctx context.Context, id int64) (domain.Book, error) {
	result, err := s.books.GetByID(ctx, id)
	if err != nil {
		return domain.Book{}, fmt.Errorf("service.CatalogService.GetByID: %w", err)
	}
	return result, nil
}

// List returns all books in store-default order.
// Always returns a non-nil slice so callers can safely range over it.
func (s *CatalogService) List(ctx context.Context) ([]domain.Book, error) {
	books, err := s.books.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.CatalogService.List: %w", err)
	}
	if books == nil {
		return []domain.Book{}, nil
	}
	return books, nil
}

// Update validates and persists changes to a book's catalog fields.
// The availability flag cannot be changed through this path.
// Returns domain.ErrValidation for invalid input, domain.ErrNotFound if the
// book does not exist.
func (s *CatalogService) Update(ctx context.Context, book domain.Book) (domain.Book, error) {
	if err := validateBook(book); err != nil {
		return domain.Book{}, err
	}
	result, err := s.books.Update(ctx, book)
	if err != nil {
		return domain.Book{}, fmt.Errorf("service.CatalogService.Update: %w", err)
	}
	return result, nil
}

// validateBook enforces structural rules common to Create and Update.
// Title must be non-empty (whitespace-only titles are rejected).
func validateBook(book domain.Book) error {
	if strings.TrimSpace(book.Title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	return nil
}
