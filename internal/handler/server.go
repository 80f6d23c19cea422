// Package handler implements the HTTP handlers for the Library Desk API.
// All handlers are methods on Server. Methods are split into resource-specific
// files (health.go, book.go, loan.go) but all share the same Server struct so
// they can access its dependencies.
package handler

import (
	"context"

	"github.com/go-chi/chi/v5"

	"github.com/librarydesk/backend/internal/domain"
)

// BookServicer defines the catalog operations the book handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type BookServicer interface {
	Create(ctx context.Context, book domain.Book) (domain.Book, error)
	GetByID(ctx context.Context, id int64) (domain.Book, error)
	List(ctx context.Context) ([]domain.Book, error)
	Update(ctx context.Context, book domain.Book) (domain.Book, error)
}

// LoanServicer defines the loan lifecycle operations the loan handlers
// depend on.
type LoanServicer interface {
	GetByID(ctx context.Context, id int64) (domain.Loan, error)
	List(ctx context.Context) ([]domain.Loan, error)
	Update(ctx context.Context, loan domain.Loan) (domain.Loan, error)
	Return(ctx context.Context, id int64) (domain.Loan, error)
}

// CheckoutServicer defines the checkout workflow the checkout handler
// depends on.
type CheckoutServicer interface {
	Checkout(ctx context.Context, borrowerID, bookID int64) (domain.Loan, error)
}

// Server holds the dependencies for all API endpoints.
// Wire it in main.go via Register on a chi router.
// Methods are in resource-specific files but all operate on this struct.
type Server struct {
	books    BookServicer
	loans    LoanServicer
	checkout CheckoutServicer
	openapi  []byte
}

// NewServer constructs the Server with all its dependencies.
// openapi may be nil when the embedded API document should not be served.
func NewServer(books BookServicer, loans LoanServicer, checkout CheckoutServicer, openapi []byte) *Server {
	return &Server{books: books, loans: loans, checkout: checkout, openapi: openapi}
}

// Register mounts every route on the given router.
// The /library/books listing is the public read-only surface; everything
// else is the desk-facing record API.
func (s *Server) Register(r chi.Router) {
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Route("/library", func(r chi.Router) {
		r.Get("/books", s.ListBooks)
		r.Post("/books", s.CreateBook)
		r.Get("/books/{id}", s.GetBook)
		r.Put("/books/{id}", s.UpdateBook)

		r.Post("/checkout", s.Checkout)

		r.Get("/loans", s.ListLoans)
		r.Get("/loans/{id}", s.GetLoan)
		r.Put("/loans/{id}", s.UpdateLoan)
		r.Post("/loans/{id}/return", s.ReturnLoan)
	})
}
