package service

import (
	"context"
	"fmt"

	"github.com/librarydesk/backend/internal/domain"
	"github.com/librarydesk/backend/internal/repo"
)

// LoanOpener is the slice of LoanService the checkout workflow needs.
type LoanOpener interface {
	Open(ctx context.Context, borrowerID, bookID int64) (domain.Loan, error)
}

// CheckoutService is the desk-facing workflow for lending a book: check the
// book is available, then hand off to the loan service.
//
// The availability check here is an optimistic pre-check for a friendlier
// message; the authoritative guarantee is LoanService.Open's in-transaction
// conflict check, which still catches a race between the two steps.
type CheckoutService struct {
	books repo.BookRepo
	loans LoanOpener
}

// NewCheckoutService constructs a CheckoutService backed by the provided
// book repo and loan opener.
func NewCheckoutService(books repo.BookRepo, loans LoanOpener) *CheckoutService {
	return &CheckoutService{books: books, loans: loans}
}

// Checkout lends bookID to borrowerID.
// Returns domain.ErrNotFound if the book does not exist and
// domain.ErrUnavailable if it is already marked rented — both without
// calling the loan service. Otherwise delegates to LoanService.Open.
func (s *CheckoutService) Checkout(ctx context.Context, borrowerID, bookID int64) (domain.Loan, error) {
	book, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return domain.Loan{}, fmt.Errorf("service.CheckoutService.Checkout: %w", err)
	}

	if !book.IsAvailable {
		return domain.Loan{}, fmt.Errorf("service.CheckoutService.Checkout: %w: book is already rented", domain.ErrUnavailable)
	}

	loan, err := s.loans.Open(ctx, borrowerID, bookID)
	if err != nil {
		return domain.Loan{}, fmt.Errorf("service.CheckoutService.Checkout: %w", err)
	}
	return loan, nil
}
