package domain

import "time"

// Loan records one lending of a book to a borrower.
// ReturnDate is nil while the book is still out; a loan with a nil
// ReturnDate is "open" and at most one open loan may exist per book.
//
// BorrowerID identifies an external party (the desk does not manage
// borrower records itself). RentDate is set when the loan is created and
// never changes afterwards. Loans are never deleted — they are the audit
// trail of lending history.
type Loan struct {
	ID         int64
	BorrowerID int64
	BookID     int64
	RentDate   time.Time
	ReturnDate *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Open reports whether the book on this loan is still out.
func (l Loan) Open() bool {
	return l.ReturnDate == nil
}
