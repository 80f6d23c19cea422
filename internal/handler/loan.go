package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/librarydesk/backend/internal/domain"
)

// loanResponse is the wire shape of a loan. return_date is an explicit null
// while the loan is open.
type loanResponse struct {
	ID         int64               `json:"id"`
	BorrowerID int64               `json:"borrower_id"`
	BookID     int64               `json:"book_id"`
	RentDate   openapi_types.Date  `json:"rent_date"`
	ReturnDate *openapi_types.Date `json:"return_date"`
}

// checkoutRequest is the body for POST /library/checkout.
type checkoutRequest struct {
	BorrowerID int64 `json:"borrower_id"`
	BookID     int64 `json:"book_id"`
}

// updateLoanRequest is the body for PUT /library/loans/{id}.
// Omitting return_date (or sending null) marks the loan open.
type updateLoanRequest struct {
	BorrowerID int64               `json:"borrower_id"`
	BookID     int64               `json:"book_id"`
	ReturnDate *openapi_types.Date `json:"return_date"`
}

// Checkout handles POST /library/checkout: lend a book to a borrower.
// 201 with the created loan on success; 404 when the book does not exist;
// 409 when it is already rented.
func (s *Server) Checkout(w http.ResponseWriter, r *http.Request) {
	var body checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeRequestError(w, "invalid request body")
		return
	}
	if body.BorrowerID == 0 || body.BookID == 0 {
		writeRequestError(w, "borrower_id and book_id are required")
		return
	}

	loan, err := s.checkout.Checkout(r.Context(), body.BorrowerID, body.BookID)
	if err != nil {
		writeError(w, err, "book not found")
		return
	}

	writeJSON(w, http.StatusCreated, loanToResponse(loan))
}

// ListLoans handles GET /library/loans.
// Loans come back most recently rented first.
func (s *Server) ListLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := s.loans.List(r.Context())
	if err != nil {
		writeError(w, err, "")
		return
	}

	data := make([]loanResponse, len(loans))
	for i, l := range loans {
		data[i] = loanToResponse(l)
	}
	writeJSON(w, http.StatusOK, data)
}

// GetLoan handles GET /library/loans/{id}.
func (s *Server) GetLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeRequestError(w, "invalid loan id")
		return
	}

	loan, err := s.loans.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err, "loan not found")
		return
	}

	writeJSON(w, http.StatusOK, loanToResponse(loan))
}

// UpdateLoan handles PUT /library/loans/{id} — the generic update entry
// point. Clearing return_date re-opens the loan, subject to the same
// conflict check as checkout; 409 when another open loan holds the book.
func (s *Server) UpdateLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeRequestError(w, "invalid loan id")
		return
	}

	loan, err := requestToLoan(id, r)
	if err != nil {
		writeRequestError(w, err.Error())
		return
	}

	updated, err := s.loans.Update(r.Context(), loan)
	if err != nil {
		writeError(w, err, "loan not found")
		return
	}

	writeJSON(w, http.StatusOK, loanToResponse(updated))
}

// ReturnLoan handles POST /library/loans/{id}/return.
// Idempotent: returning an already-closed loan replies 200 with the
// unchanged record.
func (s *Server) ReturnLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeRequestError(w, "invalid loan id")
		return
	}

	loan, err := s.loans.Return(r.Context(), id)
	if err != nil {
		writeError(w, err, "loan not found")
		return
	}

	writeJSON(w, http.StatusOK, loanToResponse(loan))
}

// --- mapping helpers --------------------------------------------------------

// requestToLoan decodes an update body into a domain.Loan, preserving the
// path ID.
func requestToLoan(id int64, r *http.Request) (domain.Loan, error) {
	var body updateLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return domain.Loan{}, errors.New("invalid request body")
	}
	if body.BorrowerID == 0 || body.BookID == 0 {
		return domain.Loan{}, errors.New("borrower_id and book_id are required")
	}

	l := domain.Loan{
		ID:         id,
		BorrowerID: body.BorrowerID,
		BookID:     body.BookID,
	}
	if body.ReturnDate != nil {
		rd := body.ReturnDate.Time
		l.ReturnDate = &rd
	}
	return l, nil
}

// loanToResponse converts a domain.Loan into its wire shape.
func loanToResponse(l domain.Loan) loanResponse {
	resp := loanResponse{
		ID:         l.ID,
		BorrowerID: l.BorrowerID,
		BookID:     l.BookID,
		RentDate:   openapi_types.Date{Time: l.RentDate},
	}
	if l.ReturnDate != nil {
		resp.ReturnDate = &openapi_types.Date{Time: *l.ReturnDate}
	}
	return resp
}
