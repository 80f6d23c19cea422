package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/librarydesk/backend/internal/domain"
)

// bookResponse is the wire shape of a book. published_date is an explicit
// null when unknown — the public listing contract requires the key to be
// present on every element.
type bookResponse struct {
	ID            int64               `json:"id"`
	Name          string              `json:"name"`
	Author        string              `json:"author"`
	PublishedDate *openapi_types.Date `json:"published_date"`
	IsAvailable   bool                `json:"is_available"`
}

// createBookRequest is the body for POST and PUT /library/books.
type createBookRequest struct {
	Name          string              `json:"name"`
	Author        *string             `json:"author"`
	PublishedDate *openapi_types.Date `json:"published_date"`
}

// ListBooks handles GET /library/books — the public read-only listing.
// Returns the full current set of books in store-default order, no
// pagination or filtering.
func (s *Server) ListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.books.List(r.Context())
	if err != nil {
		writeError(w, err, "")
		return
	}

	data := make([]bookResponse, len(books))
	for i, b := range books {
		data[i] = bookToResponse(b)
	}
	writeJSON(w, http.StatusOK, data)
}

// CreateBook handles POST /library/books.
func (s *Server) CreateBook(w http.ResponseWriter, r *http.Request) {
	book, err := requestToBook(r)
	if err != nil {
		writeRequestError(w, err.Error())
		return
	}

	created, err := s.books.Create(r.Context(), book)
	if err != nil {
		writeError(w, err, "book not found")
		return
	}

	writeJSON(w, http.StatusCreated, bookToResponse(created))
}

// GetBook handles GET /library/books/{id}.
func (s *Server) GetBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeRequestError(w, "invalid book id")
		return
	}

	book, err := s.books.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err, "book not found")
		return
	}

	writeJSON(w, http.StatusOK, bookToResponse(book))
}

// UpdateBook handles PUT /library/books/{id}.
// Only catalog fields can change; availability is owned by the loan service.
func (s *Server) UpdateBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeRequestError(w, "invalid book id")
		return
	}

	book, err := requestToBook(r)
	if err != nil {
		writeRequestError(w, err.Error())
		return
	}
	book.ID = id

	updated, err := s.books.Update(r.Context(), book)
	if err != nil {
		writeError(w, err, "book not found")
		return
	}

	writeJSON(w, http.StatusOK, bookToResponse(updated))
}

// --- mapping helpers --------------------------------------------------------

// pathID parses the {id} URL parameter as an int64 primary key.
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// requestToBook decodes a create/update body into a domain.Book.
func requestToBook(r *http.Request) (domain.Book, error) {
	var body createBookRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return domain.Book{}, errors.New("invalid request body")
	}

	b := domain.Book{Title: body.Name}
	if body.Author != nil {
		b.Author = *body.Author
	}
	if body.PublishedDate != nil {
		pd := body.PublishedDate.Time
		b.PublishedDate = &pd
	}
	return b, nil
}

// bookToResponse converts a domain.Book into its wire shape.
func bookToResponse(b domain.Book) bookResponse {
	resp := bookResponse{
		ID:          b.ID,
		Name:        b.Title,
		Author:      b.Author,
		IsAvailable: b.IsAvailable,
	}
	if b.PublishedDate != nil {
		resp.PublishedDate = &openapi_types.Date{Time: *b.PublishedDate}
	}
	return resp
}
