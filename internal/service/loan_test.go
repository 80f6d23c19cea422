package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librarydesk/backend/internal/domain"
	"github.com/librarydesk/backend/internal/service"
)

// memStore is a small in-memory record store the loan service mocks are
// wired to. It lets the tests assert end state (availability flags, loan
// records) after the service logic has run, without a database.
type memStore struct {
	books      map[int64]domain.Book
	loans      map[int64]domain.Loan
	nextLoanID int64
	today      time.Time
}

func newMemStore(books ...domain.Book) *memStore {
	s := &memStore{
		books: map[int64]domain.Book{},
		loans: map[int64]domain.Loan{},
		today: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	}
	for _, b := range books {
		s.books[b.ID] = b
	}
	return s
}

func (s *memStore) countOpen(bookID, excludeID int64) int64 {
	var n int64
	for _, l := range s.loans {
		if l.BookID == bookID && l.ID != excludeID && l.ReturnDate == nil {
			n++
		}
	}
	return n
}

// bookRepo returns a mockBookRepo view over the store.
func (s *memStore) bookRepo() *mockBookRepo {
	return &mockBookRepo{
		getByID: func(_ context.Context, id int64) (domain.Book, error) {
			b, ok := s.books[id]
			if !ok {
				return domain.Book{}, domain.ErrNotFound
			}
			return b, nil
		},
		setAvailability: func(_ context.Context, id int64, available bool) error {
			b, ok := s.books[id]
			if !ok {
				return domain.ErrNotFound
			}
			b.IsAvailable = available
			s.books[id] = b
			return nil
		},
	}
}

// loanRepo returns a mockLoanRepo view over the store, with the same
// conflict backstop behavior as the Postgres implementation.
func (s *memStore) loanRepo() *mockLoanRepo {
	return &mockLoanRepo{
		create: func(_ context.Context, l domain.Loan) (domain.Loan, error) {
			if l.ReturnDate == nil && s.countOpen(l.BookID, 0) > 0 {
				return domain.Loan{}, fmt.Errorf("book already has an open loan: %w", domain.ErrConflict)
			}
			s.nextLoanID++
			l.ID = s.nextLoanID
			l.RentDate = s.today
			s.loans[l.ID] = l
			return l, nil
		},
		getByID: func(_ context.Context, id int64) (domain.Loan, error) {
			l, ok := s.loans[id]
			if !ok {
				return domain.Loan{}, domain.ErrNotFound
			}
			return l, nil
		},
		update: func(_ context.Context, l domain.Loan) (domain.Loan, error) {
			current, ok := s.loans[l.ID]
			if !ok {
				return domain.Loan{}, domain.ErrNotFound
			}
			if l.ReturnDate == nil && s.countOpen(l.BookID, l.ID) > 0 {
				return domain.Loan{}, fmt.Errorf("book already has an open loan: %w", domain.ErrConflict)
			}
			l.RentDate = current.RentDate // immutable
			s.loans[l.ID] = l
			return l, nil
		},
		countOpen: func(_ context.Context, bookID, excludeID int64) (int64, error) {
			return s.countOpen(bookID, excludeID), nil
		},
	}
}

// newLoanService wires a LoanService to the store with a fixed clock.
func newLoanService(s *memStore) *service.LoanService {
	loans := s.loanRepo()
	svc := service.NewLoanService(&mockTxRunner{books: s.bookRepo(), loans: loans}, loans)
	service.SetNow(svc, func() time.Time { return s.today })
	return svc
}

// assertInvariant checks the availability rule for every book in the store:
// is_available is true exactly when no open loan references the book.
func assertInvariant(t *testing.T, s *memStore) {
	t.Helper()
	for id, b := range s.books {
		assert.Equal(t, s.countOpen(id, 0) == 0, b.IsAvailable,
			"availability of book %d must reflect its open loans", id)
	}
}

// ---- Open ------------------------------------------------------------------

func TestLoanService_Open_OK(t *testing.T) {
	store := newMemStore(domain.Book{ID: 1, Title: "Dune", IsAvailable: true})
	svc := newLoanService(store)

	loan, err := svc.Open(context.Background(), 7, 1)

	require.NoError(t, err)
	assert.EqualValues(t, 7, loan.BorrowerID)
	assert.EqualValues(t, 1, loan.BookID)
	assert.Nil(t, loan.ReturnDate)
	assert.True(t, loan.RentDate.Equal(store.today), "rent date is today")
	assert.False(t, store.books[1].IsAvailable, "book must flip unavailable")
	assertInvariant(t, store)
}

func TestLoanService_Open_BookNotFound(t *testing.T) {
	store := newMemStore()
	svc := newLoanService(store)

	_, err := svc.Open(context.Background(), 7, 99)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, store.loans, "no loan may be created")
}

func TestLoanService_Open_Conflict(t *testing.T) {
	store := newMemStore(domain.Book{ID: 1, Title: "Dune", IsAvailable: true})
	svc := newLoanService(store)

	first, err := svc.Open(context.Background(), 7, 1)
	require.NoError(t, err)

	_, err = svc.Open(context.Background(), 9, 1)

	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Len(t, store.loans, 1, "conflicting open must not create a loan")
	assert.Equal(t, first, store.loans[first.ID], "prior loan must be untouched")
	assert.False(t, store.books[1].IsAvailable, "availability must be unchanged")
	assertInvariant(t, store)
}

// ---- Return ----------------------------------------------------------------

func TestLoanService_Return_ClosesAndRestoresAvailability(t *testing.T) {
	store := newMemStore(domain.Book{ID: 1, Title: "Dune", IsAvailable: true})
	svc := newLoanService(store)

	loan, err := svc.Open(context.Background(), 7, 1)
	require.NoError(t, err)

	returned, err := svc.Return(context.Background(), loan.ID)

	require.NoError(t, err)
	require.NotNil(t, returned.ReturnDate)
	assert.True(t, returned.ReturnDate.Equal(store.today))
	assert.True(t, store.books[1].IsAvailable, "book must be available again")
	assertInvariant(t, store)
}

func TestLoanService_Return_Idempotent(t *testing.T) {
	store := newMemStore(domain.Book{ID: 1, Title: "Dune", IsAvailable: true})
	svc := newLoanService(store)

	loan, err := svc.Open(context.Background(), 7, 1)
	require.NoError(t, err)

	first, err := svc.Return(context.Background(), loan.ID)
	require.NoError(t, err)

	// The clock moves on; a second return must keep the first date.
	store.today = store.today.AddDate(0, 0, 3)

	second, err := svc.Return(context.Background(), loan.ID)

	require.NoError(t, err)
	assert.Equal(t, first, second, "second return must be a no-op")
	require.NotNil(t, second.ReturnDate)
	assert.True(t, second.ReturnDate.Equal(*first.ReturnDate), "return date keeps the first call's date")
	assertInvariant(t, store)
}

func TestLoanService_Return_NotFound(t *testing.T) {
	store := newMemStore()
	svc := newLoanService(store)

	_, err := svc.Return(context.Background(), 99)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ---- Update ----------------------------------------------------------------

func TestLoanService_Update_ClearReturnDateReopens(t *testing.T) {
	store := newMemStore(domain.Book{ID: 1, Title: "Dune", IsAvailable: true})
	svc := newLoanService(store)

	loan, err := svc.Open(context.Background(), 7, 1)
	require.NoError(t, err)
	closed, err := svc.Return(context.Background(), loan.ID)
	require.NoError(t, err)

	closed.ReturnDate = nil
	reopened, err := svc.Update(context.Background(), closed)

	require.NoError(t, err)
	assert.Nil(t, reopened.ReturnDate)
	assert.False(t, store.books[1].IsAvailable, "reopening re-marks the book unavailable")
	assertInvariant(t, store)
}

func TestLoanService_Update_ReopenConflicts(t *testing.T) {
	store := newMemStore(domain.Book{ID: 1, Title: "Dune", IsAvailable: true})
	svc := newLoanService(store)

	loan, err := svc.Open(context.Background(), 7, 1)
	require.NoError(t, err)
	closed, err := svc.Return(context.Background(), loan.ID)
	require.NoError(t, err)

	// Someone else checked the book out in the meantime.
	_, err = svc.Open(context.Background(), 9, 1)
	require.NoError(t, err)

	closed.ReturnDate = nil
	_, err = svc.Update(context.Background(), closed)

	assert.ErrorIs(t, err, domain.ErrConflict)
	require.NotNil(t, store.loans[closed.ID].ReturnDate, "failed update must keep the pre-update state")
	assertInvariant(t, store)
}

func TestLoanService_Update_MoveBookReconcilesBoth(t *testing.T) {
	store := newMemStore(
		domain.Book{ID: 1, Title: "Dune", IsAvailable: true},
		domain.Book{ID: 2, Title: "Hyperion", IsAvailable: true},
	)
	svc := newLoanService(store)

	loan, err := svc.Open(context.Background(), 7, 1)
	require.NoError(t, err)

	loan.BookID = 2
	_, err = svc.Update(context.Background(), loan)

	require.NoError(t, err)
	assert.True(t, store.books[1].IsAvailable, "old book is free again")
	assert.False(t, store.books[2].IsAvailable, "new book is taken")
	assertInvariant(t, store)
}

func TestLoanService_Update_NewBookNotFound(t *testing.T) {
	store := newMemStore(domain.Book{ID: 1, Title: "Dune", IsAvailable: true})
	svc := newLoanService(store)

	loan, err := svc.Open(context.Background(), 7, 1)
	require.NoError(t, err)

	loan.BookID = 99
	_, err = svc.Update(context.Background(), loan)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.EqualValues(t, 1, store.loans[loan.ID].BookID, "failed update must keep the pre-update state")
}

func TestLoanService_Update_NotFound(t *testing.T) {
	store := newMemStore(domain.Book{ID: 1, Title: "Dune", IsAvailable: true})
	svc := newLoanService(store)

	_, err := svc.Update(context.Background(), domain.Loan{ID: 99, BorrowerID: 7, BookID: 1})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ---- round trip ------------------------------------------------------------

func TestLoanService_OpenReturnOpenRoundTrip(t *testing.T) {
	store := newMemStore(domain.Book{ID: 1, Title: "Dune", IsAvailable: true})
	svc := newLoanService(store)
	ctx := context.Background()

	first, err := svc.Open(ctx, 7, 1)
	require.NoError(t, err)
	assert.False(t, store.books[1].IsAvailable)

	_, err = svc.Return(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, store.books[1].IsAvailable)

	second, err := svc.Open(ctx, 9, 1)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.False(t, store.books[1].IsAvailable)
	assertInvariant(t, store)
}

// ---- reads -----------------------------------------------------------------

func TestLoanService_List_NeverNil(t *testing.T) {
	loans := &mockLoanRepo{
		list: func(_ context.Context) ([]domain.Loan, error) { return nil, nil },
	}
	svc := service.NewLoanService(&mockTxRunner{loans: loans}, loans)

	got, err := svc.List(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLoanService_GetByID_NotFound(t *testing.T) {
	loans := &mockLoanRepo{
		getByID: func(_ context.Context, _ int64) (domain.Loan, error) {
			return domain.Loan{}, domain.ErrNotFound
		},
	}
	svc := service.NewLoanService(&mockTxRunner{loans: loans}, loans)

	_, err := svc.GetByID(context.Background(), 99)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
