package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/librarydesk/backend/internal/domain"
)

// BookFixture returns a domain.Book with sensible defaults for use in tests.
// The title carries a random suffix so fixtures never collide on a shared
// test database. Callers can override individual fields afterwards.
func BookFixture() domain.Book {
	published := time.Date(1965, 8, 1, 0, 0, 0, 0, time.UTC)
	return domain.Book{
		Title:         "Dune " + uuid.NewString(),
		Author:        "Frank Herbert",
		PublishedDate: &published,
		IsAvailable:   true,
	}
}
