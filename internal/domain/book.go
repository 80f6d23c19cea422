// Package domain contains the core data types for the Library Desk application.
// This package has zero external dependencies and is imported by every other
// internal package (repo, service, handler).
package domain

import "time"

// Book represents a single title in the lending desk's catalog.
// IsAvailable is a derived cache: true exactly when no open loan references
// this book. It is written only by the loan service's reconcile step —
// no other code path may set it.
type Book struct {
	ID            int64
	Title         string
	Author        string     // empty string when unknown
	PublishedDate *time.Time // nil when unknown
	IsAvailable   bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
