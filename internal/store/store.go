// Package store persists Comparison Memory definitions. The store is the
// sole source of truth for configuration: the runner re-syncs its scheduled
// tasks from change notifications, and Save rejects any definition that
// fails validation, so invalid configuration can never reach the engine.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/sweeney/compare-engine/internal/model"
)

// ErrNotFound is returned when no definition has the requested id.
var ErrNotFound = errors.New("definition not found")

// ChangeKind discriminates change notifications.
type ChangeKind string

const (
	ChangeSaved   ChangeKind = "saved"
	ChangeDeleted ChangeKind = "deleted"
)

// Change is a notification that a definition was saved or deleted.
type Change struct {
	Kind ChangeKind
	ID   string
}

// Store is the persistence contract for Comparison Memory definitions.
type Store interface {
	// LoadAll returns every stored definition.
	LoadAll(ctx context.Context) ([]model.ComparisonMemory, error)

	// Get returns the definition with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (model.ComparisonMemory, error)

	// Save validates and upserts a definition, assigning ids where
	// missing, and returns the stored form. Validation failures are
	// returned as *ValidationError and nothing is written.
	Save(ctx context.Context, m model.ComparisonMemory) (model.ComparisonMemory, error)

	// Delete removes a definition, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Watch returns a channel of change notifications. The channel is
	// closed when the store closes; slow consumers may miss updates and
	// should treat any notification as "re-sync".
	Watch() <-chan Change

	// Close releases the store.
	Close() error
}

// ValidationError wraps the field-scoped errors that made Save reject a
// definition.
type ValidationError struct {
	Errors []model.FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Error()
	}
	return "invalid definition: " + strings.Join(msgs, "; ")
}
