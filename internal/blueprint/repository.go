package blueprint

import (
	"context"
	"errors"
	"fmt"
)

// ErrBlueprintNotFound is returned when no blueprint header matches the
// requested author or (author, name) pair.
var ErrBlueprintNotFound = errors.New("blueprint not found")

// ErrDuplicateBlueprint is returned when saving a blueprint whose (author, name)
// already exists.
var ErrDuplicateBlueprint = errors.New("blueprint already exists")

// ErrStorage matches every *StorageError via errors.Is.
var ErrStorage = errors.New("blueprint storage error")

// StorageError wraps an unexpected fault from the backing store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is reports whether target is ErrStorage.
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// Kind tags the outcome of a repository call.
type Kind int

const (
	KindNone Kind = iota
	KindNotFound
	KindConflict
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "storage"
	}
}

// KindOf classifies err. Errors that did not come from a repository are
// reported as KindStorage.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrBlueprintNotFound):
		return KindNotFound
	case errors.Is(err, ErrDuplicateBlueprint):
		return KindConflict
	default:
		return KindStorage
	}
}

// Repository persists Blueprint aggregates. Every method runs as a single unit
// of work against the store.
type Repository interface {
	// EnsureSchema creates the header and point tables if they do not exist.
	EnsureSchema(ctx context.Context) error

	// Save writes the header and all points of bp atomically, assigning
	// position indices 0..n-1 in slice order. Returns ErrDuplicateBlueprint if
	// (author, name) is taken.
	Save(ctx context.Context, bp *Blueprint) error

	// Get returns one blueprint with its points in order, or ErrBlueprintNotFound.
	Get(ctx context.Context, author, name string) (*Blueprint, error)

	// ListByAuthor returns every blueprint owned by author ordered by name, or
	// ErrBlueprintNotFound if the author owns none.
	ListByAuthor(ctx context.Context, author string) ([]Blueprint, error)

	// List returns every blueprint in the store ordered by author and name.
	// An empty store yields an empty slice.
	List(ctx context.Context) ([]Blueprint, error)

	// AppendPoint adds p after the last point of the blueprint and returns the
	// position index it was stored at.
	AppendPoint(ctx context.Context, author, name string, p Point) (int, error)

	// Delete removes the blueprint and all of its points.
	Delete(ctx context.Context, author, name string) error
}
