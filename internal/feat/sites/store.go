package sites

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")
)

// Store maps a slug to its current site record.
//
// Upsert creates or replaces the record atomically: a concurrent Fetch sees
// either the previous record or the new one in full. Fetch returns
// ErrNotFound when the slug is absent and a *StorageError when the backend
// fails.
type Store interface {
	Upsert(ctx context.Context, site *Site) error
	Fetch(ctx context.Context, slug string) (*Site, error)
	Ping(ctx context.Context) error
	Backend() string
}

// StorageError reports a backend read or write failure.
type StorageError struct {
	Op   string
	Slug string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Slug == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Slug, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageError(op, slug string, err error) error {
	return &StorageError{Op: op, Slug: slug, Err: err}
}

// IsStorageError reports whether err is, or wraps, a *StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
