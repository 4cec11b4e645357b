package forecast

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when no document exists for the requested id.
	ErrNotFound = errors.New("forecast not found")
	// ErrDuplicateID is returned by InsertOne when the id is already taken.
	ErrDuplicateID = errors.New("forecast id already exists")
	// ErrETagMismatch is returned by ReplaceOne when the stored token differs from the expected one.
	ErrETagMismatch = errors.New("forecast etag mismatch")
	// ErrStoreUnavailable marks an infrastructure failure of the underlying store.
	ErrStoreUnavailable = errors.New("forecast store unavailable")
)

// DocumentStore is the contract every backing store must satisfy.
//
// ReplaceOne must compare the expected token with ETagsMatch and write the
// new document as a single atomic step; the repository relies on it for OCC.
type DocumentStore interface {
	FindAll(ctx context.Context) ([]Forecast, error)
	FindOne(ctx context.Context, id int) (Forecast, error)
	InsertOne(ctx context.Context, f Forecast) error
	ReplaceOne(ctx context.Context, f Forecast, expectedETag string) error
	DeleteOne(ctx context.Context, id int) (int, error)
	Count(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}

// IsDomainError reports whether err is one of the expected store outcomes
// rather than an infrastructure failure.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrDuplicateID) ||
		errors.Is(err, ErrETagMismatch)
}

// ETagsMatch is the token comparison every store applies: exact apart from
// Unicode case folding.
func ETagsMatch(stored, presented string) bool {
	return strings.EqualFold(stored, presented)
}
