package forecast

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// InsertOutcome is the result of an insert that reached the store.
type InsertOutcome int

const (
	InsertCreated InsertOutcome = iota
	InsertAlreadyExists
)

func (o InsertOutcome) String() string {
	switch o {
	case InsertCreated:
		return "created"
	case InsertAlreadyExists:
		return "already_exists"
	default:
		return "unknown"
	}
}

// InsertResult carries the created forecast when Outcome is InsertCreated.
type InsertResult struct {
	Outcome  InsertOutcome
	Forecast Forecast
}

// UpdateOutcome is the terminal state of an optimistic update.
type UpdateOutcome int

const (
	UpdateAccepted UpdateOutcome = iota
	UpdateVersionConflict
	UpdateNotFound
)

func (o UpdateOutcome) String() string {
	switch o {
	case UpdateAccepted:
		return "accepted"
	case UpdateVersionConflict:
		return "version_conflict"
	case UpdateNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// UpdateResult carries the stored forecast, with its new token, when Outcome is UpdateAccepted.
type UpdateResult struct {
	Outcome  UpdateOutcome
	Forecast Forecast
}

// Repository is the forecast persistence contract used by the HTTP layer.
// Expected outcomes are returned as typed results; the error return is reserved
// for store failures.
type Repository interface {
	List(ctx context.Context) ([]Forecast, error)
	Get(ctx context.Context, id int) (Forecast, bool, error)
	Insert(ctx context.Context, f Forecast) (InsertResult, error)
	Update(ctx context.Context, f Forecast) (UpdateResult, error)
	Remove(ctx context.Context, id int) (int, error)
}

// DocumentRepository implements Repository with optimistic concurrency on top of a DocumentStore.
type DocumentRepository struct {
	store    DocumentStore
	newToken func() string
}

// Option configures a DocumentRepository.
type Option func(*DocumentRepository)

// WithTokenGenerator replaces the UUID token generator.
func WithTokenGenerator(fn func() string) Option {
	return func(r *DocumentRepository) {
		if fn != nil {
			r.newToken = fn
		}
	}
}

// NewRepository creates a DocumentRepository over the given store.
func NewRepository(store DocumentStore, opts ...Option) *DocumentRepository {
	r := &DocumentRepository{
		store:    store,
		newToken: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// List returns every stored forecast.
func (r *DocumentRepository) List(ctx context.Context) ([]Forecast, error) {
	items, err := r.store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list forecasts: %w", err)
	}
	return items, nil
}

// Get looks up a forecast by id. A missing forecast is reported with ok == false.
func (r *DocumentRepository) Get(ctx context.Context, id int) (Forecast, bool, error) {
	f, err := r.store.FindOne(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Forecast{}, false, nil
		}
		return Forecast{}, false, fmt.Errorf("get forecast %d: %w", id, err)
	}
	return f, true, nil
}

// Insert stores a new forecast. A blank token is replaced by a freshly generated one.
func (r *DocumentRepository) Insert(ctx context.Context, f Forecast) (InsertResult, error) {
	if strings.TrimSpace(f.ETag) == "" {
		f.ETag = r.newToken()
	}

	if err := r.store.InsertOne(ctx, f); err != nil {
		if errors.Is(err, ErrDuplicateID) {
			return InsertResult{Outcome: InsertAlreadyExists}, nil
		}
		return InsertResult{}, fmt.Errorf("insert forecast %d: %w", f.ID, err)
	}
	return InsertResult{Outcome: InsertCreated, Forecast: f}, nil
}

// Update replaces a forecast if f.ETag matches the stored token, rotating the token.
func (r *DocumentRepository) Update(ctx context.Context, f Forecast) (UpdateResult, error) {
	expected := f.ETag
	f.ETag = r.newToken()

	err := r.store.ReplaceOne(ctx, f, expected)
	switch {
	case err == nil:
		return UpdateResult{Outcome: UpdateAccepted, Forecast: f}, nil
	case errors.Is(err, ErrETagMismatch):
		return UpdateResult{Outcome: UpdateVersionConflict}, nil
	case errors.Is(err, ErrNotFound):
		return UpdateResult{Outcome: UpdateNotFound}, nil
	default:
		return UpdateResult{}, fmt.Errorf("update forecast %d: %w", f.ID, err)
	}
}

// Remove deletes a forecast and returns how many records were removed (0 or 1).
func (r *DocumentRepository) Remove(ctx context.Context, id int) (int, error) {
	n, err := r.store.DeleteOne(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("remove forecast %d: %w", id, err)
	}
	return n, nil
}
