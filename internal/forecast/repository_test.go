package forecast_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-forecasts/internal/forecast"
	"github.com/i474232898/weather-forecasts/internal/store"
)

func newRepo(t *testing.T) *forecast.DocumentRepository {
	t.Helper()
	return forecast.NewRepository(store.NewMemoryStore())
}

func sample(id int) forecast.Forecast {
	return forecast.Forecast{
		ID:           id,
		Date:         forecast.NewDate(2022, time.January, 1),
		TemperatureC: 32,
		Summary:      "Mild",
	}
}

func TestInsertThenGet(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	res, err := repo.Insert(ctx, sample(1))
	require.NoError(t, err)
	require.Equal(t, forecast.InsertCreated, res.Outcome)
	assert.NotEmpty(t, res.Forecast.ETag)
	_, err = uuid.Parse(res.Forecast.ETag)
	assert.NoError(t, err, "generated token should be a UUID")

	got, ok, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.SameContent(sample(1)))
	assert.Equal(t, res.Forecast.ETag, got.ETag)
}

func TestInsertKeepsCallerToken(t *testing.T) {
	repo := newRepo(t)
	f := sample(1)
	f.ETag = "preassigned"

	res, err := repo.Insert(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, "preassigned", res.Forecast.ETag)
}

func TestInsertBlankTokenIsReplaced(t *testing.T) {
	repo := newRepo(t)
	f := sample(1)
	f.ETag = "   "

	res, err := repo.Insert(context.Background(), f)
	require.NoError(t, err)
	assert.NotEqual(t, "   ", res.Forecast.ETag)
	assert.NotEmpty(t, res.Forecast.ETag)
}

func TestDuplicateInsert(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	first, err := repo.Insert(ctx, sample(1))
	require.NoError(t, err)

	dup := sample(1)
	dup.Summary = "Scorching"
	res, err := repo.Insert(ctx, dup)
	require.NoError(t, err)
	assert.Equal(t, forecast.InsertAlreadyExists, res.Outcome)

	got, _, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Mild", got.Summary)
	assert.Equal(t, first.Forecast.ETag, got.ETag)
}

func TestUpdateRotatesToken(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	r1, err := repo.Insert(ctx, sample(1))
	require.NoError(t, err)

	res, err := repo.Update(ctx, r1.Forecast)
	require.NoError(t, err)
	require.Equal(t, forecast.UpdateAccepted, res.Outcome)
	assert.NotEqual(t, r1.Forecast.ETag, res.Forecast.ETag)
	assert.True(t, res.Forecast.SameContent(r1.Forecast))
}

func TestUpdateStaleToken(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	r1, err := repo.Insert(ctx, sample(1))
	require.NoError(t, err)

	changed := r1.Forecast
	changed.TemperatureC = 20
	r2, err := repo.Update(ctx, changed)
	require.NoError(t, err)
	require.Equal(t, forecast.UpdateAccepted, r2.Outcome)

	stale := r1.Forecast
	stale.Summary = "Lost update"
	res, err := repo.Update(ctx, stale)
	require.NoError(t, err)
	assert.Equal(t, forecast.UpdateVersionConflict, res.Outcome)

	got, _, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, r2.Forecast.ETag, got.ETag)
	assert.Equal(t, 20, got.TemperatureC)
	assert.Equal(t, "Mild", got.Summary)
}

func TestUpdateTokenCaseInsensitive(t *testing.T) {
	repo := forecast.NewRepository(store.NewMemoryStore(), forecast.WithTokenGenerator(func() string {
		return "3F2504E0-4F89-11D3-9A0C-0305E82C3301"
	}))
	ctx := context.Background()

	_, err := repo.Insert(ctx, sample(1))
	require.NoError(t, err)

	f := sample(1)
	f.ETag = "3f2504e0-4f89-11d3-9a0c-0305e82c3301"
	res, err := repo.Update(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, forecast.UpdateAccepted, res.Outcome)
}

func TestUpdateMissing(t *testing.T) {
	repo := newRepo(t)
	f := sample(9)
	f.ETag = uuid.NewString()

	res, err := repo.Update(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, forecast.UpdateNotFound, res.Outcome)
}

func TestRemove(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	_, err := repo.Insert(ctx, sample(1))
	require.NoError(t, err)

	n, err := repo.Remove(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, ok, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err = repo.Remove(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestConcurrentUpdatesOneWinner(t *testing.T) {
	var seq atomic.Int64
	repo := forecast.NewRepository(store.NewMemoryStore(), forecast.WithTokenGenerator(func() string {
		return fmt.Sprintf("tok-%d", seq.Add(1))
	}))
	ctx := context.Background()

	r1, err := repo.Insert(ctx, sample(1))
	require.NoError(t, err)

	const writers = 20
	outcomes := make([]forecast.UpdateOutcome, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f := r1.Forecast
			f.TemperatureC = i
			res, err := repo.Update(ctx, f)
			assert.NoError(t, err)
			outcomes[i] = res.Outcome
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, o := range outcomes {
		if o == forecast.UpdateAccepted {
			accepted++
		} else {
			assert.Equal(t, forecast.UpdateVersionConflict, o)
		}
	}
	assert.Equal(t, 1, accepted)
}

type brokenStore struct {
	forecast.DocumentStore
}

var errBroken = errors.New("connection refused")

func (brokenStore) FindAll(context.Context) ([]forecast.Forecast, error) { return nil, errBroken }
func (brokenStore) FindOne(context.Context, int) (forecast.Forecast, error) {
	return forecast.Forecast{}, errBroken
}
func (brokenStore) InsertOne(context.Context, forecast.Forecast) error { return errBroken }
func (brokenStore) ReplaceOne(context.Context, forecast.Forecast, string) error {
	return errBroken
}
func (brokenStore) DeleteOne(context.Context, int) (int, error) { return 0, errBroken }

func TestStoreFailuresAreErrors(t *testing.T) {
	repo := forecast.NewRepository(brokenStore{})
	ctx := context.Background()

	_, err := repo.List(ctx)
	assert.ErrorIs(t, err, errBroken)

	_, _, err = repo.Get(ctx, 1)
	assert.ErrorIs(t, err, errBroken)

	_, err = repo.Insert(ctx, sample(1))
	assert.ErrorIs(t, err, errBroken)

	_, err = repo.Update(ctx, sample(1))
	assert.ErrorIs(t, err, errBroken)

	_, err = repo.Remove(ctx, 1)
	assert.ErrorIs(t, err, errBroken)
}

func TestOutcomeStrings(t *testing.T) {
	assert.Equal(t, "created", forecast.InsertCreated.String())
	assert.Equal(t, "already_exists", forecast.InsertAlreadyExists.String())
	assert.Equal(t, "accepted", forecast.UpdateAccepted.String())
	assert.Equal(t, "version_conflict", forecast.UpdateVersionConflict.String())
	assert.Equal(t, "not_found", forecast.UpdateNotFound.String())
}
