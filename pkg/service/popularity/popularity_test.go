package popularity_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/sfmovies/locations-service/pkg/internal/testutil"
	"github.com/sfmovies/locations-service/pkg/redis"
	"github.com/sfmovies/locations-service/pkg/service/popularity"
	"github.com/sfmovies/locations-service/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestIncreaseRating(t *testing.T) {
	ctx := context.Background()

	t.Run("increments", func(t *testing.T) {
		mockRedis := testutil.NewMockRedis()
		store := redis.NewCatalogStore(mockRedis, "")
		record := testutil.RandomRecord()
		require.True(t, testutil.Must(store.PutIfAbsent(ctx, record))(t))
		ledger := popularity.NewLedger(store, redis.NewLock(mockRedis, "rating-lock"))

		updated := testutil.Must(ledger.IncreaseRating(ctx, record.ID, 1))(t)
		require.Equal(t, uint64(1), updated.Rating)
		updated = testutil.Must(ledger.IncreaseRating(ctx, record.ID, 4))(t)
		require.Equal(t, uint64(5), updated.Rating)
		require.Equal(t, uint64(5), testutil.Must(store.Get(ctx, record.ID))(t).Rating)
		// only the rating changes
		record.Rating = 5
		require.Equal(t, record, updated)
		// lock released
		require.NotContains(t, mockRedis.Keys, "rating-lock")
	})

	t.Run("concurrent increments are not lost", func(t *testing.T) {
		mockRedis := testutil.NewMockRedis()
		store := redis.NewCatalogStore(mockRedis, "")
		records := testutil.RandomRecords(2)
		for _, record := range records {
			require.True(t, testutil.Must(store.PutIfAbsent(ctx, record))(t))
		}
		ledger := popularity.NewLedger(store, redis.NewLock(mockRedis, "rating-lock", redis.WithLockRetry(time.Millisecond)))

		const n = 50
		var wg sync.WaitGroup
		errs := make(chan error, 2*n)
		for i := range 2 * n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := ledger.IncreaseRating(ctx, records[i%2].ID, 1)
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}
		for _, record := range records {
			require.Equal(t, uint64(n), testutil.Must(store.Get(ctx, record.ID))(t).Rating)
		}
	})

	t.Run("not found", func(t *testing.T) {
		mockRedis := testutil.NewMockRedis()
		ledger := popularity.NewLedger(redis.NewCatalogStore(mockRedis, ""), redis.NewLock(mockRedis, "rating-lock"))
		_, err := ledger.IncreaseRating(ctx, "missing", 1)
		require.ErrorIs(t, err, types.ErrKeyNotFound)
		require.NotContains(t, mockRedis.Keys, "rating-lock")
	})

	t.Run("zero increment", func(t *testing.T) {
		mockRedis := testutil.NewMockRedis()
		ledger := popularity.NewLedger(redis.NewCatalogStore(mockRedis, ""), redis.NewLock(mockRedis, "rating-lock"))
		_, err := ledger.IncreaseRating(ctx, "missing", 0)
		require.ErrorIs(t, err, popularity.ErrInvalidIncrement)
	})

	t.Run("rating never decreases", func(t *testing.T) {
		mockRedis := testutil.NewMockRedis()
		store := redis.NewCatalogStore(mockRedis, "")
		record := testutil.RandomRecord()
		require.True(t, testutil.Must(store.PutIfAbsent(ctx, record))(t))
		ledger := popularity.NewLedger(store, redis.NewLock(mockRedis, "rating-lock"))

		testutil.Must(ledger.IncreaseRating(ctx, record.ID, 5))(t)
		_, err := ledger.IncreaseRating(ctx, record.ID, math.MaxUint64)
		require.ErrorIs(t, err, types.ErrRatingOverflow)
		require.Equal(t, uint64(5), testutil.Must(store.Get(ctx, record.ID))(t).Rating)
		require.NotContains(t, mockRedis.Keys, "rating-lock")
	})

	t.Run("lock errors", func(t *testing.T) {
		mockRedis := testutil.NewMockRedis(testutil.WithErrorOnLock(errors.New("something went wrong")))
		ledger := popularity.NewLedger(redis.NewCatalogStore(mockRedis, ""), redis.NewLock(mockRedis, "rating-lock"))
		_, err := ledger.IncreaseRating(ctx, "id", 1)
		require.EqualError(t, err, "acquiring rating lock: error accessing redis: something went wrong")
	})

	t.Run("canceled request still releases", func(t *testing.T) {
		mockRedis := testutil.NewMockRedis()
		store := redis.NewCatalogStore(mockRedis, "")
		record := testutil.RandomRecord()
		require.True(t, testutil.Must(store.PutIfAbsent(ctx, record))(t))
		ledger := popularity.NewLedger(store, &cancelingLock{redis.NewLock(mockRedis, "rating-lock")})

		cctx, cancel := context.WithCancel(ctx)
		defer cancel()
		_, err := ledger.IncreaseRating(context.WithValue(cctx, cancelKey{}, cancel), record.ID, 1)
		require.NoError(t, err)
		require.NotContains(t, mockRedis.Keys, "rating-lock")
	})
}

type cancelKey struct{}

// cancelingLock cancels the request context right after acquiring the lock.
type cancelingLock struct {
	lock types.Locker
}

func (c *cancelingLock) Lock(ctx context.Context) (func(context.Context) error, error) {
	unlock, err := c.lock.Lock(ctx)
	if err != nil {
		return nil, err
	}
	ctx.Value(cancelKey{}).(context.CancelFunc)()
	return func(ctx context.Context) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return unlock(ctx)
	}, nil
}
