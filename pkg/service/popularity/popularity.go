package popularity

import (
	"context"
	"errors"
	"fmt"

	logging "github.com/ipfs/go-log/v2"
	"github.com/sfmovies/locations-service/pkg/telemetry"
	"github.com/sfmovies/locations-service/pkg/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var log = logging.Logger("popularity")

// ErrInvalidIncrement means a rating increase of zero was requested.
var ErrInvalidIncrement = errors.New("increment must be at least 1")

// Ledger applies popularity increments one at a time. A single lock guards
// every record, so increments on different records also wait for each other.
type Ledger struct {
	store types.CatalogStore
	lock  types.Locker
}

var _ types.Rater = (*Ledger)(nil)

func NewLedger(store types.CatalogStore, lock types.Locker) *Ledger {
	return &Ledger{store: store, lock: lock}
}

// IncreaseRating adds increment to the rating of the record with the given id
// and returns the updated record. It fails with [types.ErrKeyNotFound] when
// there is no such record.
func (l *Ledger) IncreaseRating(ctx context.Context, id string, increment uint64) (types.Record, error) {
	ctx, s := telemetry.StartSpan(ctx, "Ledger.IncreaseRating", trace.WithAttributes(attribute.String("id", id)))
	defer s.End()

	if increment == 0 {
		return types.Record{}, ErrInvalidIncrement
	}

	unlock, err := l.lock.Lock(ctx)
	if err != nil {
		telemetry.Error(s, err, "acquiring lock")
		return types.Record{}, fmt.Errorf("acquiring rating lock: %w", err)
	}
	defer func() {
		// released even when the request context is gone
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			log.Warnw("releasing rating lock", "id", id, "err", err)
		}
	}()

	record, err := l.store.IncrementPopularity(ctx, id, increment)
	if err != nil {
		if !errors.Is(err, types.ErrKeyNotFound) {
			telemetry.Error(s, err, "incrementing rating")
		}
		return types.Record{}, err
	}
	telemetry.RatingIncrements.Inc()
	return record, nil
}
