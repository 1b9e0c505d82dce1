package responsecache

import (
	"context"
	"errors"
	"fmt"

	logging "github.com/ipfs/go-log/v2"
	"github.com/sfmovies/locations-service/pkg/service/search"
	"github.com/sfmovies/locations-service/pkg/telemetry"
	"github.com/sfmovies/locations-service/pkg/types"
)

var log = logging.Logger("responsecache")

// Keys of the cached listings.
const (
	RandomKey  = "explore"
	PopularKey = "popular"
)

const (
	resultsCache  = "results"
	searchesCache = "searches"
)

type cachingSearcher struct {
	searcher types.Searcher
	getter   types.Getter
	results  types.Cache[string, []types.Record]
	searches types.Cache[string, []string]
}

var _ types.Searcher = (*cachingSearcher)(nil)

// WithCache augments a Searcher with cached responses. Random samples and
// the most popular listing are cached whole. Searches cache only the ordered
// ids of their matches, which are loaded through getter on a hit. Cached
// responses are never invalidated, they expire.
func WithCache(searcher types.Searcher, getter types.Getter, results types.Cache[string, []types.Record], searches types.Cache[string, []string]) types.Searcher {
	return &cachingSearcher{
		searcher: searcher,
		getter:   getter,
		results:  results,
		searches: searches,
	}
}

func (cs *cachingSearcher) Random(ctx context.Context) ([]types.Record, error) {
	return cs.listing(ctx, RandomKey, cs.searcher.Random)
}

func (cs *cachingSearcher) MostPopular(ctx context.Context) ([]types.Record, error) {
	return cs.listing(ctx, PopularKey, cs.searcher.MostPopular)
}

func (cs *cachingSearcher) listing(ctx context.Context, key string, fetch func(context.Context) ([]types.Record, error)) ([]types.Record, error) {
	records, err := cs.results.Get(ctx, key)
	if err == nil {
		telemetry.CacheLookups.WithLabelValues(resultsCache, "hit").Inc()
		return records, nil
	}
	if !errors.Is(err, types.ErrKeyNotFound) {
		return nil, fmt.Errorf("reading from result cache: %w", err)
	}
	telemetry.CacheLookups.WithLabelValues(resultsCache, "miss").Inc()

	records, err = fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching underlying %s listing: %w", key, err)
	}

	if err := cs.results.Set(ctx, key, records); err != nil {
		return nil, fmt.Errorf("caching %s listing: %w", key, err)
	}
	return records, nil
}

func (cs *cachingSearcher) Search(ctx context.Context, query string) ([]types.Record, error) {
	key := search.CanonicalQuery(query)
	if key == "" {
		return []types.Record{}, nil
	}

	ids, err := cs.searches.Get(ctx, key)
	if err == nil {
		telemetry.CacheLookups.WithLabelValues(searchesCache, "hit").Inc()
		return cs.load(ctx, ids)
	}
	if !errors.Is(err, types.ErrKeyNotFound) {
		return nil, fmt.Errorf("reading from search cache: %w", err)
	}
	telemetry.CacheLookups.WithLabelValues(searchesCache, "miss").Inc()

	records, err := cs.searcher.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("fetching underlying search results: %w", err)
	}

	ids = make([]string, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.ID)
	}
	if err := cs.searches.Set(ctx, key, ids); err != nil {
		return nil, fmt.Errorf("caching search results: %w", err)
	}
	return records, nil
}

// load returns the current version of the cached ids. Records removed since
// the search was cached are left out.
func (cs *cachingSearcher) load(ctx context.Context, ids []string) ([]types.Record, error) {
	records := make([]types.Record, 0, len(ids))
	for _, id := range ids {
		record, err := cs.getter.Get(ctx, id)
		if err != nil {
			if errors.Is(err, types.ErrKeyNotFound) {
				log.Debugw("cached search result no longer exists", "id", id)
				continue
			}
			return nil, fmt.Errorf("getting cached search result %s: %w", id, err)
		}
		records = append(records, record)
	}
	return records, nil
}
