package search

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	logging "github.com/ipfs/go-log/v2"
	"github.com/sfmovies/locations-service/pkg/telemetry"
	"github.com/sfmovies/locations-service/pkg/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var log = logging.Logger("search")

// DefaultMaxResults bounds every listing.
const DefaultMaxResults = 50

// Engine answers read queries straight from the catalog store.
type Engine struct {
	store      types.CatalogStore
	maxResults int
	shuffle    func(n int, swap func(i, j int))
}

var _ types.Searcher = (*Engine)(nil)

type Option func(*Engine)

// WithMaxResults sets the maximum number of records in a listing.
func WithMaxResults(n int) Option {
	return func(e *Engine) {
		e.maxResults = n
	}
}

// WithShuffle replaces the random permutation used for sampling.
func WithShuffle(shuffle func(n int, swap func(i, j int))) Option {
	return func(e *Engine) {
		e.shuffle = shuffle
	}
}

func NewEngine(store types.CatalogStore, opts ...Option) *Engine {
	e := &Engine{store: store, maxResults: DefaultMaxResults, shuffle: rand.Shuffle}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Tokens splits a query into its distinct lower cased terms, in order of first
// appearance. Commas are ignored.
func Tokens(query string) []string {
	query = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(query), ",", ""))
	var tokens []string
	for _, tok := range strings.Fields(query) {
		if !slices.Contains(tokens, tok) {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// CanonicalQuery returns a key under which all queries with the same set of
// tokens are equal. It is empty for queries without tokens.
func CanonicalQuery(query string) string {
	tokens := Tokens(query)
	slices.Sort(tokens)
	return strings.Join(tokens, " ")
}

// Search returns the most popular records matching every token of query. A
// token matches a record when it is a substring of any searchable field.
// Queries without tokens match nothing.
func (e *Engine) Search(ctx context.Context, query string) ([]types.Record, error) {
	ctx, s := telemetry.StartSpan(ctx, "Engine.Search", trace.WithAttributes(attribute.String("query", query)))
	defer s.End()

	tokens := Tokens(query)
	if len(tokens) == 0 {
		return []types.Record{}, nil
	}

	records, err := e.ranked(ctx)
	if err != nil {
		telemetry.Error(s, err, "loading catalog")
		return nil, err
	}

	results := []types.Record{}
	for _, record := range records {
		if len(results) == e.maxResults {
			break
		}
		if matches(record, tokens) {
			results = append(results, record)
		}
	}
	log.Debugw("searched catalog", "query", query, "candidates", len(records), "results", len(results))
	return results, nil
}

// MostPopular returns the catalog ordered by descending popularity.
func (e *Engine) MostPopular(ctx context.Context) ([]types.Record, error) {
	ctx, s := telemetry.StartSpan(ctx, "Engine.MostPopular")
	defer s.End()

	records, err := e.ranked(ctx)
	if err != nil {
		telemetry.Error(s, err, "loading catalog")
		return nil, err
	}
	if len(records) > e.maxResults {
		records = records[:e.maxResults]
	}
	return records, nil
}

// Random returns a uniform sample of the catalog, without ranking.
func (e *Engine) Random(ctx context.Context) ([]types.Record, error) {
	ctx, s := telemetry.StartSpan(ctx, "Engine.Random")
	defer s.End()

	ids, err := e.store.ListIDs(ctx)
	if err != nil {
		telemetry.Error(s, err, "listing ids")
		return nil, err
	}
	e.shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	if len(ids) > e.maxResults {
		ids = ids[:e.maxResults]
	}

	records := make([]types.Record, 0, len(ids))
	for _, id := range ids {
		record, err := e.store.Get(ctx, id)
		if err != nil {
			// removed since it was listed
			if errors.Is(err, types.ErrKeyNotFound) {
				continue
			}
			telemetry.Error(s, err, "getting record")
			return nil, fmt.Errorf("getting record %s: %w", id, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// ranked loads the whole catalog sorted by descending rating. Ties are broken
// by id so the order is stable between calls.
func (e *Engine) ranked(ctx context.Context) ([]types.Record, error) {
	records, err := e.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	slices.SortStableFunc(records, Compare)
	return records, nil
}

// Compare orders records by descending rating, then by id.
func Compare(a, b types.Record) int {
	switch {
	case a.Rating > b.Rating:
		return -1
	case a.Rating < b.Rating:
		return 1
	default:
		return strings.Compare(a.ID, b.ID)
	}
}

func matches(record types.Record, tokens []string) bool {
	fields := record.SearchFields()
	for i := range fields {
		fields[i] = strings.ToLower(fields[i])
	}
	for _, tok := range tokens {
		found := false
		for _, field := range fields {
			if strings.Contains(field, tok) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
