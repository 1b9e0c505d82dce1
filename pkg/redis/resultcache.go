package redis

import (
	"encoding/json"
	"fmt"

	"github.com/sfmovies/locations-service/pkg/types"
)

const (
	resultCachePrefix = "ResultCache:"
	searchCachePrefix = "SearchCache:"
)

var (
	_ types.Cache[string, []types.Record] = (*ResultCache)(nil)
	_ types.Cache[string, []string]       = (*SearchCache)(nil)
)

// ResultCache is a RedisStore for full result sets, keyed by the name of the
// listing they came from.
type ResultCache = Store[string, []types.Record]

// NewResultCache returns a new instance of a result cache using the given
// redis client.
func NewResultCache(client Client, opts ...Option) *ResultCache {
	return NewStore(jsonFromRedis[[]types.Record], jsonToRedis[[]types.Record], prefixedKey(resultCachePrefix), client, opts...)
}

// SearchCache is a RedisStore for the ordered ids matching a search query.
// Only ids are kept so cached searches always return current records.
type SearchCache = Store[string, []string]

// NewSearchCache returns a new instance of a search cache using the given
// redis client.
func NewSearchCache(client Client, opts ...Option) *SearchCache {
	return NewStore(jsonFromRedis[[]string], jsonToRedis[[]string], prefixedKey(searchCachePrefix), client, opts...)
}

func prefixedKey(prefix string) func(string) string {
	return func(k string) string {
		return prefix + k
	}
}

func jsonFromRedis[T any](data string) (T, error) {
	var v T
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return v, fmt.Errorf("decoding cached value: %w", err)
	}
	return v, nil
}

func jsonToRedis[T any](v T) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding cached value: %w", err)
	}
	return string(data), nil
}
