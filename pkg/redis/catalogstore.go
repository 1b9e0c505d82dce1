package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sfmovies/locations-service/pkg/types"
)

// DefaultNamespace is the redis hash holding the catalog.
const DefaultNamespace = "FilmNamespace"

// HashClient is the subset of the redis client used for the catalog hash.
type HashClient interface {
	HGet(ctx context.Context, key, field string) *goredis.StringCmd
	HSetNX(ctx context.Context, key, field string, value interface{}) *goredis.BoolCmd
	HExists(ctx context.Context, key, field string) *goredis.BoolCmd
	HDel(ctx context.Context, key string, fields ...string) *goredis.IntCmd
	HKeys(ctx context.Context, key string) *goredis.StringSliceCmd
	HVals(ctx context.Context, key string) *goredis.StringSliceCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
	goredis.Scripter
}

// replaceScript overwrites a hash field only while it still holds the value
// it was read with.
var replaceScript = goredis.NewScript(`if redis.call("hget", KEYS[1], ARGV[1]) == ARGV[2] then
	redis.call("hset", KEYS[1], ARGV[1], ARGV[3])
	return 1
end
return 0`)

// CatalogStore keeps the catalog in a single redis hash, mapping record ids
// to JSON encoded records.
type CatalogStore struct {
	namespace string
	client    HashClient
}

var _ types.CatalogStore = (*CatalogStore)(nil)

// NewCatalogStore returns a catalog stored in the hash named namespace.
func NewCatalogStore(client HashClient, namespace string) *CatalogStore {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &CatalogStore{namespace: namespace, client: client}
}

func (cs *CatalogStore) Get(ctx context.Context, id string) (types.Record, error) {
	data, err := cs.client.HGet(ctx, cs.namespace, id).Result()
	if err != nil {
		if err == goredis.Nil {
			return types.Record{}, types.ErrKeyNotFound
		}
		return types.Record{}, &types.StoreError{Op: "hget", Err: err}
	}
	return recordFromRedis(data)
}

func (cs *CatalogStore) Has(ctx context.Context, id string) (bool, error) {
	exists, err := cs.client.HExists(ctx, cs.namespace, id).Result()
	if err != nil {
		return false, &types.StoreError{Op: "hexists", Err: err}
	}
	return exists, nil
}

func (cs *CatalogStore) PutIfAbsent(ctx context.Context, record types.Record) (bool, error) {
	data, err := recordToRedis(record)
	if err != nil {
		return false, err
	}
	written, err := cs.client.HSetNX(ctx, cs.namespace, record.ID, data).Result()
	if err != nil {
		return false, &types.StoreError{Op: "hsetnx", Err: err}
	}
	return written, nil
}

func (cs *CatalogStore) Delete(ctx context.Context, id string) error {
	n, err := cs.client.HDel(ctx, cs.namespace, id).Result()
	if err != nil {
		return &types.StoreError{Op: "hdel", Err: err}
	}
	if n == 0 {
		return types.ErrKeyNotFound
	}
	return nil
}

func (cs *CatalogStore) DeleteAll(ctx context.Context) error {
	if err := cs.client.Del(ctx, cs.namespace).Err(); err != nil {
		return &types.StoreError{Op: "del", Err: err}
	}
	return nil
}

func (cs *CatalogStore) ListIDs(ctx context.Context) ([]string, error) {
	ids, err := cs.client.HKeys(ctx, cs.namespace).Result()
	if err != nil {
		return nil, &types.StoreError{Op: "hkeys", Err: err}
	}
	return ids, nil
}

func (cs *CatalogStore) All(ctx context.Context) ([]types.Record, error) {
	values, err := cs.client.HVals(ctx, cs.namespace).Result()
	if err != nil {
		return nil, &types.StoreError{Op: "hvals", Err: err}
	}
	records := make([]types.Record, 0, len(values))
	for _, data := range values {
		record, err := recordFromRedis(data)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// IncrementPopularity adds delta to the rating of a record. The write only
// lands if the record is unchanged since it was read, so a record deleted in
// between stays deleted. Concurrent increments still need the rating lock to
// make progress.
func (cs *CatalogStore) IncrementPopularity(ctx context.Context, id string, delta uint64) (types.Record, error) {
	for {
		current, err := cs.client.HGet(ctx, cs.namespace, id).Result()
		if err != nil {
			if err == goredis.Nil {
				return types.Record{}, types.ErrKeyNotFound
			}
			return types.Record{}, &types.StoreError{Op: "hget", Err: err}
		}
		record, err := recordFromRedis(current)
		if err != nil {
			return types.Record{}, err
		}
		if record.Rating+delta < record.Rating {
			return types.Record{}, types.ErrRatingOverflow
		}
		record.Rating += delta
		data, err := recordToRedis(record)
		if err != nil {
			return types.Record{}, err
		}
		replaced, err := replaceScript.Run(ctx, cs.client, []string{cs.namespace}, id, current, data).Int64()
		if err != nil {
			return types.Record{}, &types.StoreError{Op: "eval", Err: err}
		}
		if replaced == 1 {
			return record, nil
		}
		if err := ctx.Err(); err != nil {
			return types.Record{}, err
		}
	}
}

func recordFromRedis(data string) (types.Record, error) {
	var record types.Record
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return types.Record{}, fmt.Errorf("decoding record: %w", err)
	}
	return record, nil
}

func recordToRedis(record types.Record) (string, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("encoding record: %w", err)
	}
	return string(data), nil
}
