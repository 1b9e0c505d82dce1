package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sfmovies/locations-service/pkg/types"
)

// DefaultExpire is the lifetime of cached entries unless configured otherwise.
const DefaultExpire = time.Hour

// Client is the subset of the redis client used for plain keys.
type Client interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
}

// FullClient is every redis command the service needs. Both *goredis.Client
// and *goredis.ClusterClient implement it.
type FullClient interface {
	Client
	HashClient
	LockClient
}

var (
	_ FullClient = (*goredis.Client)(nil)
	_ FullClient = (*goredis.ClusterClient)(nil)

	_ types.Cache[any, any] = (*Store[any, any])(nil)
)

type config struct {
	expiration time.Duration
}

// Option configures a redis backed store.
type Option func(*config)

// WithExpiration sets how long entries live after they are written.
func WithExpiration(expiration time.Duration) Option {
	return func(c *config) {
		c.expiration = expiration
	}
}

// Store is a redis backed cache of values that expire a fixed time after
// they are written.
type Store[Key, Value any] struct {
	fromRedis  func(string) (Value, error)
	toRedis    func(Value) (string, error)
	keyString  func(Key) string
	client     Client
	expiration time.Duration
}

// NewStore returns a new Store using the given codecs and redis client.
func NewStore[Key, Value any](
	fromRedis func(string) (Value, error),
	toRedis func(Value) (string, error),
	keyString func(Key) string,
	client Client,
	opts ...Option) *Store[Key, Value] {
	c := config{expiration: DefaultExpire}
	for _, opt := range opts {
		opt(&c)
	}
	return &Store[Key, Value]{fromRedis, toRedis, keyString, client, c.expiration}
}

// Get returns the value stored under key, or [types.ErrKeyNotFound] if it is
// missing or expired.
func (rs *Store[Key, Value]) Get(ctx context.Context, key Key) (Value, error) {
	data, err := rs.client.Get(ctx, rs.keyString(key)).Result()
	if err != nil {
		var v Value
		if err == goredis.Nil {
			return v, types.ErrKeyNotFound
		}
		return v, &types.StoreError{Op: "get", Err: err}
	}
	return rs.fromRedis(data)
}

// Set implements types.Cache.
func (rs *Store[Key, Value]) Set(ctx context.Context, key Key, value Value) error {
	data, err := rs.toRedis(value)
	if err != nil {
		return err
	}
	err = rs.client.Set(ctx, rs.keyString(key), data, rs.expiration).Err()
	if err != nil {
		return &types.StoreError{Op: "set", Err: err}
	}
	return nil
}
