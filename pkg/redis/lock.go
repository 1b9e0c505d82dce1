package redis

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sfmovies/locations-service/pkg/types"
)

const (
	// DefaultLockTTL bounds how long a crashed holder can keep the lock.
	DefaultLockTTL = 10 * time.Second
	// DefaultLockRetry is the wait between acquisition attempts.
	DefaultLockRetry = 10 * time.Millisecond
)

// ErrLockNotHeld means the lock expired or was taken over before it was
// released.
var ErrLockNotHeld = redislock.ErrLockNotHeld

// LockClient is the subset of the redis client used for advisory locks.
type LockClient interface {
	goredis.Scripter
}

// Lock is an advisory lock on a single redis key, shared by every process
// using the same name.
type Lock struct {
	locker *redislock.Client
	name   string
	ttl    time.Duration
	retry  time.Duration
}

var _ types.Locker = (*Lock)(nil)

// LockOption configures a Lock.
type LockOption func(*Lock)

// WithLockTTL sets the expiry of the lock key.
func WithLockTTL(ttl time.Duration) LockOption {
	return func(l *Lock) {
		l.ttl = ttl
	}
}

// WithLockRetry sets the wait between acquisition attempts.
func WithLockRetry(retry time.Duration) LockOption {
	return func(l *Lock) {
		l.retry = retry
	}
}

// NewLock returns the lock with the given name.
func NewLock(client LockClient, name string, opts ...LockOption) *Lock {
	l := &Lock{locker: redislock.New(client), name: name, ttl: DefaultLockTTL, retry: DefaultLockRetry}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Lock implements types.Locker. Without a deadline on ctx, waiting gives up
// after the lock TTL.
func (l *Lock) Lock(ctx context.Context) (func(context.Context) error, error) {
	held, err := l.locker.Obtain(ctx, l.name, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(l.retry),
		Token:         uuid.NewString(),
	})
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, err
		}
		return nil, &types.StoreError{Op: "obtain", Err: err}
	}
	return func(ctx context.Context) error {
		if err := held.Release(ctx); err != nil {
			if errors.Is(err, redislock.ErrLockNotHeld) {
				return ErrLockNotHeld
			}
			return &types.StoreError{Op: "release", Err: err}
		}
		return nil
	}, nil
}
