package testutil

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// MockRedis is an in memory stand in for the subset of redis commands used by
// the service. It is safe for concurrent use.
type MockRedis struct {
	mu sync.Mutex
	// Keys holds plain string keys.
	Keys map[string]string
	// Expirations holds the expiration each plain key was written with.
	Expirations map[string]time.Duration
	// Hashes holds hash keys.
	Hashes map[string]map[string]string

	errGet  error
	errSet  error
	errHash error
	errLock error

	beforeEval func()
}

type MockOption func(*MockRedis)

func WithErrorOnGet(err error) MockOption {
	return func(m *MockRedis) {
		m.errGet = err
	}
}

func WithErrorOnSet(err error) MockOption {
	return func(m *MockRedis) {
		m.errSet = err
	}
}

// WithErrorOnHash fails every hash command.
func WithErrorOnHash(err error) MockOption {
	return func(m *MockRedis) {
		m.errHash = err
	}
}

// WithErrorOnLock fails the lock acquisition and release scripts.
func WithErrorOnLock(err error) MockOption {
	return func(m *MockRedis) {
		m.errLock = err
	}
}

// WithBeforeEval runs fn ahead of every Eval, outside the mock's lock, so
// tests can interleave other commands with a script.
func WithBeforeEval(fn func()) MockOption {
	return func(m *MockRedis) {
		m.beforeEval = fn
	}
}

func NewMockRedis(opts ...MockOption) *MockRedis {
	m := &MockRedis{
		Keys:        make(map[string]string),
		Expirations: make(map[string]time.Duration),
		Hashes:      make(map[string]map[string]string),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MockRedis) Get(ctx context.Context, key string) *goredis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	cmd := goredis.NewStringCmd(ctx, "get", key)
	if m.errGet != nil {
		cmd.SetErr(m.errGet)
		return cmd
	}
	val, ok := m.Keys[key]
	if !ok {
		cmd.SetErr(goredis.Nil)
		return cmd
	}
	cmd.SetVal(val)
	return cmd
}

func (m *MockRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	cmd := goredis.NewStatusCmd(ctx, "set", key, value)
	if m.errSet != nil {
		cmd.SetErr(m.errSet)
		return cmd
	}
	m.Keys[key] = value.(string)
	m.Expirations[key] = expiration
	cmd.SetVal("OK")
	return cmd
}

// EvalSha never finds a cached script, so callers fall back to Eval with the
// script source.
func (m *MockRedis) EvalSha(ctx context.Context, sha1 string, keys []string, args ...interface{}) *goredis.Cmd {
	cmd := goredis.NewCmd(ctx, "evalsha", sha1)
	cmd.SetErr(noScriptError("NOSCRIPT No matching script"))
	return cmd
}

func (m *MockRedis) EvalShaRO(ctx context.Context, sha1 string, keys []string, args ...interface{}) *goredis.Cmd {
	return m.EvalSha(ctx, sha1, keys, args...)
}

func (m *MockRedis) EvalRO(ctx context.Context, script string, keys []string, args ...interface{}) *goredis.Cmd {
	return m.Eval(ctx, script, keys, args...)
}

func (m *MockRedis) ScriptExists(ctx context.Context, hashes ...string) *goredis.BoolSliceCmd {
	cmd := goredis.NewBoolSliceCmd(ctx, "script", "exists")
	cmd.SetVal(make([]bool, len(hashes)))
	return cmd
}

func (m *MockRedis) ScriptLoad(ctx context.Context, script string) *goredis.StringCmd {
	cmd := goredis.NewStringCmd(ctx, "script", "load")
	cmd.SetErr(errors.New("script load not supported"))
	return cmd
}

// Eval recognises three scripts by the commands they call: a conditional hash
// field replace, a lock acquisition (set if absent, with the expiry in
// milliseconds as the last argument) and a lock release (compare-and-delete).
func (m *MockRedis) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *goredis.Cmd {
	if m.beforeEval != nil {
		m.beforeEval()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cmd := goredis.NewCmd(ctx, "eval", script)
	script = strings.ToLower(script)
	switch {
	case strings.Contains(script, "hset"):
		if m.errHash != nil {
			cmd.SetErr(m.errHash)
			return cmd
		}
		field, expected, value := fmt.Sprint(args[0]), fmt.Sprint(args[1]), fmt.Sprint(args[2])
		if current, ok := m.Hashes[keys[0]][field]; !ok || current != expected {
			cmd.SetVal(int64(0))
			return cmd
		}
		m.Hashes[keys[0]][field] = value
		cmd.SetVal(int64(1))
	case strings.Contains(script, "msetnx"), strings.Contains(script, `"nx"`):
		if m.errLock != nil {
			cmd.SetErr(m.errLock)
			return cmd
		}
		if _, ok := m.Keys[keys[0]]; ok {
			cmd.SetErr(goredis.Nil)
			return cmd
		}
		m.Keys[keys[0]] = fmt.Sprint(args[0])
		ms, _ := strconv.ParseInt(fmt.Sprint(args[len(args)-1]), 10, 64)
		m.Expirations[keys[0]] = time.Duration(ms) * time.Millisecond
		cmd.SetVal("OK")
	case strings.Contains(script, "del"):
		if m.errLock != nil {
			cmd.SetErr(m.errLock)
			return cmd
		}
		if val, ok := m.Keys[keys[0]]; ok && val == fmt.Sprint(args[0]) {
			delete(m.Keys, keys[0])
			delete(m.Expirations, keys[0])
			cmd.SetVal(int64(1))
			return cmd
		}
		cmd.SetVal(int64(0))
	default:
		cmd.SetErr(fmt.Errorf("unsupported script: %s", script))
	}
	return cmd
}

func (m *MockRedis) HGet(ctx context.Context, key, field string) *goredis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	cmd := goredis.NewStringCmd(ctx, "hget", key, field)
	if m.errHash != nil {
		cmd.SetErr(m.errHash)
		return cmd
	}
	val, ok := m.Hashes[key][field]
	if !ok {
		cmd.SetErr(goredis.Nil)
		return cmd
	}
	cmd.SetVal(val)
	return cmd
}

func (m *MockRedis) HSetNX(ctx context.Context, key, field string, value interface{}) *goredis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	cmd := goredis.NewBoolCmd(ctx, "hsetnx", key, field)
	if m.errHash != nil {
		cmd.SetErr(m.errHash)
		return cmd
	}
	hash := m.hash(key)
	if _, ok := hash[field]; ok {
		cmd.SetVal(false)
		return cmd
	}
	hash[field] = value.(string)
	cmd.SetVal(true)
	return cmd
}

func (m *MockRedis) HExists(ctx context.Context, key, field string) *goredis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	cmd := goredis.NewBoolCmd(ctx, "hexists", key, field)
	if m.errHash != nil {
		cmd.SetErr(m.errHash)
		return cmd
	}
	_, ok := m.Hashes[key][field]
	cmd.SetVal(ok)
	return cmd
}

func (m *MockRedis) HDel(ctx context.Context, key string, fields ...string) *goredis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	cmd := goredis.NewIntCmd(ctx, "hdel", key)
	if m.errHash != nil {
		cmd.SetErr(m.errHash)
		return cmd
	}
	removed := int64(0)
	for _, field := range fields {
		if _, ok := m.Hashes[key][field]; ok {
			delete(m.Hashes[key], field)
			removed++
		}
	}
	if len(m.Hashes[key]) == 0 {
		delete(m.Hashes, key)
	}
	cmd.SetVal(removed)
	return cmd
}

func (m *MockRedis) HKeys(ctx context.Context, key string) *goredis.StringSliceCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	cmd := goredis.NewStringSliceCmd(ctx, "hkeys", key)
	if m.errHash != nil {
		cmd.SetErr(m.errHash)
		return cmd
	}
	cmd.SetVal(slices.Collect(maps.Keys(m.Hashes[key])))
	return cmd
}

func (m *MockRedis) HVals(ctx context.Context, key string) *goredis.StringSliceCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	cmd := goredis.NewStringSliceCmd(ctx, "hvals", key)
	if m.errHash != nil {
		cmd.SetErr(m.errHash)
		return cmd
	}
	cmd.SetVal(slices.Collect(maps.Values(m.Hashes[key])))
	return cmd
}

func (m *MockRedis) Del(ctx context.Context, keys ...string) *goredis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	cmd := goredis.NewIntCmd(ctx, "del")
	if m.errHash != nil {
		cmd.SetErr(m.errHash)
		return cmd
	}
	removed := int64(0)
	for _, key := range keys {
		if _, ok := m.Hashes[key]; ok {
			delete(m.Hashes, key)
			removed++
		}
		if _, ok := m.Keys[key]; ok {
			delete(m.Keys, key)
			delete(m.Expirations, key)
			removed++
		}
	}
	cmd.SetVal(removed)
	return cmd
}

func (m *MockRedis) hash(key string) map[string]string {
	hash, ok := m.Hashes[key]
	if !ok {
		hash = make(map[string]string)
		m.Hashes[key] = hash
	}
	return hash
}

type noScriptError string

func (e noScriptError) Error() string { return string(e) }

func (noScriptError) RedisError() {}
