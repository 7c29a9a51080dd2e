package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ptvdata/errors"
)

// fakeRedis 以 map 模拟 SET NX 与令牌校验删除
type fakeRedis struct {
	mu      sync.Mutex
	values  map[string]string
	setErr  error
	evals   int
	lastTTL time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}}
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return redis.NewBoolResult(false, f.setErr)
	}
	f.lastTTL = expiration
	if _, held := f.values[key]; held {
		return redis.NewBoolResult(false, nil)
	}
	f.values[key] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evals++
	if f.values[keys[0]] == args[0].(string) {
		delete(f.values, keys[0])
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(int64(0), nil)
}

func testRedisConfig() RedisConfig {
	return RedisConfig{Prefix: "test:", TTL: time.Minute, Wait: 30 * time.Millisecond, RetryInterval: 5 * time.Millisecond}
}

func TestRedis_AcquireAndRelease(t *testing.T) {
	fake := newFakeRedis()
	l := NewRedis(fake, testRedisConfig())

	unlock, err := l.Lock(context.Background(), "svc")
	require.NoError(t, err)
	assert.Contains(t, fake.values, "test:svc")
	assert.Equal(t, time.Minute, fake.lastTTL)

	unlock()
	unlock()
	assert.NotContains(t, fake.values, "test:svc")
	assert.Equal(t, 1, fake.evals)
}

func TestRedis_WaitsThenTimesOut(t *testing.T) {
	fake := newFakeRedis()
	fake.values["test:svc"] = "someone-else"
	l := NewRedis(fake, testRedisConfig())

	_, err := l.Lock(context.Background(), "svc")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrCodeLockTimeout))
	assert.Equal(t, "someone-else", fake.values["test:svc"])
}

func TestRedis_AcquiresAfterRelease(t *testing.T) {
	fake := newFakeRedis()
	l := NewRedis(fake, RedisConfig{Prefix: "test:", Wait: time.Second, RetryInterval: 2 * time.Millisecond})

	first, err := l.Lock(context.Background(), "svc")
	require.NoError(t, err)
	go func() {
		time.Sleep(10 * time.Millisecond)
		first()
	}()

	second, err := l.Lock(context.Background(), "svc")
	require.NoError(t, err)
	second()
}

func TestRedis_ReleaseKeepsForeignToken(t *testing.T) {
	fake := newFakeRedis()
	l := NewRedis(fake, testRedisConfig())
	unlock, err := l.Lock(context.Background(), "svc")
	require.NoError(t, err)

	// 锁过期后被他人拿走
	fake.mu.Lock()
	fake.values["test:svc"] = "other"
	fake.mu.Unlock()
	unlock()
	assert.Equal(t, "other", fake.values["test:svc"])
}

func TestRedis_ClientError(t *testing.T) {
	fake := newFakeRedis()
	fake.setErr = assert.AnError
	_, err := NewRedis(fake, testRedisConfig()).Lock(context.Background(), "svc")
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}
