package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	rd "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestMemoryStore_FixedWindow(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	m := NewMemoryStore()
	m.now = c.now
	ctx := context.Background()

	n, reset, err := m.Incr(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, c.t.Add(time.Minute), reset)

	c.t = c.t.Add(30 * time.Second)
	n, reset2, _ := m.Incr(ctx, "k", time.Minute)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, reset, reset2)

	c.t = c.t.Add(30 * time.Second)
	n, _, _ = m.Incr(ctx, "k", time.Minute)
	assert.Equal(t, int64(1), n, "window rolled over")
}

func TestMemoryStore_Sweep(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	m := NewMemoryStore()
	m.now = c.now
	ctx := context.Background()

	_, _, _ = m.Incr(ctx, "a", time.Minute)
	_, _, _ = m.Incr(ctx, "b", 2*time.Minute)
	c.t = c.t.Add(90 * time.Second)
	m.Sweep()
	assert.Equal(t, 1, m.size())
}

func TestMemoryStore_RunStopsWithContext(t *testing.T) {
	m := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestLimiter_Allow(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	m := NewMemoryStore()
	m.now = c.now
	l := NewLimiter(m, time.Minute)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		r, err := l.Allow(ctx, "key-1", 3)
		require.NoError(t, err)
		assert.True(t, r.Allowed)
		assert.Equal(t, 3-i, r.Remaining)
	}
	r, err := l.Allow(ctx, "key-1", 3)
	require.NoError(t, err)
	assert.False(t, r.Allowed)
	assert.Equal(t, 0, r.Remaining)
	assert.Equal(t, 60, r.RetryAfter(c.t))

	other, _ := l.Allow(ctx, "key-2", 3)
	assert.True(t, other.Allowed)
}

func TestResult_RetryAfterFloor(t *testing.T) {
	now := time.Unix(100, 0)
	assert.Equal(t, 1, Result{ResetAt: now}.RetryAfter(now))
	assert.Equal(t, 2, Result{ResetAt: now.Add(1500 * time.Millisecond)}.RetryAfter(now))
}

type fakeRedis struct {
	reply []interface{}
	err   error
	keys  []string
	args  []interface{}
}

func (f *fakeRedis) Eval(ctx context.Context, _ string, keys []string, args ...interface{}) *rd.Cmd {
	f.keys, f.args = keys, args
	cmd := rd.NewCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	cmd.SetVal(f.reply)
	return cmd
}

func TestRedisStore(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	f := &fakeRedis{reply: []interface{}{int64(4), int64(15_000)}}
	s := &RedisStore{rdb: f, now: c.now}

	n, reset, err := s.Incr(context.Background(), "ratelimit:api_key:x", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, c.t.Add(15*time.Second), reset)
	assert.Equal(t, []string{"ratelimit:api_key:x"}, f.keys)
	assert.Equal(t, []interface{}{int64(60_000)}, f.args)

	f.err = errors.New("connection refused")
	_, _, err = s.Incr(context.Background(), "k", time.Minute)
	assert.ErrorContains(t, err, "connection refused")
}
