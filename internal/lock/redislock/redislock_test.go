package redislock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/grouppay/internal/ledger"
)

func newTestLocker(t *testing.T, opts Options) (*Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	l, err := New(client, opts)
	require.NoError(t, err)
	return l, mr
}

func TestNew_ValidatesOptions(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()

	tests := []struct {
		name   string
		mutate func(*Options)
		want   error
	}{
		{"zero expiry", func(o *Options) { o.Expiry = 0 }, ErrExpiryInvalid},
		{"zero tries", func(o *Options) { o.Tries = 0 }, ErrTriesInvalid},
		{"negative delay", func(o *Options) { o.RetryDelay = -time.Second }, ErrRetryDelayInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			_, err := New(client, opts)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := New(nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrNilClient)
}

func TestLocker_SerializesSameKey(t *testing.T) {
	opts := DefaultOptions()
	opts.RetryDelay = 5 * time.Millisecond
	l, _ := newTestLocker(t, opts)

	var inside, overlaps int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.WithLock(context.Background(), "g1", func(ctx context.Context) error {
				if atomic.AddInt32(&inside, 1) > 1 {
					atomic.AddInt32(&overlaps, 1)
				}
				time.Sleep(2 * time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Zero(t, overlaps)
}

func TestLocker_ReleasesAfterRun(t *testing.T) {
	l, mr := newTestLocker(t, DefaultOptions())

	err := l.WithLock(context.Background(), "g1", func(ctx context.Context) error {
		assert.True(t, mr.Exists("grouppay:lock:g1"))
		return nil
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists("grouppay:lock:g1"))
}

func TestLocker_ReturnsFnError(t *testing.T) {
	l, mr := newTestLocker(t, DefaultOptions())

	err := l.WithLock(context.Background(), "g1", func(ctx context.Context) error {
		return ledger.ErrInvalidState
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidState)
	assert.False(t, mr.Exists("grouppay:lock:g1"))
}

func TestLocker_GivesUpWhenHeld(t *testing.T) {
	opts := DefaultOptions()
	opts.Tries = 2
	opts.RetryDelay = time.Millisecond
	l, mr := newTestLocker(t, opts)

	require.NoError(t, mr.Set("grouppay:lock:g1", "someone-else"))

	called := false
	err := l.WithLock(context.Background(), "g1", func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called)
}

func TestLocker_ExtendsWhileHeld(t *testing.T) {
	opts := DefaultOptions()
	opts.Expiry = 200 * time.Millisecond
	l, mr := newTestLocker(t, opts)

	other := DefaultOptions()
	other.Tries = 1
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	contender, err := New(client, other)
	require.NoError(t, err)

	err = l.WithLock(context.Background(), "g1", func(ctx context.Context) error {
		// Run well past the expiry while redis time advances with us.
		for i := 0; i < 10; i++ {
			time.Sleep(50 * time.Millisecond)
			mr.FastForward(50 * time.Millisecond)
		}
		assert.True(t, mr.Exists("grouppay:lock:g1"))
		assert.NoError(t, ctx.Err())

		blocked := contender.WithLock(context.Background(), "g1", func(context.Context) error { return nil })
		assert.Error(t, blocked)
		return nil
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists("grouppay:lock:g1"))
}

func TestLocker_CancelsWhenLockLost(t *testing.T) {
	opts := DefaultOptions()
	opts.Expiry = 100 * time.Millisecond
	l, mr := newTestLocker(t, opts)

	err := l.WithLock(context.Background(), "g1", func(ctx context.Context) error {
		mr.Del("grouppay:lock:g1")
		select {
		case <-ctx.Done():
			assert.ErrorIs(t, context.Cause(ctx), ErrLockLost)
		case <-time.After(time.Second):
			assert.Fail(t, "run context was not cancelled")
		}
		return nil
	})
	require.NoError(t, err)
}

func TestLocker_EmptyKey(t *testing.T) {
	l, _ := newTestLocker(t, DefaultOptions())
	err := l.WithLock(context.Background(), " ", func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrEmptyKey)
}
