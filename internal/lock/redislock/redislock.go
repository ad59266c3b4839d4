// Package redislock provides a ledger.Locker backed by Redis, so several
// service processes sharing one database serialize work per group.
package redislock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"

	"github.com/mmynk/grouppay/internal/ledger"
)

var _ ledger.Locker = (*Locker)(nil)

var (
	ErrEmptyKey          = errors.New("lock key cannot be empty")
	ErrExpiryInvalid     = errors.New("lock expiry must be greater than 0")
	ErrTriesInvalid      = errors.New("lock tries must be at least 1")
	ErrRetryDelayInvalid = errors.New("lock retry delay cannot be negative")
	ErrNilClient         = errors.New("redis client is nil")
	ErrLockLost          = errors.New("lock lost while held")
)

// Options tunes lock acquisition.
type Options struct {
	// Expiry is how long a lock is held if the holder disappears. A live
	// holder extends it every Expiry/2 until its critical section returns.
	Expiry time.Duration
	// Tries is the number of acquisition attempts before giving up.
	Tries int
	// RetryDelay is the pause between attempts.
	RetryDelay time.Duration
	// Prefix is prepended to every key.
	Prefix string
}

// DefaultOptions waits up to about five seconds for a busy group.
func DefaultOptions() Options {
	return Options{
		Expiry:     30 * time.Second,
		Tries:      100,
		RetryDelay: 50 * time.Millisecond,
		Prefix:     "grouppay:lock:",
	}
}

func (o Options) validate() error {
	switch {
	case o.Expiry <= 0:
		return ErrExpiryInvalid
	case o.Tries < 1:
		return ErrTriesInvalid
	case o.RetryDelay < 0:
		return ErrRetryDelayInvalid
	}
	return nil
}

// Locker implements ledger.Locker with the Redlock algorithm.
type Locker struct {
	rs     *redsync.Redsync
	opts   Options
	logger *slog.Logger
}

// New returns a Locker using client.
func New(client redis.UniversalClient, opts Options) (*Locker, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Locker{
		rs:     redsync.New(goredis.NewPool(client)),
		opts:   opts,
		logger: slog.Default().With("component", "redislock"),
	}, nil
}

// WithLock runs fn while holding the distributed lock for key.
func (l *Locker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}

	name := l.opts.Prefix + key
	mutex := l.rs.NewMutex(name,
		redsync.WithExpiry(l.opts.Expiry),
		redsync.WithTries(l.opts.Tries),
		redsync.WithRetryDelay(l.opts.RetryDelay),
	)

	if err := mutex.LockContext(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}
	l.logger.Debug("Lock acquired", "key", name)

	defer func() {
		// Release even if ctx was cancelled while fn ran.
		unlockCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.opts.Expiry)
		defer cancel()
		if ok, err := mutex.UnlockContext(unlockCtx); !ok || err != nil {
			l.logger.Warn("Failed to release lock", "key", name, "unlock_ok", ok, "error", err)
		}
	}()

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	stop := l.keepAlive(runCtx, mutex, cancel)
	defer stop()

	return fn(runCtx)
}

// keepAlive extends mutex every Expiry/2 until the returned stop is called.
// If an extension fails the run context is cancelled with ErrLockLost.
func (l *Locker) keepAlive(ctx context.Context, mutex *redsync.Mutex, cancel context.CancelCauseFunc) (stop func()) {
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(l.opts.Expiry / 2)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				extendCtx, cancelExtend := context.WithTimeout(ctx, l.opts.Expiry/2)
				ok, err := mutex.ExtendContext(extendCtx)
				cancelExtend()
				if !ok || err != nil {
					l.logger.Warn("Failed to extend lock", "key", mutex.Name(), "error", err)
					cancel(ErrLockLost)
					return
				}
			}
		}
	}()
	return func() {
		close(done)
		<-finished
	}
}
