// Package service implements the GroupPay use cases on top of storage and
// the ledger engine. Transports (REST and Connect) call into these services
// and only translate requests, responses and errors.
package service

import (
	"context"
	"time"

	"github.com/mmynk/grouppay/internal/ledger"
	"github.com/mmynk/grouppay/internal/metrics"
)

// groupLock runs fn under the group's lock and records how long acquisition
// took.
type groupLock struct {
	locker  ledger.Locker
	metrics *metrics.Metrics
}

func (g groupLock) with(ctx context.Context, groupID string, fn func(ctx context.Context) error) error {
	start := time.Now()
	return g.locker.WithLock(ctx, groupID, func(ctx context.Context) error {
		g.metrics.LockWaited(time.Since(start))
		return fn(ctx)
	})
}

// isRejection reports whether err is a validation failure of a proposed
// expense, as opposed to a missing entity or an internal fault.
func isRejection(err error) bool {
	switch ledger.KindOf(err) {
	case ledger.KindInvalidAmount, ledger.KindNonMember, ledger.KindSplitMismatch, ledger.KindInvalidInput:
		return true
	}
	return false
}
