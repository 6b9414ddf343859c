package dataset

import (
	"context"
	"time"

	"github.com/statforge/blsload/internal/pkg/distlock"
	"github.com/statforge/blsload/internal/pkg/logger"
)

// LockFactory builds a distributed lock for a key.
type LockFactory func(key string) distlock.Lock

// GuardedCollector serializes survey loads across processes so concurrent
// requests for the same survey do not each re-download the archive. The
// guard is best effort: if the lock cannot be acquired within maxWait the
// load proceeds anyway.
type GuardedCollector struct {
	inner   *Collector
	locks   LockFactory
	maxWait time.Duration
	poll    time.Duration
}

// NewGuardedCollector wraps a Collector with per-survey locking.
func NewGuardedCollector(inner *Collector, locks LockFactory, maxWait time.Duration) *GuardedCollector {
	return &GuardedCollector{
		inner:   inner,
		locks:   locks,
		maxWait: maxWait,
		poll:    250 * time.Millisecond,
	}
}

// Load acquires the survey's lock, runs the inner load, and releases it.
func (g *GuardedCollector) Load(ctx context.Context, baseURL, surveyID string) (*Collection, error) {
	lock := g.locks("survey:" + surveyID)
	if g.acquire(ctx, lock, surveyID) {
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("failed to release survey lock", "survey", surveyID, "error", err)
			}
		}()
	}
	return g.inner.Load(ctx, baseURL, surveyID)
}

func (g *GuardedCollector) acquire(ctx context.Context, lock distlock.Lock, surveyID string) bool {
	deadline := time.Now().Add(g.maxWait)
	for {
		ok, err := lock.TryAcquire(ctx)
		if err != nil {
			logger.Warn("survey lock backend unavailable", "survey", surveyID, "error", err)
			return false
		}
		if ok {
			return true
		}
		if time.Now().After(deadline) {
			logger.Warn("survey lock wait elapsed; loading anyway", "survey", surveyID)
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(g.poll):
		}
	}
}
