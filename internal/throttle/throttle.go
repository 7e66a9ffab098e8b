// Package throttle paces browser interactions and retries flaky operations.
package throttle

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/munthasirdevs/lead-scraping-automation/pkg/logger"
	"golang.org/x/time/rate"
)

// Limiter enforces a randomized minimum interval between successive
// network-triggering actions. The base spacing rides on a token bucket;
// a uniform jitter up to maxDelay-minDelay is added on top so request
// timing never forms a detectable cadence.
type Limiter struct {
	limiter  *rate.Limiter
	minDelay time.Duration
	maxDelay time.Duration

	mu  sync.Mutex
	rng *rand.Rand

	// sleep is swappable for tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewLimiter creates a limiter with the given delay window. maxDelay below
// minDelay is treated as equal to minDelay (no jitter).
func NewLimiter(minDelay, maxDelay time.Duration) *Limiter {
	if minDelay <= 0 {
		minDelay = time.Second
	}
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Limiter{
		limiter:  rate.NewLimiter(rate.Every(minDelay), 1),
		minDelay: minDelay,
		maxDelay: maxDelay,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:    sleepCtx,
	}
}

// Wait suspends the caller until the minimum interval since the previous
// action has elapsed, plus random jitter. It has no side effects besides the
// delay and only fails when ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return err
	}
	if jitterWindow := l.maxDelay - l.minDelay; jitterWindow > 0 {
		l.mu.Lock()
		jitter := time.Duration(l.rng.Int63n(int64(jitterWindow)))
		l.mu.Unlock()
		if err := l.sleep(ctx, jitter); err != nil {
			return err
		}
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Retry re-executes a fallible operation with bounded attempts and linear
// backoff (baseDelay * attempt number between tries). Each failed attempt is
// logged; on exhaustion the last failure is propagated. Meant for single
// operations, not multi-step loops that could duplicate side effects.
type Retry struct {
	MaxRetries int
	BaseDelay  time.Duration
	Log        *logger.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetry creates a retry wrapper with sane floors on its parameters.
func NewRetry(maxRetries int, baseDelay time.Duration, log *logger.Logger) *Retry {
	if maxRetries < 1 {
		maxRetries = 1
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Retry{MaxRetries: maxRetries, BaseDelay: baseDelay, Log: log, sleep: sleepCtx}
}

// Do invokes op, retrying on failure up to MaxRetries total attempts.
func (r *Retry) Do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= r.MaxRetries; attempt++ {
		if err := op(ctx); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt < r.MaxRetries {
			r.Log.WithError(lastErr).Warn("attempt failed, retrying",
				"op", name, "attempt", attempt, "max", r.MaxRetries)
			if err := r.sleep(ctx, r.BaseDelay*time.Duration(attempt)); err != nil {
				return err
			}
		} else {
			r.Log.WithError(lastErr).Error("all attempts failed", "op", name, "max", r.MaxRetries)
		}
	}
	return fmt.Errorf("%s: all %d attempts failed: %w", name, r.MaxRetries, lastErr)
}
