// Package backoff provides exponential backoff with jitter for reconnect
// and retry loops.
package backoff

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Policy defines how delays grow across attempts.
type Policy struct {
	Initial time.Duration // delay before the first retry
	Max     time.Duration // upper bound for any delay
	Factor  float64       // growth factor per attempt
	Jitter  float64       // randomization fraction, 0.0..1.0
}

// DefaultPolicy is tuned for gateway reconnects: 1s, doubling, capped at 60s,
// with 20% jitter to avoid thundering herds after an outage.
func DefaultPolicy() Policy {
	return Policy{
		Initial: time.Second,
		Max:     60 * time.Second,
		Factor:  2,
		Jitter:  0.2,
	}
}

// Delay returns the delay for the given attempt. Attempts start at 1.
func (p Policy) Delay(attempt int) time.Duration {
	return p.delayWithRand(attempt, rand.Float64())
}

// delayWithRand computes base = Initial * Factor^(attempt-1), adds
// base*Jitter*random, and clamps to Max. Split out so tests can pass a fixed
// random value.
func (p Policy) delayWithRand(attempt int, random float64) time.Duration {
	exp := math.Max(float64(attempt-1), 0)
	base := float64(p.Initial) * math.Pow(p.Factor, exp)
	total := base + base*p.Jitter*random
	return time.Duration(math.Min(total, float64(p.Max)))
}

// SleepContext sleeps for d, returning early with ctx.Err() on cancellation.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
