package ratelimit

import (
	"context"
	"math/rand/v2"
	"time"
)

// RandomDelay spaces out consecutive operations by sleeping a uniformly random
// duration within [Min, Max]. It is safe for concurrent use.
type RandomDelay struct {
	min time.Duration
	max time.Duration
	// float returns a value in [0.0, 1.0); replaced in tests
	float func() float64
}

// NewRandomDelay creates a delay bounded by min and max. Negative bounds are
// treated as zero and a max below min is clamped to min.
func NewRandomDelay(min, max time.Duration) *RandomDelay {
	if min < 0 {
		min = 0
	}
	if max < min {
		max = min
	}
	return &RandomDelay{
		min:   min,
		max:   max,
		float: rand.Float64,
	}
}

// Bounds returns the configured minimum and maximum.
func (d *RandomDelay) Bounds() (time.Duration, time.Duration) {
	return d.min, d.max
}

// Next draws the next delay without sleeping.
func (d *RandomDelay) Next() time.Duration {
	span := d.max - d.min
	if span <= 0 {
		return d.min
	}
	return d.min + time.Duration(d.float()*float64(span+1))
}

// Wait sleeps for the next random delay, or until the context is canceled.
func (d *RandomDelay) Wait(ctx context.Context) error {
	wait := d.Next()
	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
