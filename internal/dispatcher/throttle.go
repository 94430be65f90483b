package dispatcher

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// sleepFunc blocks for d or until ctx is done.
type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Throttle spaces out sends. Between two sends it pauses for a random
// duration in [min, max], extended after transient provider errors. A token
// bucket keyed to min enforces the floor on send spacing.
type Throttle struct {
	min, max time.Duration

	// limiter: one send per min interval
	limiter *rate.Limiter

	now   func() time.Time
	sleep sleepFunc
	rng   *rand.Rand

	// additional backoff after a transient provider error
	backoff time.Duration
	mu      sync.Mutex
}

// NewThrottle creates a throttle pausing between min and max. A max below
// min is treated as min.
func NewThrottle(min, max time.Duration, now func() time.Time, sleep sleepFunc, rng *rand.Rand) *Throttle {
	if min < 0 {
		min = 0
	}
	if max < min {
		max = min
	}

	limit := rate.Inf
	if min > 0 {
		limit = rate.Every(min)
	}

	return &Throttle{
		min:     min,
		max:     max,
		limiter: rate.NewLimiter(limit, 1),
		now:     now,
		sleep:   sleep,
		rng:     rng,
	}
}

// Ready blocks until the next send is allowed by the spacing floor.
func (t *Throttle) Ready(ctx context.Context) error {
	now := t.now()
	r := t.limiter.ReserveN(now, 1)
	if !r.OK() {
		return nil
	}
	if wait := r.DelayFrom(now); wait > 0 {
		if err := t.sleep(ctx, wait); err != nil {
			r.CancelAt(t.now())
			return err
		}
	}
	return nil
}

// Pause waits between two sends and returns the duration it chose.
func (t *Throttle) Pause(ctx context.Context) (time.Duration, error) {
	d := t.next()

	t.mu.Lock()
	if t.backoff > d {
		d = t.backoff
	}
	t.backoff = 0
	t.mu.Unlock()

	return d, t.sleep(ctx, d)
}

// SetBackoff makes the next pause last at least d.
func (t *Throttle) SetBackoff(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if d > t.backoff {
		t.backoff = d
	}
}

func (t *Throttle) next() time.Duration {
	if t.max == t.min || t.rng == nil {
		return t.min
	}
	return t.min + time.Duration(t.rng.Int64N(int64(t.max-t.min)+1))
}
