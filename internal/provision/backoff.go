package provision

import (
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// cycleBackoff implements backoff.BackOff with the engine's
// cycle-driven formula (§4.5.2): sleep = min(BASE·2^exp + jitter, MAX),
// exp = min(attempts, MAX_BACKOFF_ATTEMPTS), jitter uniform in
// [0, DECORRELATED_JITTER]. attempts is advanced by the caller once per
// cycle (incremented on a throttled cycle, decremented otherwise),
// not once per NextBackOff call, so it intentionally does not follow
// backoff.BackOff's per-call escalation contract; only its interface
// shape is reused here.
type cycleBackoff struct {
	base               time.Duration
	max                time.Duration
	maxAttempts        int
	decorrelatedJitter time.Duration
	attempts           int
}

var _ backoff.BackOff = (*cycleBackoff)(nil)

func newCycleBackoff(base, max time.Duration, maxAttempts int, decorrelatedJitter time.Duration) *cycleBackoff {
	return &cycleBackoff{base: base, max: max, maxAttempts: maxAttempts, decorrelatedJitter: decorrelatedJitter}
}

// NextBackOff returns the sleep duration for the current attempts
// count. It does not advance state; callers advance attempts
// explicitly via onThrottled/onClean.
func (c *cycleBackoff) NextBackOff() time.Duration {
	exp := c.attempts
	if exp > c.maxAttempts {
		exp = c.maxAttempts
	}

	sleep := c.base
	for i := 0; i < exp; i++ {
		sleep *= 2
	}

	var jitter time.Duration
	if c.decorrelatedJitter > 0 {
		jitter = time.Duration(rand.Int63n(int64(c.decorrelatedJitter) + 1))
	}
	sleep += jitter

	if sleep > c.max {
		sleep = c.max
	}
	return sleep
}

// onThrottled increments attempts, saturating at maxAttempts.
func (c *cycleBackoff) onThrottled() {
	if c.attempts < c.maxAttempts {
		c.attempts++
	}
}

// onClean decrements attempts, floored at 0.
func (c *cycleBackoff) onClean() {
	if c.attempts > 0 {
		c.attempts--
	}
}

// interADSleep returns a uniform random duration in [min, max] seconds,
// used between AD attempts within a cycle (but not after the last).
func interADSleep(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	span := int64(max - min)
	return min + time.Duration(rand.Int63n(span+1))
}
