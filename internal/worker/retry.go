package worker

import (
	"math"
	"time"
)

// RetryPolicy holds exponential backoff parameters for failed tasks.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// PolicyFromSeconds builds a policy from whole-second config values.
func PolicyFromSeconds(maxRetries, initialSeconds, maxSeconds int) RetryPolicy {
	return RetryPolicy{
		MaxRetries:    maxRetries,
		InitialDelay:  time.Duration(initialSeconds) * time.Second,
		MaxDelay:      time.Duration(maxSeconds) * time.Second,
		BackoffFactor: 2,
	}
}

// NextDelay returns the backoff for a 1-based attempt, clamped to MaxDelay.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if r.InitialDelay <= 0 {
		r.InitialDelay = time.Second
	}
	if r.BackoffFactor <= 0 {
		r.BackoffFactor = 2
	}

	delay := float64(r.InitialDelay) * math.Pow(r.BackoffFactor, float64(attempt-1))
	d := time.Duration(delay)
	if r.MaxDelay > 0 && d > r.MaxDelay {
		d = r.MaxDelay
	}
	if d <= 0 {
		d = time.Second
	}
	return d
}
