package resilience

import (
	"math/rand/v2"
	"time"
)

// Observer receives retry and breaker events, typically to feed metrics.
type Observer interface {
	ObserveRetry(operation string)
	ObserveBreakerState(operation, state string)
}

type Config struct {
	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	RetryMaxBackoff     time.Duration
	RetryMultiplier     float64
	// RetryJitter spreads each wait by up to this fraction, 0..1.
	RetryJitter float64

	// AttemptTimeout bounds a single attempt; zero leaves only the caller deadline.
	AttemptTimeout time.Duration

	BreakerEnabled          bool
	BreakerMinRequests      uint32
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls uint32

	Observer Observer
}

// DefaultConfig matches the gateway timeouts used for model and vector
// store calls: three quick attempts, then a 30s open breaker.
func DefaultConfig() Config {
	return Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 100 * time.Millisecond,
		RetryMaxBackoff:     400 * time.Millisecond,
		RetryMultiplier:     2.0,
		AttemptTimeout:      60 * time.Second,

		BreakerEnabled:          true,
		BreakerMinRequests:      10,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      30 * time.Second,
		BreakerHalfOpenMaxCalls: 2,
	}
}

func (c Config) normalize() Config {
	def := DefaultConfig()
	c.RetryMaxAttempts = positiveInt(c.RetryMaxAttempts, def.RetryMaxAttempts)
	c.RetryInitialBackoff = positiveDuration(c.RetryInitialBackoff, def.RetryInitialBackoff)
	c.RetryMaxBackoff = max(positiveDuration(c.RetryMaxBackoff, def.RetryMaxBackoff), c.RetryInitialBackoff)
	if c.RetryMultiplier < 1 {
		c.RetryMultiplier = def.RetryMultiplier
	}
	c.RetryJitter = min(max(c.RetryJitter, 0), 1)
	c.AttemptTimeout = max(c.AttemptTimeout, 0)

	if c.BreakerMinRequests == 0 {
		c.BreakerMinRequests = def.BreakerMinRequests
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1 {
		c.BreakerFailureRatio = def.BreakerFailureRatio
	}
	c.BreakerOpenTimeout = positiveDuration(c.BreakerOpenTimeout, def.BreakerOpenTimeout)
	if c.BreakerHalfOpenMaxCalls == 0 {
		c.BreakerHalfOpenMaxCalls = def.BreakerHalfOpenMaxCalls
	}
	return c
}

// backoff returns the wait after the given failed attempt (1-based).
func (c Config) backoff(attempt int) time.Duration {
	wait := float64(c.RetryInitialBackoff)
	for i := 1; i < attempt; i++ {
		wait *= c.RetryMultiplier
		if wait >= float64(c.RetryMaxBackoff) {
			break
		}
	}
	d := min(time.Duration(wait), c.RetryMaxBackoff)
	if c.RetryJitter > 0 && d > 0 {
		spread := float64(d) * c.RetryJitter
		d = time.Duration(float64(d) - spread + rand.Float64()*spread)
	}
	return d
}

func positiveInt(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

func positiveDuration(v, fallback time.Duration) time.Duration {
	if v <= 0 {
		return fallback
	}
	return v
}
