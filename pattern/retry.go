package pattern

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/NetPo4ki/go-nursery/scope"
)

// RetryConfig configures Retry.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the
	// first. Default: 3.
	MaxAttempts int

	// Timeout bounds each attempt via scope.FailAfter. Zero means
	// attempts are not individually bounded.
	Timeout time.Duration

	// InitialDelay is the backoff before the first retry.
	// Default: 100ms.
	InitialDelay time.Duration

	// MaxDelay caps the backoff. Default: 30s.
	MaxDelay time.Duration

	// Multiplier grows the backoff each retry. Default: 2.0.
	Multiplier float64

	// Jitter adds up to 25% randomness to each delay.
	Jitter bool

	// RetryIf marks additional errors as retryable. A per-attempt
	// timeout is always retryable; everything else propagates
	// immediately unless RetryIf accepts it.
	RetryIf func(err error) bool

	// OnRetry is called before each backoff sleep.
	OnRetry func(attempt int, err error, delay time.Duration)
}

func (c *RetryConfig) applyDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = 100 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 30 * time.Second
	}
	if c.Multiplier <= 0 {
		c.Multiplier = 2.0
	}
}

// Retry runs op up to MaxAttempts times, each attempt bounded by the
// configured timeout. A timed-out or retryable attempt is followed by
// an exponentially growing backoff sleep; a non-retryable error
// returns immediately. When attempts are exhausted the last observed
// error is returned, so an operation that kept timing out surfaces
// scope.ErrTimeout.
func Retry(ctx context.Context, op func(ctx context.Context) error, cfg RetryConfig) error {
	cfg.applyDefaults()

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		var err error
		if cfg.Timeout > 0 {
			err = scope.FailAfter(ctx, cfg.Timeout, op)
		} else {
			err = op(ctx)
		}
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryable(err, cfg.RetryIf) {
			return err
		}
		if attempt >= cfg.MaxAttempts {
			break
		}

		delay := backoff(cfg, attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}
		if err := scope.Sleep(ctx, delay); err != nil {
			return err
		}
	}
	return lastErr
}

func retryable(err error, retryIf func(error) bool) bool {
	if errors.Is(err, scope.ErrTimeout) {
		return true
	}
	return retryIf != nil && retryIf(err)
}

func backoff(cfg RetryConfig, attempt int) time.Duration {
	mult := math.Pow(cfg.Multiplier, float64(attempt-1))
	delay := time.Duration(float64(cfg.InitialDelay) * mult)
	if delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	if cfg.Jitter {
		// A sub-4ns delay leaves no room to jitter.
		if n := int64(delay / 4); n > 0 {
			delay += time.Duration(rand.Int64N(n))
		}
	}
	return delay
}
