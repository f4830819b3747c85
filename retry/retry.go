package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// Backoff is the delay policy between attempts: exponential growth from
// Initial, capped at Max. When Jitter is set, each delay is drawn uniformly
// from (0, computed delay] so that concurrent callers do not retry in
// lockstep.
type Backoff struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     bool
}

// DefaultBackoff returns the policy used when callers do not supply one.
func DefaultBackoff() Backoff {
	return Backoff{
		Initial:    100 * time.Millisecond,
		Max:        5 * time.Second,
		Multiplier: 2.0,
		Jitter:     true,
	}
}

// Delay returns the delay to sleep after the given attempt (1-based).
// Attempt 1 yields Initial, attempt 2 yields Initial*Multiplier, and so on,
// capped at Max.
func (b Backoff) Delay(attempt int) time.Duration {
	if b.Initial <= 0 {
		return 0
	}
	d := b.Initial
	for i := 1; i < attempt; i++ {
		d = time.Duration(float64(d) * b.Multiplier)
		if d >= b.Max {
			d = b.Max
			break
		}
	}
	if d > b.Max {
		d = b.Max
	}
	if b.Jitter && d > 0 {
		d = time.Duration(rand.Int63n(int64(d))) + 1
	}
	return d
}

// Config holds retry configuration for Do.
type Config struct {
	MaxAttempts int
	Backoff     Backoff
}

// Option is a functional option for retry configuration.
type Option func(*Config)

// WithMaxAttempts sets the total number of attempts, including the first.
func WithMaxAttempts(n int) Option {
	return func(c *Config) {
		c.MaxAttempts = n
	}
}

// WithBackoff sets the delay policy between attempts.
func WithBackoff(b Backoff) Option {
	return func(c *Config) {
		c.Backoff = b
	}
}

// Do executes the operation, retrying transient failures with exponential
// backoff. It attempts the operation up to MaxAttempts times in a plain
// bounded loop. Context cancellation is respected while sleeping between
// attempts.
//
// Errors wrapped with Fatal() are not retried.
func Do(ctx context.Context, operation func() error, opts ...Option) error {
	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     DefaultBackoff(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err

		if IsFatal(err) {
			return fmt.Errorf("fatal error (not retrying): %w", err)
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled after %d attempts: %w", attempt, ctx.Err())
		case <-time.After(cfg.Backoff.Delay(attempt)):
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", cfg.MaxAttempts, lastErr)
}

// FatalError wraps an error to mark it as fatal (non-retryable).
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal marks an error as fatal (non-retryable).
// Operations that encounter fatal errors will not be retried.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// IsFatal checks if an error is fatal (non-retryable).
func IsFatal(err error) bool {
	var fatalErr *FatalError
	return errors.As(err, &fatalErr)
}
