package resilience

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Caller composes retry-with-delay around a circuit breaker. Every attempt
// is gated by and reported to the breaker; a short-circuited attempt is not
// retried since the breaker will keep rejecting until its cooldown elapses.
// This is the only sanctioned path for external market-data calls.
type Caller struct {
	breaker *CircuitBreaker
	retries int
	delay   time.Duration
	logger  *zap.Logger
}

// NewCaller wraps breaker with a retry policy of retries extra attempts and
// delay between attempts.
func NewCaller(breaker *CircuitBreaker, retries int, delay time.Duration, logger *zap.Logger) *Caller {
	return &Caller{
		breaker: breaker,
		retries: retries,
		delay:   delay,
		logger:  logger,
	}
}

// Do runs fn through the breaker, retrying transient failures. The last
// error is returned once attempts are exhausted.
func (c *Caller) Do(ctx context.Context, fn func(context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			c.logger.Debug("retrying external call",
				zap.String("breaker", c.breaker.name),
				zap.Int("attempt", attempt+1),
				zap.Error(lastErr))
			select {
			case <-time.After(c.delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = c.breaker.Execute(ctx, fn)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, ErrCircuitOpen) {
			return lastErr
		}
	}
	return lastErr
}

// Breaker exposes the underlying breaker for state inspection.
func (c *Caller) Breaker() *CircuitBreaker { return c.breaker }
