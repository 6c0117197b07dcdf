package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cleardesk/cleardesk/internal/resilience"
)

var errUpstream = errors.New("upstream failure")

func newBreaker(threshold int, cooldown time.Duration) *resilience.CircuitBreaker {
	return resilience.NewCircuitBreaker(resilience.BreakerConfig{
		Name:             "test",
		FailureThreshold: threshold,
		Cooldown:         cooldown,
	}, zap.NewNop())
}

func failN(cb *resilience.CircuitBreaker, n int) {
	for i := 0; i < n; i++ {
		_ = cb.Execute(context.Background(), func(context.Context) error { return errUpstream })
	}
}

func TestOpensAfterThreshold(t *testing.T) {
	cb := newBreaker(3, time.Minute)

	failN(cb, 2)
	assert.Equal(t, resilience.StateClosed, cb.State())

	failN(cb, 1)
	assert.Equal(t, resilience.StateOpen, cb.State())
}

func TestOpenShortCircuitsWithoutInvoking(t *testing.T) {
	cb := newBreaker(1, time.Minute)
	failN(cb, 1)
	require.Equal(t, resilience.StateOpen, cb.State())

	invoked := false
	err := cb.Execute(context.Background(), func(context.Context) error {
		invoked = true
		return nil
	})
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.False(t, invoked, "open breaker must not invoke the operation")
}

func TestProbeSuccessCloses(t *testing.T) {
	cb := newBreaker(1, 20*time.Millisecond)
	failN(cb, 1)
	require.Equal(t, resilience.StateOpen, cb.State())

	time.Sleep(30 * time.Millisecond)

	err := cb.Execute(context.Background(), func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, resilience.StateClosed, cb.State())

	// Failure counter was reset: one new failure does not re-open a
	// breaker with threshold 2
	cb2 := newBreaker(2, 20*time.Millisecond)
	failN(cb2, 2)
	time.Sleep(30 * time.Millisecond)
	require.NoError(t, cb2.Execute(context.Background(), func(context.Context) error { return nil }))
	failN(cb2, 1)
	assert.Equal(t, resilience.StateClosed, cb2.State())
}

func TestProbeFailureReopensAndRestartsCooldown(t *testing.T) {
	cb := newBreaker(1, 30*time.Millisecond)
	failN(cb, 1)
	time.Sleep(40 * time.Millisecond)

	// Probe fails: back to open
	err := cb.Execute(context.Background(), func(context.Context) error { return errUpstream })
	assert.ErrorIs(t, err, errUpstream)
	assert.Equal(t, resilience.StateOpen, cb.State())

	// Cooldown restarted, so an immediate call is still rejected
	err = cb.Execute(context.Background(), func(context.Context) error { return nil })
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)

	// After a fresh cooldown the next probe is allowed again
	time.Sleep(40 * time.Millisecond)
	require.NoError(t, cb.Execute(context.Background(), func(context.Context) error { return nil }))
	assert.Equal(t, resilience.StateClosed, cb.State())
}

func TestStats(t *testing.T) {
	cb := newBreaker(2, time.Minute)

	_ = cb.Execute(context.Background(), func(context.Context) error { return nil })
	failN(cb, 2)
	_ = cb.Execute(context.Background(), func(context.Context) error { return nil }) // rejected

	stats := cb.Stats()
	assert.Equal(t, "open", stats.State)
	assert.Equal(t, int64(1), stats.Opens)
	assert.Equal(t, int64(1), stats.Successes)
	assert.Equal(t, int64(2), stats.Failures)
	assert.Equal(t, int64(1), stats.Rejections)
}
