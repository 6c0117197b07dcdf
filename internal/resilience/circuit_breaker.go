// Package resilience provides the circuit breaker and retry primitives that
// guard calls to external market-data dependencies.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ErrCircuitOpen is returned when a call is short-circuited without invoking
// the underlying operation.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerState represents the state of a circuit breaker.
type BreakerState int32

const (
	// StateClosed - normal operation, calls pass through
	StateClosed BreakerState = iota
	// StateOpen - calls are rejected until the cooldown elapses
	StateOpen
	// StateHalfOpen - a single probe call is testing recovery
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker trips after FailureThreshold accumulated failures and
// rejects calls for Cooldown; the first call after the cooldown runs as a
// probe that either re-closes or re-opens the breaker. One instance guards
// one class of external operation and is shared by all request flows.
type CircuitBreaker struct {
	name             string
	failureThreshold int64
	cooldown         time.Duration

	state        int32 // BreakerState
	failureCount int64
	openedAt     int64 // unix nano
	probeActive  int32

	opens      int64
	successes  int64
	failures   int64
	rejections int64

	logger *zap.Logger
}

// BreakerConfig holds circuit breaker configuration.
type BreakerConfig struct {
	Name             string        `yaml:"name" json:"name"`
	FailureThreshold int           `yaml:"failure_threshold" json:"failure_threshold"`
	Cooldown         time.Duration `yaml:"cooldown" json:"cooldown"`
}

// NewCircuitBreaker creates a closed breaker.
func NewCircuitBreaker(cfg BreakerConfig, logger *zap.Logger) *CircuitBreaker {
	return &CircuitBreaker{
		name:             cfg.Name,
		failureThreshold: int64(cfg.FailureThreshold),
		cooldown:         cfg.Cooldown,
		state:            int32(StateClosed),
		logger:           logger,
	}
}

// Execute runs fn under breaker protection and records its outcome.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if !cb.allowRequest() {
		atomic.AddInt64(&cb.rejections, 1)
		return fmt.Errorf("%s: %w", cb.name, ErrCircuitOpen)
	}

	err := fn(ctx)
	if err != nil {
		cb.recordFailure()
	} else {
		cb.recordSuccess()
	}
	return err
}

func (cb *CircuitBreaker) allowRequest() bool {
	state := BreakerState(atomic.LoadInt32(&cb.state))
	switch state {
	case StateClosed:
		return true

	case StateOpen:
		openedAt := atomic.LoadInt64(&cb.openedAt)
		if time.Now().UnixNano()-openedAt >= cb.cooldown.Nanoseconds() {
			// Cooldown elapsed: let exactly one probe through
			if atomic.CompareAndSwapInt32(&cb.state, int32(StateOpen), int32(StateHalfOpen)) {
				atomic.StoreInt32(&cb.probeActive, 1)
				cb.logger.Info("circuit breaker transitioning to half-open",
					zap.String("name", cb.name))
				return true
			}
		}
		return false

	case StateHalfOpen:
		// A probe is already in flight
		return atomic.CompareAndSwapInt32(&cb.probeActive, 0, 1)

	default:
		return false
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	atomic.AddInt64(&cb.successes, 1)

	if BreakerState(atomic.LoadInt32(&cb.state)) == StateHalfOpen {
		if atomic.CompareAndSwapInt32(&cb.state, int32(StateHalfOpen), int32(StateClosed)) {
			atomic.StoreInt64(&cb.failureCount, 0)
			atomic.StoreInt32(&cb.probeActive, 0)
			cb.logger.Info("circuit breaker closed after successful probe",
				zap.String("name", cb.name))
		}
	}
}

func (cb *CircuitBreaker) recordFailure() {
	atomic.AddInt64(&cb.failures, 1)
	failures := atomic.AddInt64(&cb.failureCount, 1)

	state := BreakerState(atomic.LoadInt32(&cb.state))
	if state == StateClosed && failures >= cb.failureThreshold {
		if atomic.CompareAndSwapInt32(&cb.state, int32(StateClosed), int32(StateOpen)) {
			atomic.StoreInt64(&cb.openedAt, time.Now().UnixNano())
			atomic.AddInt64(&cb.opens, 1)
			cb.logger.Warn("circuit breaker opened",
				zap.String("name", cb.name),
				zap.Int64("failures", failures),
				zap.Int64("failure_threshold", cb.failureThreshold))
		}
	} else if state == StateHalfOpen {
		// Probe failed: back to open, cooldown restarts
		if atomic.CompareAndSwapInt32(&cb.state, int32(StateHalfOpen), int32(StateOpen)) {
			atomic.StoreInt64(&cb.openedAt, time.Now().UnixNano())
			atomic.StoreInt32(&cb.probeActive, 0)
			atomic.AddInt64(&cb.opens, 1)
			cb.logger.Warn("circuit breaker re-opened after failed probe",
				zap.String("name", cb.name))
		}
	}
}

// State returns the current breaker state.
func (cb *CircuitBreaker) State() BreakerState {
	return BreakerState(atomic.LoadInt32(&cb.state))
}

// BreakerStats holds breaker counters.
type BreakerStats struct {
	Name       string `json:"name"`
	State      string `json:"state"`
	Opens      int64  `json:"opens"`
	Successes  int64  `json:"successes"`
	Failures   int64  `json:"failures"`
	Rejections int64  `json:"rejections"`
}

// Stats returns a snapshot of the breaker counters.
func (cb *CircuitBreaker) Stats() BreakerStats {
	return BreakerStats{
		Name:       cb.name,
		State:      cb.State().String(),
		Opens:      atomic.LoadInt64(&cb.opens),
		Successes:  atomic.LoadInt64(&cb.successes),
		Failures:   atomic.LoadInt64(&cb.failures),
		Rejections: atomic.LoadInt64(&cb.rejections),
	}
}

// Reset forces the breaker back to closed. Operator escape hatch.
func (cb *CircuitBreaker) Reset() {
	atomic.StoreInt32(&cb.state, int32(StateClosed))
	atomic.StoreInt64(&cb.failureCount, 0)
	atomic.StoreInt32(&cb.probeActive, 0)
	cb.logger.Info("circuit breaker manually reset", zap.String("name", cb.name))
}
