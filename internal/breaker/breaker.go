package breaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
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

var ErrOpen = errors.New("circuit breaker is open")

type Config struct {
	Name          string
	MaxFailures   int
	OpenTimeout   time.Duration
	HalfOpenMax   int
	OnStateChange func(name string, from, to State)
}

// Stats is a point-in-time copy of the breaker counters.
type Stats struct {
	Name            string    `json:"name"`
	State           string    `json:"state"`
	Failures        int       `json:"failures"`
	TotalRequests   int64     `json:"total_requests"`
	TotalFailures   int64     `json:"total_failures"`
	TotalSuccesses  int64     `json:"total_successes"`
	TotalRejected   int64     `json:"total_rejected"`
	StateChanges    int64     `json:"state_changes"`
	LastFailure     time.Time `json:"last_failure"`
	LastStateChange time.Time `json:"last_state_change"`
}

// Breaker guards calls to a flaky upstream (mail provider, image hosts).
type Breaker struct {
	name          string
	maxFailures   int
	openTimeout   time.Duration
	halfOpenMax   int
	onStateChange func(name string, from, to State)

	mutex        sync.Mutex
	state        State
	failures     int
	halfOpenUsed int
	lastFailure  time.Time

	totalRequests   int64
	totalFailures   int64
	totalSuccesses  int64
	totalRejected   int64
	stateChanges    int64
	lastStateChange time.Time

	logger *logrus.Logger
}

func New(config Config, logger *logrus.Logger) *Breaker {
	if config.Name == "" {
		config.Name = "unnamed"
	}
	if config.MaxFailures <= 0 {
		logger.WithFields(logrus.Fields{
			"circuit_breaker": config.Name,
			"invalid_value":   config.MaxFailures,
		}).Warn("Invalid MaxFailures value, using default 5")
		config.MaxFailures = 5
	}
	if config.OpenTimeout <= 0 {
		logger.WithFields(logrus.Fields{
			"circuit_breaker": config.Name,
			"invalid_value":   config.OpenTimeout,
		}).Warn("Invalid OpenTimeout value, using default 30s")
		config.OpenTimeout = 30 * time.Second
	}
	if config.HalfOpenMax <= 0 {
		config.HalfOpenMax = 1
	}
	if config.OpenTimeout > 10*time.Minute {
		config.OpenTimeout = 10 * time.Minute
	}

	return &Breaker{
		name:          config.Name,
		maxFailures:   config.MaxFailures,
		openTimeout:   config.OpenTimeout,
		halfOpenMax:   config.HalfOpenMax,
		onStateChange: config.OnStateChange,
		state:         StateClosed,
		logger:        logger,
	}
}

// Execute runs fn unless the breaker is open. A cancelled or expired ctx is
// not counted against the upstream.
func (b *Breaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.admit(); err != nil {
		return err
	}

	err := fn(ctx)

	b.mutex.Lock()
	defer b.mutex.Unlock()

	if err != nil && ctx.Err() == nil {
		b.totalFailures++
		b.onFailure()
		return err
	}
	if err != nil {
		b.release()
		return err
	}

	b.totalSuccesses++
	b.onSuccess()
	return nil
}

func (b *Breaker) admit() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.state == StateOpen {
		if time.Since(b.lastFailure) < b.openTimeout {
			b.totalRejected++
			return ErrOpen
		}
		b.setState(StateHalfOpen)
		b.halfOpenUsed = 0
	}

	if b.state == StateHalfOpen {
		if b.halfOpenUsed >= b.halfOpenMax {
			b.totalRejected++
			return ErrOpen
		}
		b.halfOpenUsed++
	}

	b.totalRequests++
	return nil
}

// release gives back a half-open probe that ended without a verdict.
func (b *Breaker) release() {
	if b.state == StateHalfOpen && b.halfOpenUsed > 0 {
		b.halfOpenUsed--
	}
}

func (b *Breaker) onSuccess() {
	b.failures = 0
	if b.state == StateHalfOpen {
		b.setState(StateClosed)
		b.halfOpenUsed = 0
	}
}

func (b *Breaker) onFailure() {
	b.failures++
	b.lastFailure = time.Now()

	switch b.state {
	case StateClosed:
		if b.failures >= b.maxFailures {
			b.setState(StateOpen)
		}
	case StateHalfOpen:
		b.setState(StateOpen)
		b.halfOpenUsed = 0
	}
}

func (b *Breaker) setState(next State) {
	if b.state == next {
		return
	}

	prev := b.state
	b.state = next
	b.stateChanges++
	b.lastStateChange = time.Now()

	b.logger.WithFields(logrus.Fields{
		"circuit_breaker": b.name,
		"from_state":      prev.String(),
		"to_state":        next.String(),
	}).Info("Circuit breaker state changed")

	if b.onStateChange != nil {
		go b.notify(prev, next)
	}
}

func (b *Breaker) notify(from, to State) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.WithFields(logrus.Fields{
				"circuit_breaker": b.name,
				"panic":           r,
			}).Error("Circuit breaker state change callback panicked")
		}
	}()
	b.onStateChange(b.name, from, to)
}

func (b *Breaker) State() State {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.state
}

func (b *Breaker) Stats() Stats {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return Stats{
		Name:            b.name,
		State:           b.state.String(),
		Failures:        b.failures,
		TotalRequests:   b.totalRequests,
		TotalFailures:   b.totalFailures,
		TotalSuccesses:  b.totalSuccesses,
		TotalRejected:   b.totalRejected,
		StateChanges:    b.stateChanges,
		LastFailure:     b.lastFailure,
		LastStateChange: b.lastStateChange,
	}
}

func (b *Breaker) Reset() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.setState(StateClosed)
	b.failures = 0
	b.halfOpenUsed = 0
	b.lastFailure = time.Time{}
}

func (b *Breaker) String() string {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return fmt.Sprintf("Breaker(name=%s, state=%s, failures=%d/%d)", b.name, b.state, b.failures, b.maxFailures)
}
