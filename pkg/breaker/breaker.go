// Package breaker implements the circuit breaker guarding the upstream
// price API.
package breaker

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// State represents the circuit breaker state.
type State int

const (
	// Closed is the normal operating state. Requests flow through.
	Closed State = iota

	// Open is the tripped state. Requests are rejected immediately.
	Open

	// HalfOpen is the recovery testing state. Limited probes are allowed.
	HalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Clock supplies time, injectable for tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// OnStateChangeFunc is called when the circuit changes state.
type OnStateChangeFunc func(name string, from, to State)

// ErrOpen is returned by Allow when the circuit is rejecting calls.
var ErrOpen = errors.New("circuit open")

// IsOpen reports whether err is because the circuit is open.
func IsOpen(err error) bool {
	return errors.Is(err, ErrOpen)
}

// Default values.
const (
	DefaultFailureThreshold = 5
	DefaultSuccessThreshold = 1
	DefaultRecoveryTimeout  = 60 * time.Second
	DefaultProbeBudget      = 1
)

// Circuit is a circuit breaker for one named upstream dependency.
// Safe for concurrent use; one instance is shared by all callers of
// that dependency.
type Circuit struct {
	name   string
	cfg    config
	logger zerolog.Logger

	mu        sync.Mutex
	state     State
	failures  int
	successes int
	probes    int
	openedAt  time.Time
}

// New creates a Circuit with the given options.
func New(name string, opts ...Option) *Circuit {
	cfg := config{
		failureThreshold: DefaultFailureThreshold,
		successThreshold: DefaultSuccessThreshold,
		recoveryTimeout:  DefaultRecoveryTimeout,
		probeBudget:      DefaultProbeBudget,
		clock:            realClock{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &Circuit{
		name:   name,
		cfg:    cfg,
		logger: log.With().Str("component", "breaker").Str("name", name).Logger(),
		state:  Closed,
	}
	breakerState.WithLabelValues(name).Set(float64(Closed))
	return c
}

// Permit is the token for one admitted call. The holder must report the
// outcome via Success or Failure exactly once; the first report wins and
// later calls are no-ops.
type Permit struct {
	circuit *Circuit
	once    sync.Once
}

// Success reports that the admitted call succeeded.
func (p *Permit) Success() {
	p.once.Do(func() { p.circuit.record(false) })
}

// Failure reports that the admitted call failed.
func (p *Permit) Failure() {
	p.once.Do(func() { p.circuit.record(true) })
}

// Allow asks the breaker whether a call may be attempted. It returns a
// Permit when admitted, or ErrOpen when the circuit is Open or the
// half-open probe budget is spent.
func (c *Circuit) Allow() (*Permit, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.currentState() {
	case Open:
		breakerRejections.WithLabelValues(c.name).Inc()
		return nil, ErrOpen
	case HalfOpen:
		if c.probes >= c.cfg.probeBudget {
			breakerRejections.WithLabelValues(c.name).Inc()
			return nil, ErrOpen
		}
		c.probes++
	}

	return &Permit{circuit: c}, nil
}

// State returns the current state, applying the Open to HalfOpen
// transition when the recovery timeout has elapsed.
func (c *Circuit) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentState()
}

// Counts returns the current failure and success counters.
func (c *Circuit) Counts() (failures, successes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failures, c.successes
}

// Reset manually resets the circuit to closed state.
func (c *Circuit) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setState(Closed)
}

// Name returns the circuit name.
func (c *Circuit) Name() string {
	return c.name
}

func (c *Circuit) record(failure bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.currentState() {
	case Closed:
		if failure {
			c.failures++
			if c.failures >= c.cfg.failureThreshold {
				c.setState(Open)
			}
		} else {
			c.failures = 0
		}

	case HalfOpen:
		if failure {
			// No partial credit: the recovery timer restarts.
			c.setState(Open)
		} else {
			c.successes++
			if c.successes >= c.cfg.successThreshold {
				c.setState(Closed)
			}
		}

	case Open:
		// A permit resolving after the circuit reopened. The counters of
		// that window are gone; nothing to update.
	}
}

// currentState applies the time-driven Open to HalfOpen transition.
// Caller holds c.mu.
func (c *Circuit) currentState() State {
	if c.state == Open && c.cfg.clock.Now().Sub(c.openedAt) >= c.cfg.recoveryTimeout {
		c.setState(HalfOpen)
	}
	return c.state
}

// setState transitions to the given state and resets counters.
// Caller holds c.mu.
func (c *Circuit) setState(to State) {
	if c.state == to {
		return
	}
	from := c.state
	c.state = to

	c.failures = 0
	c.successes = 0
	c.probes = 0

	if to == Open {
		c.openedAt = c.cfg.clock.Now()
	}

	breakerState.WithLabelValues(c.name).Set(float64(to))
	breakerTransitions.WithLabelValues(c.name, to.String()).Inc()

	c.logger.Info().
		Stringer("from", from).
		Stringer("to", to).
		Msg("Circuit breaker state change")

	if c.cfg.onStateChange != nil {
		c.cfg.onStateChange(c.name, from, to)
	}
}
