package breaker

import "time"

type config struct {
	failureThreshold int
	successThreshold int
	recoveryTimeout  time.Duration
	probeBudget      int
	clock            Clock

	onStateChange OnStateChangeFunc
}

// Option configures a Circuit.
type Option func(*config)

// WithFailureThreshold sets consecutive failures before opening the
// circuit. Default is 5.
func WithFailureThreshold(n int) Option {
	return func(c *config) {
		c.failureThreshold = n
	}
}

// WithSuccessThreshold sets consecutive half-open successes required
// before closing the circuit. Default is 1.
func WithSuccessThreshold(n int) Option {
	return func(c *config) {
		c.successThreshold = n
	}
}

// WithRecoveryTimeout sets how long the circuit stays open before
// transitioning to half-open. Default is 60 seconds.
func WithRecoveryTimeout(d time.Duration) Option {
	return func(c *config) {
		c.recoveryTimeout = d
	}
}

// WithProbeBudget sets how many trial calls are admitted in the
// half-open state. Default is 1.
func WithProbeBudget(n int) Option {
	return func(c *config) {
		c.probeBudget = n
	}
}

// WithClock sets the clock for time operations. Useful for testing.
func WithClock(clock Clock) Option {
	return func(c *config) {
		c.clock = clock
	}
}

// OnStateChange sets a hook called when the circuit changes state.
func OnStateChange(fn OnStateChangeFunc) Option {
	return func(c *config) {
		c.onStateChange = fn
	}
}
