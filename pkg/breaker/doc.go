// Package breaker implements the circuit breaker pattern for the
// upstream price dependency.
//
// The circuit breaker has three states:
//
//	Closed (normal):
//	    - Permits are granted and calls flow through
//	    - Consecutive failures are counted; a success resets the count
//	    - Reaching the failure threshold opens the circuit
//
//	Open (tripped):
//	    - Allow returns ErrOpen immediately; upstream is never invoked
//	    - After the recovery timeout, the circuit becomes half-open
//
//	HalfOpen (probing):
//	    - Only the probe budget's worth of calls are admitted; the rest
//	      are rejected as if open
//	    - A probe success closes the circuit, a failure reopens it and
//	      restarts the recovery timer
//
// # Usage
//
//	circuit := breaker.New("coingecko",
//	    breaker.WithFailureThreshold(5),
//	    breaker.WithRecoveryTimeout(60*time.Second),
//	)
//
//	permit, err := circuit.Allow()
//	if err != nil {
//	    return err // breaker.IsOpen(err) == true
//	}
//	result, err := callUpstream(ctx)
//	if err != nil {
//	    permit.Failure()
//	    return err
//	}
//	permit.Success()
//
// Every granted Permit must be resolved exactly once via Success or
// Failure, otherwise the breaker's counters never advance. The Permit
// enforces the once-only part itself; the caller owns the exactly-once
// part.
//
// One Circuit instance guards one upstream dependency and is shared by
// all of its concurrent callers. Construct it explicitly and pass it
// down; tests get clean isolation from a fresh instance and a fake
// Clock via WithClock.
package breaker
