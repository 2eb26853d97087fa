package upstream

import (
	"errors"
	"fmt"
	"net/http"
)

// Class represents a classification of upstream failures. Classification
// happens once, at the raw-call boundary; the retry policy and the
// breaker only ever see the class, never the transport details.
type Class string

const (
	// ClassTransient covers network/timeout failures and upstream-side
	// errors (5xx, 429) that may succeed on retry.
	ClassTransient Class = "transient"

	// ClassPermanent covers deterministic failures (other 4xx, malformed
	// or missing payload) that retrying cannot fix.
	ClassPermanent Class = "permanent"
)

// Error is an upstream-specific error with its failure class.
type Error struct {
	StatusCode int
	Class      Class
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream %s error (status %d): %s: %v",
			e.Class, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("upstream %s error (status %d): %s",
		e.Class, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a retryable upstream failure.
func IsTransient(err error) bool {
	var ue *Error
	return errors.As(err, &ue) && ue.Class == ClassTransient
}

// IsPermanent reports whether err is a deterministic upstream failure.
func IsPermanent(err error) bool {
	var ue *Error
	return errors.As(err, &ue) && ue.Class == ClassPermanent
}

// classifyStatus maps an HTTP status code to a failure class.
func classifyStatus(code int) Class {
	switch {
	case code == http.StatusTooManyRequests:
		return ClassTransient
	case code >= 500:
		return ClassTransient
	default:
		return ClassPermanent
	}
}
