package upstream

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestError_Error(t *testing.T) {
	e := &Error{StatusCode: 502, Class: ClassTransient, Message: "bad gateway"}
	msg := e.Error()
	if msg != "upstream transient error (status 502): bad gateway" {
		t.Errorf("Error() = %q", msg)
	}

	wrapped := &Error{Class: ClassPermanent, Message: "malformed response", Err: errors.New("unexpected EOF")}
	if wrapped.Error() != "upstream permanent error (status 0): malformed response: unexpected EOF" {
		t.Errorf("Error() = %q", wrapped.Error())
	}
}

func TestError_Unwrap(t *testing.T) {
	inner := errors.New("connection refused")
	e := &Error{Class: ClassTransient, Message: "request failed", Err: inner}

	if !errors.Is(e, inner) {
		t.Error("errors.Is should find the wrapped error")
	}
}

func TestIsTransientIsPermanent(t *testing.T) {
	transient := &Error{Class: ClassTransient, Message: "timeout"}
	permanent := &Error{Class: ClassPermanent, Message: "not found"}
	plain := errors.New("plain error")

	if !IsTransient(transient) {
		t.Error("IsTransient should be true for transient Error")
	}
	if IsTransient(permanent) || IsTransient(plain) || IsTransient(nil) {
		t.Error("IsTransient should be false for non-transient errors")
	}

	if !IsPermanent(permanent) {
		t.Error("IsPermanent should be true for permanent Error")
	}
	if IsPermanent(transient) || IsPermanent(plain) || IsPermanent(nil) {
		t.Error("IsPermanent should be false for non-permanent errors")
	}

	// Classification survives wrapping.
	wrapped := fmt.Errorf("fetch eth-usdt: %w", transient)
	if !IsTransient(wrapped) {
		t.Error("IsTransient should see through wrapping")
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		code int
		want Class
	}{
		{http.StatusInternalServerError, ClassTransient},
		{http.StatusBadGateway, ClassTransient},
		{http.StatusServiceUnavailable, ClassTransient},
		{http.StatusTooManyRequests, ClassTransient},
		{http.StatusBadRequest, ClassPermanent},
		{http.StatusNotFound, ClassPermanent},
		{http.StatusUnauthorized, ClassPermanent},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d", tt.code), func(t *testing.T) {
			if got := classifyStatus(tt.code); got != tt.want {
				t.Errorf("classifyStatus(%d) = %s, want %s", tt.code, got, tt.want)
			}
		})
	}
}
