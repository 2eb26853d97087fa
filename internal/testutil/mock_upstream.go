// Package testutil provides testing utilities for the price proxy.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock upstream response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockUpstream is a configurable mock price API server for testing.
// Its default handler speaks the /simple/price shape: a JSON object
// keyed by coin id, each holding quote currency rates.
type MockUpstream struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)
	prices   map[string]map[string]float64

	RequestCount      int
	LastRequestHeader http.Header
}

// NewMockUpstream creates a mock upstream with one default price quote
// (bitcoin/usd) pre-registered.
func NewMockUpstream() *MockUpstream {
	mock := &MockUpstream{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
		prices: map[string]map[string]float64{
			"bitcoin": {"usd": 50000},
		},
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockUpstream) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockUpstream) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockUpstream) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.LastRequestHeader = nil
}

// SetPrice registers or updates the quote returned for a coin id.
func (m *MockUpstream) SetPrice(id, quote string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.prices[id] == nil {
		m.prices[id] = make(map[string]float64)
	}
	m.prices[id][quote] = value
}

// SetHandler sets a custom handler for a specific path. A nil handler
// removes any override, restoring the default behavior for the path.
func (m *MockUpstream) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if handler == nil {
		delete(m.handlers, path)
		return
	}
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockUpstream) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// FailTimes makes the given path return 503 for the first n requests to
// it, then fall through to the default handler. Useful for exercising
// retry and breaker recovery paths.
func (m *MockUpstream) FailTimes(path string, n int) {
	var mu sync.Mutex
	remaining := n
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		fail := remaining > 0
		if fail {
			remaining--
		}
		mu.Unlock()

		if fail {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error": "service unavailable"}`))
			return
		}
		m.defaultHandler(w, r)
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockUpstream) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// defaultHandler answers /simple/price requests from the registered
// price table. Unknown coin ids are simply omitted from the response,
// matching real upstream behavior.
func (m *MockUpstream) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	ids := strings.Split(r.URL.Query().Get("ids"), ",")
	quotes := strings.Split(r.URL.Query().Get("vs_currencies"), ",")

	m.mu.RLock()
	body := make(map[string]map[string]float64)
	for _, id := range ids {
		rates, ok := m.prices[id]
		if !ok {
			continue
		}
		out := make(map[string]float64)
		for _, q := range quotes {
			if v, ok := rates[q]; ok {
				out[q] = v
				out[q+"_24h_vol"] = 1000000
				out[q+"_24h_change"] = 1.5
			}
		}
		out["last_updated_at"] = float64(time.Now().Unix())
		body[id] = out
	}
	m.mu.RUnlock()

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(body)
}

// NewPriceResponse creates a 200 OK /simple/price response body for a
// single coin and quote.
func NewPriceResponse(id, quote string, value float64) MockResponse {
	body := fmt.Sprintf(`{%q: {%q: %g, "%s_24h_vol": 1000000, "%s_24h_change": 1.5, "last_updated_at": %d}}`,
		id, quote, value, quote, quote, time.Now().Unix())
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error": "rate limit exceeded"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
			"Retry-After":  "30",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewNotFoundResponse creates a 404 response for unknown endpoints.
func NewNotFoundResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"error": "not found"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}
