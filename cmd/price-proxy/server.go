package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Manser95/CryptoPair/pkg/breaker"
	"github.com/Manser95/CryptoPair/pkg/cache"
	"github.com/Manser95/CryptoPair/pkg/fetcher"
	"github.com/Manser95/CryptoPair/pkg/metrics"
)

// server bundles the handlers' dependencies.
type server struct {
	fetcher *fetcher.Fetcher
	circuit *breaker.Circuit
	redis   *redis.Client
	logger  zerolog.Logger
}

// priceResponse is the JSON body for a resolved price.
type priceResponse struct {
	Pair        string    `json:"pair"`
	Symbol      string    `json:"symbol"`
	Quote       string    `json:"vs_currency"`
	Price       float64   `json:"price"`
	Volume24h   float64   `json:"volume_24h"`
	Change24h   float64   `json:"price_change_24h"`
	LastUpdated time.Time `json:"last_updated"`
	FetchedAt   time.Time `json:"fetched_at"`
	Freshness   string    `json:"freshness"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/prices/{pair}", s.handlePrice)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /health/live", s.handleLive)
	mux.HandleFunc("GET /health/ready", s.handleReady)
	mux.HandleFunc("POST /admin/circuit-breaker/reset", s.handleBreakerReset)
	mux.HandleFunc("POST /admin/cache/invalidate", s.handleCacheInvalidate)
	mux.Handle("GET /metrics", promhttp.Handler())

	return metrics.InstrumentHandler(mux)
}

func (s *server) handlePrice(w http.ResponseWriter, r *http.Request) {
	key, err := cache.ParsePair(r.PathValue("pair"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	res, err := s.fetcher.Fetch(r.Context(), key)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("pair", key.Pair()).
			Msg("Price lookup failed")
		status := http.StatusBadGateway
		if errors.Is(err, fetcher.ErrUpstreamUnavailable) {
			status = http.StatusServiceUnavailable
			w.Header().Set("Retry-After", "5")
		}
		writeJSON(w, status, errorResponse{Error: "price data unavailable for " + key.Pair()})
		return
	}

	w.Header().Set("X-Cache-Freshness", res.Freshness.String())
	writeJSON(w, http.StatusOK, priceResponse{
		Pair:        key.Pair(),
		Symbol:      res.Price.Symbol,
		Quote:       res.Price.Quote,
		Price:       res.Price.Value,
		Volume24h:   res.Price.Volume24h,
		Change24h:   res.Price.Change24h,
		LastUpdated: res.Price.LastUpdated,
		FetchedAt:   res.Price.FetchedAt,
		Freshness:   res.Freshness.String(),
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if s.circuit.State() != breaker.Closed {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":          status,
		"circuit_breaker": s.circuit.State().String(),
	})
}

func (s *server) handleLive(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleReady reports readiness. An open breaker means every uncached
// lookup fails, so the instance stops taking traffic until recovery.
// Redis being down is reported but not fatal: the service still
// answers from the memory tier and the upstream.
func (s *server) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok"}
	status := http.StatusOK

	if s.circuit.State() == breaker.Open {
		resp["status"] = "not ready"
		resp["circuit_breaker"] = "open"
		status = http.StatusServiceUnavailable
	}

	if s.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.redis.Ping(ctx).Err(); err != nil {
			resp["redis"] = "unavailable"
		} else {
			resp["redis"] = "ok"
		}
	}

	writeJSON(w, status, resp)
}

func (s *server) handleBreakerReset(w http.ResponseWriter, r *http.Request) {
	prev := s.circuit.State()
	s.circuit.Reset()
	s.logger.Info().
		Str("previous_state", prev.String()).
		Msg("Circuit breaker reset via admin endpoint")
	writeJSON(w, http.StatusOK, map[string]string{
		"previous_state": prev.String(),
		"state":          s.circuit.State().String(),
	})
}

func (s *server) handleCacheInvalidate(w http.ResponseWriter, r *http.Request) {
	pair := r.URL.Query().Get("pair")
	if pair == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing pair query parameter"})
		return
	}
	key, err := cache.ParsePair(pair)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	s.fetcher.Invalidate(r.Context(), key)
	s.logger.Info().Str("pair", key.Pair()).Msg("Cache entry invalidated via admin endpoint")
	writeJSON(w, http.StatusOK, map[string]string{"invalidated": key.Pair()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	// Encode errors after WriteHeader cannot be reported to the client.
	_ = json.NewEncoder(w).Encode(body)
}
