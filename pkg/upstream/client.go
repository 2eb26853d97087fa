package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for upstream requests.
var (
	upstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "price_upstream_requests_total",
		Help: "Total upstream requests by status",
	}, []string{"status"})

	upstreamRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "price_upstream_request_duration_seconds",
		Help:    "Upstream request duration in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	upstreamErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "price_upstream_errors_total",
		Help: "Total upstream errors by class",
	}, []string{"class"})
)

// coinIDs maps common symbols to upstream coin identifiers. Unknown
// symbols are passed through unchanged.
var coinIDs = map[string]string{
	"btc":   "bitcoin",
	"eth":   "ethereum",
	"sol":   "solana",
	"bnb":   "binancecoin",
	"xrp":   "ripple",
	"ada":   "cardano",
	"doge":  "dogecoin",
	"dot":   "polkadot",
	"ltc":   "litecoin",
	"link":  "chainlink",
	"avax":  "avalanche-2",
	"matic": "matic-network",
	"usdt":  "tether",
	"usdc":  "usd-coin",
}

// Config holds the upstream client configuration.
type Config struct {
	// BaseURL is the upstream API base URL.
	BaseURL string

	// APIKey is the optional pro API key.
	APIKey string

	// CallTimeout bounds a single fetch attempt. The retry policy calls
	// FetchPrice once per attempt; this timeout is per attempt, not per
	// logical request.
	CallTimeout time.Duration

	// UserAgent identifies this service to the upstream.
	UserAgent string

	// HTTPClient overrides the transport (for testing).
	HTTPClient *http.Client
}

// Client fetches price quotes from a CoinGecko-compatible API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	timeout    time.Duration
	userAgent  string
	logger     zerolog.Logger
}

// NewClient creates an upstream price client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.CallTimeout <= 0 {
		return nil, fmt.Errorf("call timeout must be positive (got %v)", cfg.CallTimeout)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "CryptoPair/1.0"
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		timeout:    cfg.CallTimeout,
		userAgent:  userAgent,
		logger:     log.With().Str("component", "upstream").Logger(),
	}, nil
}

// FetchPrice performs one upstream attempt for the given pair. Errors
// are classified at this boundary: network/timeout and 5xx/429 failures
// come back transient, everything deterministic comes back permanent.
func (c *Client) FetchPrice(ctx context.Context, symbol, quote string) (*Price, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	id := coinID(symbol)

	params := url.Values{}
	params.Set("ids", id)
	params.Set("vs_currencies", quote)
	params.Set("include_24hr_vol", "true")
	params.Set("include_24hr_change", "true")
	params.Set("include_last_updated_at", "true")

	endpoint := c.baseURL + "/simple/price?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.apiKey != "" {
		req.Header.Set("x-cg-pro-api-key", c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	upstreamRequestDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		upstreamErrorsTotal.WithLabelValues(string(ClassTransient)).Inc()
		upstreamRequestsTotal.WithLabelValues("network_error").Inc()
		c.logger.Warn().Err(err).Str("symbol", symbol).Str("quote", quote).Msg("Upstream request failed")
		return nil, &Error{Class: ClassTransient, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	upstreamRequestsTotal.WithLabelValues(fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		class := classifyStatus(resp.StatusCode)
		upstreamErrorsTotal.WithLabelValues(string(class)).Inc()
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Str("symbol", symbol).
			Msg("Upstream request error")
		return nil, &Error{StatusCode: resp.StatusCode, Class: class, Message: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		upstreamErrorsTotal.WithLabelValues(string(ClassTransient)).Inc()
		return nil, &Error{Class: ClassTransient, Message: "read response body", Err: err}
	}

	price, err := parseSimplePrice(body, id, symbol, quote)
	if err != nil {
		upstreamErrorsTotal.WithLabelValues(string(ClassPermanent)).Inc()
		return nil, err
	}

	return price, nil
}

// parseSimplePrice decodes a /simple/price response.
// Response shape: {"ethereum": {"usdt": 3500.1, "usdt_24h_vol": ..., "usdt_24h_change": ..., "last_updated_at": 1700000000}}
func parseSimplePrice(body []byte, id, symbol, quote string) (*Price, error) {
	var payload map[string]map[string]float64
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &Error{Class: ClassPermanent, Message: "malformed response", Err: err}
	}

	data, ok := payload[id]
	if !ok {
		return nil, &Error{Class: ClassPermanent, Message: fmt.Sprintf("no data for %s", symbol)}
	}
	value, ok := data[quote]
	if !ok {
		return nil, &Error{Class: ClassPermanent, Message: fmt.Sprintf("no %s quote for %s", quote, symbol)}
	}

	price := &Price{
		Symbol:    symbol,
		Quote:     quote,
		Value:     value,
		Volume24h: data[quote+"_24h_vol"],
		Change24h: data[quote+"_24h_change"],
		FetchedAt: time.Now(),
	}
	if ts, ok := data["last_updated_at"]; ok {
		price.LastUpdated = time.Unix(int64(ts), 0).UTC()
	}

	return price, nil
}

// coinID resolves a symbol to its upstream identifier.
func coinID(symbol string) string {
	if id, ok := coinIDs[symbol]; ok {
		return id
	}
	return symbol
}
