// Package upstream provides the raw price-data client and the error
// classification applied at the upstream call boundary.
package upstream

import (
	"strings"
	"time"
)

// Price is a point-in-time price quote for one pair. It is the payload
// cached and served by the fetcher.
type Price struct {
	// Symbol is the base asset symbol (e.g. "eth").
	Symbol string `json:"symbol"`

	// Quote is the quote currency (e.g. "usdt").
	Quote string `json:"vs_currency"`

	// Value is the current price in the quote currency.
	Value float64 `json:"price"`

	// Volume24h is the 24 hour trading volume.
	Volume24h float64 `json:"volume_24h,omitempty"`

	// Change24h is the 24 hour price change in percent.
	Change24h float64 `json:"price_change_24h,omitempty"`

	// LastUpdated is when the upstream last refreshed this quote.
	LastUpdated time.Time `json:"last_updated,omitempty"`

	// FetchedAt is when this process fetched the quote.
	FetchedAt time.Time `json:"fetched_at"`
}

// Pair returns the pair in display form, e.g. "ETH/USDT".
func (p *Price) Pair() string {
	return strings.ToUpper(p.Symbol) + "/" + strings.ToUpper(p.Quote)
}
