package cache

import (
	"fmt"
	"strings"
)

// Key identifies a cached price pair.
type Key struct {
	// Symbol is the base asset symbol (e.g. "eth").
	Symbol string

	// Quote is the quote currency (e.g. "usdt").
	Quote string
}

// NewKey builds a normalized (lowercase) key.
func NewKey(symbol, quote string) Key {
	return Key{
		Symbol: strings.ToLower(strings.TrimSpace(symbol)),
		Quote:  strings.ToLower(strings.TrimSpace(quote)),
	}
}

// ParsePair parses a pair in "symbol-quote" form (e.g. "eth-usdt").
func ParsePair(pair string) (Key, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(pair)), "-")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Key{}, fmt.Errorf("invalid pair %q: use symbol-currency format (e.g. eth-usdt)", pair)
	}
	return Key{Symbol: parts[0], Quote: parts[1]}, nil
}

// String generates a deterministic cache key string.
// Format: price:symbol:quote
//
// Example:
//
//	price:eth:usdt
func (k Key) String() string {
	return "price:" + k.Symbol + ":" + k.Quote
}

// Pair returns the key in "symbol-quote" form.
func (k Key) Pair() string {
	return k.Symbol + "-" + k.Quote
}
