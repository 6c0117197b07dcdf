// Package marketdata validates tickers and ISINs against external
// market-data sources, fronted by TTL caches and circuit breakers.
package marketdata

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// Quote is the typed result of a ticker lookup. Upstream payloads are
// loosely-typed JSON; the client converts them into this shape before any
// business logic sees them.
type Quote struct {
	Symbol        string
	Currency      string
	QuoteType     string
	Exchange      string
	LongName      string
	ShortName     string
	Price         float64
	PreviousClose float64
}

// BondInfo is the typed result of a bond reference lookup.
type BondInfo struct {
	ISIN     string
	Name     string
	Issuer   string
	Currency string
	Exchange string
}

// ErrBondUnavailable signals the bond reference source could not serve the
// lookup; callers degrade to country-derived synthetic data.
var ErrBondUnavailable = errors.New("bond reference source unavailable")

// MarketDataSource looks up a ticker against an external quote provider.
type MarketDataSource interface {
	Lookup(ctx context.Context, symbol string) (*Quote, error)
}

// BondReferenceSource looks up an ISIN against an external bond directory.
type BondReferenceSource interface {
	Lookup(ctx context.Context, isin string) (*BondInfo, error)
}

// CurrencyConverter converts a native-currency amount to USD, returning the
// converted amount and the rate applied.
type CurrencyConverter interface {
	ConvertToUSD(ctx context.Context, amount decimal.Decimal, fromCurrency string) (decimal.Decimal, decimal.Decimal, error)
}

// InstrumentValidation is the per-call validation result. It is transient
// and never persisted.
type InstrumentValidation struct {
	Valid          bool            `json:"valid"`
	InstrumentType string          `json:"instrument_type"`
	Symbol         string          `json:"symbol"`
	Name           string          `json:"name"`
	Currency       string          `json:"currency"`
	Price          decimal.Decimal `json:"price"`
	Exchange       string          `json:"exchange,omitempty"`
	Issuer         string          `json:"issuer,omitempty"`
	// Degraded marks results served from stale cache or synthetic fallback.
	Degraded bool `json:"degraded,omitempty"`
	// Transient marks negative results caused by infrastructure failure
	// rather than a well-formed "this symbol does not exist" answer.
	Transient bool   `json:"transient,omitempty"`
	Err       string `json:"error,omitempty"`
}
