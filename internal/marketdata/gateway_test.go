package marketdata_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cleardesk/cleardesk/internal/cache"
	"github.com/cleardesk/cleardesk/internal/marketdata"
	"github.com/cleardesk/cleardesk/internal/resilience"
	"github.com/cleardesk/cleardesk/pkg/models"
)

type fakeQuoteSource struct {
	quote *marketdata.Quote
	err   error
	calls int
}

func (f *fakeQuoteSource) Lookup(ctx context.Context, symbol string) (*marketdata.Quote, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.quote, nil
}

type fakeBondSource struct {
	info  *marketdata.BondInfo
	err   error
	calls int
}

func (f *fakeBondSource) Lookup(ctx context.Context, isin string) (*marketdata.BondInfo, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.info, nil
}

type gatewayFixture struct {
	gateway      *marketdata.Gateway
	quotes       *fakeQuoteSource
	bonds        *fakeBondSource
	quoteBreaker *resilience.CircuitBreaker
}

func newFixture(t *testing.T, tickerTTL time.Duration, breakerThreshold int) *gatewayFixture {
	t.Helper()
	logger := zap.NewNop()
	quotes := &fakeQuoteSource{}
	bonds := &fakeBondSource{}

	quoteBreaker := resilience.NewCircuitBreaker(resilience.BreakerConfig{
		Name: "quote-lookup", FailureThreshold: breakerThreshold, Cooldown: time.Minute,
	}, logger)
	bondBreaker := resilience.NewCircuitBreaker(resilience.BreakerConfig{
		Name: "bond-lookup", FailureThreshold: breakerThreshold, Cooldown: time.Minute,
	}, logger)

	gw := marketdata.NewGateway(
		quotes, bonds,
		cache.New[marketdata.InstrumentValidation](100, tickerTTL),
		cache.New[marketdata.InstrumentValidation](100, time.Hour),
		resilience.NewCaller(quoteBreaker, 0, 0, logger),
		resilience.NewCaller(bondBreaker, 0, 0, logger),
		logger,
	)
	return &gatewayFixture{gateway: gw, quotes: quotes, bonds: bonds, quoteBreaker: quoteBreaker}
}

func goodQuote() *marketdata.Quote {
	return &marketdata.Quote{
		Symbol:    "AAPL",
		Currency:  "USD",
		QuoteType: "EQUITY",
		Exchange:  "NasdaqGS",
		LongName:  "Apple Inc.",
		Price:     150,
	}
}

func TestValidateTickerSuccess(t *testing.T) {
	f := newFixture(t, time.Minute, 5)
	f.quotes.quote = goodQuote()

	v := f.gateway.ValidateTicker(context.Background(), " aapl ")
	require.True(t, v.Valid)
	assert.Equal(t, "AAPL", v.Symbol)
	assert.Equal(t, models.InstrumentEquity, v.InstrumentType)
	assert.Equal(t, "Apple Inc.", v.Name)
	assert.Equal(t, "USD", v.Currency)
	assert.Equal(t, "150", v.Price.String())
}

func TestValidateTickerCacheHitSkipsLookup(t *testing.T) {
	f := newFixture(t, time.Minute, 5)
	f.quotes.quote = goodQuote()

	f.gateway.ValidateTicker(context.Background(), "AAPL")
	f.gateway.ValidateTicker(context.Background(), "AAPL")
	assert.Equal(t, 1, f.quotes.calls)
}

func TestValidateTickerNegativeResultIsCached(t *testing.T) {
	f := newFixture(t, time.Minute, 5)
	f.quotes.quote = &marketdata.Quote{Symbol: "ZZZZ"} // no currency

	v := f.gateway.ValidateTicker(context.Background(), "ZZZZ")
	require.False(t, v.Valid)
	assert.False(t, v.Transient)
	assert.Contains(t, v.Err, "ZZZZ")

	f.gateway.ValidateTicker(context.Background(), "ZZZZ")
	assert.Equal(t, 1, f.quotes.calls, "well-formed negatives should be served from cache")
	// A negative answer is not an infrastructure fault
	assert.Equal(t, resilience.StateClosed, f.quoteBreaker.State())
}

func TestValidateTickerRejectsDisallowedTypes(t *testing.T) {
	f := newFixture(t, time.Minute, 5)
	q := goodQuote()
	q.QuoteType = "MUTUALFUND"
	f.quotes.quote = q

	v := f.gateway.ValidateTicker(context.Background(), "VFIAX")
	require.False(t, v.Valid)
	assert.Contains(t, v.Err, "unsupported instrument type")
}

func TestValidateTickerPreviousCloseFallback(t *testing.T) {
	f := newFixture(t, time.Minute, 5)
	q := goodQuote()
	q.Price = 0
	q.PreviousClose = 148.5
	f.quotes.quote = q

	v := f.gateway.ValidateTicker(context.Background(), "AAPL")
	require.True(t, v.Valid)
	assert.Equal(t, "148.5", v.Price.String())
}

func TestValidateTickerPlaceholderExchange(t *testing.T) {
	f := newFixture(t, time.Minute, 5)
	q := goodQuote()
	q.Exchange = "YHD"
	f.quotes.quote = q

	v := f.gateway.ValidateTicker(context.Background(), "BOGUS")
	require.False(t, v.Valid)
	assert.Contains(t, v.Err, "exchange")
}

func TestValidateTickerTimeoutWording(t *testing.T) {
	f := newFixture(t, time.Minute, 5)
	f.quotes.err = context.DeadlineExceeded

	v := f.gateway.ValidateTicker(context.Background(), "AAPL")
	require.False(t, v.Valid)
	assert.True(t, v.Transient)
	assert.Contains(t, v.Err, "timed out")
	assert.NotContains(t, v.Err, "not found", "a timeout must never read like an invalid ticker")
}

func TestValidateTickerNetworkWording(t *testing.T) {
	f := newFixture(t, time.Minute, 5)
	f.quotes.err = errors.New("connection refused")

	v := f.gateway.ValidateTicker(context.Background(), "AAPL")
	require.False(t, v.Valid)
	assert.True(t, v.Transient)
	assert.Contains(t, v.Err, "network issues")
}

func TestValidateTickerCircuitOpenWording(t *testing.T) {
	f := newFixture(t, time.Minute, 1)
	f.quotes.err = errors.New("connection refused")

	f.gateway.ValidateTicker(context.Background(), "AAPL")
	require.Equal(t, resilience.StateOpen, f.quoteBreaker.State())

	v := f.gateway.ValidateTicker(context.Background(), "MSFT")
	require.False(t, v.Valid)
	assert.True(t, v.Transient)
	assert.Contains(t, v.Err, "temporarily unavailable")
	assert.Equal(t, 1, f.quotes.calls, "open breaker must not invoke the source")
}

func TestValidateTickerServesStaleOnFailure(t *testing.T) {
	f := newFixture(t, 10*time.Millisecond, 5)
	f.quotes.quote = goodQuote()

	first := f.gateway.ValidateTicker(context.Background(), "AAPL")
	require.True(t, first.Valid)

	time.Sleep(20 * time.Millisecond)
	f.quotes.err = errors.New("connection refused")

	v := f.gateway.ValidateTicker(context.Background(), "AAPL")
	require.True(t, v.Valid, "stale entry should be served in degraded mode")
	assert.True(t, v.Degraded)
	assert.Equal(t, "Apple Inc.", v.Name)
	assert.Equal(t, 2, f.quotes.calls, "the expired entry must not be served as a live hit")
}

func TestValidateISINFormatGate(t *testing.T) {
	f := newFixture(t, time.Minute, 5)

	v := f.gateway.ValidateISIN(context.Background(), "NOT-AN-ISIN")
	require.False(t, v.Valid)
	assert.Contains(t, v.Err, "ISIN")
	assert.Zero(t, f.bonds.calls, "format failures must not reach the network")
}

func TestValidateISINBondFallback(t *testing.T) {
	f := newFixture(t, time.Minute, 5)
	f.bonds.err = marketdata.ErrBondUnavailable

	v := f.gateway.ValidateISIN(context.Background(), "US1234567890")
	require.True(t, v.Valid)
	assert.Equal(t, models.InstrumentBond, v.InstrumentType)
	assert.Equal(t, "United States Bond US1234567890", v.Name)
	assert.Equal(t, "USD", v.Currency)
	assert.Equal(t, "1", v.Price.String())
	assert.True(t, v.Degraded)
}

func TestValidateISINWithReferenceData(t *testing.T) {
	f := newFixture(t, time.Minute, 5)
	f.bonds.info = &marketdata.BondInfo{
		ISIN: "DE000BAY0017", Name: "Bayer AG 2.375%", Issuer: "Bayer AG", Currency: "EUR",
	}

	v := f.gateway.ValidateISIN(context.Background(), "DE000BAY0017")
	require.True(t, v.Valid)
	assert.Equal(t, "Bayer AG 2.375%", v.Name)
	assert.Equal(t, "EUR", v.Currency)
	assert.Equal(t, "Bayer AG", v.Issuer)

	f.gateway.ValidateISIN(context.Background(), "DE000BAY0017")
	assert.Equal(t, 1, f.bonds.calls, "bond validations should be cached")
}
