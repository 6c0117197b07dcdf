package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cleardesk/cleardesk/internal/cache"
	"github.com/cleardesk/cleardesk/internal/resilience"
	"github.com/cleardesk/cleardesk/pkg/metrics"
	"github.com/cleardesk/cleardesk/pkg/models"
)

// allowedQuoteTypes are the instrument classes employees may trade through
// the portal. Mutual funds, currencies and placeholder types are rejected.
var allowedQuoteTypes = map[string]bool{
	"EQUITY": true,
	"ETF":    true,
	"INDEX":  true,
}

// placeholderExchanges are sentinel exchange values the quote provider
// reports for symbols it does not actually know.
var placeholderExchanges = map[string]bool{
	"YHD": true,
}

// Gateway validates tickers and ISINs, caching results and guarding the
// external sources with circuit breakers. One Gateway instance is shared by
// all request flows.
type Gateway struct {
	quotes MarketDataSource
	bonds  BondReferenceSource

	tickerCache *cache.Cache[InstrumentValidation]
	bondCache   *cache.Cache[InstrumentValidation]
	quoteCaller *resilience.Caller
	bondCaller  *resilience.Caller
	logger      *zap.Logger
}

// NewGateway wires the gateway from explicitly constructed collaborators.
func NewGateway(
	quotes MarketDataSource,
	bonds BondReferenceSource,
	tickerCache *cache.Cache[InstrumentValidation],
	bondCache *cache.Cache[InstrumentValidation],
	quoteCaller *resilience.Caller,
	bondCaller *resilience.Caller,
	logger *zap.Logger,
) *Gateway {
	return &Gateway{
		quotes:      quotes,
		bonds:       bonds,
		tickerCache: tickerCache,
		bondCache:   bondCache,
		quoteCaller: quoteCaller,
		bondCaller:  bondCaller,
		logger:      logger,
	}
}

// ValidateTicker resolves ticker against the quote source. Well-formed
// negative answers (unknown symbol, disallowed type, no price) are cached
// like positives so persistently-bad symbols do not hammer the provider;
// they are not breaker failures. Infrastructure failures degrade to stale
// cache when possible, otherwise to a transient negative result.
func (g *Gateway) ValidateTicker(ctx context.Context, ticker string) InstrumentValidation {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	key := "ticker:" + symbol

	// Capture any expired entry before Get removes it; it backs degraded
	// serving when the lookup below fails.
	stale, hasStale := g.tickerCache.GetStale(key)

	if cached, ok := g.tickerCache.Get(key); ok {
		metrics.CacheHits.WithLabelValues("ticker").Inc()
		return cached
	}
	metrics.CacheMisses.WithLabelValues("ticker").Inc()

	var quote *Quote
	err := g.quoteCaller.Do(ctx, func(ctx context.Context) error {
		q, lookupErr := g.quotes.Lookup(ctx, symbol)
		if lookupErr != nil {
			return lookupErr
		}
		quote = q
		return nil
	})

	if err != nil {
		return g.tickerFailure(symbol, stale, hasStale, err)
	}

	v := g.classifyQuote(symbol, quote)
	g.tickerCache.Set(key, v)
	if v.Valid {
		metrics.TickerValidations.WithLabelValues("valid").Inc()
	} else {
		metrics.TickerValidations.WithLabelValues("invalid").Inc()
	}
	return v
}

// classifyQuote converts a raw quote into a validation verdict. Every rule
// violation produces a descriptive, cacheable negative answer.
func (g *Gateway) classifyQuote(symbol string, q *Quote) InstrumentValidation {
	invalid := func(format string, args ...interface{}) InstrumentValidation {
		return InstrumentValidation{
			Valid:          false,
			InstrumentType: models.InstrumentEquity,
			Symbol:         symbol,
			Err:            fmt.Sprintf(format, args...),
		}
	}

	if q.Currency == "" {
		return invalid("ticker %s not found: no currency information", symbol)
	}
	if !allowedQuoteTypes[strings.ToUpper(q.QuoteType)] {
		return invalid("ticker %s has unsupported instrument type %q", symbol, q.QuoteType)
	}

	price := q.Price
	if price <= 0 {
		price = q.PreviousClose
	}
	if price <= 0 {
		return invalid("ticker %s has no usable price data", symbol)
	}

	name := q.LongName
	if name == "" {
		name = q.ShortName
	}
	if name == "" {
		return invalid("ticker %s has no company name", symbol)
	}

	if q.Exchange == "" || placeholderExchanges[strings.ToUpper(q.Exchange)] {
		return invalid("ticker %s is not listed on a recognized exchange", symbol)
	}

	return InstrumentValidation{
		Valid:          true,
		InstrumentType: models.InstrumentEquity,
		Symbol:         symbol,
		Name:           name,
		Currency:       q.Currency,
		Price:          decimal.NewFromFloat(price),
		Exchange:       q.Exchange,
	}
}

// tickerFailure handles exhausted retries: serve the stale entry captured
// before the lookup if we ever knew the symbol, otherwise answer with a
// typed transient negative. A transient negative must never read like
// "this ticker does not exist".
func (g *Gateway) tickerFailure(symbol string, stale InstrumentValidation, hasStale bool, err error) InstrumentValidation {
	if hasStale {
		g.logger.Warn("market data unavailable, serving stale validation",
			zap.String("symbol", symbol),
			zap.Error(err))
		metrics.TickerValidations.WithLabelValues("stale").Inc()
		stale.Degraded = true
		return stale
	}

	metrics.TickerValidations.WithLabelValues("error").Inc()
	g.logger.Error("ticker validation failed after retries",
		zap.String("symbol", symbol),
		zap.Error(err))

	msg := fmt.Sprintf("could not validate ticker %s due to network issues, please try again", symbol)
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		msg = fmt.Sprintf("market data service is temporarily unavailable, please try %s again shortly", symbol)
	case isTimeout(err):
		msg = fmt.Sprintf("market data lookup for %s timed out, please try again", symbol)
	}

	return InstrumentValidation{
		Valid:          false,
		InstrumentType: models.InstrumentEquity,
		Symbol:         symbol,
		Transient:      true,
		Err:            msg,
	}
}

// ValidateISIN resolves an ISIN as a bond. The 12-character format gate
// fast-fails before any cache or network step. When the reference source is
// down the result degrades to a country-derived synthetic name and currency
// rather than failing the request.
func (g *Gateway) ValidateISIN(ctx context.Context, isin string) InstrumentValidation {
	symbol := strings.ToUpper(strings.TrimSpace(isin))

	if !IsISINFormat(symbol) {
		return InstrumentValidation{
			Valid:          false,
			InstrumentType: models.InstrumentBond,
			Symbol:         symbol,
			Err:            fmt.Sprintf("invalid ISIN format: %s must be 12 characters (2-letter country code, 9 alphanumerics, 1 digit)", symbol),
		}
	}

	key := "isin:" + symbol
	if cached, ok := g.bondCache.Get(key); ok {
		metrics.CacheHits.WithLabelValues("bond").Inc()
		return cached
	}
	metrics.CacheMisses.WithLabelValues("bond").Inc()

	var info *BondInfo
	err := g.bondCaller.Do(ctx, func(ctx context.Context) error {
		bi, lookupErr := g.bonds.Lookup(ctx, symbol)
		if lookupErr != nil {
			return lookupErr
		}
		info = bi
		return nil
	})

	prefix := symbol[:2]
	v := InstrumentValidation{
		Valid:          true,
		InstrumentType: models.InstrumentBond,
		Symbol:         symbol,
		Price:          decimal.NewFromInt(1),
	}
	if err == nil && info != nil {
		v.Name = info.Name
		v.Issuer = info.Issuer
		v.Currency = info.Currency
		v.Exchange = info.Exchange
		if v.Currency == "" {
			v.Currency = CountryCurrency(prefix)
		}
	} else {
		g.logger.Warn("bond reference source unavailable, using country-derived fallback",
			zap.String("isin", symbol),
			zap.Error(err))
		v.Name = fmt.Sprintf("%s Bond %s", CountryName(prefix), symbol)
		v.Currency = CountryCurrency(prefix)
		v.Degraded = true
	}

	g.bondCache.Set(key, v)
	return v
}

// CacheStats exposes both cache snapshots for the admin status endpoint.
func (g *Gateway) CacheStats() (ticker cache.Stats, bond cache.Stats) {
	return g.tickerCache.GetStats(), g.bondCache.GetStats()
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
