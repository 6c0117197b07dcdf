// Package compliance holds the pure decision logic of the portal: trade
// valuation, wash-trade detection and the initial disposition of a request.
package compliance

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cleardesk/cleardesk/internal/marketdata"
	"github.com/cleardesk/cleardesk/pkg/models"
)

// fallbackEquityPrice is the documented default unit price when the quote
// source validated a ticker but returned no usable price.
var fallbackEquityPrice = decimal.NewFromInt(100)

// Valuation is the native-currency view of a proposed trade.
type Valuation struct {
	InstrumentType string          `json:"instrument_type"`
	Symbol         string          `json:"symbol"`
	InstrumentName string          `json:"instrument_name"`
	Currency       string          `json:"currency"`
	Shares         int64           `json:"shares"`
	SharePrice     decimal.Decimal `json:"share_price"`
	TotalValue     decimal.Decimal `json:"total_value"`
}

// USDValuation extends Valuation with USD-normalized amounts and display
// metadata.
type USDValuation struct {
	Valuation
	UnitPriceUSD  decimal.Decimal `json:"unit_price_usd"`
	TotalValueUSD decimal.Decimal `json:"total_value_usd"`
	// ExchangeRate is the multiplier from native currency to USD; exactly 1
	// when the instrument trades in USD.
	ExchangeRate decimal.Decimal `json:"exchange_rate"`

	FormattedTotal    string `json:"formatted_total"`
	FormattedTotalUSD string `json:"formatted_total_usd"`

	// ExceedsMax and MaxSharesAllowed are display warnings against the
	// configured single-trade cap; they do not change the disposition.
	ExceedsMax       bool  `json:"exceeds_max,omitempty"`
	MaxSharesAllowed int64 `json:"max_shares_allowed,omitempty"`
}

// ComputeValuation derives share price, total notional and display name for
// a validated instrument. Bonds price at face value 1.0; equities use the
// reference price or the documented fallback, never zero or negative.
func ComputeValuation(v marketdata.InstrumentValidation, shares int64) Valuation {
	sharesDec := decimal.NewFromInt(shares)

	price := v.Price
	if v.InstrumentType == models.InstrumentBond {
		price = decimal.NewFromInt(1)
	} else if price.LessThanOrEqual(decimal.Zero) {
		price = fallbackEquityPrice
	}

	name := v.Name
	if name == "" {
		name = fmt.Sprintf("%s %s", v.InstrumentType, v.Symbol)
	}

	currency := v.Currency
	if currency == "" {
		currency = "USD"
	}

	return Valuation{
		InstrumentType: v.InstrumentType,
		Symbol:         v.Symbol,
		InstrumentName: name,
		Currency:       currency,
		Shares:         shares,
		SharePrice:     price,
		TotalValue:     price.Mul(sharesDec),
	}
}

// ValuationEngine converts native valuations to USD through the currency
// collaborator and applies the optional single-trade cap.
type ValuationEngine struct {
	converter   marketdata.CurrencyConverter
	maxTradeUSD decimal.Decimal
	logger      *zap.Logger
}

// NewValuationEngine creates the engine. maxTradeUSD of zero disables the
// cap warning.
func NewValuationEngine(converter marketdata.CurrencyConverter, maxTradeUSD decimal.Decimal, logger *zap.Logger) *ValuationEngine {
	return &ValuationEngine{converter: converter, maxTradeUSD: maxTradeUSD, logger: logger}
}

// ConvertToUSD normalizes val to USD. The conversion collaborator is called
// at most once, on the unit price; the USD total is derived from it.
func (e *ValuationEngine) ConvertToUSD(ctx context.Context, val Valuation) USDValuation {
	result := USDValuation{Valuation: val}

	if val.Currency == "USD" {
		result.UnitPriceUSD = val.SharePrice
		result.TotalValueUSD = val.TotalValue
		result.ExchangeRate = decimal.NewFromInt(1)
	} else {
		priceUSD, rate, err := e.converter.ConvertToUSD(ctx, val.SharePrice, val.Currency)
		if err != nil {
			// Converter degrades internally; reaching here means even the
			// fallback path failed. Record the trade at parity and log.
			e.logger.Error("currency conversion failed, storing native amounts as USD",
				zap.String("currency", val.Currency),
				zap.Error(err))
			priceUSD = val.SharePrice
			rate = decimal.NewFromInt(1)
		}
		result.UnitPriceUSD = priceUSD
		result.ExchangeRate = rate
		result.TotalValueUSD = priceUSD.Mul(decimal.NewFromInt(val.Shares))
	}

	result.FormattedTotal = fmt.Sprintf("%s %s", result.TotalValue.StringFixed(2), val.Currency)
	result.FormattedTotalUSD = fmt.Sprintf("$%s", result.TotalValueUSD.StringFixed(2))

	if e.maxTradeUSD.IsPositive() && result.TotalValueUSD.GreaterThan(e.maxTradeUSD) {
		result.ExceedsMax = true
		if result.UnitPriceUSD.IsPositive() {
			result.MaxSharesAllowed = e.maxTradeUSD.Div(result.UnitPriceUSD).IntPart()
		}
	}
	return result
}
