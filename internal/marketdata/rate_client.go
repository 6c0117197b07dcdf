package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// fallbackRates are approximate USD rates used when the provider is
// unreachable. Unknown currencies fall back to 1.0.
var fallbackRates = map[string]float64{
	"HKD": 0.128,
	"GBP": 1.27,
	"CAD": 0.74,
	"JPY": 0.0067,
	"EUR": 1.09,
}

// RateClient converts native-currency amounts to USD via an
// exchangerate-API-style endpoint.
type RateClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewRateClient creates a currency converter with a bounded timeout.
func NewRateClient(baseURL string, timeout time.Duration, logger *zap.Logger) *RateClient {
	return &RateClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type ratePayload struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// ConvertToUSD returns the USD amount and the USD/fromCurrency rate. USD
// input short-circuits with a rate of exactly 1. Provider failure degrades
// to the static fallback table rather than failing the request.
func (c *RateClient) ConvertToUSD(ctx context.Context, amount decimal.Decimal, fromCurrency string) (decimal.Decimal, decimal.Decimal, error) {
	if fromCurrency == "USD" || fromCurrency == "" {
		return amount, decimal.NewFromInt(1), nil
	}

	rate, err := c.fetchRate(ctx, fromCurrency)
	if err != nil {
		fallback, ok := fallbackRates[fromCurrency]
		if !ok {
			fallback = 1.0
		}
		c.logger.Warn("exchange rate provider unavailable, using fallback rate",
			zap.String("currency", fromCurrency),
			zap.Float64("fallback_rate", fallback),
			zap.Error(err))
		rate = decimal.NewFromFloat(fallback)
	}

	return amount.Mul(rate), rate, nil
}

func (c *RateClient) fetchRate(ctx context.Context, fromCurrency string) (decimal.Decimal, error) {
	u := fmt.Sprintf("%s/%s", c.baseURL, fromCurrency)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to build rate request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("rate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("rate provider returned status %d", resp.StatusCode)
	}

	var payload ratePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode rate response: %w", err)
	}

	usd, ok := payload.Rates["USD"]
	if !ok || usd <= 0 {
		return decimal.Zero, fmt.Errorf("rate provider has no USD rate for %s", fromCurrency)
	}
	return decimal.NewFromFloat(usd), nil
}
