package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// QuoteClient fetches quotes from a Yahoo-style quote endpoint.
type QuoteClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewQuoteClient creates a quote client with a bounded request timeout.
func NewQuoteClient(baseURL string, timeout time.Duration, logger *zap.Logger) *QuoteClient {
	return &QuoteClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// quotePayload mirrors the provider's loosely-typed response. Pointer fields
// distinguish "absent" from zero before the payload is converted to a Quote.
type quotePayload struct {
	QuoteResponse struct {
		Result []struct {
			Symbol                     string   `json:"symbol"`
			Currency                   string   `json:"currency"`
			QuoteType                  string   `json:"quoteType"`
			FullExchangeName           string   `json:"fullExchangeName"`
			Exchange                   string   `json:"exchange"`
			LongName                   string   `json:"longName"`
			ShortName                  string   `json:"shortName"`
			RegularMarketPrice         *float64 `json:"regularMarketPrice"`
			RegularMarketPreviousClose *float64 `json:"regularMarketPreviousClose"`
			Ask                        *float64 `json:"ask"`
			Bid                        *float64 `json:"bid"`
		} `json:"result"`
		Error json.RawMessage `json:"error"`
	} `json:"quoteResponse"`
}

// Lookup fetches the quote for symbol. A well-formed "no such symbol"
// answer returns a Quote with empty fields, not an error; errors indicate
// infrastructure failure.
func (c *QuoteClient) Lookup(ctx context.Context, symbol string) (*Quote, error) {
	u := fmt.Sprintf("%s?symbols=%s", c.baseURL, url.QueryEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build quote request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quote request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote provider returned status %d", resp.StatusCode)
	}

	var payload quotePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode quote response: %w", err)
	}

	if len(payload.QuoteResponse.Result) == 0 {
		// Provider answered but knows nothing about the symbol
		return &Quote{Symbol: symbol}, nil
	}

	r := payload.QuoteResponse.Result[0]
	q := &Quote{
		Symbol:    r.Symbol,
		Currency:  r.Currency,
		QuoteType: r.QuoteType,
		LongName:  r.LongName,
		ShortName: r.ShortName,
	}
	if q.Symbol == "" {
		q.Symbol = symbol
	}
	q.Exchange = r.FullExchangeName
	if q.Exchange == "" {
		q.Exchange = r.Exchange
	}

	// Price fallback chain: live price, then ask/bid, then previous close
	switch {
	case r.RegularMarketPrice != nil && *r.RegularMarketPrice > 0:
		q.Price = *r.RegularMarketPrice
	case r.Ask != nil && *r.Ask > 0:
		q.Price = *r.Ask
	case r.Bid != nil && *r.Bid > 0:
		q.Price = *r.Bid
	}
	if r.RegularMarketPreviousClose != nil {
		q.PreviousClose = *r.RegularMarketPreviousClose
	}
	return q, nil
}
