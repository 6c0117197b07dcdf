package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// BondClient fetches bond reference data from an OpenFIGI-style directory.
type BondClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewBondClient creates a bond reference client with a bounded timeout.
func NewBondClient(baseURL string, timeout time.Duration, logger *zap.Logger) *BondClient {
	return &BondClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type bondPayload struct {
	ISIN     string `json:"isin"`
	Name     string `json:"name"`
	Issuer   string `json:"issuer"`
	Currency string `json:"currency"`
	Exchange string `json:"exchange"`
}

// Lookup fetches reference data for isin. Any failure, including a missing
// record, maps to ErrBondUnavailable so callers fall back to synthetic data.
func (c *BondClient) Lookup(ctx context.Context, isin string) (*BondInfo, error) {
	if c.baseURL == "" {
		return nil, ErrBondUnavailable
	}

	u := fmt.Sprintf("%s/%s", c.baseURL, isin)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build bond request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("bond reference request failed", zap.String("isin", isin), zap.Error(err))
		return nil, ErrBondUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrBondUnavailable
	}

	var payload bondPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, ErrBondUnavailable
	}
	if payload.Name == "" {
		return nil, ErrBondUnavailable
	}

	return &BondInfo{
		ISIN:     isin,
		Name:     payload.Name,
		Issuer:   payload.Issuer,
		Currency: payload.Currency,
		Exchange: payload.Exchange,
	}, nil
}
