// Package instrument classifies trade identifiers and routes them to the
// right market-data validation path.
package instrument

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cleardesk/cleardesk/internal/marketdata"
	"github.com/cleardesk/cleardesk/pkg/models"
)

// Resolver decides whether an identifier is a ticker or an ISIN and
// normalizes the answer into a single InstrumentValidation. This boundary
// never panics and never propagates an error: every failure becomes a
// negative validation result.
type Resolver struct {
	gateway *marketdata.Gateway
	logger  *zap.Logger
}

// NewResolver creates a resolver over the given gateway.
func NewResolver(gateway *marketdata.Gateway, logger *zap.Logger) *Resolver {
	return &Resolver{gateway: gateway, logger: logger}
}

// Resolve validates identifier as an ISIN when it has the strict
// 12-character ISIN shape, otherwise as an equity ticker.
func (r *Resolver) Resolve(ctx context.Context, identifier string) (result marketdata.InstrumentValidation) {
	normalized := strings.ToUpper(strings.TrimSpace(identifier))

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("instrument resolution panicked",
				zap.String("identifier", normalized),
				zap.Any("panic", rec))
			result = marketdata.InstrumentValidation{
				Valid:          false,
				InstrumentType: models.InstrumentEquity,
				Symbol:         normalized,
				Err:            fmt.Sprintf("could not validate %s", normalized),
			}
		}
	}()

	if normalized == "" {
		return marketdata.InstrumentValidation{
			Valid: false,
			Err:   "instrument identifier is required",
		}
	}

	if marketdata.IsISINFormat(normalized) {
		return r.gateway.ValidateISIN(ctx, normalized)
	}
	return r.gateway.ValidateTicker(ctx, normalized)
}
