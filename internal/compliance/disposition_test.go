package compliance_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleardesk/cleardesk/internal/compliance"
	"github.com/cleardesk/cleardesk/pkg/models"
)

func TestRestrictedAlwaysRejects(t *testing.T) {
	asOf := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	priorTrades := []models.TradingRequest{
		{Direction: models.DirectionSell, Shares: 50, CreatedAt: asOf.AddDate(0, 0, -2)},
	}

	// Restriction wins even with a wash-trade pattern present
	d := compliance.DetermineInitialStatus(true, "TSLA", models.InstrumentEquity, models.DirectionBuy, priorTrades, asOf)
	assert.Equal(t, models.StatusRejected, d.Status)
	assert.False(t, d.AutoEscalate)
	assert.Contains(t, d.RejectionReason, "TSLA")
	assert.Contains(t, d.RejectionReason, "restricted")
	assert.Contains(t, d.RejectionReason, "escalate")
}

func TestNoHistoryApproves(t *testing.T) {
	d := compliance.DetermineInitialStatus(false, "AAPL", models.InstrumentEquity, models.DirectionBuy, nil, time.Now())
	assert.Equal(t, models.StatusApproved, d.Status)
	assert.Empty(t, d.RejectionReason)
	assert.False(t, d.AutoEscalate)
}

func TestOppositeTradesEscalate(t *testing.T) {
	asOf := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	priorTrades := []models.TradingRequest{
		{Direction: models.DirectionSell, Shares: 100, CreatedAt: asOf.AddDate(0, 0, -3)},
	}

	d := compliance.DetermineInitialStatus(false, "AAPL", models.InstrumentEquity, models.DirectionBuy, priorTrades, asOf)
	require.Equal(t, models.StatusPending, d.Status)
	assert.True(t, d.AutoEscalate)
	assert.Contains(t, d.EscalationReason, "sell")
	assert.Contains(t, d.EscalationReason, "100 shares")
	assert.Contains(t, d.EscalationReason, "3 day(s) ago")
}

func TestEscalationNamesMostRecentTrade(t *testing.T) {
	asOf := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	priorTrades := []models.TradingRequest{
		{Direction: models.DirectionSell, Shares: 10, CreatedAt: asOf.AddDate(0, 0, -20)},
		{Direction: models.DirectionSell, Shares: 75, CreatedAt: asOf.AddDate(0, 0, -1)},
		{Direction: models.DirectionSell, Shares: 30, CreatedAt: asOf.AddDate(0, 0, -9)},
	}

	d := compliance.DetermineInitialStatus(false, "MSFT", models.InstrumentEquity, models.DirectionBuy, priorTrades, asOf)
	assert.Contains(t, d.EscalationReason, "75 shares")
	assert.Contains(t, d.EscalationReason, "1 day(s) ago")
	assert.Contains(t, d.EscalationReason, "3 opposite-direction trade(s)")
}

func TestDeterminism(t *testing.T) {
	asOf := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	priorTrades := []models.TradingRequest{
		{Direction: models.DirectionBuy, Shares: 40, CreatedAt: asOf.AddDate(0, 0, -5)},
	}

	first := compliance.DetermineInitialStatus(false, "NVDA", models.InstrumentEquity, models.DirectionSell, priorTrades, asOf)
	second := compliance.DetermineInitialStatus(false, "NVDA", models.InstrumentEquity, models.DirectionSell, priorTrades, asOf)
	assert.Equal(t, first, second)
}

func TestOppositeDirection(t *testing.T) {
	assert.Equal(t, models.DirectionSell, compliance.OppositeDirection(models.DirectionBuy))
	assert.Equal(t, models.DirectionBuy, compliance.OppositeDirection(models.DirectionSell))
}
