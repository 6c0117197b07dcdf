package compliance

import (
	"fmt"
	"time"

	"github.com/cleardesk/cleardesk/pkg/models"
)

// Disposition is the automatic classification assigned to a new trading
// request.
type Disposition struct {
	Status           string
	RejectionReason  string
	AutoEscalate     bool
	EscalationReason string
}

// OppositeDirection returns the opposite trade direction.
func OppositeDirection(direction string) string {
	if direction == models.DirectionBuy {
		return models.DirectionSell
	}
	return models.DirectionBuy
}

// DetermineInitialStatus assigns the initial status of a trading request.
// Restriction takes precedence and skips the wash-trade check; otherwise
// any recent opposite-direction trade escalates the request for review;
// otherwise the request is approved. The function is pure: the clock
// reference is the explicit asOf parameter, so identical inputs always
// yield identical output.
func DetermineInitialStatus(
	isRestricted bool,
	symbol string,
	instrumentType string,
	direction string,
	recentOpposite []models.TradingRequest,
	asOf time.Time,
) Disposition {
	if isRestricted {
		return Disposition{
			Status: models.StatusRejected,
			RejectionReason: fmt.Sprintf(
				"%s (%s) is on the firm's restricted list and this request was automatically rejected; you may escalate it with a written justification for compliance review",
				symbol, instrumentType),
		}
	}

	if len(recentOpposite) > 0 {
		latest := recentOpposite[0]
		for _, t := range recentOpposite[1:] {
			if t.CreatedAt.After(latest.CreatedAt) {
				latest = t
			}
		}
		daysAgo := int(asOf.Sub(latest.CreatedAt).Hours() / 24)
		return Disposition{
			Status:       models.StatusPending,
			AutoEscalate: true,
			EscalationReason: fmt.Sprintf(
				"short-term trading pattern detected: %s of %d shares of %s %d day(s) ago; %d opposite-direction trade(s) in the lookback window",
				latest.Direction, latest.Shares, symbol, daysAgo, len(recentOpposite)),
		}
	}

	return Disposition{Status: models.StatusApproved}
}
