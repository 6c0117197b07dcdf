// Package request orchestrates the trading-request workflow: instrument
// resolution, restriction and wash-trade checks, valuation, automatic
// disposition, persistence and audit.
package request

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cleardesk/cleardesk/internal/audit"
	"github.com/cleardesk/cleardesk/internal/compliance"
	"github.com/cleardesk/cleardesk/internal/instrument"
	"github.com/cleardesk/cleardesk/internal/marketdata"
	errs "github.com/cleardesk/cleardesk/pkg/errors"
	"github.com/cleardesk/cleardesk/pkg/metrics"
	"github.com/cleardesk/cleardesk/pkg/models"
)

// CreateInput is the employee-supplied portion of a trading request.
type CreateInput struct {
	Identifier string `json:"identifier" binding:"required"`
	Direction  string `json:"direction" binding:"required,oneof=buy sell"`
	Shares     int64  `json:"shares" binding:"required,gt=0"`
	ClientIP   string `json:"-"`
}

// CreateResult is the persisted record plus the adjudication metadata the
// portal displays to the employee.
type CreateResult struct {
	Request    *models.TradingRequest          `json:"request"`
	Validation marketdata.InstrumentValidation `json:"validation"`
	Valuation  compliance.USDValuation         `json:"valuation"`
	Escalated  bool                            `json:"escalated"`
}

// Service implements the trading-request workflow over injected
// collaborators. All external-dependency failures inside Create degrade to
// safe defaults instead of blocking submission; those compromises are
// logged prominently.
type Service struct {
	repo           Repository
	restrictions   RestrictionRepository
	resolver       *instrument.Resolver
	valuation      *compliance.ValuationEngine
	auditSink      audit.Sink
	washWindowDays int
	logger         *zap.Logger
}

// NewService creates the trading-request service.
func NewService(
	repo Repository,
	restrictions RestrictionRepository,
	resolver *instrument.Resolver,
	valuation *compliance.ValuationEngine,
	auditSink audit.Sink,
	washWindowDays int,
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:           repo,
		restrictions:   restrictions,
		resolver:       resolver,
		valuation:      valuation,
		auditSink:      auditSink,
		washWindowDays: washWindowDays,
		logger:         logger,
	}
}

// Create runs the full adjudication pipeline and persists the outcome.
func (s *Service) Create(ctx context.Context, input CreateInput, employeeEmail string) (*CreateResult, error) {
	if input.Direction != models.DirectionBuy && input.Direction != models.DirectionSell {
		return nil, errs.Validation("direction must be %q or %q", models.DirectionBuy, models.DirectionSell)
	}
	if input.Shares <= 0 {
		return nil, errs.Validation("number of shares must be positive")
	}

	// 1. Resolve the instrument
	validation := s.resolver.Resolve(ctx, input.Identifier)
	if !validation.Valid {
		if validation.Transient {
			return nil, errs.Unavailable("%s", validation.Err)
		}
		return nil, errs.InvalidInstrument("%s", validation.Err)
	}

	// 2. Restriction check fails open: a broken restricted-list lookup must
	// not block all submissions. The compromise is logged loudly.
	restricted, err := s.restrictions.IsRestricted(ctx, validation.Symbol)
	if err != nil {
		s.logger.Error("restriction check failed, defaulting to NOT restricted",
			zap.String("symbol", validation.Symbol),
			zap.String("employee", employeeEmail),
			zap.Error(err))
		restricted = false
	}

	// 3. Valuation and USD normalization
	valuation := compliance.ComputeValuation(validation, input.Shares)
	usd := s.valuation.ConvertToUSD(ctx, valuation)

	// 4. Recent opposite-direction trades; failure degrades to none
	opposite := compliance.OppositeDirection(input.Direction)
	recent, err := s.repo.FindRecentOppositeTrades(ctx, employeeEmail, validation.Symbol, opposite, s.washWindowDays)
	if err != nil {
		s.logger.Error("trade history lookup failed, treating as no prior trades",
			zap.String("symbol", validation.Symbol),
			zap.String("employee", employeeEmail),
			zap.Error(err))
		recent = nil
	}

	// 5. Disposition
	now := time.Now().UTC()
	disposition := compliance.DetermineInitialStatus(
		restricted, validation.Symbol, validation.InstrumentType, input.Direction, recent, now)

	// 6. Persist
	record := &models.TradingRequest{
		ID:             uuid.New(),
		EmployeeEmail:  employeeEmail,
		Symbol:         validation.Symbol,
		InstrumentName: usd.InstrumentName,
		InstrumentType: validation.InstrumentType,
		Direction:      input.Direction,
		Shares:         input.Shares,
		UnitPrice:      usd.SharePrice,
		TotalValue:     usd.TotalValue,
		Currency:       usd.Currency,
		UnitPriceUSD:   usd.UnitPriceUSD,
		TotalValueUSD:  usd.TotalValueUSD,
		ExchangeRate:   usd.ExchangeRate,
		Status:         disposition.Status,
		CreatedAt:      now,
	}
	if disposition.Status == models.StatusRejected {
		record.RejectionReason = &disposition.RejectionReason
	}
	if disposition.Status != models.StatusPending {
		processedAt := now
		record.ProcessedAt = &processedAt
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, errs.Internal(err, "failed to save trading request")
	}

	// 7. Auto-escalate the just-created record when a pattern was flagged
	escalated := false
	if disposition.AutoEscalate {
		if err := s.repo.Escalate(ctx, record.ID, disposition.EscalationReason); err != nil {
			s.logger.Error("auto-escalation failed, request remains pending unescalated",
				zap.String("request_id", record.ID.String()),
				zap.Error(err))
		} else {
			escalated = true
			record.Escalated = true
			record.EscalationReason = &disposition.EscalationReason
			escalatedAt := now
			record.EscalatedAt = &escalatedAt
		}
	}

	// 8. Audit; failure never rolls back the trade record
	action := audit.ActionRequestApproved
	switch {
	case escalated:
		action = audit.ActionRequestEscalated
	case disposition.Status == models.StatusRejected:
		action = audit.ActionRequestRejected
	case disposition.Status == models.StatusPending:
		action = audit.ActionRequestCreated
	}
	s.writeAudit(ctx, employeeEmail, models.ActorEmployee, action, record.ID.String(), map[string]interface{}{
		"symbol":          record.Symbol,
		"direction":       record.Direction,
		"shares":          record.Shares,
		"total_value_usd": record.TotalValueUSD.String(),
		"status":          record.Status,
	}, input.ClientIP)

	metrics.RequestsCreated.WithLabelValues(record.Status).Inc()

	return &CreateResult{
		Request:    record,
		Validation: validation,
		Valuation:  usd,
		Escalated:  escalated,
	}, nil
}

// Escalate performs the one-time employee escalation of an owned request.
func (s *Service) Escalate(ctx context.Context, id uuid.UUID, reason, employeeEmail, clientIP string) (*models.TradingRequest, error) {
	if reason == "" {
		return nil, errs.Validation("an escalation justification is required")
	}

	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("trading request %s not found", id)
		}
		return nil, errs.Internal(err, "failed to load trading request")
	}

	if record.EmployeeEmail != employeeEmail {
		return nil, errs.Forbidden("trading request %s does not belong to you", id)
	}
	if record.Status != models.StatusPending && record.Status != models.StatusRejected {
		return nil, errs.Conflict("only pending or rejected requests can be escalated, request is %s", record.Status)
	}
	if record.Escalated {
		return nil, errs.Conflict("trading request %s has already been escalated", id)
	}

	if err := s.repo.Escalate(ctx, id, reason); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Lost the race with another escalation
			return nil, errs.Conflict("trading request %s has already been escalated", id)
		}
		return nil, errs.Internal(err, "failed to escalate trading request")
	}

	s.writeAudit(ctx, employeeEmail, models.ActorEmployee, audit.ActionRequestEscalated, id.String(), map[string]interface{}{
		"reason": reason,
	}, clientIP)
	metrics.Escalations.Inc()

	return s.repo.GetByID(ctx, id)
}

// UpdateStatus is the admin review of a pending request.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status, reason, adminEmail, clientIP string) (*models.TradingRequest, error) {
	if status != models.StatusApproved && status != models.StatusRejected {
		return nil, errs.Validation("status must be %q or %q", models.StatusApproved, models.StatusRejected)
	}
	if status == models.StatusRejected && reason == "" {
		return nil, errs.Validation("a rejection reason is required")
	}

	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("trading request %s not found", id)
		}
		return nil, errs.Internal(err, "failed to load trading request")
	}
	if record.Status != models.StatusPending {
		return nil, errs.Conflict("only pending requests can be reviewed, request is %s", record.Status)
	}

	var rejectionReason *string
	if status == models.StatusRejected {
		rejectionReason = &reason
	}
	if err := s.repo.UpdateStatus(ctx, id, status, rejectionReason); err != nil {
		return nil, errs.Internal(err, "failed to update trading request status")
	}

	s.writeAudit(ctx, adminEmail, models.ActorAdmin, audit.ActionStatusUpdated, id.String(), map[string]interface{}{
		"status": status,
		"reason": reason,
	}, clientIP)

	return s.repo.GetByID(ctx, id)
}

// Get returns a request the employee owns (admins bypass the ownership check).
func (s *Service) Get(ctx context.Context, id uuid.UUID, employeeEmail string, isAdmin bool) (*models.TradingRequest, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("trading request %s not found", id)
		}
		return nil, errs.Internal(err, "failed to load trading request")
	}
	if !isAdmin && record.EmployeeEmail != employeeEmail {
		return nil, errs.Forbidden("trading request %s does not belong to you", id)
	}
	return record, nil
}

// ListOwn returns the employee's requests, newest first.
func (s *Service) ListOwn(ctx context.Context, employeeEmail string) ([]models.TradingRequest, error) {
	reqs, err := s.repo.ListByEmployee(ctx, employeeEmail)
	if err != nil {
		return nil, errs.Internal(err, "failed to list trading requests")
	}
	return reqs, nil
}

// ListAll returns all requests, optionally filtered by status. Admin only.
func (s *Service) ListAll(ctx context.Context, status string) ([]models.TradingRequest, error) {
	if status != "" && status != models.StatusPending && status != models.StatusApproved && status != models.StatusRejected {
		return nil, errs.Validation("unknown status filter %q", status)
	}
	reqs, err := s.repo.ListAll(ctx, status)
	if err != nil {
		return nil, errs.Internal(err, "failed to list trading requests")
	}
	return reqs, nil
}

func (s *Service) writeAudit(ctx context.Context, actor, actorType, action, entityID string, details map[string]interface{}, clientIP string) {
	if err := s.auditSink.LogActivity(ctx, actor, actorType, action, "trading_request", entityID, details, clientIP); err != nil {
		s.logger.Error("audit write failed",
			zap.String("action", action),
			zap.String("entity_id", entityID),
			zap.Error(err))
	}
}
