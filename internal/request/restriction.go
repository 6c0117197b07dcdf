package request

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cleardesk/cleardesk/internal/audit"
	errs "github.com/cleardesk/cleardesk/pkg/errors"
	"github.com/cleardesk/cleardesk/pkg/models"
)

// RestrictionService manages the firm's restricted-securities list.
type RestrictionService struct {
	repo      RestrictionRepository
	auditSink audit.Sink
	logger    *zap.Logger
}

// NewRestrictionService creates the restricted-list service.
func NewRestrictionService(repo RestrictionRepository, auditSink audit.Sink, logger *zap.Logger) *RestrictionService {
	return &RestrictionService{repo: repo, auditSink: auditSink, logger: logger}
}

// List returns the restricted list ordered by symbol.
func (s *RestrictionService) List(ctx context.Context) ([]models.RestrictedSecurity, error) {
	entries, err := s.repo.List(ctx)
	if err != nil {
		return nil, errs.Internal(err, "failed to list restricted securities")
	}
	return entries, nil
}

// Add puts a symbol on the restricted list.
func (s *RestrictionService) Add(ctx context.Context, symbol, name, reason, adminEmail, clientIP string) (*models.RestrictedSecurity, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, errs.Validation("a symbol is required")
	}

	entry := &models.RestrictedSecurity{
		Symbol:    symbol,
		Name:      name,
		Reason:    reason,
		AddedBy:   adminEmail,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.repo.Add(ctx, entry); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errs.Conflict("%s is already on the restricted list", symbol)
		}
		return nil, errs.Internal(err, "failed to add restricted security")
	}

	s.writeAudit(ctx, adminEmail, audit.ActionRestrictionAdded, symbol, map[string]interface{}{
		"name":   name,
		"reason": reason,
	}, clientIP)
	return entry, nil
}

// Remove takes a symbol off the restricted list.
func (s *RestrictionService) Remove(ctx context.Context, symbol, adminEmail, clientIP string) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if err := s.repo.Remove(ctx, symbol); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFound("%s is not on the restricted list", symbol)
		}
		return errs.Internal(err, "failed to remove restricted security")
	}

	s.writeAudit(ctx, adminEmail, audit.ActionRestrictionRemove, symbol, nil, clientIP)
	return nil
}

func (s *RestrictionService) writeAudit(ctx context.Context, actor, action, symbol string, details map[string]interface{}, clientIP string) {
	if err := s.auditSink.LogActivity(ctx, actor, models.ActorAdmin, action, "restricted_security", symbol, details, clientIP); err != nil {
		s.logger.Error("audit write failed",
			zap.String("action", action),
			zap.String("symbol", symbol),
			zap.Error(err))
	}
}
