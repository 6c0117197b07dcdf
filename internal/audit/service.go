// Package audit records portal activity to an append-only log. Audit
// failures are reported to the caller but must never fail the primary
// operation they describe.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cleardesk/cleardesk/pkg/models"
)

// Actions recorded by the portal
const (
	ActionRequestCreated    = "trading_request.created"
	ActionRequestApproved   = "trading_request.approved"
	ActionRequestRejected   = "trading_request.rejected"
	ActionRequestEscalated  = "trading_request.escalated"
	ActionStatusUpdated     = "trading_request.status_updated"
	ActionRestrictionAdded  = "restricted_security.added"
	ActionRestrictionRemove = "restricted_security.removed"
)

// Sink is the audit collaborator consumed by the services.
type Sink interface {
	LogActivity(ctx context.Context, actor, actorType, action, entityType, entityID string, details map[string]interface{}, clientIP string) error
}

// Service persists activity records through gorm.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService creates the audit service.
func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// LogActivity appends one activity record. Details are serialized to JSON;
// serialization failures degrade to an empty details field rather than
// dropping the record.
func (s *Service) LogActivity(ctx context.Context, actor, actorType, action, entityType, entityID string, details map[string]interface{}, clientIP string) error {
	var detailsJSON string
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			s.logger.Warn("failed to serialize audit details",
				zap.String("action", action),
				zap.Error(err))
		} else {
			detailsJSON = string(b)
		}
	}

	entry := models.ActivityLog{
		Actor:      actor,
		ActorType:  actorType,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    detailsJSON,
		ClientIP:   clientIP,
		CreatedAt:  time.Now().UTC(),
	}
	return s.db.WithContext(ctx).Create(&entry).Error
}

// Recent returns the latest audit entries for the admin view.
func (s *Service) Recent(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var entries []models.ActivityLog
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
