package request

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cleardesk/cleardesk/pkg/models"
)

// Repository is the persistence contract for trading requests.
type Repository interface {
	Create(ctx context.Context, req *models.TradingRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.TradingRequest, error)
	ListByEmployee(ctx context.Context, email string) ([]models.TradingRequest, error)
	ListAll(ctx context.Context, status string) ([]models.TradingRequest, error)
	Escalate(ctx context.Context, id uuid.UUID, reason string) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, rejectionReason *string) error
	FindRecentOppositeTrades(ctx context.Context, email, symbol, direction string, windowDays int) ([]models.TradingRequest, error)
}

// RestrictionRepository is the persistence contract for the restricted list.
type RestrictionRepository interface {
	IsRestricted(ctx context.Context, symbol string) (bool, error)
	List(ctx context.Context) ([]models.RestrictedSecurity, error)
	Add(ctx context.Context, entry *models.RestrictedSecurity) error
	Remove(ctx context.Context, symbol string) error
}

// GormRepository implements Repository over gorm.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates the trading-request repository.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, req *models.TradingRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *GormRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.TradingRequest, error) {
	var req models.TradingRequest
	if err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *GormRepository) ListByEmployee(ctx context.Context, email string) ([]models.TradingRequest, error) {
	var reqs []models.TradingRequest
	err := r.db.WithContext(ctx).
		Where("employee_email = ?", email).
		Order("created_at DESC").
		Find(&reqs).Error
	return reqs, err
}

func (r *GormRepository) ListAll(ctx context.Context, status string) ([]models.TradingRequest, error) {
	var reqs []models.TradingRequest
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Find(&reqs).Error
	return reqs, err
}

// Escalate flips the monotonic escalated flag. The WHERE clause re-checks
// the flag so a concurrent double-escalate cannot both succeed.
func (r *GormRepository) Escalate(ctx context.Context, id uuid.UUID, reason string) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&models.TradingRequest{}).
		Where("id = ? AND escalated = ?", id, false).
		Updates(map[string]interface{}{
			"escalated":         true,
			"escalation_reason": reason,
			"escalated_at":      now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, rejectionReason *string) error {
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":           status,
		"rejection_reason": rejectionReason,
		"processed_at":     now,
	}
	res := r.db.WithContext(ctx).
		Model(&models.TradingRequest{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindRecentOppositeTrades returns the employee's non-rejected trades in the
// opposite direction for the same symbol within the lookback window.
func (r *GormRepository) FindRecentOppositeTrades(ctx context.Context, email, symbol, direction string, windowDays int) ([]models.TradingRequest, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -windowDays)
	var reqs []models.TradingRequest
	err := r.db.WithContext(ctx).
		Where("employee_email = ? AND symbol = ? AND direction = ? AND status <> ? AND created_at >= ?",
			email, symbol, direction, models.StatusRejected, cutoff).
		Order("created_at DESC").
		Find(&reqs).Error
	return reqs, err
}

// GormRestrictionRepository implements RestrictionRepository over gorm.
type GormRestrictionRepository struct {
	db *gorm.DB
}

// NewGormRestrictionRepository creates the restricted-list repository.
func NewGormRestrictionRepository(db *gorm.DB) *GormRestrictionRepository {
	return &GormRestrictionRepository{db: db}
}

func (r *GormRestrictionRepository) IsRestricted(ctx context.Context, symbol string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.RestrictedSecurity{}).
		Where("symbol = ?", strings.ToUpper(symbol)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("restricted list lookup failed: %w", err)
	}
	return count > 0, nil
}

func (r *GormRestrictionRepository) List(ctx context.Context) ([]models.RestrictedSecurity, error) {
	var entries []models.RestrictedSecurity
	err := r.db.WithContext(ctx).Order("symbol ASC").Find(&entries).Error
	return entries, err
}

func (r *GormRestrictionRepository) Add(ctx context.Context, entry *models.RestrictedSecurity) error {
	entry.Symbol = strings.ToUpper(entry.Symbol)
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *GormRestrictionRepository) Remove(ctx context.Context, symbol string) error {
	res := r.db.WithContext(ctx).
		Where("symbol = ?", strings.ToUpper(symbol)).
		Delete(&models.RestrictedSecurity{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
