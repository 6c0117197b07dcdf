package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cleardesk/cleardesk/internal/audit"
	"github.com/cleardesk/cleardesk/internal/marketdata"
	"github.com/cleardesk/cleardesk/internal/request"
	"github.com/cleardesk/cleardesk/internal/resilience"
	errs "github.com/cleardesk/cleardesk/pkg/errors"
)

// AdminHandler serves the compliance-administrator endpoints.
type AdminHandler struct {
	requests     *request.Service
	restrictions *request.RestrictionService
	auditSvc     *audit.Service
	gateway      *marketdata.Gateway
	breakers     []*resilience.CircuitBreaker
}

// NewAdminHandler creates the handler.
func NewAdminHandler(
	requests *request.Service,
	restrictions *request.RestrictionService,
	auditSvc *audit.Service,
	gateway *marketdata.Gateway,
	breakers []*resilience.CircuitBreaker,
) *AdminHandler {
	return &AdminHandler{
		requests:     requests,
		restrictions: restrictions,
		auditSvc:     auditSvc,
		gateway:      gateway,
		breakers:     breakers,
	}
}

// ListRequests handles GET /api/v1/admin/requests?status=pending.
func (h *AdminHandler) ListRequests(c *gin.Context) {
	records, err := h.requests.ListAll(c.Request.Context(), c.Query("status"))
	if err != nil {
		errs.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": records})
}

// statusBody is the manual-review payload.
type statusBody struct {
	Status string `json:"status" binding:"required,oneof=approved rejected"`
	Reason string `json:"reason"`
}

// UpdateStatus handles PUT /api/v1/admin/requests/:id/status.
func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		errs.HandleError(c, errs.Validation("invalid request id"))
		return
	}

	var body statusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}

	record, err := h.requests.UpdateStatus(c.Request.Context(), id, body.Status, body.Reason, employeeEmail(c), c.ClientIP())
	if err != nil {
		errs.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// ListRestricted handles GET /api/v1/admin/restricted.
func (h *AdminHandler) ListRestricted(c *gin.Context) {
	entries, err := h.restrictions.List(c.Request.Context())
	if err != nil {
		errs.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restricted": entries})
}

// restrictedBody is the restricted-list entry payload.
type restrictedBody struct {
	Symbol string `json:"symbol" binding:"required"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// AddRestricted handles POST /api/v1/admin/restricted.
func (h *AdminHandler) AddRestricted(c *gin.Context) {
	var body restrictedBody
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}

	entry, err := h.restrictions.Add(c.Request.Context(), body.Symbol, body.Name, body.Reason, employeeEmail(c), c.ClientIP())
	if err != nil {
		errs.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// RemoveRestricted handles DELETE /api/v1/admin/restricted/:symbol.
func (h *AdminHandler) RemoveRestricted(c *gin.Context) {
	if err := h.restrictions.Remove(c.Request.Context(), c.Param("symbol"), employeeEmail(c), c.ClientIP()); err != nil {
		errs.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RecentActivity handles GET /api/v1/admin/activity?limit=100.
func (h *AdminHandler) RecentActivity(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	entries, err := h.auditSvc.Recent(c.Request.Context(), limit)
	if err != nil {
		errs.HandleError(c, errs.Internal(err, "failed to load activity log"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"activity": entries})
}

// SystemStatus handles GET /api/v1/admin/status: cache and breaker health.
func (h *AdminHandler) SystemStatus(c *gin.Context) {
	tickerStats, bondStats := h.gateway.CacheStats()
	breakers := make([]resilience.BreakerStats, 0, len(h.breakers))
	for _, b := range h.breakers {
		breakers = append(breakers, b.Stats())
	}
	c.JSON(http.StatusOK, gin.H{
		"ticker_cache": tickerStats,
		"bond_cache":   bondStats,
		"breakers":     breakers,
	})
}
