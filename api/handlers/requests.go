// Package handlers contains the thin gin glue over the portal services.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cleardesk/cleardesk/internal/request"
	errs "github.com/cleardesk/cleardesk/pkg/errors"
)

// RequestHandler serves the employee-facing trading-request endpoints.
type RequestHandler struct {
	svc *request.Service
}

// NewRequestHandler creates the handler.
func NewRequestHandler(svc *request.Service) *RequestHandler {
	return &RequestHandler{svc: svc}
}

// Create handles POST /api/v1/requests.
func (h *RequestHandler) Create(c *gin.Context) {
	var input request.CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}
	input.ClientIP = c.ClientIP()

	result, err := h.svc.Create(c.Request.Context(), input, employeeEmail(c))
	if err != nil {
		errs.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// escalateBody is the escalation payload.
type escalateBody struct {
	Reason string `json:"reason" binding:"required"`
}

// Escalate handles POST /api/v1/requests/:id/escalate.
func (h *RequestHandler) Escalate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		errs.HandleError(c, errs.Validation("invalid request id"))
		return
	}

	var body escalateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		errs.HandleError(c, errs.Validation("an escalation justification is required"))
		return
	}

	record, err := h.svc.Escalate(c.Request.Context(), id, body.Reason, employeeEmail(c), c.ClientIP())
	if err != nil {
		errs.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// Get handles GET /api/v1/requests/:id.
func (h *RequestHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		errs.HandleError(c, errs.Validation("invalid request id"))
		return
	}

	record, err := h.svc.Get(c.Request.Context(), id, employeeEmail(c), isAdmin(c))
	if err != nil {
		errs.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// ListOwn handles GET /api/v1/requests.
func (h *RequestHandler) ListOwn(c *gin.Context) {
	records, err := h.svc.ListOwn(c.Request.Context(), employeeEmail(c))
	if err != nil {
		errs.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": records})
}
