package errors

import (
	"fmt"
	"net/http"
	"time"
)

// ProblemDetails represents an RFC 7807 compliant error response.
type ProblemDetails struct {
	// Type is a URI reference that identifies the problem type
	Type string `json:"type"`
	// Title is a short, human-readable summary of the problem type
	Title string `json:"title"`
	// Status is the HTTP status code
	Status int `json:"status"`
	// Detail is a human-readable explanation specific to this occurrence
	Detail string `json:"detail"`
	// Instance is a URI reference that identifies the specific occurrence
	Instance string `json:"instance,omitempty"`
	// Timestamp when the error occurred
	Timestamp time.Time `json:"timestamp"`
	// TraceID for request tracing and debugging
	TraceID string `json:"traceId,omitempty"`
	// Errors contains field-specific validation errors
	Errors []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents field-specific validation errors.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Standard error types with URIs
const (
	TypeValidationError   = "https://api.cleardesk.io/errors/validation-error"
	TypeUnauthorized      = "https://api.cleardesk.io/errors/unauthorized"
	TypeForbidden         = "https://api.cleardesk.io/errors/forbidden"
	TypeNotFound          = "https://api.cleardesk.io/errors/not-found"
	TypeConflict          = "https://api.cleardesk.io/errors/conflict"
	TypeUnavailable       = "https://api.cleardesk.io/errors/service-unavailable"
	TypeInternalError     = "https://api.cleardesk.io/errors/internal-error"
	TypeInvalidInstrument = "https://api.cleardesk.io/errors/invalid-instrument"
)

// Standard error titles
const (
	TitleValidationError   = "Validation Error"
	TitleUnauthorized      = "Unauthorized"
	TitleForbidden         = "Forbidden"
	TitleNotFound          = "Not Found"
	TitleConflict          = "Conflict"
	TitleUnavailable       = "Service Temporarily Unavailable"
	TitleInternalError     = "Internal Server Error"
	TitleInvalidInstrument = "Invalid Instrument"
)

// NewProblemDetails creates a new RFC 7807 compliant error
func NewProblemDetails(problemType, title string, status int, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:      problemType,
		Title:     title,
		Status:    status,
		Detail:    detail,
		Instance:  instance,
		Timestamp: time.Now().UTC(),
	}
}

// WithTraceID adds a trace ID to the problem details
func (p *ProblemDetails) WithTraceID(traceID string) *ProblemDetails {
	p.TraceID = traceID
	return p
}

// AddValidationError adds a single validation error
func (p *ProblemDetails) AddValidationError(field, message, code string) *ProblemDetails {
	if p.Errors == nil {
		p.Errors = make([]ValidationError, 0)
	}
	p.Errors = append(p.Errors, ValidationError{
		Field:   field,
		Message: message,
		Code:    code,
	})
	return p
}

// Error implements the error interface
func (p *ProblemDetails) Error() string {
	return fmt.Sprintf("[%d] %s: %s", p.Status, p.Title, p.Detail)
}

// Common error constructors

// NewValidationError creates a validation error
func NewValidationError(detail, instance string) *ProblemDetails {
	return NewProblemDetails(TypeValidationError, TitleValidationError, http.StatusBadRequest, detail, instance)
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError(detail, instance string) *ProblemDetails {
	return NewProblemDetails(TypeUnauthorized, TitleUnauthorized, http.StatusUnauthorized, detail, instance)
}

// NewForbiddenError creates a forbidden error
func NewForbiddenError(detail, instance string) *ProblemDetails {
	return NewProblemDetails(TypeForbidden, TitleForbidden, http.StatusForbidden, detail, instance)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(detail, instance string) *ProblemDetails {
	return NewProblemDetails(TypeNotFound, TitleNotFound, http.StatusNotFound, detail, instance)
}

// NewConflictError creates a state conflict error
func NewConflictError(detail, instance string) *ProblemDetails {
	return NewProblemDetails(TypeConflict, TitleConflict, http.StatusConflict, detail, instance)
}

// NewUnavailableError creates a transient dependency-failure error
func NewUnavailableError(detail, instance string) *ProblemDetails {
	return NewProblemDetails(TypeUnavailable, TitleUnavailable, http.StatusServiceUnavailable, detail, instance)
}

// NewInternalError creates an internal server error
func NewInternalError(detail, instance string) *ProblemDetails {
	return NewProblemDetails(TypeInternalError, TitleInternalError, http.StatusInternalServerError, detail, instance)
}

// NewInvalidInstrumentError creates an error for an unresolvable ticker or ISIN
func NewInvalidInstrumentError(detail, instance string) *ProblemDetails {
	return NewProblemDetails(TypeInvalidInstrument, TitleInvalidInstrument, http.StatusBadRequest, detail, instance)
}
