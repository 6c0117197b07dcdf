package errors

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
)

// Kind classifies a service error so the HTTP boundary can map it to the
// right RFC 7807 problem type without inspecting message text.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindInvalidInstrument Kind = "invalid_instrument"
	KindUnauthorized      Kind = "unauthorized"
	KindForbidden         Kind = "forbidden"
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
	KindUnavailable       Kind = "unavailable"
	KindInternal          Kind = "internal"
)

// ServiceError is the typed error returned by service-layer operations.
type ServiceError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Validation creates a client-caused validation error.
func Validation(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// InvalidInstrument creates an error for a ticker or ISIN that does not
// resolve to a tradeable instrument.
func InvalidInstrument(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: KindInvalidInstrument, Message: fmt.Sprintf(format, args...)}
}

// Unauthorized creates an authentication error.
func Unauthorized(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

// Forbidden creates an authorization error.
func Forbidden(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a missing-resource error.
func NotFound(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict creates a state-conflict error.
func Conflict(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Unavailable creates a transient dependency-failure error.
func Unavailable(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: KindUnavailable, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps an unexpected error; the cause is logged, never sent to clients.
func Internal(err error, format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: KindInternal, Message: fmt.Sprintf(format, args...), Err: err}
}

// IsKind reports whether err is a ServiceError of the given kind.
func IsKind(err error, kind Kind) bool {
	var se *ServiceError
	return errors.As(err, &se) && se.Kind == kind
}

// HandleError converts any error into an RFC 7807 response. Unexpected
// errors are masked as generic internal errors.
func HandleError(c *gin.Context, err error) {
	instance := c.Request.URL.Path

	var pd *ProblemDetails
	var se *ServiceError
	switch {
	case errors.As(err, &pd):
		// Already RFC 7807 compliant
	case errors.As(err, &se):
		pd = se.toProblemDetails(instance)
	default:
		pd = NewInternalError("an unexpected error occurred", instance)
	}

	if traceID := c.GetHeader("X-Trace-ID"); traceID != "" {
		pd.WithTraceID(traceID)
	}

	c.Header("Content-Type", "application/problem+json")
	c.AbortWithStatusJSON(pd.Status, pd)
}

func (e *ServiceError) toProblemDetails(instance string) *ProblemDetails {
	switch e.Kind {
	case KindValidation:
		return NewValidationError(e.Message, instance)
	case KindInvalidInstrument:
		return NewInvalidInstrumentError(e.Message, instance)
	case KindUnauthorized:
		return NewUnauthorizedError(e.Message, instance)
	case KindForbidden:
		return NewForbiddenError(e.Message, instance)
	case KindNotFound:
		return NewNotFoundError(e.Message, instance)
	case KindConflict:
		return NewConflictError(e.Message, instance)
	case KindUnavailable:
		return NewUnavailableError(e.Message, instance)
	default:
		return NewInternalError("an unexpected error occurred", instance)
	}
}
