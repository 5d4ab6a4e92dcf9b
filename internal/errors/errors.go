package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gin-gonic/gin"
)

// ErrorCategory defines the type of error for proper handling
type ErrorCategory string

const (
	CategoryInvalidParameter ErrorCategory = "invalid_parameter"
	CategoryStoreUnavailable ErrorCategory = "store_unavailable"
	CategorySchemaMismatch   ErrorCategory = "schema_mismatch"
	CategoryInternal         ErrorCategory = "internal"
)

// AppError wraps errbuilder error with additional context
type AppError struct {
	*errbuilder.ErrBuilder
	Category   ErrorCategory `json:"category"`
	HTTPStatus int           `json:"http_status"`
	Timestamp  time.Time     `json:"timestamp"`
	RequestID  string        `json:"request_id,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	codeStr := "INTERNAL_ERROR"
	switch e.Category {
	case CategoryInvalidParameter:
		codeStr = "INVALID_PARAMETER"
	case CategoryStoreUnavailable:
		codeStr = "STORE_UNAVAILABLE"
	case CategorySchemaMismatch:
		codeStr = "SCHEMA_MISMATCH"
	}

	return fmt.Sprintf("[%s] %s", codeStr, e.ErrBuilder.Msg)
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.ErrBuilder.Unwrap()
}

// NewAppError creates an AppError from errbuilder with additional context
func NewAppError(builder *errbuilder.ErrBuilder, category ErrorCategory, httpStatus int) *AppError {
	return &AppError{
		ErrBuilder: builder,
		Category:   category,
		HTTPStatus: httpStatus,
		Timestamp:  time.Now(),
	}
}

// NewInvalidParameter creates an error for a filter value outside the known
// domain. The parameter name and the offending value are carried in the
// error details so the caller can point at the field.
func NewInvalidParameter(param string, value interface{}) *AppError {
	errorMap := errbuilder.ErrorMap{}
	errorMap.Set(param, fmt.Errorf("%v", value))

	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("invalid value for parameter %q", param)).
		WithDetails(errbuilder.NewErrDetails(errorMap))

	return NewAppError(builder, CategoryInvalidParameter, http.StatusBadRequest)
}

// NewInvalidParameterMsg creates an InvalidParameter error with a free-form
// message (malformed date ranges and the like).
func NewInvalidParameterMsg(message string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(message)

	return NewAppError(builder, CategoryInvalidParameter, http.StatusBadRequest)
}

// NewStoreUnavailable creates an error for an unreachable or timed-out store
func NewStoreUnavailable(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeUnavailable).
		WithMsg(message)

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryStoreUnavailable, http.StatusServiceUnavailable)
}

// NewSchemaMismatch creates an error for an absent table or column. The
// table/column context is kept in the details for operator diagnosis.
func NewSchemaMismatch(table, column string, cause error) *AppError {
	errorMap := errbuilder.ErrorMap{}
	errorMap.Set("table", errors.New(table))
	if column != "" {
		errorMap.Set("column", errors.New(column))
	}

	msg := fmt.Sprintf("store schema missing table %q", table)
	if column != "" {
		msg = fmt.Sprintf("store schema missing column %q in table %q", column, table)
	}

	builder := errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(msg).
		WithDetails(errbuilder.NewErrDetails(errorMap))

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategorySchemaMismatch, http.StatusInternalServerError)
}

// NewInternalError creates an internal error
func NewInternalError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(message)

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryInternal, http.StatusInternalServerError)
}

// ToAppError converts any error to an AppError
func ToAppError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	if ebErr, ok := err.(*errbuilder.ErrBuilder); ok {
		return NewAppError(ebErr, CategoryInternal, http.StatusInternalServerError)
	}

	// Timeouts and cancellation surface as store unavailability: the query
	// did not complete against the store
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewStoreUnavailable("store query timed out", err)
	}

	errMsg := err.Error()

	// sqlite reports missing structures as "no such table"/"no such column"
	if strings.Contains(errMsg, "no such table") || strings.Contains(errMsg, "no such column") {
		return NewSchemaMismatch(extractMissingObject(errMsg), "", err)
	}

	if strings.Contains(errMsg, "database is locked") ||
		strings.Contains(errMsg, "unable to open database") ||
		strings.Contains(errMsg, "connection refused") {
		return NewStoreUnavailable("store unreachable", err)
	}

	return NewInternalError("an unexpected error occurred", err)
}

// extractMissingObject pulls the object name out of a sqlite
// "no such table: x" / "no such column: x" message
func extractMissingObject(msg string) string {
	idx := strings.LastIndex(msg, ": ")
	if idx < 0 || idx+2 >= len(msg) {
		return "unknown"
	}
	return strings.TrimSpace(msg[idx+2:])
}

// IsCategory reports whether err carries the given category
func IsCategory(err error, category ErrorCategory) bool {
	appErr := ToAppError(err)
	return appErr != nil && appErr.Category == category
}

// ErrorHandler is a Gin middleware that provides centralized error handling
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last().Err

			appErr := ToAppError(err)
			appErr.RequestID = c.GetHeader("X-Request-ID")

			LogError(c, appErr)

			c.JSON(appErr.HTTPStatus, gin.H{
				"error":    appErr.Error(),
				"category": appErr.Category,
			})
			return
		}
	}
}

// LogError logs an error with appropriate level and context
func LogError(c *gin.Context, err *AppError) {
	logEntry := slog.With(
		"error_category", err.Category,
		"error_code", err.ErrBuilder.ErrCode(),
		"http_status", err.HTTPStatus,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"request_id", err.RequestID,
	)

	switch err.Category {
	case CategoryInvalidParameter:
		logEntry.Warn(err.ErrBuilder.Msg)
	case CategoryStoreUnavailable:
		if cause := err.ErrBuilder.Unwrap(); cause != nil {
			logEntry.Info(err.ErrBuilder.Msg, "cause", cause)
		} else {
			logEntry.Info(err.ErrBuilder.Msg)
		}
	default:
		if cause := err.ErrBuilder.Unwrap(); cause != nil {
			logEntry.Error(err.ErrBuilder.Msg, "cause", cause)
		} else {
			logEntry.Error(err.ErrBuilder.Msg)
		}
	}
}

// WrapError wraps an error with additional context
func WrapError(err error, message string, args ...interface{}) error {
	if err == nil {
		return nil
	}

	contextMsg := fmt.Sprintf(message, args...)
	return fmt.Errorf("%s: %w", contextMsg, err)
}

// SafeClose safely closes a resource and logs any errors
func SafeClose(closer interface{ Close() error }, resourceName string) {
	if closer == nil {
		return
	}

	if err := closer.Close(); err != nil {
		slog.Warn("Failed to close resource",
			"resource", resourceName,
			"error", err)
	}
}
