// Package errors provides structured error handling for the ingestion
// service. Errors carry a code, message, cause and context map so that
// per-source failures can be logged with enough detail to identify the
// source and article involved.
package errors

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrorCode categorizes an application error.
type ErrorCode string

const (
	ErrCodeNetwork     ErrorCode = "NETWORK_ERROR"
	ErrCodeTimeout     ErrorCode = "TIMEOUT_ERROR"
	ErrCodeHTTPStatus  ErrorCode = "HTTP_STATUS_ERROR"
	ErrCodeRateLimit   ErrorCode = "RATE_LIMIT_ERROR"
	ErrCodeDatabase    ErrorCode = "DATABASE_ERROR"
	ErrCodeValidation  ErrorCode = "VALIDATION_ERROR"
	ErrCodeExternalAPI ErrorCode = "EXTERNAL_API_ERROR"
	ErrCodeExtraction  ErrorCode = "EXTRACTION_ERROR"
	ErrCodeUnknown     ErrorCode = "UNKNOWN_ERROR"
)

// AppError is a structured application error supporting errors.Is/As
// unwrapping.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates an AppError with an arbitrary code.
func New(code ErrorCode, message string, cause error, context map[string]any) *AppError {
	return &AppError{Code: code, Message: message, Cause: cause, Context: context}
}

// NetworkError creates an AppError for transport-level failures.
func NetworkError(message string, cause error, context map[string]any) *AppError {
	return New(ErrCodeNetwork, message, cause, context)
}

// TimeoutError creates an AppError for deadline-exceeded failures.
func TimeoutError(message string, cause error, context map[string]any) *AppError {
	return New(ErrCodeTimeout, message, cause, context)
}

// DatabaseError creates an AppError for persistence failures.
func DatabaseError(message string, cause error, context map[string]any) *AppError {
	return New(ErrCodeDatabase, message, cause, context)
}

// ValidationError creates an AppError for input validation failures.
func ValidationError(message string, context map[string]any) *AppError {
	return New(ErrCodeValidation, message, nil, context)
}

// ExternalAPIError creates an AppError for collaborator call failures.
func ExternalAPIError(message string, cause error, context map[string]any) *AppError {
	return New(ErrCodeExternalAPI, message, cause, context)
}

// ExtractionError creates an AppError for content extraction failures.
func ExtractionError(message string, cause error, context map[string]any) *AppError {
	return New(ErrCodeExtraction, message, cause, context)
}

// Code returns the ErrorCode of err if it is (or wraps) an AppError, or
// ErrCodeUnknown otherwise.
func Code(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeUnknown
}

// LogError logs err at error level with its structured context, if any.
func LogError(logger *slog.Logger, err error, operation string) {
	if logger == nil || err == nil {
		return
	}

	attrs := []any{"operation", operation, "error", err}
	var appErr *AppError
	if errors.As(err, &appErr) {
		attrs = append(attrs, "code", string(appErr.Code))
		for k, v := range appErr.Context {
			attrs = append(attrs, k, v)
		}
	}
	logger.Error("operation failed", attrs...)
}
