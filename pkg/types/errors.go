package types

import (
	"errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "validation"
	ErrorTypeAuthentication ErrorType = "authentication"
	ErrorTypeRateLimit      ErrorType = "rate_limit"
	ErrorTypeTimeout        ErrorType = "timeout"
	ErrorTypeExternal       ErrorType = "external"
	ErrorTypeParse          ErrorType = "parse"
	ErrorTypeUnavailable    ErrorType = "unavailable"
	ErrorTypeInternal       ErrorType = "internal"
)

// EngineError represents a structured error in the analysis engine
type EngineError struct {
	Type    ErrorType              `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// NewProviderError creates an error for a failed provider invocation
func NewProviderError(errType ErrorType, code, message string, cause error) *EngineError {
	return &EngineError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewParseError creates an error for a malformed provider payload
func NewParseError(message string, cause error) *EngineError {
	return &EngineError{
		Type:    ErrorTypeParse,
		Code:    ErrCodeMalformedPayload,
		Message: message,
		Cause:   cause,
	}
}

// NewNoProviderAvailableError creates the hard failure raised when every
// adapter in a batch failed
func NewNoProviderAvailableError(details map[string]interface{}) *EngineError {
	return &EngineError{
		Type:    ErrorTypeUnavailable,
		Code:    ErrCodeNoProviderAvailable,
		Message: "all analysis providers failed, no consensus can be formed",
		Details: details,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(code, message string, details map[string]interface{}) *EngineError {
	return &EngineError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(code, message string, cause error) *EngineError {
	return &EngineError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsNoProviderAvailable reports whether err is the all-providers-failed error
func IsNoProviderAvailable(err error) bool {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr.Code == ErrCodeNoProviderAvailable
	}
	return false
}

// Common error codes
const (
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeProviderUnreachable = "PROVIDER_UNREACHABLE"
	ErrCodeProviderAuth        = "PROVIDER_AUTH_FAILED"
	ErrCodeProviderRateLimited = "PROVIDER_RATE_LIMITED"
	ErrCodeProviderTimeout     = "PROVIDER_TIMEOUT"
	ErrCodeMalformedPayload    = "MALFORMED_PAYLOAD"
	ErrCodeNoProviderAvailable = "NO_PROVIDER_AVAILABLE"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)
