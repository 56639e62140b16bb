package domain

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// APIError represents a standardized error response
type APIError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for different failure scenarios
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeIllegalState  = "ILLEGAL_STATE"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeExternal      = "EXTERNAL_SERVICE_ERROR"
	ErrCodeConfiguration = "CONFIGURATION_ERROR"
	ErrCodeInternal      = "INTERNAL_SERVER_ERROR"
	ErrCodeTimeout       = "REQUEST_TIMEOUT"
)

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// ConfigurationError reports a missing or malformed setting. It is fatal at startup.
type ConfigurationError struct {
	Setting string `json:"setting"`
	Message string `json:"message"`
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error for '%s': %s", e.Setting, e.Message)
}

// ExternalServiceError wraps a failed call to the decision service or the directory
type ExternalServiceError struct {
	Service    string `json:"service"`
	Operation  string `json:"operation"`
	StatusCode int    `json:"status_code,omitempty"`
	Err        error  `json:"-"`
}

func (e *ExternalServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s failed with status %d: %v", e.Service, e.Operation, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Service, e.Operation, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// Temporary reports whether retrying the same call may succeed
func (e *ExternalServiceError) Temporary() bool {
	if e.StatusCode == 0 {
		return true
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IllegalStateError signals a stage-gated operation called out of order
type IllegalStateError struct {
	Operation string  `json:"operation"`
	Stage     Stage   `json:"stage"`
	Expected  []Stage `json:"expected,omitempty"`
}

func (e *IllegalStateError) Error() string {
	if len(e.Expected) == 0 {
		return fmt.Sprintf("illegal state: %s not allowed in stage %s", e.Operation, e.Stage)
	}
	return fmt.Sprintf("illegal state: %s not allowed in stage %s (expected %v)", e.Operation, e.Stage, e.Expected)
}

// NewAPIError creates a new APIError with timestamp
func NewAPIError(code, message, details, requestID string) *APIError {
	return &APIError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// NewConfigurationError creates a new ConfigurationError
func NewConfigurationError(setting, message string) *ConfigurationError {
	return &ConfigurationError{Setting: setting, Message: message}
}

// NewExternalServiceError creates a new ExternalServiceError
func NewExternalServiceError(service, operation string, statusCode int, err error) *ExternalServiceError {
	return &ExternalServiceError{
		Service:    service,
		Operation:  operation,
		StatusCode: statusCode,
		Err:        err,
	}
}

// NewIllegalStateError creates a new IllegalStateError
func NewIllegalStateError(operation string, stage Stage, expected ...Stage) *IllegalStateError {
	return &IllegalStateError{
		Operation: operation,
		Stage:     stage,
		Expected:  expected,
	}
}

// IsValidationError reports whether err wraps a ValidationError
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsIllegalState reports whether err wraps an IllegalStateError
func IsIllegalState(err error) bool {
	var target *IllegalStateError
	return errors.As(err, &target)
}

// IsExternalServiceError reports whether err wraps an ExternalServiceError
func IsExternalServiceError(err error) bool {
	var target *ExternalServiceError
	return errors.As(err, &target)
}

// IsConfigurationError reports whether err wraps a ConfigurationError
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}
