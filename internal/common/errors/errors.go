// Package errors provides standardized error handling for the reminder pipeline.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Configuration errors abort a run before any member is processed.
	ErrCodeTransportNotConfigured ErrorCode = "TRANSPORT_NOT_CONFIGURED"
	ErrCodeInvalidCredentials     ErrorCode = "INVALID_CREDENTIALS"

	// Validation errors are per-member and promote straight to the permanent blacklist.
	ErrCodeInvalidRecipient  ErrorCode = "INVALID_RECIPIENT"
	ErrCodeRecipientRejected ErrorCode = "RECIPIENT_REJECTED"

	// Transient delivery errors are retried across providers and backoff sweeps.
	ErrCodeProviderUnreachable ErrorCode = "PROVIDER_UNREACHABLE"
	ErrCodeProviderTimeout     ErrorCode = "PROVIDER_TIMEOUT"
	ErrCodeDeliveryFailed      ErrorCode = "DELIVERY_FAILED"

	// Store errors are logged; the run continues where feasible.
	ErrCodeQueryExecutionFailed ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeDatabaseWriteFailed  ErrorCode = "DATABASE_WRITE_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewConfigurationError reports a transport/credentials problem. Nothing is
// persisted for the run when this is returned.
func NewConfigurationError(code ErrorCode, details string) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   "Transport configuration invalid",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationError reports a malformed or permanently rejected recipient.
func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRecipient,
		Message:   "Recipient address failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRecipientRejectedError reports a permanent provider-side rejection.
func NewRecipientRejectedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecipientRejected,
		Message:   "Provider permanently rejected recipient",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTransientDeliveryError reports a timeout or temporary provider failure.
func NewTransientDeliveryError(code ErrorCode, details string) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   "Delivery failed, may succeed on retry",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreError reports a store read/write failure.
func NewStoreError(code ErrorCode, details string) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   "Store operation failed",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Classification Helpers
// ==========================

// Normalize ensures any error is represented as a StandardError.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// IsConfiguration reports whether err aborts the run before processing.
func IsConfiguration(err error) bool {
	code := Normalize(err).Code
	return code == ErrCodeTransportNotConfigured || code == ErrCodeInvalidCredentials
}

// IsPermanent reports whether err should promote the recipient straight to
// the permanent blacklist.
func IsPermanent(err error) bool {
	code := Normalize(err).Code
	return code == ErrCodeInvalidRecipient || code == ErrCodeRecipientRejected
}

// IsRetryable reports whether a retry sweep may succeed.
func IsRetryable(err error) bool {
	return Normalize(err).Retryable
}
