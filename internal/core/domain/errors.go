// Package domain defines the core domain models for bankmesh.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
//
// Codes have the form BANK-<AREA>-<NUMBER>; two DomainErrors with the same
// code compare equal under errors.Is regardless of details or cause.
type DomainError struct {
	Code    string // Error code (e.g., "BANK-LEDG-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap wraps an error with this domain error as the cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Configuration Errors (CONF)
// Fatal at startup: the process aborts before accepting connections.
// ============================================================================

var (
	// ErrConfig indicates a missing or unusable configuration value.
	ErrConfig = NewDomainError("BANK-CONF-5000", "invalid configuration")

	// ErrKeyFile indicates the key material could not be read or parsed.
	ErrKeyFile = NewDomainError("BANK-CONF-5001", "unreadable key file")

	// ErrDataFile indicates the credential or balance data could not be loaded.
	ErrDataFile = NewDomainError("BANK-CONF-5002", "unreadable data file")
)

// ============================================================================
// Crypto Errors (CRYP)
// Fatal to the owning session only.
// ============================================================================

var (
	// ErrDecryption indicates malformed ciphertext or a padding mismatch.
	ErrDecryption = NewDomainError("BANK-CRYP-4000", "decryption failed")

	// ErrMalformedPlaintext indicates the decrypted request is not valid text.
	ErrMalformedPlaintext = NewDomainError("BANK-CRYP-4001", "malformed plaintext")
)

// ============================================================================
// Authentication Errors (AUTH)
// Recoverable: the session stays unauthenticated and may retry.
// ============================================================================

var (
	// ErrInvalidCredentials indicates the (id, secret) pair did not match.
	ErrInvalidCredentials = NewDomainError("BANK-AUTH-4010", "id or password is incorrect")
)

// ============================================================================
// Protocol Errors (PROTO)
// Recoverable: the session stays in its current state.
// ============================================================================

var (
	// ErrInvalidLogin indicates a malformed login message.
	ErrInvalidLogin = NewDomainError("BANK-PROTO-4000", "invalid login format")

	// ErrInvalidRequest indicates a malformed authenticated request.
	ErrInvalidRequest = NewDomainError("BANK-PROTO-4001", "invalid request format")

	// ErrFrameTooLarge indicates a frame exceeded the configured maximum size.
	ErrFrameTooLarge = NewDomainError("BANK-PROTO-4130", "frame too large")
)

// ============================================================================
// Ledger Errors (LEDG)
// Recoverable: no ledger mutation occurs.
// ============================================================================

var (
	// ErrAccountNotFound indicates the queried account does not exist.
	ErrAccountNotFound = NewDomainError("BANK-LEDG-4040", "account not found")

	// ErrRecipientNotFound indicates the transfer recipient does not exist.
	ErrRecipientNotFound = NewDomainError("BANK-LEDG-4041", "recipient not found")

	// ErrSenderNotFound indicates the transfer sender does not exist.
	ErrSenderNotFound = NewDomainError("BANK-LEDG-4042", "sender not found")

	// ErrInvalidAccountClass indicates an account class other than savings or checking.
	ErrInvalidAccountClass = NewDomainError("BANK-LEDG-4001", "invalid account class")

	// ErrInvalidAmount indicates a zero or negative transfer amount.
	ErrInvalidAmount = NewDomainError("BANK-LEDG-4002", "invalid amount")

	// ErrInsufficientFunds indicates the sender's balance does not cover the amount.
	ErrInsufficientFunds = NewDomainError("BANK-LEDG-4020", "insufficient funds")

	// ErrNegativeBalance indicates a balance record below zero.
	ErrNegativeBalance = NewDomainError("BANK-LEDG-4003", "negative balance")

	// ErrDuplicateAccount indicates the same id appears twice in a balance set.
	ErrDuplicateAccount = NewDomainError("BANK-LEDG-4090", "duplicate account id")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrStorage indicates the ledger could not be persisted.
	ErrStorage = NewDomainError("BANK-SYS-5001", "storage error")

	// ErrServerClosed indicates the server is shutting down.
	ErrServerClosed = NewDomainError("BANK-SYS-5030", "server closed")
)
