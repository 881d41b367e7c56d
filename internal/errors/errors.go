package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrNotFound           ErrorType = "NOT_FOUND"
	ErrInvalidInput       ErrorType = "INVALID_INPUT"
	ErrAlreadyRunning     ErrorType = "ALREADY_RUNNING"
	ErrInvalidState       ErrorType = "INVALID_STATE"
	ErrCredentialsMissing ErrorType = "CREDENTIALS_MISSING"
	ErrCredentialsInvalid ErrorType = "CREDENTIALS_INVALID"
	ErrDecryption         ErrorType = "DECRYPTION_ERROR"
	ErrUnauthorized       ErrorType = "UNAUTHORIZED"
	ErrUnavailable        ErrorType = "UNAVAILABLE"
	ErrInternal           ErrorType = "INTERNAL"
)

// AppError represents an application error
type AppError struct {
	Type      ErrorType
	Message   string
	Cause     error
	Timestamp time.Time
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:      errType,
		Message:   message,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// TypeOf returns the ErrorType of err, or ErrInternal for untyped errors
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrInternal
}

func is(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool { return is(err, ErrNotFound) }

// IsInvalidInput checks if the error is an invalid input error
func IsInvalidInput(err error) bool { return is(err, ErrInvalidInput) }

// IsAlreadyRunning checks if the error signals an active job for the user
func IsAlreadyRunning(err error) bool { return is(err, ErrAlreadyRunning) }

// IsInvalidState checks if the error is an invalid state transition
func IsInvalidState(err error) bool { return is(err, ErrInvalidState) }

// IsCredentialsMissing checks if the error is a missing credential record
func IsCredentialsMissing(err error) bool { return is(err, ErrCredentialsMissing) }

// IsCredentialsInvalid checks if the error is an undecryptable credential record
func IsCredentialsInvalid(err error) bool { return is(err, ErrCredentialsInvalid) }

// IsDecryption checks if the error is a vault decryption failure
func IsDecryption(err error) bool { return is(err, ErrDecryption) }

// IsUnauthorized checks if the error is an authentication failure against an
// external service
func IsUnauthorized(err error) bool { return is(err, ErrUnauthorized) }

// IsUnavailable checks if the error is a transient external-service failure
func IsUnavailable(err error) bool { return is(err, ErrUnavailable) }

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, err error) *AppError {
	return New(ErrNotFound, message, err)
}

// NewValidationError creates a new validation error
func NewValidationError(message string, err error) *AppError {
	return New(ErrInvalidInput, message, err)
}

// NewAlreadyRunningError creates an error for a conflicting active job
func NewAlreadyRunningError(userID string) *AppError {
	return New(ErrAlreadyRunning, fmt.Sprintf("a sync job is already active for user %s", userID), nil)
}

// NewInvalidStateError creates an error for an illegal job state transition
func NewInvalidStateError(message string) *AppError {
	return New(ErrInvalidState, message, nil)
}

// NewCredentialsMissingError creates an error for an absent credential record
func NewCredentialsMissingError(userID string) *AppError {
	return New(ErrCredentialsMissing, fmt.Sprintf("no credentials found for user %s", userID), nil)
}

// NewCredentialsInvalidError creates an error for credentials that fail decryption
func NewCredentialsInvalidError(userID string, err error) *AppError {
	return New(ErrCredentialsInvalid, fmt.Sprintf("credentials for user %s could not be decrypted", userID), err)
}

// NewDecryptionError creates a new vault decryption error
func NewDecryptionError(message string, err error) *AppError {
	return New(ErrDecryption, message, err)
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string, err error) *AppError {
	return New(ErrUnauthorized, message, err)
}

// NewUnavailableError creates a new transient-failure error
func NewUnavailableError(message string, err error) *AppError {
	return New(ErrUnavailable, message, err)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return New(ErrInternal, message, err)
}
