package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeNetwork indicates a transport or timeout failure talking to a provider. Retryable.
	ErrCodeNetwork ErrorCode = "network"
	// ErrCodeInvalidCredentials indicates the provider rejected the identifier/secret pair.
	ErrCodeInvalidCredentials ErrorCode = "invalid_credentials"
	// ErrCodeCaptchaRequired indicates the portal demands a human verification code.
	ErrCodeCaptchaRequired ErrorCode = "captcha_required"
	// ErrCodeServiceUnavailable indicates a provider-side outage or maintenance window. Retryable later.
	ErrCodeServiceUnavailable ErrorCode = "service_unavailable"
	// ErrCodeGenericFailure indicates an unclassified login failure.
	ErrCodeGenericFailure ErrorCode = "generic_failure"
	// ErrCodePersistence indicates the login worked but its result could not be saved.
	ErrCodePersistence ErrorCode = "persistence"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
)

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is the user-facing message (provider or portal language)
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates an AppError with the given code and message.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Network creates a new Network error wrapping the transport failure.
func Network(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeNetwork, Message: message, Cause: cause}
}

// InvalidCredentials creates a new InvalidCredentials error.
func InvalidCredentials(message string) *AppError {
	return New(ErrCodeInvalidCredentials, message)
}

// CaptchaRequired creates a new CaptchaRequired error.
func CaptchaRequired(message string) *AppError {
	return New(ErrCodeCaptchaRequired, message)
}

// ServiceUnavailable creates a new ServiceUnavailable error.
func ServiceUnavailable(message string) *AppError {
	return New(ErrCodeServiceUnavailable, message)
}

// GenericFailure creates a new GenericFailure error.
func GenericFailure(message string) *AppError {
	return New(ErrCodeGenericFailure, message)
}

// Persistence creates a new Persistence error wrapping the sink failure.
func Persistence(message string, cause error) *AppError {
	return &AppError{Code: ErrCodePersistence, Message: message, Cause: cause}
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return New(ErrCodeValidation, message)
}

// Validationf creates a new Validation error with formatted message.
func Validationf(format string, args ...any) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf(format, args...))
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return New(ErrCodeInternal, message)
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsNetwork checks if an error is a Network error.
func IsNetwork(err error) bool {
	return isCode(err, ErrCodeNetwork)
}

// IsInvalidCredentials checks if an error is an InvalidCredentials error.
func IsInvalidCredentials(err error) bool {
	return isCode(err, ErrCodeInvalidCredentials)
}

// IsCaptchaRequired checks if an error is a CaptchaRequired error.
func IsCaptchaRequired(err error) bool {
	return isCode(err, ErrCodeCaptchaRequired)
}

// IsServiceUnavailable checks if an error is a ServiceUnavailable error.
func IsServiceUnavailable(err error) bool {
	return isCode(err, ErrCodeServiceUnavailable)
}

// IsGenericFailure checks if an error is a GenericFailure error.
func IsGenericFailure(err error) bool {
	return isCode(err, ErrCodeGenericFailure)
}

// IsPersistence checks if an error is a Persistence error.
func IsPersistence(err error) bool {
	return isCode(err, ErrCodePersistence)
}

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool {
	return isCode(err, ErrCodeValidation)
}

// IsTimeout checks if an error is a Timeout error.
func IsTimeout(err error) bool {
	return isCode(err, ErrCodeTimeout)
}

// IsCanceled checks if an error is a Canceled error.
func IsCanceled(err error) bool {
	return isCode(err, ErrCodeCanceled)
}

// IsAuth reports whether err is a login failure, as opposed to a persistence or input problem.
func IsAuth(err error) bool {
	switch GetCode(err) {
	case ErrCodeNetwork, ErrCodeInvalidCredentials, ErrCodeCaptchaRequired,
		ErrCodeServiceUnavailable, ErrCodeGenericFailure:
		return true
	default:
		return false
	}
}

// Retryable reports whether the caller may retry the same request later without new input.
func Retryable(err error) bool {
	switch GetCode(err) {
	case ErrCodeNetwork, ErrCodeServiceUnavailable, ErrCodeTimeout:
		return true
	default:
		return false
	}
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetMessage returns the user-facing message of an AppError, or err.Error() otherwise.
func GetMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
