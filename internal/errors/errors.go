package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeValidation is a precondition failure caught before any request is sent.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeAuth means the backend rejected the credentials.
	ErrCodeAuth ErrorCode = "auth"
	// ErrCodeNetwork means the backend could not be reached or answered unusably.
	ErrCodeNetwork ErrorCode = "network"
	// ErrCodeMediaAccess means the browser refused camera access.
	ErrCodeMediaAccess ErrorCode = "media_access"
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeConflict indicates a conflict with existing state.
	ErrCodeConflict ErrorCode = "conflict"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
)

// Messages shown to visitors when the underlying error must stay private.
const (
	MsgSomethingWentWrong = "Something went wrong. Please try again."
	MsgCameraRequired     = "Camera access is required for this feature"
)

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is safe to show to the visitor
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Field is the form field the error belongs to (optional, for validation errors)
	Field string
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

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message}
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message, Field: field}
}

// Auth creates an error carrying the backend's rejection message verbatim.
// fallback is used when the backend gave no message.
func Auth(message, fallback string) *AppError {
	if message == "" {
		message = fallback
	}
	return &AppError{Code: ErrCodeAuth, Message: message}
}

// Network wraps a transport failure. The cause is kept for logs; the message is generic.
func Network(cause error) *AppError {
	return &AppError{Code: ErrCodeNetwork, Message: MsgSomethingWentWrong, Cause: cause}
}

// MediaAccess creates the blocking notice shown when camera access is refused.
func MediaAccess(reason string) *AppError {
	e := &AppError{Code: ErrCodeMediaAccess, Message: MsgCameraRequired}
	if reason != "" {
		e.Cause = errors.New(reason)
	}
	return e
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: message}
}

// Conflict creates a new Conflict error.
func Conflict(message string) *AppError {
	return &AppError{Code: ErrCodeConflict, Message: message}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: message}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
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

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool { return isCode(err, ErrCodeValidation) }

// IsAuth checks if an error is an Auth error.
func IsAuth(err error) bool { return isCode(err, ErrCodeAuth) }

// IsNetwork checks if an error is a Network error.
func IsNetwork(err error) bool { return isCode(err, ErrCodeNetwork) }

// IsMediaAccess checks if an error is a MediaAccess error.
func IsMediaAccess(err error) bool { return isCode(err, ErrCodeMediaAccess) }

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool { return isCode(err, ErrCodeNotFound) }

// IsConflict checks if an error is a Conflict error.
func IsConflict(err error) bool { return isCode(err, ErrCodeConflict) }

// IsTimeout checks if an error is a Timeout error.
func IsTimeout(err error) bool { return isCode(err, ErrCodeTimeout) }

// IsCanceled checks if an error is a Canceled error.
func IsCanceled(err error) bool { return isCode(err, ErrCodeCanceled) }

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the Field from an error, or empty string if not an AppError or no field set.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}

// UserMessage returns the visitor-safe message for err. Errors that are not
// AppErrors never leak their text.
func UserMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return MsgSomethingWentWrong
}
