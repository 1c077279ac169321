package parley

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrorCode classifies a binding or call failure.
type ErrorCode string

const (
	// CodeDefinition marks a bind-time error in the interface definition:
	// conflicting markers, an unsupported request shape, a method the
	// binder cannot handle. Never retried, never deferred to call time.
	CodeDefinition ErrorCode = "definition"

	// CodeInvalidArgument marks a call-time argument that failed
	// reconciliation or validation. Raised before any request is built.
	CodeInvalidArgument ErrorCode = "invalid_argument"

	// CodeTransport marks a failure reported by the backend transport.
	CodeTransport ErrorCode = "transport"

	// CodeResponseInvalid marks a transport success whose payload does not
	// conform to the declared success or fault shape.
	CodeResponseInvalid ErrorCode = "response_invalid"

	// CodeInternal marks a bug in the binding machinery itself.
	CodeInternal ErrorCode = "internal"
)

// Error is the standard error envelope for the binding engine.
type Error struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`

	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, if any, to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.cause
}

// NewError creates a new binding error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Errorf creates a new binding error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapError creates a binding error that records err as its cause.
func WrapError(code ErrorCode, err error, message string) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf("%s: %v", message, err),
		cause:   err,
	}
}

// WithDetail returns a new Error with the key-value pair added to details.
func (e *Error) WithDetail(key string, value any) *Error {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// CodeOf returns the ErrorCode carried by err, or CodeInternal if err is not
// a binding error.
func CodeOf(err error) ErrorCode {
	var be *Error
	if errors.As(err, &be) {
		return be.Code
	}
	return CodeInternal
}

// fromValidation converts a validator error into a binding error with the
// given code, flattening field errors into the details map.
func fromValidation(err error, code ErrorCode) *Error {
	var valErrs validator.ValidationErrors
	if errors.As(err, &valErrs) {
		details := make(map[string]any, len(valErrs))
		messages := make([]string, 0, len(valErrs))
		for _, ve := range valErrs {
			msg := formatValidationError(ve)
			details[ve.Field()] = msg
			messages = append(messages, ve.Field()+": "+msg)
		}
		return &Error{
			Code:    code,
			Message: strings.Join(messages, "; "),
			Details: details,
			cause:   err,
		}
	}
	return WrapError(code, err, "validation failed")
}

// formatValidationError converts a validator.FieldError to a human-readable message.
func formatValidationError(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "required"
	case "min":
		return fmt.Sprintf("must be at least %s", ve.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", ve.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", ve.Param())
	case "lt":
		return fmt.Sprintf("must be less than %s", ve.Param())
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "uuid":
		return "must be a valid UUID"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", ve.Param())
	default:
		if ve.Param() != "" {
			return fmt.Sprintf("failed %s=%s validation", ve.Tag(), ve.Param())
		}
		return fmt.Sprintf("failed %s validation", ve.Tag())
	}
}
