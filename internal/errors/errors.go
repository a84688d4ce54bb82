// Package errors classifies processing failures into the kinds surfaced to callers
// and maps each kind to a response status code.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the classification of a processing failure.
type Kind int

const (
	// KindServer is any unexpected failure.
	KindServer Kind = iota
	// KindConfiguration is a malformed or missing mapping/rule document. Raised at load time.
	KindConfiguration
	// KindInvalidRequest is an input that is empty or not a JSON object.
	KindInvalidRequest
	// KindValidation is one or more rule violations.
	KindValidation
	// KindFormSubmission is a failure reported by the persistence collaborator.
	KindFormSubmission
	// KindWorkflow is a failure reported by the workflow collaborator.
	KindWorkflow
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindServer:
		return "SERVER_ERROR"
	case KindConfiguration:
		return "CONFIGURATION_ERROR"
	case KindInvalidRequest:
		return "INVALID_REQUEST"
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindFormSubmission:
		return "FORM_SUBMISSION_ERROR"
	case KindWorkflow:
		return "WORKFLOW_ERROR"
	default:
		return "UNKNOWN"
	}
}

// StatusCode returns the HTTP status a caller receives for the kind.
func (k Kind) StatusCode() int {
	switch k {
	case KindInvalidRequest, KindValidation, KindFormSubmission:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Standard error variables for common conditions
var (
	// Configuration errors
	ErrServiceMismatch      = errors.New("service id mismatch")
	ErrMissingFormMappings  = errors.New("formMappings section not found")
	ErrMissingGridConfig    = errors.New("missing grid configuration")
	ErrUnknownNormalization = errors.New("unknown normalization group")
	ErrUnknownService       = errors.New("unknown service")

	// Request errors
	ErrEmptyRequest  = errors.New("request body is empty")
	ErrNotJSONObject = errors.New("request body is not a JSON object")
)

// ProcessingError wraps an error with its kind and origin.
type ProcessingError struct {
	Kind      Kind
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (e *ProcessingError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error
func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// New creates a ProcessingError of the given kind with a formatted message.
func New(kind Kind, component, operation, format string, args ...any) *ProcessingError {
	return &ProcessingError{
		Kind:      kind,
		Message:   fmt.Sprintf(format, args...),
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.operation: action failed: %w"
func Wrap(err error, component, operation, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, operation, action, err)
}

// WrapKind wraps err with context and classifies it as kind.
func WrapKind(kind Kind, err error, component, operation, action string) error {
	if err == nil {
		return nil
	}
	wrapped := Wrap(err, component, operation, action)
	return &ProcessingError{
		Kind:      kind,
		Err:       wrapped,
		Message:   wrapped.Error(),
		Component: component,
		Operation: operation,
	}
}

// Configuration creates a configuration error wrapping cause with an actionable message.
func Configuration(cause error, component, operation, format string, args ...any) error {
	return &ProcessingError{
		Kind:      KindConfiguration,
		Err:       cause,
		Message:   fmt.Sprintf(format, args...),
		Component: component,
		Operation: operation,
	}
}

// InvalidRequest creates an invalid request error wrapping cause.
func InvalidRequest(cause error, component, operation, format string, args ...any) error {
	return &ProcessingError{
		Kind:      KindInvalidRequest,
		Err:       cause,
		Message:   fmt.Sprintf(format, args...),
		Component: component,
		Operation: operation,
	}
}

// KindOf returns the kind of err. Unclassified errors are KindServer.
func KindOf(err error) Kind {
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return pe.Kind
	}

	switch {
	case errors.Is(err, ErrServiceMismatch),
		errors.Is(err, ErrMissingFormMappings),
		errors.Is(err, ErrMissingGridConfig),
		errors.Is(err, ErrUnknownNormalization),
		errors.Is(err, ErrUnknownService):
		return KindConfiguration
	case errors.Is(err, ErrEmptyRequest), errors.Is(err, ErrNotJSONObject):
		return KindInvalidRequest
	}

	return KindServer
}

// IsConfiguration checks if an error is a configuration error
func IsConfiguration(err error) bool {
	return err != nil && KindOf(err) == KindConfiguration
}

// IsInvalidRequest checks if an error is an invalid request error
func IsInvalidRequest(err error) bool {
	return err != nil && KindOf(err) == KindInvalidRequest
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}
