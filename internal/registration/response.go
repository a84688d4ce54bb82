package registration

import (
	"net/http"
	"time"

	"github.com/aarelaponin/govstack-processing-server-sub000/internal/errors"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/validation"
)

// Response statuses.
const (
	StatusSubmitted        = "submitted"
	StatusValidationFailed = "validation_failed"
)

// ResponseVersion is reported in the service block of success responses.
const ResponseVersion = "2.0"

// ValidationFailedMessage is the message of validation failure responses.
const ValidationFailedMessage = "Data validation failed. Please correct the errors and try again."

// Response is the body returned to the caller.
type Response struct {
	Success       bool         `json:"success"`
	ApplicationID string       `json:"applicationId,omitempty"`
	Status        string       `json:"status,omitempty"`
	Service       *ServiceInfo `json:"service,omitempty"`
	ErrorCount    int          `json:"errorCount,omitempty"`
	Errors        []ErrorItem  `json:"errors,omitempty"`
	Message       string       `json:"message,omitempty"`
	Error         *ErrorDetail `json:"error,omitempty"`
	Timestamp     int64        `json:"timestamp"`

	statusCode int
}

// ServiceInfo identifies the service that accepted a registration.
type ServiceInfo struct {
	ServiceID string `json:"serviceId"`
	Version   string `json:"version"`
}

// ErrorItem is one validation error in a failure response.
type ErrorItem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
	FormID  string `json:"formId,omitempty"`
}

// ErrorDetail describes a processing failure.
type ErrorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// StatusCode returns the HTTP status of the response.
func (r *Response) StatusCode() int {
	if r.statusCode == 0 {
		return http.StatusOK
	}

	return r.statusCode
}

// NewSuccessResponse builds the response of an accepted registration.
func NewSuccessResponse(serviceID, applicationID string, now time.Time) *Response {
	return &Response{
		Success:       true,
		ApplicationID: applicationID,
		Status:        StatusSubmitted,
		Service:       &ServiceInfo{ServiceID: serviceID, Version: ResponseVersion},
		Timestamp:     now.UnixMilli(),
		statusCode:    http.StatusOK,
	}
}

// NewValidationResponse builds the response of a rejected document.
func NewValidationResponse(result *validation.Result, now time.Time) *Response {
	items := make([]ErrorItem, 0, result.ErrorCount())
	for _, e := range result.Errors() {
		items = append(items, ErrorItem{
			Field:   e.Field,
			Message: e.Message,
			Type:    string(e.Kind),
			FormID:  e.FormID,
		})
	}

	return &Response{
		Success:    false,
		Status:     StatusValidationFailed,
		ErrorCount: result.ErrorCount(),
		Errors:     items,
		Message:    ValidationFailedMessage,
		Timestamp:  now.UnixMilli(),
		statusCode: errors.KindValidation.StatusCode(),
	}
}

// NewErrorResponse builds the response of a failed request. The status code
// follows the kind of err.
func NewErrorResponse(err error, now time.Time) *Response {
	kind := errors.KindOf(err)

	return &Response{
		Success:    false,
		Error:      &ErrorDetail{Kind: kind.String(), Message: err.Error()},
		Timestamp:  now.UnixMilli(),
		statusCode: kind.StatusCode(),
	}
}

// WithStatusCode overrides the status code of r.
func (r *Response) WithStatusCode(code int) *Response {
	r.statusCode = code
	return r
}
