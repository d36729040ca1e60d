package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes returned by the filter engine and its HTTP boundary.
const (
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeInvalidFilterRange = "INVALID_FILTER_RANGE"
	CodeUnknownDimension   = "UNKNOWN_DIMENSION"
	CodeUnknownStatus      = "UNKNOWN_STATUS"
	CodeUnknownEvent       = "UNKNOWN_EVENT"
	CodeNotFound           = "NOT_FOUND"
	CodeInternal           = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

// NewInvalidFilterRange reports a date range whose start is after its end.
func NewInvalidFilterRange(details map[string]any) error {
	return NewDomainError(CodeInvalidFilterRange, "date range start is after end", http.StatusBadRequest, details)
}

// NewUnknownDimension reports a chart click on a dimension the engine does not know.
func NewUnknownDimension(dimension string) error {
	return NewDomainError(CodeUnknownDimension, fmt.Sprintf("unknown drill-down dimension %q", dimension),
		http.StatusBadRequest, map[string]any{"dimension": dimension})
}

func NewUnknownStatus(status string) error {
	return NewDomainError(CodeUnknownStatus, fmt.Sprintf("unknown status %q", status),
		http.StatusBadRequest, map[string]any{"status": status})
}

func NewUnknownEvent(kind string) error {
	return NewDomainError(CodeUnknownEvent, fmt.Sprintf("unknown event type %q", kind),
		http.StatusBadRequest, map[string]any{"type": kind})
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err is a DomainError carrying code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}
