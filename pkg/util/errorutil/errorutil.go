package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to dashboard clients.
const (
	CodeValidation         = "VALIDATION_FAILED"
	CodeNotFound           = "NOT_FOUND"
	CodeLoadFailed         = "LOAD_FAILED"
	CodeSubmissionFailed   = "SUBMISSION_FAILED"
	CodeSelectionRequired  = "SELECTION_REQUIRED"
	CodeSubmissionInFlight = "SUBMISSION_IN_FLIGHT"
	CodeModalClosed        = "MODAL_CLOSED"
	CodeUpstream           = "UPSTREAM_FAILED"
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

func NewValidationError(message string, details map[string]any) *DomainError {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) *DomainError {
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

func NewSelectionRequired(message string) *DomainError {
	return NewDomainError(CodeSelectionRequired, message, http.StatusConflict, nil)
}

func NewConflict(code, message string) *DomainError {
	return NewDomainError(code, message, http.StatusConflict, nil)
}

// NewLoadFailure wraps a ticket fetch failure.
func NewLoadFailure(err error) *DomainError {
	return &DomainError{
		Code:       CodeLoadFailed,
		Message:    "failed to load tickets",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// NewSubmissionFailure wraps a rejected or undelivered reassignment.
func NewSubmissionFailure(ticketNumber string, err error) *DomainError {
	return &DomainError{
		Code:       CodeSubmissionFailed,
		Message:    "failed to submit reassignment",
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"ticket_number": ticketNumber},
		Err:        err,
	}
}

func NewUpstreamError(message string, err error) *DomainError {
	return &DomainError{
		Code:       CodeUpstream,
		Message:    message,
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func NewInternalError(err error) *DomainError {
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
	return NewInternalError(err)
}

// HasCode reports whether err carries a DomainError with the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	return domainErr.Code == code
}
