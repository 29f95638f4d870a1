package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// Codes carried in the "code" field of the error envelope.
const (
	CodeValidation       = "VALIDATION_FAILED"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeStore            = "STORE_ERROR"
	CodeInternal         = "INTERNAL_ERROR"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	CodeHTTP             = "HTTP_ERROR"
)

// DomainError is the error shape every handler failure is rendered from.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
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

// NewValidationError rejects a request field, e.g. a blank subject or an
// unknown status label.
func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

// NewNotFound reports a missing ticket or message. It still matches
// domain.ErrNotFound under errors.Is.
func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
		Details:    details,
		Err:        domain.ErrNotFound,
	}
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

// NewStoreError reports a ticket store or ephemeral backend failure. The
// cause is shown to the admin caller as is, except for an exhausted
// ticket-number retry which gets its own wording.
func NewStoreError(err error) error {
	message := "ticket store unavailable"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrDuplicateTicketNumber):
		message = "could not allocate a unique ticket number"
	default:
		message = err.Error()
	}
	return &DomainError{
		Code:       CodeStore,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
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

// FromHTTPStatus wraps a framework-level failure such as an unmatched route
// or an oversized body.
func FromHTTPStatus(status int, message string) *DomainError {
	code := CodeHTTP
	switch status {
	case http.StatusNotFound:
		code = CodeNotFound
	case http.StatusMethodNotAllowed:
		code = CodeMethodNotAllowed
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		code = CodeValidation
	case http.StatusRequestEntityTooLarge:
		code = CodePayloadTooLarge
	}
	return NewDomainError(code, message, status, nil)
}

// ToDomainError resolves err to its envelope form. Unclassified errors
// surface as STORE_ERROR.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, domain.ErrNotFound) {
		return asDomainError(NewNotFound("ticket", nil))
	}
	return asDomainError(NewStoreError(err))
}

// HasCode reports whether err resolves to the given envelope code.
func HasCode(err error, code string) bool {
	de := ToDomainError(err)
	return de != nil && de.Code == code
}

func asDomainError(err error) *DomainError {
	var de *DomainError
	errors.As(err, &de)
	return de
}
