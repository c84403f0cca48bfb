// Package apperr defines the coded errors surfaced by pdfflow.
package apperr

import "errors"

// Code identifies an error class across package boundaries.
type Code string

const (
	ErrMissingFlowField Code = "MISSING_FLOW_FIELD"
	ErrInvalidFieldType Code = "INVALID_FIELD_TYPE"
	ErrFontUnavailable  Code = "FONT_UNAVAILABLE"
	ErrPageRenderFailed Code = "PAGE_RENDER_FAILED"
	ErrTemplateInvalid  Code = "TEMPLATE_INVALID"
	ErrTemplateNotFound Code = "TEMPLATE_NOT_FOUND"
	ErrResource         Code = "RESOURCE_ERROR"
	ErrInternal         Code = "INTERNAL_ERROR"
)

// Error carries an error code alongside a human-readable message. It is the
// shape every fatal pdfflow failure is surfaced in; callers branch on Code,
// humans read Message and Details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Cause   error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error with the given code, message and optional cause.
func New(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// NewWithDetails creates an Error carrying extra context in Details.
func NewWithDetails(code Code, message, details string, cause error) *Error {
	return &Error{Code: code, Message: message, Details: details, Cause: cause}
}

// CodeOf returns the Code of the first *Error in err's chain, or ErrInternal
// when the chain carries no coded error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrInternal
}

// Is reports whether err's chain contains a coded error with the given code.
func Is(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
