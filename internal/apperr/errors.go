// Package apperr classifies failures into client input errors, source data
// integrity errors, and everything else.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"os"
)

// ValidationError reports a request parameter the caller must fix. Its
// message is safe to return to the client verbatim.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Validationf builds a ValidationError with a formatted message.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IntegrityError wraps a failure caused by incomplete or misconfigured source
// data: a column missing for a requested year, an absent boundary file, or a
// malformed cell.
type IntegrityError struct {
	Err error
}

func (e *IntegrityError) Error() string {
	return e.Err.Error()
}

func (e *IntegrityError) Unwrap() error {
	return e.Err
}

// NewIntegrityError wraps err as an integrity error.
func NewIntegrityError(err error) *IntegrityError {
	return &IntegrityError{Err: err}
}

// IsValidation returns true if err (or any error in its chain) is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsIntegrity returns true if err is an IntegrityError or a missing-file
// error anywhere in its chain.
func IsIntegrity(err error) bool {
	if err == nil {
		return false
	}
	var ie *IntegrityError
	if errors.As(err, &ie) {
		return true
	}
	return errors.Is(err, os.ErrNotExist)
}

// Status maps an error onto the HTTP status the API layer should report.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidation(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the text that may cross the API boundary. Only
// validation messages carry detail.
func PublicMessage(err error) string {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Msg
	case IsIntegrity(err):
		return "Data integrity error"
	default:
		return "Internal server error"
	}
}
