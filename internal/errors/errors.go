package errors

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Error classes used across the review service. Business-rule classes
// (NotFound, Forbidden, InvalidState, Validation) are final; Conflict and
// Unavailable come from the store and may be retried by the caller.
var (
	ErrNotFound     = newClass(ErrCodeNotFound, "resource not found")
	ErrForbidden    = newClass(ErrCodeForbidden, "forbidden")
	ErrInvalidState = newClass(ErrCodeInvalidState, "operation not allowed in current state")
	ErrValidation   = newClass(ErrCodeValidation, "validation error")
	ErrConflict     = newClass(ErrCodeConflict, "conflicting write")
	ErrUnavailable  = newClass(ErrCodeUnavailable, "storage unavailable")

	statusCodeMap = map[error]int{
		ErrNotFound:     http.StatusNotFound,
		ErrForbidden:    http.StatusForbidden,
		ErrInvalidState: http.StatusBadRequest,
		ErrValidation:   http.StatusBadRequest,
		ErrConflict:     http.StatusConflict,
		ErrUnavailable:  http.StatusServiceUnavailable,
	}
	classes = []*InternalError{ErrNotFound, ErrForbidden, ErrInvalidState, ErrValidation, ErrConflict, ErrUnavailable}
)

const (
	ErrCodeNotFound     = "not_found"
	ErrCodeForbidden    = "forbidden"
	ErrCodeInvalidState = "invalid_state"
	ErrCodeValidation   = "validation_error"
	ErrCodeConflict     = "conflict"
	ErrCodeUnavailable  = "unavailable"
	ErrCodeInternal     = "internal_error"
)

// InternalError is an error class. Concrete errors are marked with one of the
// package level classes so errors.Is works through any amount of wrapping.
type InternalError struct {
	Code    string
	Message string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newClass(code, message string) *InternalError {
	return &InternalError{Code: code, Message: message}
}

func IsNotFound(err error) bool     { return errors.Is(err, ErrNotFound) }
func IsForbidden(err error) bool    { return errors.Is(err, ErrForbidden) }
func IsInvalidState(err error) bool { return errors.Is(err, ErrInvalidState) }
func IsValidation(err error) bool   { return errors.Is(err, ErrValidation) }
func IsConflict(err error) bool     { return errors.Is(err, ErrConflict) }
func IsUnavailable(err error) bool  { return errors.Is(err, ErrUnavailable) }

// Retryable reports whether the caller may retry the whole operation.
func Retryable(err error) bool {
	return IsConflict(err) || IsUnavailable(err)
}

// HTTPStatusFromErr maps an error class to a status code; unclassified errors are 500.
func HTTPStatusFromErr(err error) int {
	for class, status := range statusCodeMap {
		if errors.Is(err, class) {
			return status
		}
	}
	return http.StatusInternalServerError
}

// CodeFromErr returns the machine-readable code of the error's class.
func CodeFromErr(err error) string {
	for _, class := range classes {
		if errors.Is(err, class) {
			return class.Code
		}
	}
	return ErrCodeInternal
}

// DisplayMessage returns the user-facing text: the first hint when one was
// attached, otherwise the class message.
func DisplayMessage(err error) string {
	if hints := errors.GetAllHints(err); len(hints) > 0 {
		return hints[0]
	}
	for _, class := range classes {
		if errors.Is(err, class) {
			return class.Message
		}
	}
	return "internal error"
}
