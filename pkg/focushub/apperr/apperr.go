// Package apperr defines the failure kinds returned by the collaboration
// services and their mapping onto HTTP responses.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Failure kinds. Match them with errors.Is.
var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrConflict         = errors.New("conflict")
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrInternal         = errors.New("internal error")
)

// Error is a failure scoped to a single operation
type Error struct {
	Op      string // e.g. "groups.JoinByInviteCode"
	Kind    error
	Message string // safe to show to the caller
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error, or the kind when there is none.
func (e *Error) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is matches the kind as well as the wrapped error.
func (e *Error) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	return e.Err != nil && errors.Is(e.Err, target)
}

func newError(op string, kind error, message string) *Error {
	return &Error{Op: op, Kind: kind, Message: message}
}

// InvalidArgument reports malformed or missing caller input
func InvalidArgument(op, message string) *Error { return newError(op, ErrInvalidArgument, message) }

// Conflict reports a write that collides with existing state
func Conflict(op, message string) *Error { return newError(op, ErrConflict, message) }

// NotFound reports a missing or unreachable record
func NotFound(op, message string) *Error { return newError(op, ErrNotFound, message) }

// Forbidden reports an authenticated caller acting outside their rights
func Forbidden(op, message string) *Error { return newError(op, ErrForbidden, message) }

// CapacityExceeded reports a group that has no free seats
func CapacityExceeded(op, message string) *Error {
	return newError(op, ErrCapacityExceeded, message)
}

// Internal wraps a store or infrastructure failure
func Internal(op string, err error) *Error {
	return &Error{Op: op, Kind: ErrInternal, Message: "internal error", Err: err}
}

// FromDB classifies a gorm error. notFound is the message used when the
// record is missing. The handle must be opened with TranslateError so that
// unique violations surface as gorm.ErrDuplicatedKey.
func FromDB(op string, err error, notFound string) error {
	var appErr *Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Op: op, Kind: ErrNotFound, Message: notFound, Err: err}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &Error{Op: op, Kind: ErrConflict, Message: "already exists", Err: err}
	default:
		return Internal(op, err)
	}
}

// HTTPStatus maps an error onto a response status code
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict), errors.Is(err, ErrCapacityExceeded):
		return http.StatusConflict
	case errors.Is(err, context.Canceled):
		// client went away; nginx convention
		return 499
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the caller-facing text of err
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != ErrInternal {
		return appErr.Message
	}
	return "Internal server error"
}

// Respond writes err as a JSON error body and aborts the gin context
func Respond(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(HTTPStatus(err), gin.H{"error": Message(err)})
}
