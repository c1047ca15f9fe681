package services

import (
	"errors"
	"fmt"
)

// Error kinds returned by the tournament core. Every failure path maps to
// exactly one of these; the handler layer translates kind to HTTP status.
const (
	KindNotFound           = "NotFound"
	KindForbidden          = "Forbidden"
	KindPreconditionFailed = "PreconditionFailed"
	KindConflict           = "Conflict"
	KindFull               = "Full"
	KindInvalidStatus      = "InvalidStatus"
	KindValidation         = "ValidationError"
)

type AppError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func appErr(kind, format string, args ...interface{}) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// AsAppError unwraps err into an *AppError if it carries one.
func AsAppError(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// HTTPStatus maps an error kind onto the REST surface. Business failures on
// join (precondition, conflict, full) are 400s like the original API;
// authorization failures are 403 and absence is 404.
func (e *AppError) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return 404
	case KindForbidden:
		return 403
	case KindPreconditionFailed, KindConflict, KindFull, KindInvalidStatus, KindValidation:
		return 400
	default:
		return 500
	}
}
