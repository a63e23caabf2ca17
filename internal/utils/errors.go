package utils

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	KindValidation        ErrorKind = "VALIDATION_ERROR"
	KindNotFound          ErrorKind = "NOT_FOUND"
	KindForbidden         ErrorKind = "FORBIDDEN"
	KindConstraint        ErrorKind = "CONSTRAINT_VIOLATION"
	KindCapacity          ErrorKind = "NO_SEATS_AVAILABLE"
	KindAlreadyJoined     ErrorKind = "ALREADY_JOINED"
	KindInsufficientFunds ErrorKind = "INSUFFICIENT_FUNDS"
	KindConflict          ErrorKind = "CONFLICT"
	KindDependency        ErrorKind = "DEPENDENCY_UNAVAILABLE"
	KindAuth              ErrorKind = "UNAUTHORIZED"
)

// AppError is the failure half of every core operation. Callers branch on
// Kind (or errors.Is against the Err* sentinels) rather than on messages.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError of the same kind, so sentinels work with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrValidation        = &AppError{Kind: KindValidation, Message: ErrValidationFailed}
	ErrNotFoundKind      = &AppError{Kind: KindNotFound, Message: ErrNotFound}
	ErrForbiddenKind     = &AppError{Kind: KindForbidden, Message: ErrForbidden}
	ErrConstraint        = &AppError{Kind: KindConstraint, Message: "constraint violated"}
	ErrCapacity          = &AppError{Kind: KindCapacity, Message: ErrNoSeatsAvailable}
	ErrAlreadyJoined     = &AppError{Kind: KindAlreadyJoined, Message: ErrAlreadyJoinedRide}
	ErrInsufficientFunds = &AppError{Kind: KindInsufficientFunds, Message: "insufficient funds"}
	ErrConflictKind      = &AppError{Kind: KindConflict, Message: ErrConflict}
	ErrDependency        = &AppError{Kind: KindDependency, Message: "dependency unavailable"}
	ErrAuth              = &AppError{Kind: KindAuth, Message: ErrUnauthorized}
)

func NewValidationError(message string) error {
	return &AppError{Kind: KindValidation, Message: message}
}

func NewNotFoundError(resource string) error {
	return &AppError{Kind: KindNotFound, Message: resource + " not found"}
}

func NewForbiddenError(message string) error {
	return &AppError{Kind: KindForbidden, Message: message}
}

func NewConstraintError(message string) error {
	return &AppError{Kind: KindConstraint, Message: message}
}

func NewCapacityError(message string) error {
	return &AppError{Kind: KindCapacity, Message: message}
}

func NewAlreadyJoinedError(message string) error {
	return &AppError{Kind: KindAlreadyJoined, Message: message}
}

func NewInsufficientFundsError(message string) error {
	return &AppError{Kind: KindInsufficientFunds, Message: message}
}

func NewConflictError(message string) error {
	return &AppError{Kind: KindConflict, Message: message}
}

func NewAuthError(message string) error {
	return &AppError{Kind: KindAuth, Message: message}
}

// NewDependencyError wraps a storage or collaborator failure. These are
// retryable from the caller's point of view.
func NewDependencyError(message string, err error) error {
	return &AppError{Kind: KindDependency, Message: message, Err: err}
}

// KindOf reports the kind of err. Unclassified errors count as dependency
// failures since they come from the store or another collaborator.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindDependency
}

func HTTPStatus(kind ErrorKind) int {
	switch kind {
	case KindValidation, KindCapacity, KindAlreadyJoined, KindInsufficientFunds, KindConstraint:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindAuth:
		return http.StatusUnauthorized
	default:
		return http.StatusServiceUnavailable
	}
}
