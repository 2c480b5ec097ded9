package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

var (
	ErrDuplicatePhone = stderrors.New("phone number already registered")
	ErrNotFound       = stderrors.New("record not found")
	ErrConflict       = stderrors.New("record was modified concurrently, reload and retry")
	ErrStorageTimeout = stderrors.New("storage operation timed out")

	ErrInvalidCredentials = stderrors.New("invalid phone number or password")
	ErrForbidden          = stderrors.New("operation not permitted")
)

// Kind classifies a failure without exposing the error value.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindWeakPassword Kind = "weak_password"
	KindDuplicate    Kind = "duplicate"
	KindConflict     Kind = "conflict"
	KindNotFound     Kind = "not_found"
	KindTimeout      Kind = "timeout"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindInternal     Kind = "internal"
)

// KindOf returns "" for a nil error.
func KindOf(err error) Kind {
	var verr *ValidationError
	var werr *WeakPasswordError
	switch {
	case err == nil:
		return ""
	case stderrors.As(err, &verr):
		return KindValidation
	case stderrors.As(err, &werr):
		return KindWeakPassword
	case stderrors.Is(err, ErrDuplicatePhone):
		return KindDuplicate
	case stderrors.Is(err, ErrConflict):
		return KindConflict
	case stderrors.Is(err, ErrNotFound):
		return KindNotFound
	case stderrors.Is(err, ErrStorageTimeout):
		return KindTimeout
	case stderrors.Is(err, ErrInvalidCredentials):
		return KindUnauthorized
	case stderrors.Is(err, ErrForbidden):
		return KindForbidden
	default:
		return KindInternal
	}
}

// ValidationError carries every violated rule, not just the first one.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

// NewValidationError returns nil when problems is empty.
func NewValidationError(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}

// WeakPasswordError is returned when a credential does not meet the strength rules.
type WeakPasswordError struct {
	Reasons []string
}

func (e *WeakPasswordError) Error() string {
	return fmt.Sprintf("weak password: %s", strings.Join(e.Reasons, "; "))
}

// Messages flattens err into user-facing strings.
func Messages(err error) []string {
	if err == nil {
		return nil
	}
	var verr *ValidationError
	if stderrors.As(err, &verr) {
		return append([]string(nil), verr.Problems...)
	}
	var werr *WeakPasswordError
	if stderrors.As(err, &werr) {
		return append([]string(nil), werr.Reasons...)
	}
	if KindOf(err) == KindInternal {
		return []string{"internal error"}
	}
	return []string{err.Error()}
}
