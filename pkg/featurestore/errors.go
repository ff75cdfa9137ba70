package featurestore

import (
	"errors"
	"fmt"
)

// ErrorCode classifies feature-store domain failures.
type ErrorCode string

// Error codes surfaced by the SDK and the metadata service.
const (
	CodeValidation ErrorCode = "VALIDATION"
	CodeAPI        ErrorCode = "API"
	CodeNotFound   ErrorCode = "NOT_FOUND"
	CodeAuth       ErrorCode = "AUTH"
	CodeJobFailed  ErrorCode = "JOB_FAILED"
)

// Error is the feature-store domain error: metadata, query resolution and
// validation failures. Raw storage failures stay plain I/O errors so callers
// can tell the two categories apart with errors.As.
type Error struct {
	Code    ErrorCode
	Message string
	// DevMessage carries the server-side developer message when present.
	DevMessage string
	Err        error
}

// NewError creates a domain error with no underlying cause.
func NewError(code ErrorCode, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// WrapError creates a domain error wrapping an underlying cause.
func WrapError(code ErrorCode, msg string, err error) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("featurestore: %s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("featurestore: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// IsFeatureStoreError reports whether err is (or wraps) a domain error.
func IsFeatureStoreError(err error) bool {
	var fe *Error
	return errors.As(err, &fe)
}
