package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so transport layers can map them without
// string matching.
type ErrorKind string

const (
	KindNotFound          ErrorKind = "NOT_FOUND"
	KindValidation        ErrorKind = "VALIDATION"
	KindInvalidTransition ErrorKind = "INVALID_TRANSITION"
	KindSchemaMismatch    ErrorKind = "SCHEMA_MISMATCH"
	KindGenerationFailed  ErrorKind = "GENERATION_FAILED"
	KindStoreUnavailable  ErrorKind = "STORE_UNAVAILABLE"
)

type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func NewError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func WrapError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// IsKind reports whether any error in err's chain is a *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var mErr *Error
	if errors.As(err, &mErr) {
		return mErr.Kind == kind
	}
	return false
}

// KindOf returns the kind of the first *Error in err's chain, or "" when none.
func KindOf(err error) ErrorKind {
	var mErr *Error
	if errors.As(err, &mErr) {
		return mErr.Kind
	}
	return ""
}

func NotFound(format string, args ...interface{}) *Error {
	return NewError(KindNotFound, format, args...)
}

func Invalid(format string, args ...interface{}) *Error {
	return NewError(KindValidation, format, args...)
}
