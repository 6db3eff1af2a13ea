package engine

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Kind classifies an engine error
type Kind int

// Error kinds
const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindDuplicateEdge
	KindSelfReference
	KindAuthorization
	KindBlockExists
	KindInvalidQuery
	KindStorageUnavailable
)

// String returns the name of the kind
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindDuplicateEdge:
		return "duplicate_edge"
	case KindSelfReference:
		return "self_reference"
	case KindAuthorization:
		return "authorization"
	case KindBlockExists:
		return "block_exists"
	case KindInvalidQuery:
		return "invalid_query"
	case KindStorageUnavailable:
		return "storage_unavailable"
	default:
		return "unknown"
	}
}

// Error represents an engine error with a kind and a descriptive message
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// NewError creates a new engine error
func NewError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped cause, if any
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of an engine error, or 0 for other errors
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsKind reports whether err is an engine error of the given kind
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// storageErr wraps an unexpected store failure as StorageUnavailable.
// Engine errors pass through untouched.
func storageErr(err error, operation string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{
		Kind:    KindStorageUnavailable,
		Message: fmt.Sprintf("storage failure during %s", operation),
		Err:     err,
	}
}

// isDuplicate reports whether err is a unique-constraint violation
func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
