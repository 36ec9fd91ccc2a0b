package mirror

import (
	"errors"
	"fmt"

	"github.com/andreyvit/mirror/store"
)

var (
	// ErrOwnershipViolation is returned by Destroy when a model with private
	// fields does not belong to the caller.
	ErrOwnershipViolation = errors.New("cannot destroy a model with private fields that does not belong to you")

	// ErrInvalidLocation is returned by New when the location is not nested
	// at least two levels below the root (root/collection/id).
	ErrInvalidLocation = errors.New("model location must be root/collection/id")
)

// ReadError reports a failed read or subscription of a store location.
type ReadError struct {
	Op   string
	Path string
	Err  error
}

func readErrf(op string, ref store.Ref, err error) error {
	return &ReadError{op, ref.Path(), err}
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("mirror: %s /%s: %v", e.Op, e.Path, e.Err)
}

// WriteError reports a failed write or removal of a store location.
type WriteError struct {
	Op   string
	Path string
	Err  error
}

func writeErrf(op string, ref store.Ref, err error) error {
	return &WriteError{op, ref.Path(), err}
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("mirror: %s /%s: %v", e.Op, e.Path, e.Err)
}

// FieldError reports a field name or derived unique key that cannot be used
// as a store key.
type FieldError struct {
	Field string
	Msg   string
	Err   error
}

func fieldErrf(field string, err error, format string, args ...any) error {
	return &FieldError{field, fmt.Sprintf(format, args...), err}
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func (e *FieldError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mirror: field %q: %s: %v", e.Field, e.Msg, e.Err)
	}
	return fmt.Sprintf("mirror: field %q: %s", e.Field, e.Msg)
}
