package store

import (
	"errors"
	"fmt"
)

var (
	ErrClosed           = errors.New("store closed")
	ErrUnsupportedEvent = errors.New("unsupported event")
	ErrInvalidPath      = errors.New("invalid path")
)

// DataError reports a stored leaf that cannot be decoded.
type DataError struct {
	Path string
	Data []byte
	Err  error
}

func dataErrf(path string, data []byte, err error) error {
	return &DataError{path, data, err}
}

func (e *DataError) Unwrap() error {
	return e.Err
}

func (e *DataError) Error() string {
	const maxLen = 64
	if len(e.Data) > maxLen {
		return fmt.Sprintf("%s: cannot decode value: %v: (%d) %x...", e.Path, e.Err, len(e.Data), e.Data[:maxLen])
	}
	return fmt.Sprintf("%s: cannot decode value: %v: (%d) %x", e.Path, e.Err, len(e.Data), e.Data)
}

// OpError wraps a failure of a single store operation at a given location.
type OpError struct {
	Op   string
	Path string
	Err  error
}

func opErrf(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{op, path, err}
}

func (e *OpError) Unwrap() error {
	return e.Err
}

func (e *OpError) Error() string {
	return fmt.Sprintf("store: %s /%s: %v", e.Op, e.Path, e.Err)
}
