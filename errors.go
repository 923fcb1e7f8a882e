// Copyright 2026 The go-dcimg Authors
// SPDX-License-Identifier: MIT

package dcimg

import (
	"errors"
	"fmt"
)

// IOError wraps an underlying I/O failure from the byte source (a short
// read, a failed seek, a closed file handle).
type IOError struct {
	Err error
}

func (e *IOError) Error() string { return "dcimg: io error: " + e.Err.Error() }
func (e *IOError) Unwrap() error { return e.Err }
func (e *IOError) Is(target error) bool {
	_, ok := target.(*IOError)
	return ok
}

func newIOError(err error) error {
	return &IOError{Err: err}
}

func newIOErrorf(format string, args ...any) error {
	return &IOError{Err: fmt.Errorf(format, args...)}
}

// IsIOError reports whether err is an *IOError.
func IsIOError(err error) bool {
	return errors.Is(err, &IOError{})
}

// FormatError signals that the file does not conform to the DCIMG wire
// format: a bad magic, an unknown version, a size-field mismatch, an
// unsupported pixel type, or a footer version mismatch.
type FormatError struct {
	Err error
}

func (e *FormatError) Error() string { return "dcimg: format error: " + e.Err.Error() }
func (e *FormatError) Unwrap() error { return e.Err }
func (e *FormatError) Is(target error) bool {
	_, ok := target.(*FormatError)
	return ok
}

func newFormatErrorf(format string, args ...any) error {
	return &FormatError{Err: fmt.Errorf(format, args...)}
}

// IsFormatError reports whether err is a *FormatError.
func IsFormatError(err error) bool {
	return errors.Is(err, &FormatError{})
}

// ArgError signals a caller mistake: an out-of-range plane index, a
// destination buffer of the wrong size, or a region that exceeds the
// frame bounds.
type ArgError struct {
	Err error
}

func (e *ArgError) Error() string { return "dcimg: argument error: " + e.Err.Error() }
func (e *ArgError) Unwrap() error { return e.Err }
func (e *ArgError) Is(target error) bool {
	_, ok := target.(*ArgError)
	return ok
}

func newArgErrorf(format string, args ...any) error {
	return &ArgError{Err: fmt.Errorf(format, args...)}
}

// IsArgError reports whether err is an *ArgError.
func IsArgError(err error) bool {
	return errors.Is(err, &ArgError{})
}

// StateError signals that an operation was invoked while the Reader was
// in the wrong lifecycle state (e.g. ReadPlane after Close).
type StateError struct {
	Err error
}

func (e *StateError) Error() string { return "dcimg: state error: " + e.Err.Error() }
func (e *StateError) Unwrap() error { return e.Err }
func (e *StateError) Is(target error) bool {
	_, ok := target.(*StateError)
	return ok
}

func newStateErrorf(format string, args ...any) error {
	return &StateError{Err: fmt.Errorf(format, args...)}
}

// IsStateError reports whether err is a *StateError.
func IsStateError(err error) bool {
	return errors.Is(err, &StateError{})
}
