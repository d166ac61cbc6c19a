// errors.go - descriptive errors for asure
//
// (c) 2024 Sudhi Herle <sudhi@herle.net>
//
// Licensing Terms: GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package asure

import (
	"fmt"
)

// IOError wraps a failing system call: opendir, readdir, lstat, open,
// read, readlink, rename or unlink.
type IOError struct {
	Op   string
	Path string
	Err  error
}

// Error returns a string representation of IOError
func (e *IOError) Error() string {
	return fmt.Sprintf("asure: %s '%s': %s", e.Op, e.Path, e.Err.Error())
}

// Unwrap returns the underlying wrapped error
func (e *IOError) Unwrap() error {
	return e.Err
}

var _ error = &IOError{}

// ParseError represents a malformed surefile: a bad magic header, an
// unknown event code, an invalid hex escape, or a structural invariant
// violation (e.g. a LEAVE with no matching ENTER). It is never
// recovered from by the comparator or updater.
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("asure: parse: %s", e.Msg)
}

var _ error = &ParseError{}

// UsageError represents an argument/command parsing failure. The core
// never raises it; it exists so cmd/asure (an external collaborator per
// spec) can report CLI misuse with the same error-taxonomy shape as the
// rest of the package.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("asure: usage: %s", e.Msg)
}

var _ error = &UsageError{}
