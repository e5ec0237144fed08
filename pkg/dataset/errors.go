package dataset

import "github.com/pkg/errors"

// Error represents a domain error from dataset operations.
//
// These are business rule failures (no such dataset, filesystem has
// children, cross-pool rename, ...) as opposed to infrastructure errors
// (disk I/O), which are returned as plain wrapped errors.
//
// The CLI front-ends print Error messages verbatim and map every failure,
// domain or not, to a non-zero exit.
type Error struct {
	// Code is the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Name is the dataset, pool, or property name the error refers to,
	// when applicable.
	Name string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Name != "" {
		return e.Name + ": " + e.Message
	}
	return e.Message
}

// Code categorizes a dataset error.
type Code int

const (
	// CodeInvalidIdentifier indicates a malformed dataset or snapshot name.
	CodeInvalidIdentifier Code = iota

	// CodeNotFound indicates the dataset does not exist.
	CodeNotFound

	// CodeNoSuchPool indicates the owning pool does not exist, regardless of
	// the dataset's own existence state.
	CodeNoSuchPool

	// CodeExists indicates a dataset with the name already exists.
	CodeExists

	// CodeTypeMismatch indicates the identifier resolved to a different
	// dataset kind than the operation requires.
	CodeTypeMismatch

	// CodeParentMissing indicates a filesystem's parent does not exist and
	// parent creation was not requested.
	CodeParentMissing

	// CodeHasDependents indicates a filesystem has child filesystems and the
	// operation was not recursive.
	CodeHasDependents

	// CodeMismatchedNamespace indicates a cross-pool or cross-filesystem
	// operation (rename to a different pool, snapshot rename across
	// filesystems).
	CodeMismatchedNamespace

	// CodeInvalidPropertyKey indicates a property key that fails name
	// validation or contains a path separator.
	CodeInvalidPropertyKey

	// CodeInvalidPropertyFormat indicates a property assignment not of the
	// form key=value.
	CodeInvalidPropertyFormat

	// CodeUnknownField indicates an unrecognized display, sort, type, or
	// source field name.
	CodeUnknownField

	// CodeStreamDecode indicates a send stream that could not be decoded.
	CodeStreamDecode

	// CodeDiskInUse indicates pool creation on a non-empty backing
	// directory.
	CodeDiskInUse
)

// Errf builds a dataset Error with a formatted message.
func Errf(code Code, name, format string, args ...any) *Error {
	return &Error{Code: code, Name: name, Message: errors.Errorf(format, args...).Error()}
}

// CodeOf returns the domain code of err, unwrapping as needed. The second
// result is false when err carries no dataset Error.
func CodeOf(err error) (Code, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Code, true
	}
	return 0, false
}

// IsCode reports whether err carries a dataset Error with the given code.
func IsCode(err error, code Code) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}
