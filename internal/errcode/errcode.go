// Package errcode classifies the failures of the file-storage API.
//
// Every failure the core reports to its callers carries one stable Code.
// The HTTP glue maps codes to status codes; the CLI maps them to exit codes.
// Errors without a Code are unexpected and surface as internal errors.
package errcode

import (
	"errors"
	"fmt"
)

// Code categorizes a failure.
type Code string

const (
	// InvalidName indicates an empty, non-string or over-long file name.
	InvalidName Code = "InvalidName"

	// ForbiddenCharacters indicates a file name containing "..", "/" or "\".
	ForbiddenCharacters Code = "ForbiddenCharacters"

	// PathEscape indicates a name that resolves outside the base directory.
	PathEscape Code = "PathEscape"

	// ContentTooLarge indicates a payload above the content size cap.
	ContentTooLarge Code = "ContentTooLarge"

	// NotFound indicates the target path does not exist.
	NotFound Code = "NotFound"

	// IsADirectory indicates the target path names a directory.
	IsADirectory Code = "IsADirectory"

	// PermissionDenied indicates the OS refused access to the target.
	PermissionDenied Code = "PermissionDenied"

	// InsufficientSpace indicates the disk (or quota) is full.
	InsufficientSpace Code = "InsufficientSpace"
)

// Error is a classified failure.
type Error struct {
	// Code identifies the failure category.
	Code Code

	// Message is a human-readable description, suitable for clients.
	Message string

	// Name is the client-supplied file name, when one was involved.
	Name string

	// Err is the underlying cause (optional).
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error for the given file name.
func New(code Code, name, message string) *Error {
	return &Error{Code: code, Name: name, Message: message}
}

// Wrap creates a classified error around an underlying cause.
func Wrap(code Code, name, message string, err error) *Error {
	return &Error{Code: code, Name: name, Message: message, Err: err}
}

// CodeOf extracts the classification of err.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

// Is reports whether err is classified as code.
func Is(err error, code Code) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

// IsValidation reports whether err is an input-validation failure.
// Validation failures are terminal: retrying the same input cannot succeed.
func IsValidation(err error) bool {
	c, ok := CodeOf(err)
	if !ok {
		return false
	}
	switch c {
	case InvalidName, ForbiddenCharacters, PathEscape, ContentTooLarge:
		return true
	}
	return false
}
