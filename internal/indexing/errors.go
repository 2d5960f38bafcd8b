package indexing

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes indexing failures.
type ErrorCode string

const (
	// ErrCodeSchemaLookup indicates a cell label with no schema entry.
	// The definition and the term disagree; nothing collected can be trusted.
	ErrCodeSchemaLookup ErrorCode = "SCHEMA_LOOKUP"

	// ErrCodeMalformedTerm indicates a cell whose content does not match
	// its content kind (or the kind the schema declares for it).
	ErrCodeMalformedTerm ErrorCode = "MALFORMED_TERM"
)

// Error is returned by Collect. Both codes are hard failures: they signal
// an inconsistent definition or term, never a transient condition.
type Error struct {
	Code ErrorCode

	// Label is the offending cell label (empty for a nil cell).
	Label string

	// Path is the slash-separated label path from the root, e.g. "T/state/in".
	Path string

	Message string
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (path=%s)", e.Code, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsSchemaLookupError returns true if err is a schema lookup failure.
// Uses errors.As to handle wrapped errors.
func IsSchemaLookupError(err error) bool {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Code == ErrCodeSchemaLookup
	}
	return false
}

// IsMalformedTermError returns true if err is a malformed term failure.
// Uses errors.As to handle wrapped errors.
func IsMalformedTermError(err error) bool {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Code == ErrCodeMalformedTerm
	}
	return false
}

// NewSchemaLookupError creates an Error for a label missing from the schema.
func NewSchemaLookupError(label, path string) *Error {
	return &Error{
		Code:    ErrCodeSchemaLookup,
		Label:   label,
		Path:    path,
		Message: fmt.Sprintf("no schema entry for cell %q", label),
	}
}

// NewMalformedTermError creates an Error for a cell with inconsistent content.
func NewMalformedTermError(label, path, message string) *Error {
	return &Error{
		Code:    ErrCodeMalformedTerm,
		Label:   label,
		Path:    path,
		Message: message,
	}
}

// atPath rewrites the path of an *Error to the full path of the cell it
// was raised for. Other errors are returned unchanged.
func atPath(err error, path string) error {
	var ie *Error
	if errors.As(err, &ie) && ie.Label != "" {
		ie.Path = path
	}
	return err
}
