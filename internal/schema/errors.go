package schema

import (
	"errors"
	"fmt"
)

// DefinitionErrorCode categorizes definition construction failures.
type DefinitionErrorCode string

const (
	ErrCodeEmptyDefinition  DefinitionErrorCode = "EMPTY_DEFINITION"
	ErrCodeEmptyLabel       DefinitionErrorCode = "EMPTY_LABEL"
	ErrCodeDuplicateCell    DefinitionErrorCode = "DUPLICATE_CELL"
	ErrCodeUnknownChild     DefinitionErrorCode = "UNKNOWN_CHILD"
	ErrCodeInvalidKind      DefinitionErrorCode = "INVALID_KIND"
	ErrCodeInvalidStream    DefinitionErrorCode = "INVALID_STREAM"
	ErrCodeMultipleParents  DefinitionErrorCode = "MULTIPLE_PARENTS"
	ErrCodeContainmentCycle DefinitionErrorCode = "CONTAINMENT_CYCLE"
	ErrCodeNoRoot           DefinitionErrorCode = "NO_ROOT"
	ErrCodeMultipleRoots    DefinitionErrorCode = "MULTIPLE_ROOTS"
)

// DefinitionError reports an inconsistent cell structure.
type DefinitionError struct {
	Code    DefinitionErrorCode
	Label   string
	Message string
}

func (e *DefinitionError) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("%s: %s (cell=%s)", e.Code, e.Message, e.Label)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsDefinitionError reports whether err (or anything it wraps) is a
// *DefinitionError with the given code.
func IsDefinitionError(err error, code DefinitionErrorCode) bool {
	var de *DefinitionError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}
