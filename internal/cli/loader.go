package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/kindex/internal/compiler"
	"github.com/roach88/kindex/internal/schema"
)

// LoadMode controls how errors are handled during definition loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the results of loading definitions from a directory.
type LoadResult struct {
	Definitions []*schema.Definition // sorted by name
	CUEValue    cue.Value            // The raw CUE value for additional processing
	FileCount   int                  // Number of CUE files found
}

// LoadError represents an error that occurred during definition loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadDefinitions loads and compiles the CUE definitions in a directory.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
func LoadDefinitions(dir string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("definitions directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing definitions directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	cfg := &load.Config{Dir: dir}
	instances := load.Instances([]string{"."}, cfg)
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}

	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	result := &LoadResult{
		CUEValue:    value,
		FileCount:   len(cueFiles),
		Definitions: []*schema.Definition{},
	}

	var errs []error
	defsVal := value.LookupPath(cue.ParsePath("definition"))
	if defsVal.Exists() {
		iter, iterErr := defsVal.Fields()
		if iterErr != nil {
			return result, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating definitions: %v", iterErr)}}
		}
		for iter.Next() {
			def, compileErr := compiler.CompileDefinition(iter.Value())
			if compileErr != nil {
				errs = append(errs, convertCompileError(compileErr, "definition."+iter.Label()))
				if mode == LoadModeFailFast {
					return result, errs
				}
				continue
			}
			result.Definitions = append(result.Definitions, def)
		}
	}

	if len(result.Definitions) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no definitions found"})
	}

	// Field iteration follows declaration order; output is sorted by name.
	slices.SortFunc(result.Definitions, func(a, b *schema.Definition) int {
		return strings.Compare(a.Name(), b.Name())
	})

	return result, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		code := MapFieldToErrorCode(compileErr.Field)
		var defErr *schema.DefinitionError
		if errors.As(err, &defErr) {
			code = MapDefinitionErrorCode(defErr.Code)
		}
		return &LoadError{
			Code:    code,
			Message: fmt.Sprintf("%s: %s", context, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeStore       = "E008" // Database error

	// Definition errors
	ErrCodeDefinitionCells = "E101" // Missing or invalid cells block
	ErrCodeInvalidStream   = "E102" // Unknown stream role
	ErrCodeInvalidKind     = "E103" // Unknown content kind
	ErrCodeInvalidCell     = "E104" // Malformed cell declaration
	ErrCodeContainment     = "E105" // Containment structure (unknown child, cycle, roots)

	// Collection errors
	ErrCodeSchemaLookup   = "E201" // Cell label with no schema entry
	ErrCodeMalformedTerm  = "E202" // Cell content disagrees with its kind
	ErrCodeTermDecode     = "E203" // Term document could not be decoded
	ErrCodeDefinitionPick = "E204" // Requested definition not found or ambiguous

	// Scenario errors
	ErrCodeScenarioFailed = "E301" // One or more conformance scenarios failed
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch field {
	case "cells":
		return ErrCodeDefinitionCells
	case "stream":
		return ErrCodeInvalidStream
	case "kind":
		return ErrCodeInvalidKind
	case "cell":
		return ErrCodeInvalidCell
	case "cue":
		return ErrCodeBuildFailed
	default:
		return ErrCodeGeneric
	}
}

// MapDefinitionErrorCode maps a structural definition error to an error code.
func MapDefinitionErrorCode(code schema.DefinitionErrorCode) string {
	switch code {
	case schema.ErrCodeInvalidStream:
		return ErrCodeInvalidStream
	case schema.ErrCodeInvalidKind:
		return ErrCodeInvalidKind
	case schema.ErrCodeEmptyLabel, schema.ErrCodeDuplicateCell:
		return ErrCodeInvalidCell
	case schema.ErrCodeEmptyDefinition:
		return ErrCodeDefinitionCells
	default:
		return ErrCodeContainment
	}
}
