// Package diag implements the typed diagnostic catalog: numeric error codes
// grouped by class, printf-style cause templates, optional
// file positions, and fixed suggestion lists. A diag.Error travels up the
// pipeline as an ordinary error and is rendered once at the CLI boundary.
package diag

import (
	"fmt"
)

// Error code classes. Codes are stable identifiers printed to the user.
const (
	// 11200xxx unknown
	CodeUndefined = 11200000

	// 11201xxx dependency
	CodeLoadLibraryFail = 11201001

	// 11203xxx config
	CodeOpenJSONFail      = 11203001
	CodeJSONFormat        = 11203002
	CodeJSONNodeMismatch  = 11203003
	CodeJSONNodeMissing   = 11203004
	CodeJSONNodeEmpty     = 11203005
	CodeJSONNotOneMember  = 11203006
	CodeJSONInvalidNode   = 11203007

	// 11204xxx file resource
	CodeCreateFile = 11204001
	CodeRemoveFile = 11204003
	CodeCopyFile   = 11204004
	CodeOpenFile   = 11204005
	CodeReadFile   = 11204006

	// 11210xxx command parse
	CodeUnknownCommand        = 11210000
	CodeUnknownOption         = 11210001
	CodeMissingArgument       = 11210002
	CodeInvalidArgument       = 11210003
	CodeInvalidInput          = 11210004
	CodeDuplicateInput        = 11210005
	CodeInvalidOutput         = 11210007
	CodeInvalidStartID        = 11210013
	CodeInvalidTargetConfig   = 11210016
	CodeInvalidSystemDefined  = 11210017
	CodeInvalidThreadCount    = 11210026
	CodeInvalidIgnoreFile     = 11210027

	// 11211xxx resource pack
	CodeOutputExist           = 11211001
	CodeConfigJSONMissing     = 11211002
	CodeInvalidModuleType     = 11211003
	CodeExclusiveStartID      = 11211004
	CodeIDDefinedInvalidType  = 11211007
	CodeIDDefinedInvalidID    = 11211008
	CodeIDDefinedOrderMismatch = 11211010
	CodeIDDefinedSameID       = 11211012
	CodeModuleNameNotFound    = 11211014

	CodeInvalidResourcePath     = 11211101
	CodeInvalidLimitKey         = 11211103
	CodeInvalidResourceDir      = 11211104
	CodeInvalidTranslatePriority = 11211106
	CodeInvalidElementType      = 11211107
	CodeInvalidColorValue       = 11211108
	CodeInvalidResourceRef      = 11211109
	CodeParentEmpty             = 11211110
	CodeArrayTooLarge           = 11211111
	CodeInvalidQuantity         = 11211112
	CodeDuplicateQuantity       = 11211113
	CodeQuantityNoOther         = 11211114
	CodeInvalidSymbol           = 11211115
	CodeInvalidResourceName     = 11211116
	CodeResourceDuplicate       = 11211117
	CodeResourceIDExceed        = 11211118
	CodeResourceIDNotDefined    = 11211119
	CodeRefNotDefined           = 11211120
	CodeInvalidResourceIndex    = 11211124

	// 11212xxx dump
	CodeParseHap = 11212001
)

// Error is one rendered diagnostic. New substitutes the arguments into the
// catalog template when the diagnostic is built; formatting is not deferred
// to Error or Render, which print the stored Cause.
type Error struct {
	Code      int
	Category  string
	Cause     string
	Position  string
	Solutions []string
	wrapped   error
}

// New builds an Error from the catalog entry for code, substituting args
// into the cause template. An unknown code falls back to the undefined
// entry.
func New(code int, args ...any) *Error {
	entry, ok := catalog[code]
	if !ok {
		entry = catalog[CodeUndefined]
		args = []any{fmt.Sprintf("unknown diagnostic code %d", code)}
	}
	cause := entry.cause
	if len(args) > 0 {
		cause = fmt.Sprintf(entry.cause, args...)
	}
	return &Error{
		Code:      code,
		Category:  entry.category,
		Cause:     cause,
		Solutions: entry.solutions,
	}
}

// At records the file position the diagnostic refers to.
func (e *Error) At(position string) *Error {
	e.Position = position
	return e
}

// Wrap records an underlying error for errors.Is/As traversal.
func (e *Error) Wrap(err error) *Error {
	e.wrapped = err
	return e
}

// Error implements the error interface with a single-line rendering; the
// multi-line block is produced by Render.
func (e *Error) Error() string {
	if e.Position != "" {
		return fmt.Sprintf("[%d] %s\nat %s", e.Code, e.Cause, e.Position)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Cause)
}

// Unwrap returns the wrapped underlying error, if any.
func (e *Error) Unwrap() error {
	return e.wrapped
}
