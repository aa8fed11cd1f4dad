package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"time"
)

// Error types for the project post-processor
type ErrorType string

const (
	// Input errors
	ErrorTypeConfigRead    ErrorType = "config_read"
	ErrorTypeDocumentParse ErrorType = "document_parse"

	// Patch outcomes that are not failures
	ErrorTypePatchSkipped ErrorType = "patch_skipped"

	// File errors
	ErrorTypeFileNotFound ErrorType = "file_not_found"
	ErrorTypePermission   ErrorType = "permission"
	ErrorTypeFileIO       ErrorType = "file_io"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// ConfigReadError reports a response file that could not be read
type ConfigReadError struct {
	Type       ErrorType
	Path       string
	Underlying error
	Timestamp  time.Time
}

// NewConfigReadError creates a new response file read error
func NewConfigReadError(path string, err error) *ConfigReadError {
	return &ConfigReadError{
		Type:       ErrorTypeConfigRead,
		Path:       path,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigReadError) Error() string {
	return fmt.Sprintf("cannot read response file %s: %v", e.Path, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As
func (e *ConfigReadError) Unwrap() error {
	return e.Underlying
}

// DocumentParseError represents a malformed project or solution document
type DocumentParseError struct {
	Type       ErrorType
	Path       string
	Line       int
	Underlying error
	Timestamp  time.Time
}

// NewDocumentParseError creates a new parse error. Line is 0 when unknown.
func NewDocumentParseError(path string, line int, err error) *DocumentParseError {
	return &DocumentParseError{
		Type:       ErrorTypeDocumentParse,
		Path:       path,
		Line:       line,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// WithPath sets the document path, which the parser does not know
func (e *DocumentParseError) WithPath(path string) *DocumentParseError {
	e.Path = path
	return e
}

// Error implements the error interface
func (e *DocumentParseError) Error() string {
	where := e.Path
	if where == "" {
		where = "<input>"
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error at %s:%d: %v", where, e.Line, e.Underlying)
	}
	return fmt.Sprintf("parse error in %s: %v", where, e.Underlying)
}

// Unwrap returns the underlying error
func (e *DocumentParseError) Unwrap() error {
	return e.Underlying
}

// PatchSkipped reports a directive that had no place to go in the document.
// It is informational: callers log it and carry on.
type PatchSkipped struct {
	Type      ErrorType
	Patch     string
	Reason    string
	Timestamp time.Time
}

// NewPatchSkipped creates a new skipped-patch notice
func NewPatchSkipped(patch, reason string) *PatchSkipped {
	return &PatchSkipped{
		Type:      ErrorTypePatchSkipped,
		Patch:     patch,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

// Error implements the error interface
func (e *PatchSkipped) Error() string {
	return fmt.Sprintf("patch %s skipped: %s", e.Patch, e.Reason)
}

// IsPatchSkipped reports whether err is, or wraps, a PatchSkipped notice
func IsPatchSkipped(err error) bool {
	var skipped *PatchSkipped
	return errors.As(err, &skipped)
}

// FileError represents a file-related error
type FileError struct {
	Type       ErrorType
	Path       string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewFileError creates a new file error
func NewFileError(op, path string, err error) *FileError {
	errorType := ErrorTypeFileIO
	switch {
	case errors.Is(err, fs.ErrNotExist):
		errorType = ErrorTypeFileNotFound
	case errors.Is(err, fs.ErrPermission):
		errorType = ErrorTypePermission
	}

	return &FileError{
		Type:       errorType,
		Path:       path,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *FileError) Error() string {
	return fmt.Sprintf("file %s failed for %s: %v", e.Operation, e.Path, e.Underlying)
}

// Unwrap returns the underlying error
func (e *FileError) Unwrap() error {
	return e.Underlying
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// MultiError represents multiple errors
type MultiError struct {
	Errors []error
}

// NewMultiError creates a new multi-error
func NewMultiError(errs []error) *MultiError {
	// Filter out nil errors
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

// ErrorOrNil returns nil when no errors were collected
func (e *MultiError) ErrorOrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

// Error implements the error interface
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

// Unwrap returns all errors
func (e *MultiError) Unwrap() []error {
	return e.Errors
}
