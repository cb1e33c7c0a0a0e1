package errors

import (
	"fmt"
)

// ParseError represents a theme source that could not be read or decoded.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures schema violations in a theme source file. These
// are reported before a definition is built; definition-level failures use
// theme.DomainError.
type ValidationError struct {
	Path    string
	Line    int
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

// NewSourceValidationError constructs a ValidationError tied to a position in
// a source file.
func NewSourceValidationError(path string, line int, field, message string, err error) error {
	return &ValidationError{Path: path, Line: line, Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}

	prefix := "validation error"
	switch {
	case e.Path != "" && e.Line > 0:
		prefix = fmt.Sprintf("validation error: %s:%d", e.Path, e.Line)
	case e.Path != "":
		prefix = fmt.Sprintf("validation error: %s", e.Path)
	}

	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", prefix, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
