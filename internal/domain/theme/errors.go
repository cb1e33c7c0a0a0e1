package theme

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode identifies the category of a theme definition failure. Callers
// branch on the code rather than on concrete error types.
type ErrorCode string

const (
	ErrCodeMissingDescriptor    ErrorCode = "MISSING_DESCRIPTOR"
	ErrCodeMissingDefault       ErrorCode = "MISSING_DEFAULT"
	ErrCodeSelfExtension        ErrorCode = "SELF_EXTENSION"
	ErrCodeNotFound             ErrorCode = "DEFINITION_NOT_FOUND"
	ErrCodeOverrideNotInherited ErrorCode = "OVERRIDE_NOT_INHERITED"
	ErrCodeCyclicExtension      ErrorCode = "CYCLIC_EXTENSION"
	ErrCodeInvalidValue         ErrorCode = "INVALID_VALUE"
	ErrCodeInvalidReference     ErrorCode = "INVALID_REFERENCE"
)

// Sentinels for errors.Is comparisons by code.
var (
	ErrMissingDefault       = &DomainError{Code: ErrCodeMissingDefault}
	ErrSelfExtension        = &DomainError{Code: ErrCodeSelfExtension}
	ErrNotFound             = &DomainError{Code: ErrCodeNotFound}
	ErrOverrideNotInherited = &DomainError{Code: ErrCodeOverrideNotInherited}
	ErrCyclicExtension      = &DomainError{Code: ErrCodeCyclicExtension}
	ErrInvalidValue         = &DomainError{Code: ErrCodeInvalidValue}
	ErrInvalidReference     = &DomainError{Code: ErrCodeInvalidReference}
)

// DomainError is the typed failure returned by definition validation and
// resolution.
type DomainError struct {
	Code    ErrorCode
	Message string
	// Descriptor is the definition being validated or resolved.
	Descriptor Descriptor
	Location   Location
	// Subject names the attribute, override target or descriptor at fault.
	Subject string
	// Path holds the extends chain for cyclic extension failures.
	Path  []Descriptor
	Cause error
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e == nil {
		return "<nil>"
	}

	var b strings.Builder
	if loc := e.Location.String(); loc != "" {
		b.WriteString(loc)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Code))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Subject != "" {
		fmt.Fprintf(&b, " %q", e.Subject)
	}
	if !e.Descriptor.IsZero() {
		fmt.Fprintf(&b, " in %s", e.Descriptor)
	}
	if len(e.Path) > 0 {
		parts := make([]string, len(e.Path))
		for i, d := range e.Path {
			parts[i] = d.String()
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(parts, " -> "))
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As usage.
func (e *DomainError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches another DomainError with the same code. A target carrying a
// subject must also match the subject.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) || e == nil || other == nil {
		return false
	}
	if e.Code != other.Code {
		return false
	}
	return other.Subject == "" || other.Subject == e.Subject
}

// CodeOf returns the code of the outermost DomainError in err's chain, or the
// empty code when there is none.
func CodeOf(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) && domainErr != nil {
		return domainErr.Code
	}
	return ""
}

// HasCode reports whether any DomainError in err's chain carries code.
func HasCode(err error, code ErrorCode) bool {
	return errors.Is(err, &DomainError{Code: code})
}

func (d *Definition) newError(code ErrorCode, message, subject string, cause error) *DomainError {
	return &DomainError{
		Code:       code,
		Message:    message,
		Descriptor: d.descriptor,
		Location:   d.location,
		Subject:    subject,
		Cause:      cause,
	}
}

// NewNotFoundError reports a descriptor that no resolver could satisfy.
// Resolver implementations return it so failures carry a consistent code.
func NewNotFoundError(target Descriptor, cause error) *DomainError {
	return &DomainError{
		Code:    ErrCodeNotFound,
		Message: "definition not found",
		Subject: target.String(),
		Cause:   cause,
	}
}

func newCycleError(path []Descriptor, loc Location) *DomainError {
	return &DomainError{
		Code:       ErrCodeCyclicExtension,
		Message:    "cyclic extends chain",
		Descriptor: path[0],
		Location:   loc,
		Path:       append([]Descriptor(nil), path...),
	}
}
