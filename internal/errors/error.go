package errors

import (
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryStartup Category = "startup"
	CategoryCLI     Category = "cli"
)

// EaselError is a structured error with a code, detail, and a fix suggestion.
type EaselError struct {
	// Code is a unique error identifier (e.g., "E101").
	Code string

	// Category is the error type (startup, cli).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *EaselError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *EaselError) Unwrap() error {
	return e.Wrapped
}

// WithDetail adds a detailed explanation to the error.
func (e *EaselError) WithDetail(d string) *EaselError {
	e.Detail = d
	return e
}

// WithDetailf adds a formatted detailed explanation to the error.
func (e *EaselError) WithDetailf(format string, args ...any) *EaselError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *EaselError) WithSuggestion(s string) *EaselError {
	e.Suggestion = s
	return e
}

// Wrap wraps another error.
func (e *EaselError) Wrap(err error) *EaselError {
	e.Wrapped = err
	return e
}

// New creates an EaselError from a registered error code.
func New(code string) *EaselError {
	template, ok := registry[code]
	if !ok {
		return &EaselError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &EaselError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
	}
}

// Newf creates a new EaselError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *EaselError {
	return &EaselError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in an EaselError.
func FromError(err error, code string) *EaselError {
	if err == nil {
		return nil
	}
	if ee, ok := err.(*EaselError); ok {
		return ee
	}
	return New(code).Wrap(err)
}
