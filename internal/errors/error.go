package errors

import (
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig  Category = "config"
	CategoryNetwork Category = "network"
	CategoryProxy   Category = "proxy"
	CategoryCompile Category = "compile"
	CategoryWatch   Category = "watch"
	CategoryCLI     Category = "cli"
)

// AutofeError is a structured error with a stable code, a detail
// paragraph, and an optional fix suggestion.
type AutofeError struct {
	// Code is a unique error identifier (e.g., "E200").
	Code string

	// Category is the error type (config, network, proxy, ...).
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
func (e *AutofeError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *AutofeError) Unwrap() error {
	return e.Wrapped
}

// WithDetail adds a detailed explanation to the error.
func (e *AutofeError) WithDetail(d string) *AutofeError {
	e.Detail = d
	return e
}

// WithDetailf adds a formatted detailed explanation to the error.
func (e *AutofeError) WithDetailf(format string, args ...any) *AutofeError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *AutofeError) WithSuggestion(s string) *AutofeError {
	e.Suggestion = s
	return e
}

// Wrap wraps another error.
func (e *AutofeError) Wrap(err error) *AutofeError {
	e.Wrapped = err
	return e
}

// New creates an AutofeError from a registered error code.
func New(code string) *AutofeError {
	template, ok := registry[code]
	if !ok {
		return &AutofeError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &AutofeError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
	}
}

// Newf creates a new AutofeError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *AutofeError {
	return &AutofeError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in an AutofeError.
func FromError(err error, code string) *AutofeError {
	if err == nil {
		return nil
	}
	if ae, ok := err.(*AutofeError); ok {
		return ae
	}
	return New(code).Wrap(err)
}

// Is reports whether err carries the given error code.
func Is(err error, code string) bool {
	if err == nil {
		return false
	}
	ae, ok := err.(*AutofeError)
	return ok && ae.Code == code
}
