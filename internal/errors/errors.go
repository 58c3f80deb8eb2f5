// Package errors provides classified errors for blogsmith.
//
// Errors carry a category so callers can decide propagation policy without
// string matching: content errors are local to one document and reported,
// config and environment errors are fatal to the invocation.
package errors

import (
	"errors"
	"fmt"
)

// Category classifies an error for propagation policy.
type Category string

const (
	// CategoryContent marks errors local to a single source document
	// (malformed frontmatter, missing layout, bad filename). A content
	// error never aborts the rest of a build.
	CategoryContent Category = "content"

	// CategoryConfig marks configuration load/validation errors.
	CategoryConfig Category = "config"

	// CategoryEnvironment marks errors from the process environment
	// (port already bound, unreadable directories). Always fatal.
	CategoryEnvironment Category = "environment"

	// CategoryInternal marks programming errors and broken invariants.
	CategoryInternal Category = "internal"
)

// ClassifiedError is an error with a category and an optional source path.
type ClassifiedError struct {
	Category Category
	Path     string // offending file or directory, when known
	Message  string
	Cause    error
}

func (e *ClassifiedError) Error() string {
	switch {
	case e.Path != "" && e.Cause != nil:
		return fmt.Sprintf("%s: %s: %s: %v", e.Category, e.Path, e.Message, e.Cause)
	case e.Path != "":
		return fmt.Sprintf("%s: %s: %s", e.Category, e.Path, e.Message)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Cause)
	default:
		return fmt.Sprintf("%s: %s", e.Category, e.Message)
	}
}

func (e *ClassifiedError) Unwrap() error { return e.Cause }

// Content creates a content error tied to a source file.
func Content(path, message string) *ClassifiedError {
	return &ClassifiedError{Category: CategoryContent, Path: path, Message: message}
}

// ContentWrap wraps an underlying cause as a content error.
func ContentWrap(err error, path, message string) *ClassifiedError {
	return &ClassifiedError{Category: CategoryContent, Path: path, Message: message, Cause: err}
}

// Config creates a configuration error.
func Config(message string) *ClassifiedError {
	return &ClassifiedError{Category: CategoryConfig, Message: message}
}

// ConfigWrap wraps an underlying cause as a configuration error.
func ConfigWrap(err error, message string) *ClassifiedError {
	return &ClassifiedError{Category: CategoryConfig, Message: message, Cause: err}
}

// Environment creates an environment error.
func Environment(message string) *ClassifiedError {
	return &ClassifiedError{Category: CategoryEnvironment, Message: message}
}

// EnvironmentWrap wraps an underlying cause as an environment error.
func EnvironmentWrap(err error, message string) *ClassifiedError {
	return &ClassifiedError{Category: CategoryEnvironment, Message: message, Cause: err}
}

// Internal creates an internal error.
func Internal(message string) *ClassifiedError {
	return &ClassifiedError{Category: CategoryInternal, Message: message}
}

// CategoryOf returns the category of err, or CategoryInternal for
// unclassified errors.
func CategoryOf(err error) Category {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Category
	}
	return CategoryInternal
}

// IsContent reports whether err is a content error.
func IsContent(err error) bool {
	return CategoryOf(err) == CategoryContent
}
