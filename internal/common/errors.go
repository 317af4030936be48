package common

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors shared across the pipeline.
var (
	// ErrDuplicateDocument marks a document whose identity key already has an
	// active contract row. Callers normalize it to a "skipped" outcome, never a
	// failure.
	ErrDuplicateDocument = errors.New("duplicate document")

	// ErrTimeout marks an invocation cut short by the caller's deadline.
	ErrTimeout = errors.New("timeout")
)

// ValidationError is returned by the schema mapper when required data is
// missing or unparsable. Field names the offending canonical field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// ConstraintViolation is returned by the persistence writer when a uniqueness
// rule is broken at write time. Rule names the violated rule, Value the
// offending value.
type ConstraintViolation struct {
	Rule  string
	Value string
	Cause error
}

func (e *ConstraintViolation) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("uniqueness rule %q violated by %q: %v", e.Rule, e.Value, e.Cause)
	}
	return fmt.Sprintf("uniqueness rule %q violated by %q", e.Rule, e.Value)
}

func (e *ConstraintViolation) Unwrap() error { return e.Cause }

// ExtractionError wraps a text-extraction (OCR) collaborator failure.
type ExtractionError struct {
	Document string
	Cause    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("text extraction failed for %q: %v", e.Document, e.Cause)
}

func (e *ExtractionError) Unwrap() error { return e.Cause }

// SemanticExtractionError wraps a semantic-extraction (LLM) collaborator
// failure, including unparsable model output.
type SemanticExtractionError struct {
	Reason string
	Cause  error
}

func (e *SemanticExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("semantic extraction failed: %s: %v", e.Reason, e.Cause)
	}
	return "semantic extraction failed: " + e.Reason
}

func (e *SemanticExtractionError) Unwrap() error { return e.Cause }

// IsTimeout reports whether err stems from a context deadline or cancellation.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, ErrTimeout)
}
