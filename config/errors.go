package config

import (
	"fmt"
	"strings"
)

// SchemaViolationError reports a configuration document that does not conform
// to its variant's schema: wrong shapes, unknown fields on closed variants,
// missing required fields, or invalid field values.
type SchemaViolationError struct {
	Field  string // Offending field path, if attributable
	Reason string // Human-readable explanation
}

func (e *SchemaViolationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("schema violation at %q: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("schema violation: %s", e.Reason)
}

// NewSchemaViolationError creates a SchemaViolationError for a field.
func NewSchemaViolationError(field, reason string) *SchemaViolationError {
	return &SchemaViolationError{Field: field, Reason: reason}
}

// UnknownVariantError reports an agent_class value outside the recognized set.
type UnknownVariantError struct {
	Variant string
	Known   []Variant
}

func (e *UnknownVariantError) Error() string {
	known := make([]string, len(e.Known))
	for i, v := range e.Known {
		known[i] = string(v)
	}
	return fmt.Sprintf("unknown agent variant %q (known: %s)", e.Variant, strings.Join(known, ", "))
}
