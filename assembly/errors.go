package assembly

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agentloom/agentloom/config"
)

// ReferenceNotFoundError reports a code reference naming no registered artifact.
type ReferenceNotFoundError struct {
	Name string
}

func (e *ReferenceNotFoundError) Error() string {
	return fmt.Sprintf("code reference %q not found in registry", e.Name)
}

// ArgumentOrderError reports a positional argument appearing after a named one.
type ArgumentOrderError struct {
	Target string // Invocation target being bound
	Index  int    // Position of the offending argument
}

func (e *ArgumentOrderError) Error() string {
	return fmt.Sprintf("invoking %s: positional argument at index %d follows a named argument", e.Target, e.Index)
}

// UnknownArgumentError reports an argument outside the target's declared
// parameter set.
type UnknownArgumentError struct {
	Target   string
	Argument string
}

func (e *UnknownArgumentError) Error() string {
	return fmt.Sprintf("invoking %s: unknown argument %q", e.Target, e.Argument)
}

// ToolResolutionError reports a tool declaration no resolution strategy could
// satisfy, listing what was attempted.
type ToolResolutionError struct {
	Name      string
	Attempted []string
}

func (e *ToolResolutionError) Error() string {
	return fmt.Sprintf("tool %q could not be resolved (attempted: %s)", e.Name, strings.Join(e.Attempted, "; "))
}

// DuplicateAgentNameError reports two siblings sharing one name.
type DuplicateAgentNameError struct {
	Name   string
	Parent string
}

func (e *DuplicateAgentNameError) Error() string {
	return fmt.Sprintf("duplicate agent name %q among sub-agents of %s", e.Name, e.Parent)
}

// CyclicReferenceError reports a configuration document reachable from itself
// through config_path references.
type CyclicReferenceError struct {
	Chain []string // Canonical document paths, first repeats at the end
}

func (e *CyclicReferenceError) Error() string {
	return fmt.Sprintf("cyclic configuration reference: %s", strings.Join(e.Chain, " -> "))
}

// DocumentLoadError reports a referenced configuration document that could
// not be loaded or parsed.
type DocumentLoadError struct {
	Path string
	Err  error
}

func (e *DocumentLoadError) Error() string {
	return fmt.Sprintf("loading configuration document %s: %v", e.Path, e.Err)
}

func (e *DocumentLoadError) Unwrap() error { return e.Err }

// BuildError wraps a failure with the chain of agent nodes enclosing it, from
// the root document down to the failing node.
type BuildError struct {
	Chain []string // Agent names from root to the failing node
	State NodeState
	Err   error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("building agent %s (state %s): %v", strings.Join(e.Chain, " -> "), e.State, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// ErrorKind classifies assembly failures for programmatic handling.
type ErrorKind string

// Recognized failure classes.
const (
	KindSchemaViolation   ErrorKind = "schema_violation"
	KindUnknownVariant    ErrorKind = "unknown_variant"
	KindReferenceNotFound ErrorKind = "reference_not_found"
	KindArgumentOrder     ErrorKind = "argument_order"
	KindUnknownArgument   ErrorKind = "unknown_argument"
	KindToolResolution    ErrorKind = "tool_resolution"
	KindDuplicateName     ErrorKind = "duplicate_agent_name"
	KindCyclicReference   ErrorKind = "cyclic_reference"
	KindDocumentLoad      ErrorKind = "document_load"
	KindOther             ErrorKind = "other"
)

// Classify maps an error to its failure class, unwrapping BuildError layers.
func Classify(err error) ErrorKind {
	var (
		schemaErr    *config.SchemaViolationError
		variantErr   *config.UnknownVariantError
		refErr       *ReferenceNotFoundError
		orderErr     *ArgumentOrderError
		unknownErr   *UnknownArgumentError
		toolErr      *ToolResolutionError
		duplicateErr *DuplicateAgentNameError
		cyclicErr    *CyclicReferenceError
		loadErr      *DocumentLoadError
	)
	switch {
	case errors.As(err, &schemaErr):
		return KindSchemaViolation
	case errors.As(err, &variantErr):
		return KindUnknownVariant
	case errors.As(err, &refErr):
		return KindReferenceNotFound
	case errors.As(err, &orderErr):
		return KindArgumentOrder
	case errors.As(err, &unknownErr):
		return KindUnknownArgument
	case errors.As(err, &toolErr):
		return KindToolResolution
	case errors.As(err, &duplicateErr):
		return KindDuplicateName
	case errors.As(err, &cyclicErr):
		return KindCyclicReference
	case errors.As(err, &loadErr):
		return KindDocumentLoad
	default:
		return KindOther
	}
}
