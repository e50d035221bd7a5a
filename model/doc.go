// Package model defines the provider-agnostic generation interface (Model),
// the normalized Request/Response structures exchanged with providers and a
// prefix-keyed Registry that maps model identifiers (e.g. "gpt-4o",
// "claude-sonnet-4-0") to provider adapters.
//
// Concrete adapters live in the subpackages model/openai and model/anthropic;
// MockModel provides deterministic completions for tests and examples.
package model
