package config

import (
	"github.com/invopop/jsonschema"
)

// Schema reflects the JSON Schema of one variant's configuration document,
// for editor tooling and external validation.
func Schema(v Variant) (*jsonschema.Schema, error) {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
	}
	switch v {
	case VariantBase:
		return reflector.Reflect(&BaseAgentConfig{}), nil
	case VariantLlm:
		return reflector.Reflect(&LlmAgentConfig{}), nil
	case VariantLoop:
		return reflector.Reflect(&LoopAgentConfig{}), nil
	case VariantParallel:
		return reflector.Reflect(&ParallelAgentConfig{}), nil
	case VariantSequential:
		return reflector.Reflect(&SequentialAgentConfig{}), nil
	default:
		return nil, &UnknownVariantError{Variant: string(v), Known: KnownVariants}
	}
}

// Schemas reflects the JSON Schemas of all variants keyed by class name.
func Schemas() map[Variant]*jsonschema.Schema {
	out := make(map[Variant]*jsonschema.Schema, len(KnownVariants))
	for _, v := range KnownVariants {
		schema, err := Schema(v)
		if err != nil {
			continue
		}
		out[v] = schema
	}
	return out
}
