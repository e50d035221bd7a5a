package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Dispatch decodes a raw document into the typed configuration of its
// variant, then validates it.
//
// The variant is selected by the agent_class field. When the field is absent
// or empty, a document carrying an instruction (or instruction provider) is
// treated as an LlmAgent, anything else as a BaseAgent. An unrecognized
// agent_class yields an UnknownVariantError.
func Dispatch(raw map[string]any) (AgentConfig, error) {
	variant, err := variantOf(raw)
	if err != nil {
		return nil, err
	}

	var cfg AgentConfig
	strict := true
	switch variant {
	case VariantBase:
		cfg = &BaseAgentConfig{}
		// Base is the open variant; extras land in the remain map.
		strict = false
	case VariantLlm:
		cfg = &LlmAgentConfig{}
	case VariantLoop:
		cfg = &LoopAgentConfig{}
	case VariantParallel:
		cfg = &ParallelAgentConfig{}
	case VariantSequential:
		cfg = &SequentialAgentConfig{}
	default:
		return nil, &UnknownVariantError{Variant: string(variant), Known: KnownVariants}
	}

	if err := decode(raw, cfg, strict); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// variantOf inspects the raw document and selects the configuration class.
func variantOf(raw map[string]any) (Variant, error) {
	value, present := raw["agent_class"]
	if !present || value == "" || value == nil {
		if _, ok := raw["instruction"]; ok {
			return VariantLlm, nil
		}
		if _, ok := raw["instruction_provider"]; ok {
			return VariantLlm, nil
		}
		return VariantBase, nil
	}

	name, ok := value.(string)
	if !ok {
		return "", NewSchemaViolationError("agent_class", fmt.Sprintf("must be a string, got %T", value))
	}
	for _, v := range KnownVariants {
		if name == string(v) {
			return v, nil
		}
	}
	return "", &UnknownVariantError{Variant: name, Known: KnownVariants}
}

// decode maps the raw document onto the typed config. Strict mode rejects
// fields outside the variant's schema.
func decode(raw map[string]any, out AgentConfig, strict bool) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		TagName:     "mapstructure",
		ErrorUnused: strict,
	})
	if err != nil {
		return fmt.Errorf("config: building decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return NewSchemaViolationError("", err.Error())
	}
	return nil
}
