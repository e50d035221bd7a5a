package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchExplicitVariants(t *testing.T) {
	tests := []struct {
		name    string
		raw     map[string]any
		variant Variant
	}{
		{"base", map[string]any{"agent_class": "BaseAgent", "name": "A"}, VariantBase},
		{"llm", map[string]any{"agent_class": "LlmAgent", "name": "A", "instruction": "hi"}, VariantLlm},
		{"loop", map[string]any{"agent_class": "LoopAgent", "name": "A"}, VariantLoop},
		{"parallel", map[string]any{"agent_class": "ParallelAgent", "name": "A"}, VariantParallel},
		{"sequential", map[string]any{"agent_class": "SequentialAgent", "name": "A"}, VariantSequential},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Dispatch(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.variant, cfg.Variant())
			assert.Equal(t, "A", cfg.Common().Name)
		})
	}
}

func TestDispatchInference(t *testing.T) {
	cfg, err := Dispatch(map[string]any{"name": "Plain"})
	require.NoError(t, err)
	assert.Equal(t, VariantBase, cfg.Variant())

	cfg, err = Dispatch(map[string]any{"name": "Smart", "instruction": "be smart"})
	require.NoError(t, err)
	assert.Equal(t, VariantLlm, cfg.Variant())
}

func TestDispatchUnknownVariant(t *testing.T) {
	_, err := Dispatch(map[string]any{"agent_class": "WizardAgent", "name": "A"})

	var unknownErr *UnknownVariantError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "WizardAgent", unknownErr.Variant)
}

func TestDispatchNonStringAgentClass(t *testing.T) {
	_, err := Dispatch(map[string]any{"agent_class": 3, "name": "A"})

	var schemaErr *SchemaViolationError
	assert.ErrorAs(t, err, &schemaErr)
}

func TestClosedVariantsRejectUnknownFields(t *testing.T) {
	for _, class := range []string{"LlmAgent", "LoopAgent", "ParallelAgent", "SequentialAgent"} {
		raw := map[string]any{
			"agent_class": class,
			"name":        "A",
			"instruction": "hi",
			"frobnicate":  true,
		}
		if class != "LlmAgent" {
			delete(raw, "instruction")
		}
		_, err := Dispatch(raw)

		var schemaErr *SchemaViolationError
		assert.ErrorAs(t, err, &schemaErr, "variant %s should reject unknown fields", class)
	}
}

func TestBaseVariantPreservesExtras(t *testing.T) {
	cfg, err := Dispatch(map[string]any{
		"name":       "Open",
		"custom_key": "custom_value",
		"nested":     map[string]any{"a": 1},
	})
	require.NoError(t, err)

	base, ok := cfg.(*BaseAgentConfig)
	require.True(t, ok)
	assert.Equal(t, "custom_value", base.Extra["custom_key"])
	assert.Contains(t, base.Extra, "nested")
}

func TestMissingNameRejected(t *testing.T) {
	_, err := Dispatch(map[string]any{"agent_class": "SequentialAgent"})

	var schemaErr *SchemaViolationError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "name", schemaErr.Field)
}

func TestLlmValidation(t *testing.T) {
	t.Run("instruction required", func(t *testing.T) {
		_, err := Dispatch(map[string]any{"agent_class": "LlmAgent", "name": "A"})
		var schemaErr *SchemaViolationError
		assert.ErrorAs(t, err, &schemaErr)
	})

	t.Run("instruction and provider exclusive", func(t *testing.T) {
		_, err := Dispatch(map[string]any{
			"agent_class":          "LlmAgent",
			"name":                 "A",
			"instruction":          "hi",
			"instruction_provider": map[string]any{"name": "pkg.provider"},
		})
		var schemaErr *SchemaViolationError
		assert.ErrorAs(t, err, &schemaErr)
	})

	t.Run("include_contents enum", func(t *testing.T) {
		_, err := Dispatch(map[string]any{
			"agent_class":      "LlmAgent",
			"name":             "A",
			"instruction":      "hi",
			"include_contents": "everything",
		})
		var schemaErr *SchemaViolationError
		assert.ErrorAs(t, err, &schemaErr)
	})

	t.Run("output_schema excludes tools", func(t *testing.T) {
		_, err := Dispatch(map[string]any{
			"agent_class":   "LlmAgent",
			"name":          "A",
			"instruction":   "hi",
			"output_schema": "pkg.schema",
			"tools":         []any{map[string]any{"name": "state_manager"}},
		})
		var schemaErr *SchemaViolationError
		assert.ErrorAs(t, err, &schemaErr)
	})

	t.Run("tool declarations decode", func(t *testing.T) {
		cfg, err := Dispatch(map[string]any{
			"agent_class": "LlmAgent",
			"name":        "A",
			"instruction": "hi",
			"tools": []any{
				map[string]any{"name": "state_manager", "args": map[string]any{"read_only": true}},
				map[string]any{"name": "pkg.search"},
			},
		})
		require.NoError(t, err)
		llm := cfg.(*LlmAgentConfig)
		require.Len(t, llm.Tools, 2)
		assert.Equal(t, true, llm.Tools[0].Args["read_only"])
	})
}

func TestLoopValidation(t *testing.T) {
	cfg, err := Dispatch(map[string]any{
		"agent_class":    "LoopAgent",
		"name":           "L",
		"max_iterations": 5,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.(*LoopAgentConfig).MaxIterations)

	_, err = Dispatch(map[string]any{
		"agent_class":    "LoopAgent",
		"name":           "L",
		"max_iterations": -1,
	})
	var schemaErr *SchemaViolationError
	assert.ErrorAs(t, err, &schemaErr)
}

func TestAgentRefValidation(t *testing.T) {
	tests := []struct {
		name    string
		ref     AgentRefConfig
		wantErr bool
	}{
		{"config path", AgentRefConfig{ConfigPath: "child.yaml"}, false},
		{"code", AgentRefConfig{Code: "pkg.child"}, false},
		{"neither", AgentRefConfig{}, true},
		{"both", AgentRefConfig{ConfigPath: "child.yaml", Code: "pkg.child"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ref.Validate()
			if tt.wantErr {
				var schemaErr *SchemaViolationError
				assert.True(t, errors.As(err, &schemaErr))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSubAgentRefsValidatedOnDispatch(t *testing.T) {
	_, err := Dispatch(map[string]any{
		"agent_class": "SequentialAgent",
		"name":        "S",
		"sub_agents":  []any{map[string]any{"name": "orphan"}},
	})
	var schemaErr *SchemaViolationError
	assert.ErrorAs(t, err, &schemaErr)
}

func TestSchemaExport(t *testing.T) {
	for _, variant := range KnownVariants {
		schema, err := Schema(variant)
		require.NoError(t, err)
		require.NotNil(t, schema)
	}

	_, err := Schema(Variant("WizardAgent"))
	assert.Error(t, err)

	assert.Len(t, Schemas(), len(KnownVariants))
}
