// Package config defines the declarative agent configuration schema: the
// typed document structures for each agent variant, strict decoding of raw
// documents into them, variant dispatch, and JSON Schema export.
//
// Documents are variant-dispatched on the agent_class field. Every variant
// except BaseAgent is a closed schema: fields outside the variant's set are
// schema violations. BaseAgent preserves unrecognized fields for downstream
// consumers instead.
package config

import (
	"fmt"
)

// Variant identifies an agent configuration class.
type Variant string

// Recognized agent variants.
const (
	VariantBase       Variant = "BaseAgent"
	VariantLlm        Variant = "LlmAgent"
	VariantLoop       Variant = "LoopAgent"
	VariantParallel   Variant = "ParallelAgent"
	VariantSequential Variant = "SequentialAgent"
)

// KnownVariants lists the recognized variants in a stable order.
var KnownVariants = []Variant{
	VariantBase,
	VariantLlm,
	VariantLoop,
	VariantParallel,
	VariantSequential,
}

// AgentConfig is the decoded form of one agent configuration document.
type AgentConfig interface {
	// Common returns the fields shared by all variants.
	Common() *CommonConfig
	// Variant returns the configuration class.
	Variant() Variant
	// Validate checks variant-specific semantic constraints beyond shape.
	Validate() error
}

// CommonConfig holds the fields shared by every agent variant.
type CommonConfig struct {
	// AgentClass selects the variant. Empty defaults to BaseAgent, or to
	// LlmAgent when an instruction field is present.
	AgentClass string `json:"agent_class,omitempty" mapstructure:"agent_class" jsonschema:"enum=BaseAgent,enum=LlmAgent,enum=LoopAgent,enum=ParallelAgent,enum=SequentialAgent"`
	// Name uniquely identifies the agent among its siblings.
	Name string `json:"name" mapstructure:"name" jsonschema:"required"`
	// Description summarizes the agent's purpose for humans and models.
	Description string `json:"description,omitempty" mapstructure:"description"`
	// SubAgents reference the child agents, by document path or code name.
	SubAgents []AgentRefConfig `json:"sub_agents,omitempty" mapstructure:"sub_agents"`
	// BeforeAgentCallbacks run before the agent body.
	BeforeAgentCallbacks []CodeConfig `json:"before_agent_callbacks,omitempty" mapstructure:"before_agent_callbacks"`
	// AfterAgentCallbacks run after the agent body.
	AfterAgentCallbacks []CodeConfig `json:"after_agent_callbacks,omitempty" mapstructure:"after_agent_callbacks"`
}

// Common implements AgentConfig.
func (c *CommonConfig) Common() *CommonConfig { return c }

// Validate checks the shared fields.
func (c *CommonConfig) Validate() error {
	if c.Name == "" {
		return NewSchemaViolationError("name", "agent name is required")
	}
	for i, ref := range c.SubAgents {
		if err := ref.Validate(); err != nil {
			return fmt.Errorf("sub_agents[%d]: %w", i, err)
		}
	}
	for i, cb := range c.BeforeAgentCallbacks {
		if err := cb.Validate(); err != nil {
			return fmt.Errorf("before_agent_callbacks[%d]: %w", i, err)
		}
	}
	for i, cb := range c.AfterAgentCallbacks {
		if err := cb.Validate(); err != nil {
			return fmt.Errorf("after_agent_callbacks[%d]: %w", i, err)
		}
	}
	return nil
}

// AgentRefConfig references a child agent either by a further configuration
// document (config_path, resolved relative to the referring document) or by a
// registered code artifact (code). Exactly one of the two must be set.
type AgentRefConfig struct {
	ConfigPath string `json:"config_path,omitempty" mapstructure:"config_path"`
	Code       string `json:"code,omitempty" mapstructure:"code"`
	// Name optionally pins the expected agent name; a mismatch with the
	// loaded document is a schema violation.
	Name string `json:"name,omitempty" mapstructure:"name"`
}

// Validate enforces the exactly-one-of constraint.
func (r *AgentRefConfig) Validate() error {
	switch {
	case r.ConfigPath == "" && r.Code == "":
		return NewSchemaViolationError("sub_agents", "agent reference requires one of config_path or code")
	case r.ConfigPath != "" && r.Code != "":
		return NewSchemaViolationError("sub_agents", "agent reference allows only one of config_path or code")
	}
	return nil
}

// ArgumentConfig is one argument of a code invocation. An empty Name marks a
// positional argument; positional arguments must precede named ones.
type ArgumentConfig struct {
	Name  string `json:"name,omitempty" mapstructure:"name"`
	Value any    `json:"value" mapstructure:"value"`
}

// CodeConfig references a registered code artifact, optionally invoking it
// with arguments. Without arguments the artifact is used as-is (instance or
// plain function); with arguments it must expose a constructor.
type CodeConfig struct {
	Name string           `json:"name" mapstructure:"name"`
	Args []ArgumentConfig `json:"args,omitempty" mapstructure:"args"`
}

// Validate checks the reference name is present.
func (c *CodeConfig) Validate() error {
	if c.Name == "" {
		return NewSchemaViolationError("code", "code reference requires a name")
	}
	return nil
}

// ToolConfig declares one tool of an LlmAgent: a short builtin name or a
// qualified code name, with optional keyword arguments for parameterizable
// tools.
type ToolConfig struct {
	Name string         `json:"name" mapstructure:"name"`
	Args map[string]any `json:"args,omitempty" mapstructure:"args"`
}

// Validate checks the tool name is present.
func (t *ToolConfig) Validate() error {
	if t.Name == "" {
		return NewSchemaViolationError("tools", "tool declaration requires a name")
	}
	return nil
}

// BaseAgentConfig is the structural agent variant. Unlike the other variants
// its schema is open: unrecognized fields land in Extra instead of failing
// the decode.
type BaseAgentConfig struct {
	CommonConfig `mapstructure:",squash"`
	// Extra preserves fields outside the recognized set.
	Extra map[string]any `json:"-" mapstructure:",remain"`
}

// Variant implements AgentConfig.
func (c *BaseAgentConfig) Variant() Variant { return VariantBase }

// LlmAgentConfig is the model-driven agent variant.
type LlmAgentConfig struct {
	CommonConfig `mapstructure:",squash"`

	// Model names the language model, resolved through the model registry.
	Model string `json:"model,omitempty" mapstructure:"model"`
	// Instruction is the static system prompt. Session state placeholders
	// are rendered at run time.
	Instruction string `json:"instruction,omitempty" mapstructure:"instruction"`
	// InstructionProvider references a registered function producing the
	// instruction dynamically. Mutually exclusive with Instruction.
	InstructionProvider *CodeConfig `json:"instruction_provider,omitempty" mapstructure:"instruction_provider"`
	// Tools declares the agent's tools in exposure order.
	Tools []ToolConfig `json:"tools,omitempty" mapstructure:"tools"`
	// OutputKey names the session state key receiving the final response text.
	OutputKey string `json:"output_key,omitempty" mapstructure:"output_key"`
	// IncludeContents is "default" (full transcript) or "none" (current input only).
	IncludeContents string `json:"include_contents,omitempty" mapstructure:"include_contents" jsonschema:"enum=default,enum=none"`

	DisallowTransferToParent bool `json:"disallow_transfer_to_parent,omitempty" mapstructure:"disallow_transfer_to_parent"`
	DisallowTransferToPeers  bool `json:"disallow_transfer_to_peers,omitempty" mapstructure:"disallow_transfer_to_peers"`

	// InputSchema / OutputSchema name registered schema types constraining
	// the agent's structured input and output.
	InputSchema  string `json:"input_schema,omitempty" mapstructure:"input_schema"`
	OutputSchema string `json:"output_schema,omitempty" mapstructure:"output_schema"`

	BeforeModelCallbacks []CodeConfig `json:"before_model_callbacks,omitempty" mapstructure:"before_model_callbacks"`
	AfterModelCallbacks  []CodeConfig `json:"after_model_callbacks,omitempty" mapstructure:"after_model_callbacks"`
	BeforeToolCallbacks  []CodeConfig `json:"before_tool_callbacks,omitempty" mapstructure:"before_tool_callbacks"`
	AfterToolCallbacks   []CodeConfig `json:"after_tool_callbacks,omitempty" mapstructure:"after_tool_callbacks"`
}

// Variant implements AgentConfig.
func (c *LlmAgentConfig) Variant() Variant { return VariantLlm }

// Validate checks the model-driven variant's constraints.
func (c *LlmAgentConfig) Validate() error {
	if err := c.CommonConfig.Validate(); err != nil {
		return err
	}
	if c.Instruction == "" && c.InstructionProvider == nil {
		return NewSchemaViolationError("instruction", "LlmAgent requires an instruction or instruction_provider")
	}
	if c.Instruction != "" && c.InstructionProvider != nil {
		return NewSchemaViolationError("instruction", "instruction and instruction_provider are mutually exclusive")
	}
	if c.InstructionProvider != nil {
		if err := c.InstructionProvider.Validate(); err != nil {
			return fmt.Errorf("instruction_provider: %w", err)
		}
	}
	if c.IncludeContents != "" && c.IncludeContents != "default" && c.IncludeContents != "none" {
		return NewSchemaViolationError("include_contents", fmt.Sprintf("must be \"default\" or \"none\", got %q", c.IncludeContents))
	}
	if c.OutputSchema != "" && len(c.Tools) > 0 {
		return NewSchemaViolationError("output_schema", "output_schema cannot be combined with tools")
	}
	for i, t := range c.Tools {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("tools[%d]: %w", i, err)
		}
	}
	for _, chain := range []struct {
		field string
		cbs   []CodeConfig
	}{
		{"before_model_callbacks", c.BeforeModelCallbacks},
		{"after_model_callbacks", c.AfterModelCallbacks},
		{"before_tool_callbacks", c.BeforeToolCallbacks},
		{"after_tool_callbacks", c.AfterToolCallbacks},
	} {
		for i, cb := range chain.cbs {
			if err := cb.Validate(); err != nil {
				return fmt.Errorf("%s[%d]: %w", chain.field, i, err)
			}
		}
	}
	return nil
}

// LoopAgentConfig is the iterating workflow variant.
type LoopAgentConfig struct {
	CommonConfig `mapstructure:",squash"`
	// MaxIterations bounds the loop; 0 means until a child escalates.
	MaxIterations int `json:"max_iterations,omitempty" mapstructure:"max_iterations"`
}

// Variant implements AgentConfig.
func (c *LoopAgentConfig) Variant() Variant { return VariantLoop }

// Validate checks the loop variant's constraints.
func (c *LoopAgentConfig) Validate() error {
	if err := c.CommonConfig.Validate(); err != nil {
		return err
	}
	if c.MaxIterations < 0 {
		return NewSchemaViolationError("max_iterations", "must not be negative")
	}
	return nil
}

// ParallelAgentConfig is the concurrent fan-out workflow variant.
type ParallelAgentConfig struct {
	CommonConfig `mapstructure:",squash"`
}

// Variant implements AgentConfig.
func (c *ParallelAgentConfig) Variant() Variant { return VariantParallel }

// SequentialAgentConfig is the ordered pipeline workflow variant.
type SequentialAgentConfig struct {
	CommonConfig `mapstructure:",squash"`
}

// Variant implements AgentConfig.
func (c *SequentialAgentConfig) Variant() Variant { return VariantSequential }
