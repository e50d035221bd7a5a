package assembly

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"

	"github.com/agentloom/agentloom/agent"
	"github.com/agentloom/agentloom/config"
	"github.com/agentloom/agentloom/core"
	"github.com/agentloom/agentloom/loader"
	"github.com/agentloom/agentloom/logging"
	"github.com/agentloom/agentloom/model"
	"github.com/agentloom/agentloom/registry"
	"github.com/agentloom/agentloom/tool"
)

// NodeState is the build lifecycle stage of one agent node.
type NodeState string

// Node lifecycle stages, in order.
const (
	StatePending            NodeState = "pending"
	StateValidating         NodeState = "validating"
	StateResolvingCallbacks NodeState = "resolving_callbacks"
	StateResolvingSubAgents NodeState = "resolving_sub_agents"
	StateBuilt              NodeState = "built"
	StateFailed             NodeState = "failed"
)

// BuilderOptions configure a Builder.
type BuilderOptions struct {
	Loader loader.DocumentLoader
	Models *model.Registry
	Logger logging.Logger
}

// Builder assembles live agent hierarchies from configuration documents.
//
// Builds run a single-threaded depth-first traversal: each node validates its
// document, resolves its callbacks and tools through the registry, builds its
// sub-agents (recursing into referenced documents), then constructs and wires
// the agent. The first failure aborts the build; errors carry the chain of
// enclosing nodes.
type Builder struct {
	reg    *registry.Registry
	loader loader.DocumentLoader
	models *model.Registry
	logger logging.Logger
}

// NewBuilder creates a builder over the artifact registry. Defaults: a
// filesystem document loader, an empty model registry and no logging.
func NewBuilder(reg *registry.Registry, optFns ...func(o *BuilderOptions)) *Builder {
	opts := BuilderOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Loader == nil {
		opts.Loader = loader.NewFileLoader()
	}
	if opts.Models == nil {
		opts.Models = model.NewRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Builder{
		reg:    reg,
		loader: opts.Loader,
		models: opts.Models,
		logger: opts.Logger,
	}
}

// BuildFile assembles the agent hierarchy rooted at a configuration document
// on disk. Relative config_path references inside the document resolve
// against the document's directory.
func (b *Builder) BuildFile(path string) (core.Agent, error) {
	resolved, err := b.loader.Resolve(".", path)
	if err != nil {
		return nil, &DocumentLoadError{Path: path, Err: err}
	}

	g := newGuard()
	if err := g.enter(resolved); err != nil {
		return nil, err
	}
	defer g.exit(resolved)

	raw, err := b.loader.Load(resolved)
	if err != nil {
		return nil, &DocumentLoadError{Path: resolved, Err: err}
	}

	return b.buildNode(g, raw, filepath.Dir(resolved), nil)
}

// BuildDocument assembles the agent hierarchy from an already-parsed
// document. Relative config_path references resolve against baseDir.
func (b *Builder) BuildDocument(raw map[string]any, baseDir string) (core.Agent, error) {
	return b.buildNode(newGuard(), raw, baseDir, nil)
}

// buildNode runs one node through the build state machine.
func (b *Builder) buildNode(g *guard, raw map[string]any, baseDir string, chain []string) (core.Agent, error) {
	state := StateValidating
	cfg, err := config.Dispatch(raw)
	if err != nil {
		return nil, b.fail(chain, state, err)
	}

	common := cfg.Common()
	chain = append(chain, common.Name)
	b.logger.Debug("assembly.node", "agent", common.Name, "variant", cfg.Variant(), "state", state)

	state = StateResolvingCallbacks
	beforeAgent, err := b.resolveAgentCallbacks(g, common.BeforeAgentCallbacks, baseDir, chain)
	if err != nil {
		return nil, b.fail(chain, state, err)
	}
	afterAgent, err := b.resolveAgentCallbacks(g, common.AfterAgentCallbacks, baseDir, chain)
	if err != nil {
		return nil, b.fail(chain, state, err)
	}

	node, err := b.constructVariant(g, cfg, baseDir, chain)
	if err != nil {
		return nil, b.fail(chain, state, err)
	}
	for _, cb := range beforeAgent {
		node.AddBeforeAgentCallback(cb)
	}
	for _, cb := range afterAgent {
		node.AddAfterAgentCallback(cb)
	}

	state = StateResolvingSubAgents
	b.logger.Debug("assembly.node", "agent", common.Name, "state", state, "sub_agents", len(common.SubAgents))

	seen := make(map[string]struct{}, len(common.SubAgents))
	children := make([]core.Agent, 0, len(common.SubAgents))
	for i, ref := range common.SubAgents {
		child, err := b.buildChild(g, ref, baseDir, chain)
		if err != nil {
			return nil, b.fail(chain, state, fmt.Errorf("sub_agents[%d]: %w", i, err))
		}
		if ref.Name != "" && child.Name() != ref.Name {
			return nil, b.fail(chain, state, config.NewSchemaViolationError(
				"sub_agents",
				fmt.Sprintf("reference expects agent %q but document defines %q", ref.Name, child.Name()),
			))
		}
		if _, dup := seen[child.Name()]; dup {
			return nil, b.fail(chain, state, &DuplicateAgentNameError{Name: child.Name(), Parent: common.Name})
		}
		seen[child.Name()] = struct{}{}
		children = append(children, child)
	}
	if err := node.SetSubAgents(children...); err != nil {
		return nil, b.fail(chain, state, err)
	}

	b.logger.Info("assembly.node", "agent", common.Name, "variant", cfg.Variant(), "state", StateBuilt)

	return node, nil
}

// variantNode is the surface every constructed variant shares for common wiring.
type variantNode interface {
	core.Agent
	AddBeforeAgentCallback(agent.AgentCallback)
	AddAfterAgentCallback(agent.AgentCallback)
	SetDescription(string)
}

// constructVariant builds the variant-specific agent value, leaving callbacks
// and sub-agents to the caller.
func (b *Builder) constructVariant(g *guard, cfg config.AgentConfig, baseDir string, chain []string) (variantNode, error) {
	common := cfg.Common()

	var node variantNode
	switch cfg := cfg.(type) {
	case *config.BaseAgentConfig:
		a := agent.NewBaseAgent(common.Name)
		a.SetExtras(cfg.Extra)
		node = a
	case *config.LlmAgentConfig:
		a, err := b.constructLlm(g, cfg, baseDir, chain)
		if err != nil {
			return nil, err
		}
		node = a
	case *config.LoopAgentConfig:
		node = agent.NewLoopAgent(common.Name, cfg.MaxIterations)
	case *config.ParallelAgentConfig:
		node = agent.NewParallelAgent(common.Name)
	case *config.SequentialAgentConfig:
		node = agent.NewSequentialAgent(common.Name)
	default:
		return nil, &config.UnknownVariantError{Variant: string(cfg.Variant()), Known: config.KnownVariants}
	}

	if common.Description != "" {
		node.SetDescription(common.Description)
	}
	return node, nil
}

// constructLlm resolves the model-driven variant's model, instruction, tools,
// schemas and callback chains, then constructs the agent.
func (b *Builder) constructLlm(g *guard, cfg *config.LlmAgentConfig, baseDir string, chain []string) (*agent.LlmAgent, error) {
	if cfg.Model == "" {
		return nil, config.NewSchemaViolationError("model", "LlmAgent requires a model")
	}
	m, err := b.models.Resolve(cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("resolving model %q: %w", cfg.Model, err)
	}

	instruction := agent.NewInstructionFromText(cfg.Instruction)
	if cfg.InstructionProvider != nil {
		value, err := b.resolveCode(g, *cfg.InstructionProvider, baseDir, chain)
		if err != nil {
			return nil, fmt.Errorf("instruction_provider: %w", err)
		}
		provider, err := asInstructionProvider(cfg.InstructionProvider.Name, value)
		if err != nil {
			return nil, err
		}
		instruction = agent.NewInstructionFromProvider(provider)
	}

	binder := b.newBinder(g, baseDir, chain)
	resolver := NewToolResolver(b.reg, binder)
	tools := make([]tool.Tool, 0, len(cfg.Tools))
	for i, tc := range cfg.Tools {
		t, err := resolver.Resolve(tc)
		if err != nil {
			return nil, fmt.Errorf("tools[%d]: %w", i, err)
		}
		tools = append(tools, t)
	}

	inputSchema, err := b.resolveSchema(g, cfg.InputSchema, baseDir, chain)
	if err != nil {
		return nil, fmt.Errorf("input_schema: %w", err)
	}
	outputSchema, err := b.resolveSchema(g, cfg.OutputSchema, baseDir, chain)
	if err != nil {
		return nil, fmt.Errorf("output_schema: %w", err)
	}

	beforeModel := make([]agent.ModelRequestCallback, 0, len(cfg.BeforeModelCallbacks))
	for _, cc := range cfg.BeforeModelCallbacks {
		value, err := b.resolveCode(g, cc, baseDir, chain)
		if err != nil {
			return nil, fmt.Errorf("before_model_callbacks: %w", err)
		}
		cb, err := asModelRequestCallback(cc.Name, value)
		if err != nil {
			return nil, err
		}
		beforeModel = append(beforeModel, cb)
	}
	afterModel := make([]agent.ModelResponseCallback, 0, len(cfg.AfterModelCallbacks))
	for _, cc := range cfg.AfterModelCallbacks {
		value, err := b.resolveCode(g, cc, baseDir, chain)
		if err != nil {
			return nil, fmt.Errorf("after_model_callbacks: %w", err)
		}
		cb, err := asModelResponseCallback(cc.Name, value)
		if err != nil {
			return nil, err
		}
		afterModel = append(afterModel, cb)
	}
	beforeTool := make([]agent.ToolCallback, 0, len(cfg.BeforeToolCallbacks))
	for _, cc := range cfg.BeforeToolCallbacks {
		value, err := b.resolveCode(g, cc, baseDir, chain)
		if err != nil {
			return nil, fmt.Errorf("before_tool_callbacks: %w", err)
		}
		cb, err := asToolCallback(cc.Name, value)
		if err != nil {
			return nil, err
		}
		beforeTool = append(beforeTool, cb)
	}
	afterTool := make([]agent.ToolResponseCallback, 0, len(cfg.AfterToolCallbacks))
	for _, cc := range cfg.AfterToolCallbacks {
		value, err := b.resolveCode(g, cc, baseDir, chain)
		if err != nil {
			return nil, fmt.Errorf("after_tool_callbacks: %w", err)
		}
		cb, err := asToolResponseCallback(cc.Name, value)
		if err != nil {
			return nil, err
		}
		afterTool = append(afterTool, cb)
	}

	return agent.NewLlmAgent(cfg.Name, m, func(o *agent.LlmAgentOptions) {
		o.Instruction = instruction
		o.Tools = tools
		o.OutputKey = cfg.OutputKey
		if cfg.IncludeContents != "" {
			o.IncludeContents = cfg.IncludeContents
		}
		o.DisallowTransferToParent = cfg.DisallowTransferToParent
		o.DisallowTransferToPeers = cfg.DisallowTransferToPeers
		o.InputSchema = inputSchema
		o.OutputSchema = outputSchema
		o.BeforeModelCallbacks = beforeModel
		o.AfterModelCallbacks = afterModel
		o.BeforeToolCallbacks = beforeTool
		o.AfterToolCallbacks = afterTool
	}), nil
}

// buildChild resolves one sub-agent reference: either a registered code
// artifact or a further configuration document.
func (b *Builder) buildChild(g *guard, ref config.AgentRefConfig, baseDir string, chain []string) (core.Agent, error) {
	if ref.Code != "" {
		return b.resolveAgentCode(g, ref.Code, baseDir, chain)
	}

	resolved, err := b.loader.Resolve(baseDir, ref.ConfigPath)
	if err != nil {
		return nil, &DocumentLoadError{Path: ref.ConfigPath, Err: err}
	}
	if err := g.enter(resolved); err != nil {
		return nil, err
	}
	defer g.exit(resolved)

	raw, err := b.loader.Load(resolved)
	if err != nil {
		return nil, &DocumentLoadError{Path: resolved, Err: err}
	}

	return b.buildNode(g, raw, filepath.Dir(resolved), chain)
}

// resolveAgentCode resolves a registered artifact to a live agent: a ready
// instance, a zero-argument factory, or a constructor invoked without
// arguments, in that order.
func (b *Builder) resolveAgentCode(g *guard, name, baseDir string, chain []string) (core.Agent, error) {
	artifact, ok := b.reg.Lookup(name)
	if !ok {
		return nil, &ReferenceNotFoundError{Name: name}
	}

	if artifact.Instance != nil {
		a, ok := artifact.Instance.(core.Agent)
		if !ok {
			return nil, fmt.Errorf("code reference %q resolved to %T, which does not implement core.Agent", name, artifact.Instance)
		}
		return a, nil
	}

	if artifact.Func != nil {
		switch fn := artifact.Func.(type) {
		case func() (core.Agent, error):
			a, err := fn()
			if err != nil {
				return nil, fmt.Errorf("agent factory %q: %w", name, err)
			}
			return a, nil
		default:
			return nil, fmt.Errorf("code reference %q has an unsupported agent factory signature %T", name, artifact.Func)
		}
	}

	if artifact.Construct != nil {
		binder := b.newBinder(g, baseDir, chain)
		result, err := binder.Invoke(name, artifact.Construct, nil)
		if err != nil {
			return nil, err
		}
		a, ok := result.(core.Agent)
		if !ok {
			return nil, fmt.Errorf("constructor %q produced %T, which does not implement core.Agent", name, result)
		}
		return a, nil
	}

	return nil, &ReferenceNotFoundError{Name: name}
}

// resolveCode resolves a code reference, invoking its constructor when
// arguments are declared. Without arguments the artifact's instance or plain
// function is preferred over construction.
func (b *Builder) resolveCode(g *guard, cc config.CodeConfig, baseDir string, chain []string) (any, error) {
	artifact, ok := b.reg.Lookup(cc.Name)
	if !ok {
		return nil, &ReferenceNotFoundError{Name: cc.Name}
	}

	if len(cc.Args) > 0 {
		if artifact.Construct == nil {
			return nil, fmt.Errorf("code reference %q declares arguments but is not invocable", cc.Name)
		}
		binder := b.newBinder(g, baseDir, chain)
		return binder.Invoke(cc.Name, artifact.Construct, cc.Args)
	}

	switch {
	case artifact.Instance != nil:
		return artifact.Instance, nil
	case artifact.Func != nil:
		return artifact.Func, nil
	case artifact.Construct != nil:
		binder := b.newBinder(g, baseDir, chain)
		return binder.Invoke(cc.Name, artifact.Construct, nil)
	default:
		return nil, &ReferenceNotFoundError{Name: cc.Name}
	}
}

// resolveSchema resolves a named schema artifact: either a ready
// *jsonschema.Schema instance or any registered value to reflect one from.
func (b *Builder) resolveSchema(g *guard, name, baseDir string, chain []string) (*jsonschema.Schema, error) {
	if name == "" {
		return nil, nil
	}
	value, err := b.resolveCode(g, config.CodeConfig{Name: name}, baseDir, chain)
	if err != nil {
		return nil, err
	}
	if schema, ok := value.(*jsonschema.Schema); ok {
		return schema, nil
	}
	reflector := &jsonschema.Reflector{DoNotReference: true}
	return reflector.Reflect(value), nil
}

// resolveAgentCallbacks resolves a chain of agent callback references.
func (b *Builder) resolveAgentCallbacks(g *guard, refs []config.CodeConfig, baseDir string, chain []string) ([]agent.AgentCallback, error) {
	callbacks := make([]agent.AgentCallback, 0, len(refs))
	for _, cc := range refs {
		value, err := b.resolveCode(g, cc, baseDir, chain)
		if err != nil {
			return nil, err
		}
		cb, err := asAgentCallback(cc.Name, value)
		if err != nil {
			return nil, err
		}
		callbacks = append(callbacks, cb)
	}
	return callbacks, nil
}

// newBinder creates an argument binder whose typed resolver recurses into
// the assembly machinery for code, tool and agent parameters.
func (b *Builder) newBinder(g *guard, baseDir string, chain []string) *Binder {
	var binder *Binder
	binder = NewBinder(func(kind registry.ParamKind, value any) (any, error) {
		switch kind {
		case registry.ParamCode:
			cc, err := codeConfigFrom(value)
			if err != nil {
				return nil, err
			}
			return b.resolveCode(g, cc, baseDir, chain)
		case registry.ParamTool:
			tc, err := toolConfigFrom(value)
			if err != nil {
				return nil, err
			}
			return NewToolResolver(b.reg, binder).Resolve(tc)
		case registry.ParamAgent:
			ref, err := agentRefFrom(value)
			if err != nil {
				return nil, err
			}
			if err := ref.Validate(); err != nil {
				return nil, err
			}
			return b.buildChild(g, ref, baseDir, chain)
		default:
			return nil, fmt.Errorf("unsupported parameter kind %q", kind)
		}
	})
	return binder
}

// fail wraps a node failure with its chain, preserving the innermost
// BuildError raised by a deeper node.
func (b *Builder) fail(chain []string, state NodeState, err error) error {
	var buildErr *BuildError
	if errors.As(err, &buildErr) {
		return err
	}
	wrapped := &BuildError{
		Chain: append([]string(nil), chain...),
		State: state,
		Err:   err,
	}
	b.logger.Error("assembly.node.failed", "chain", wrapped.Chain, "state", state, "error", err.Error())
	return wrapped
}

// codeConfigFrom coerces a raw parameter value into a code reference: a
// string names the artifact, a mapping carries name and args.
func codeConfigFrom(value any) (config.CodeConfig, error) {
	switch v := value.(type) {
	case string:
		return config.CodeConfig{Name: v}, nil
	case map[string]any:
		var cc config.CodeConfig
		if err := decodeInto(v, &cc); err != nil {
			return config.CodeConfig{}, err
		}
		return cc, cc.Validate()
	default:
		return config.CodeConfig{}, config.NewSchemaViolationError("", fmt.Sprintf("code reference must be a string or mapping, got %T", value))
	}
}

// toolConfigFrom coerces a raw parameter value into a tool declaration.
func toolConfigFrom(value any) (config.ToolConfig, error) {
	switch v := value.(type) {
	case string:
		return config.ToolConfig{Name: v}, nil
	case map[string]any:
		var tc config.ToolConfig
		if err := decodeInto(v, &tc); err != nil {
			return config.ToolConfig{}, err
		}
		return tc, tc.Validate()
	default:
		return config.ToolConfig{}, config.NewSchemaViolationError("", fmt.Sprintf("tool declaration must be a string or mapping, got %T", value))
	}
}

// agentRefFrom coerces a raw parameter value into an agent reference: a
// string names a registered code artifact, a mapping is a full reference.
func agentRefFrom(value any) (config.AgentRefConfig, error) {
	switch v := value.(type) {
	case string:
		return config.AgentRefConfig{Code: v}, nil
	case map[string]any:
		var ref config.AgentRefConfig
		if err := decodeInto(v, &ref); err != nil {
			return config.AgentRefConfig{}, err
		}
		return ref, nil
	default:
		return config.AgentRefConfig{}, config.NewSchemaViolationError("", fmt.Sprintf("agent reference must be a string or mapping, got %T", value))
	}
}

// decodeInto strictly maps a raw mapping onto a config structure.
func decodeInto(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		TagName:     "mapstructure",
		ErrorUnused: true,
	})
	if err != nil {
		return fmt.Errorf("building decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return config.NewSchemaViolationError("", err.Error())
	}
	return nil
}
