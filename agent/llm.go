package agent

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/agentloom/agentloom/core"
	"github.com/agentloom/agentloom/internal/util"
	"github.com/agentloom/agentloom/model"
	"github.com/agentloom/agentloom/tool"
)

// IncludeContents values control how much conversation history the agent
// sends to the model.
const (
	// IncludeContentsDefault sends the full shared transcript.
	IncludeContentsDefault = "default"
	// IncludeContentsNone sends only the current run input.
	IncludeContentsNone = "none"
)

// defaultMaxToolRounds bounds the generate / tool-call cycle per run.
const defaultMaxToolRounds = 8

// LlmAgentOptions configures an LlmAgent instance.
//
// Use functional options with NewLlmAgent to override defaults.
type LlmAgentOptions struct {
	Description              string
	Instruction              Instruction
	Tools                    []tool.Tool
	OutputKey                string
	IncludeContents          string
	DisallowTransferToParent bool
	DisallowTransferToPeers  bool
	InputSchema              *jsonschema.Schema
	OutputSchema             *jsonschema.Schema
	MaxToolRounds            int

	BeforeAgentCallbacks []AgentCallback
	AfterAgentCallbacks  []AgentCallback
	BeforeModelCallbacks []ModelRequestCallback
	AfterModelCallbacks  []ModelResponseCallback
	BeforeToolCallbacks  []ToolCallback
	AfterToolCallbacks   []ToolResponseCallback
}

// LlmAgent integrates with language models to provide intelligent text
// processing capabilities.
//
// The agent drives a generate / tool-call cycle: instructions and the
// conversation transcript go to the model, returned function calls execute
// against the registered tools, and their responses feed the next round until
// the model produces a plain answer. Callback chains intercept each stage.
type LlmAgent struct {
	BaseAgent
	llm             model.Model
	instruction     Instruction
	tools           []tool.Tool
	toolIndex       map[string]tool.Tool
	outputKey       string
	includeContents string
	maxToolRounds   int

	disallowTransferToParent bool
	disallowTransferToPeers  bool

	inputSchema  *jsonschema.Schema
	outputSchema *jsonschema.Schema

	beforeModel []ModelRequestCallback
	afterModel  []ModelResponseCallback
	beforeTool  []ToolCallback
	afterTool   []ToolResponseCallback
}

// NewLlmAgent creates a new model-backed agent.
//
// Defaults: a generic assistant instruction, full transcript history, eight
// tool rounds per run and no registered tools.
func NewLlmAgent(name string, llm model.Model, optFns ...func(o *LlmAgentOptions)) *LlmAgent {
	opts := LlmAgentOptions{
		Instruction:     NewInstructionFromText(fmt.Sprintf("You are %s, a helpful AI assistant.", name)),
		IncludeContents: IncludeContentsDefault,
		MaxToolRounds:   defaultMaxToolRounds,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	a := &LlmAgent{
		BaseAgent:                newBase(name),
		llm:                      llm,
		instruction:              opts.Instruction,
		toolIndex:                make(map[string]tool.Tool),
		outputKey:                opts.OutputKey,
		includeContents:          opts.IncludeContents,
		maxToolRounds:            opts.MaxToolRounds,
		disallowTransferToParent: opts.DisallowTransferToParent,
		disallowTransferToPeers:  opts.DisallowTransferToPeers,
		inputSchema:              opts.InputSchema,
		outputSchema:             opts.OutputSchema,
		beforeModel:              opts.BeforeModelCallbacks,
		afterModel:               opts.AfterModelCallbacks,
		beforeTool:               opts.BeforeToolCallbacks,
		afterTool:                opts.AfterToolCallbacks,
	}
	if opts.Description != "" {
		a.SetDescription(opts.Description)
	}
	if a.maxToolRounds <= 0 {
		a.maxToolRounds = defaultMaxToolRounds
	}
	for _, cb := range opts.BeforeAgentCallbacks {
		a.AddBeforeAgentCallback(cb)
	}
	for _, cb := range opts.AfterAgentCallbacks {
		a.AddAfterAgentCallback(cb)
	}
	a.RegisterTools(opts.Tools...)
	a.bind(a)
	return a
}

// RegisterTool adds a tool to the agent's capability set. Tool order is
// preserved for deterministic exposure to the model; registering a tool with
// an already registered name replaces the earlier one in place.
func (a *LlmAgent) RegisterTool(t tool.Tool) {
	if _, exists := a.toolIndex[t.Name()]; exists {
		for i, existing := range a.tools {
			if existing.Name() == t.Name() {
				a.tools[i] = t
				break
			}
		}
	} else {
		a.tools = append(a.tools, t)
	}
	a.toolIndex[t.Name()] = t
}

// RegisterTools adds multiple tools in order.
func (a *LlmAgent) RegisterTools(tools ...tool.Tool) {
	for _, t := range tools {
		a.RegisterTool(t)
	}
}

// HasTool checks if a tool is registered with the agent.
func (a *LlmAgent) HasTool(name string) bool {
	_, exists := a.toolIndex[name]
	return exists
}

// Tools returns the registered tools in registration order.
func (a *LlmAgent) Tools() []tool.Tool {
	out := make([]tool.Tool, len(a.tools))
	copy(out, a.tools)
	return out
}

// Model returns the language model instance.
func (a *LlmAgent) Model() model.Model { return a.llm }

// OutputKey returns the session state key receiving the agent's final text.
func (a *LlmAgent) OutputKey() string { return a.outputKey }

// ResolveInstruction produces the final system prompt by resolving the static
// or dynamic instruction source, then rendering session state templates.
func (a *LlmAgent) ResolveInstruction(rc *core.RunContext) (string, error) {
	text, err := a.instruction.Resolve(rc)
	if err != nil {
		return "", fmt.Errorf("resolving instruction of %s: %w", a.Name(), err)
	}
	return util.RenderTemplate(text, rc.Session().Snapshot())
}

// AddBeforeModelCallback appends a callback executed before each model call.
func (a *LlmAgent) AddBeforeModelCallback(cb ModelRequestCallback) {
	a.beforeModel = append(a.beforeModel, cb)
}

// AddAfterModelCallback appends a callback executed after each model call.
func (a *LlmAgent) AddAfterModelCallback(cb ModelResponseCallback) {
	a.afterModel = append(a.afterModel, cb)
}

// AddBeforeToolCallback appends a callback executed before each tool call.
func (a *LlmAgent) AddBeforeToolCallback(cb ToolCallback) {
	a.beforeTool = append(a.beforeTool, cb)
}

// AddAfterToolCallback appends a callback executed after each tool call.
func (a *LlmAgent) AddAfterToolCallback(cb ToolResponseCallback) {
	a.afterTool = append(a.afterTool, cb)
}

// Run implements core.Agent, driving the generate / tool-call cycle.
func (a *LlmAgent) Run(rc *core.RunContext) error {
	rc.LogDebug("agent.run.start", "agent", a.Name(), "invocation", rc.InvocationID)

	skip, err := a.runBeforeAgent(rc)
	if err != nil {
		return err
	}
	if skip {
		rc.LogDebug("agent.run.skipped", "agent", a.Name())
		return nil
	}

	instructions, err := a.ResolveInstruction(rc)
	if err != nil {
		return err
	}
	if a.outputSchema != nil {
		suffix, err := a.outputSchemaInstruction()
		if err != nil {
			return err
		}
		instructions += suffix
	}

	contents := a.initialContents(rc)
	finalText, err := a.generateLoop(rc, instructions, contents)
	if err != nil {
		return err
	}

	if a.outputKey != "" {
		rc.SetState(a.outputKey, finalText)
	}

	return a.runAfterAgent(rc)
}

// generateLoop runs the model until it stops requesting tools, a tool raises
// skip-summarization, or the round budget is exhausted. It returns the final
// response text.
func (a *LlmAgent) generateLoop(rc *core.RunContext, instructions string, contents []core.Content) (string, error) {
	cc := core.NewCallbackContext(rc, a.Name())
	toolDefs := a.toolDefinitions()

	for round := 0; round < a.maxToolRounds; round++ {
		req := model.Request{
			Instructions: instructions,
			Contents:     contents,
			Tools:        toolDefs,
		}

		resp, err := a.callModel(rc, cc, &req)
		if err != nil {
			return "", err
		}

		rc.Append(resp.Content)
		contents = append(contents, resp.Content)

		calls := resp.FunctionCalls()
		if len(calls) == 0 {
			return resp.Text(), nil
		}

		rc.LogDebug("agent.tool_calls", "agent", a.Name(), "count", len(calls))

		for _, call := range calls {
			responseContent, actions, err := a.executeToolCall(rc, call)
			if err != nil {
				return "", err
			}
			rc.Append(responseContent)
			contents = append(contents, responseContent)

			switch {
			case actions.TransferToAgent != "":
				if err := a.transferTo(rc, actions.TransferToAgent); err != nil {
					return "", err
				}
				return rc.LastText(), nil
			case actions.Escalate:
				return "", fmt.Errorf("agent %s: %w", a.Name(), ErrEscalated)
			case actions.SkipSummarization:
				return toolResponseText(responseContent), nil
			}
		}
	}

	return "", fmt.Errorf("agent %s exceeded %d tool rounds", a.Name(), a.maxToolRounds)
}

// callModel runs the before-model chain, the model itself unless a callback
// short-circuits it, then the after-model chain.
func (a *LlmAgent) callModel(rc *core.RunContext, cc *core.CallbackContext, req *model.Request) (*model.Response, error) {
	var resp *model.Response
	for _, cb := range a.beforeModel {
		r, err := cb(cc, req)
		if err != nil {
			return nil, fmt.Errorf("before-model callback of %s: %w", a.Name(), err)
		}
		if r != nil {
			resp = r
			break
		}
	}

	if resp == nil {
		var err error
		resp, err = a.llm.Generate(rc.Context, *req)
		if err != nil {
			return nil, fmt.Errorf("model generation failed for agent %s: %w", a.Name(), err)
		}
	}

	for _, cb := range a.afterModel {
		r, err := cb(cc, resp)
		if err != nil {
			return nil, fmt.Errorf("after-model callback of %s: %w", a.Name(), err)
		}
		if r != nil {
			resp = r
		}
	}

	return resp, nil
}

// executeToolCall runs one function call through the tool callback chains and
// returns the tool-role content recording the outcome plus the flow-control
// actions the tool raised. Unknown tools and execution failures are recorded
// as error responses so the model can recover on the next round.
func (a *LlmAgent) executeToolCall(rc *core.RunContext, call core.FunctionCall) (core.Content, *core.EventActions, error) {
	tc := core.NewToolContext(rc, a.Name(), call.ID)

	t, exists := a.toolIndex[call.Name]
	if !exists {
		return toolResponseContent(call, nil, fmt.Errorf("tool %s not found", call.Name)), tc.Actions(), nil
	}

	args := make(map[string]any)
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return toolResponseContent(call, nil, fmt.Errorf("invalid tool arguments: %w", err)), tc.Actions(), nil
		}
	}

	var result any
	var callErr error
	for _, cb := range a.beforeTool {
		r, err := cb(tc, t, args)
		if err != nil {
			return core.Content{}, nil, fmt.Errorf("before-tool callback of %s: %w", a.Name(), err)
		}
		if r != nil {
			result = r
			break
		}
	}

	if result == nil {
		result, callErr = t.Call(tc, args)
	}

	for _, cb := range a.afterTool {
		r, err := cb(tc, t, args, result)
		if err != nil {
			return core.Content{}, nil, fmt.Errorf("after-tool callback of %s: %w", a.Name(), err)
		}
		if r != nil {
			result = r
			callErr = nil
		}
	}

	return toolResponseContent(call, result, callErr), tc.Actions(), nil
}

// transferTo hands execution off to a named agent located from the hierarchy
// root, honoring the transfer restriction flags.
func (a *LlmAgent) transferTo(rc *core.RunContext, name string) error {
	parent := a.Parent()
	if a.disallowTransferToParent && parent != nil && parent.Name() == name {
		return fmt.Errorf("agent %s: transfer to parent %s is disallowed", a.Name(), name)
	}
	if a.disallowTransferToPeers && parent != nil && parent.Name() != name {
		for _, peer := range parent.SubAgents() {
			if peer.Name() == name {
				return fmt.Errorf("agent %s: transfer to peer %s is disallowed", a.Name(), name)
			}
		}
	}

	target := a.Root().FindAgent(name)
	if target == nil {
		return fmt.Errorf("agent %s: transfer target %q not found in hierarchy", a.Name(), name)
	}

	rc.LogInfo("agent.transfer", "from", a.Name(), "to", name)
	return target.Run(rc)
}

// initialContents selects the conversation history sent to the model.
func (a *LlmAgent) initialContents(rc *core.RunContext) []core.Content {
	if a.includeContents == IncludeContentsNone {
		return []core.Content{rc.Input}
	}
	return rc.Transcript()
}

// toolDefinitions converts the registered tools into model declarations.
// An output schema disables tool calling for the run.
func (a *LlmAgent) toolDefinitions() []model.ToolDefinition {
	if a.outputSchema != nil || len(a.tools) == 0 {
		return nil
	}
	defs := make([]model.ToolDefinition, 0, len(a.tools))
	for _, t := range a.tools {
		defs = append(defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return defs
}

// outputSchemaInstruction renders the structured-output directive appended to
// the system prompt when an output schema is configured.
func (a *LlmAgent) outputSchemaInstruction() (string, error) {
	raw, err := json.Marshal(a.outputSchema)
	if err != nil {
		return "", fmt.Errorf("marshaling output schema of %s: %w", a.Name(), err)
	}
	return fmt.Sprintf("\n\nRespond ONLY with a JSON object matching this schema:\n%s", raw), nil
}

// toolResponseContent wraps a tool outcome as tool-role content.
func toolResponseContent(call core.FunctionCall, result any, callErr error) core.Content {
	fr := core.FunctionResponse{
		ID:       call.ID,
		Name:     call.Name,
		Response: result,
	}
	if callErr != nil {
		fr.Error = callErr.Error()
	}
	return core.Content{
		Role:  "tool",
		Parts: []core.Part{core.FunctionResponsePart{FunctionResponse: fr}},
	}
}

// toolResponseText renders a tool-role content's response payload as text,
// used when summarization is skipped.
func toolResponseText(c core.Content) string {
	for _, p := range c.Parts {
		if frp, ok := p.(core.FunctionResponsePart); ok {
			if frp.FunctionResponse.Error != "" {
				return frp.FunctionResponse.Error
			}
			if s, ok := frp.FunctionResponse.Response.(string); ok {
				return s
			}
			raw, err := json.Marshal(frp.FunctionResponse.Response)
			if err != nil {
				return fmt.Sprintf("%v", frp.FunctionResponse.Response)
			}
			return string(raw)
		}
	}
	return c.Text()
}
