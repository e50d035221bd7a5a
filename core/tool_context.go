package core

// EventActions collects flow-control signals a tool (or callback) may raise
// during execution. The owning agent inspects them after the call returns.
type EventActions struct {
	// TransferToAgent names a descendant agent execution should hand off to.
	TransferToAgent string
	// Escalate requests termination of the enclosing loop / parent agent.
	Escalate bool
	// SkipSummarization tells the agent to return the tool result verbatim
	// instead of sending it back through the model.
	SkipSummarization bool
}

// ToolContext provides tools with access to session state, flow control and
// logging during a single function call. It wraps the RunContext of the agent
// issuing the call.
type ToolContext struct {
	*RunContext

	agentName      string
	functionCallID string
	actions        *EventActions
}

// NewToolContext creates a tool context for one function call.
func NewToolContext(rc *RunContext, agentName, functionCallID string) *ToolContext {
	return &ToolContext{
		RunContext:     rc,
		agentName:      agentName,
		functionCallID: functionCallID,
		actions:        &EventActions{},
	}
}

// AgentName returns the name of the agent that issued the call.
func (tc *ToolContext) AgentName() string { return tc.agentName }

// FunctionCallID returns the provider-assigned call identifier, correlating
// the model's request with this execution.
func (tc *ToolContext) FunctionCallID() string { return tc.functionCallID }

// Actions returns the flow-control signals raised so far.
func (tc *ToolContext) Actions() *EventActions { return tc.actions }

// TransferToAgent requests a hand-off to the named agent after the call.
func (tc *ToolContext) TransferToAgent(name string) { tc.actions.TransferToAgent = name }

// Escalate requests termination of the enclosing loop or parent agent.
func (tc *ToolContext) Escalate() { tc.actions.Escalate = true }

// SkipSummarization requests the raw tool result be used as the agent output.
func (tc *ToolContext) SkipSummarization() { tc.actions.SkipSummarization = true }
