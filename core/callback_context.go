package core

// CallbackContext is handed to lifecycle callbacks (before/after agent, model
// and tool chains). It exposes the run context plus the identity of the agent
// whose lifecycle point fired.
type CallbackContext struct {
	*RunContext

	agentName string
}

// NewCallbackContext creates a callback context for the named agent.
func NewCallbackContext(rc *RunContext, agentName string) *CallbackContext {
	return &CallbackContext{RunContext: rc, agentName: agentName}
}

// AgentName returns the agent whose lifecycle point triggered the callback.
func (cc *CallbackContext) AgentName() string { return cc.agentName }
