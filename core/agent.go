package core

// Agent defines the core interface that all agents in AgentLoom must implement.
//
// Agents are the primary processing units. They receive input through a
// RunContext, process it synchronously and record results in the shared
// session state and transcript.
//
// The interface supports both simple single-agent scenarios and hierarchical
// multi-agent workflows through the sub-agent management methods.
//
// Implementations must:
//   - Respect context cancellation for graceful shutdown
//   - Enforce the single-parent invariant when managing sub-agents
//   - Be safe to share once fully constructed
type Agent interface {
	Name() string
	Description() string
	Run(rc *RunContext) error
	SetSubAgents(children ...Agent) error
	SubAgents() []Agent
	Parent() Agent
	FindAgent(name string) Agent
}

// AgentInfo carries identifying details about an agent used in contexts and logs.
// Name is the external identifier; Type categorizes the variant (e.g. "llm", "sequential").
type AgentInfo struct{ Name, Type string }
