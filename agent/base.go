package agent

import (
	"fmt"
	"sync"

	"github.com/agentloom/agentloom/core"
)

// BaseAgent bundles identity, hierarchy management and agent-level callback
// execution shared by all agent variants. Embed it in concrete agent
// implementations and override Run. On its own it is a structural node: Run
// executes the agent callbacks and nothing else, which makes a standalone
// BaseAgent useful as a named container in a hierarchy.
//
// All exported methods are goroutine-safe unless otherwise documented.
type BaseAgent struct {
	name        string
	description string
	mu          sync.Mutex
	parent      core.Agent
	subAgents   []core.Agent
	self        core.Agent

	beforeAgent []AgentCallback
	afterAgent  []AgentCallback

	// Fields from a configuration document not recognized by the variant,
	// preserved for downstream consumers.
	extras map[string]any
}

// NewBaseAgent constructs a standalone structural agent.
func NewBaseAgent(name string) *BaseAgent {
	b := &BaseAgent{
		name:        name,
		description: fmt.Sprintf("Agent %s", name),
	}
	b.self = b
	return b
}

// newBase constructs the embeddable core of a concrete agent variant. The
// variant constructor must call bind with the outer value so hierarchy
// traversal hands out the concrete agent, not the embedded base.
func newBase(name string) BaseAgent {
	return BaseAgent{
		name:        name,
		description: fmt.Sprintf("Agent %s", name),
	}
}

// bind registers the outer agent value for hierarchy traversal.
func (b *BaseAgent) bind(self core.Agent) { b.self = self }

// Name returns the human-readable name for this agent.
func (b *BaseAgent) Name() string { return b.name }

// Description returns a detailed description of this agent's purpose.
func (b *BaseAgent) Description() string { return b.description }

// SetDescription updates the agent's description.
func (b *BaseAgent) SetDescription(desc string) { b.description = desc }

// SetExtras stores unrecognized configuration fields on the agent.
func (b *BaseAgent) SetExtras(extras map[string]any) { b.extras = extras }

// Extras returns a copy of the preserved unrecognized configuration fields.
func (b *BaseAgent) Extras() map[string]any {
	if b.extras == nil {
		return nil
	}
	out := make(map[string]any, len(b.extras))
	for k, v := range b.extras {
		out[k] = v
	}
	return out
}

// AddBeforeAgentCallback appends a callback executed before the agent body.
func (b *BaseAgent) AddBeforeAgentCallback(cb AgentCallback) {
	b.beforeAgent = append(b.beforeAgent, cb)
}

// AddAfterAgentCallback appends a callback executed after the agent body.
func (b *BaseAgent) AddAfterAgentCallback(cb AgentCallback) {
	b.afterAgent = append(b.afterAgent, cb)
}

// Run implements core.Agent for standalone structural agents: the before and
// after callbacks execute with no body between them.
func (b *BaseAgent) Run(rc *core.RunContext) error {
	skip, err := b.runBeforeAgent(rc)
	if err != nil || skip {
		return err
	}
	return b.runAfterAgent(rc)
}

// runBeforeAgent executes the before-agent chain. A callback returning
// non-nil content is appended to the transcript and reported as a skip.
func (b *BaseAgent) runBeforeAgent(rc *core.RunContext) (bool, error) {
	cc := core.NewCallbackContext(rc, b.name)
	for _, cb := range b.beforeAgent {
		content, err := cb(cc)
		if err != nil {
			return false, fmt.Errorf("before-agent callback of %s: %w", b.name, err)
		}
		if content != nil {
			rc.Append(*content)
			return true, nil
		}
	}
	return false, nil
}

// runAfterAgent executes the after-agent chain; non-nil content is appended
// to the transcript as additional agent output.
func (b *BaseAgent) runAfterAgent(rc *core.RunContext) error {
	cc := core.NewCallbackContext(rc, b.name)
	for _, cb := range b.afterAgent {
		content, err := cb(cc)
		if err != nil {
			return fmt.Errorf("after-agent callback of %s: %w", b.name, err)
		}
		if content != nil {
			rc.Append(*content)
		}
	}
	return nil
}

// SetSubAgents atomically replaces the child agent set, clearing any previous
// parent links then assigning this agent as the parent of each new child. It
// enforces a single-parent invariant for all managed children.
func (b *BaseAgent) SetSubAgents(children ...core.Agent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, child := range b.subAgents {
		if setter, ok := child.(interface{ setParent(core.Agent) }); ok {
			setter.setParent(nil)
		}
	}
	b.subAgents = nil

	for _, child := range children {
		if setter, ok := child.(interface{ setParent(core.Agent) }); ok {
			setter.setParent(b.asAgent())
		}
		b.subAgents = append(b.subAgents, child)
	}

	return nil
}

// setParent sets the internal parent reference. Called by SetSubAgents to
// maintain the hierarchy.
func (b *BaseAgent) setParent(p core.Agent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.parent = p
}

// Parent returns the current parent agent or nil if this agent is root.
func (b *BaseAgent) Parent() core.Agent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.parent
}

// SubAgents returns a shallow copy of current child agents for safe iteration.
func (b *BaseAgent) SubAgents() []core.Agent {
	b.mu.Lock()
	defer b.mu.Unlock()
	result := make([]core.Agent, len(b.subAgents))
	copy(result, b.subAgents)
	return result
}

// FindAgent performs a depth-first search over the subtree rooted at this
// agent (including itself) returning the first agent whose Name matches.
// Returns nil if no match is found.
func (b *BaseAgent) FindAgent(name string) core.Agent {
	if b.name == name {
		return b.asAgent()
	}
	for _, child := range b.SubAgents() {
		if child.Name() == name {
			return child
		}
		if found := child.FindAgent(name); found != nil {
			return found
		}
	}
	return nil
}

// Root walks parent links to the top of the hierarchy.
func (b *BaseAgent) Root() core.Agent {
	var current core.Agent = b.asAgent()
	for current.Parent() != nil {
		current = current.Parent()
	}
	return current
}

// asAgent returns the bound concrete agent, falling back to the base itself
// for standalone use.
func (b *BaseAgent) asAgent() core.Agent {
	if b.self != nil {
		return b.self
	}
	return b
}
