package agent

import (
	"fmt"

	"github.com/agentloom/agentloom/core"
)

// SequentialAgent coordinates the execution of its child agents in order.
//
// The same run context flows through every child, so each agent sees the
// session state and transcript its predecessors produced. The first error
// stops execution.
type SequentialAgent struct {
	BaseAgent
}

// NewSequentialAgent creates a new sequential execution coordinator.
func NewSequentialAgent(name string, children ...core.Agent) *SequentialAgent {
	sa := &SequentialAgent{BaseAgent: newBase(name)}
	sa.bind(sa)
	_ = sa.SetSubAgents(children...)
	return sa
}

// Run implements core.Agent. It executes each child agent in declaration
// order; errors stop further processing immediately. Child escalations
// propagate unchanged so an enclosing loop can observe them.
func (s *SequentialAgent) Run(rc *core.RunContext) error {
	skip, err := s.runBeforeAgent(rc)
	if err != nil || skip {
		return err
	}

	for _, child := range s.SubAgents() {
		select {
		case <-rc.Done():
			return rc.Err()
		default:
		}

		if err := child.Run(rc); err != nil {
			return fmt.Errorf("sequential execution failed at agent %s: %w", child.Name(), err)
		}
	}

	return s.runAfterAgent(rc)
}
