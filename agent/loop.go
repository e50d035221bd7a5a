package agent

import (
	"errors"
	"fmt"

	"github.com/agentloom/agentloom/core"
)

// ErrEscalated signals that a descendant agent requested termination of the
// enclosing loop. LoopAgent treats it as normal early exit.
var ErrEscalated = errors.New("agent escalated")

// LoopAgent coordinates the repeated execution of its child agents.
//
// Each iteration runs every child in order with the shared run context, so
// state accumulates across iterations. The loop ends when the iteration limit
// is reached or a child escalates.
type LoopAgent struct {
	BaseAgent
	maxIterations int
}

// NewLoopAgent constructs a looping coordinator around the given children.
// maxIterations <= 0 means unbounded; the loop then runs until a child
// escalates or the context is cancelled.
func NewLoopAgent(name string, maxIterations int, children ...core.Agent) *LoopAgent {
	la := &LoopAgent{
		BaseAgent:     newBase(name),
		maxIterations: maxIterations,
	}
	la.bind(la)
	_ = la.SetSubAgents(children...)
	return la
}

// MaxIterations returns the configured iteration limit (0 = unbounded).
func (l *LoopAgent) MaxIterations() int { return l.maxIterations }

// Run implements core.Agent performing iterative execution with escalation
// detection. Escalation ends the loop without error.
func (l *LoopAgent) Run(rc *core.RunContext) error {
	skip, err := l.runBeforeAgent(rc)
	if err != nil || skip {
		return err
	}

	for i := 0; l.maxIterations <= 0 || i < l.maxIterations; i++ {
		select {
		case <-rc.Done():
			return rc.Err()
		default:
		}

		rc.LogDebug("loop.iteration", "agent", l.Name(), "iteration", i+1)

		for _, child := range l.SubAgents() {
			if err := child.Run(rc); err != nil {
				if errors.Is(err, ErrEscalated) {
					rc.LogInfo("loop.escalated", "agent", l.Name(), "child", child.Name(), "iteration", i+1)
					return l.runAfterAgent(rc)
				}
				return fmt.Errorf("loop iteration %d failed at agent %s: %w", i+1, child.Name(), err)
			}
		}
	}

	rc.LogDebug("loop.complete", "agent", l.Name(), "iterations", l.maxIterations)

	return l.runAfterAgent(rc)
}
