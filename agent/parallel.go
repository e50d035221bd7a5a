package agent

import (
	"fmt"
	"sync"

	"github.com/agentloom/agentloom/core"
)

// ParallelAgent coordinates the concurrent execution of its child agents.
//
// Each child runs in its own goroutine with a branch-scoped run context.
// Session state and the transcript stay shared; the branch path only marks
// which fan-out arm produced an entry. All children run to completion even if
// siblings fail; the first error observed is returned.
type ParallelAgent struct {
	BaseAgent
}

// NewParallelAgent creates a new parallel execution coordinator.
func NewParallelAgent(name string, children ...core.Agent) *ParallelAgent {
	pa := &ParallelAgent{BaseAgent: newBase(name)}
	pa.bind(pa)
	_ = pa.SetSubAgents(children...)
	return pa
}

// branchContext scopes the run context to a child-specific branch path of the
// form "Parent.Child" (prefixed by any existing branch).
func (p *ParallelAgent) branchContext(rc *core.RunContext, child core.Agent) *core.RunContext {
	suffix := fmt.Sprintf("%s.%s", p.Name(), child.Name())
	return rc.WithBranch(buildBranchPath(rc.Branch, suffix))
}

// Run implements core.Agent launching all children concurrently. The first
// error encountered (after all complete) is returned; successful children
// continue even if siblings fail.
func (p *ParallelAgent) Run(rc *core.RunContext) error {
	skip, err := p.runBeforeAgent(rc)
	if err != nil || skip {
		return err
	}

	children := p.SubAgents()

	var wg sync.WaitGroup
	errCh := make(chan error, len(children))

	for _, child := range children {
		wg.Add(1)
		go func(c core.Agent) {
			defer wg.Done()

			branchCtx := p.branchContext(rc, c)
			if err := c.Run(branchCtx); err != nil {
				errCh <- fmt.Errorf("parallel execution failed for agent %s: %w", c.Name(), err)
			}
		}(child)
	}

	wg.Wait()
	close(errCh)

	if err := <-errCh; err != nil {
		return err
	}

	return p.runAfterAgent(rc)
}
