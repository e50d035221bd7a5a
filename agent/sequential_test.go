package agent

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentloom/agentloom/core"
	"github.com/agentloom/agentloom/internal/testutil"
)

func TestSequentialRunsInOrder(t *testing.T) {
	var order []string
	step := func(name string) *stepAgent {
		return newStepAgent(name, func(rc *core.RunContext) error {
			order = append(order, name)
			return nil
		})
	}

	seq := NewSequentialAgent("Pipeline", step("First"), step("Second"), step("Third"))
	require.NoError(t, seq.Run(testutil.NewRunContext("go")))
	assert.Equal(t, []string{"First", "Second", "Third"}, order)
}

func TestSequentialSharesState(t *testing.T) {
	producer := newStepAgent("Producer", func(rc *core.RunContext) error {
		rc.SetState("notes", "findings")
		return nil
	})
	var observed any
	consumer := newStepAgent("Consumer", func(rc *core.RunContext) error {
		observed, _ = rc.GetState("notes")
		return nil
	})

	seq := NewSequentialAgent("Pipeline", producer, consumer)
	require.NoError(t, seq.Run(testutil.NewRunContext("go")))
	assert.Equal(t, "findings", observed)
}

func TestSequentialStopsOnError(t *testing.T) {
	thirdRan := false
	seq := NewSequentialAgent("Pipeline",
		newStepAgent("First", func(rc *core.RunContext) error { return nil }),
		newStepAgent("Second", func(rc *core.RunContext) error { return fmt.Errorf("boom") }),
		newStepAgent("Third", func(rc *core.RunContext) error {
			thirdRan = true
			return nil
		}),
	)

	err := seq.Run(testutil.NewRunContext("go"))
	assert.ErrorContains(t, err, "sequential execution failed at agent Second")
	assert.False(t, thirdRan)
}

func TestSequentialEscalationPropagates(t *testing.T) {
	seq := NewSequentialAgent("Pipeline",
		newStepAgent("Quitter", func(rc *core.RunContext) error { return ErrEscalated }),
	)

	err := seq.Run(testutil.NewRunContext("go"))
	assert.ErrorIs(t, err, ErrEscalated)
}

func TestSequentialInsideLoop(t *testing.T) {
	iterations := 0
	body := NewSequentialAgent("Body",
		newStepAgent("Work", func(rc *core.RunContext) error {
			iterations++
			return nil
		}),
		newStepAgent("Check", func(rc *core.RunContext) error {
			if iterations >= 2 {
				return ErrEscalated
			}
			return nil
		}),
	)

	loop := NewLoopAgent("Refine", 10, body)
	require.NoError(t, loop.Run(testutil.NewRunContext("go")))
	assert.Equal(t, 2, iterations)
}
