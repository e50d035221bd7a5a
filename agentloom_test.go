package agentloom

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentloom/agentloom/agent"
	"github.com/agentloom/agentloom/assembly"
	"github.com/agentloom/agentloom/core"
	"github.com/agentloom/agentloom/model"
)

func TestNewDefaults(t *testing.T) {
	loom, err := New()
	require.NoError(t, err)

	// Builtin tools are pre-registered.
	_, ok := loom.Registry().LookupBuiltin("transfer_to_agent")
	assert.True(t, ok)
	_, ok = loom.Registry().LookupBuiltin("state_manager")
	assert.True(t, ok)

	// The bundled providers answer by identifier prefix.
	m, err := loom.Models().Resolve("mock-small")
	require.NoError(t, err)
	assert.Equal(t, "mock", m.Info().Provider)
}

func TestDefaultModelRegistryPrefixes(t *testing.T) {
	models := DefaultModelRegistry()

	for _, name := range []string{"gpt-4o", "o3-mini", "claude-sonnet-4", "mock"} {
		m, err := models.Resolve(name)
		require.NoError(t, err, "identifier %s", name)
		assert.Equal(t, name, m.Info().Name)
	}

	_, err := models.Resolve("unknown-model")
	assert.Error(t, err)
}

func TestLoadAgentAndRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agent.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
agent_class: LlmAgent
name: Assistant
model: mock-small
instruction: Be helpful.
output_key: reply
`), 0o644))

	loom, err := New()
	require.NoError(t, err)

	a, err := loom.LoadAgent(path)
	require.NoError(t, err)

	llm, ok := a.(*agent.LlmAgent)
	require.True(t, ok)
	llm.Model().(*model.MockModel).AddResponse("hello", "hi there")

	out, err := loom.Run(context.Background(), a, "s1", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi there", out)

	reply, ok := loom.Session("s1").Get("reply")
	require.True(t, ok)
	assert.Equal(t, "hi there", reply)
}

func TestBuildAgentFromDocument(t *testing.T) {
	loom, err := New()
	require.NoError(t, err)

	a, err := loom.BuildAgent(map[string]any{
		"agent_class": "SequentialAgent",
		"name":        "Pipeline",
	}, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "Pipeline", a.Name())
}

func TestBuildAgentClassifiedFailure(t *testing.T) {
	loom, err := New()
	require.NoError(t, err)

	_, err = loom.BuildAgent(map[string]any{
		"agent_class": "WizardAgent",
		"name":        "A",
	}, t.TempDir())
	assert.Equal(t, assembly.KindUnknownVariant, assembly.Classify(err))
}

func TestSessionsPersistAcrossRuns(t *testing.T) {
	loom, err := New()
	require.NoError(t, err)

	writer := agent.NewBaseAgent("Writer")
	writer.AddBeforeAgentCallback(func(cc *core.CallbackContext) (*core.Content, error) {
		count := 0
		if v, ok := cc.GetState("count"); ok {
			count = v.(int)
		}
		cc.SetState("count", count+1)
		return nil, nil
	})

	_, err = loom.Run(context.Background(), writer, "persistent", "first")
	require.NoError(t, err)
	_, err = loom.Run(context.Background(), writer, "persistent", "second")
	require.NoError(t, err)

	count, _ := loom.Session("persistent").Get("count")
	assert.Equal(t, 2, count)

	// A different session starts clean.
	_, ok := loom.Session("other").Get("count")
	assert.False(t, ok)
}

func TestRegisteredAgentReference(t *testing.T) {
	loom, err := New()
	require.NoError(t, err)

	require.NoError(t, loom.Registry().RegisterInstance("agents.greeter", agent.NewBaseAgent("Greeter")))

	a, err := loom.BuildAgent(map[string]any{
		"agent_class": "SequentialAgent",
		"name":        "Root",
		"sub_agents":  []any{map[string]any{"code": "agents.greeter"}},
	}, t.TempDir())
	require.NoError(t, err)

	require.Len(t, a.SubAgents(), 1)
	assert.Equal(t, "Greeter", a.SubAgents()[0].Name())
}
