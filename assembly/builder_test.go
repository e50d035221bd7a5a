package assembly

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentloom/agentloom/agent"
	"github.com/agentloom/agentloom/core"
	"github.com/agentloom/agentloom/model"
	"github.com/agentloom/agentloom/registry"
	"github.com/agentloom/agentloom/tool"
)

func newTestBuilder(t *testing.T) (*Builder, *registry.Registry) {
	t.Helper()

	reg := registry.New()
	require.NoError(t, tool.RegisterBuiltins(reg))

	models := model.NewRegistry()
	models.Register("mock", func(name string) (model.Model, error) {
		return model.NewMockModel(name, "mock"), nil
	})

	b := NewBuilder(reg, func(o *BuilderOptions) { o.Models = models })
	return b, reg
}

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestBuildDocumentVariants(t *testing.T) {
	b, _ := newTestBuilder(t)

	tests := []struct {
		name string
		raw  map[string]any
		want func(t *testing.T, a core.Agent)
	}{
		{
			name: "base with extras",
			raw:  map[string]any{"name": "Plain", "custom": "kept"},
			want: func(t *testing.T, a core.Agent) {
				base, ok := a.(*agent.BaseAgent)
				require.True(t, ok)
				assert.Equal(t, "kept", base.Extras()["custom"])
			},
		},
		{
			name: "llm",
			raw: map[string]any{
				"agent_class": "LlmAgent",
				"name":        "Smart",
				"model":       "mock-small",
				"instruction": "be smart",
				"output_key":  "answer",
			},
			want: func(t *testing.T, a core.Agent) {
				llm, ok := a.(*agent.LlmAgent)
				require.True(t, ok)
				assert.Equal(t, "answer", llm.OutputKey())
				assert.Equal(t, "mock", llm.Model().Info().Provider)
			},
		},
		{
			name: "loop",
			raw:  map[string]any{"agent_class": "LoopAgent", "name": "Again", "max_iterations": 4},
			want: func(t *testing.T, a core.Agent) {
				loop, ok := a.(*agent.LoopAgent)
				require.True(t, ok)
				assert.Equal(t, 4, loop.MaxIterations())
			},
		},
		{
			name: "parallel",
			raw:  map[string]any{"agent_class": "ParallelAgent", "name": "FanOut"},
			want: func(t *testing.T, a core.Agent) {
				_, ok := a.(*agent.ParallelAgent)
				assert.True(t, ok)
			},
		},
		{
			name: "sequential",
			raw:  map[string]any{"agent_class": "SequentialAgent", "name": "Pipeline"},
			want: func(t *testing.T, a core.Agent) {
				_, ok := a.(*agent.SequentialAgent)
				assert.True(t, ok)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := b.BuildDocument(tt.raw, t.TempDir())
			require.NoError(t, err)
			tt.want(t, a)
		})
	}
}

func TestBuildPipelineAcrossDocuments(t *testing.T) {
	b, reg := newTestBuilder(t)
	require.NoError(t, reg.RegisterFunction("hooks.trace", func(cc *core.CallbackContext, req *model.Request) (*model.Response, error) {
		return nil, nil
	}))

	dir := t.TempDir()
	writeDoc(t, dir, "researcher.yaml", `
agent_class: LlmAgent
name: Researcher
model: mock-small
instruction: research things
output_key: notes
tools:
  - name: state_manager
before_model_callbacks:
  - name: hooks.trace
`)
	writeDoc(t, dir, "writer.yaml", `
agent_class: LlmAgent
name: Writer
model: mock-small
instruction: write things
tools:
  - name: state_manager
    args:
      read_only: true
before_model_callbacks:
  - name: hooks.trace
`)
	root := writeDoc(t, dir, "pipeline.yaml", `
agent_class: SequentialAgent
name: Pipeline
sub_agents:
  - config_path: researcher.yaml
  - config_path: writer.yaml
    name: Writer
`)

	a, err := b.BuildFile(root)
	require.NoError(t, err)

	assert.Equal(t, "Pipeline", a.Name())
	children := a.SubAgents()
	require.Len(t, children, 2)
	assert.Equal(t, "Researcher", children[0].Name())
	assert.Equal(t, "Writer", children[1].Name())

	for _, child := range children {
		llm, ok := child.(*agent.LlmAgent)
		require.True(t, ok)
		assert.True(t, llm.HasTool("state_manager"))
		assert.Same(t, a, child.Parent())
	}

	writer := children[1].(*agent.LlmAgent)
	sm, ok := writer.Tools()[0].(*tool.StateManagerTool)
	require.True(t, ok)
	assert.True(t, sm.ReadOnly())
}

func TestBuildDeterministic(t *testing.T) {
	b, _ := newTestBuilder(t)

	dir := t.TempDir()
	writeDoc(t, dir, "child.yaml", `
agent_class: LlmAgent
name: Child
model: mock-small
instruction: hi
`)
	root := writeDoc(t, dir, "root.yaml", `
agent_class: SequentialAgent
name: Root
sub_agents:
  - config_path: child.yaml
`)

	first, err := b.BuildFile(root)
	require.NoError(t, err)
	second, err := b.BuildFile(root)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, first.Name(), second.Name())
	require.Len(t, second.SubAgents(), 1)
	assert.NotSame(t, first.SubAgents()[0], second.SubAgents()[0])
}

func TestBuildDuplicateSiblingNames(t *testing.T) {
	b, _ := newTestBuilder(t)

	dir := t.TempDir()
	writeDoc(t, dir, "child.yaml", "name: Twin\n")
	root := writeDoc(t, dir, "root.yaml", `
agent_class: ParallelAgent
name: Root
sub_agents:
  - config_path: child.yaml
  - config_path: child.yaml
`)

	_, err := b.BuildFile(root)
	var dupErr *DuplicateAgentNameError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "Twin", dupErr.Name)
	assert.Equal(t, "Root", dupErr.Parent)
	assert.Equal(t, KindDuplicateName, Classify(err))
}

func TestBuildCyclicReference(t *testing.T) {
	b, _ := newTestBuilder(t)

	dir := t.TempDir()
	writeDoc(t, dir, "a.yaml", `
agent_class: SequentialAgent
name: A
sub_agents:
  - config_path: b.yaml
`)
	root := writeDoc(t, dir, "b.yaml", `
agent_class: SequentialAgent
name: B
sub_agents:
  - config_path: a.yaml
`)

	_, err := b.BuildFile(root)
	var cyclicErr *CyclicReferenceError
	require.ErrorAs(t, err, &cyclicErr)
	// Chain runs from the root document back to the repeated entry.
	require.GreaterOrEqual(t, len(cyclicErr.Chain), 3)
	assert.Equal(t, cyclicErr.Chain[0], cyclicErr.Chain[len(cyclicErr.Chain)-1])
	assert.Equal(t, KindCyclicReference, Classify(err))
}

func TestBuildSelfReference(t *testing.T) {
	b, _ := newTestBuilder(t)

	dir := t.TempDir()
	root := writeDoc(t, dir, "self.yaml", `
agent_class: LoopAgent
name: Ouroboros
sub_agents:
  - config_path: self.yaml
`)

	_, err := b.BuildFile(root)
	var cyclicErr *CyclicReferenceError
	assert.ErrorAs(t, err, &cyclicErr)
}

func TestBuildSharedDocumentIsNotACycle(t *testing.T) {
	b, _ := newTestBuilder(t)

	dir := t.TempDir()
	writeDoc(t, dir, "shared.yaml", "name: Shared\n")
	writeDoc(t, dir, "left.yaml", `
agent_class: SequentialAgent
name: Left
sub_agents:
  - config_path: shared.yaml
`)
	root := writeDoc(t, dir, "root.yaml", `
agent_class: SequentialAgent
name: Root
sub_agents:
  - config_path: left.yaml
`)

	// shared.yaml appears once per branch, never on its own active chain.
	a, err := b.BuildFile(root)
	require.NoError(t, err)
	assert.Equal(t, "Left", a.SubAgents()[0].Name())
}

func TestBuildRefNameMismatch(t *testing.T) {
	b, _ := newTestBuilder(t)

	dir := t.TempDir()
	writeDoc(t, dir, "child.yaml", "name: Actual\n")
	root := writeDoc(t, dir, "root.yaml", `
agent_class: SequentialAgent
name: Root
sub_agents:
  - config_path: child.yaml
    name: Expected
`)

	_, err := b.BuildFile(root)
	assert.Equal(t, KindSchemaViolation, Classify(err))
	assert.ErrorContains(t, err, "Expected")
}

func TestBuildCodeReferences(t *testing.T) {
	b, reg := newTestBuilder(t)

	ready := agent.NewBaseAgent("Ready")
	require.NoError(t, reg.RegisterInstance("agents.ready", ready))
	require.NoError(t, reg.RegisterFunction("agents.make_fresh", func() (core.Agent, error) {
		return agent.NewBaseAgent("Fresh"), nil
	}))

	a, err := b.BuildDocument(map[string]any{
		"agent_class": "SequentialAgent",
		"name":        "Root",
		"sub_agents": []any{
			map[string]any{"code": "agents.ready"},
			map[string]any{"code": "agents.make_fresh"},
		},
	}, t.TempDir())
	require.NoError(t, err)

	children := a.SubAgents()
	require.Len(t, children, 2)
	assert.Same(t, core.Agent(ready), children[0])
	assert.Equal(t, "Fresh", children[1].Name())
}

func TestBuildUnknownCodeReference(t *testing.T) {
	b, _ := newTestBuilder(t)

	_, err := b.BuildDocument(map[string]any{
		"agent_class": "SequentialAgent",
		"name":        "Root",
		"sub_agents":  []any{map[string]any{"code": "agents.missing"}},
	}, t.TempDir())

	var refErr *ReferenceNotFoundError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, "agents.missing", refErr.Name)
	assert.Equal(t, KindReferenceNotFound, Classify(err))
}

func TestBuildErrorCarriesChain(t *testing.T) {
	b, _ := newTestBuilder(t)

	dir := t.TempDir()
	writeDoc(t, dir, "bad.yaml", `
agent_class: LlmAgent
name: Bad
instruction: hi
`)
	root := writeDoc(t, dir, "root.yaml", `
agent_class: SequentialAgent
name: Root
sub_agents:
  - config_path: bad.yaml
`)

	_, err := b.BuildFile(root)
	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	// The chain names the failing node; missing model fails the Llm child.
	assert.Contains(t, buildErr.Chain, "Bad")
	assert.Equal(t, KindSchemaViolation, Classify(err))
}

func TestBuildMissingDocument(t *testing.T) {
	b, _ := newTestBuilder(t)

	dir := t.TempDir()
	root := writeDoc(t, dir, "root.yaml", `
agent_class: SequentialAgent
name: Root
sub_agents:
  - config_path: missing.yaml
`)

	_, err := b.BuildFile(root)
	var loadErr *DocumentLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, KindDocumentLoad, Classify(err))
}

func TestBuildAgentCallbacksFromRegistry(t *testing.T) {
	b, reg := newTestBuilder(t)

	require.NoError(t, reg.RegisterFunction("hooks.short_circuit", func(cc *core.CallbackContext) (*core.Content, error) {
		content := core.NewAssistantText("intercepted")
		return &content, nil
	}))

	a, err := b.BuildDocument(map[string]any{
		"name": "Hooked",
		"before_agent_callbacks": []any{
			map[string]any{"name": "hooks.short_circuit"},
		},
	}, t.TempDir())
	require.NoError(t, err)

	rc := core.NewRunContext(t.Context(), "s", core.NewUserText("hi"), nil, nil)
	require.NoError(t, a.Run(rc))
	assert.Equal(t, "intercepted", rc.LastText())
}

func TestBuildUnknownVariantClassified(t *testing.T) {
	b, _ := newTestBuilder(t)

	_, err := b.BuildDocument(map[string]any{"agent_class": "WizardAgent", "name": "A"}, t.TempDir())
	assert.Equal(t, KindUnknownVariant, Classify(err))
}
