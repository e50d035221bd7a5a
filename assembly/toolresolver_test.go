package assembly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentloom/agentloom/config"
	"github.com/agentloom/agentloom/core"
	"github.com/agentloom/agentloom/registry"
	"github.com/agentloom/agentloom/tool"
)

func newTestResolver(t *testing.T) (*ToolResolver, *registry.Registry) {
	t.Helper()
	reg := registry.New()
	require.NoError(t, tool.RegisterBuiltins(reg))
	return NewToolResolver(reg, NewBinder(nil)), reg
}

func echoTool(name string) tool.Tool {
	return tool.NewFunctionTool(name, "echoes args", nil,
		func(_ *core.ToolContext, args map[string]any) (any, error) { return args, nil })
}

func TestResolveBuiltinInstance(t *testing.T) {
	r, _ := newTestResolver(t)

	resolved, err := r.Resolve(config.ToolConfig{Name: "transfer_to_agent"})
	require.NoError(t, err)
	assert.Equal(t, "transfer_to_agent", resolved.Name())
}

func TestResolveBuiltinInstanceWithArgsRejected(t *testing.T) {
	r, _ := newTestResolver(t)

	_, err := r.Resolve(config.ToolConfig{
		Name: "transfer_to_agent",
		Args: map[string]any{"agent": "Other"},
	})
	assert.ErrorContains(t, err, "takes no arguments")
}

func TestResolveBuiltinClass(t *testing.T) {
	r, _ := newTestResolver(t)

	resolved, err := r.Resolve(config.ToolConfig{
		Name: "state_manager",
		Args: map[string]any{"read_only": true, "key_prefix": "app."},
	})
	require.NoError(t, err)

	sm, ok := resolved.(*tool.StateManagerTool)
	require.True(t, ok)
	assert.True(t, sm.ReadOnly())
	assert.Equal(t, "app.", sm.KeyPrefix())
}

func TestResolveBuiltinClassWithoutArgs(t *testing.T) {
	r, _ := newTestResolver(t)
	reg := registry.New()
	require.NoError(t, reg.RegisterBuiltinClass("state_manager", &registry.Callable{
		Invoke: func(args map[string]any) (any, error) { return tool.NewStateManagerTool(), nil },
	}))
	r = NewToolResolver(reg, NewBinder(nil))

	resolved, err := r.Resolve(config.ToolConfig{Name: "state_manager"})
	require.NoError(t, err)
	assert.Equal(t, "state_manager", resolved.Name())
}

func TestResolveInstanceOverClass(t *testing.T) {
	reg := registry.New()
	instance := echoTool("ambiguous")
	require.NoError(t, reg.RegisterBuiltinInstance("ambiguous", instance))
	require.NoError(t, reg.RegisterBuiltinClass("ambiguous", &registry.Callable{
		Open:   true,
		Invoke: func(args map[string]any) (any, error) { return echoTool("constructed"), nil },
	}))
	r := NewToolResolver(reg, NewBinder(nil))

	// No arguments: the instance facet wins over the class facet.
	resolved, err := r.Resolve(config.ToolConfig{Name: "ambiguous"})
	require.NoError(t, err)
	assert.Same(t, instance, resolved)

	// Arguments force construction through the class facet.
	resolved, err = r.Resolve(config.ToolConfig{Name: "ambiguous", Args: map[string]any{"depth": 1}})
	require.NoError(t, err)
	assert.Equal(t, "constructed", resolved.Name())
}

func TestResolveQualifiedInstance(t *testing.T) {
	r, reg := newTestResolver(t)
	instance := echoTool("search")
	require.NoError(t, reg.RegisterInstance("pkg.search", instance))

	resolved, err := r.Resolve(config.ToolConfig{Name: "pkg.search"})
	require.NoError(t, err)
	assert.Same(t, instance, resolved)

	_, err = r.Resolve(config.ToolConfig{Name: "pkg.search", Args: map[string]any{"k": 1}})
	assert.ErrorContains(t, err, "takes no arguments")
}

func TestResolveQualifiedClass(t *testing.T) {
	r, reg := newTestResolver(t)
	require.NoError(t, reg.RegisterClass("pkg.searcher", &registry.Callable{
		Params: []registry.ParamSpec{{Name: "depth", Required: true}},
		Invoke: func(args map[string]any) (any, error) { return echoTool("searcher"), nil },
	}))

	resolved, err := r.Resolve(config.ToolConfig{Name: "pkg.searcher", Args: map[string]any{"depth": 3}})
	require.NoError(t, err)
	assert.Equal(t, "searcher", resolved.Name())

	// Binder errors propagate unchanged.
	_, err = r.Resolve(config.ToolConfig{Name: "pkg.searcher", Args: map[string]any{"depth": 3, "volume": 11}})
	var unknownErr *UnknownArgumentError
	assert.ErrorAs(t, err, &unknownErr)
}

func TestResolveFactoryFunction(t *testing.T) {
	r, reg := newTestResolver(t)
	require.NoError(t, reg.RegisterFunction("pkg.make_search", func(args map[string]any) (tool.Tool, error) {
		return echoTool("made"), nil
	}))

	resolved, err := r.Resolve(config.ToolConfig{Name: "pkg.make_search", Args: map[string]any{"depth": 3}})
	require.NoError(t, err)
	assert.Equal(t, "made", resolved.Name())
}

func TestResolvePlainFunctionWrapped(t *testing.T) {
	r, reg := newTestResolver(t)
	require.NoError(t, reg.RegisterFunction("pkg.lookup", tool.Func(
		func(_ *core.ToolContext, args map[string]any) (any, error) { return "found", nil },
	)))

	resolved, err := r.Resolve(config.ToolConfig{Name: "pkg.lookup"})
	require.NoError(t, err)
	assert.Equal(t, "lookup", resolved.Name())

	_, err = r.Resolve(config.ToolConfig{Name: "pkg.lookup", Args: map[string]any{"k": 1}})
	assert.ErrorContains(t, err, "takes no declaration arguments")
}

func TestResolveNotFound(t *testing.T) {
	r, _ := newTestResolver(t)

	_, err := r.Resolve(config.ToolConfig{Name: "pkg.missing"})
	var toolErr *ToolResolutionError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "pkg.missing", toolErr.Name)
	assert.NotEmpty(t, toolErr.Attempted)

	_, err = r.Resolve(config.ToolConfig{Name: "unknown_builtin"})
	assert.ErrorAs(t, err, &toolErr)
}

func TestResolveNonToolInstanceRejected(t *testing.T) {
	r, reg := newTestResolver(t)
	require.NoError(t, reg.RegisterInstance("pkg.not_a_tool", "just a string"))

	_, err := r.Resolve(config.ToolConfig{Name: "pkg.not_a_tool"})
	assert.ErrorContains(t, err, "does not implement tool.Tool")
}
