package assembly

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentloom/agentloom/config"
	"github.com/agentloom/agentloom/registry"
)

func positional(value any) config.ArgumentConfig {
	return config.ArgumentConfig{Value: value}
}

func named(name string, value any) config.ArgumentConfig {
	return config.ArgumentConfig{Name: name, Value: value}
}

func greeterCallable() *registry.Callable {
	return &registry.Callable{
		Params: []registry.ParamSpec{
			{Name: "greeting", Required: true},
			{Name: "punctuation"},
		},
		Invoke: func(args map[string]any) (any, error) {
			p, _ := args["punctuation"].(string)
			return fmt.Sprintf("%v%s", args["greeting"], p), nil
		},
	}
}

func TestBindPositionalThenNamed(t *testing.T) {
	b := NewBinder(nil)

	bound, err := b.Bind("pkg.greeter", greeterCallable(), []config.ArgumentConfig{
		positional("hello"),
		named("punctuation", "!"),
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"greeting": "hello", "punctuation": "!"}, bound)
}

func TestBindPositionalAfterNamedRejected(t *testing.T) {
	b := NewBinder(nil)

	_, err := b.Bind("pkg.greeter", greeterCallable(), []config.ArgumentConfig{
		named("punctuation", "!"),
		positional("hello"),
	})

	var orderErr *ArgumentOrderError
	require.ErrorAs(t, err, &orderErr)
	assert.Equal(t, 1, orderErr.Index)
	assert.Equal(t, "pkg.greeter", orderErr.Target)
}

func TestBindUnknownNamedRejected(t *testing.T) {
	b := NewBinder(nil)

	_, err := b.Bind("pkg.greeter", greeterCallable(), []config.ArgumentConfig{
		named("greeting", "hello"),
		named("volume", 11),
	})

	var unknownErr *UnknownArgumentError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "volume", unknownErr.Argument)
}

func TestBindOpenCallableAcceptsExtras(t *testing.T) {
	b := NewBinder(nil)
	open := &registry.Callable{
		Params: []registry.ParamSpec{{Name: "greeting", Required: true}},
		Open:   true,
		Invoke: func(args map[string]any) (any, error) { return args, nil },
	}

	bound, err := b.Bind("pkg.open", open, []config.ArgumentConfig{
		named("greeting", "hi"),
		named("volume", 11),
	})
	require.NoError(t, err)
	assert.Equal(t, 11, bound["volume"])
}

func TestBindPositionalOverflowRejected(t *testing.T) {
	b := NewBinder(nil)

	_, err := b.Bind("pkg.greeter", greeterCallable(), []config.ArgumentConfig{
		positional("hello"),
		positional("!"),
		positional("extra"),
	})

	var unknownErr *UnknownArgumentError
	assert.ErrorAs(t, err, &unknownErr)
}

func TestBindDuplicateRejected(t *testing.T) {
	b := NewBinder(nil)

	_, err := b.Bind("pkg.greeter", greeterCallable(), []config.ArgumentConfig{
		positional("hello"),
		named("greeting", "hi"),
	})

	var schemaErr *config.SchemaViolationError
	assert.ErrorAs(t, err, &schemaErr)
}

func TestBindMissingRequiredRejected(t *testing.T) {
	b := NewBinder(nil)

	_, err := b.Bind("pkg.greeter", greeterCallable(), []config.ArgumentConfig{
		named("punctuation", "!"),
	})

	var schemaErr *config.SchemaViolationError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "greeting", schemaErr.Field)
}

func TestBindTypedResolution(t *testing.T) {
	resolver := func(kind registry.ParamKind, value any) (any, error) {
		return fmt.Sprintf("resolved-%s-%v", kind, value), nil
	}
	b := NewBinder(resolver)

	callable := &registry.Callable{
		Params: []registry.ParamSpec{
			{Name: "handler", Kind: registry.ParamCode},
			{Name: "helper", Kind: registry.ParamTool},
			{Name: "plain"},
		},
		Invoke: func(args map[string]any) (any, error) { return args, nil },
	}

	bound, err := b.Bind("pkg.target", callable, []config.ArgumentConfig{
		named("handler", "pkg.fn"),
		named("helper", "state_manager"),
		named("plain", 1),
	})
	require.NoError(t, err)
	assert.Equal(t, "resolved-code-pkg.fn", bound["handler"])
	assert.Equal(t, "resolved-tool-state_manager", bound["helper"])
	assert.Equal(t, 1, bound["plain"])
}

func TestBindTypedResolutionWithoutResolver(t *testing.T) {
	b := NewBinder(nil)
	callable := &registry.Callable{
		Params: []registry.ParamSpec{{Name: "handler", Kind: registry.ParamCode}},
		Invoke: func(args map[string]any) (any, error) { return args, nil },
	}

	_, err := b.Bind("pkg.target", callable, []config.ArgumentConfig{named("handler", "pkg.fn")})
	assert.Error(t, err)
}

func TestInvoke(t *testing.T) {
	b := NewBinder(nil)

	result, err := b.Invoke("pkg.greeter", greeterCallable(), []config.ArgumentConfig{
		positional("hello"),
		named("punctuation", "!"),
	})
	require.NoError(t, err)
	assert.Equal(t, "hello!", result)
}

func TestInvokeNamedDeterministic(t *testing.T) {
	b := NewBinder(nil)

	result, err := b.InvokeNamed("pkg.greeter", greeterCallable(), map[string]any{
		"punctuation": "?",
		"greeting":    "why",
	})
	require.NoError(t, err)
	assert.Equal(t, "why?", result)

	_, err = b.InvokeNamed("pkg.greeter", greeterCallable(), map[string]any{"volume": 11})
	var unknownErr *UnknownArgumentError
	assert.ErrorAs(t, err, &unknownErr)
}
