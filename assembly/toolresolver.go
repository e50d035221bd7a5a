package assembly

import (
	"fmt"
	"strings"

	"github.com/agentloom/agentloom/config"
	"github.com/agentloom/agentloom/core"
	"github.com/agentloom/agentloom/registry"
	"github.com/agentloom/agentloom/tool"
)

// ToolFactory is the function shape a registered tool factory must have:
// it receives the declared keyword arguments and returns a ready tool.
type ToolFactory func(args map[string]any) (tool.Tool, error)

// ToolResolver turns a tool declaration into a live tool.Tool by probing a
// fixed sequence of strategies:
//
//  1. builtin instance under the short name (no arguments allowed)
//  2. builtin class under the short name, constructed with the arguments
//  3. registered instance under the qualified name (no arguments allowed)
//  4. registered class under the qualified name, constructed with the arguments
//  5. registered function under the qualified name: a ToolFactory invoked
//     with the arguments, or a plain tool.Func wrapped as a FunctionTool
//
// A strategy that matches but cannot complete (an instance declared with
// arguments, a constructor returning the wrong type) fails the resolution;
// only a non-match moves on to the next strategy.
type ToolResolver struct {
	reg    *registry.Registry
	binder *Binder
}

// NewToolResolver creates a tool resolver over the registry.
func NewToolResolver(reg *registry.Registry, binder *Binder) *ToolResolver {
	return &ToolResolver{reg: reg, binder: binder}
}

// Resolve turns one tool declaration into a live tool.
func (r *ToolResolver) Resolve(cfg config.ToolConfig) (tool.Tool, error) {
	var attempted []string
	hasArgs := len(cfg.Args) > 0

	if !registry.IsQualified(cfg.Name) {
		artifact, ok := r.reg.LookupBuiltin(cfg.Name)
		if !ok {
			attempted = append(attempted, "builtin name lookup")
			return nil, &ToolResolutionError{Name: cfg.Name, Attempted: attempted}
		}

		// Strategy 1: builtin instance. Preferred over the class facet
		// unless arguments force construction.
		if artifact.Instance != nil && !hasArgs {
			attempted = append(attempted, "builtin instance")
			return r.asTool(cfg.Name, artifact.Instance)
		}

		// Strategy 2: builtin class.
		if artifact.Construct != nil {
			attempted = append(attempted, "builtin class constructor")
			result, err := r.binder.InvokeNamed(cfg.Name, artifact.Construct, cfg.Args)
			if err != nil {
				return nil, err
			}
			return r.asTool(cfg.Name, result)
		}

		if artifact.Instance != nil && hasArgs {
			return nil, fmt.Errorf("tool %q is a builtin instance and takes no arguments", cfg.Name)
		}
		attempted = append(attempted, "builtin instance", "builtin class constructor")
		return nil, &ToolResolutionError{Name: cfg.Name, Attempted: attempted}
	}

	artifact, ok := r.reg.Lookup(cfg.Name)
	if !ok {
		attempted = append(attempted, "qualified name lookup")
		return nil, &ToolResolutionError{Name: cfg.Name, Attempted: attempted}
	}

	// Strategy 3: registered instance.
	if artifact.Instance != nil {
		attempted = append(attempted, "registered instance")
		if hasArgs {
			return nil, fmt.Errorf("tool %q is a registered instance and takes no arguments", cfg.Name)
		}
		return r.asTool(cfg.Name, artifact.Instance)
	}

	// Strategy 4: registered class.
	if artifact.Construct != nil {
		attempted = append(attempted, "registered class constructor")
		result, err := r.binder.InvokeNamed(cfg.Name, artifact.Construct, cfg.Args)
		if err != nil {
			return nil, err
		}
		return r.asTool(cfg.Name, result)
	}

	// Strategy 5: registered function.
	if artifact.Func != nil {
		switch fn := artifact.Func.(type) {
		case ToolFactory:
			attempted = append(attempted, "tool factory function")
			t, err := fn(cfg.Args)
			if err != nil {
				return nil, fmt.Errorf("tool factory %q: %w", cfg.Name, err)
			}
			return t, nil
		case func(args map[string]any) (tool.Tool, error):
			attempted = append(attempted, "tool factory function")
			t, err := fn(cfg.Args)
			if err != nil {
				return nil, fmt.Errorf("tool factory %q: %w", cfg.Name, err)
			}
			return t, nil
		case tool.Func:
			attempted = append(attempted, "plain function wrapping")
			if hasArgs {
				return nil, fmt.Errorf("tool %q is a plain function and takes no declaration arguments", cfg.Name)
			}
			return r.wrapFunc(cfg.Name, fn), nil
		case func(toolCtx *core.ToolContext, args map[string]any) (any, error):
			attempted = append(attempted, "plain function wrapping")
			if hasArgs {
				return nil, fmt.Errorf("tool %q is a plain function and takes no declaration arguments", cfg.Name)
			}
			return r.wrapFunc(cfg.Name, fn), nil
		default:
			attempted = append(attempted, "registered function")
			return nil, fmt.Errorf("tool %q has an unsupported function signature %T", cfg.Name, artifact.Func)
		}
	}

	attempted = append(attempted,
		"registered instance", "registered class constructor", "registered function")
	return nil, &ToolResolutionError{Name: cfg.Name, Attempted: attempted}
}

// asTool asserts a resolved artifact value is a tool.
func (r *ToolResolver) asTool(name string, value any) (tool.Tool, error) {
	t, ok := value.(tool.Tool)
	if !ok {
		return nil, fmt.Errorf("tool %q resolved to %T, which does not implement tool.Tool", name, value)
	}
	return t, nil
}

// wrapFunc exposes a registered plain function as a tool named after the
// last segment of its qualified name, with an open argument schema.
func (r *ToolResolver) wrapFunc(qualified string, fn tool.Func) tool.Tool {
	segments := strings.Split(qualified, ".")
	short := segments[len(segments)-1]
	return tool.NewFunctionTool(short, fmt.Sprintf("Tool backed by %s", qualified), nil, fn)
}
