package assembly

import (
	"fmt"
	"sort"

	"github.com/agentloom/agentloom/config"
	"github.com/agentloom/agentloom/registry"
)

// TypedResolver resolves an argument value declared with a non-value kind
// (a nested code reference, tool declaration or agent reference) into the
// live object to bind.
type TypedResolver func(kind registry.ParamKind, value any) (any, error)

// Binder maps declared invocation arguments onto a callable's parameters.
//
// Ordering rule: positional arguments bind to parameters by declaration
// index and must all precede named arguments. Named arguments must match a
// declared parameter unless the callable is open. Each parameter binds at
// most once, and required parameters must be bound.
type Binder struct {
	resolve TypedResolver
}

// NewBinder creates a binder. A nil resolver restricts binding to plain
// value parameters.
func NewBinder(resolve TypedResolver) *Binder {
	return &Binder{resolve: resolve}
}

// Bind maps an ordered argument list onto the callable's parameters and
// returns the keyword map its Invoke expects.
func (b *Binder) Bind(target string, callable *registry.Callable, args []config.ArgumentConfig) (map[string]any, error) {
	bound := make(map[string]any, len(args))
	seenNamed := false

	for i, arg := range args {
		if arg.Name == "" {
			if seenNamed {
				return nil, &ArgumentOrderError{Target: target, Index: i}
			}
			if i >= len(callable.Params) {
				return nil, &UnknownArgumentError{Target: target, Argument: fmt.Sprintf("positional #%d", i)}
			}
			spec := callable.Params[i]
			value, err := b.resolveValue(target, spec, arg.Value)
			if err != nil {
				return nil, err
			}
			bound[spec.Name] = value
			continue
		}

		seenNamed = true
		if _, dup := bound[arg.Name]; dup {
			return nil, config.NewSchemaViolationError(arg.Name, fmt.Sprintf("argument bound more than once invoking %s", target))
		}
		spec, declared := callable.Param(arg.Name)
		if !declared {
			if !callable.Open {
				return nil, &UnknownArgumentError{Target: target, Argument: arg.Name}
			}
			spec = registry.ParamSpec{Name: arg.Name, Kind: registry.ParamValue}
		}
		value, err := b.resolveValue(target, spec, arg.Value)
		if err != nil {
			return nil, err
		}
		bound[arg.Name] = value
	}

	for _, spec := range callable.Params {
		if !spec.Required {
			continue
		}
		if _, ok := bound[spec.Name]; !ok {
			return nil, config.NewSchemaViolationError(spec.Name, fmt.Sprintf("required argument missing invoking %s", target))
		}
	}

	return bound, nil
}

// BindNamed maps a keyword-only argument mapping onto the callable's
// parameters. Keys are processed in sorted order for deterministic errors.
func (b *Binder) BindNamed(target string, callable *registry.Callable, args map[string]any) (map[string]any, error) {
	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)

	ordered := make([]config.ArgumentConfig, 0, len(names))
	for _, name := range names {
		ordered = append(ordered, config.ArgumentConfig{Name: name, Value: args[name]})
	}
	return b.Bind(target, callable, ordered)
}

// Invoke binds the arguments then calls the target.
func (b *Binder) Invoke(target string, callable *registry.Callable, args []config.ArgumentConfig) (any, error) {
	bound, err := b.Bind(target, callable, args)
	if err != nil {
		return nil, err
	}
	result, err := callable.Invoke(bound)
	if err != nil {
		return nil, fmt.Errorf("invoking %s: %w", target, err)
	}
	return result, nil
}

// InvokeNamed binds a keyword mapping then calls the target.
func (b *Binder) InvokeNamed(target string, callable *registry.Callable, args map[string]any) (any, error) {
	bound, err := b.BindNamed(target, callable, args)
	if err != nil {
		return nil, err
	}
	result, err := callable.Invoke(bound)
	if err != nil {
		return nil, fmt.Errorf("invoking %s: %w", target, err)
	}
	return result, nil
}

// resolveValue applies typed resolution for non-value parameter kinds.
func (b *Binder) resolveValue(target string, spec registry.ParamSpec, value any) (any, error) {
	if spec.Kind == "" || spec.Kind == registry.ParamValue {
		return value, nil
	}
	if b.resolve == nil {
		return nil, fmt.Errorf("invoking %s: parameter %q requires %s resolution but none is configured", target, spec.Name, spec.Kind)
	}
	resolved, err := b.resolve(spec.Kind, value)
	if err != nil {
		return nil, fmt.Errorf("invoking %s: resolving %s parameter %q: %w", target, spec.Kind, spec.Name, err)
	}
	return resolved, nil
}
