// Package registry implements the reference locator: a two-level namespace
// mapping names to tagged code artifacts. Go has no runtime module lookup, so
// every artifact a configuration document may reference (agent instances and
// factories, callback functions, tool instances, classes and factories,
// schema types) is registered explicitly at startup.
//
// A short name (no dot) resolves against the builtin namespace first; dotted
// qualified names resolve against the user namespace. A single name may
// expose several facets at once (an instance, a constructor, a plain
// function); consumers probe the facets in their own fixed order, which is
// how ambiguous namespace collisions stay deterministic.
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Kind tags the primary shape of a resolved artifact.
type Kind string

const (
	// KindInstance marks a pre-built value used as-is.
	KindInstance Kind = "instance"
	// KindClass marks a constructor that must be invoked to produce a value.
	KindClass Kind = "class"
	// KindFunction marks a plain function used directly (callback or tool body).
	KindFunction Kind = "function"
	// KindUnknown marks an artifact with no facet set.
	KindUnknown Kind = ""
)

// ParamKind tells the argument binder how to treat a declared parameter's
// configured value.
type ParamKind string

const (
	// ParamValue passes the configured value through untouched.
	ParamValue ParamKind = "value"
	// ParamCode resolves the value as a nested code reference before binding.
	ParamCode ParamKind = "code"
	// ParamTool resolves the value as a nested tool declaration before binding.
	ParamTool ParamKind = "tool"
	// ParamAgent resolves the value as a nested agent reference before binding.
	ParamAgent ParamKind = "agent"
)

// ParamSpec declares one accepted keyword parameter of a Callable.
type ParamSpec struct {
	Name     string
	Required bool
	Kind     ParamKind
}

// Callable describes an invocable artifact (a constructor or a factory) with
// its declared keyword parameter list. Open permits keyword names beyond
// Params, for targets accepting an open-ended parameter set.
type Callable struct {
	Params []ParamSpec
	Open   bool
	Invoke func(args map[string]any) (any, error)
}

// Param looks up a declared parameter by name.
func (c *Callable) Param(name string) (ParamSpec, bool) {
	for _, p := range c.Params {
		if p.Name == name {
			return p, true
		}
	}
	return ParamSpec{}, false
}

// Artifact is a named code artifact. The facets are probed by consumers in a
// fixed order; Kind reports the dominant facet (instance over class over
// function) for diagnostics and for consumers needing a single answer.
type Artifact struct {
	Name      string
	Instance  any
	Construct *Callable
	Func      any
}

// Kind reports the dominant facet of the artifact.
func (a *Artifact) Kind() Kind {
	switch {
	case a.Instance != nil:
		return KindInstance
	case a.Construct != nil:
		return KindClass
	case a.Func != nil:
		return KindFunction
	default:
		return KindUnknown
	}
}

// Registry holds the builtin (short name) and user (qualified name)
// namespaces. Registration is expected at startup; lookups afterwards are
// read-mostly and safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	builtins  map[string]*Artifact
	qualified map[string]*Artifact
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		builtins:  make(map[string]*Artifact),
		qualified: make(map[string]*Artifact),
	}
}

// RegisterInstance publishes a pre-built value under a qualified name.
func (r *Registry) RegisterInstance(name string, value any) error {
	return r.setFacet(r.qualifiedNS, name, func(a *Artifact) error {
		if a.Instance != nil {
			return fmt.Errorf("registry: instance facet of %q already registered", name)
		}
		a.Instance = value
		return nil
	})
}

// RegisterClass publishes a constructor under a qualified name.
func (r *Registry) RegisterClass(name string, construct *Callable) error {
	return r.setFacet(r.qualifiedNS, name, func(a *Artifact) error {
		if a.Construct != nil {
			return fmt.Errorf("registry: class facet of %q already registered", name)
		}
		a.Construct = construct
		return nil
	})
}

// RegisterFunction publishes a plain function under a qualified name. The
// function value's concrete signature is asserted by consumers at wiring time.
func (r *Registry) RegisterFunction(name string, fn any) error {
	return r.setFacet(r.qualifiedNS, name, func(a *Artifact) error {
		if a.Func != nil {
			return fmt.Errorf("registry: function facet of %q already registered", name)
		}
		a.Func = fn
		return nil
	})
}

// RegisterBuiltinInstance publishes a pre-built value under a builtin short name.
func (r *Registry) RegisterBuiltinInstance(name string, value any) error {
	return r.setFacet(r.builtinNS, name, func(a *Artifact) error {
		if a.Instance != nil {
			return fmt.Errorf("registry: builtin instance %q already registered", name)
		}
		a.Instance = value
		return nil
	})
}

// RegisterBuiltinClass publishes a constructor under a builtin short name.
func (r *Registry) RegisterBuiltinClass(name string, construct *Callable) error {
	return r.setFacet(r.builtinNS, name, func(a *Artifact) error {
		if a.Construct != nil {
			return fmt.Errorf("registry: builtin class %q already registered", name)
		}
		a.Construct = construct
		return nil
	})
}

// Lookup resolves a name: builtin short names first, then the qualified
// namespace. The boolean reports whether anything was found.
func (r *Registry) Lookup(name string) (*Artifact, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if a, ok := r.builtins[name]; ok {
		return a, true
	}
	if a, ok := r.qualified[name]; ok {
		return a, true
	}
	return nil, false
}

// LookupBuiltin resolves only the builtin namespace.
func (r *Registry) LookupBuiltin(name string) (*Artifact, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.builtins[name]
	return a, ok
}

// Names returns all registered names (builtin and qualified), sorted, for
// diagnostics and error messages.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.builtins)+len(r.qualified))
	for n := range r.builtins {
		names = append(names, n)
	}
	for n := range r.qualified {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// IsQualified reports whether a name looks like a dotted qualified path
// rather than a builtin short name.
func IsQualified(name string) bool { return strings.Contains(name, ".") }

type namespace func() map[string]*Artifact

func (r *Registry) qualifiedNS() map[string]*Artifact { return r.qualified }
func (r *Registry) builtinNS() map[string]*Artifact   { return r.builtins }

func (r *Registry) setFacet(ns namespace, name string, set func(*Artifact) error) error {
	if name == "" {
		return fmt.Errorf("registry: name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	m := ns()
	a, ok := m[name]
	if !ok {
		a = &Artifact{Name: name}
		m[name] = a
	}
	return set(a)
}
