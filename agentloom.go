// Package agentloom provides a high-level façade over the declarative agent
// assembly engine. Most applications interact with this package by:
//  1. Creating a Loom via New() (optionally overriding registry, loader,
//     model providers or logger)
//  2. Registering code artifacts the configuration documents reference
//     (callbacks, tools, agents, schemas)
//  3. Loading an agent hierarchy from a configuration document and running it
//
// Defaults are safe for local development: builtin tools are pre-registered,
// the OpenAI, Anthropic and mock model providers are wired by identifier
// prefix, and documents load from the local filesystem with environment
// variable expansion.
package agentloom

import (
	"context"
	"sync"

	"github.com/agentloom/agentloom/assembly"
	"github.com/agentloom/agentloom/core"
	"github.com/agentloom/agentloom/loader"
	"github.com/agentloom/agentloom/logging"
	"github.com/agentloom/agentloom/model"
	"github.com/agentloom/agentloom/model/anthropic"
	"github.com/agentloom/agentloom/model/openai"
	"github.com/agentloom/agentloom/registry"
	"github.com/agentloom/agentloom/tool"
)

// Options configures the Loom instance.
type Options struct {
	// Registry holds the code artifacts configuration documents may
	// reference. Defaults to a fresh registry.
	Registry *registry.Registry
	// Loader resolves and parses configuration documents. Defaults to the
	// filesystem loader with environment expansion.
	Loader loader.DocumentLoader
	// Models maps model identifier prefixes to providers. Defaults to a
	// registry pre-wired with the OpenAI, Anthropic and mock providers.
	Models *model.Registry
	// Logger receives structured build and run logs. Defaults to no logging.
	Logger logging.Logger
}

// Loom is the high-level façade aggregating the artifact registry, the model
// registry and the assembly builder.
type Loom struct {
	opts    Options
	builder *assembly.Builder

	mu       sync.Mutex
	sessions map[string]*core.Session
}

// New creates a Loom with optional overrides. Builtin tools are registered
// under their short names unless a pre-populated registry is supplied that
// already carries them.
func New(optFns ...func(o *Options)) (*Loom, error) {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Registry == nil {
		opts.Registry = registry.New()
		if err := tool.RegisterBuiltins(opts.Registry); err != nil {
			return nil, err
		}
	}
	if opts.Loader == nil {
		opts.Loader = loader.NewFileLoader()
	}
	if opts.Models == nil {
		opts.Models = DefaultModelRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	builder := assembly.NewBuilder(opts.Registry, func(o *assembly.BuilderOptions) {
		o.Loader = opts.Loader
		o.Models = opts.Models
		o.Logger = opts.Logger
	})

	return &Loom{
		opts:     opts,
		builder:  builder,
		sessions: make(map[string]*core.Session),
	}, nil
}

// DefaultModelRegistry wires the bundled model providers by identifier
// prefix: gpt-* / o-series to OpenAI, claude-* to Anthropic, mock* to the
// in-memory mock model.
func DefaultModelRegistry() *model.Registry {
	models := model.NewRegistry()

	openaiFactory := func(name string) (model.Model, error) {
		return openai.NewModel(func(o *openai.Options) { o.Model = name }), nil
	}
	for _, prefix := range []string{"gpt-", "o1", "o3", "o4"} {
		models.Register(prefix, openaiFactory)
	}

	models.Register("claude-", func(name string) (model.Model, error) {
		return anthropic.NewModel(func(o *anthropic.Options) { o.Model = name }), nil
	})

	models.Register("mock", func(name string) (model.Model, error) {
		return model.NewMockModel(name, "mock"), nil
	})

	return models
}

// Registry returns the artifact registry for registering code references.
func (l *Loom) Registry() *registry.Registry { return l.opts.Registry }

// Models returns the model provider registry.
func (l *Loom) Models() *model.Registry { return l.opts.Models }

// LoadAgent assembles the agent hierarchy rooted at a configuration document
// on disk.
func (l *Loom) LoadAgent(path string) (core.Agent, error) {
	return l.builder.BuildFile(path)
}

// BuildAgent assembles the agent hierarchy from an already-parsed document.
// Relative config_path references resolve against baseDir.
func (l *Loom) BuildAgent(raw map[string]any, baseDir string) (core.Agent, error) {
	return l.builder.BuildDocument(raw, baseDir)
}

// Run executes an agent synchronously with the session identified by
// sessionID, feeding it the user text and returning the final assistant text.
// Sessions persist across Run calls for the lifetime of the Loom.
func (l *Loom) Run(ctx context.Context, a core.Agent, sessionID, input string) (string, error) {
	sess := l.session(sessionID)
	rc := core.NewRunContext(ctx, sessionID, core.NewUserText(input), sess, l.opts.Logger)
	if err := a.Run(rc); err != nil {
		return "", err
	}
	return rc.LastText(), nil
}

// Session returns the named session, creating it on first use.
func (l *Loom) Session(sessionID string) *core.Session { return l.session(sessionID) }

func (l *Loom) session(sessionID string) *core.Session {
	l.mu.Lock()
	defer l.mu.Unlock()
	sess, ok := l.sessions[sessionID]
	if !ok {
		sess = core.NewSession(sessionID)
		l.sessions[sessionID] = sess
	}
	return sess
}
