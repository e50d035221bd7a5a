// Command agentloom validates, inspects and runs declarative agent
// configuration documents.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/agentloom/agentloom"
	"github.com/agentloom/agentloom/config"
	"github.com/agentloom/agentloom/core"
	"github.com/agentloom/agentloom/loader"
	"github.com/agentloom/agentloom/logging"
)

type cli struct {
	Verbose bool `short:"v" help:"Enable debug logging."`

	Validate validateCmd `cmd:"" help:"Validate a configuration document against its variant schema."`
	Build    buildCmd    `cmd:"" help:"Assemble the agent hierarchy and print its structure."`
	Schema   schemaCmd   `cmd:"" help:"Print the JSON Schema of one or all agent variants."`
	Run      runCmd      `cmd:"" help:"Assemble an agent hierarchy and run it with an input."`
}

type appContext struct {
	loom   *agentloom.Loom
	logger logging.Logger
}

func main() {
	// Best-effort: local development keys live in .env.
	_ = godotenv.Load()

	var c cli
	ktx := kong.Parse(&c,
		kong.Name("agentloom"),
		kong.Description("Declarative agent assembly engine."),
		kong.UsageOnError(),
	)

	level := logging.LogLevelWarn
	if c.Verbose {
		level = logging.LogLevelDebug
	}
	logger := logging.NewSlogLogger(level, "text", false)

	loom, err := agentloom.New(func(o *agentloom.Options) {
		o.Logger = logger
	})
	ktx.FatalIfErrorf(err)

	ktx.FatalIfErrorf(ktx.Run(&appContext{loom: loom, logger: logger}))
}

type validateCmd struct {
	Path string `arg:"" help:"Path to the configuration document." type:"existingfile"`
}

func (v *validateCmd) Run(app *appContext) error {
	fl := loader.NewFileLoader()
	resolved, err := fl.Resolve(".", v.Path)
	if err != nil {
		return err
	}
	raw, err := fl.Load(resolved)
	if err != nil {
		return err
	}
	cfg, err := config.Dispatch(raw)
	if err != nil {
		return err
	}
	fmt.Printf("%s: valid %s (agent %q)\n", v.Path, cfg.Variant(), cfg.Common().Name)
	return nil
}

type buildCmd struct {
	Path string `arg:"" help:"Path to the root configuration document." type:"existingfile"`
}

func (b *buildCmd) Run(app *appContext) error {
	root, err := app.loom.LoadAgent(b.Path)
	if err != nil {
		return err
	}
	printTree(root, 0)
	return nil
}

func printTree(a core.Agent, depth int) {
	fmt.Printf("%s%s  (%s)\n", strings.Repeat("  ", depth), a.Name(), a.Description())
	for _, child := range a.SubAgents() {
		printTree(child, depth+1)
	}
}

type schemaCmd struct {
	Variant string `arg:"" optional:"" help:"Agent variant name; omit for all."`
}

func (s *schemaCmd) Run(app *appContext) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if s.Variant != "" {
		schema, err := config.Schema(config.Variant(s.Variant))
		if err != nil {
			return err
		}
		return enc.Encode(schema)
	}

	for _, variant := range config.KnownVariants {
		schema, err := config.Schema(variant)
		if err != nil {
			return err
		}
		fmt.Printf("--- %s\n", variant)
		if err := enc.Encode(schema); err != nil {
			return err
		}
	}
	return nil
}

type runCmd struct {
	Path    string `arg:"" help:"Path to the root configuration document." type:"existingfile"`
	Input   string `short:"i" required:"" help:"User input text."`
	Session string `short:"s" default:"cli" help:"Session identifier."`
}

func (r *runCmd) Run(app *appContext) error {
	root, err := app.loom.LoadAgent(r.Path)
	if err != nil {
		return err
	}
	output, err := app.loom.Run(context.Background(), root, r.Session, r.Input)
	if err != nil {
		return err
	}
	fmt.Println(output)
	return nil
}
