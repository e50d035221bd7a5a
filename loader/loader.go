// Package loader reads agent configuration documents from disk. Documents
// are YAML or JSON mappings; paths are canonicalized so the same file is
// recognized under different relative spellings.
package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DocumentLoader resolves and loads configuration documents. Resolve turns a
// possibly relative reference into a canonical identity usable as a cache or
// cycle-detection key; Load parses the resolved document into a raw mapping.
type DocumentLoader interface {
	Resolve(fromDir, path string) (string, error)
	Load(resolved string) (map[string]any, error)
}

// FileLoaderOptions configure a FileLoader.
type FileLoaderOptions struct {
	// ExpandEnv substitutes ${VAR} and ${VAR:-default} references in
	// document text before parsing.
	ExpandEnv bool
}

// FileLoader loads documents from the local filesystem.
type FileLoader struct {
	opts FileLoaderOptions
}

// NewFileLoader creates a filesystem document loader. Environment expansion
// is on by default.
func NewFileLoader(optFns ...func(o *FileLoaderOptions)) *FileLoader {
	opts := FileLoaderOptions{ExpandEnv: true}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &FileLoader{opts: opts}
}

// Resolve canonicalizes a document reference. Relative paths resolve against
// the referring document's directory.
func (l *FileLoader) Resolve(fromDir, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty document path")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(fromDir, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving document path %q: %w", path, err)
	}
	return filepath.Clean(abs), nil
}

// Load reads and parses a resolved document. The format follows the file
// extension: .yaml / .yml / .json.
func (l *FileLoader) Load(resolved string) (map[string]any, error) {
	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}

	text := string(data)
	if l.opts.ExpandEnv {
		text = expandEnv(text)
	}

	raw := make(map[string]any)
	switch strings.ToLower(filepath.Ext(resolved)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal([]byte(text), &raw); err != nil {
			return nil, fmt.Errorf("parsing YAML document: %w", err)
		}
	case ".json":
		if err := json.Unmarshal([]byte(text), &raw); err != nil {
			return nil, fmt.Errorf("parsing JSON document: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported document extension %q (want .yaml, .yml or .json)", filepath.Ext(resolved))
	}

	return raw, nil
}

// expandEnv substitutes ${VAR} and ${VAR:-default} references. Unset
// variables without a default expand to the empty string.
func expandEnv(text string) string {
	return os.Expand(text, func(name string) string {
		key, fallback, hasFallback := strings.Cut(name, ":-")
		if value, ok := os.LookupEnv(key); ok {
			return value
		}
		if hasFallback {
			return fallback
		}
		return ""
	})
}
