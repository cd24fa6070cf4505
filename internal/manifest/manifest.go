// Package manifest parses dependency manifests into a normalized mapping of
// ecosystem -> package name -> version descriptor. Parsers form a small
// closed set; files no parser recognizes are skipped, never fatal.
package manifest

import (
	"errors"
	"log/slog"
	"path"
)

// Deps is the normalized dependency mapping: ecosystem -> name -> version.
type Deps map[string]map[string]string

// ErrNotManifest is returned by Parse when the raw bytes are not a valid
// instance of the parser's format.
var ErrNotManifest = errors.New("not a recognized manifest")

// Parser recognizes one manifest filename pattern and produces a normalized
// dependency mapping. A single file may contribute multiple ecosystems
// (package.json yields both npm and npm-dev).
type Parser interface {
	// Matches reports whether the parser recognizes the given repo path.
	Matches(filePath string) bool
	// Parse converts raw manifest bytes into the normalized mapping.
	Parse(raw []byte) (Deps, error)
}

// DefaultParsers returns the built-in ecosystem parsers.
func DefaultParsers() []Parser {
	return []Parser{
		&NPMParser{},
		&PipParser{},
		&GoModParser{},
		&CargoParser{},
	}
}

// Registry applies a set of parsers to fetched manifest files.
type Registry struct {
	parsers []Parser
	logger  *slog.Logger
}

// NewRegistry creates a registry over the given parsers. A nil parser list
// means DefaultParsers; a nil logger means slog.Default.
func NewRegistry(parsers []Parser, logger *slog.Logger) *Registry {
	if parsers == nil {
		parsers = DefaultParsers()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{parsers: parsers, logger: logger}
}

// Matches reports whether any parser recognizes the path. Used by the
// fetcher to decide which files to pull eagerly.
func (r *Registry) Matches(filePath string) bool {
	for _, p := range r.parsers {
		if p.Matches(filePath) {
			return true
		}
	}
	return false
}

// ParseAll runs every matching parser over the given files and merges the
// results. Unparseable manifests are logged and skipped.
func (r *Registry) ParseAll(files map[string]string) Deps {
	merged := Deps{}
	for filePath, content := range files {
		for _, p := range r.parsers {
			if !p.Matches(filePath) {
				continue
			}
			deps, err := p.Parse([]byte(content))
			if err != nil {
				r.logger.Warn("skipping unparseable manifest", "path", filePath, "error", err)
				continue
			}
			for eco, pkgs := range deps {
				if merged[eco] == nil {
					merged[eco] = map[string]string{}
				}
				for name, version := range pkgs {
					merged[eco][name] = version
				}
			}
		}
	}
	return merged
}

// baseName returns the final path element, matching against which is how
// every built-in parser recognizes its file.
func baseName(filePath string) string {
	return path.Base(filePath)
}
