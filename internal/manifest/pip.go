package manifest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
)

// PipParser reads Python dependency declarations from requirements.txt
// files and from the [project] / [tool.poetry] tables of pyproject.toml.
type PipParser struct{}

var requirementLine = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9_.-]*)\s*(\[[^\]]*\])?\s*([<>=!~].*)?$`)

func (p *PipParser) Matches(filePath string) bool {
	base := baseName(filePath)
	return base == "requirements.txt" || base == "pyproject.toml"
}

func (p *PipParser) Parse(raw []byte) (Deps, error) {
	text := string(raw)
	if strings.Contains(text, "[project]") || strings.Contains(text, "[tool.poetry") || strings.Contains(text, "[build-system]") {
		return p.parsePyproject(raw)
	}
	return p.parseRequirements(text)
}

// parseRequirements handles the requirements.txt line grammar. Lines this
// simple grammar cannot express (VCS URLs, editable installs) are skipped
// rather than failing the whole file.
func (p *PipParser) parseRequirements(text string) (Deps, error) {
	pkgs := map[string]string{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		// Drop environment markers and inline comments.
		if i := strings.IndexAny(line, ";#"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		m := requirementLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		version := strings.TrimSpace(m[3])
		if version == "" {
			version = "any"
		}
		pkgs[m[1]] = version
	}
	if len(pkgs) == 0 {
		return Deps{}, nil
	}
	return Deps{"pip": pkgs}, nil
}

type pyprojectTOML struct {
	Project struct {
		Dependencies []string `toml:"dependencies"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Dependencies map[string]any `toml:"dependencies"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

func (p *PipParser) parsePyproject(raw []byte) (Deps, error) {
	var doc pyprojectTOML
	if err := toml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotManifest, err)
	}

	pkgs := map[string]string{}
	for _, spec := range doc.Project.Dependencies {
		name, version := splitRequirement(spec)
		if name != "" {
			pkgs[name] = version
		}
	}
	for name, v := range doc.Tool.Poetry.Dependencies {
		if name == "python" {
			continue
		}
		switch version := v.(type) {
		case string:
			pkgs[name] = version
		default:
			pkgs[name] = "any"
		}
	}
	if len(pkgs) == 0 {
		return Deps{}, nil
	}
	return Deps{"pip": pkgs}, nil
}

// splitRequirement splits a PEP 508 requirement string like
// "requests>=2.28" into name and version descriptor.
func splitRequirement(spec string) (string, string) {
	spec = strings.TrimSpace(spec)
	if i := strings.Index(spec, ";"); i >= 0 {
		spec = strings.TrimSpace(spec[:i])
	}
	cut := len(spec)
	for i, r := range spec {
		if strings.ContainsRune(" <>=!~[(", r) {
			cut = i
			break
		}
	}
	name := spec[:cut]
	version := strings.TrimSpace(spec[cut:])
	if version == "" {
		version = "any"
	}
	return name, version
}
