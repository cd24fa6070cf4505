package manifest

import (
	"encoding/json"
	"fmt"
)

// NPMParser reads package.json. Runtime and development dependencies are
// surfaced as separate ecosystems so the two can be explained separately.
type NPMParser struct{}

type packageJSON struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

func (p *NPMParser) Matches(filePath string) bool {
	return baseName(filePath) == "package.json"
}

func (p *NPMParser) Parse(raw []byte) (Deps, error) {
	var pkg packageJSON
	if err := json.Unmarshal(raw, &pkg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotManifest, err)
	}

	deps := Deps{}
	if len(pkg.Dependencies) > 0 {
		deps["npm"] = pkg.Dependencies
	}
	if len(pkg.DevDependencies) > 0 {
		deps["npm-dev"] = pkg.DevDependencies
	}
	return deps, nil
}
