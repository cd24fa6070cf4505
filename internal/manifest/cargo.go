package manifest

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// CargoParser reads the [dependencies] table of Cargo.toml. Table-valued
// entries (git deps, feature selections) are normalized to their version
// field when present.
type CargoParser struct{}

type cargoTOML struct {
	Dependencies map[string]any `toml:"dependencies"`
}

func (p *CargoParser) Matches(filePath string) bool {
	return baseName(filePath) == "Cargo.toml"
}

func (p *CargoParser) Parse(raw []byte) (Deps, error) {
	var doc cargoTOML
	if err := toml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotManifest, err)
	}

	pkgs := map[string]string{}
	for name, v := range doc.Dependencies {
		switch spec := v.(type) {
		case string:
			pkgs[name] = spec
		case map[string]any:
			if version, ok := spec["version"].(string); ok {
				pkgs[name] = version
			} else {
				pkgs[name] = "any"
			}
		default:
			pkgs[name] = "any"
		}
	}
	if len(pkgs) == 0 {
		return Deps{}, nil
	}
	return Deps{"cargo": pkgs}, nil
}
