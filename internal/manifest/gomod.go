package manifest

import (
	"fmt"

	"golang.org/x/mod/modfile"
)

// GoModParser reads go.mod require directives. Indirect requirements are
// excluded: they are transitive and would drown the direct stack.
type GoModParser struct{}

func (p *GoModParser) Matches(filePath string) bool {
	return baseName(filePath) == "go.mod"
}

func (p *GoModParser) Parse(raw []byte) (Deps, error) {
	f, err := modfile.ParseLax("go.mod", raw, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotManifest, err)
	}

	pkgs := map[string]string{}
	for _, req := range f.Require {
		if req.Indirect {
			continue
		}
		pkgs[req.Mod.Path] = req.Mod.Version
	}
	if len(pkgs) == 0 {
		return Deps{}, nil
	}
	return Deps{"gomod": pkgs}, nil
}
