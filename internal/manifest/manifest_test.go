package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNPMParser_SplitsRuntimeAndDev(t *testing.T) {
	raw := `{
  "name": "demo",
  "dependencies": {"react": "^18.0.0", "axios": "^1.6.0"},
  "devDependencies": {"vite": "^5.0.0"}
}`

	p := &NPMParser{}
	require.True(t, p.Matches("package.json"))
	require.True(t, p.Matches("frontend/package.json"))

	deps, err := p.Parse([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "^18.0.0", deps["npm"]["react"])
	assert.Equal(t, "^1.6.0", deps["npm"]["axios"])
	assert.Equal(t, "^5.0.0", deps["npm-dev"]["vite"])
}

func TestNPMParser_RejectsInvalidJSON(t *testing.T) {
	_, err := (&NPMParser{}).Parse([]byte("not json"))
	assert.ErrorIs(t, err, ErrNotManifest)
}

func TestPipParser_RequirementsGrammar(t *testing.T) {
	raw := `# web stack
fastapi==0.110.0
uvicorn>=0.27
requests
gitpython~=3.1  # vcs access
-r base.txt
git+https://github.com/some/repo.git
`

	deps, err := (&PipParser{}).Parse([]byte(raw))
	require.NoError(t, err)

	pkgs := deps["pip"]
	assert.Equal(t, "==0.110.0", pkgs["fastapi"])
	assert.Equal(t, ">=0.27", pkgs["uvicorn"])
	assert.Equal(t, "any", pkgs["requests"])
	assert.Equal(t, "~=3.1", pkgs["gitpython"])
	assert.NotContains(t, pkgs, "-r")
}

func TestPipParser_Pyproject(t *testing.T) {
	raw := `[project]
name = "demo"
dependencies = ["requests>=2.28", "flask"]

[tool.poetry.dependencies]
python = "^3.11"
pydantic = "^2.0"
`

	p := &PipParser{}
	require.True(t, p.Matches("pyproject.toml"))

	deps, err := p.Parse([]byte(raw))
	require.NoError(t, err)

	pkgs := deps["pip"]
	assert.Equal(t, ">=2.28", pkgs["requests"])
	assert.Equal(t, "any", pkgs["flask"])
	assert.Equal(t, "^2.0", pkgs["pydantic"])
	assert.NotContains(t, pkgs, "python", "python itself is not a dependency")
}

func TestGoModParser_DirectRequiresOnly(t *testing.T) {
	raw := `module example.com/demo

go 1.22

require (
	github.com/spf13/cobra v1.8.0
	github.com/stretchr/testify v1.9.0
)

require github.com/inconshreveable/mousetrap v1.1.0 // indirect
`

	deps, err := (&GoModParser{}).Parse([]byte(raw))
	require.NoError(t, err)

	pkgs := deps["gomod"]
	assert.Equal(t, "v1.8.0", pkgs["github.com/spf13/cobra"])
	assert.NotContains(t, pkgs, "github.com/inconshreveable/mousetrap")
}

func TestCargoParser_TableValues(t *testing.T) {
	raw := `[package]
name = "demo"

[dependencies]
serde = "1.0"
tokio = { version = "1.35", features = ["full"] }
local-thing = { path = "../thing" }
`

	deps, err := (&CargoParser{}).Parse([]byte(raw))
	require.NoError(t, err)

	pkgs := deps["cargo"]
	assert.Equal(t, "1.0", pkgs["serde"])
	assert.Equal(t, "1.35", pkgs["tokio"])
	assert.Equal(t, "any", pkgs["local-thing"])
}

func TestRegistry_SkipsUnparseable(t *testing.T) {
	reg := NewRegistry(nil, nil)

	files := map[string]string{
		"package.json":     `{"dependencies": {"react": "^18.0.0"}}`,
		"requirements.txt": "fastapi==0.110.0\n",
		"notes.md":         "not a manifest at all",
		"sub/package.json": "{{{broken",
	}

	deps := reg.ParseAll(files)
	assert.Equal(t, "^18.0.0", deps["npm"]["react"])
	assert.Equal(t, "==0.110.0", deps["pip"]["fastapi"])
}

func TestRegistry_MatchesManifestPaths(t *testing.T) {
	reg := NewRegistry(nil, nil)
	assert.True(t, reg.Matches("Cargo.toml"))
	assert.True(t, reg.Matches("backend/go.mod"))
	assert.False(t, reg.Matches("src/main.rs"))
}
