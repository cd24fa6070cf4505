// Package repo holds the structured in-memory representation of one
// repository: the file tree, eagerly fetched key files, and the parsed
// dependency mapping. Snapshots are immutable once published; a refresh
// replaces the snapshot wholesale.
package repo

import (
	"path"
	"sort"
	"strings"
	"time"

	"github.com/atharvvvg/LLMRepo/internal/manifest"
	"github.com/atharvvvg/LLMRepo/internal/repoid"
)

// NodeKind discriminates tree nodes.
type NodeKind int

const (
	NodeFile NodeKind = iota
	NodeDir
)

// Node is one entry in a repository file tree. Directories never carry
// content or size. Truncated marks files whose content is withheld for
// exceeding the per-file byte limit; Binary marks files detected as
// non-text.
type Node struct {
	Path      string
	Kind      NodeKind
	Size      int64
	Truncated bool
	Binary    bool
}

// FileTree is the hierarchical file listing of a snapshot. Every file
// path's ancestor directories exist as directory nodes.
type FileTree struct {
	nodes map[string]*Node
}

// NewFileTree creates an empty tree.
func NewFileTree() *FileTree {
	return &FileTree{nodes: make(map[string]*Node)}
}

// AddFile inserts a file node and materializes its ancestor directories.
func (t *FileTree) AddFile(filePath string, size int64, truncated, binary bool) {
	filePath = strings.Trim(filePath, "/")
	if filePath == "" {
		return
	}
	t.addDirs(path.Dir(filePath))
	t.nodes[filePath] = &Node{
		Path:      filePath,
		Kind:      NodeFile,
		Size:      size,
		Truncated: truncated,
		Binary:    binary,
	}
}

// AddDir inserts a directory node and its ancestors.
func (t *FileTree) AddDir(dirPath string) {
	t.addDirs(strings.Trim(dirPath, "/"))
}

func (t *FileTree) addDirs(dirPath string) {
	if dirPath == "" || dirPath == "." {
		return
	}
	if _, ok := t.nodes[dirPath]; ok {
		return
	}
	t.addDirs(path.Dir(dirPath))
	t.nodes[dirPath] = &Node{Path: dirPath, Kind: NodeDir}
}

// Lookup returns the node at path, if any.
func (t *FileTree) Lookup(filePath string) (*Node, bool) {
	n, ok := t.nodes[strings.Trim(filePath, "/")]
	return n, ok
}

// Paths returns every node path in lexicographic order.
func (t *FileTree) Paths() []string {
	out := make([]string, 0, len(t.nodes))
	for p := range t.nodes {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Files returns the file nodes in lexicographic path order.
func (t *FileTree) Files() []*Node {
	var out []*Node
	for _, p := range t.Paths() {
		if n := t.nodes[p]; n.Kind == NodeFile {
			out = append(out, n)
		}
	}
	return out
}

// TopLevel returns the immediate children of the repository root, sorted,
// with directories rendered with a trailing slash.
func (t *FileTree) TopLevel() []string {
	var out []string
	for _, p := range t.Paths() {
		if strings.Contains(p, "/") {
			continue
		}
		if t.nodes[p].Kind == NodeDir {
			out = append(out, p+"/")
		} else {
			out = append(out, p)
		}
	}
	return out
}

// Len returns the total node count, directories included.
func (t *FileTree) Len() int {
	return len(t.nodes)
}

// Snapshot is the bounded representation of one repository at one commit.
type Snapshot struct {
	Identity  repoid.Identity // ref resolved to a concrete branch
	CommitSHA string
	FetchedAt time.Time

	Tree *FileTree
	// TreeTruncated is set when the upstream listing exceeded the file
	// budget and the tree holds only a prefix of the repository.
	TreeTruncated bool

	// Eager holds contents pulled during the initial fetch (README and
	// dependency manifests). All other file contents are fetched lazily.
	Eager map[string]string

	Dependencies manifest.Deps
}

var readmeNames = []string{"README.md", "readme.md", "Readme.md", "README", "README.txt", "README.rst"}

// Readme returns the repository's root README path and content when one
// was fetched eagerly.
func (s *Snapshot) Readme() (string, string, bool) {
	for _, name := range readmeNames {
		if content, ok := s.Eager[name]; ok {
			return name, content, true
		}
	}
	return "", "", false
}

// ReadmeCandidates lists the root README filenames the fetcher pulls
// eagerly, in preference order.
func ReadmeCandidates() []string {
	return readmeNames
}
