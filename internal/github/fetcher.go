package github

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/go-github/v81/github"

	"github.com/atharvvvg/LLMRepo/internal/apperr"
	"github.com/atharvvvg/LLMRepo/internal/manifest"
	"github.com/atharvvvg/LLMRepo/internal/repo"
	"github.com/atharvvvg/LLMRepo/internal/repoid"
)

// Limits bounds how much of a repository one snapshot may hold. Files past
// MaxFiles are dropped from the tree (the snapshot is marked truncated);
// files larger than MaxFileBytes stay in the tree with content withheld.
type Limits struct {
	MaxFiles     int
	MaxFileBytes int64
}

// DefaultLimits keeps even large repositories to a bounded snapshot.
var DefaultLimits = Limits{
	MaxFiles:     4000,
	MaxFileBytes: 256 << 10,
}

// DefaultFetchTimeout is the deadline for one full snapshot fetch.
const DefaultFetchTimeout = 60 * time.Second

// Fetcher resolves a repository identity to a bounded snapshot: the full
// file tree plus eagerly fetched README and manifest contents. It does not
// cache; that is the index's job.
type Fetcher struct {
	client    *Client
	limits    Limits
	manifests *manifest.Registry
	timeout   time.Duration
	logger    *slog.Logger
}

// NewFetcher creates a fetcher. Zero-value limits and timeout fall back to
// the defaults; a nil registry uses the built-in manifest parsers.
func NewFetcher(client *Client, limits Limits, manifests *manifest.Registry, timeout time.Duration, logger *slog.Logger) *Fetcher {
	if limits.MaxFiles <= 0 {
		limits.MaxFiles = DefaultLimits.MaxFiles
	}
	if limits.MaxFileBytes <= 0 {
		limits.MaxFileBytes = DefaultLimits.MaxFileBytes
	}
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if manifests == nil {
		manifests = manifest.NewRegistry(nil, logger)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client:    client,
		limits:    limits,
		manifests: manifests,
		timeout:   timeout,
		logger:    logger,
	}
}

// Fetch resolves the identity to a snapshot at the latest commit of the
// requested ref (or the default branch when no ref was given).
func (f *Fetcher) Fetch(ctx context.Context, id repoid.Identity, token string) (*repo.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	gh := f.client.rest(token)

	var meta *github.Repository
	err := f.withRetry(ctx, func() error {
		var err error
		meta, _, err = gh.Repositories.Get(ctx, id.Owner, id.Name)
		return mapError(err, "fetch repository metadata")
	})
	if err != nil {
		return nil, err
	}

	ref := id.Ref
	if ref == "" {
		ref = meta.GetDefaultBranch()
	}
	resolved := id.WithRef(ref)

	var tree *github.Tree
	err = f.withRetry(ctx, func() error {
		var err error
		tree, _, err = gh.Git.GetTree(ctx, id.Owner, id.Name, ref, true)
		return mapError(err, "fetch repository tree")
	})
	if err != nil {
		return nil, err
	}

	fileTree, capped := buildTree(tree.Entries, f.limits)
	snap := &repo.Snapshot{
		Identity:      resolved,
		CommitSHA:     f.latestCommitSHA(ctx, gh, resolved),
		FetchedAt:     time.Now().UTC(),
		Tree:          fileTree,
		TreeTruncated: tree.GetTruncated() || capped,
		Eager:         map[string]string{},
	}

	f.fetchEager(ctx, gh, snap)
	return snap, nil
}

// buildTree converts raw tree entries into the bounded FileTree. Files
// past limits.MaxFiles are dropped and reported as truncation; files over
// limits.MaxFileBytes stay in the tree with content withheld; binary
// extensions are flagged so their bodies are never fetched.
func buildTree(entries []*github.TreeEntry, limits Limits) (*repo.FileTree, bool) {
	tree := repo.NewFileTree()
	truncated := false
	files := 0
	for _, entry := range entries {
		if files >= limits.MaxFiles {
			truncated = true
			break
		}
		path := entry.GetPath()
		switch entry.GetType() {
		case "tree":
			tree.AddDir(path)
		case "blob":
			size := int64(entry.GetSize())
			tree.AddFile(path, size, size > limits.MaxFileBytes, isBinaryPath(path))
			files++
		}
	}
	return tree, truncated
}

// fetchEager pulls the root README and every recognized manifest so the
// index can parse dependencies and build summaries without another round
// trip. Individual failures are logged and skipped.
func (f *Fetcher) fetchEager(ctx context.Context, gh *github.Client, snap *repo.Snapshot) {
	var wanted []string
	for _, name := range repo.ReadmeCandidates() {
		if node, ok := snap.Tree.Lookup(name); ok && node.Kind == repo.NodeFile {
			wanted = append(wanted, name)
			break
		}
	}
	for _, node := range snap.Tree.Files() {
		if f.manifests.Matches(node.Path) && !node.Truncated {
			wanted = append(wanted, node.Path)
		}
	}

	for _, path := range wanted {
		content, err := f.fetchContent(ctx, gh, snap.Identity, path)
		if err != nil {
			f.logger.Warn("eager fetch skipped", "repo", snap.Identity.Slug(), "path", path, "error", err)
			continue
		}
		if !utf8.ValidString(content) || strings.ContainsRune(content, 0) {
			if node, ok := snap.Tree.Lookup(path); ok {
				node.Binary = true
			}
			continue
		}
		snap.Eager[path] = content
	}
}

// FetchFile pulls the content of one file at the identity's ref. The
// caller has already checked the tree node, so size and binary gating
// happened upstream; the content sniff here is the last line of defense.
func (f *Fetcher) FetchFile(ctx context.Context, id repoid.Identity, path, token string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	gh := f.client.rest(token)

	var content string
	err := f.withRetry(ctx, func() error {
		var err error
		content, err = f.fetchContent(ctx, gh, id, path)
		return err
	})
	if err != nil {
		return "", err
	}
	if !utf8.ValidString(content) || strings.ContainsRune(content, 0) {
		return "", apperr.Newf(apperr.KindInvalidRequest, "%q is a binary file, content withheld", path)
	}
	return content, nil
}

func (f *Fetcher) fetchContent(ctx context.Context, gh *github.Client, id repoid.Identity, path string) (string, error) {
	opts := &github.RepositoryContentGetOptions{Ref: id.Ref}
	fileContent, _, _, err := gh.Repositories.GetContents(ctx, id.Owner, id.Name, path, opts)
	if err != nil {
		return "", mapError(err, "fetch file content")
	}
	if fileContent == nil {
		return "", apperr.Newf(apperr.KindInvalidRequest, "%q is a directory", path)
	}

	content, err := fileContent.GetContent()
	if err != nil {
		return "", apperr.Wrap(apperr.KindUpstreamUnavailable, "decode file content", err)
	}
	return content, nil
}

// latestCommitSHA pins the snapshot to the most recent commit on its ref.
// Best effort: a failure leaves the SHA empty rather than failing the
// whole fetch.
func (f *Fetcher) latestCommitSHA(ctx context.Context, gh *github.Client, id repoid.Identity) string {
	commits, _, err := gh.Repositories.ListCommits(ctx, id.Owner, id.Name, &github.CommitsListOptions{
		SHA:         id.Ref,
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil || len(commits) == 0 {
		f.logger.Debug("commit SHA unavailable", "repo", id.Slug(), "error", err)
		return ""
	}
	return commits[0].GetSHA()
}

// withRetry retries the operation once with backoff when the failure is
// transient (rate limit, timeout, provider outage). All other kinds are
// permanent and surface immediately.
func (f *Fetcher) withRetry(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second

	wrapped := func() error {
		err := op()
		if err == nil {
			return nil
		}
		if apperr.KindOf(err).Transient() {
			return err
		}
		return backoff.Permanent(err)
	}

	return backoff.Retry(wrapped, backoff.WithContext(backoff.WithMaxRetries(b, 1), ctx))
}

// binaryExtensions lists extensions excluded from content fetching. Files
// not listed here are still sniffed after download.
var binaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".ico": true,
	".webp": true, ".bmp": true, ".tiff": true, ".pdf": true, ".zip": true,
	".tar": true, ".gz": true, ".bz2": true, ".xz": true, ".7z": true,
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".bin": true,
	".woff": true, ".woff2": true, ".ttf": true, ".otf": true, ".eot": true,
	".mp3": true, ".mp4": true, ".avi": true, ".mov": true, ".wav": true,
	".jar": true, ".class": true, ".pyc": true, ".wasm": true, ".o": true,
	".a": true, ".lib": true, ".db": true, ".sqlite": true,
}

func isBinaryPath(path string) bool {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return false
	}
	return binaryExtensions[strings.ToLower(path[i:])]
}
