package repo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/atharvvvg/LLMRepo/internal/apperr"
	"github.com/atharvvvg/LLMRepo/internal/cache"
	"github.com/atharvvvg/LLMRepo/internal/manifest"
	"github.com/atharvvvg/LLMRepo/internal/repoid"
)

// DefaultSnapshotTTL is how long a snapshot and its derived file contents
// stay fresh before the next request re-fetches from upstream.
const DefaultSnapshotTTL = 10 * time.Minute

// Source fetches repository material from the provider. The production
// implementation lives in internal/github; tests substitute stubs.
type Source interface {
	// Fetch resolves the identity to a bounded snapshot. It performs no
	// caching of its own.
	Fetch(ctx context.Context, id repoid.Identity, token string) (*Snapshot, error)
	// FetchFile pulls the content of a single file at the snapshot's ref.
	FetchFile(ctx context.Context, id repoid.Identity, path, token string) (string, error)
}

// Index is the queryable per-repository representation. It owns snapshot
// lifecycle: cold-cache fetches are coalesced per identity, results are
// cached with a TTL, and file contents are populated lazily.
type Index struct {
	source    Source
	cache     *cache.Cache
	manifests *manifest.Registry
	ttl       time.Duration
	logger    *slog.Logger

	flight singleflight.Group
}

// NewIndex creates an index over the given source and cache. Zero ttl
// means DefaultSnapshotTTL.
func NewIndex(source Source, store *cache.Cache, manifests *manifest.Registry, ttl time.Duration, logger *slog.Logger) *Index {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	if manifests == nil {
		manifests = manifest.NewRegistry(nil, logger)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{
		source:    source,
		cache:     store,
		manifests: manifests,
		ttl:       ttl,
		logger:    logger,
	}
}

// Ensure returns the snapshot for id, fetching it if the cache is cold.
// Concurrent cold-cache calls for the same identity join a single upstream
// fetch instead of issuing duplicates.
func (ix *Index) Ensure(ctx context.Context, id repoid.Identity, token string) (*Snapshot, error) {
	key := id.Key()
	if v, ok := ix.cache.Get(cache.Key{Repo: key, Kind: cache.KindSnapshot}); ok {
		return v.(*Snapshot), nil
	}

	v, err, shared := ix.flight.Do(key, func() (any, error) {
		// A joiner may arrive after the winner already populated the cache.
		if v, ok := ix.cache.Get(cache.Key{Repo: key, Kind: cache.KindSnapshot}); ok {
			return v.(*Snapshot), nil
		}

		snap, err := ix.source.Fetch(ctx, id, token)
		if err != nil {
			return nil, err
		}
		snap.Dependencies = ix.manifests.ParseAll(snap.Eager)

		ix.cache.Put(cache.Key{Repo: key, Kind: cache.KindSnapshot}, snap, ix.ttl)
		if resolved := snap.Identity.Key(); resolved != key {
			ix.cache.Put(cache.Key{Repo: resolved, Kind: cache.KindSnapshot}, snap, ix.ttl)
		}
		for path, content := range snap.Eager {
			ix.cache.Put(cache.Key{Repo: snap.Identity.Key(), Kind: cache.KindFileContent, Path: path}, content, ix.ttl)
		}

		ix.logger.Info("indexed repository",
			"repo", snap.Identity.Slug(),
			"ref", snap.Identity.Ref,
			"files", snap.Tree.Len(),
			"truncated", snap.TreeTruncated,
		)
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		ix.logger.Debug("fetch coalesced", "repo", key)
	}
	return v.(*Snapshot), nil
}

// GetFile returns the content of one file in the snapshot, fetching it
// lazily on first access. Binary and oversized files have their content
// withheld.
func (ix *Index) GetFile(ctx context.Context, id repoid.Identity, path, token string) (string, error) {
	snap, err := ix.Ensure(ctx, id, token)
	if err != nil {
		return "", err
	}

	node, ok := snap.Tree.Lookup(path)
	if !ok {
		return "", apperr.Newf(apperr.KindNotFound, "file %q not found in %s", path, snap.Identity.Slug())
	}
	if node.Kind == NodeDir {
		return "", apperr.Newf(apperr.KindInvalidRequest, "%q is a directory", path)
	}
	if node.Binary {
		return "", apperr.Newf(apperr.KindInvalidRequest, "%q is a binary file, content withheld", path)
	}
	if node.Truncated {
		return "", apperr.Newf(apperr.KindInvalidRequest, "%q exceeds the per-file size limit, content withheld", path)
	}

	key := cache.Key{Repo: snap.Identity.Key(), Kind: cache.KindFileContent, Path: node.Path}
	if v, ok := ix.cache.Get(key); ok {
		return v.(string), nil
	}

	content, err := ix.source.FetchFile(ctx, snap.Identity, node.Path, token)
	if err != nil {
		return "", err
	}
	ix.cache.Put(key, content, ix.ttl)
	return content, nil
}

// Dependencies returns the ecosystem -> package -> version mapping parsed
// from the snapshot's recognized manifests.
func (ix *Index) Dependencies(ctx context.Context, id repoid.Identity, token string) (manifest.Deps, error) {
	snap, err := ix.Ensure(ctx, id, token)
	if err != nil {
		return nil, err
	}
	return snap.Dependencies, nil
}

// IsManifest reports whether path is a recognized dependency manifest.
func (ix *Index) IsManifest(path string) bool {
	return ix.manifests.Matches(path)
}

// Invalidate drops the cached snapshot and all derived artifacts for the
// identity, forcing the next Ensure to re-fetch.
func (ix *Index) Invalidate(id repoid.Identity) {
	key := id.Key()
	ix.cache.Invalidate(func(k cache.Key) bool { return k.Repo == key })
}

// ContentHash fingerprints file content for summary cache validity.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
