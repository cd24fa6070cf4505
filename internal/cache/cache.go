// Package cache is the single shared store for expensive derived artifacts:
// repository snapshots, lazily fetched file contents, and LLM-generated
// summaries. Entries are whole-value replacements keyed by (repository,
// artifact kind, path, content hash); an expired entry reads as a miss.
package cache

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Kind names one artifact family stored in the cache.
type Kind string

const (
	KindSnapshot        Kind = "snapshot"
	KindFileContent     Kind = "file"
	KindFileSummary     Kind = "file_summary"
	KindRepoSummary     Kind = "repo_summary"
	KindDepsExplanation Kind = "deps_explanation"
)

// Key addresses one cache entry. Repo is the canonical identity key
// (owner/name@ref), Path and Hash are empty when not applicable.
type Key struct {
	Repo string
	Kind Kind
	Path string
	Hash string
}

// String renders the key canonically for the backing store.
func (k Key) String() string {
	return strings.Join([]string{k.Repo, string(k.Kind), k.Path, k.Hash}, "\x00")
}

type entry struct {
	key       Key
	value     any
	expiresAt time.Time
}

// Cache wraps an expirable LRU with per-entry TTLs. The LRU bounds total
// entry count; the per-entry deadline decides staleness independently, so a
// short-lived snapshot and a long-lived summary can share the store.
type Cache struct {
	lru *expirable.LRU[string, entry]
}

// New creates a cache holding at most maxEntries values. maxTTL is the
// ceiling after which the backing store drops entries regardless of their
// own deadline; per-entry TTLs passed to Put must not exceed it.
func New(maxEntries int, maxTTL time.Duration) *Cache {
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	return &Cache{
		lru: expirable.NewLRU[string, entry](maxEntries, nil, maxTTL),
	}
}

// Get returns the cached value for key, or false on a miss. An entry past
// its TTL is treated exactly like a miss and removed.
func (c *Cache) Get(key Key) (any, bool) {
	ent, ok := c.lru.Get(key.String())
	if !ok {
		return nil, false
	}
	if time.Now().After(ent.expiresAt) {
		c.lru.Remove(key.String())
		return nil, false
	}
	return ent.value, true
}

// Put stores value under key with the given TTL, replacing any previous
// entry wholesale.
func (c *Cache) Put(key Key, value any, ttl time.Duration) {
	c.lru.Add(key.String(), entry{
		key:       key,
		value:     value,
		expiresAt: time.Now().Add(ttl),
	})
}

// Invalidate removes every entry whose key matches the predicate and
// returns the number removed.
func (c *Cache) Invalidate(match func(Key) bool) int {
	removed := 0
	for _, raw := range c.lru.Keys() {
		ent, ok := c.lru.Peek(raw)
		if !ok {
			continue
		}
		if match(ent.key) {
			c.lru.Remove(raw)
			removed++
		}
	}
	return removed
}

// Len returns the number of live entries, including any not yet expired.
func (c *Cache) Len() int {
	return c.lru.Len()
}
