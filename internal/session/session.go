// Package session keeps per-session conversation transcripts, scoped to
// one (repository, session) pair. Sessions are transient: nothing here
// survives a process restart, and the browser-held session ID is the only
// thing that ties requests together.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role labels a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Turn is one transcript entry.
type Turn struct {
	Role Role
	Text string
	At   time.Time
}

type conversation struct {
	turns  []Turn
	pinned map[string]bool
	order  []string // pin insertion order, deterministic for ranking
}

// Store holds all live conversations. Appends take a store-wide lock;
// transcripts are small and appends are cheap, so contention is not a
// concern at this scale.
type Store struct {
	mu    sync.Mutex
	convs map[string]*conversation
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{convs: make(map[string]*conversation)}
}

// NewID mints a fresh session identifier.
func NewID() string {
	return uuid.New().String()
}

func scopeKey(repoKey, sessionID string) string {
	return repoKey + "\x00" + sessionID
}

func (s *Store) conv(repoKey, sessionID string) *conversation {
	key := scopeKey(repoKey, sessionID)
	c, ok := s.convs[key]
	if !ok {
		c = &conversation{pinned: make(map[string]bool)}
		s.convs[key] = c
	}
	return c
}

// Append records a turn and returns its index in the transcript. Turns
// are ordered by the moment they reach this call, which for user turns is
// on request receipt, keeping the "user asked X" record truthful even
// when responses interleave. The transcript is append-only, so the index
// stays valid for the life of the session.
func (s *Store) Append(repoKey, sessionID string, role Role, text string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.conv(repoKey, sessionID)
	c.turns = append(c.turns, Turn{Role: role, Text: text, At: time.Now()})
	return len(c.turns) - 1
}

// History returns a copy of the transcript in append order.
func (s *Store) History(repoKey, sessionID string) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[scopeKey(repoKey, sessionID)]
	if !ok {
		return nil
	}
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Pin marks files the user explicitly selected in this session; the
// context assembler weights them above everything else.
func (s *Store) Pin(repoKey, sessionID string, paths ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.conv(repoKey, sessionID)
	for _, p := range paths {
		if p == "" || c.pinned[p] {
			continue
		}
		c.pinned[p] = true
		c.order = append(c.order, p)
	}
}

// Pinned returns the pinned file paths in pin order.
func (s *Store) Pinned(repoKey, sessionID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[scopeKey(repoKey, sessionID)]
	if !ok {
		return nil
	}
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}
