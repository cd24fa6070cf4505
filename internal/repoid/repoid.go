// Package repoid normalizes GitHub repository URLs into the canonical
// identity used as the cache key for every derived artifact.
package repoid

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/atharvvvg/LLMRepo/internal/apperr"
)

// Identity is the canonical (owner, name, ref) key for one repository
// snapshot. Ref may be empty, meaning the repository's default branch.
type Identity struct {
	Owner string
	Name  string
	Ref   string
}

// Parse extracts an Identity from a GitHub repository URL. URLs that differ
// only by trailing slash or ".git" suffix map to the same identity.
func Parse(rawURL, ref string) (Identity, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return Identity{}, apperr.New(apperr.KindInvalidRequest, "repository URL is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return Identity{}, apperr.Wrap(apperr.KindInvalidRequest, "invalid repository URL", err)
	}

	host := strings.ToLower(u.Hostname())
	if host != "github.com" && host != "www.github.com" {
		return Identity{}, apperr.Newf(apperr.KindInvalidRequest, "unsupported repository host %q", u.Hostname())
	}

	path := strings.Trim(u.Path, "/")
	path = strings.TrimSuffix(path, ".git")
	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Identity{}, apperr.Newf(apperr.KindInvalidRequest, "cannot determine owner/name from %q", rawURL)
	}

	return Identity{
		Owner: strings.ToLower(parts[0]),
		Name:  strings.ToLower(parts[1]),
		Ref:   strings.TrimSpace(ref),
	}, nil
}

// Key renders the identity as the canonical cache key prefix.
func (id Identity) Key() string {
	ref := id.Ref
	if ref == "" {
		ref = "HEAD"
	}
	return fmt.Sprintf("%s/%s@%s", id.Owner, id.Name, ref)
}

// Slug returns "owner/name" without the ref, for display and prompts.
func (id Identity) Slug() string {
	return id.Owner + "/" + id.Name
}

// WithRef returns a copy of the identity pinned to the given ref.
func (id Identity) WithRef(ref string) Identity {
	id.Ref = ref
	return id
}
