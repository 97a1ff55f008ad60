// Package registry classifies request paths against the endpoint descriptor
// store. Classification is fail-closed: unknown or inactive endpoints are
// reported as not found and callers route them to the most restrictive chain.
package registry

import (
	"context"
	"errors"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"dinehub/backend/internal/endpoint/domain"
	"dinehub/backend/internal/endpoint/repository"
)

// ErrNotFound is returned when no active descriptor matches a path.
var ErrNotFound = errors.New("endpoint: no active descriptor matches")

// notFound is the cached negative-result marker.
type notFound struct{}

// Registry answers Classify with a per-path cache in front of the descriptor
// repository. A classification (including "not found") is cached for the
// configured TTL, so administrative changes take at most one TTL to be seen.
type Registry struct {
	repo  repository.Repository
	cache *gocache.Cache
}

// New returns a Registry caching classifications for ttl.
func New(repo repository.Repository, ttl time.Duration) *Registry {
	return &Registry{
		repo:  repo,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// Classify returns the single active descriptor matching method and path, or
// ErrNotFound. When several patterns match, the most specific one (most
// literal segments, then longest pattern) wins.
func (r *Registry) Classify(ctx context.Context, method, path string) (*domain.Descriptor, error) {
	key := method + " " + path
	if v, ok := r.cache.Get(key); ok {
		if _, miss := v.(notFound); miss {
			return nil, ErrNotFound
		}
		return v.(*domain.Descriptor), nil
	}

	descs, err := r.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	var best *domain.Descriptor
	bestLiterals := -1
	for _, d := range descs {
		if !d.Active {
			continue
		}
		if d.Method != "*" && !strings.EqualFold(d.Method, method) {
			continue
		}
		literals, ok := matchPattern(d.PathPattern, path)
		if !ok {
			continue
		}
		if literals > bestLiterals || (literals == bestLiterals && best != nil && len(d.PathPattern) > len(best.PathPattern)) {
			best = d
			bestLiterals = literals
		}
	}

	if best == nil {
		r.cache.SetDefault(key, notFound{})
		return nil, ErrNotFound
	}
	r.cache.SetDefault(key, best)
	return best, nil
}

// matchPattern reports whether path matches pattern and how many literal
// segments anchored the match. "{x}" matches one segment; a trailing "**"
// matches any remaining suffix including the empty one.
func matchPattern(pattern, path string) (literals int, ok bool) {
	psegs := splitPath(pattern)
	rsegs := splitPath(path)

	for i, seg := range psegs {
		if seg == "**" {
			if i != len(psegs)-1 {
				return 0, false // ** only valid as suffix
			}
			return literals, true
		}
		if i >= len(rsegs) {
			return 0, false
		}
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			continue
		}
		if seg != rsegs[i] {
			return 0, false
		}
		literals++
	}
	if len(rsegs) != len(psegs) {
		return 0, false
	}
	return literals, true
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
