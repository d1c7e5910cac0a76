package tagcache

import (
	"context"
	"sort"
)

// Cache is the host cache capability this package decorates. Keys are opaque
// but must be comparable; implementations that serialize keys (see Backed)
// additionally require a stable string form via a keycodec.
type Cache interface {
	Name() string

	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	Get(ctx context.Context, key any) (value any, ok bool, err error)

	Put(ctx context.Context, key, value any) error

	// PutIfAbsent stores value only when no entry exists for key. When an
	// entry was already present it is returned with loaded=true and the
	// store is left untouched.
	PutIfAbsent(ctx context.Context, key, value any) (prev any, loaded bool, err error)

	Evict(ctx context.Context, key any) error

	// EvictIfPresent evicts key and reports whether an entry existed.
	EvictIfPresent(ctx context.Context, key any) (bool, error)

	Clear(ctx context.Context) error

	// Invalidate clears the cache and reports whether it held any entries.
	Invalidate(ctx context.Context) (bool, error)

	// Native exposes the underlying store, or nil if there is none.
	Native() any
}

// Manager resolves caches by name. The evictor uses it to fan out
// invalidations; unknown names are skipped, not errors.
type Manager interface {
	Cache(name string) (Cache, bool)
}

// Registry is a fixed, map-backed Manager.
type Registry struct {
	caches map[string]Cache
}

func NewRegistry(caches ...Cache) *Registry {
	m := make(map[string]Cache, len(caches))
	for _, c := range caches {
		m[c.Name()] = c
	}
	return &Registry{caches: m}
}

func (r *Registry) Cache(name string) (Cache, bool) {
	c, ok := r.caches[name]
	return c, ok
}

// Names returns the registered cache names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.caches))
	for n := range r.caches {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

type taggedManager struct {
	m Manager
}

// Tag returns a Manager whose resolved caches are wrapped in the Tagged
// write decorator. Already-wrapped caches are passed through unchanged.
func Tag(m Manager) Manager { return taggedManager{m: m} }

func (t taggedManager) Cache(name string) (Cache, bool) {
	c, ok := t.m.Cache(name)
	if !ok {
		return nil, false
	}
	if _, already := c.(*Tagged); already {
		return c, true
	}
	return Wrap(c), true
}
