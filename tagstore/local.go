package tagstore

import (
	"context"
	"sync"
)

type ref struct {
	cacheName string
	key       any
}

// Local keeps the tag index in-process (default). Keys must be comparable;
// equality is structural. The index is not durable: a restart drops it.
//
// Known race: AddMappings racing with RemoveTag on the same tag may land on
// either side of the removal. The eviction path treats RemoveTag as
// best-effort cleanup, so this stays eventual rather than linearizable.
type Local struct {
	mu   sync.RWMutex
	tags map[string]map[ref]struct{}
}

var _ Store = (*Local)(nil)

func NewLocal() *Local {
	return &Local{tags: make(map[string]map[ref]struct{})}
}

func (s *Local) AddMappings(_ context.Context, tags []string, cacheName string, key any) error {
	if len(tags) == 0 {
		return nil
	}
	r := ref{cacheName: cacheName, key: key}
	s.mu.Lock()
	for _, tag := range tags {
		set, ok := s.tags[tag]
		if !ok {
			set = make(map[ref]struct{})
			s.tags[tag] = set
		}
		set[r] = struct{}{}
	}
	s.mu.Unlock()
	return nil
}

// KeysForTags reads each tag's current set under one read lock; there is no
// cross-tag atomicity guarantee, each tag is a point-in-time snapshot.
func (s *Local) KeysForTags(_ context.Context, tags []string) (map[string][]any, error) {
	grouped := make(map[string]map[any]struct{})
	s.mu.RLock()
	for _, tag := range tags {
		for r := range s.tags[tag] {
			set, ok := grouped[r.cacheName]
			if !ok {
				set = make(map[any]struct{})
				grouped[r.cacheName] = set
			}
			set[r.key] = struct{}{}
		}
	}
	s.mu.RUnlock()

	out := make(map[string][]any, len(grouped))
	for name, set := range grouped {
		keys := make([]any, 0, len(set))
		for k := range set {
			keys = append(keys, k)
		}
		out[name] = keys
	}
	return out, nil
}

func (s *Local) RemoveTag(_ context.Context, tag string) error {
	s.mu.Lock()
	delete(s.tags, tag)
	s.mu.Unlock()
	return nil
}

func (s *Local) Close(context.Context) error { return nil }
