package tagcache

import (
	"context"
	"errors"
	"fmt"

	ts "github.com/unkn0wn-root/tagcache/tagstore"
)

// Tagger orchestrates the post-execution half of tagging: recording
// tag->reference mappings after successful writes and fanning out
// tag-driven evictions. It is safe for concurrent use; the tag store is
// the only shared mutable state and synchronizes internally.
type Tagger struct {
	store   ts.Store
	caches  Manager
	eval    Evaluator
	log     Logger
	hooks   Hooks
	enabled bool
}

func newTagger(opts Options) (*Tagger, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("tagcache: store is required")
	}

	t := &Tagger{
		store:   opts.Store,
		caches:  opts.Caches,
		enabled: !opts.Disabled,
	}

	// defaults
	t.eval = opts.Evaluator
	if t.eval == nil {
		t.eval = Literal
	}
	t.log = coalesce[Logger](opts.Logger, NopLogger{})
	t.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	return t, nil
}

func (t *Tagger) Enabled() bool { return t.enabled }

func (t *Tagger) Close(ctx context.Context) error {
	return t.store.Close(ctx)
}

// Record runs after a write-producing operation completed without error.
// It evaluates templates into concrete tags and associates them with the
// write captured in ctx's write scope. A missing scope means the write did
// not pass through the Tagged decorator; that is a silent skip, not an
// error. Store failures are suppressed and logged: the cache write already
// committed and tagging is best-effort. The write scope is cleared on every
// exit path, including evaluation failure.
func (t *Tagger) Record(ctx context.Context, inv Invocation, templates ...string) error {
	defer clearWrite(ctx)

	if !t.enabled || len(templates) == 0 {
		return nil
	}
	tags, err := t.evaluate(inv, templates)
	if err != nil {
		return err
	}
	if len(tags) == 0 {
		return nil
	}

	cacheName, key, ok := takeWrite(ctx)
	if !ok {
		t.hooks.RecordSkipped(len(tags))
		t.log.Debug("record skipped (no write in scope)", Fields{"tags": len(tags)})
		return nil
	}

	if err := t.store.AddMappings(ctx, tags, cacheName, key); err != nil {
		t.hooks.MappingError(len(tags), err)
		t.log.Warn("tag mapping failed; cache write already committed", Fields{
			"cache": cacheName, "tags": len(tags), "err": err,
		})
	}
	return nil
}

// Evict runs after an eviction-triggering operation completed without
// error. Templates are evaluated against inv, resolved to concrete cache
// references and every reference is evicted from its cache, then the tag
// entries are removed from the store.
func (t *Tagger) Evict(ctx context.Context, inv Invocation, templates ...string) error {
	if !t.enabled || len(templates) == 0 {
		return nil
	}
	tags, err := t.evaluate(inv, templates)
	if err != nil {
		return err
	}
	return t.evictTags(ctx, tags)
}

// EvictTags invalidates by concrete tags, skipping template evaluation.
func (t *Tagger) EvictTags(ctx context.Context, tags ...string) error {
	if !t.enabled {
		return nil
	}
	return t.evictTags(ctx, dedupe(tags))
}

// evictTags evicts entries first, then cleans up tag index entries.
// A writer racing between lookup and cleanup may get its fresh mapping
// dropped while its cache entry survives; accepted lossy-cleanup tradeoff,
// not corrected by retry.
func (t *Tagger) evictTags(ctx context.Context, tags []string) error {
	if len(tags) == 0 {
		return nil
	}

	byCache, err := t.store.KeysForTags(ctx, tags)
	if err != nil {
		// skipping eviction silently would leave stale entries live
		return fmt.Errorf("tag lookup: %w", err)
	}

	var errs []error
	for name, keys := range byCache {
		c, ok := t.resolve(name)
		if !ok {
			t.hooks.CacheUnresolved(name, len(keys))
			t.log.Debug("cache not resolvable; skipping entries", Fields{"cache": name, "keys": len(keys)})
			continue
		}
		for _, k := range keys {
			if err := c.Evict(ctx, k); err != nil {
				errs = append(errs, &EvictError{Cache: name, Key: k, Err: err})
			}
		}
	}

	// cleanup runs for every evaluated tag, resolved or not; failures are
	// suppressed since RemoveTag is best-effort
	for _, tag := range tags {
		if err := t.store.RemoveTag(ctx, tag); err != nil {
			t.hooks.TagCleanupError(tag, err)
			t.log.Warn("tag cleanup failed", Fields{"tag": tag, "err": err})
		}
	}
	return errors.Join(errs...)
}

func (t *Tagger) resolve(name string) (Cache, bool) {
	if t.caches == nil {
		return nil, false
	}
	return t.caches.Cache(name)
}

// evaluate maps templates to deduplicated concrete tags. Empty results are
// dropped; an evaluator error aborts the whole set.
func (t *Tagger) evaluate(inv Invocation, templates []string) ([]string, error) {
	seen := make(map[string]struct{}, len(templates))
	tags := make([]string, 0, len(templates))
	for _, tpl := range templates {
		tag, err := t.eval.Evaluate(tpl, inv)
		if err != nil {
			return nil, &EvaluationError{Template: tpl, Err: err}
		}
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags, nil
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
