package tagcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	c "github.com/unkn0wn-root/tagcache/codec"
	"github.com/unkn0wn-root/tagcache/internal/util"
	"github.com/unkn0wn-root/tagcache/internal/wire"
	"github.com/unkn0wn-root/tagcache/keycodec"
	pr "github.com/unkn0wn-root/tagcache/provider"
)

// BackedOptions tune a provider-backed cache.
// Name, Provider and Codec are required.
type BackedOptions[V any] struct {
	// Required
	Name     string // cache name; also isolates the provider keyspace
	Provider pr.Provider
	Codec    c.Codec[V]

	Keys   keycodec.Codec // nil => keycodec.Strings{}
	TTL    time.Duration  // 0 => no expiry (delegated to the provider)
	Logger Logger         // if nil, NopLogger is used
}

// Backed is a Cache over a byte Provider. Values are serialized by a
// pluggable Codec[V] and framed by the wire format, so corrupt or foreign
// provider entries self-heal on read. Entry expiry is delegated to the
// provider via TTL.
//
// Clear and Invalidate remove the whole keyspace when the provider supports
// prefix deletion (e.g. Redis); otherwise they fall back to the keys this
// instance wrote, which does not cover entries written by other replicas.
type Backed[V any] struct {
	name  string
	p     pr.Provider
	codec c.Codec[V]
	keys  keycodec.Codec
	ttl   time.Duration
	log   Logger

	mu    sync.Mutex
	known map[string]struct{} // storage keys written by this instance
}

var _ Cache = (*Backed[any])(nil)

func NewBacked[V any](opts BackedOptions[V]) (*Backed[V], error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("tagcache: cache name is required")
	}
	if opts.Provider == nil {
		return nil, fmt.Errorf("tagcache: provider is required")
	}
	if opts.Codec == nil {
		return nil, fmt.Errorf("tagcache: codec is required")
	}

	b := &Backed[V]{
		name:  opts.Name,
		p:     opts.Provider,
		codec: opts.Codec,
		ttl:   opts.TTL,
		known: make(map[string]struct{}),
	}

	// defaults
	b.keys = opts.Keys
	if b.keys == nil {
		b.keys = keycodec.Strings{}
	}
	b.log = coalesce[Logger](opts.Logger, NopLogger{})
	return b, nil
}

func (b *Backed[V]) Name() string { return b.name }

// Native returns the underlying provider.
func (b *Backed[V]) Native() any { return b.p }

func (b *Backed[V]) Close(ctx context.Context) error {
	return b.p.Close(ctx)
}

func (b *Backed[V]) Get(ctx context.Context, key any) (any, bool, error) {
	k, err := b.storageKey(key)
	if err != nil {
		return nil, false, err
	}
	raw, ok, err := b.p.Get(ctx, k)
	if err != nil || !ok {
		return nil, false, err
	}
	payload, err := wire.Decode(raw)
	if err != nil {
		b.selfHeal(ctx, k) // corrupt or foreign entry
		return nil, false, nil
	}
	v, err := b.codec.Decode(payload)
	if err != nil {
		b.selfHeal(ctx, k)
		return nil, false, nil
	}
	return v, true, nil
}

func (b *Backed[V]) Put(ctx context.Context, key, value any) error {
	k, err := b.storageKey(key)
	if err != nil {
		return err
	}
	v, ok := value.(V)
	if !ok {
		return fmt.Errorf("tagcache: cache %q: value type %T not assignable to codec type", b.name, value)
	}
	payload, err := b.codec.Encode(v)
	if err != nil {
		return err
	}
	wireb := wire.Encode(payload)
	stored, err := b.p.Set(ctx, k, wireb, int64(len(wireb)), b.ttl)
	if err != nil {
		return err
	}
	if !stored {
		b.log.Debug("Put rejected by provider (pressure)", Fields{"cache": b.name})
		return nil
	}
	b.track(k)
	return nil
}

// PutIfAbsent is check-then-set: atomic within this instance's view but not
// across replicas sharing a provider.
func (b *Backed[V]) PutIfAbsent(ctx context.Context, key, value any) (any, bool, error) {
	prev, ok, err := b.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if ok {
		return prev, true, nil
	}
	return nil, false, b.Put(ctx, key, value)
}

func (b *Backed[V]) Evict(ctx context.Context, key any) error {
	k, err := b.storageKey(key)
	if err != nil {
		return err
	}
	b.forget(k)
	return b.p.Del(ctx, k)
}

func (b *Backed[V]) EvictIfPresent(ctx context.Context, key any) (bool, error) {
	_, ok, err := b.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return true, b.Evict(ctx, key)
}

func (b *Backed[V]) Clear(ctx context.Context) error {
	if pd, ok := b.p.(pr.PrefixDeleter); ok {
		err := pd.DelPrefix(ctx, util.StoragePrefix(b.name))
		b.resetTracked()
		return err
	}

	keys := b.resetTracked()
	var firstErr error
	for _, k := range keys {
		if err := b.p.Del(ctx, k); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Invalidate clears the cache and reports whether this instance had written
// any live entries.
func (b *Backed[V]) Invalidate(ctx context.Context) (bool, error) {
	b.mu.Lock()
	had := len(b.known) > 0
	b.mu.Unlock()
	return had, b.Clear(ctx)
}

func (b *Backed[V]) storageKey(key any) (string, error) {
	enc, err := b.keys.EncodeKey(key)
	if err != nil {
		return "", fmt.Errorf("tagcache: cache %q: %w", b.name, err)
	}
	return util.StorageKey(b.name, enc), nil
}

func (b *Backed[V]) selfHeal(ctx context.Context, storageKey string) {
	b.forget(storageKey)
	_ = b.p.Del(ctx, storageKey)
	b.log.Debug("self-healed undecodable entry", Fields{"cache": b.name})
}

func (b *Backed[V]) track(k string) {
	b.mu.Lock()
	b.known[k] = struct{}{}
	b.mu.Unlock()
}

func (b *Backed[V]) forget(k string) {
	b.mu.Lock()
	delete(b.known, k)
	b.mu.Unlock()
}

func (b *Backed[V]) resetTracked() []string {
	b.mu.Lock()
	keys := make([]string, 0, len(b.known))
	for k := range b.known {
		keys = append(keys, k)
	}
	b.known = make(map[string]struct{})
	b.mu.Unlock()
	return keys
}
