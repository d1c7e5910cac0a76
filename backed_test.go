package tagcache

import (
	"context"
	"strings"
	"testing"
	"time"

	c "github.com/unkn0wn-root/tagcache/codec"
	pr "github.com/unkn0wn-root/tagcache/provider"
)

type memEntry struct {
	v   []byte
	exp time.Time // zero => no TTL
}

type memProvider struct {
	m map[string]memEntry
}

var _ pr.Provider = (*memProvider)(nil)

func newMemProvider() *memProvider { return &memProvider{m: make(map[string]memEntry)} }

func (p *memProvider) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := p.m[key]
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		delete(p.m, key)
		return nil, false, nil
	}
	return e.v, true, nil
}

func (p *memProvider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	p.m[key] = memEntry{v: value, exp: exp}
	return true, nil
}

func (p *memProvider) Del(_ context.Context, key string) error { delete(p.m, key); return nil }
func (p *memProvider) Close(_ context.Context) error           { return nil }

// prefixProvider additionally supports keyspace deletion, like the redis
// provider.
type prefixProvider struct{ *memProvider }

var _ pr.PrefixDeleter = prefixProvider{}

func (p prefixProvider) DelPrefix(_ context.Context, prefix string) error {
	for k := range p.m {
		if strings.HasPrefix(k, prefix) {
			delete(p.m, k)
		}
	}
	return nil
}

type user struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newTestBacked(t *testing.T, name string, p pr.Provider, optFn func(*BackedOptions[user])) *Backed[user] {
	t.Helper()
	opts := BackedOptions[user]{
		Name:     name,
		Provider: p,
		Codec:    c.JSON[user]{},
	}
	if optFn != nil {
		optFn(&opts)
	}
	b, err := NewBacked[user](opts)
	if err != nil {
		t.Fatalf("NewBacked: %v", err)
	}
	return b
}

// TestBackedPutGetEvict verifies the basic entry lifecycle.
func TestBackedPutGetEvict(t *testing.T) {
	ctx := context.Background()
	b := newTestBacked(t, "user", newMemProvider(), nil)
	defer b.Close(ctx)

	v := user{ID: "1", Name: "Ada"}

	if _, ok, err := b.Get(ctx, "u:1"); err != nil || ok {
		t.Fatalf("expected miss, ok=%v err=%v", ok, err)
	}
	if err := b.Put(ctx, "u:1", v); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := b.Get(ctx, "u:1")
	if err != nil || !ok || got != any(v) {
		t.Fatalf("Get after Put: ok=%v err=%v got=%v", ok, err, got)
	}

	if err := b.Evict(ctx, "u:1"); err != nil {
		t.Fatalf("Evict: %v", err)
	}
	if _, ok, _ := b.Get(ctx, "u:1"); ok {
		t.Fatalf("entry survived eviction")
	}
}

// TestBackedPutIfAbsent: the first write sticks, the second observes it.
func TestBackedPutIfAbsent(t *testing.T) {
	ctx := context.Background()
	b := newTestBacked(t, "user", newMemProvider(), nil)
	defer b.Close(ctx)

	first := user{ID: "1", Name: "Ada"}
	if prev, loaded, err := b.PutIfAbsent(ctx, "k", first); err != nil || loaded || prev != nil {
		t.Fatalf("first PutIfAbsent: prev=%v loaded=%v err=%v", prev, loaded, err)
	}
	prev, loaded, err := b.PutIfAbsent(ctx, "k", user{ID: "2", Name: "Bob"})
	if err != nil || !loaded || prev != any(first) {
		t.Fatalf("second PutIfAbsent: prev=%v loaded=%v err=%v", prev, loaded, err)
	}

	got, _, _ := b.Get(ctx, "k")
	if got != any(first) {
		t.Fatalf("value overwritten: %v", got)
	}
}

// TestBackedEvictIfPresent reports presence correctly.
func TestBackedEvictIfPresent(t *testing.T) {
	ctx := context.Background()
	b := newTestBacked(t, "user", newMemProvider(), nil)
	defer b.Close(ctx)

	if present, err := b.EvictIfPresent(ctx, "nope"); err != nil || present {
		t.Fatalf("absent: present=%v err=%v", present, err)
	}
	_ = b.Put(ctx, "k", user{ID: "1"})
	if present, err := b.EvictIfPresent(ctx, "k"); err != nil || !present {
		t.Fatalf("present: present=%v err=%v", present, err)
	}
	if _, ok, _ := b.Get(ctx, "k"); ok {
		t.Fatalf("entry survived eviction")
	}
}

// TestBackedSelfHealOnCorrupt ensures undecodable provider bytes are
// deleted and reported as a miss, not an error.
func TestBackedSelfHealOnCorrupt(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	b := newTestBacked(t, "user", mp, nil)
	defer b.Close(ctx)

	k, err := b.storageKey("bad")
	if err != nil {
		t.Fatal(err)
	}
	if ok, err := mp.Set(ctx, k, []byte("not-wire-format"), 1, 0); err != nil || !ok {
		t.Fatalf("inject corrupt: ok=%v err=%v", ok, err)
	}

	if _, ok, err := b.Get(ctx, "bad"); err != nil || ok {
		t.Fatalf("corrupt entry should miss, ok=%v err=%v", ok, err)
	}
	if _, ok, _ := mp.Get(ctx, k); ok {
		t.Fatalf("corrupt entry not deleted by self-heal")
	}
}

// TestBackedClearTracked: without prefix-deletion support Clear removes the
// keys this instance wrote.
func TestBackedClearTracked(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	b := newTestBacked(t, "user", mp, nil)
	defer b.Close(ctx)

	_ = b.Put(ctx, "a", user{ID: "a"})
	_ = b.Put(ctx, "b", user{ID: "b"})

	if err := b.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	for _, k := range []string{"a", "b"} {
		if _, ok, _ := b.Get(ctx, k); ok {
			t.Fatalf("key %q survived Clear", k)
		}
	}
}

// TestBackedClearPrefix: with a PrefixDeleter the whole keyspace goes,
// including entries written by other replicas.
func TestBackedClearPrefix(t *testing.T) {
	ctx := context.Background()
	mp := prefixProvider{memProvider: newMemProvider()}
	b := newTestBacked(t, "user", mp, nil)
	defer b.Close(ctx)

	_ = b.Put(ctx, "mine", user{ID: "1"})
	// entry under the same keyspace but unknown to this instance
	foreignKey, _ := b.storageKey("foreign")
	if ok, _ := mp.Set(ctx, foreignKey, []byte("x"), 1, 0); !ok {
		t.Fatal("inject foreign")
	}
	// unrelated keyspace must survive
	if ok, _ := mp.Set(ctx, "cache:other:z", []byte("y"), 1, 0); !ok {
		t.Fatal("inject other")
	}

	if err := b.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if len(mp.m) != 1 {
		t.Fatalf("expected only the unrelated key to survive, got %v", mp.m)
	}
	if _, ok, _ := mp.Get(ctx, "cache:other:z"); !ok {
		t.Fatalf("unrelated keyspace cleared")
	}
}

// TestBackedInvalidate reports whether live entries existed.
func TestBackedInvalidate(t *testing.T) {
	ctx := context.Background()
	b := newTestBacked(t, "user", newMemProvider(), nil)
	defer b.Close(ctx)

	if had, err := b.Invalidate(ctx); err != nil || had {
		t.Fatalf("empty cache: had=%v err=%v", had, err)
	}
	_ = b.Put(ctx, "k", user{ID: "1"})
	if had, err := b.Invalidate(ctx); err != nil || !had {
		t.Fatalf("populated cache: had=%v err=%v", had, err)
	}
}

// TestBackedTTLExpiry: expiry is delegated to the provider.
func TestBackedTTLExpiry(t *testing.T) {
	ctx := context.Background()
	b := newTestBacked(t, "user", newMemProvider(), func(o *BackedOptions[user]) {
		o.TTL = 20 * time.Millisecond
	})
	defer b.Close(ctx)

	_ = b.Put(ctx, "k", user{ID: "1"})
	if _, ok, _ := b.Get(ctx, "k"); !ok {
		t.Fatalf("entry missing before expiry")
	}
	time.Sleep(50 * time.Millisecond)
	if _, ok, _ := b.Get(ctx, "k"); ok {
		t.Fatalf("entry survived TTL")
	}
}

// TestBackedRejectsWrongValueType: values must match the codec's type.
func TestBackedRejectsWrongValueType(t *testing.T) {
	ctx := context.Background()
	b := newTestBacked(t, "user", newMemProvider(), nil)
	defer b.Close(ctx)

	if err := b.Put(ctx, "k", 123); err == nil {
		t.Fatalf("expected type mismatch error")
	}
}

// TestBackedValidation covers constructor requirements.
func TestBackedValidation(t *testing.T) {
	if _, err := NewBacked[user](BackedOptions[user]{Provider: newMemProvider(), Codec: c.JSON[user]{}}); err == nil {
		t.Fatalf("missing name accepted")
	}
	if _, err := NewBacked[user](BackedOptions[user]{Name: "u", Codec: c.JSON[user]{}}); err == nil {
		t.Fatalf("missing provider accepted")
	}
	if _, err := NewBacked[user](BackedOptions[user]{Name: "u", Provider: newMemProvider()}); err == nil {
		t.Fatalf("missing codec accepted")
	}
}
