package tagcache

import (
	"context"
	"sync"
)

// writeScope holds the (cacheName, key) of the write currently in flight on
// one logical invocation. The Tagged decorator mutates it before delegating;
// the recorder consumes and clears it. A scope belongs to exactly one
// invocation: callers install a fresh one per logical operation via
// WithWriteScope, so concurrent invocations never observe each other's
// value. The mutex only guards against an invocation that fans out
// goroutines over the same context.
type writeScope struct {
	mu        sync.Mutex
	set       bool
	cacheName string
	key       any
}

type writeScopeKey struct{}

// WithWriteScope derives a context carrying a fresh, empty write scope.
// Install one per logical invocation, before any cache writes. Without a
// scope the Tagged decorator's publish step is a no-op and Record finds
// nothing to commit.
func WithWriteScope(ctx context.Context) context.Context {
	return context.WithValue(ctx, writeScopeKey{}, &writeScope{})
}

func scopeFrom(ctx context.Context) *writeScope {
	s, _ := ctx.Value(writeScopeKey{}).(*writeScope)
	return s
}

// publishWrite records (cacheName, key) in the invocation's write scope.
// Last write wins: only the most recent write of an invocation is expected
// to be tagged. No-op when the context carries no scope.
func publishWrite(ctx context.Context, cacheName string, key any) {
	s := scopeFrom(ctx)
	if s == nil {
		return
	}
	s.mu.Lock()
	s.set = true
	s.cacheName = cacheName
	s.key = key
	s.mu.Unlock()
}

// takeWrite returns the pending write, if any, without clearing it.
func takeWrite(ctx context.Context) (cacheName string, key any, ok bool) {
	s := scopeFrom(ctx)
	if s == nil {
		return "", nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return "", nil, false
	}
	return s.cacheName, s.key, true
}

// clearWrite empties the scope. Must run on every exit path of an
// invocation so a reused scope never leaks into the next operation.
func clearWrite(ctx context.Context) {
	s := scopeFrom(ctx)
	if s == nil {
		return
	}
	s.mu.Lock()
	s.set = false
	s.cacheName = ""
	s.key = nil
	s.mu.Unlock()
}
