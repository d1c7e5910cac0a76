package tagcache

import (
	"context"
)

// WithTags runs op inside a fresh write scope and records the evaluated
// tags against whatever op wrote through a Tagged cache. Record runs only
// when op succeeds; the scope is cleared on every exit path, so a failed or
// cancelled op never leaks its pending write into the next invocation.
// inv.Result is populated from op's return value before evaluation.
func WithTags[T any](ctx context.Context, t *Tagger, inv Invocation, templates []string, op func(context.Context) (T, error)) (T, error) {
	ctx = WithWriteScope(ctx)
	defer clearWrite(ctx)

	v, err := op(ctx)
	if err != nil {
		return v, err
	}
	inv.Result = v
	if err := t.Record(ctx, inv, templates...); err != nil {
		return v, err
	}
	return v, nil
}

// WithEvictTags runs op and, only on success, evicts every cache entry
// sharing one of the evaluated tags. Errors from op suppress eviction:
// a failed business operation must not invalidate caches for data that was
// never changed.
func WithEvictTags[T any](ctx context.Context, t *Tagger, inv Invocation, templates []string, op func(context.Context) (T, error)) (T, error) {
	v, err := op(ctx)
	if err != nil {
		return v, err
	}
	inv.Result = v
	if err := t.Evict(ctx, inv, templates...); err != nil {
		return v, err
	}
	return v, nil
}
