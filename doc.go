// Package tagcache adds tag-based invalidation on top of a pluggable
// key/value cache. Callers attach tags to entries at write time and later
// evict every entry sharing a tag with a single call. A secondary index
// (tag -> set of (cacheName, key) references) is kept consistent under
// concurrent writers and evictors.
//
// Components:
//   - Cache: the host cache capability (Get, Put, Evict, Clear, ...).
//     Backed[V] is a ready implementation over a byte Provider.
//   - Tagged: decorator that publishes the (cacheName, key) of every write
//     into the invocation's write scope before delegating.
//   - tagstore.Store: the tag index. Local (in-process) by default,
//     optional Redis implementation with one remote SET per tag.
//   - Tagger: post-execution orchestration. Record commits tag->reference
//     mappings after a successful write; Evict resolves tags to references,
//     fans out evictions and removes the tag entries.
//
// Flow:
//
//	ctx = tagcache.WithWriteScope(ctx)          // per logical invocation
//	cache.Put(ctx, key, v)                      // Tagged publishes (name, key)
//	_ = tagger.Record(ctx, inv, "user:{{id}}")  // reads scope, writes index
//
// The Tagged[T] and Evicting[T] helpers wrap a whole operation and run the
// post hooks only on success, clearing the write scope on every exit path.
package tagcache
