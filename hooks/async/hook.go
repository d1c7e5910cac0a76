// Package asynchook decouples hook callbacks from the tagging hot path:
// events are queued and delivered by worker goroutines, and dropped when
// the queue is full.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    MappingErrorEvery: 10, // sample: ~every 10th suppressed mapping error
//	})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	tagger, _ := tagcache.New(tagcache.Options{
//	    Store: store,
//	    Hooks: hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"

	"github.com/unkn0wn-root/tagcache"
)

type Hooks struct {
	inner tagcache.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

var _ tagcache.Hooks = (*Hooks)(nil)

func New(inner tagcache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

func (h *Hooks) try(f func()) {
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) RecordSkipped(tags int) { h.try(func() { h.inner.RecordSkipped(tags) }) }
func (h *Hooks) MappingError(tags int, err error) {
	h.try(func() { h.inner.MappingError(tags, err) })
}
func (h *Hooks) TagCleanupError(tag string, err error) {
	h.try(func() { h.inner.TagCleanupError(tag, err) })
}
func (h *Hooks) CacheUnresolved(name string, keys int) {
	h.try(func() { h.inner.CacheUnresolved(name, keys) })
}
