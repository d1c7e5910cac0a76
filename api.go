package tagcache

import (
	ts "github.com/unkn0wn-root/tagcache/tagstore"
)

// Options tune the tagger.
// Only Store is required; others have sensible defaults.
type Options struct {
	// Required
	Store ts.Store

	Caches    Manager   // required for eviction; Record works without it
	Evaluator Evaluator // nil => Literal (templates are concrete tags)
	Logger    Logger    // if nil, NopLogger is used
	Hooks     Hooks     // if nil, NopHooks is used
	Disabled  bool      // default false (enabled)
}

// New builds the post-execution orchestrator. Record commits tag mappings
// after successful writes; Evict invalidates every entry sharing a tag.
func New(opts Options) (*Tagger, error) {
	return newTagger(opts)
}
