package tagcache

import (
	"fmt"
)

// EvaluationError wraps a failure to evaluate a tag template against an
// invocation. It propagates to the caller of the tagged operation; the
// underlying cache write (already completed) is unaffected.
type EvaluationError struct {
	Template string
	Err      error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluate tag template %q: %v", e.Template, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

// EvictError reports one cache entry that could not be evicted during
// tag invalidation. Multiple failures are joined with errors.Join.
type EvictError struct {
	Cache string
	Key   any
	Err   error
}

func (e *EvictError) Error() string {
	return fmt.Sprintf("evict %v from cache %q failed: %v", e.Key, e.Cache, e.Err)
}

func (e *EvictError) Unwrap() error { return e.Err }
