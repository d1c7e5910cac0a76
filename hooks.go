package tagcache

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The tagger calls them on hot paths.
type Hooks interface {
	// A Record ran with tags to commit but no write scope value was present
	// (the write did not go through the Tagged decorator).
	RecordSkipped(tags int)

	// The tag store rejected AddMappings; the error was suppressed because
	// the underlying cache write already succeeded.
	MappingError(tags int, err error)

	// RemoveTag failed during post-eviction cleanup (suppressed).
	TagCleanupError(tag string, err error)

	// The evictor resolved a cache name that the Manager does not know;
	// keys is the number of references skipped with it.
	CacheUnresolved(name string, keys int)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) RecordSkipped(int)             {}
func (NopHooks) MappingError(int, error)       {}
func (NopHooks) TagCleanupError(string, error) {}
func (NopHooks) CacheUnresolved(string, int)   {}
