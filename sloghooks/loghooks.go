// Package sloghooks logs tagging events through log/slog, with sampling so
// a misbehaving backend cannot flood the logs.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/tagcache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	MappingErrorEvery  uint64
	RecordSkippedEvery uint64
	// Optional tag redactor. Defaults to SHA-256 prefix (tags often embed
	// entity IDs).
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	mappingErrCtr atomic.Uint64
	recordSkipCtr atomic.Uint64
}

var _ tagcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	if opts.Redact == nil {
		opts.Redact = func(s string) string {
			sum := sha256.Sum256([]byte(s))
			return hex.EncodeToString(sum[:8])
		}
	}
	return &Hooks{l: l, opts: opts}
}

func sampled(ctr *atomic.Uint64, every uint64) bool {
	if every <= 1 {
		return true
	}
	return ctr.Add(1)%every == 1
}

func (h *Hooks) RecordSkipped(tags int) {
	if !sampled(&h.recordSkipCtr, h.opts.RecordSkippedEvery) {
		return
	}
	h.l.Debug("tag record skipped: write not intercepted", "tags", tags)
}

func (h *Hooks) MappingError(tags int, err error) {
	if !sampled(&h.mappingErrCtr, h.opts.MappingErrorEvery) {
		return
	}
	h.l.Warn("tag mapping suppressed", "tags", tags, "err", err)
}

func (h *Hooks) TagCleanupError(tag string, err error) {
	h.l.Warn("tag cleanup suppressed", "tag", h.opts.Redact(tag), "err", err)
}

func (h *Hooks) CacheUnresolved(name string, keys int) {
	h.l.Debug("eviction skipped unresolved cache", "cache", name, "keys", keys)
}
