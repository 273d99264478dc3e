// Cinematch - Group Content Discovery and Ranking Engine
// Copyright 2026 K. Peters (kpeters)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kpeters/cinematch

package discover

import (
	"sync"

	"github.com/rs/zerolog"
)

// EventKind classifies degraded-mode diagnostics.
type EventKind int

const (
	// EventMissingEmbedding indicates an item was scored with the
	// neutral default because its embedding was absent.
	EventMissingEmbedding EventKind = iota
	// EventDimensionSkip indicates an item was dropped from a
	// diversity pool because its embedding had the wrong length.
	EventDimensionSkip
	// EventGenreUnderQuota indicates a genre finished below its
	// configured minimum in the quota diversifier.
	EventGenreUnderQuota
	// EventExactFallback indicates the ANN backend was unavailable and
	// the index fell back to exact linear scan.
	EventExactFallback
	// EventDuplicateAdd indicates an add for an already-indexed
	// contentID was ignored.
	EventDuplicateAdd
	// EventRebuildAdvised indicates index churn crossed the staleness
	// threshold and a rebuild is advisable.
	EventRebuildAdvised
)

// String returns a stable identifier for the event kind.
func (k EventKind) String() string {
	switch k {
	case EventMissingEmbedding:
		return "missing_embedding"
	case EventDimensionSkip:
		return "dimension_skip"
	case EventGenreUnderQuota:
		return "genre_under_quota"
	case EventExactFallback:
		return "exact_fallback"
	case EventDuplicateAdd:
		return "duplicate_add"
	case EventRebuildAdvised:
		return "rebuild_advised"
	default:
		return "unknown"
	}
}

// Event is one degraded-mode diagnostic. Events never carry errors;
// anything fatal is returned from the failing call instead.
type Event struct {
	// Kind classifies the event.
	Kind EventKind `json:"kind"`

	// ContentID is the affected item, when one applies.
	ContentID int64 `json:"content_id,omitempty"`

	// Detail is a short human-readable description.
	Detail string `json:"detail,omitempty"`
}

// Events is a subscribable diagnostics sink. Components emit warning
// events through it instead of writing to a global console, so callers
// can observe degraded-mode behavior decoupled from ranking control flow.
//
// Delivery is synchronous and in registration order. Subscribers must be
// fast and must not call back into the emitting component.
type Events struct {
	mu     sync.RWMutex
	subs   []func(Event)
	logger zerolog.Logger
}

// NewEvents creates an event sink. Every emitted event is also logged at
// warn level through the supplied logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewEvents(logger zerolog.Logger) *Events {
	return &Events{
		logger: logger.With().Str("component", "events").Logger(),
	}
}

// Subscribe registers a callback for all future events.
func (e *Events) Subscribe(fn func(Event)) {
	if e == nil || fn == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subs = append(e.subs, fn)
}

// Emit delivers an event to all subscribers and logs it.
// A nil sink drops events silently, so components can be constructed
// without diagnostics wired up.
func (e *Events) Emit(ev Event) {
	if e == nil {
		return
	}

	e.logger.Warn().
		Str("event", ev.Kind.String()).
		Int64("content_id", ev.ContentID).
		Str("detail", ev.Detail).
		Msg("degraded-mode event")

	e.mu.RLock()
	subs := e.subs
	e.mu.RUnlock()

	for _, fn := range subs {
		fn(ev)
	}
}
