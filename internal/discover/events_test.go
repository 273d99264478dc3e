// Cinematch - Group Content Discovery and Ranking Engine
// Copyright 2026 K. Peters (kpeters)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kpeters/cinematch

package discover

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestEventsDelivery(t *testing.T) {
	events := NewEvents(zerolog.Nop())

	var first, second []Event
	events.Subscribe(func(ev Event) { first = append(first, ev) })
	events.Subscribe(func(ev Event) { second = append(second, ev) })

	events.Emit(Event{Kind: EventMissingEmbedding, ContentID: 7})
	events.Emit(Event{Kind: EventRebuildAdvised})

	for name, got := range map[string][]Event{"first": first, "second": second} {
		if len(got) != 2 {
			t.Fatalf("%s subscriber got %d events, want 2", name, len(got))
		}
		if got[0].Kind != EventMissingEmbedding || got[0].ContentID != 7 {
			t.Errorf("%s subscriber event 0 = %+v", name, got[0])
		}
		if got[1].Kind != EventRebuildAdvised {
			t.Errorf("%s subscriber event 1 = %+v", name, got[1])
		}
	}
}

func TestEventsNilSink(t *testing.T) {
	// Components may be constructed without diagnostics; a nil sink must
	// accept emits without panicking.
	var events *Events
	events.Emit(Event{Kind: EventDuplicateAdd})
	events.Subscribe(func(Event) {})
}

func TestEventsNilSubscriber(t *testing.T) {
	events := NewEvents(zerolog.Nop())
	events.Subscribe(nil)
	events.Emit(Event{Kind: EventExactFallback})
}

func TestEventKindString(t *testing.T) {
	tests := []struct {
		kind EventKind
		want string
	}{
		{EventMissingEmbedding, "missing_embedding"},
		{EventDimensionSkip, "dimension_skip"},
		{EventGenreUnderQuota, "genre_under_quota"},
		{EventExactFallback, "exact_fallback"},
		{EventDuplicateAdd, "duplicate_add"},
		{EventRebuildAdvised, "rebuild_advised"},
		{EventKind(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("EventKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
