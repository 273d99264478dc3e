// Cinematch - Group Content Discovery and Ranking Engine
// Copyright 2026 K. Peters (kpeters)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kpeters/cinematch

package index

import (
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"

	"github.com/kpeters/cinematch/internal/discover"
)

func testIndex(t *testing.T, backend Backend) (*Index, *[]discover.Event) {
	t.Helper()

	var captured []discover.Event
	events := discover.NewEvents(zerolog.Nop())
	events.Subscribe(func(ev discover.Event) {
		captured = append(captured, ev)
	})

	cfg := DefaultConfig(4)
	cfg.Backend = backend
	x, err := New(cfg, events, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return x, &captured
}

func testVectors() map[int64][]float64 {
	return map[int64][]float64{
		1: {1, 0, 0, 0},
		2: {0, 1, 0, 0},
		3: {0, 0, 1, 0},
	}
}

func TestSearchBeforeBuild(t *testing.T) {
	x, _ := testIndex(t, BackendExact)

	_, err := x.Search([]float64{1, 0, 0, 0}, 1)
	if !errors.Is(err, discover.ErrIndexNotBuilt) {
		t.Fatalf("Search() error = %v, want ErrIndexNotBuilt", err)
	}
}

func TestBuildDimensionMismatch(t *testing.T) {
	x, _ := testIndex(t, BackendExact)

	err := x.Build(map[int64][]float64{1: {1, 0}})
	if !errors.Is(err, discover.ErrDimensionMismatch) {
		t.Fatalf("Build() error = %v, want ErrDimensionMismatch", err)
	}
}

// TestRoundTrip verifies build-then-search recovers the stored vector
// with similarity ~1 on both backends: the exact fallback must be
// correctness-equivalent to the approximate path.
func TestRoundTrip(t *testing.T) {
	for _, backend := range []Backend{BackendExact, BackendAnnoy} {
		t.Run(string(backend), func(t *testing.T) {
			x, _ := testIndex(t, backend)
			if err := x.Build(testVectors()); err != nil {
				t.Fatalf("Build() error: %v", err)
			}

			matches, err := x.Search([]float64{1, 0, 0, 0}, 1)
			if err != nil {
				t.Fatalf("Search() error: %v", err)
			}
			if len(matches) != 1 {
				t.Fatalf("len(matches) = %d, want 1", len(matches))
			}
			if matches[0].ContentID != 1 {
				t.Errorf("ContentID = %d, want 1", matches[0].ContentID)
			}
			// float32 storage on the annoy backend costs a little precision.
			if math.Abs(matches[0].Similarity-1) > 0.01 {
				t.Errorf("Similarity = %f, want ~1", matches[0].Similarity)
			}
		})
	}
}

// TestBackendSimilarityAgreement pins both backends to one similarity
// scale at non-trivial angles, where the identical-vector case cannot
// distinguish them: a 45-degree pair must score ~0.707 and an orthogonal
// pair ~0 regardless of backend.
func TestBackendSimilarityAgreement(t *testing.T) {
	vectors := map[int64][]float64{
		1: {1, 0, 0, 0}, // aligned with the query
		2: {1, 1, 0, 0}, // 45 degrees
		3: {0, 1, 0, 0}, // orthogonal
	}
	want := map[int64]float64{
		1: 1,
		2: 1 / math.Sqrt2,
		3: 0,
	}

	got := make(map[Backend]map[int64]float64)
	for _, backend := range []Backend{BackendExact, BackendAnnoy} {
		x, _ := testIndex(t, backend)
		if err := x.Build(vectors); err != nil {
			t.Fatalf("%s: Build() error: %v", backend, err)
		}

		matches, err := x.Search([]float64{1, 0, 0, 0}, 3)
		if err != nil {
			t.Fatalf("%s: Search() error: %v", backend, err)
		}
		if len(matches) != 3 {
			t.Fatalf("%s: len(matches) = %d, want 3", backend, len(matches))
		}

		got[backend] = make(map[int64]float64)
		for _, m := range matches {
			got[backend][m.ContentID] = m.Similarity
			if math.Abs(m.Similarity-want[m.ContentID]) > 0.01 {
				t.Errorf("%s: content %d similarity = %f, want %f",
					backend, m.ContentID, m.Similarity, want[m.ContentID])
			}
		}
	}

	for id := range vectors {
		exact, annoy := got[BackendExact][id], got[BackendAnnoy][id]
		if math.Abs(exact-annoy) > 0.01 {
			t.Errorf("content %d: backends disagree, exact %f vs annoy %f", id, exact, annoy)
		}
	}
}

// TestPendingScoresMatchBuiltScores guards the single-scale invariant
// within one result set: an item added after Build and an equally
// similar built item must score the same.
func TestPendingScoresMatchBuiltScores(t *testing.T) {
	x, _ := testIndex(t, BackendAnnoy)
	if err := x.Build(map[int64][]float64{
		1: {1, 0, 0, 0},
		2: {0, 1, 0, 0},
	}); err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	// Content 3 is just as orthogonal to the query as built content 2.
	if err := x.Add(3, []float64{0, 0, 1, 0}); err != nil {
		t.Fatalf("Add() error: %v", err)
	}

	matches, err := x.Search([]float64{1, 0, 0, 0}, 3)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}

	sims := make(map[int64]float64)
	for _, m := range matches {
		sims[m.ContentID] = m.Similarity
	}
	if _, ok := sims[2]; !ok {
		t.Fatal("built content 2 missing from results")
	}
	if _, ok := sims[3]; !ok {
		t.Fatal("pending content 3 missing from results")
	}
	if math.Abs(sims[2]-sims[3]) > 0.01 {
		t.Errorf("built scored %f, pending scored %f, want equal", sims[2], sims[3])
	}
}

func TestSearchQueryDimensionMismatch(t *testing.T) {
	x, _ := testIndex(t, BackendExact)
	if err := x.Build(testVectors()); err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	_, err := x.Search([]float64{1, 0}, 1)
	if !errors.Is(err, discover.ErrDimensionMismatch) {
		t.Fatalf("Search() error = %v, want ErrDimensionMismatch", err)
	}
}

func TestSearchThresholdDropsNotZeroFills(t *testing.T) {
	x, _ := testIndex(t, BackendExact)
	if err := x.Build(testVectors()); err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	// Only content 1 is similar to the query; the orthogonal rest fall
	// below the threshold and must be dropped.
	matches, err := x.SearchWithThreshold([]float64{1, 0, 0, 0}, 3, 0.5)
	if err != nil {
		t.Fatalf("SearchWithThreshold() error: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("len(matches) = %d, want 1", len(matches))
	}
	if matches[0].ContentID != 1 {
		t.Errorf("ContentID = %d, want 1", matches[0].ContentID)
	}
}

func TestAddDuplicateIsNoOp(t *testing.T) {
	x, captured := testIndex(t, BackendExact)
	if err := x.Build(testVectors()); err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if err := x.Add(1, []float64{0, 0, 0, 1}); err != nil {
		t.Fatalf("Add() error: %v", err)
	}

	found := false
	for _, ev := range *captured {
		if ev.Kind == discover.EventDuplicateAdd && ev.ContentID == 1 {
			found = true
		}
	}
	if !found {
		t.Error("expected EventDuplicateAdd for re-added content")
	}

	// The original vector must still win for its own query.
	matches, err := x.Search([]float64{1, 0, 0, 0}, 1)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if matches[0].ContentID != 1 || math.Abs(matches[0].Similarity-1) > 1e-9 {
		t.Errorf("duplicate add changed stored vector: %+v", matches[0])
	}
}

func TestAddServedBeforeRebuild(t *testing.T) {
	for _, backend := range []Backend{BackendExact, BackendAnnoy} {
		t.Run(string(backend), func(t *testing.T) {
			x, _ := testIndex(t, backend)
			if err := x.Build(testVectors()); err != nil {
				t.Fatalf("Build() error: %v", err)
			}

			if err := x.Add(4, []float64{0, 0, 0, 1}); err != nil {
				t.Fatalf("Add() error: %v", err)
			}

			matches, err := x.Search([]float64{0, 0, 0, 1}, 1)
			if err != nil {
				t.Fatalf("Search() error: %v", err)
			}
			if len(matches) != 1 || matches[0].ContentID != 4 {
				t.Fatalf("matches = %+v, want content 4 first", matches)
			}
		})
	}
}

func TestRemoveMasksContent(t *testing.T) {
	x, _ := testIndex(t, BackendExact)
	if err := x.Build(testVectors()); err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if err := x.Remove(1); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}

	matches, err := x.Search([]float64{1, 0, 0, 0}, 3)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	for _, m := range matches {
		if m.ContentID == 1 {
			t.Error("removed content still returned")
		}
	}
}

func TestRebuildAdvisedAfterChurn(t *testing.T) {
	x, captured := testIndex(t, BackendExact)
	if err := x.Build(testVectors()); err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	// One mutation over three built vectors crosses the 0.25 default.
	if err := x.Remove(3); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}

	stats := x.Stats()
	if !stats.RebuildAdvised {
		t.Error("RebuildAdvised = false, want true after churn")
	}

	found := false
	for _, ev := range *captured {
		if ev.Kind == discover.EventRebuildAdvised {
			found = true
		}
	}
	if !found {
		t.Error("expected EventRebuildAdvised")
	}

	// A rebuild clears the advisory.
	if err := x.Build(testVectors()); err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if x.Stats().RebuildAdvised {
		t.Error("RebuildAdvised should reset after Build")
	}
}

func TestStats(t *testing.T) {
	x, _ := testIndex(t, BackendExact)

	stats := x.Stats()
	if stats.Built {
		t.Error("Built = true before Build")
	}
	if stats.Count != 0 {
		t.Errorf("Count = %d, want 0", stats.Count)
	}

	if err := x.Build(testVectors()); err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if _, err := x.Search([]float64{1, 0, 0, 0}, 1); err != nil {
		t.Fatalf("Search() error: %v", err)
	}

	stats = x.Stats()
	if !stats.Built {
		t.Error("Built = false after Build")
	}
	if stats.Count != 3 {
		t.Errorf("Count = %d, want 3", stats.Count)
	}
	if stats.Generation != 1 {
		t.Errorf("Generation = %d, want 1", stats.Generation)
	}
	if stats.Backend == "" {
		t.Error("Backend is empty")
	}
}

func TestExactFallbackForNonAngularMetric(t *testing.T) {
	var captured []discover.Event
	events := discover.NewEvents(zerolog.Nop())
	events.Subscribe(func(ev discover.Event) { captured = append(captured, ev) })

	cfg := DefaultConfig(4)
	cfg.Backend = BackendAnnoy
	cfg.Metric = MetricEuclidean
	x, err := New(cfg, events, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if got := x.Stats().Backend; got != "exact" {
		t.Errorf("Backend = %q, want exact fallback", got)
	}

	found := false
	for _, ev := range captured {
		if ev.Kind == discover.EventExactFallback {
			found = true
		}
	}
	if !found {
		t.Error("expected EventExactFallback diagnostic")
	}

	// The fallback still serves correct euclidean results.
	if err := x.Build(testVectors()); err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	matches, err := x.Search([]float64{1, 0, 0, 0}, 1)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if matches[0].ContentID != 1 {
		t.Errorf("ContentID = %d, want 1", matches[0].ContentID)
	}
	if math.Abs(matches[0].Similarity-1) > 1e-9 {
		t.Errorf("Similarity = %f, want 1 (exp(-0))", matches[0].Similarity)
	}
}

func TestInvalidConstruction(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "zero dimension", cfg: Config{Dimension: 0}},
		{name: "unknown backend", cfg: Config{Dimension: 4, Backend: "hnsw"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, discover.NewEvents(zerolog.Nop()), zerolog.Nop())
			if !errors.Is(err, discover.ErrInvalidParameter) {
				t.Fatalf("New() error = %v, want ErrInvalidParameter", err)
			}
		})
	}
}
