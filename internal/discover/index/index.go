// Cinematch - Group Content Discovery and Ranking Engine
// Copyright 2026 K. Peters (kpeters)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kpeters/cinematch

package index

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kpeters/cinematch/internal/discover"
	"github.com/kpeters/cinematch/internal/metrics"
)

// Metric selects the similarity metric for the index.
type Metric string

const (
	// MetricCosine uses angular/cosine similarity (the default).
	MetricCosine Metric = "cosine"
	// MetricEuclidean uses L2 distance with exponential conversion.
	MetricEuclidean Metric = "euclidean"
	// MetricDot uses the raw inner product, clamped to [0, 1].
	MetricDot Metric = "dot"
)

// Backend selects the search strategy at construction time.
type Backend string

const (
	// BackendAuto prefers the approximate backend when it can serve the
	// configured metric, otherwise falls back to exact.
	BackendAuto Backend = "auto"
	// BackendAnnoy forces the approximate backend.
	BackendAnnoy Backend = "annoy"
	// BackendExact forces the brute-force linear scan.
	BackendExact Backend = "exact"
)

// Config contains index construction parameters.
type Config struct {
	// Dimension is the required embedding length. Must be > 0.
	Dimension int `json:"dimension" koanf:"dimension"`

	// Metric is the similarity metric. Default: cosine.
	Metric Metric `json:"metric" koanf:"metric"`

	// Backend selects the search strategy. Default: auto.
	Backend Backend `json:"backend" koanf:"backend"`

	// Trees is the annoy forest size. More trees give better recall at
	// higher build cost. Default: 10.
	Trees int `json:"trees" koanf:"trees"`

	// StalenessThreshold is the mutation ratio at which a rebuild is
	// advised. Default: 0.25.
	StalenessThreshold float64 `json:"staleness_threshold" koanf:"staleness_threshold"`
}

// DefaultConfig returns the default index configuration for the given
// embedding dimensionality.
func DefaultConfig(dimension int) Config {
	return Config{
		Dimension:          dimension,
		Metric:             MetricCosine,
		Backend:            BackendAuto,
		Trees:              10,
		StalenessThreshold: 0.25,
	}
}

// Match is one search result.
type Match struct {
	// ContentID is the caller-supplied content identifier.
	ContentID int64 `json:"content_id"`

	// Similarity is the metric-converted similarity score.
	Similarity float64 `json:"similarity"`

	// Distance is the raw metric distance the similarity was derived from.
	Distance float64 `json:"distance"`
}

// Stats is a point-in-time snapshot of index state. Pure read.
type Stats struct {
	Count          int     `json:"count"`
	Dimension      int     `json:"dimension"`
	Metric         Metric  `json:"metric"`
	Backend        string  `json:"backend"`
	Built          bool    `json:"built"`
	Generation     uint64  `json:"generation"`
	LastSearchMS   float64 `json:"last_search_ms"`
	AvgSearchMS    float64 `json:"avg_search_ms"`
	StalenessRatio float64 `json:"staleness_ratio"`
	RebuildAdvised bool    `json:"rebuild_advised"`
}

// Index maps caller-supplied content IDs to stable integer labels and
// answers k-nearest-neighbor queries through the configured backend.
//
// The label arena is append-only between builds: labels are never
// reassigned, and the label-to-contentID mapping stays a bijection for
// the lifetime of a generation. Build resets the arena and bumps the
// generation counter.
type Index struct {
	cfg    Config
	events *discover.Events
	logger zerolog.Logger

	mu        sync.RWMutex
	backend   searcher
	labelToID map[uint32]int64
	idToLabel map[int64]uint32
	vectors   map[uint32][]float64
	pending   []uint32 // labels added since the last build, in discovery order
	nextLabel uint32
	built     bool

	generation     uint64
	builtCount     int
	mutations      int
	removedCount   int
	rebuildAdvised bool

	statsMu     sync.Mutex
	searchCount int64
	lastSearch  time.Duration
	totalSearch time.Duration
}

// New creates an index. A fast backend that cannot serve the configured
// metric is not an error: the index silently selects the exact scan and
// emits an EventExactFallback diagnostic.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg Config, events *discover.Events, logger zerolog.Logger) (*Index, error) {
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be > 0, got %d", discover.ErrInvalidParameter, cfg.Dimension)
	}
	if cfg.Metric == "" {
		cfg.Metric = MetricCosine
	}
	if cfg.Backend == "" {
		cfg.Backend = BackendAuto
	}
	if cfg.Trees <= 0 {
		cfg.Trees = 10
	}
	if cfg.StalenessThreshold <= 0 {
		cfg.StalenessThreshold = 0.25
	}

	x := &Index{
		cfg:       cfg,
		events:    events,
		logger:    logger.With().Str("component", "index").Logger(),
		labelToID: make(map[uint32]int64),
		idToLabel: make(map[int64]uint32),
		vectors:   make(map[uint32][]float64),
	}

	switch cfg.Backend {
	case BackendExact:
		x.backend = newExactBackend(cfg.Metric)
	case BackendAnnoy, BackendAuto:
		if cfg.Metric == MetricCosine {
			x.backend = newAnnoyBackend(cfg.Dimension, cfg.Trees)
		} else {
			// goannoy serves angular distance only; other metrics go
			// through the linear scan.
			x.backend = newExactBackend(cfg.Metric)
			events.Emit(discover.Event{
				Kind:   discover.EventExactFallback,
				Detail: fmt.Sprintf("annoy backend unavailable for metric %q, using exact scan", cfg.Metric),
			})
		}
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", discover.ErrInvalidParameter, cfg.Backend)
	}

	x.logger.Info().
		Str("backend", x.backend.name()).
		Str("metric", string(cfg.Metric)).
		Int("dimension", cfg.Dimension).
		Msg("index created")

	return x, nil
}

// Build replaces the index contents with the given embeddings, resets
// the label arena, and bumps the generation counter. Labels are assigned
// in ascending contentID order so repeated builds over the same corpus
// are deterministic.
func (x *Index) Build(embeddings map[int64][]float64) error {
	ids := make([]int64, 0, len(embeddings))
	for id := range embeddings {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if len(embeddings[id]) != x.cfg.Dimension {
			return fmt.Errorf("%w: content %d has dimension %d, index requires %d",
				discover.ErrDimensionMismatch, id, len(embeddings[id]), x.cfg.Dimension)
		}
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	x.labelToID = make(map[uint32]int64, len(ids))
	x.idToLabel = make(map[int64]uint32, len(ids))
	x.vectors = make(map[uint32][]float64, len(ids))
	x.pending = nil
	x.nextLabel = 0

	labels := make([]uint32, len(ids))
	vectors := make([][]float64, len(ids))
	for i, id := range ids {
		label := x.nextLabel
		x.nextLabel++
		x.labelToID[label] = id
		x.idToLabel[id] = label
		x.vectors[label] = embeddings[id]
		labels[i] = label
		vectors[i] = embeddings[id]
	}

	if err := x.backend.build(labels, vectors); err != nil {
		// The approximate backend failing to build is a supported
		// configuration, not an error: degrade to the exact scan.
		x.events.Emit(discover.Event{
			Kind:   discover.EventExactFallback,
			Detail: fmt.Sprintf("backend build failed (%v), using exact scan", err),
		})
		x.backend = newExactBackend(x.cfg.Metric)
		if err := x.backend.build(labels, vectors); err != nil {
			return fmt.Errorf("exact backend build: %w", err)
		}
	}

	x.built = true
	x.generation++
	x.builtCount = len(ids)
	x.mutations = 0
	x.removedCount = 0
	x.rebuildAdvised = false

	metrics.IndexSize.Set(float64(len(ids)))
	metrics.IndexRebuilds.Inc()

	x.logger.Info().
		Int("count", len(ids)).
		Uint64("generation", x.generation).
		Str("backend", x.backend.name()).
		Msg("index built")

	return nil
}

// Search returns the k most similar content IDs to the query vector,
// ordered by descending similarity with stable ties.
func (x *Index) Search(query []float64, k int) ([]Match, error) {
	return x.search(query, k, math.Inf(-1))
}

// SearchWithThreshold is Search with a minimum similarity: results below
// threshold are dropped, not zero-filled, so fewer than k matches may
// come back.
func (x *Index) SearchWithThreshold(query []float64, k int, threshold float64) ([]Match, error) {
	return x.search(query, k, threshold)
}

func (x *Index) search(query []float64, k int, threshold float64) ([]Match, error) {
	start := time.Now()

	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be > 0, got %d", discover.ErrInvalidParameter, k)
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	if !x.built {
		return nil, discover.ErrIndexNotBuilt
	}
	if len(query) != x.cfg.Dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, index requires %d",
			discover.ErrDimensionMismatch, len(query), x.cfg.Dimension)
	}

	// Overfetch to cover labels removed since the last build; they are
	// masked out below.
	fetch := k + x.removedCount
	if fetch > x.builtCount {
		fetch = x.builtCount
	}

	var (
		labels    []uint32
		distances []float64
		err       error
	)
	if fetch > 0 {
		labels, distances, err = x.backend.search(query, fetch)
		if err != nil {
			return nil, fmt.Errorf("backend search: %w", err)
		}
	}

	matches := make([]Match, 0, len(labels)+len(x.pending))
	for i, label := range labels {
		id, ok := x.labelToID[label]
		if !ok {
			continue // removed since build
		}
		sim, dist := x.toSimilarity(distances[i])
		matches = append(matches, Match{ContentID: id, Similarity: sim, Distance: dist})
	}

	// Vectors added since the last build are not in the backend yet;
	// serve them through a linear top-up scan until the next rebuild.
	for _, label := range x.pending {
		id, ok := x.labelToID[label]
		if !ok {
			continue
		}
		d, err := metricDistance(x.cfg.Metric, query, x.vectors[label])
		if err != nil {
			return nil, fmt.Errorf("pending scan content %d: %w", id, err)
		}
		sim, dist := x.toSimilarity(d)
		matches = append(matches, Match{ContentID: id, Similarity: sim, Distance: dist})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	out := make([]Match, 0, k)
	for _, m := range matches {
		if m.Similarity < threshold {
			continue
		}
		out = append(out, m)
		if len(out) == k {
			break
		}
	}

	elapsed := time.Since(start)
	x.statsMu.Lock()
	x.searchCount++
	x.lastSearch = elapsed
	x.totalSearch += elapsed
	x.statsMu.Unlock()

	metrics.SearchesTotal.WithLabelValues(x.backend.name()).Inc()
	metrics.SearchDuration.WithLabelValues(x.backend.name()).Observe(elapsed.Seconds())

	return out, nil
}

// Add indexes one new vector incrementally. Re-adding an existing
// contentID is a no-op with a warning event, never an update.
func (x *Index) Add(contentID int64, embedding []float64) error {
	if len(embedding) != x.cfg.Dimension {
		return fmt.Errorf("%w: content %d has dimension %d, index requires %d",
			discover.ErrDimensionMismatch, contentID, len(embedding), x.cfg.Dimension)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if _, exists := x.idToLabel[contentID]; exists {
		x.events.Emit(discover.Event{
			Kind:      discover.EventDuplicateAdd,
			ContentID: contentID,
			Detail:    "content already indexed, add ignored",
		})
		return nil
	}

	label := x.nextLabel
	x.nextLabel++
	x.labelToID[label] = contentID
	x.idToLabel[contentID] = label
	x.vectors[label] = embedding
	x.pending = append(x.pending, label)

	x.noteMutation()
	metrics.IndexSize.Set(float64(len(x.idToLabel)))
	return nil
}

// Remove unmaps a contentID. On the approximate backend the graph node
// survives until the next Build; it is masked out of search results.
// Removing an unknown contentID is a no-op.
func (x *Index) Remove(contentID int64) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	label, exists := x.idToLabel[contentID]
	if !exists {
		return nil
	}

	delete(x.idToLabel, contentID)
	delete(x.labelToID, label)
	delete(x.vectors, label)
	x.removedCount++

	x.noteMutation()
	metrics.IndexSize.Set(float64(len(x.idToLabel)))
	return nil
}

// noteMutation tracks churn since the last build and flags when a
// rebuild becomes advisable. The index never rebuilds automatically.
// Caller holds x.mu.
func (x *Index) noteMutation() {
	x.mutations++
	if x.rebuildAdvised || !x.built {
		return
	}
	ratio := float64(x.mutations) / float64(max(1, x.builtCount))
	if ratio >= x.cfg.StalenessThreshold {
		x.rebuildAdvised = true
		x.events.Emit(discover.Event{
			Kind:   discover.EventRebuildAdvised,
			Detail: fmt.Sprintf("mutation ratio %.2f crossed threshold %.2f", ratio, x.cfg.StalenessThreshold),
		})
	}
}

// Stats returns a snapshot of index state. Pure read, no side effects.
func (x *Index) Stats() Stats {
	x.mu.RLock()
	defer x.mu.RUnlock()
	x.statsMu.Lock()
	defer x.statsMu.Unlock()

	var avg float64
	if x.searchCount > 0 {
		avg = float64(x.totalSearch.Microseconds()) / float64(x.searchCount) / 1000.0
	}

	return Stats{
		Count:          len(x.idToLabel),
		Dimension:      x.cfg.Dimension,
		Metric:         x.cfg.Metric,
		Backend:        x.backend.name(),
		Built:          x.built,
		Generation:     x.generation,
		LastSearchMS:   float64(x.lastSearch.Microseconds()) / 1000.0,
		AvgSearchMS:    avg,
		StalenessRatio: float64(x.mutations) / float64(max(1, x.builtCount)),
		RebuildAdvised: x.rebuildAdvised,
	}
}

// toSimilarity converts a raw backend distance into the configured
// metric's similarity plus the distance to report. The dot backend
// negates the product so smaller sorts later; undo that here.
func (x *Index) toSimilarity(d float64) (similarity, distance float64) {
	switch x.cfg.Metric {
	case MetricEuclidean:
		return math.Exp(-d), d
	case MetricDot:
		raw := -d
		return math.Min(math.Max(raw, 0), 1), raw
	default: // MetricCosine
		return 1 - d/2, d
	}
}
