// Cinematch - Group Content Discovery and Ranking Engine
// Copyright 2026 K. Peters (kpeters)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kpeters/cinematch

package index

import (
	"math"
	"sort"

	"github.com/kpeters/cinematch/internal/discover/vectormath"
)

// searcher is the backend strategy. Implementations return stable labels
// with raw distances; metric-specific distance-to-similarity conversion
// happens in the Index, so both backends produce identically shaped
// results.
type searcher interface {
	// name identifies the backend for stats and metrics labels.
	name() string

	// build replaces the backend's contents. labels[i] corresponds to
	// vectors[i]; vectors are already dimension-validated.
	build(labels []uint32, vectors [][]float64) error

	// search returns up to k (label, distance) pairs ordered by
	// increasing distance, ties in discovery order.
	search(query []float64, k int) ([]uint32, []float64, error)
}

// exactBackend is the brute-force linear scan. It is the correctness
// reference for the approximate backend and the only backend for
// non-angular metrics.
type exactBackend struct {
	metric  Metric
	labels  []uint32
	vectors [][]float64
}

func newExactBackend(metric Metric) *exactBackend {
	return &exactBackend{metric: metric}
}

func (b *exactBackend) name() string { return "exact" }

func (b *exactBackend) build(labels []uint32, vectors [][]float64) error {
	b.labels = labels
	b.vectors = vectors
	return nil
}

func (b *exactBackend) search(query []float64, k int) ([]uint32, []float64, error) {
	type hit struct {
		label    uint32
		distance float64
		order    int
	}

	hits := make([]hit, 0, len(b.vectors))
	for i, v := range b.vectors {
		d, err := metricDistance(b.metric, query, v)
		if err != nil {
			return nil, nil, err
		}
		hits = append(hits, hit{label: b.labels[i], distance: d, order: i})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].distance != hits[j].distance {
			return hits[i].distance < hits[j].distance
		}
		return hits[i].order < hits[j].order
	})

	if k > len(hits) {
		k = len(hits)
	}

	labels := make([]uint32, k)
	distances := make([]float64, k)
	for i := 0; i < k; i++ {
		labels[i] = hits[i].label
		distances[i] = hits[i].distance
	}
	return labels, distances, nil
}

// metricDistance computes the metric-specific raw distance so that the
// shared conversion in the Index recovers the intended similarity. Both
// the exact backend and the pending-vector top-up scan use it.
func metricDistance(metric Metric, query, v []float64) (float64, error) {
	switch metric {
	case MetricEuclidean:
		var sum float64
		for i := range query {
			d := query[i] - v[i]
			sum += d * d
		}
		return math.Sqrt(sum), nil
	case MetricDot:
		var dot float64
		for i := range query {
			dot += query[i] * v[i]
		}
		// Dot "distance" carries the raw product; smaller similarity
		// must sort later, so negate for ordering and restore on read.
		return -dot, nil
	default: // MetricCosine
		sim, err := vectormath.Cosine(query, v)
		if err != nil {
			return 0, err
		}
		return 2 * (1 - sim), nil
	}
}
