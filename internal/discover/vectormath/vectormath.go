// Cinematch - Group Content Discovery and Ranking Engine
// Copyright 2026 K. Peters (kpeters)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kpeters/cinematch

// Package vectormath provides the dense-vector primitives the discovery
// core is built on: cosine similarity, normalization, exponential moving
// average updates, and batch similarity.
//
// Edge-case policy: zero-magnitude and non-finite vectors never produce
// NaN or Inf. Cosine against a zero vector is 0, and normalizing a zero
// vector returns it unchanged, so downstream scores stay well-defined.
package vectormath

import (
	"fmt"
	"math"

	"github.com/kpeters/cinematch/internal/discover"
)

// batchChunkSize bounds how many vectors a batch pass touches at once.
// Purely a cache-locality tuning knob; results are identical for any
// chunk size.
const batchChunkSize = 100

// Cosine returns the cosine similarity between a and b.
// Returns ErrDimensionMismatch if the lengths differ, and 0 if either
// vector has zero magnitude.
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", discover.ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// Normalize returns v scaled to unit length. A vector with zero or
// non-finite magnitude is returned unchanged to keep divide-by-zero from
// propagating NaNs. The input is never modified.
func Normalize(v []float64) []float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}

	mag := math.Sqrt(sum)
	if mag == 0 || math.IsInf(mag, 0) || math.IsNaN(mag) {
		return v
	}

	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / mag
	}
	return out
}

// UpdateEMA blends next into current with the given rate and returns the
// normalized result. A nil current returns Normalize(next): the first
// observation becomes the profile.
//
// Rate is expected in (0, 1); values outside that range are accepted but
// extrapolate instead of interpolating. Callers clamp.
func UpdateEMA(current, next []float64, rate float64) ([]float64, error) {
	if current == nil {
		return Normalize(next), nil
	}
	if len(current) != len(next) {
		return nil, fmt.Errorf("%w: %d vs %d", discover.ErrDimensionMismatch, len(current), len(next))
	}

	out := make([]float64, len(current))
	for i := range current {
		out[i] = (1-rate)*current[i] + rate*next[i]
	}
	return Normalize(out), nil
}

// BatchCosine computes the cosine similarity of query against every
// vector in vectors, preserving input order. Processing happens in
// fixed-size chunks for cache locality. Any dimension mismatch fails the
// whole call; partial results are never returned.
func BatchCosine(query []float64, vectors [][]float64) ([]float64, error) {
	out := make([]float64, len(vectors))

	for start := 0; start < len(vectors); start += batchChunkSize {
		end := start + batchChunkSize
		if end > len(vectors) {
			end = len(vectors)
		}

		for i := start; i < end; i++ {
			sim, err := Cosine(query, vectors[i])
			if err != nil {
				return nil, fmt.Errorf("vector %d: %w", i, err)
			}
			out[i] = sim
		}
	}

	return out, nil
}
