// Cinematch - Group Content Discovery and Ranking Engine
// Copyright 2026 K. Peters (kpeters)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kpeters/cinematch

package index

import (
	"fmt"

	"github.com/mariotoffia/goannoy/builder"
	"github.com/mariotoffia/goannoy/interfaces"
)

// annoyBackend is the approximate nearest-neighbor backend built on
// goannoy's angular-distance forest. The engine API is float64; goannoy
// stores float32, and the conversion happens here at the boundary.
//
// goannoy reports angular distance as sqrt(2 - 2cos). Distances are
// squared before leaving this backend so both backends speak the same
// 2(1 - cos) scale and the shared conversion (similarity = 1 - d/2)
// recovers the true cosine.
type annoyBackend struct {
	dimension int
	trees     int
	idx       interfaces.AnnoyIndex[float32, uint32]
}

func newAnnoyBackend(dimension, trees int) *annoyBackend {
	return &annoyBackend{dimension: dimension, trees: trees}
}

func (b *annoyBackend) name() string { return "annoy" }

func (b *annoyBackend) build(labels []uint32, vectors [][]float64) error {
	idx := builder.Index[float32, uint32]().
		AngularDistance(b.dimension).
		UseMultiWorkerPolicy().
		MmapIndexAllocator().
		Build()

	for i, v := range vectors {
		idx.AddItem(labels[i], toFloat32(v))
	}

	idx.Build(b.trees, -1)
	b.idx = idx
	return nil
}

func (b *annoyBackend) search(query []float64, k int) ([]uint32, []float64, error) {
	if b.idx == nil {
		return nil, nil, fmt.Errorf("annoy backend not built")
	}

	searchCtx := b.idx.CreateContext()
	ids, dists := b.idx.GetNnsByVector(toFloat32(query), k, -1, searchCtx)

	distances := make([]float64, len(dists))
	for i, d := range dists {
		// sqrt(2-2cos) -> 2(1-cos), the scale metricDistance uses.
		distances[i] = float64(d) * float64(d)
	}
	return ids, distances, nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
