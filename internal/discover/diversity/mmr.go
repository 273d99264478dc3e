// Cinematch - Group Content Discovery and Ranking Engine
// Copyright 2026 K. Peters (kpeters)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kpeters/cinematch

package diversity

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kpeters/cinematch/internal/discover"
	"github.com/kpeters/cinematch/internal/discover/vectormath"
)

// MMRConfig contains MMR selection parameters.
type MMRConfig struct {
	// Lambda balances relevance against diversity (1.0 = pure
	// relevance, 0.0 = pure diversity). Default: 0.85.
	Lambda float64 `json:"lambda" koanf:"lambda"`

	// Dimension is the expected embedding length. Candidates whose
	// embedding disagrees are dropped with a warning, not errored.
	// Zero accepts any consistent length.
	Dimension int `json:"dimension" koanf:"dimension"`
}

// DefaultMMRConfig returns the default MMR parameters.
func DefaultMMRConfig() MMRConfig {
	return MMRConfig{Lambda: 0.85}
}

// MMR implements Maximal Marginal Relevance selection over candidate
// embeddings.
//
// The MMR formula is:
//
//	MMR = argmax[lambda * relevance(i) - (1-lambda) * max(sim(i, s)) for s in selected]
//
// The single highest-relevance candidate seeds the selection
// unconditionally; diversity plays no role in picking the seed. Ties go
// to the first candidate in iteration order, so input order must be
// preserved for deterministic output.
//
// Reference:
// Carbonell, J., & Goldstein, J. (1998). "The Use of MMR, Diversity-Based
// Reranking for Reordering Documents and Producing Summaries." SIGIR 1998.
type MMR struct {
	cfg    MMRConfig
	events *discover.Events
	logger zerolog.Logger
}

// NewMMR creates an MMR selector. The config is taken as-is: lambda 0 is
// a valid (pure diversity) setting, so no zero-value defaulting happens
// here. Start from DefaultMMRConfig when defaults are wanted. Lambda
// outside [0, 1] is rejected at selection time.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewMMR(cfg MMRConfig, events *discover.Events, logger zerolog.Logger) *MMR {
	return &MMR{
		cfg:    cfg,
		events: events,
		logger: logger.With().Str("component", "diversity.mmr").Logger(),
	}
}

// Name returns the diversifier identifier.
func (m *MMR) Name() string { return "mmr" }

// Select runs greedy MMR selection until limit items are chosen or
// candidates are exhausted. Candidates without a usable embedding are
// dropped before selection with a warning event; an emptied pool yields
// an empty result, not an error.
func (m *MMR) Select(candidates []discover.Candidate, limit int) ([]discover.Candidate, *discover.DiversityMetrics, error) {
	if m.cfg.Lambda < 0 || m.cfg.Lambda > 1 {
		return nil, nil, fmt.Errorf("%w: lambda %f outside [0, 1]", discover.ErrInvalidParameter, m.cfg.Lambda)
	}
	if limit <= 0 {
		return nil, nil, fmt.Errorf("%w: limit must be > 0, got %d", discover.ErrInvalidParameter, limit)
	}

	pool := m.filterUsable(candidates)
	if len(pool) == 0 {
		return []discover.Candidate{}, &discover.DiversityMetrics{DiversityScore: 1}, nil
	}
	if limit > len(pool) {
		limit = len(pool)
	}

	lambda := m.cfg.Lambda

	// Seed: the single highest-relevance candidate, unconditionally.
	seedIdx := 0
	for i := 1; i < len(pool); i++ {
		if pool[i].RelevanceScore > pool[seedIdx].RelevanceScore {
			seedIdx = i
		}
	}

	selected := make([]discover.Candidate, 0, limit)
	selected = append(selected, pool[seedIdx])
	taken := map[int]struct{}{seedIdx: {}}

	for len(selected) < limit {
		bestIdx := -1
		bestScore := 0.0

		for i := range pool {
			if _, ok := taken[i]; ok {
				continue
			}

			maxSim := maxSimilarityToSelected(&pool[i], selected)
			score := lambda*pool[i].RelevanceScore - (1-lambda)*maxSim

			// Strict > keeps the first candidate in iteration order on
			// ties; no secondary sort key.
			if bestIdx < 0 || score > bestScore {
				bestIdx = i
				bestScore = score
			}
		}

		if bestIdx < 0 {
			break
		}
		selected = append(selected, pool[bestIdx])
		taken[bestIdx] = struct{}{}
	}

	return selected, computeMetrics(selected), nil
}

// filterUsable drops candidates whose embedding is absent or disagrees
// with the configured dimensionality.
func (m *MMR) filterUsable(candidates []discover.Candidate) []discover.Candidate {
	pool := make([]discover.Candidate, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		if c.Embedding == nil {
			m.events.Emit(discover.Event{
				Kind:      discover.EventMissingEmbedding,
				ContentID: c.ContentID,
				Detail:    "no embedding, dropped from diversity pool",
			})
			continue
		}
		if m.cfg.Dimension > 0 && len(c.Embedding) != m.cfg.Dimension {
			m.events.Emit(discover.Event{
				Kind:      discover.EventDimensionSkip,
				ContentID: c.ContentID,
				Detail:    fmt.Sprintf("embedding dimension %d, expected %d", len(c.Embedding), m.cfg.Dimension),
			})
			continue
		}
		pool = append(pool, *c)
	}
	return pool
}

// maxSimilarityToSelected brute-forces cosine similarity against every
// already-selected item. O(limit^2) across the greedy loop, accepted
// because limit is tens, not thousands.
func maxSimilarityToSelected(c *discover.Candidate, selected []discover.Candidate) float64 {
	maxSim := 0.0
	for i := range selected {
		sim, err := vectormath.Cosine(c.Embedding, selected[i].Embedding)
		if err != nil {
			continue // mismatched pairs contribute no redundancy
		}
		if sim > maxSim {
			maxSim = sim
		}
	}
	return maxSim
}

// computeMetrics reports on the variety of the selected set. Reporting
// only; nothing here feeds back into selection.
func computeMetrics(selected []discover.Candidate) *discover.DiversityMetrics {
	dm := &discover.DiversityMetrics{
		GenreCounts: make(map[string]int),
	}

	var simSum float64
	var pairs int
	minYear, maxYear := 0, 0

	for i := range selected {
		for _, g := range selected[i].Genres {
			dm.GenreCounts[g]++
		}
		if y := selected[i].ReleaseYear(); y > 0 {
			if minYear == 0 || y < minYear {
				minYear = y
			}
			if y > maxYear {
				maxYear = y
			}
		}
		for j := i + 1; j < len(selected); j++ {
			sim, err := vectormath.Cosine(selected[i].Embedding, selected[j].Embedding)
			if err != nil {
				continue
			}
			simSum += sim
			pairs++
		}
	}

	if pairs > 0 {
		dm.AverageSimilarity = simSum / float64(pairs)
	}
	dm.DiversityScore = 1 - dm.AverageSimilarity
	if maxYear > 0 {
		dm.YearSpread = maxYear - minYear
	}
	return dm
}

// Ensure MMR satisfies the pipeline interface.
var _ discover.Diversifier = (*MMR)(nil)
