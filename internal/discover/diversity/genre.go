// Cinematch - Group Content Discovery and Ranking Engine
// Copyright 2026 K. Peters (kpeters)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kpeters/cinematch

package diversity

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/kpeters/cinematch/internal/discover"
)

// GenreConfig contains genre-quota parameters.
type GenreConfig struct {
	// MinPerGenre is the minimum desired per genre. Falling short is a
	// warning, never an error: the engine does not fabricate items.
	// Default: 1.
	MinPerGenre int `json:"min_per_genre" koanf:"min_per_genre"`

	// MaxPerGenre caps how many selections a genre may contribute.
	// Default: 5.
	MaxPerGenre int `json:"max_per_genre" koanf:"max_per_genre"`

	// Enforce enables the quota round-robin. When false, selection is a
	// plain truncation to limit.
	Enforce bool `json:"enforce" koanf:"enforce"`
}

// DefaultGenreConfig returns the default quota parameters.
func DefaultGenreConfig() GenreConfig {
	return GenreConfig{MinPerGenre: 1, MaxPerGenre: 5, Enforce: true}
}

// GenreQuota diversifies a ranked list by round-robining across genres.
// A candidate with N genres appears in N genre groups and counts toward
// each group's quota (see the package comment on double-counting).
type GenreQuota struct {
	cfg    GenreConfig
	events *discover.Events
	logger zerolog.Logger
}

// NewGenreQuota creates a genre-quota diversifier. Zero-valued quota
// fields get defaults.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewGenreQuota(cfg GenreConfig, events *discover.Events, logger zerolog.Logger) *GenreQuota {
	if cfg.MinPerGenre <= 0 {
		cfg.MinPerGenre = 1
	}
	if cfg.MaxPerGenre <= 0 {
		cfg.MaxPerGenre = 5
	}
	return &GenreQuota{
		cfg:    cfg,
		events: events,
		logger: logger.With().Str("component", "diversity.genre").Logger(),
	}
}

// Name returns the diversifier identifier.
func (g *GenreQuota) Name() string { return "genre" }

// Select round-robins across genre groups sorted by relevance until
// limit is reached or no genre can contribute further. A selected-ID set
// guarantees no item appears twice even though multi-genre items sit in
// several groups.
func (g *GenreQuota) Select(candidates []discover.Candidate, limit int) ([]discover.Candidate, *discover.DiversityMetrics, error) {
	if limit <= 0 {
		return nil, nil, fmt.Errorf("%w: limit must be > 0, got %d", discover.ErrInvalidParameter, limit)
	}

	if !g.cfg.Enforce {
		if len(candidates) > limit {
			candidates = candidates[:limit]
		}
		return candidates, nil, nil
	}

	// Group by genre, keeping a stable genre order (first appearance).
	groups := make(map[string][]discover.Candidate)
	var genreOrder []string
	for i := range candidates {
		for _, genre := range candidates[i].Genres {
			if _, ok := groups[genre]; !ok {
				genreOrder = append(genreOrder, genre)
			}
			groups[genre] = append(groups[genre], candidates[i])
		}
	}

	for _, genre := range genreOrder {
		group := groups[genre]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].RelevanceScore > group[j].RelevanceScore
		})
	}

	selected := make([]discover.Candidate, 0, limit)
	selectedIDs := make(map[int64]struct{})
	genreCount := make(map[string]int)
	cursor := make(map[string]int)

	for len(selected) < limit {
		progressed := false
		for _, genre := range genreOrder {
			if len(selected) >= limit {
				break
			}
			if genreCount[genre] >= g.cfg.MaxPerGenre {
				continue
			}

			group := groups[genre]
			// Advance past already-selected items; a multi-genre item
			// selected elsewhere still counts toward this quota.
			for cursor[genre] < len(group) && genreCount[genre] < g.cfg.MaxPerGenre {
				c := group[cursor[genre]]
				cursor[genre]++
				if _, dup := selectedIDs[c.ContentID]; dup {
					genreCount[genre]++
					continue
				}
				selected = append(selected, c)
				selectedIDs[c.ContentID] = struct{}{}
				genreCount[genre]++
				progressed = true
				break
			}
		}
		if !progressed {
			break
		}
	}

	for _, genre := range genreOrder {
		if genreCount[genre] < g.cfg.MinPerGenre {
			g.events.Emit(discover.Event{
				Kind:   discover.EventGenreUnderQuota,
				Detail: fmt.Sprintf("genre %q finished with %d of minimum %d", genre, genreCount[genre], g.cfg.MinPerGenre),
			})
		}
	}

	return selected, nil, nil
}

// Ensure GenreQuota satisfies the pipeline interface.
var _ discover.Diversifier = (*GenreQuota)(nil)
