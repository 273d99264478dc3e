// Cinematch - Group Content Discovery and Ranking Engine
// Copyright 2026 K. Peters (kpeters)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kpeters/cinematch

// Package rank turns a candidate pool into a single ordering by blending
// raw similarity, personalization, recency, and popularity.
package rank

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kpeters/cinematch/internal/discover"
	"github.com/kpeters/cinematch/internal/discover/vectormath"
)

// neutralScore is used when a signal is missing: anonymous users get a
// neutral personalization instead of a systematic penalty, and undated
// items get a neutral recency.
const neutralScore = 0.5

// recencyHalfLifeYears controls the exponential age decay. Recency is
// exp(-ageYears/10): always in (0, 1], never exactly 0.
const recencyHalfLifeYears = 10.0

// Config contains scoring weights and normalization ceilings.
// Weights are deliberately not required to sum to 1, so callers can
// boost a single axis without renormalizing the rest.
type Config struct {
	// SimilarityWeight scales the raw query similarity. Default: 0.5.
	SimilarityWeight float64 `json:"similarity_weight" koanf:"similarity_weight"`

	// PersonalWeight scales preference-vector similarity. Default: 0.25.
	PersonalWeight float64 `json:"personal_weight" koanf:"personal_weight"`

	// RecencyWeight scales the age decay. Default: 0.15.
	RecencyWeight float64 `json:"recency_weight" koanf:"recency_weight"`

	// PopularityWeight scales the clamped popularity. Default: 0.1.
	PopularityWeight float64 `json:"popularity_weight" koanf:"popularity_weight"`

	// MaxPopularity is the clamp ceiling for raw popularity. This is a
	// plain clamp, not a percentile normalization, so scores are
	// sensitive to the chosen ceiling. Default: 1000.
	MaxPopularity float64 `json:"max_popularity" koanf:"max_popularity"`
}

// DefaultConfig returns the default scoring weights.
func DefaultConfig() Config {
	return Config{
		SimilarityWeight: 0.5,
		PersonalWeight:   0.25,
		RecencyWeight:    0.15,
		PopularityWeight: 0.1,
		MaxPopularity:    1000,
	}
}

// Reranker scores candidate pools. Stateless apart from configuration;
// safe for concurrent use.
type Reranker struct {
	cfg    Config
	events *discover.Events
	logger zerolog.Logger
}

// New creates a reranker. Zero-valued config fields get defaults.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg Config, events *discover.Events, logger zerolog.Logger) *Reranker {
	def := DefaultConfig()
	if cfg.SimilarityWeight == 0 {
		cfg.SimilarityWeight = def.SimilarityWeight
	}
	if cfg.PersonalWeight == 0 {
		cfg.PersonalWeight = def.PersonalWeight
	}
	if cfg.RecencyWeight == 0 {
		cfg.RecencyWeight = def.RecencyWeight
	}
	if cfg.PopularityWeight == 0 {
		cfg.PopularityWeight = def.PopularityWeight
	}
	if cfg.MaxPopularity <= 0 {
		cfg.MaxPopularity = def.MaxPopularity
	}

	return &Reranker{
		cfg:    cfg,
		events: events,
		logger: logger.With().Str("component", "rank").Logger(),
	}
}

// Name returns the ranker identifier.
func (r *Reranker) Name() string { return "weighted" }

// Rank scores every candidate and returns them ordered by FinalScore
// descending. Ties keep input order (stable sort). The input slice is
// not modified.
func (r *Reranker) Rank(candidates []discover.Candidate, profile *discover.MemberProfile, now time.Time) []discover.ScoredCandidate {
	scored := make([]discover.ScoredCandidate, len(candidates))
	for i := range candidates {
		scored[i] = r.score(&candidates[i], profile, now)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].FinalScore > scored[j].FinalScore
	})
	return scored
}

func (r *Reranker) score(c *discover.Candidate, profile *discover.MemberProfile, now time.Time) discover.ScoredCandidate {
	sc := discover.ScoredCandidate{
		Candidate:       *c,
		SimilarityScore: c.RelevanceScore,
	}

	sc.PersonalizationScore = r.personalization(c, profile)
	sc.RecencyScore = r.recency(c, now)
	sc.PopularityScore = math.Min(c.Popularity/r.cfg.MaxPopularity, 1)

	sc.FinalScore = r.cfg.SimilarityWeight*sc.SimilarityScore +
		r.cfg.PersonalWeight*sc.PersonalizationScore +
		r.cfg.RecencyWeight*sc.RecencyScore +
		r.cfg.PopularityWeight*sc.PopularityScore

	return sc
}

// personalization is the cosine similarity between the item embedding
// and the member's preference vector. Missing either side falls back to
// the neutral 0.5 so anonymous users and unembedded items are not
// systematically penalized.
func (r *Reranker) personalization(c *discover.Candidate, profile *discover.MemberProfile) float64 {
	if profile == nil || profile.PreferenceVector == nil {
		return neutralScore
	}
	if c.Embedding == nil {
		r.events.Emit(discover.Event{
			Kind:      discover.EventMissingEmbedding,
			ContentID: c.ContentID,
			Detail:    "no embedding, using neutral personalization",
		})
		return neutralScore
	}

	sim, err := vectormath.Cosine(c.Embedding, profile.PreferenceVector)
	if err != nil {
		r.events.Emit(discover.Event{
			Kind:      discover.EventDimensionSkip,
			ContentID: c.ContentID,
			Detail:    "embedding dimension disagrees with preference vector, using neutral personalization",
		})
		return neutralScore
	}
	return sim
}

// recency decays exponentially with content age in years.
func (r *Reranker) recency(c *discover.Candidate, now time.Time) float64 {
	if c.ReleaseDate == nil {
		return neutralScore
	}

	ageYears := float64(now.Year() - c.ReleaseDate.Year())
	if ageYears < 0 {
		ageYears = 0
	}
	return math.Exp(-ageYears / recencyHalfLifeYears)
}

// Explain maps score thresholds to a human-readable phrase list.
// Presentation only: it reads derived scores and must never influence
// FinalScore.
func (r *Reranker) Explain(sc discover.ScoredCandidate) string {
	var phrases []string

	if sc.SimilarityScore > 0.7 {
		phrases = append(phrases, "highly relevant to your request")
	}
	if sc.PersonalizationScore > 0.7 {
		phrases = append(phrases, "matches your preferences")
	}
	if sc.RecencyScore > 0.8 {
		phrases = append(phrases, "recently released")
	}
	if sc.PopularityScore > 0.7 {
		phrases = append(phrases, "popular choice")
	}

	if len(phrases) == 0 {
		return "matches your search"
	}
	return strings.Join(phrases, "; ")
}

// Ensure Reranker satisfies the pipeline interface.
var _ discover.Ranker = (*Reranker)(nil)
