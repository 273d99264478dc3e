// Cinematch - Group Content Discovery and Ranking Engine
// Copyright 2026 K. Peters (kpeters)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kpeters/cinematch

package group

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/kpeters/cinematch/internal/discover"
	"github.com/kpeters/cinematch/internal/discover/vectormath"
	"github.com/kpeters/cinematch/internal/metrics"
)

// neutralSatisfaction is used for members without a preference vector,
// mirroring the single-user personalization policy.
const neutralSatisfaction = 0.5

// Config contains consensus scoring parameters.
type Config struct {
	// FairnessThreshold drops candidates whose fairness falls below it.
	// A hard filter, not a penalty. Used when RankCandidates is called
	// with a negative threshold. Default: 0.6.
	FairnessThreshold float64 `json:"fairness_threshold" koanf:"fairness_threshold"`

	// MaximinWeight is the share of the group score carried by the
	// least-satisfied member; the rest is the weighted average.
	// Default: 0.6.
	MaximinWeight float64 `json:"maximin_weight" koanf:"maximin_weight"`

	// RuntimeBoost scales the runtime-fit contextual boost. Default: 0.2.
	RuntimeBoost float64 `json:"runtime_boost" koanf:"runtime_boost"`

	// DefaultRuntimeMinutes stands in for unknown runtimes. Default: 120.
	DefaultRuntimeMinutes int `json:"default_runtime_minutes" koanf:"default_runtime_minutes"`

	// VoteBlend is the share of the vote-resolution score carried by
	// explicit votes; the rest is the group score. Default: 0.7.
	VoteBlend float64 `json:"vote_blend" koanf:"vote_blend"`
}

// DefaultConfig returns the default consensus parameters.
func DefaultConfig() Config {
	return Config{
		FairnessThreshold:     0.6,
		MaximinWeight:         0.6,
		RuntimeBoost:          0.2,
		DefaultRuntimeMinutes: 120,
		VoteBlend:             0.7,
	}
}

// Score is the group-level scoring breakdown for one candidate.
type Score struct {
	// Group is the maximin/efficiency blend.
	Group float64 `json:"group"`

	// Members maps userID to that member's satisfaction.
	Members map[string]float64 `json:"members"`

	// MinSatisfaction is the lowest member satisfaction.
	MinSatisfaction float64 `json:"min_satisfaction"`
}

// Engine computes group consensus. Stateless apart from configuration;
// safe for concurrent use across independent sessions.
type Engine struct {
	cfg    Config
	events *discover.Events
	logger zerolog.Logger
}

// New creates a consensus engine. Zero-valued config fields get defaults.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg Config, events *discover.Events, logger zerolog.Logger) *Engine {
	def := DefaultConfig()
	if cfg.FairnessThreshold == 0 {
		cfg.FairnessThreshold = def.FairnessThreshold
	}
	if cfg.MaximinWeight == 0 {
		cfg.MaximinWeight = def.MaximinWeight
	}
	if cfg.RuntimeBoost == 0 {
		cfg.RuntimeBoost = def.RuntimeBoost
	}
	if cfg.DefaultRuntimeMinutes == 0 {
		cfg.DefaultRuntimeMinutes = def.DefaultRuntimeMinutes
	}
	if cfg.VoteBlend == 0 {
		cfg.VoteBlend = def.VoteBlend
	}

	return &Engine{
		cfg:    cfg,
		events: events,
		logger: logger.With().Str("component", "group").Logger(),
	}
}

// Centroid returns the confidence-and-weight-weighted average of all
// members' preference vectors, unit-normalized, or nil if no member has
// a vector. Diagnostic output: per-candidate scoring never goes through
// the centroid.
func (e *Engine) Centroid(members []discover.MemberProfile) []float64 {
	var sum []float64
	var total float64

	for i := range members {
		m := &members[i]
		if m.PreferenceVector == nil {
			continue
		}
		w := memberWeight(m) * m.Confidence
		if w <= 0 {
			continue
		}
		if sum == nil {
			sum = make([]float64, len(m.PreferenceVector))
		}
		if len(m.PreferenceVector) != len(sum) {
			continue // mismatched vectors contribute nothing
		}
		for j, x := range m.PreferenceVector {
			sum[j] += w * x
		}
		total += w
	}

	if sum == nil || total == 0 {
		return nil
	}
	for j := range sum {
		sum[j] /= total
	}
	return vectormath.Normalize(sum)
}

// Satisfaction is the cosine similarity between the candidate embedding
// and the member's preference vector, or the neutral 0.5 when the member
// has no vector (or the pair cannot be compared).
func (e *Engine) Satisfaction(embedding []float64, m *discover.MemberProfile) float64 {
	if m.PreferenceVector == nil || embedding == nil {
		return neutralSatisfaction
	}
	sim, err := vectormath.Cosine(embedding, m.PreferenceVector)
	if err != nil {
		return neutralSatisfaction
	}
	return sim
}

// GroupScore blends the least-satisfied member with the weighted average
// satisfaction across members.
func (e *Engine) GroupScore(embedding []float64, members []discover.MemberProfile) Score {
	s := Score{Members: make(map[string]float64, len(members))}
	if len(members) == 0 {
		return s
	}

	minSat := math.Inf(1)
	var weightedSum, weightTotal float64

	for i := range members {
		m := &members[i]
		sat := e.Satisfaction(embedding, m)
		s.Members[m.UserID] = sat

		if sat < minSat {
			minSat = sat
		}
		w := memberWeight(m)
		weightedSum += w * sat
		weightTotal += w
	}

	avg := weightedSum / weightTotal
	s.MinSatisfaction = minSat
	s.Group = e.cfg.MaximinWeight*minSat + (1-e.cfg.MaximinWeight)*avg
	return s
}

// Fairness is 1 minus the Gini coefficient over member satisfactions:
// perfectly equal satisfaction scores 1. Zero or one members are
// perfectly fair by definition; an all-zero score set is maximally
// unfair (0).
func (e *Engine) Fairness(memberScores map[string]float64) float64 {
	n := len(memberScores)
	if n <= 1 {
		return 1.0
	}

	// Stable iteration: Gini is symmetric so order does not change the
	// value, but keep it deterministic anyway.
	scores := make([]float64, 0, n)
	for _, s := range memberScores {
		scores = append(scores, s)
	}
	sort.Float64s(scores)

	var sum, diffSum float64
	for _, s := range scores {
		sum += s
	}
	if sum == 0 {
		return 0
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			diffSum += math.Abs(scores[i] - scores[j])
		}
	}

	gini := diffSum / (2 * float64(n) * sum)
	return 1 - gini
}

// RankCandidates scores every candidate for the group, drops any whose
// fairness falls below threshold, and returns the rest ordered by group
// score descending (stable). A negative threshold selects the configured
// default; a threshold above 1 is an error.
func (e *Engine) RankCandidates(candidates []discover.Candidate, members []discover.MemberProfile, threshold float64) ([]discover.GroupCandidate, error) {
	if threshold < 0 {
		threshold = e.cfg.FairnessThreshold
	}
	if threshold > 1 {
		return nil, fmt.Errorf("%w: fairness threshold %f outside [0, 1]", discover.ErrInvalidParameter, threshold)
	}

	metrics.GroupRankingsTotal.Inc()

	out := make([]discover.GroupCandidate, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		if c.Embedding == nil {
			e.events.Emit(discover.Event{
				Kind:      discover.EventMissingEmbedding,
				ContentID: c.ContentID,
				Detail:    "no embedding, all members scored neutral",
			})
		}

		score := e.GroupScore(c.Embedding, members)
		fairness := e.Fairness(score.Members)
		if fairness < threshold {
			continue
		}

		out = append(out, discover.GroupCandidate{
			Candidate:       *c,
			GroupScore:      score.Group,
			MemberScores:    score.Members,
			MinSatisfaction: score.MinSatisfaction,
			FairnessScore:   fairness,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].GroupScore > out[j].GroupScore
	})

	e.logger.Debug().
		Int("candidates", len(candidates)).
		Int("kept", len(out)).
		Int("members", len(members)).
		Msg("group candidates ranked")

	return out, nil
}

// ApplyContextBoosts multiplies group scores by a runtime-fit factor
// when the session has a known time budget, then re-sorts. A pure
// re-ranking step: it never removes candidates.
func (e *Engine) ApplyContextBoosts(candidates []discover.GroupCandidate, ctx discover.GroupContext) []discover.GroupCandidate {
	if ctx.AvailableTimeMinutes <= 0 {
		return candidates
	}

	available := float64(ctx.AvailableTimeMinutes)
	for i := range candidates {
		runtime := float64(candidates[i].Candidate.RuntimeMinutes)
		if runtime <= 0 {
			runtime = float64(e.cfg.DefaultRuntimeMinutes)
		}

		fit := 1 - math.Abs(runtime-available)/available
		if fit < 0 {
			fit = 0
		}
		candidates[i].GroupScore *= 1 + fit*e.cfg.RuntimeBoost
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].GroupScore > candidates[j].GroupScore
	})
	return candidates
}

// ResolveVotes merges explicit votes (userID -> contentID -> 0-10 score)
// into each candidate and returns the winner by blended vote score, or
// nil if the candidate list was empty. Candidates without votes fall
// back exactly to their group score.
func (e *Engine) ResolveVotes(candidates []discover.GroupCandidate, votes map[string]map[int64]float64) *discover.GroupCandidate {
	if len(candidates) == 0 {
		return nil
	}

	for i := range candidates {
		c := &candidates[i]
		for userID, byContent := range votes {
			v, ok := byContent[c.Candidate.ContentID]
			if !ok {
				continue
			}
			if c.Votes == nil {
				c.Votes = make(map[string]float64)
			}
			c.Votes[userID] = v
		}
	}

	best := 0
	bestScore := math.Inf(-1)
	for i := range candidates {
		score := e.voteScore(&candidates[i])
		if score > bestScore {
			best = i
			bestScore = score
		}
	}
	return &candidates[best]
}

// voteScore blends the group score with the mean explicit vote on a
// 0-10 scale. No votes means the group score stands alone.
func (e *Engine) voteScore(c *discover.GroupCandidate) float64 {
	if len(c.Votes) == 0 {
		return c.GroupScore
	}

	var sum float64
	for _, v := range c.Votes {
		sum += v
	}
	mean := sum / float64(len(c.Votes))
	return (1-e.cfg.VoteBlend)*c.GroupScore + e.cfg.VoteBlend*(mean/10)
}

// Explain produces a human-readable consensus summary. Presentation
// only.
func (e *Engine) Explain(c *discover.GroupCandidate) string {
	if c.FairnessScore > 0.9 {
		return "a pick everyone should enjoy equally"
	}

	var sum float64
	for _, s := range c.MemberScores {
		sum += s
	}
	if n := len(c.MemberScores); n > 0 && sum/float64(n) > 0.7 {
		return "a great match for most of the group"
	}
	if c.FairnessScore > 0.7 {
		return "a fair compromise for the group"
	}
	return "a balanced choice for the group"
}

// memberWeight returns the member's influence, defaulting to 1 for
// unset or non-positive weights.
func memberWeight(m *discover.MemberProfile) float64 {
	if m.Weight <= 0 {
		return 1
	}
	return m.Weight
}
