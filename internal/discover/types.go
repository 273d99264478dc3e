// Cinematch - Group Content Discovery and Ranking Engine
// Copyright 2026 K. Peters (kpeters)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kpeters/cinematch

package discover

import (
	"time"
)

// MediaType is the kind of content a candidate refers to.
type MediaType string

const (
	// MediaMovie is feature-length content.
	MediaMovie MediaType = "movie"
	// MediaTV is episodic content.
	MediaTV MediaType = "tv"
)

// Candidate is one item in a caller-supplied candidate pool.
// It is owned transiently by the caller for the duration of a single
// ranking request; the engine never persists it.
type Candidate struct {
	// ContentID is the unique content identifier.
	ContentID int64 `json:"content_id"`

	// Title is the content title (presentation only).
	Title string `json:"title,omitempty"`

	// MediaType is the content type (movie, tv).
	MediaType MediaType `json:"media_type"`

	// RelevanceScore is the raw query similarity in [0, 1].
	RelevanceScore float64 `json:"relevance_score"`

	// Embedding is the dense vector for this item.
	// Nil means the embedding could not be resolved; the item is then
	// excluded from similarity-based steps rather than crashing them.
	Embedding []float64 `json:"embedding,omitempty"`

	// Genres is the set of genre tags, if known.
	Genres []string `json:"genres,omitempty"`

	// ReleaseDate is the original release date, if known.
	ReleaseDate *time.Time `json:"release_date,omitempty"`

	// RuntimeMinutes is the runtime, if known. Zero means unknown.
	RuntimeMinutes int `json:"runtime_minutes,omitempty"`

	// Popularity is a raw popularity signal (vote counts, play counts).
	Popularity float64 `json:"popularity,omitempty"`
}

// ReleaseYear returns the release year, or zero if unknown.
func (c *Candidate) ReleaseYear() int {
	if c.ReleaseDate == nil {
		return 0
	}
	return c.ReleaseDate.Year()
}

// ScoredCandidate is a Candidate with the per-axis score breakdown
// produced by the ranking step.
type ScoredCandidate struct {
	// Candidate is the underlying item.
	Candidate Candidate `json:"candidate"`

	// SimilarityScore is the raw query similarity.
	SimilarityScore float64 `json:"similarity_score"`

	// PersonalizationScore is the cosine similarity to the member's
	// preference vector, or the neutral 0.5 when no vector exists.
	PersonalizationScore float64 `json:"personalization_score"`

	// RecencyScore decays exponentially with content age, always in (0, 1].
	RecencyScore float64 `json:"recency_score"`

	// PopularityScore is popularity clamped against a fixed ceiling.
	PopularityScore float64 `json:"popularity_score"`

	// FinalScore is the weighted combination used for ordering.
	FinalScore float64 `json:"final_score"`

	// Reason is an interpretable explanation for the recommendation.
	Reason string `json:"reason,omitempty"`
}

// MemberProfile describes one group member (or the single requesting
// user) for personalization and consensus scoring. Supplied per request;
// never persisted by this core.
type MemberProfile struct {
	// UserID identifies the member within the session.
	UserID string `json:"user_id"`

	// PreferenceVector is the member's taste embedding.
	// Nil means the member has no profile yet; scoring then uses the
	// neutral default rather than penalizing them.
	PreferenceVector []float64 `json:"preference_vector,omitempty"`

	// Weight is the member's relative influence (> 0, typically 1).
	Weight float64 `json:"weight"`

	// Confidence is how much signal backs the preference vector, in [0, 1].
	Confidence float64 `json:"confidence"`
}

// GroupCandidate is a candidate scored for a multi-member session.
// Created by the group ranking step, mutated in place as votes arrive,
// consumed once to pick a winner, then discarded by the caller.
type GroupCandidate struct {
	// Candidate is the underlying item.
	Candidate Candidate `json:"candidate"`

	// GroupScore blends the least-satisfied member with the weighted
	// average satisfaction (maximin/efficiency blend).
	GroupScore float64 `json:"group_score"`

	// MemberScores maps userID to that member's satisfaction in [0, 1].
	MemberScores map[string]float64 `json:"member_scores"`

	// MinSatisfaction is the lowest member satisfaction.
	MinSatisfaction float64 `json:"min_satisfaction"`

	// FairnessScore is 1 - Gini over member satisfactions, in [0, 1].
	FairnessScore float64 `json:"fairness_score"`

	// Votes maps userID to an explicit vote score (0-10 scale).
	Votes map[string]float64 `json:"votes,omitempty"`
}

// GroupContext carries session context for contextual boosts.
type GroupContext struct {
	// AvailableTimeMinutes is how long the group has to watch.
	// Zero means unknown; no runtime boost is applied.
	AvailableTimeMinutes int `json:"available_time_minutes,omitempty"`
}

// DiversityMetrics reports on the variety of a selected result set.
// It is diagnostic output only and never feeds back into selection.
type DiversityMetrics struct {
	// AverageSimilarity is the mean pairwise cosine similarity among
	// selected items (0 when fewer than two have embeddings).
	AverageSimilarity float64 `json:"average_similarity"`

	// DiversityScore is 1 - AverageSimilarity.
	DiversityScore float64 `json:"diversity_score"`

	// GenreCounts is the genre distribution of the selection.
	GenreCounts map[string]int `json:"genre_counts,omitempty"`

	// YearSpread is max release year minus min release year among
	// selected items with a known release date.
	YearSpread int `json:"year_spread"`
}

// Request is a single-user discovery request over a prepared pool.
type Request struct {
	// Candidates is the pool to rank. An empty pool yields an empty
	// response, not an error.
	Candidates []Candidate `json:"candidates"`

	// Profile is the requesting user's profile. Nil for anonymous users.
	Profile *MemberProfile `json:"profile,omitempty"`

	// Limit is the maximum number of results. Defaults to
	// Config.DefaultLimit if zero, capped at Config.MaxLimit.
	Limit int `json:"limit,omitempty"`

	// Diversify selects the post-ranking diversifier by name
	// ("mmr", "genre"). Empty means no diversification.
	Diversify string `json:"diversify,omitempty"`

	// RequestID is a unique identifier for tracing. Generated if empty.
	RequestID string `json:"request_id,omitempty"`
}

// Response is the ordered result of a discovery request.
type Response struct {
	// Items is the final ordered result set.
	Items []ScoredCandidate `json:"items"`

	// TotalCandidates is the pool size before ranking and filtering.
	TotalCandidates int `json:"total_candidates"`

	// Diversity holds selection variety metrics when a diversifier ran.
	Diversity *DiversityMetrics `json:"diversity,omitempty"`

	// Metadata contains timing and diagnostic information.
	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata contains timing and diagnostic information.
type ResponseMetadata struct {
	// RequestID is the unique request identifier.
	RequestID string `json:"request_id"`

	// Diversifier is the diversifier that ran, if any.
	Diversifier string `json:"diversifier,omitempty"`

	// LatencyMS is the total pipeline latency in milliseconds.
	LatencyMS int64 `json:"latency_ms"`

	// Timestamp is when the response was generated.
	Timestamp time.Time `json:"timestamp"`
}

// Ranker turns a candidate pool into a scored, descending-ordered list.
type Ranker interface {
	// Name returns the ranker identifier.
	Name() string

	// Rank scores every candidate and returns them ordered by FinalScore
	// descending. The input slice is not modified.
	Rank(candidates []Candidate, profile *MemberProfile, now time.Time) []ScoredCandidate

	// Explain produces a human-readable reason for one scored candidate.
	// Presentation only; it must never influence scores.
	Explain(sc ScoredCandidate) string
}

// Diversifier reorders and truncates a ranked list for variety.
type Diversifier interface {
	// Name returns the diversifier identifier (e.g. "mmr", "genre").
	Name() string

	// Select picks up to limit candidates from the ranked input.
	// Metrics may be nil when the algorithm does not report any.
	Select(candidates []Candidate, limit int) ([]Candidate, *DiversityMetrics, error)
}
