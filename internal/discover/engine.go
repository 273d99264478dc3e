// Cinematch - Group Content Discovery and Ranking Engine
// Copyright 2026 K. Peters (kpeters)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kpeters/cinematch

package discover

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kpeters/cinematch/internal/metrics"
)

// Engine coordinates the single-user discovery pipeline: rank the pool,
// optionally diversify, attach explanations. It holds no per-request
// state and is safe for concurrent use; independent requests may run
// fully in parallel.
type Engine struct {
	config *Config
	logger zerolog.Logger
	events *Events

	mu           sync.RWMutex
	ranker       Ranker
	diversifiers map[string]Diversifier

	requestCount atomic.Int64
	errorCount   atomic.Int64
}

// NewEngine creates a discovery engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, events *Events, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Engine{
		config:       cfg,
		logger:       logger.With().Str("component", "discover").Logger(),
		events:       events,
		diversifiers: make(map[string]Diversifier),
	}, nil
}

// SetRanker installs the ranking stage.
func (e *Engine) SetRanker(r Ranker) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.ranker = r
	e.logger.Info().Str("ranker", r.Name()).Msg("registered ranker")
}

// RegisterDiversifier adds a diversifier selectable by Request.Diversify.
func (e *Engine) RegisterDiversifier(d Diversifier) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.diversifiers[d.Name()] = d
	e.logger.Info().Str("diversifier", d.Name()).Msg("registered diversifier")
}

// Discover runs the pipeline for one request. An empty candidate pool
// returns an empty response, not an error.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Discover(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	e.requestCount.Add(1)
	metrics.RankRequestsTotal.Inc()

	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	limit := req.Limit
	if limit <= 0 {
		limit = e.config.DefaultLimit
	}
	if limit > e.config.MaxLimit {
		limit = e.config.MaxLimit
	}

	e.mu.RLock()
	ranker := e.ranker
	diversifier := e.diversifiers[req.Diversify]
	e.mu.RUnlock()

	if ranker == nil {
		e.errorCount.Add(1)
		return nil, fmt.Errorf("%w: no ranker registered", ErrInvalidParameter)
	}
	if req.Diversify != "" && diversifier == nil {
		e.errorCount.Add(1)
		return nil, fmt.Errorf("%w: unknown diversifier %q", ErrInvalidParameter, req.Diversify)
	}

	scored := ranker.Rank(req.Candidates, req.Profile, time.Now())

	var divMetrics *DiversityMetrics
	if diversifier != nil {
		selected, dm, err := diversifier.Select(rankedPool(scored), limit)
		if err != nil {
			e.errorCount.Add(1)
			return nil, fmt.Errorf("diversify %s: %w", diversifier.Name(), err)
		}
		scored = reorderScored(scored, selected)
		divMetrics = dm
	} else if len(scored) > limit {
		scored = scored[:limit]
	}

	for i := range scored {
		scored[i].Reason = ranker.Explain(scored[i])
	}

	elapsed := time.Since(start)
	metrics.RankDuration.Observe(elapsed.Seconds())

	e.logger.Debug().
		Str("request_id", req.RequestID).
		Int("pool", len(req.Candidates)).
		Int("returned", len(scored)).
		Dur("elapsed", elapsed).
		Msg("discovery request served")

	return &Response{
		Items:           scored,
		TotalCandidates: len(req.Candidates),
		Diversity:       divMetrics,
		Metadata: ResponseMetadata{
			RequestID:   req.RequestID,
			Diversifier: req.Diversify,
			LatencyMS:   elapsed.Milliseconds(),
			Timestamp:   time.Now(),
		},
	}, nil
}

// RequestCount returns the number of requests served.
func (e *Engine) RequestCount() int64 { return e.requestCount.Load() }

// ErrorCount returns the number of failed requests.
func (e *Engine) ErrorCount() int64 { return e.errorCount.Load() }

// rankedPool projects scored candidates back to a candidate pool whose
// relevance is the final score, so diversifiers optimize the combined
// ordering rather than the raw query similarity.
func rankedPool(scored []ScoredCandidate) []Candidate {
	pool := make([]Candidate, len(scored))
	for i := range scored {
		pool[i] = scored[i].Candidate
		pool[i].RelevanceScore = scored[i].FinalScore
	}
	return pool
}

// reorderScored reorders the scored list to match the diversifier's
// selection, dropping anything it filtered out.
func reorderScored(scored []ScoredCandidate, selected []Candidate) []ScoredCandidate {
	byID := make(map[int64]ScoredCandidate, len(scored))
	for _, sc := range scored {
		byID[sc.Candidate.ContentID] = sc
	}

	out := make([]ScoredCandidate, 0, len(selected))
	for _, c := range selected {
		if sc, ok := byID[c.ContentID]; ok {
			out = append(out, sc)
		}
	}
	return out
}
