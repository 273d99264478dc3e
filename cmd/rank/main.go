// Cinematch - Group Content Discovery and Ranking Engine
// Copyright 2026 K. Peters (kpeters)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kpeters/cinematch

// Package main is an offline driver for the discovery pipeline.
//
// It loads a content catalog from a JSON file, builds the vector index,
// runs a query embedding through ranking and diversification, and prints
// the ranked result set as JSON. No network access; everything runs
// in-process over the supplied files.
//
// # Usage
//
//	rank -catalog catalog.json -query query.json [-config config.yaml]
//
// The catalog file is an array of candidates:
//
//	[{"content_id": 1, "title": "...", "media_type": "movie",
//	  "embedding": [...], "genres": ["Drama"], "popularity": 812}]
//
// The query file holds the request:
//
//	{"embedding": [...], "limit": 10, "diversify": "mmr",
//	 "preference_vector": [...]}
//
// Configuration is loaded via koanf with layered sources (highest
// priority wins): environment variables (CINEMATCH_*), config file,
// built-in defaults.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/kpeters/cinematch/internal/config"
	"github.com/kpeters/cinematch/internal/discover"
	"github.com/kpeters/cinematch/internal/discover/diversity"
	"github.com/kpeters/cinematch/internal/discover/index"
	"github.com/kpeters/cinematch/internal/discover/rank"
	"github.com/kpeters/cinematch/internal/logging"
)

// query is the request file shape.
type query struct {
	Embedding        []float64 `json:"embedding"`
	PreferenceVector []float64 `json:"preference_vector,omitempty"`
	Limit            int       `json:"limit,omitempty"`
	Diversify        string    `json:"diversify,omitempty"`
	Threshold        float64   `json:"threshold,omitempty"`
	PoolSize         int       `json:"pool_size,omitempty"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  = flag.String("config", "", "path to config file (default: search standard locations)")
		catalogPath = flag.String("catalog", "", "path to catalog JSON (required)")
		queryPath   = flag.String("query", "", "path to query JSON (required)")
	)
	flag.Parse()

	if *catalogPath == "" || *queryPath == "" {
		flag.Usage()
		return fmt.Errorf("-catalog and -query are required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logging.Init(cfg.Logging)
	logger := logging.Logger()

	catalog, err := readJSON[[]discover.Candidate](*catalogPath)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}
	q, err := readJSON[query](*queryPath)
	if err != nil {
		return fmt.Errorf("read query: %w", err)
	}

	events := discover.NewEvents(logger)

	// Index the catalog and retrieve the candidate pool.
	idx, err := index.New(cfg.Index, events, logger)
	if err != nil {
		return err
	}
	embeddings := make(map[int64][]float64, len(catalog))
	byID := make(map[int64]discover.Candidate, len(catalog))
	for i := range catalog {
		c := catalog[i]
		byID[c.ContentID] = c
		if c.Embedding != nil {
			embeddings[c.ContentID] = c.Embedding
		}
	}
	if err := idx.Build(embeddings); err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	poolSize := q.PoolSize
	if poolSize <= 0 {
		poolSize = 100
	}
	matches, err := idx.SearchWithThreshold(q.Embedding, poolSize, q.Threshold)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	pool := make([]discover.Candidate, 0, len(matches))
	for _, m := range matches {
		c := byID[m.ContentID]
		c.RelevanceScore = m.Similarity
		pool = append(pool, c)
	}

	// Rank and diversify.
	eng, err := discover.NewEngine(&cfg.Engine, events, logger)
	if err != nil {
		return err
	}
	eng.SetRanker(rank.New(cfg.Rank, events, logger))
	eng.RegisterDiversifier(diversity.NewMMR(cfg.MMR, events, logger))
	eng.RegisterDiversifier(diversity.NewGenreQuota(cfg.Genre, events, logger))

	var profile *discover.MemberProfile
	if q.PreferenceVector != nil {
		profile = &discover.MemberProfile{
			UserID:           "local",
			PreferenceVector: q.PreferenceVector,
			Weight:           1,
			Confidence:       1,
		}
	}

	resp, err := eng.Discover(context.Background(), discover.Request{
		Candidates: pool,
		Profile:    profile,
		Limit:      q.Limit,
		Diversify:  q.Diversify,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// readJSON decodes one JSON file into T.
func readJSON[T any](path string) (T, error) {
	var out T
	data, err := os.ReadFile(path)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}
