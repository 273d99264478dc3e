// Cinematch - Group Content Discovery and Ranking Engine
// Copyright 2026 K. Peters (kpeters)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kpeters/cinematch

// Package discover implements the ranking, diversity, and group-consensus
// core of the content-discovery platform.
//
// # Architecture
//
// The package is organized around a small pipeline over in-memory
// candidate pools supplied by callers:
//
//   - index: approximate nearest-neighbor search over content embeddings,
//     with an exact linear-scan fallback
//   - rank: multi-criteria scoring (similarity, personalization, recency,
//     popularity) into a single ordering
//   - diversity: MMR reranking and genre-quota diversification
//   - group: maximin/Gini fairness aggregation for multi-member sessions
//
// All numeric scoring is pure over its inputs; the only mutable state in
// the package tree is the vector index, which is rebuildable and guarded
// by a reader-writer lock.
//
// # Design Principles
//
//   - Deterministic: ties resolve by input order, never by map iteration
//   - Degraded, not broken: missing embeddings, missing preference
//     vectors, and a missing ANN backend fall back to documented defaults
//     and emit warning events instead of failing the request
//   - Observable: structured zerolog logging plus a subscribable event
//     sink for degraded-mode diagnostics
//
// # Usage
//
//	ev := discover.NewEvents(logger)
//	eng, err := discover.NewEngine(discover.DefaultConfig(), ev, logger)
//	eng.SetRanker(rank.New(cfg.Rank, ev, logger))
//	eng.RegisterDiversifier(diversity.NewMMR(cfg.MMR, ev, logger))
//
//	resp, err := eng.Discover(ctx, discover.Request{
//	    Candidates: pool,
//	    Profile:    &profile,
//	    Limit:      20,
//	    Diversify:  "mmr",
//	})
package discover
