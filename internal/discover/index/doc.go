// Cinematch - Group Content Discovery and Ranking Engine
// Copyright 2026 K. Peters (kpeters)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kpeters/cinematch

// Package index answers "k most similar content IDs to this query
// vector" against an in-memory corpus.
//
// Two backends implement one strategy interface, chosen at construction:
//
//   - annoy: approximate nearest-neighbor search (goannoy, angular
//     distance), sub-linear at the cost of exactness
//   - exact: brute-force linear scan
//
// The exact fallback is load-bearing behavior, not a degraded mode: when
// the annoy backend cannot serve the configured metric, the index
// silently degrades from sub-linear to linear time and produces
// correctness-equivalent results of identical shape.
//
// Incremental mutation is deliberately weak. Add after Build serves new
// vectors through a linear top-up scan, and Remove only unmaps the
// label; the approximate graph keeps the node until the next Build.
// A staleness ratio tracks churn and flags when a rebuild is advisable;
// the index never rebuilds on its own.
//
// Concurrency: many concurrent searches; Build/Add/Remove serialize with
// each other and with in-flight searches through a reader-writer lock.
package index
