// Cinematch - Group Content Discovery and Ranking Engine
// Copyright 2026 K. Peters (kpeters)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kpeters/cinematch

// Package diversity implements post-ranking selection for variety: MMR
// (Maximal Marginal Relevance) over embeddings, and genre-quota
// round-robin over genre tags.
//
// Note on genre quotas: a candidate with N genres counts toward every
// one of its genres' quotas simultaneously. This double-counting mirrors
// the shipped product behavior for cross-genre appeal; changing it is a
// product decision, not an implementation one.
package diversity
