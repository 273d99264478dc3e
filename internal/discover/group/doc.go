// Cinematch - Group Content Discovery and Ranking Engine
// Copyright 2026 K. Peters (kpeters)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kpeters/cinematch

// Package group aggregates multiple members' preference vectors into
// per-candidate group scores, measures fairness, applies contextual
// boosts, and resolves explicit votes into a winner.
//
// The group score is a maximin/efficiency blend: 60% the least-satisfied
// member, 40% the weighted average. Catering to one enthusiastic member
// at everyone else's expense cannot win.
//
// Fairness is 1 minus the Gini coefficient over member satisfactions,
// and candidates below the fairness threshold are dropped outright, not
// penalized.
//
// A group session moves forming -> scoring -> voting -> decided. Only
// the scoring and voting transitions live here; forming and decided are
// persistence concerns owned by the caller.
package group
