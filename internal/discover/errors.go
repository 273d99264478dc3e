// Cinematch - Group Content Discovery and Ranking Engine
// Copyright 2026 K. Peters (kpeters)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kpeters/cinematch

package discover

import "errors"

// Error taxonomy for the discovery core. Everything here is fatal to the
// call it occurs in; degraded-but-valid conditions (missing embedding,
// missing preference vector, missing ANN backend, under-quota genre) are
// signalled through Events instead and never surface as errors.
var (
	// ErrDimensionMismatch indicates two vectors of unequal length were
	// compared, or a vector disagrees with the configured dimensionality.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrIndexNotBuilt indicates a search against an index that has not
	// been built yet.
	ErrIndexNotBuilt = errors.New("vector index not built")

	// ErrInvalidParameter indicates a tuning parameter outside its
	// domain (lambda, limit, fairness threshold).
	ErrInvalidParameter = errors.New("invalid parameter")
)
