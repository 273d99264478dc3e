// Cinematch - Group Content Discovery and Ranking Engine
// Copyright 2026 K. Peters (kpeters)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kpeters/cinematch

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Vector index metrics.

	// SearchDuration tracks vector search latency per backend.
	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinematch_index_search_duration_seconds",
			Help:    "Duration of vector index searches in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend"},
	)

	// SearchesTotal counts vector index searches per backend.
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinematch_index_searches_total",
			Help: "Total number of vector index searches",
		},
		[]string{"backend"},
	)

	// IndexSize tracks the number of vectors currently indexed.
	IndexSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cinematch_index_size",
			Help: "Number of vectors in the index",
		},
	)

	// IndexRebuilds counts full index builds.
	IndexRebuilds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cinematch_index_rebuilds_total",
			Help: "Total number of full index builds",
		},
	)

	// Ranking pipeline metrics.

	// RankRequestsTotal counts discovery requests.
	RankRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cinematch_rank_requests_total",
			Help: "Total number of discovery requests",
		},
	)

	// RankDuration tracks end-to-end pipeline latency.
	RankDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cinematch_rank_duration_seconds",
			Help:    "Duration of the rank-and-diversify pipeline in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// GroupRankingsTotal counts group consensus ranking runs.
	GroupRankingsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cinematch_group_rankings_total",
			Help: "Total number of group consensus rankings",
		},
	)
)
