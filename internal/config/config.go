// Cinematch - Group Content Discovery and Ranking Engine
// Copyright 2026 K. Peters (kpeters)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kpeters/cinematch

// Package config loads and validates the application configuration from
// defaults, an optional YAML file, and environment variables, layered in
// that order with koanf.
package config

import (
	"fmt"

	"github.com/kpeters/cinematch/internal/discover"
	"github.com/kpeters/cinematch/internal/discover/diversity"
	"github.com/kpeters/cinematch/internal/discover/group"
	"github.com/kpeters/cinematch/internal/discover/index"
	"github.com/kpeters/cinematch/internal/discover/rank"
	"github.com/kpeters/cinematch/internal/logging"
)

// Config aggregates all component configuration.
type Config struct {
	// Logging configures the global logger.
	Logging logging.Config `json:"logging" koanf:"logging"`

	// Engine configures pipeline-wide limits.
	Engine discover.Config `json:"engine" koanf:"engine"`

	// Index configures the vector index.
	Index index.Config `json:"index" koanf:"index"`

	// Rank configures the multi-criteria reranker.
	Rank rank.Config `json:"rank" koanf:"rank"`

	// MMR configures MMR diversification.
	MMR diversity.MMRConfig `json:"mmr" koanf:"mmr"`

	// Genre configures genre-quota diversification.
	Genre diversity.GenreConfig `json:"genre" koanf:"genre"`

	// Group configures the consensus engine.
	Group group.Config `json:"group" koanf:"group"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Logging: logging.DefaultConfig(),
		Engine:  *discover.DefaultConfig(),
		Index:   index.DefaultConfig(768),
		Rank:    rank.DefaultConfig(),
		MMR:     diversity.DefaultMMRConfig(),
		Genre:   diversity.DefaultGenreConfig(),
		Group:   group.DefaultConfig(),
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	validators := []func() error{
		c.Engine.Validate,
		c.validateIndex,
		c.validateDiversity,
		c.validateGroup,
	}

	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateIndex() error {
	if c.Index.Dimension <= 0 {
		return fmt.Errorf("index.dimension must be > 0, got %d", c.Index.Dimension)
	}
	switch c.Index.Metric {
	case "", index.MetricCosine, index.MetricEuclidean, index.MetricDot:
	default:
		return fmt.Errorf("index.metric %q is not one of cosine, euclidean, dot", c.Index.Metric)
	}
	switch c.Index.Backend {
	case "", index.BackendAuto, index.BackendAnnoy, index.BackendExact:
	default:
		return fmt.Errorf("index.backend %q is not one of auto, annoy, exact", c.Index.Backend)
	}
	return nil
}

func (c *Config) validateDiversity() error {
	if c.MMR.Lambda < 0 || c.MMR.Lambda > 1 {
		return fmt.Errorf("mmr.lambda %f outside [0, 1]", c.MMR.Lambda)
	}
	if c.Genre.MinPerGenre > c.Genre.MaxPerGenre {
		return fmt.Errorf("genre.min_per_genre %d > genre.max_per_genre %d", c.Genre.MinPerGenre, c.Genre.MaxPerGenre)
	}
	return nil
}

func (c *Config) validateGroup() error {
	if c.Group.FairnessThreshold < 0 || c.Group.FairnessThreshold > 1 {
		return fmt.Errorf("group.fairness_threshold %f outside [0, 1]", c.Group.FairnessThreshold)
	}
	if c.Group.VoteBlend < 0 || c.Group.VoteBlend > 1 {
		return fmt.Errorf("group.vote_blend %f outside [0, 1]", c.Group.VoteBlend)
	}
	return nil
}
