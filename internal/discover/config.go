// Cinematch - Group Content Discovery and Ranking Engine
// Copyright 2026 K. Peters (kpeters)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kpeters/cinematch

package discover

import "fmt"

// Config contains engine-level configuration. Component tuning lives in
// the component packages; this only covers pipeline-wide limits.
type Config struct {
	// DefaultLimit is used when Request.Limit is zero.
	DefaultLimit int `json:"default_limit" koanf:"default_limit"`

	// MaxLimit caps Request.Limit to bound per-request work.
	MaxLimit int `json:"max_limit" koanf:"max_limit"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		DefaultLimit: 20,
		MaxLimit:     200,
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.DefaultLimit <= 0 {
		return fmt.Errorf("%w: default_limit must be > 0, got %d", ErrInvalidParameter, c.DefaultLimit)
	}
	if c.MaxLimit < c.DefaultLimit {
		return fmt.Errorf("%w: max_limit %d < default_limit %d", ErrInvalidParameter, c.MaxLimit, c.DefaultLimit)
	}
	return nil
}
