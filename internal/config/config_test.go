// Cinematch - Group Content Discovery and Ranking Engine
// Copyright 2026 K. Peters (kpeters)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kpeters/cinematch

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kpeters/cinematch/internal/discover/index"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Engine.DefaultLimit != 20 {
		t.Errorf("engine.default_limit = %d, want 20", cfg.Engine.DefaultLimit)
	}
	if cfg.Index.Dimension != 768 {
		t.Errorf("index.dimension = %d, want 768", cfg.Index.Dimension)
	}
	if cfg.MMR.Lambda != 0.85 {
		t.Errorf("mmr.lambda = %f, want 0.85", cfg.MMR.Lambda)
	}
	if cfg.Group.FairnessThreshold != 0.6 {
		t.Errorf("group.fairness_threshold = %f, want 0.6", cfg.Group.FairnessThreshold)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
index:
  dimension: 128
  metric: euclidean
mmr:
  lambda: 0.5
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Index.Dimension != 128 {
		t.Errorf("index.dimension = %d, want 128", cfg.Index.Dimension)
	}
	if cfg.Index.Metric != index.MetricEuclidean {
		t.Errorf("index.metric = %q, want euclidean", cfg.Index.Metric)
	}
	if cfg.MMR.Lambda != 0.5 {
		t.Errorf("mmr.lambda = %f, want 0.5", cfg.MMR.Lambda)
	}
	// Untouched sections keep their defaults.
	if cfg.Engine.MaxLimit != 200 {
		t.Errorf("engine.max_limit = %d, want default 200", cfg.Engine.MaxLimit)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
index:
  dimension: 128
`)
	t.Setenv("CINEMATCH_INDEX__DIMENSION", "256")
	t.Setenv("CINEMATCH_LOGGING__LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Index.Dimension != 256 {
		t.Errorf("index.dimension = %d, want env override 256", cfg.Index.Dimension)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging.level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("Load() accepted a missing explicit config file")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantMsg string
	}{
		{
			name:    "bad metric",
			yaml:    "index:\n  metric: manhattan\n",
			wantMsg: "index.metric",
		},
		{
			name:    "lambda out of range",
			yaml:    "mmr:\n  lambda: 1.5\n",
			wantMsg: "mmr.lambda",
		},
		{
			name:    "genre min above max",
			yaml:    "genre:\n  min_per_genre: 9\n  max_per_genre: 2\n",
			wantMsg: "genre.min_per_genre",
		},
		{
			name:    "fairness threshold out of range",
			yaml:    "group:\n  fairness_threshold: 2\n",
			wantMsg: "group.fairness_threshold",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfigFile(t, tt.yaml))
			if err == nil {
				t.Fatal("Load() accepted invalid configuration")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %v, want mention of %s", err, tt.wantMsg)
			}
		})
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"CINEMATCH_INDEX__DIMENSION", "index.dimension"},
		{"CINEMATCH_LOGGING__LEVEL", "logging.level"},
		{"CINEMATCH_ENGINE__MAX_LIMIT", "engine.max_limit"},
	}

	for _, tt := range tests {
		if got := envTransform(tt.in); got != tt.want {
			t.Errorf("envTransform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
