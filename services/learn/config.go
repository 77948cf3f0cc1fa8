// Copyright (C) 2025 Transient ML Collaboration
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package learn

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/transientml/followup/services/learn/classifier"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// MaxYAMLFileSize is the maximum allowed experiment file size (1MB).
	// Prevents memory issues from malformed files.
	MaxYAMLFileSize = 1024 * 1024
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// configValidate is the validator instance for experiment configuration.
var configValidate = validator.New()

// =============================================================================
// Configuration
// =============================================================================

// Config is the experiment configuration for one active-learning run.
//
// A Config value is passed explicitly into the loop constructor; there is no
// process-wide configuration state, so concurrent independent runs can use
// different configs freely.
type Config struct {
	// Strategy names the query strategy (see strategy.Registry).
	Strategy string `yaml:"strategy" validate:"required,oneof=random uncertainty-margin uncertainty-entropy least-confident diversity"`

	// BatchSize is the number of candidates queried per iteration.
	BatchSize int `yaml:"batch_size" validate:"gte=1"`

	// MaxIterations caps the number of iterations. Zero means run until
	// the pool is empty.
	MaxIterations int `yaml:"max_iterations" validate:"gte=0"`

	// Seed drives all randomness in the run.
	Seed int64 `yaml:"seed"`

	// DiversityShortlist is the uncertainty shortlist size for the
	// diversity strategy. Zero uses the strategy default (10x batch).
	DiversityShortlist int `yaml:"diversity_shortlist_size" validate:"gte=0"`

	// PositiveClass is the class treated as "Ia" by the science metrics.
	// Zero uses the default (1); class labels are expected to start at 1.
	PositiveClass int `yaml:"positive_class"`

	// FoMPenalty is the false-positive weight in the figure of merit.
	// Zero uses DefaultFoMPenalty.
	FoMPenalty float64 `yaml:"fom_penalty" validate:"gte=0"`
}

// DefaultConfig returns a runnable single-query margin configuration.
func DefaultConfig() Config {
	return Config{
		Strategy:      "uncertainty-margin",
		BatchSize:     1,
		MaxIterations: 0,
		Seed:          42,
		PositiveClass: 1,
		FoMPenalty:    DefaultFoMPenalty,
	}
}

// Validate checks tag constraints plus the cross-field rules that tags
// cannot express.
func (c Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("invalid run config: %w", err)
	}
	if c.Strategy == "diversity" && c.DiversityShortlist > 0 && c.DiversityShortlist < c.BatchSize {
		return fmt.Errorf("invalid run config: diversity_shortlist_size %d < batch_size %d",
			c.DiversityShortlist, c.BatchSize)
	}
	return nil
}

// withDefaults fills zero-valued optional fields.
func (c Config) withDefaults() Config {
	if c.FoMPenalty == 0 {
		c.FoMPenalty = DefaultFoMPenalty
	}
	if c.PositiveClass == 0 {
		c.PositiveClass = 1
	}
	return c
}

// ClassifierConfig selects and tunes the classifier used by a run.
type ClassifierConfig struct {
	// Kind is the classifier name: "logistic" or "centroid".
	Kind string `yaml:"kind" validate:"required,oneof=logistic centroid"`

	// Logistic holds tuning for the logistic classifier; ignored for
	// other kinds.
	Logistic classifier.LogisticConfig `yaml:",inline"`
}

// Build constructs the configured classifier.
func (c ClassifierConfig) Build() (classifier.Classifier, error) {
	if err := configValidate.Struct(c); err != nil {
		return nil, fmt.Errorf("invalid classifier config: %w", err)
	}
	switch c.Kind {
	case "logistic":
		return classifier.NewLogistic(c.Logistic), nil
	case "centroid":
		return classifier.NewCentroid(), nil
	default:
		return nil, fmt.Errorf("unknown classifier kind %q", c.Kind)
	}
}

// DataConfig describes where the candidate table comes from and how the
// initial partition is drawn.
type DataConfig struct {
	// Path is the candidate CSV file (header: id,label,f0,f1,...).
	Path string `yaml:"path" validate:"required"`

	// InitialLabeled is the size of the labeled seed set.
	InitialLabeled int `yaml:"initial_labeled" validate:"gte=2"`

	// ValidationFraction is the held-out fraction of the candidate set.
	ValidationFraction float64 `yaml:"validation_fraction" validate:"gt=0,lt=1"`
}

// CheckpointConfig enables per-iteration run persistence.
type CheckpointConfig struct {
	// Enabled turns checkpointing on.
	Enabled bool `yaml:"enabled"`

	// Path is the checkpoint database directory. Ignored when InMemory.
	Path string `yaml:"path"`

	// InMemory avoids disk persistence; useful for tests.
	InMemory bool `yaml:"in_memory"`
}

// ExperimentConfig is the top-level document loaded from an experiment
// YAML file.
type ExperimentConfig struct {
	Data       DataConfig       `yaml:"data"`
	Run        Config           `yaml:"run"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
}

// LoadExperimentConfig reads and validates an experiment YAML file.
//
// Inputs:
//   - path: The YAML file. Files over MaxYAMLFileSize are rejected.
//
// Outputs:
//   - *ExperimentConfig: The parsed configuration with defaults applied.
//   - error: Read, size, parse, or validation failures.
func LoadExperimentConfig(path string) (*ExperimentConfig, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat experiment file: %w", err)
	}
	if info.Size() > MaxYAMLFileSize {
		return nil, fmt.Errorf("experiment file %s exceeds %d bytes", path, MaxYAMLFileSize)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read experiment file: %w", err)
	}

	cfg := &ExperimentConfig{
		Run:        DefaultConfig(),
		Classifier: ClassifierConfig{Kind: "logistic"},
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse experiment file: %w", err)
	}

	cfg.Run = cfg.Run.withDefaults()
	if err := cfg.Run.Validate(); err != nil {
		return nil, err
	}
	if err := configValidate.Struct(cfg.Data); err != nil {
		return nil, fmt.Errorf("invalid data config: %w", err)
	}
	if err := configValidate.Struct(cfg.Classifier); err != nil {
		return nil, fmt.Errorf("invalid classifier config: %w", err)
	}
	return cfg, nil
}
