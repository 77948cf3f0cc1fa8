// Copyright (C) 2025 Transient ML Collaboration
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/transientml/followup/services/learn"
	"github.com/transientml/followup/services/learn/checkpoint"
	"github.com/transientml/followup/services/learn/strategy"
)

var (
	runConfigPath string
	runOutPath    string
	runResumeID   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one active-learning experiment from a YAML file",
	Long: `Loads the candidate table, draws the initial labeled seed and the
validation set, then iterates the query loop until the labeling budget is
spent or the pool is empty. The per-iteration metrics trace is written as CSV.`,
	RunE: runExperiment,
}

func init() {
	runCmd.Flags().StringVar(&runConfigPath, "config", "", "experiment YAML file (required)")
	runCmd.Flags().StringVar(&runOutPath, "out", "", "metrics CSV output path (default stdout)")
	runCmd.Flags().StringVar(&runResumeID, "resume", "", "run id to resume from the checkpoint store")
	_ = runCmd.MarkFlagRequired("config")
	rootCmd.AddCommand(runCmd)
}

func runExperiment(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := learn.LoadExperimentConfig(runConfigPath)
	if err != nil {
		return err
	}

	dataset, err := learn.LoadCSV(cfg.Data.Path)
	if err != nil {
		return err
	}
	logger.Info("dataset loaded",
		"path", cfg.Data.Path,
		"candidates", dataset.Len(),
		"features", dataset.FeatureDim(),
	)

	clf, err := cfg.Classifier.Build()
	if err != nil {
		return err
	}
	strat, err := strategy.NewRegistry().New(cfg.Run.Strategy)
	if err != nil {
		return err
	}

	var store *checkpoint.Store
	opts := []learn.Option{learn.WithLogger(logger.Slog())}
	if cfg.Checkpoint.Enabled {
		store, err = checkpoint.Open(checkpointConfig(cfg.Checkpoint))
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, learn.WithCheckpointer(store))
	}

	var loop *learn.Loop
	if runResumeID != "" {
		if store == nil {
			return fmt.Errorf("--resume requires checkpointing enabled in %s", runConfigPath)
		}
		state, err := store.Load(ctx, runResumeID)
		if err != nil {
			return err
		}
		loop, err = learn.Resume(state, cfg.Run, dataset, clf, strat, opts...)
		if err != nil {
			return err
		}
		logger.Info("resuming run", "run_id", runResumeID, "iteration", state.Iteration)
	} else {
		labeled, validation, err := learn.SplitIDs(dataset,
			cfg.Data.InitialLabeled, cfg.Data.ValidationFraction, cfg.Run.Seed)
		if err != nil {
			return err
		}
		part, err := learn.NewPartition(dataset.IDs(), labeled, validation)
		if err != nil {
			return err
		}
		loop, err = learn.NewLoop(cfg.Run, dataset, part, clf, strat, opts...)
		if err != nil {
			return err
		}
	}

	result, runErr := loop.Run(ctx)
	if err := writeTrace(result, runOutPath); err != nil {
		return err
	}
	if runErr != nil {
		// The trace up to the failure was still written above.
		return runErr
	}

	if last, ok := lastSnapshot(result); ok {
		logger.Info("run complete",
			"run_id", result.RunID,
			"iterations", result.Iterations,
			"accuracy", last.Accuracy,
			"efficiency", last.Efficiency,
			"purity", last.Purity,
			"fom", last.FoM,
		)
	}
	return nil
}

func checkpointConfig(c learn.CheckpointConfig) checkpoint.Config {
	if c.InMemory {
		return checkpoint.InMemoryConfig()
	}
	cfg := checkpoint.DefaultConfig(c.Path)
	cfg.Logger = logger.Slog()
	return cfg
}

func writeTrace(result *learn.RunResult, outPath string) error {
	rec := learn.NewRecorder()
	for _, s := range result.Snapshots {
		rec.Append(s)
	}
	if outPath == "" {
		return rec.WriteCSV(os.Stdout)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create metrics file: %w", err)
	}
	defer f.Close()
	if err := rec.WriteCSV(f); err != nil {
		return err
	}
	logger.Info("metrics written", "path", outPath, "snapshots", len(result.Snapshots))
	return nil
}

func lastSnapshot(result *learn.RunResult) (learn.Snapshot, bool) {
	if len(result.Snapshots) == 0 {
		return learn.Snapshot{}, false
	}
	return result.Snapshots[len(result.Snapshots)-1], true
}
