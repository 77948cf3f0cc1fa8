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
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/transientml/followup/services/learn"
	"github.com/transientml/followup/services/learn/strategy"
)

var (
	compareConfigPath string
	compareStrategies []string
	compareOutDir     string
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run the same experiment once per strategy, side by side",
	Long: `Runs one independent experiment per strategy. The runs share the
immutable candidate table but nothing else: each gets its own partition,
classifier, and metrics trace, drawn from the same seed, so the final table
isolates the effect of the query strategy.`,
	RunE: runComparison,
}

func init() {
	compareCmd.Flags().StringVar(&compareConfigPath, "config", "", "experiment YAML file (required)")
	compareCmd.Flags().StringSliceVar(&compareStrategies, "strategies", nil,
		"strategies to compare (default: all registered)")
	compareCmd.Flags().StringVar(&compareOutDir, "out-dir", "", "directory for per-strategy metrics CSVs")
	_ = compareCmd.MarkFlagRequired("config")
	rootCmd.AddCommand(compareCmd)
}

func runComparison(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := learn.LoadExperimentConfig(compareConfigPath)
	if err != nil {
		return err
	}
	dataset, err := learn.LoadCSV(cfg.Data.Path)
	if err != nil {
		return err
	}

	registry := strategy.NewRegistry()
	names := compareStrategies
	if len(names) == 0 {
		names = registry.Names()
	}

	// Identical split for every run: the only varying input is the strategy.
	labeled, validation, err := learn.SplitIDs(dataset,
		cfg.Data.InitialLabeled, cfg.Data.ValidationFraction, cfg.Run.Seed)
	if err != nil {
		return err
	}

	results := make([]*learn.RunResult, len(names))
	g, gCtx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			runCfg := cfg.Run
			runCfg.Strategy = name
			if err := runCfg.Validate(); err != nil {
				return err
			}
			strat, err := registry.New(name)
			if err != nil {
				return err
			}
			clf, err := cfg.Classifier.Build()
			if err != nil {
				return err
			}
			part, err := learn.NewPartition(dataset.IDs(), labeled, validation)
			if err != nil {
				return err
			}
			loop, err := learn.NewLoop(runCfg, dataset, part, clf, strat,
				learn.WithLogger(logger.Slog()))
			if err != nil {
				return err
			}
			result, err := loop.Run(gCtx)
			if err != nil {
				return fmt.Errorf("strategy %s: %w", name, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if compareOutDir != "" {
		if err := os.MkdirAll(compareOutDir, 0750); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		for i, result := range results {
			path := fmt.Sprintf("%s/%s.csv", compareOutDir, names[i])
			if err := writeTrace(result, path); err != nil {
				return err
			}
		}
	}

	printComparison(results)
	return nil
}

func printComparison(results []*learn.RunResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STRATEGY\tITERATIONS\tACCURACY\tEFFICIENCY\tPURITY\tFOM")
	for _, result := range results {
		if result == nil {
			continue
		}
		last, ok := lastSnapshot(result)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%.4f\t%.4f\t%.4f\t%.4f\n",
			result.Strategy, result.Iterations,
			last.Accuracy, last.Efficiency, last.Purity, last.FoM)
	}
	w.Flush()
}
