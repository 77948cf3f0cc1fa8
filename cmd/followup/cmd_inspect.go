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
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/transientml/followup/services/learn"
	"github.com/transientml/followup/services/learn/checkpoint"
)

var (
	inspectConfigPath string
	inspectRunID      string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List checkpointed runs or show one run's saved state",
	Long: `Opens the checkpoint store named by the experiment file. Without
--run it lists every checkpointed run id; with --run it prints the run's
partition sizes and its metrics trace as CSV.`,
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&inspectConfigPath, "config", "", "experiment YAML file (required)")
	inspectCmd.Flags().StringVar(&inspectRunID, "run", "", "run id to show (default: list all runs)")
	_ = inspectCmd.MarkFlagRequired("config")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := learn.LoadExperimentConfig(inspectConfigPath)
	if err != nil {
		return err
	}
	if !cfg.Checkpoint.Enabled {
		return fmt.Errorf("checkpointing is not enabled in %s", inspectConfigPath)
	}

	store, err := checkpoint.Open(checkpointConfig(cfg.Checkpoint))
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	if inspectRunID == "" {
		return listRuns(ctx, store, out)
	}
	return showRun(ctx, store, inspectRunID, out)
}

func listRuns(ctx context.Context, store *checkpoint.Store, out io.Writer) error {
	ids, err := store.RunIDs(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Fprintln(out, "no checkpointed runs")
		return nil
	}
	for _, id := range ids {
		fmt.Fprintln(out, id)
	}
	return nil
}

func showRun(ctx context.Context, store *checkpoint.Store, runID string, out io.Writer) error {
	state, err := store.Load(ctx, runID)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tITERATION\tLABELED\tPOOL\tVALIDATION")
	fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n",
		state.RunID, state.Iteration,
		len(state.Labeled), len(state.Pool), len(state.Validation))
	if err := w.Flush(); err != nil {
		return err
	}

	if len(state.Snapshots) == 0 {
		return nil
	}
	fmt.Fprintln(out)
	rec := learn.NewRecorder()
	for _, s := range state.Snapshots {
		rec.Append(s)
	}
	return rec.WriteCSV(out)
}
