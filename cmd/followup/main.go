// Copyright (C) 2025 Transient ML Collaboration
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/transientml/followup/pkg/logging"
)

var logger = logging.Default()

var rootCmd = &cobra.Command{
	Use:   "followup",
	Short: "Active-learning engine for spectroscopic follow-up of transients",
	Long: `followup simulates the active-learning loop that decides which
transient light curves to spectroscopically confirm next, so a photometric
classifier improves as fast as possible under a fixed labeling budget.`,
}

func main() {
	defer logger.Close()
	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
