package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "testmend",
	Short: "Repair and normalize LLM-generated test files",
	Long: `Testmend turns unreliable LLM-generated test output into balanced,
deduplicated test files.

It repairs malformed test text (unbalanced braces, truncated blocks,
orphaned closers), extracts individual test entries with a quality tier per
entry, suppresses duplicates across a working session, and reconstructs a
canonical test file ordered best-first.

Core capabilities:
- Repairs any malformed test document into a balanced file
- Drives bounded LLM generation with diminishing-returns cutoffs
- Deduplicates against the full session history
- Synthesizes deterministic variations when generation runs short`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(repairCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
