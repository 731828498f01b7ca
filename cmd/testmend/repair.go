package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"testmend/internal/config"
	"testmend/internal/extract"
	"testmend/internal/rebuild"
)

var (
	repairSuite     string
	repairFramework string
	repairOut       string
	repairInPlace   bool
)

var repairCmd = &cobra.Command{
	Use:   "repair [test-file]",
	Short: "Repair a malformed generated test file",
	Long: `Repair balances, extracts, and reconstructs a single test file without
calling the model.

The result is always a balanced file: orphaned closers are dropped,
truncated blocks are closed, and whatever test entries can be recovered are
rendered best-first under one grouping block. Input that yields nothing
usable still produces a placeholder entry rather than an error.`,
	Args: cobra.ExactArgs(1),
	RunE: runRepair,
}

func init() {
	repairCmd.Flags().StringVar(&repairSuite, "suite", "", "Suite name for the output file (default: file base name)")
	repairCmd.Flags().StringVar(&repairFramework, "framework", "", "Test framework profile: jest, mocha, vitest")
	repairCmd.Flags().StringVarP(&repairOut, "out", "o", "", "Output file path (default: stdout)")
	repairCmd.Flags().BoolVarP(&repairInPlace, "write", "w", false, "Rewrite the input file in place")
}

func runRepair(cmd *cobra.Command, args []string) error {
	path := args[0]

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	framework := repairFramework
	if framework == "" {
		framework = cfg.Generation.Framework
	}
	suite := repairSuite
	if suite == "" {
		suite = suiteNameFor(path)
	}

	result := rebuild.Repair(string(raw), suite, framework)

	switch {
	case repairInPlace:
		if err := os.WriteFile(path, []byte(result.Text), 0644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		printStatus("✓", "rewrote "+path, color.FgGreen)
	case repairOut != "":
		if err := os.WriteFile(repairOut, []byte(result.Text), 0644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		printStatus("✓", "wrote "+repairOut, color.FgGreen)
	default:
		fmt.Print(result.Text)
		return nil
	}

	printStatus("·", fmt.Sprintf("%d entries (%s)", len(result.Entries), extract.Describe(result.Entries)), color.FgCyan)
	if result.OrphanClosersDropped > 0 || result.ClosersAppended > 0 {
		printStatus("·", fmt.Sprintf("dropped %d orphaned closers, appended %d",
			result.OrphanClosersDropped, result.ClosersAppended), color.FgYellow)
	}
	return nil
}
