package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [source-file]",
	Short: "Regenerate tests whenever a source file changes",
	Long: `Watch monitors a source file and reruns generation on every save,
debouncing rapid editor writes.

The working session persists across regenerations, so each save only asks
the model for tests the session does not already have. Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "Quiet period after a change before regenerating")
	watchCmd.Flags().StringVar(&generateSuite, "suite", "", "Suite name for the output file (default: source file base name)")
	watchCmd.Flags().StringVar(&generateFramework, "framework", "", "Test framework profile: jest, mocha, vitest")
	watchCmd.Flags().StringVarP(&generateOut, "out", "o", "", "Output file path (default: <source>.generated.test.js)")
	watchCmd.Flags().IntVar(&generateTarget, "target", 0, "Batch size to aim for (default from config)")
	watchCmd.Flags().Int64Var(&generateSeed, "seed", 0, "Seed for variation synthesis (0 = time-based)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	sourcePath, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	if _, err := os.Stat(sourcePath); err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory rather than the file: editors replace files on
	// save, which drops a direct file watch.
	if err := watcher.Add(filepath.Dir(sourcePath)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(sourcePath), err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	printStatus("▶", "watching "+sourcePath, color.FgCyan)

	// Generate once up front so the output exists before the first save.
	if err := runGenerate(cmd, []string{sourcePath}); err != nil {
		printStatus("✗", err.Error(), color.FgRed)
	}

	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != sourcePath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				timerCh = timer.C
			} else {
				timer.Reset(watchDebounce)
			}

		case <-timerCh:
			printStatus("↻", "change detected, regenerating", color.FgCyan)
			if err := runGenerate(cmd, []string{sourcePath}); err != nil {
				printStatus("✗", err.Error(), color.FgRed)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			printStatus("✗", "watch error: "+err.Error(), color.FgRed)

		case <-sigCh:
			printStatus("·", "stopping watch", color.FgYellow)
			return nil

		case <-cmd.Context().Done():
			return nil
		}
	}
}
