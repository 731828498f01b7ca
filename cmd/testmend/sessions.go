package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"testmend/internal/state"
)

var sessionsAll bool

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List working sessions",
	Long: `List working sessions and their stored corpus sizes.

By default only active sessions are shown; pass --all to include ended
ones. Use "sessions end <id>" to end a session and purge its history.`,
	RunE: runSessionsList,
}

var sessionsEndCmd = &cobra.Command{
	Use:   "end [session-id]",
	Short: "End a session and purge its stored corpus",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openState()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.EndSession(args[0]); err != nil {
			return err
		}
		printStatus("✓", "session "+args[0]+" ended", color.FgYellow)
		return nil
	},
}

func init() {
	sessionsCmd.Flags().BoolVar(&sessionsAll, "all", false, "Include ended sessions")
	sessionsCmd.AddCommand(sessionsEndCmd)
}

func openState() (*state.DB, error) {
	db, err := state.OpenGlobal()
	if err != nil {
		return nil, fmt.Errorf("open state: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate state: %w", err)
	}
	return db, nil
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	db, err := openState()
	if err != nil {
		return err
	}
	defer db.Close()

	var filter *state.SessionStatus
	if !sessionsAll {
		active := state.SessionActive
		filter = &active
	}

	sessions, err := db.ListSessions(filter)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("no sessions")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSOURCE\tFRAMEWORK\tSTARTED\tSTATUS\tENTRIES")
	for _, s := range sessions {
		n, err := db.CountEntries(s.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
			s.ID, s.SourcePath, s.Framework, s.StartedAt.Format("2006-01-02 15:04"), s.Status, n)
	}
	return w.Flush()
}
