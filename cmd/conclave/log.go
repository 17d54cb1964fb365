package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jmallek/conclave/internal/archive"
	"github.com/jmallek/conclave/internal/config"
	"github.com/jmallek/conclave/internal/triage"
	"github.com/jmallek/conclave/pkg/models"
)

var logDBPath string

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the archived decision log",
	Long: `Show human decisions recorded in the audit archive, newest first,
followed by a feedback summary with per-category trends over the
configured triage.trend_window, and archive totals. Reads the SQLite
archive written by the coordination service; run with archive.enabled
for anything to appear.`,
	RunE: runLog,
}

func init() {
	logCmd.Flags().StringVar(&logDBPath, "db", "", "Archive database path (default: configured path)")
}

func runLog(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	path := logDBPath
	if path == "" {
		path = cfg.Archive.Path
		if path == "" {
			path = config.DefaultArchivePath()
		}
	}

	db, err := archive.Open(path)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate archive: %w", err)
	}

	recorder := archive.NewRecorder(db, zerolog.Nop())

	entries, err := recorder.DecisionLog()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No decisions archived yet.")
	}
	for _, e := range entries {
		decision := color.GreenString(e.Decision)
		if e.Decision == models.DecisionReject {
			decision = color.RedString(e.Decision)
		}
		fmt.Printf("%s  %s  %q from %s\n", e.DecidedAt.Format("2006-01-02 15:04"), decision, e.Title, e.RequestingAgent)
		if e.Feedback != "" {
			fmt.Printf("    feedback: %s\n", e.Feedback)
		}
	}

	items, err := recorder.FeedbackItems()
	if err != nil {
		return err
	}
	if len(items) > 0 {
		printFeedbackSummary(items, cfg.Triage.TrendWindow)
	}

	events, err := recorder.EventCount()
	if err != nil {
		return err
	}
	fmt.Printf("\narchive: %d decisions, %d feedback items, %d events (%s)\n",
		len(entries), len(items), events, db.Path())
	return nil
}

// printFeedbackSummary reloads archived feedback into a store and prints its
// aggregate view plus per-category trends inside the window. Responses are
// not archived, so awaiting-response counts every item that expects one.
func printFeedbackSummary(items []models.FeedbackItem, window time.Duration) {
	store := triage.NewFeedbackStore()
	for _, item := range items {
		store.Add(item)
	}

	sum := store.Summarize()
	fmt.Printf("\nfeedback: %d items, %d awaiting response\n", sum.Total, sum.AwaitingResponse)

	trends := store.AnalyzeTrends(window)
	if len(trends) == 0 {
		fmt.Printf("no feedback inside the last %s\n", window)
		return
	}
	fmt.Printf("trends (last %s):\n", window)
	for _, tr := range trends {
		line := fmt.Sprintf("  %s  %d items, %.0f%% negative",
			color.CyanString(string(tr.Category)), tr.Count, tr.NegativeShare*100)
		if tr.CriticalCount > 0 {
			line += color.RedString("  %d critical", tr.CriticalCount)
		}
		fmt.Println(line)
	}
}
