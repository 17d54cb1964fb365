package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jmallek/conclave/internal/archive"
	"github.com/jmallek/conclave/internal/config"
)

var checkpointsDBPath string

var checkpointsCmd = &cobra.Command{
	Use:   "checkpoints",
	Short: "Show archived checkpoint history",
	Long: `Show checkpoint actions recorded in the audit archive, newest first:
who approved, rejected, or commented on each checkpoint, and the status
it moved to.`,
	RunE: runCheckpoints,
}

func init() {
	checkpointsCmd.Flags().StringVar(&checkpointsDBPath, "db", "", "Archive database path (default: configured path)")
}

func runCheckpoints(cmd *cobra.Command, args []string) error {
	path := checkpointsDBPath
	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
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
	entries, err := recorder.CheckpointHistory()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No checkpoint actions archived yet.")
		return nil
	}

	for _, e := range entries {
		fmt.Printf("%s  %s  %s → %s by %s\n",
			e.OccurredAt.Format("2006-01-02 15:04"),
			checkpointStatusColor(e.Status).Sprint(e.Action),
			e.CheckpointID, e.Status, e.Actor)
		if e.Notes != "" {
			fmt.Printf("    notes: %s\n", e.Notes)
		}
	}
	return nil
}

// checkpointStatusColor maps a resulting status to its display color.
func checkpointStatusColor(status string) *color.Color {
	switch status {
	case "approved", "completed":
		return color.New(color.FgGreen)
	case "rejected":
		return color.New(color.FgRed)
	case "revision_needed":
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgWhite)
	}
}
