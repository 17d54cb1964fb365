package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jmallek/conclave/internal/archive"
	"github.com/jmallek/conclave/internal/completion"
	"github.com/jmallek/conclave/internal/config"
	"github.com/jmallek/conclave/internal/coord"
	"github.com/jmallek/conclave/internal/ingest"
	"github.com/jmallek/conclave/internal/triage"
	"github.com/jmallek/conclave/internal/tui"
)

var runHeadless bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the coordination service",
	Long: `Start the coordination service: the agent fleet registry, message
bus, approval and checkpoint workflows, the feedback drop-directory
watcher, and the audit archive.

By default the pending-decisions inbox TUI is attached; approvals and
checkpoints created by agents appear there for human decision. With
--headless the service runs without a terminal UI and coordination
activity is logged to stderr instead.`,
	RunE: runService,
}

func init() {
	runCmd.Flags().BoolVar(&runHeadless, "headless", false, "Run without the inbox TUI")
}

func runService(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// In TUI mode stderr belongs to the terminal UI, so coordination logs
	// are dropped rather than garbling the screen.
	logger := zerolog.Nop()
	if runHeadless {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			With().Timestamp().Logger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	coordinator := coord.New(coord.Options{
		Roles:       cfg.Coordination.Roles,
		EventBuffer: cfg.Coordination.EventBuffer,
		Logger:      &logger,
	})
	defer coordinator.Close()

	// Shared between the ingest pipeline and the archive recorder, which
	// resolves feedback_triaged events back into full items.
	feedbackStore := triage.NewFeedbackStore()

	if cfg.Archive.Enabled {
		path := cfg.Archive.Path
		if path == "" {
			path = config.DefaultArchivePath()
		}
		db, err := archive.Open(path)
		if err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		defer db.Close()
		if err := db.Migrate(); err != nil {
			return fmt.Errorf("migrate archive: %w", err)
		}

		recorder := archive.NewRecorder(db, logger).
			WithSources(coordinator.Approvals(), coordinator.Checkpoints(), feedbackStore)
		go recorder.Run(ctx, coordinator.Events())
		logger.Info().Str("path", path).Msg("archive enabled")
	}

	if cfg.Ingest.Enabled {
		processor := triage.NewProcessor(feedbackStore, logger)
		if cfg.Triage.DraftResponses {
			responder, err := newResponder(cfg)
			if err != nil {
				logger.Warn().Err(err).Msg("response drafting disabled")
			} else {
				processor = processor.WithResponder(responder)
			}
		}

		watcher, err := ingest.NewWatcher(cfg.Ingest.DropDir, processor, coordinator, logger)
		if err != nil {
			return fmt.Errorf("create ingest watcher: %w", err)
		}
		if err := watcher.Start(); err != nil {
			return fmt.Errorf("start ingest watcher: %w", err)
		}
		defer watcher.Close()
		logger.Info().Str("drop_dir", cfg.Ingest.DropDir).Msg("ingest enabled")
	}

	if runHeadless {
		logger.Info().Msg("coordination service running, Ctrl-C to stop")
		<-ctx.Done()
		return nil
	}

	return tui.Run(tui.NewInbox(coordinator, cfg.TUI.RefreshRate))
}

// newResponder builds the completion-backed reply drafter from config.
func newResponder(cfg *config.Config) (*completion.Responder, error) {
	key, err := config.GetAPIKey(cfg)
	if err != nil && !cfg.Anthropic.UseBedrock {
		return nil, err
	}

	client, err := completion.NewClient(completion.ClientConfig{
		Model:         anthropic.Model(cfg.Anthropic.Model),
		APIKey:        key,
		UseAWSBedrock: cfg.Anthropic.UseBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
	})
	if err != nil {
		return nil, err
	}
	return completion.NewResponder(client), nil
}
