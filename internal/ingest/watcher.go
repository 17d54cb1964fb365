// Package ingest feeds human feedback into the triage pipeline from a
// drop directory. Each file is one piece of feedback in YAML form; files
// are moved to a processed/ subdirectory once triaged so a crash never
// loses or double-processes input.
package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/jmallek/conclave/internal/triage"
	"github.com/jmallek/conclave/pkg/models"
)

// processedDir is where triaged files are moved, relative to the drop dir.
const processedDir = "processed"

// feedbackFile is the on-disk YAML shape of one piece of feedback.
type feedbackFile struct {
	UserID      string `yaml:"user_id"`
	Content     string `yaml:"content"`
	Role        string `yaml:"role"`
	ProjectID   string `yaml:"project_id"`
	ComponentID string `yaml:"component_id"`
	TaskID      string `yaml:"task_id"`
}

// Router delivers a triaged item to its destination. The coordinator's
// RouteFeedback satisfies it.
type Router interface {
	RouteFeedback(item models.FeedbackItem) (string, error)
}

// Watcher watches a drop directory and triages every feedback file that
// appears in it.
type Watcher struct {
	dropDir   string
	processor *triage.Processor
	router    Router
	logger    zerolog.Logger

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewWatcher creates a Watcher for the given drop directory, creating the
// directory tree if needed.
func NewWatcher(dropDir string, processor *triage.Processor, router Router, logger zerolog.Logger) (*Watcher, error) {
	if err := os.MkdirAll(filepath.Join(dropDir, processedDir), 0755); err != nil {
		return nil, fmt.Errorf("create drop directory: %w", err)
	}

	return &Watcher{
		dropDir:   dropDir,
		processor: processor,
		router:    router,
		logger:    logger.With().Str("component", "ingest").Logger(),
		done:      make(chan struct{}),
	}, nil
}

// Start processes files already present in the drop directory, then watches
// for new ones until Close is called.
func (w *Watcher) Start() error {
	if _, err := w.Scan(); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(w.dropDir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", w.dropDir, err)
	}
	w.watcher = watcher

	go w.watch()
	return nil
}

// watch consumes filesystem events until the watcher is closed.
func (w *Watcher) watch() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create == 0 && event.Op&fsnotify.Write == 0 {
				continue
			}
			if !isFeedbackFile(event.Name) {
				continue
			}
			if err := w.ProcessFile(event.Name); err != nil {
				w.logger.Warn().Err(err).Str("file", event.Name).Msg("feedback file skipped")
			}
		case <-w.watcher.Errors:
			// Keep watching; Scan can be re-run to catch up.
		}
	}
}

// Scan processes every feedback file currently in the drop directory and
// returns how many were triaged.
func (w *Watcher) Scan() (int, error) {
	entries, err := os.ReadDir(w.dropDir)
	if err != nil {
		return 0, fmt.Errorf("read drop directory: %w", err)
	}

	processed := 0
	for _, entry := range entries {
		if entry.IsDir() || !isFeedbackFile(entry.Name()) {
			continue
		}
		path := filepath.Join(w.dropDir, entry.Name())
		if err := w.ProcessFile(path); err != nil {
			w.logger.Warn().Err(err).Str("file", path).Msg("feedback file skipped")
			continue
		}
		processed++
	}
	return processed, nil
}

// ProcessFile triages one feedback file: parse, classify, route, then move
// the file into processed/.
func (w *Watcher) ProcessFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var ff feedbackFile
	if err := yaml.Unmarshal(raw, &ff); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if ff.UserID == "" || ff.Content == "" {
		return fmt.Errorf("%s: user_id and content are required", path)
	}

	userCtx := &triage.UserContext{
		Role:        ff.Role,
		ProjectID:   ff.ProjectID,
		ComponentID: ff.ComponentID,
		TaskID:      ff.TaskID,
	}
	item := w.processor.Process(ff.UserID, ff.Content, userCtx, nil)

	if w.router != nil {
		if _, err := w.router.RouteFeedback(item); err != nil {
			return fmt.Errorf("route feedback %s: %w", item.ID, err)
		}
	}

	dest := filepath.Join(w.dropDir, processedDir, filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		return fmt.Errorf("archive %s: %w", path, err)
	}

	w.logger.Info().
		Str("file", filepath.Base(path)).
		Str("feedback_id", item.ID).
		Str("routed_to", item.RoutedTo).
		Msg("feedback ingested")
	return nil
}

// isFeedbackFile reports whether the path looks like a feedback drop file.
func isFeedbackFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// Close stops the watcher.
func (w *Watcher) Close() {
	close(w.done)
	if w.watcher != nil {
		w.watcher.Close()
	}
}
