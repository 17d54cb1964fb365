package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/jmallek/conclave/internal/triage"
	"github.com/jmallek/conclave/pkg/models"
)

type recordingRouter struct {
	items []models.FeedbackItem
	err   error
}

func (r *recordingRouter) RouteFeedback(item models.FeedbackItem) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	r.items = append(r.items, item)
	return "msg-" + item.ID, nil
}

func newTestWatcher(t *testing.T) (*Watcher, string, *recordingRouter) {
	t.Helper()

	dropDir := t.TempDir()
	router := &recordingRouter{}
	processor := triage.NewProcessor(triage.NewFeedbackStore(), zerolog.Nop())

	w, err := NewWatcher(dropDir, processor, router, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	return w, dropDir, router
}

func writeDropFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestProcessFile(t *testing.T) {
	w, dropDir, router := newTestWatcher(t)

	path := writeDropFile(t, dropDir, "report.yaml", `
user_id: u1
content: "The dashboard crashes on load, please fix urgently"
role: stakeholder
project_id: p1
`)

	if err := w.ProcessFile(path); err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}

	if len(router.items) != 1 {
		t.Fatalf("expected 1 routed item, got %d", len(router.items))
	}
	item := router.items[0]
	if item.UserID != "u1" {
		t.Errorf("user = %q", item.UserID)
	}
	if item.Category != models.CategoryBugReport {
		t.Errorf("category = %q", item.Category)
	}
	if item.ProjectID != "p1" {
		t.Errorf("project = %q", item.ProjectID)
	}

	// The file moved to processed/.
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("source file should be gone after processing")
	}
	processed := filepath.Join(dropDir, processedDir, "report.yaml")
	if _, err := os.Stat(processed); err != nil {
		t.Errorf("processed file missing: %v", err)
	}
}

func TestProcessFileRejectsIncomplete(t *testing.T) {
	w, dropDir, router := newTestWatcher(t)

	path := writeDropFile(t, dropDir, "empty.yaml", "user_id: u1\n")

	if err := w.ProcessFile(path); err == nil {
		t.Fatal("expected error for missing content")
	}
	if len(router.items) != 0 {
		t.Errorf("incomplete file must not be routed")
	}
	// The file stays put for inspection.
	if _, err := os.Stat(path); err != nil {
		t.Errorf("rejected file should remain: %v", err)
	}
}

func TestProcessFileRoutingFailureKeepsFile(t *testing.T) {
	w, dropDir, router := newTestWatcher(t)
	router.err = os.ErrDeadlineExceeded

	path := writeDropFile(t, dropDir, "note.yaml", "user_id: u1\ncontent: hello\n")

	if err := w.ProcessFile(path); err == nil {
		t.Fatal("expected routing error to propagate")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file should remain after routing failure: %v", err)
	}
}

func TestScan(t *testing.T) {
	w, dropDir, router := newTestWatcher(t)

	writeDropFile(t, dropDir, "a.yaml", "user_id: u1\ncontent: add dark mode please\n")
	writeDropFile(t, dropDir, "b.yml", "user_id: u2\ncontent: how does export work?\n")
	writeDropFile(t, dropDir, "ignore.txt", "not feedback")

	n, err := w.Scan()
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 processed, got %d", n)
	}
	if len(router.items) != 2 {
		t.Errorf("expected 2 routed items, got %d", len(router.items))
	}

	// Non-feedback files are untouched.
	if _, err := os.Stat(filepath.Join(dropDir, "ignore.txt")); err != nil {
		t.Errorf("ignored file should remain: %v", err)
	}
}

func TestIsFeedbackFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{path: "report.yaml", want: true},
		{path: "report.YML", want: true},
		{path: "report.json", want: false},
		{path: "report", want: false},
	}
	for _, tc := range tests {
		if got := isFeedbackFile(tc.path); got != tc.want {
			t.Errorf("isFeedbackFile(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}
