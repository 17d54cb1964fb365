package completion

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jmallek/conclave/pkg/models"
)

type stubCompleter struct {
	reply      string
	err        error
	lastPrompt string
}

func (s *stubCompleter) Complete(_ context.Context, _, userPrompt string) (string, error) {
	s.lastPrompt = userPrompt
	return s.reply, s.err
}

func TestResponder_DraftResponse(t *testing.T) {
	stub := &stubCompleter{reply: "  The interval defaults to five minutes.  "}
	r := NewResponder(stub)

	item := models.FeedbackItem{
		ID:              "fb1",
		UserID:          "u1",
		Content:         "How often does sync run?",
		Category:        models.CategoryClarification,
		ActionableItems: []string{"document the sync interval"},
	}

	draft, err := r.DraftResponse(item)
	if err != nil {
		t.Fatalf("DraftResponse failed: %v", err)
	}
	if draft != "The interval defaults to five minutes." {
		t.Errorf("draft = %q", draft)
	}

	if !strings.Contains(stub.lastPrompt, "How often does sync run?") {
		t.Errorf("prompt missing feedback content: %q", stub.lastPrompt)
	}
	if !strings.Contains(stub.lastPrompt, "document the sync interval") {
		t.Errorf("prompt missing actionable items: %q", stub.lastPrompt)
	}
}

func TestResponder_DraftResponseError(t *testing.T) {
	stub := &stubCompleter{err: errors.New("api unavailable")}
	r := NewResponder(stub)

	if _, err := r.DraftResponse(models.FeedbackItem{ID: "fb1"}); err == nil {
		t.Fatal("expected error to propagate")
	}
}

func TestTokenTracker(t *testing.T) {
	tracker := NewTokenTracker()

	tracker.Add(100, 50)
	tracker.Add(200, 75)

	in, out := tracker.Total()
	if in != 300 || out != 125 {
		t.Errorf("totals = %d/%d", in, out)
	}
	if tracker.Calls() != 2 {
		t.Errorf("calls = %d", tracker.Calls())
	}

	tracker.Reset()
	in, out = tracker.Total()
	if in != 0 || out != 0 || tracker.Calls() != 0 {
		t.Error("reset did not clear the tracker")
	}
}

func TestTranslateModelForBedrock(t *testing.T) {
	got := translateModelForBedrock("claude-sonnet-4-20250514")
	if got != "us.anthropic.claude-sonnet-4-20250514-v1:0" {
		t.Errorf("translated = %q", got)
	}

	// Unknown models pass through untouched.
	custom := translateModelForBedrock("us.anthropic.custom-model-v1:0")
	if custom != "us.anthropic.custom-model-v1:0" {
		t.Errorf("custom = %q", custom)
	}
}
