package triage

import (
	"errors"
	"testing"
	"time"

	"github.com/jmallek/conclave/pkg/models"
)

func makeItem(id, userID string, category models.FeedbackCategory, priority models.Priority) models.FeedbackItem {
	now := time.Now()
	return models.FeedbackItem{
		ID:        id,
		UserID:    userID,
		Content:   "content for " + id,
		Category:  category,
		Priority:  priority,
		Sentiment: models.SentimentNeutral,
		Status:    models.ImplementationNotStarted,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestFeedbackStore_AddAndGet(t *testing.T) {
	store := NewFeedbackStore()
	store.Add(makeItem("a", "u1", models.CategoryBugReport, models.PriorityHigh))

	item, err := store.Get("a")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if item.UserID != "u1" {
		t.Errorf("user = %q", item.UserID)
	}

	if _, err := store.Get("missing"); !errors.Is(err, ErrFeedbackNotFound) {
		t.Errorf("expected ErrFeedbackNotFound, got %v", err)
	}
}

func TestFeedbackStore_UpdateStatus(t *testing.T) {
	store := NewFeedbackStore()
	store.Add(makeItem("a", "u1", models.CategoryBugReport, models.PriorityHigh))

	if err := store.UpdateStatus("a", models.ImplementationInProgress); err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}
	item, _ := store.Get("a")
	if item.Status != models.ImplementationInProgress {
		t.Errorf("status = %q", item.Status)
	}

	if err := store.UpdateStatus("a", "shelved"); err == nil {
		t.Error("unknown status must be rejected")
	}
	if err := store.UpdateStatus("missing", models.ImplementationCompleted); !errors.Is(err, ErrFeedbackNotFound) {
		t.Errorf("expected ErrFeedbackNotFound, got %v", err)
	}
}

func TestFeedbackStore_Filter(t *testing.T) {
	store := NewFeedbackStore()
	store.Add(makeItem("a", "u1", models.CategoryBugReport, models.PriorityCritical))
	store.Add(makeItem("b", "u2", models.CategoryBugReport, models.PriorityMedium))
	store.Add(makeItem("c", "u1", models.CategoryFeatureRequest, models.PriorityMedium))

	if got := store.Filter(FilterOptions{Category: models.CategoryBugReport}); len(got) != 2 {
		t.Errorf("category filter: expected 2, got %d", len(got))
	}
	if got := store.Filter(FilterOptions{UserID: "u1"}); len(got) != 2 {
		t.Errorf("user filter: expected 2, got %d", len(got))
	}
	if got := store.Filter(FilterOptions{Category: models.CategoryBugReport, Priority: models.PriorityCritical}); len(got) != 1 || got[0].ID != "a" {
		t.Errorf("combined filter: got %v", got)
	}
	if got := store.Filter(FilterOptions{}); len(got) != 3 {
		t.Errorf("empty filter should match everything, got %d", len(got))
	}

	// Creation order is preserved.
	all := store.Filter(FilterOptions{})
	if all[0].ID != "a" || all[2].ID != "c" {
		t.Errorf("filter order = %q..%q", all[0].ID, all[2].ID)
	}
}

func TestFeedbackStore_Summarize(t *testing.T) {
	store := NewFeedbackStore()
	store.Add(makeItem("a", "u1", models.CategoryBugReport, models.PriorityCritical))
	store.Add(makeItem("b", "u1", models.CategoryBugReport, models.PriorityMedium))

	question := makeItem("c", "u2", models.CategoryClarification, models.PriorityLow)
	question.RequiresResponse = true
	store.Add(question)

	sum := store.Summarize()
	if sum.Total != 3 {
		t.Errorf("total = %d", sum.Total)
	}
	if sum.ByCategory[models.CategoryBugReport] != 2 {
		t.Errorf("bug count = %d", sum.ByCategory[models.CategoryBugReport])
	}
	if sum.AwaitingResponse != 1 {
		t.Errorf("awaiting = %d", sum.AwaitingResponse)
	}

	store.AddResponse("c", models.RoleScrumMaster, "answered")
	if got := store.Summarize().AwaitingResponse; got != 0 {
		t.Errorf("awaiting after response = %d", got)
	}
}

func TestFeedbackStore_AnalyzeTrends(t *testing.T) {
	store := NewFeedbackStore()

	old := makeItem("old", "u1", models.CategoryBugReport, models.PriorityLow)
	old.CreatedAt = time.Now().Add(-48 * time.Hour)
	store.Add(old)

	a := makeItem("a", "u1", models.CategoryBugReport, models.PriorityCritical)
	a.Sentiment = models.SentimentNegative
	store.Add(a)
	b := makeItem("b", "u2", models.CategoryBugReport, models.PriorityMedium)
	store.Add(b)
	store.Add(makeItem("c", "u1", models.CategoryUsability, models.PriorityMedium))

	trends := store.AnalyzeTrends(24 * time.Hour)
	if len(trends) != 2 {
		t.Fatalf("expected 2 trends, got %d", len(trends))
	}
	if trends[0].Category != models.CategoryBugReport || trends[0].Count != 2 {
		t.Errorf("top trend = %+v", trends[0])
	}
	if trends[0].NegativeShare != 0.5 {
		t.Errorf("negative share = %v", trends[0].NegativeShare)
	}
	if trends[0].CriticalCount != 1 {
		t.Errorf("critical count = %d", trends[0].CriticalCount)
	}
}

func TestFeedbackStore_CopiesAreIsolated(t *testing.T) {
	store := NewFeedbackStore()
	item := makeItem("a", "u1", models.CategoryBugReport, models.PriorityHigh)
	item.ActionableItems = []string{"fix it"}
	store.Add(item)

	got, _ := store.Get("a")
	got.ActionableItems[0] = "tampered"

	fresh, _ := store.Get("a")
	if fresh.ActionableItems[0] != "fix it" {
		t.Error("caller mutation leaked into stored item")
	}
}
