package triage

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jmallek/conclave/pkg/models"
)

// ErrFeedbackNotFound indicates an unknown feedback item id.
var ErrFeedbackNotFound = fmt.Errorf("feedback item not found")

// FeedbackStore owns every triaged feedback item. Items mutate only through
// UpdateStatus and AddResponse and are never deleted; superseded items
// remain for audit and trend analysis.
type FeedbackStore struct {
	// mu protects items and order.
	mu    sync.RWMutex
	items map[string]*models.FeedbackItem
	order []string
}

// NewFeedbackStore creates an empty FeedbackStore.
func NewFeedbackStore() *FeedbackStore {
	return &FeedbackStore{
		items: make(map[string]*models.FeedbackItem),
	}
}

// Add stores a triaged item.
func (s *FeedbackStore) Add(item models.FeedbackItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := item
	s.items[item.ID] = &stored
	s.order = append(s.order, item.ID)
}

// Get returns a copy of the item with the given id.
func (s *FeedbackStore) Get(id string) (models.FeedbackItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return models.FeedbackItem{}, fmt.Errorf("%q: %w", id, ErrFeedbackNotFound)
	}
	return copyItem(item), nil
}

// UpdateStatus sets the implementation status of an item.
func (s *FeedbackStore) UpdateStatus(id string, status models.ImplementationStatus) error {
	if !status.Valid() {
		return fmt.Errorf("status %q is not a known implementation status", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return fmt.Errorf("%q: %w", id, ErrFeedbackNotFound)
	}
	item.Status = status
	item.UpdatedAt = time.Now()
	return nil
}

// AddResponse appends a reply to an item's response list.
func (s *FeedbackStore) AddResponse(id, responder, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return fmt.Errorf("%q: %w", id, ErrFeedbackNotFound)
	}
	item.Responses = append(item.Responses, models.FeedbackResponse{
		Responder: responder,
		Content:   content,
		CreatedAt: time.Now(),
	})
	item.UpdatedAt = time.Now()
	return nil
}

// FilterOptions selects feedback items. Zero values match everything.
type FilterOptions struct {
	// Category restricts to one category.
	Category models.FeedbackCategory
	// Priority restricts to one priority.
	Priority models.Priority
	// UserID restricts to one user.
	UserID string
	// ProjectID restricts to one project.
	ProjectID string
	// Status restricts to one implementation status.
	Status models.ImplementationStatus
	// RequiresResponse restricts to items awaiting a reply.
	RequiresResponse bool
	// Since restricts to items created at or after this time.
	Since time.Time
}

// Filter returns copies of items matching the options, in creation order.
func (s *FeedbackStore) Filter(opts FilterOptions) []models.FeedbackItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.FeedbackItem, 0)
	for _, id := range s.order {
		item, ok := s.items[id]
		if !ok {
			continue
		}
		if opts.Category != "" && item.Category != opts.Category {
			continue
		}
		if opts.Priority != "" && item.Priority != opts.Priority {
			continue
		}
		if opts.UserID != "" && item.UserID != opts.UserID {
			continue
		}
		if opts.ProjectID != "" && item.ProjectID != opts.ProjectID {
			continue
		}
		if opts.Status != "" && item.Status != opts.Status {
			continue
		}
		if opts.RequiresResponse && !item.RequiresResponse {
			continue
		}
		if !opts.Since.IsZero() && item.CreatedAt.Before(opts.Since) {
			continue
		}
		out = append(out, copyItem(item))
	}
	return out
}

// Summary aggregates the feedback table for reporting.
type Summary struct {
	// Total is the number of stored items.
	Total int
	// ByCategory counts items per category.
	ByCategory map[models.FeedbackCategory]int
	// ByPriority counts items per priority.
	ByPriority map[models.Priority]int
	// BySentiment counts items per sentiment.
	BySentiment map[models.Sentiment]int
	// ByStatus counts items per implementation status.
	ByStatus map[models.ImplementationStatus]int
	// AwaitingResponse counts items that require a reply and have none.
	AwaitingResponse int
}

// Summarize aggregates all stored items.
func (s *FeedbackStore) Summarize() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := Summary{
		ByCategory:  make(map[models.FeedbackCategory]int),
		ByPriority:  make(map[models.Priority]int),
		BySentiment: make(map[models.Sentiment]int),
		ByStatus:    make(map[models.ImplementationStatus]int),
	}
	for _, item := range s.items {
		sum.Total++
		sum.ByCategory[item.Category]++
		sum.ByPriority[item.Priority]++
		sum.BySentiment[item.Sentiment]++
		sum.ByStatus[item.Status]++
		if item.RequiresResponse && len(item.Responses) == 0 {
			sum.AwaitingResponse++
		}
	}
	return sum
}

// Trend describes activity for one category over the analysis window.
type Trend struct {
	// Category is the trending category.
	Category models.FeedbackCategory
	// Count is how many items arrived inside the window.
	Count int
	// NegativeShare is the fraction of those items with negative sentiment.
	NegativeShare float64
	// CriticalCount is how many of those items were critical priority.
	CriticalCount int
}

// AnalyzeTrends reports per-category activity for items created inside the
// window, sorted by count descending then category name for stable output.
func (s *FeedbackStore) AnalyzeTrends(window time.Duration) []Trend {
	cutoff := time.Now().Add(-window)

	s.mu.RLock()
	counts := make(map[models.FeedbackCategory]*Trend)
	for _, item := range s.items {
		if item.CreatedAt.Before(cutoff) {
			continue
		}
		t, ok := counts[item.Category]
		if !ok {
			t = &Trend{Category: item.Category}
			counts[item.Category] = t
		}
		t.Count++
		if item.Sentiment == models.SentimentNegative {
			t.NegativeShare++
		}
		if item.Priority == models.PriorityCritical {
			t.CriticalCount++
		}
	}
	s.mu.RUnlock()

	out := make([]Trend, 0, len(counts))
	for _, t := range counts {
		if t.Count > 0 {
			t.NegativeShare /= float64(t.Count)
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// Count returns the number of stored items.
func (s *FeedbackStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// copyItem deep-copies the slices so callers cannot mutate stored state.
func copyItem(item *models.FeedbackItem) models.FeedbackItem {
	out := *item
	out.ActionableItems = append([]string(nil), item.ActionableItems...)
	out.Responses = append([]models.FeedbackResponse(nil), item.Responses...)
	return out
}
