package models

import "time"

// FeedbackCategory classifies a piece of human feedback.
type FeedbackCategory string

const (
	// CategoryBugReport describes broken behavior.
	CategoryBugReport FeedbackCategory = "bug_report"
	// CategoryFeatureRequest asks for new functionality.
	CategoryFeatureRequest FeedbackCategory = "feature_request"
	// CategoryImprovement suggests enhancing existing behavior.
	CategoryImprovement FeedbackCategory = "improvement"
	// CategoryUsability concerns user experience friction.
	CategoryUsability FeedbackCategory = "usability"
	// CategoryClarification asks a question about behavior or scope.
	CategoryClarification FeedbackCategory = "clarification"
	// CategoryGeneral is the fallback when nothing else matches.
	CategoryGeneral FeedbackCategory = "general"
	// CategoryTechnical concerns internals like APIs or performance.
	CategoryTechnical FeedbackCategory = "technical"
	// CategoryRequirementChange modifies agreed scope.
	CategoryRequirementChange FeedbackCategory = "requirement_change"
)

// Valid returns true if the category is a known value.
func (c FeedbackCategory) Valid() bool {
	switch c {
	case CategoryBugReport, CategoryFeatureRequest, CategoryImprovement,
		CategoryUsability, CategoryClarification, CategoryGeneral,
		CategoryTechnical, CategoryRequirementChange:
		return true
	default:
		return false
	}
}

// Sentiment classifies the tone of feedback text.
type Sentiment string

const (
	// SentimentPositive indicates predominantly positive tone.
	SentimentPositive Sentiment = "positive"
	// SentimentNeutral indicates no detectable tone.
	SentimentNeutral Sentiment = "neutral"
	// SentimentNegative indicates predominantly negative tone.
	SentimentNegative Sentiment = "negative"
	// SentimentMixed indicates comparable positive and negative signals.
	SentimentMixed Sentiment = "mixed"
)

// Valid returns true if the sentiment is a known value.
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative, SentimentMixed:
		return true
	default:
		return false
	}
}

// ImplementationStatus tracks what happened to a feedback item.
type ImplementationStatus string

const (
	// ImplementationNotStarted is the initial state.
	ImplementationNotStarted ImplementationStatus = "not_started"
	// ImplementationInProgress indicates work is underway.
	ImplementationInProgress ImplementationStatus = "in_progress"
	// ImplementationCompleted indicates the feedback was addressed.
	ImplementationCompleted ImplementationStatus = "completed"
	// ImplementationWontImplement indicates the feedback was declined.
	ImplementationWontImplement ImplementationStatus = "wont_implement"
	// ImplementationNeedsClarification indicates a follow-up question is out.
	ImplementationNeedsClarification ImplementationStatus = "needs_clarification"
)

// Valid returns true if the status is a known value.
func (s ImplementationStatus) Valid() bool {
	switch s {
	case ImplementationNotStarted, ImplementationInProgress, ImplementationCompleted,
		ImplementationWontImplement, ImplementationNeedsClarification:
		return true
	default:
		return false
	}
}

// FeedbackResponse is one reply recorded against a feedback item.
type FeedbackResponse struct {
	// Responder is the agent or user that replied.
	Responder string `json:"responder"`
	// Content is the reply text.
	Content string `json:"content"`
	// CreatedAt is when the reply was recorded.
	CreatedAt time.Time `json:"created_at"`
}

// FeedbackItem is the structured result of triaging free-text human input.
// Items are created once by the triage pipeline and mutate only through
// status updates and response appends; they are never deleted.
type FeedbackItem struct {
	// ID is the unique identifier for this item.
	ID string `json:"id"`
	// UserID identifies the human who gave the feedback.
	UserID string `json:"user_id"`
	// Content is the raw feedback text.
	Content string `json:"content"`
	// Category is the triaged classification.
	Category FeedbackCategory `json:"category"`
	// Priority is the triaged urgency (never user_initiated).
	Priority Priority `json:"priority"`
	// Sentiment is the triaged tone.
	Sentiment Sentiment `json:"sentiment"`
	// ProjectID is the related project, if known.
	ProjectID string `json:"project_id,omitempty"`
	// ComponentID is the related component, if known.
	ComponentID string `json:"component_id,omitempty"`
	// TaskID is the related task, if known.
	TaskID string `json:"task_id,omitempty"`
	// RequiresResponse indicates the human expects a reply.
	RequiresResponse bool `json:"requires_response"`
	// ActionableItems are extracted imperative/request clauses.
	ActionableItems []string `json:"actionable_items,omitempty"`
	// RoutedTo is the destination role, or RouteMultiple.
	RoutedTo string `json:"routed_to"`
	// Status is the implementation state.
	Status ImplementationStatus `json:"status"`
	// Responses is the ordered reply list.
	Responses []FeedbackResponse `json:"responses,omitempty"`
	// CreatedAt is when the item was triaged.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the item last changed.
	UpdatedAt time.Time `json:"updated_at"`
}
