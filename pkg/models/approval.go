package models

import "time"

// ApprovalStatus represents the lifecycle of an approval request.
type ApprovalStatus string

const (
	// ApprovalPending indicates no decision has been recorded yet.
	ApprovalPending ApprovalStatus = "pending"
	// ApprovalDecided indicates a decision has been recorded.
	ApprovalDecided ApprovalStatus = "decided"
)

// Valid returns true if the status is a known value.
func (s ApprovalStatus) Valid() bool {
	return s == ApprovalPending || s == ApprovalDecided
}

// Standard decision labels for approval requests.
const (
	// DecisionApprove accepts the presented content.
	DecisionApprove = "approve"
	// DecisionReject declines the presented content.
	DecisionReject = "reject"
)

// DefaultDecisionOptions returns the default option set for a request.
func DefaultDecisionOptions() []string {
	return []string{DecisionApprove, DecisionReject}
}

// ApprovalRequest is a single human decision request tied to deliverable
// content. A decision is recorded at most once; the first decision wins.
type ApprovalRequest struct {
	// ID is the unique identifier for this request.
	ID string `json:"id"`
	// Title is the short summary shown to the human.
	Title string `json:"title"`
	// Description explains what is being decided.
	Description string `json:"description,omitempty"`
	// RequestingAgent is the agent awaiting the decision.
	RequestingAgent string `json:"requesting_agent"`
	// Content is the deliverable content under review.
	Content any `json:"content"`
	// UserID identifies the human the request is addressed to.
	UserID string `json:"user_id"`
	// ProjectID is the related project, if any.
	ProjectID string `json:"project_id,omitempty"`
	// TaskID is the related task, if any.
	TaskID string `json:"task_id,omitempty"`
	// Deadline is an advisory soft deadline; the core never auto-expires.
	Deadline *time.Time `json:"deadline,omitempty"`
	// Options is the finite decision set, defaulting to approve/reject.
	Options []string `json:"options"`
	// Status is pending until a decision is recorded.
	Status ApprovalStatus `json:"status"`
	// Decision is the recorded decision label, if any.
	Decision string `json:"decision,omitempty"`
	// DecisionFeedback is optional free-text feedback from the decider.
	DecisionFeedback string `json:"decision_feedback,omitempty"`
	// DecidedAt is when the decision was recorded.
	DecidedAt *time.Time `json:"decided_at,omitempty"`
	// CreatedAt is when the request was submitted.
	CreatedAt time.Time `json:"created_at"`
}

// Decided returns true if a decision has been recorded.
func (r *ApprovalRequest) Decided() bool {
	return r.Status == ApprovalDecided
}
