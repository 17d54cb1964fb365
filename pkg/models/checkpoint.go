package models

import "time"

// CheckpointType represents the kind of human-facing checkpoint.
type CheckpointType string

const (
	// CheckpointMilestone marks a project milestone.
	CheckpointMilestone CheckpointType = "milestone"
	// CheckpointDeliverable wraps a deliverable presentation.
	CheckpointDeliverable CheckpointType = "deliverable"
	// CheckpointApprovalGate blocks progress on a human approval.
	CheckpointApprovalGate CheckpointType = "approval_gate"
	// CheckpointFeedbackRequest collects structured human feedback.
	CheckpointFeedbackRequest CheckpointType = "feedback"
	// CheckpointDecisionPoint surfaces a decision with multiple options.
	CheckpointDecisionPoint CheckpointType = "decision_point"
)

// Valid returns true if the type is a known value.
func (t CheckpointType) Valid() bool {
	switch t {
	case CheckpointMilestone, CheckpointDeliverable, CheckpointApprovalGate,
		CheckpointFeedbackRequest, CheckpointDecisionPoint:
		return true
	default:
		return false
	}
}

// CheckpointStatus represents the checkpoint lifecycle state.
type CheckpointStatus string

const (
	// CheckpointPending is the initial state.
	CheckpointPending CheckpointStatus = "pending"
	// CheckpointFeedbackPending indicates feedback arrived while pending.
	CheckpointFeedbackPending CheckpointStatus = "feedback_pending"
	// CheckpointRevisionNeeded indicates rejection with a revision request.
	CheckpointRevisionNeeded CheckpointStatus = "revision_needed"
	// CheckpointRejected indicates rejection without a revision loop.
	CheckpointRejected CheckpointStatus = "rejected"
	// CheckpointApproved indicates human approval.
	CheckpointApproved CheckpointStatus = "approved"
	// CheckpointCompleted indicates explicit administrative closure.
	CheckpointCompleted CheckpointStatus = "completed"
)

// Valid returns true if the status is a known value.
func (s CheckpointStatus) Valid() bool {
	switch s {
	case CheckpointPending, CheckpointFeedbackPending, CheckpointRevisionNeeded,
		CheckpointRejected, CheckpointApproved, CheckpointCompleted:
		return true
	default:
		return false
	}
}

// Metadata keys set by the checkpoint manager.
const (
	// MetaDeadlinePassed flags a soft deadline that expired while pending.
	// Expiry is advisory; it never transitions status by itself.
	MetaDeadlinePassed = "deadline_passed"
	// MetaMissingFeedback flags a rejection that carried no feedback entry.
	MetaMissingFeedback = "missing_feedback"
)

// CheckpointFeedback is one structured feedback entry on a checkpoint.
type CheckpointFeedback struct {
	// Author is the user or agent that supplied the feedback.
	Author string `json:"author"`
	// Content is the feedback text.
	Content string `json:"content"`
	// CreatedAt is when the feedback was attached.
	CreatedAt time.Time `json:"created_at"`
}

// ApprovalAction is one entry in a checkpoint's approval history.
// History entries are appended on every approve/reject/complete action and
// never removed.
type ApprovalAction struct {
	// Action is the history verb: "approved", "rejected", or "completed".
	Action string `json:"action"`
	// Actor identifies who performed the action.
	Actor string `json:"actor,omitempty"`
	// Notes carries optional action notes or the rejection reason.
	Notes string `json:"notes,omitempty"`
	// Timestamp is when the action happened.
	Timestamp time.Time `json:"timestamp"`
}

// Checkpoint is the human-facing milestone/approval-gate record. It keeps
// its own status independent of any wrapped ApprovalRequest.
type Checkpoint struct {
	// ID is the unique identifier for this checkpoint.
	ID string `json:"id"`
	// Type is the checkpoint kind.
	Type CheckpointType `json:"type"`
	// Title is the short human-facing summary.
	Title string `json:"title"`
	// Description explains what the checkpoint covers.
	Description string `json:"description,omitempty"`
	// ProjectID is the associated project, if any.
	ProjectID string `json:"project_id,omitempty"`
	// MilestoneID is the associated milestone, if any.
	MilestoneID string `json:"milestone_id,omitempty"`
	// ApprovalRequestID links the wrapped approval request, if any.
	ApprovalRequestID string `json:"approval_request_id,omitempty"`
	// RequiresApproval indicates the checkpoint gates on a human decision.
	RequiresApproval bool `json:"requires_approval"`
	// Status is the lifecycle state.
	Status CheckpointStatus `json:"status"`
	// ApprovalDeadline is an advisory soft deadline.
	ApprovalDeadline *time.Time `json:"approval_deadline,omitempty"`
	// Feedback is the ordered, append-only feedback list.
	Feedback []CheckpointFeedback `json:"feedback,omitempty"`
	// ApprovalHistory is the ordered, append-only action history.
	ApprovalHistory []ApprovalAction `json:"approval_history,omitempty"`
	// Metadata carries auxiliary flags such as MetaDeadlinePassed.
	Metadata map[string]any `json:"metadata,omitempty"`
	// CreatedAt is when the checkpoint was created.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the checkpoint last changed.
	UpdatedAt time.Time `json:"updated_at"`
}
