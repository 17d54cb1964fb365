package models

import "time"

// Priority represents the urgency of a message.
type Priority string

const (
	// PriorityUserInitiated marks human-originated traffic. It outranks
	// every agent-to-agent priority including critical.
	PriorityUserInitiated Priority = "user_initiated"
	// PriorityCritical indicates the message blocks other work.
	PriorityCritical Priority = "critical"
	// PriorityHigh indicates the message should be handled promptly.
	PriorityHigh Priority = "high"
	// PriorityMedium is the default priority.
	PriorityMedium Priority = "medium"
	// PriorityLow indicates background traffic.
	PriorityLow Priority = "low"
)

// Valid returns true if the priority is a known value.
func (p Priority) Valid() bool {
	switch p {
	case PriorityUserInitiated, PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

// Rank returns the sort rank of the priority. Lower ranks sort first.
// Rank is recomputed on every read rather than fixed at enqueue time, so
// user-initiated traffic always sorts ahead of earlier critical traffic.
func (p Priority) Rank() int {
	switch p {
	case PriorityUserInitiated:
		return 0
	case PriorityCritical:
		return 1
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 3
	case PriorityLow:
		return 4
	default:
		return 5
	}
}

// MessageKind represents the type of a message envelope.
type MessageKind string

const (
	// KindInstruction directs an agent to perform work.
	KindInstruction MessageKind = "instruction"
	// KindRequest asks an agent for information or action.
	KindRequest MessageKind = "request"
	// KindResponse answers a prior request (via CorrelationID).
	KindResponse MessageKind = "response"
	// KindNotification carries informational state changes.
	KindNotification MessageKind = "notification"
	// KindError reports a failure to another agent.
	KindError MessageKind = "error"
	// KindDeliverable announces a work product by reference.
	KindDeliverable MessageKind = "deliverable"
	// KindUserFeedback carries triaged human feedback.
	KindUserFeedback MessageKind = "user_feedback"
	// KindApprovalRequest asks the scrum master to collect a human decision.
	KindApprovalRequest MessageKind = "approval_request"
	// KindMilestonePresentation announces a deliverable meant for the human.
	KindMilestonePresentation MessageKind = "milestone_presentation"
	// KindUserDecision carries a recorded human decision back to a requestor.
	KindUserDecision MessageKind = "user_decision"
)

// Valid returns true if the kind is a known value.
func (k MessageKind) Valid() bool {
	switch k {
	case KindInstruction, KindRequest, KindResponse, KindNotification, KindError,
		KindDeliverable, KindUserFeedback, KindApprovalRequest,
		KindMilestonePresentation, KindUserDecision:
		return true
	default:
		return false
	}
}

// MessageStatus represents the delivery state of a message.
// Status only advances forward; a message is never re-queued after delivery.
type MessageStatus string

const (
	// StatusCreated indicates the message exists but is not yet enqueued.
	StatusCreated MessageStatus = "created"
	// StatusQueued indicates the message sits in a channel queue.
	StatusQueued MessageStatus = "queued"
	// StatusProcessing indicates a recipient is working on the message.
	StatusProcessing MessageStatus = "processing"
	// StatusDelivered indicates the message left the queue.
	StatusDelivered MessageStatus = "delivered"
	// StatusAcknowledged indicates the recipient explicitly acknowledged it.
	StatusAcknowledged MessageStatus = "acknowledged"
)

// Valid returns true if the status is a known value.
func (s MessageStatus) Valid() bool {
	switch s {
	case StatusCreated, StatusQueued, StatusProcessing, StatusDelivered, StatusAcknowledged:
		return true
	default:
		return false
	}
}

// ordinal returns the forward-progress position of the status.
func (s MessageStatus) ordinal() int {
	switch s {
	case StatusCreated:
		return 0
	case StatusQueued:
		return 1
	case StatusProcessing:
		return 2
	case StatusDelivered:
		return 3
	case StatusAcknowledged:
		return 4
	default:
		return -1
	}
}

// CanAdvanceTo returns true if moving from s to next is a forward transition.
func (s MessageStatus) CanAdvanceTo(next MessageStatus) bool {
	return next.ordinal() > s.ordinal()
}

// Message is the immutable envelope exchanged between agents.
// Only Status mutates after creation, and only forward.
type Message struct {
	// ID is the unique identifier for this message.
	ID string `json:"id"`
	// Source is the sending agent id.
	Source string `json:"source"`
	// Target is the receiving agent id, or TargetBroadcast.
	Target string `json:"target"`
	// Payload is opaque structured content. The coordination layer never
	// inspects it.
	Payload any `json:"payload,omitempty"`
	// Kind is the message type.
	Kind MessageKind `json:"kind"`
	// Priority is the message urgency.
	Priority Priority `json:"priority"`
	// CorrelationID references the request this message responds to.
	CorrelationID string `json:"correlation_id,omitempty"`
	// TaskID is the related task, if any.
	TaskID string `json:"task_id,omitempty"`
	// UserID identifies the human behind human-originated traffic.
	UserID string `json:"user_id,omitempty"`
	// UserContext carries extra context for human-originated traffic.
	UserContext map[string]any `json:"user_context,omitempty"`
	// Timestamp is when the message was created.
	Timestamp time.Time `json:"timestamp"`
	// Status is the delivery state. It only moves forward.
	Status MessageStatus `json:"status"`
}
