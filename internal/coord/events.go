package coord

import (
	"time"

	"github.com/jmallek/conclave/pkg/models"
)

// EventType represents the type of coordination event.
type EventType string

const (
	// EventMessageSent indicates a message was enqueued.
	EventMessageSent EventType = "message_sent"
	// EventBroadcastSent indicates a broadcast fan-out completed.
	EventBroadcastSent EventType = "broadcast_sent"
	// EventDeliverableCreated indicates a new deliverable was stored.
	EventDeliverableCreated EventType = "deliverable_created"
	// EventDeliverableTransferred indicates a deliverable handoff completed.
	EventDeliverableTransferred EventType = "deliverable_transferred"
	// EventApprovalSubmitted indicates a new approval request.
	EventApprovalSubmitted EventType = "approval_submitted"
	// EventDecisionRecorded indicates a human decision was recorded.
	EventDecisionRecorded EventType = "decision_recorded"
	// EventCheckpointCreated indicates a new checkpoint.
	EventCheckpointCreated EventType = "checkpoint_created"
	// EventCheckpointApproved indicates a checkpoint approval.
	EventCheckpointApproved EventType = "checkpoint_approved"
	// EventCheckpointRejected indicates a checkpoint rejection.
	EventCheckpointRejected EventType = "checkpoint_rejected"
	// EventCheckpointCompleted indicates administrative closure.
	EventCheckpointCompleted EventType = "checkpoint_completed"
	// EventFeedbackTriaged indicates human feedback was classified and routed.
	EventFeedbackTriaged EventType = "feedback_triaged"
)

// Event represents an event emitted by the coordinator. The TUI and CLI
// subscribe to these to track fleet activity.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// Source is the agent that initiated the operation, if applicable.
	Source string
	// Target is the receiving agent, if applicable.
	Target string
	// EntityID is the id of the message/deliverable/request/checkpoint.
	EntityID string
	// Priority is the message priority, for bus events.
	Priority models.Priority
	// Detail provides additional human-readable context.
	Detail string
	// Timestamp is when the event occurred.
	Timestamp time.Time
}
