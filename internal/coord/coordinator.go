package coord

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jmallek/conclave/pkg/models"
)

// Coordinator is the single shared façade composing the registry, message
// bus, deliverable store, approval workflow and checkpoint manager. One
// Coordinator is constructed per process and passed by reference to every
// agent-facing caller; there are no package-level singletons.
type Coordinator struct {
	registry     *AgentRegistry
	bus          *MessageBus
	deliverables *DeliverableStore
	approvals    *ApprovalManager
	checkpoints  *CheckpointManager
	events       *EventEmitter
	logger       zerolog.Logger
}

// Options configures a Coordinator.
type Options struct {
	// Roles are the agent ids registered at construction. Defaults to
	// models.DefaultRoles when empty.
	Roles []string
	// EventBuffer is the emitter channel capacity. Defaults to 64.
	EventBuffer int
	// Logger is the base logger. Defaults to a nop logger.
	Logger *zerolog.Logger
}

// New creates a Coordinator with the standard fleet plus the reserved "user"
// agent registered.
func New(opts Options) *Coordinator {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	roles := opts.Roles
	if len(roles) == 0 {
		roles = models.DefaultRoles()
	}

	bufSize := opts.EventBuffer
	if bufSize <= 0 {
		bufSize = 64
	}

	registry := NewAgentRegistry()
	bus := NewMessageBus(registry, logger)

	c := &Coordinator{
		registry:     registry,
		bus:          bus,
		deliverables: NewDeliverableStore(logger),
		approvals:    NewApprovalManager(registry, bus, logger),
		checkpoints:  NewCheckpointManager(bus, logger),
		events:       NewEventEmitter(bufSize, logger),
		logger:       logger.With().Str("component", "coordinator").Logger(),
	}

	for _, role := range roles {
		registry.Register(role)
	}
	// Human traffic enters through the reserved user agent.
	registry.Register(models.SourceUser)

	return c
}

// RegisterAgent adds an agent to the live set. Idempotent.
func (c *Coordinator) RegisterAgent(agentID string) {
	c.registry.Register(agentID)
}

// UnregisterAgent removes an agent from the live set. Channels and inbox are
// retained for audit.
func (c *Coordinator) UnregisterAgent(agentID string) {
	c.registry.Unregister(agentID)
}

// Registry exposes membership queries.
func (c *Coordinator) Registry() *AgentRegistry { return c.registry }

// Bus exposes the message bus.
func (c *Coordinator) Bus() *MessageBus { return c.bus }

// Deliverables exposes the deliverable store.
func (c *Coordinator) Deliverables() *DeliverableStore { return c.deliverables }

// Approvals exposes the approval workflow.
func (c *Coordinator) Approvals() *ApprovalManager { return c.approvals }

// Checkpoints exposes the checkpoint manager.
func (c *Coordinator) Checkpoints() *CheckpointManager { return c.checkpoints }

// Events returns the coordination event stream.
func (c *Coordinator) Events() <-chan Event { return c.events.Events() }

// Close shuts down the event stream.
func (c *Coordinator) Close() { c.events.Close() }

// Send enqueues a message on the bus and emits a coordination event.
func (c *Coordinator) Send(req SendRequest) (string, error) {
	id, err := c.bus.Send(req)
	if err != nil {
		return "", err
	}

	eventType := EventMessageSent
	if req.Target == models.TargetBroadcast {
		eventType = EventBroadcastSent
	}
	c.events.Emit(Event{
		Type:     eventType,
		Source:   req.Source,
		Target:   req.Target,
		EntityID: id,
		Priority: req.Priority,
	})
	return id, nil
}

// Receive reads from an agent's inbox. See MessageBus.Receive.
func (c *Coordinator) Receive(agentID string, opts ReceiveOptions) []models.Message {
	return c.bus.Receive(agentID, opts)
}

// Acknowledge acknowledges a message in an agent's inbox. Idempotent.
func (c *Coordinator) Acknowledge(agentID, messageID string) bool {
	return c.bus.Acknowledge(agentID, messageID)
}

// CreateDeliverable stores a new work product and emits an event.
func (c *Coordinator) CreateDeliverable(req CreateRequest) (string, error) {
	id, err := c.deliverables.Create(req)
	if err != nil {
		return "", err
	}
	c.events.Emit(Event{
		Type:     EventDeliverableCreated,
		Source:   req.SourceAgent,
		EntityID: id,
	})
	return id, nil
}

// TransferRequest carries the parameters of a TransferDeliverable call.
type TransferRequest struct {
	// Source is the producing agent. Must be registered.
	Source string
	// Target is the receiving agent. Must be registered.
	Target string
	// Content is the work product.
	Content any
	// Type is the deliverable kind. Required.
	Type models.DeliverableType
	// TaskID is the related task, if any.
	TaskID string
	// ForUserPresentation flags content meant for the human.
	ForUserPresentation bool
	// UserID marks the human behind the transfer, if any.
	UserID string
}

// TransferDeliverable creates a deliverable and announces it to the target
// by reference: the message carries the deliverable id and a short note, not
// the content, so large products never duplicate across the bus. When the
// target is the scrum master and the content is for user presentation the
// announcement is a milestone_presentation.
//
// Transfer is all-or-nothing: a failed send rolls the created deliverable
// back. The store lock is released before the bus lock is taken, so there is
// no lock-order inversion between the two.
func (c *Coordinator) TransferDeliverable(req TransferRequest) (string, error) {
	if !c.registry.IsRegistered(req.Source) {
		return "", fmt.Errorf("source %q: %w", req.Source, ErrUnknownAgent)
	}

	id, err := c.deliverables.Create(CreateRequest{
		Content:             req.Content,
		Type:                req.Type,
		SourceAgent:         req.Source,
		TaskID:              req.TaskID,
		ForUserPresentation: req.ForUserPresentation,
	})
	if err != nil {
		return "", err
	}

	kind := models.KindDeliverable
	if req.ForUserPresentation && req.Target == models.RoleScrumMaster {
		kind = models.KindMilestonePresentation
	}

	_, err = c.bus.Send(SendRequest{
		Source:   req.Source,
		Target:   req.Target,
		Kind:     kind,
		Priority: models.PriorityMedium,
		TaskID:   req.TaskID,
		UserID:   req.UserID,
		Payload: map[string]any{
			"deliverable_id": id,
			"type":           string(req.Type),
			"note":           fmt.Sprintf("%s deliverable from %s", req.Type, req.Source),
		},
	})
	if err != nil {
		c.deliverables.remove(id)
		c.logger.Warn().
			Str("deliverable_id", id).
			Str("target", req.Target).
			Msg("transfer rolled back after failed send")
		return "", fmt.Errorf("%w: %v", ErrDeliveryFailure, err)
	}

	c.events.Emit(Event{
		Type:     EventDeliverableTransferred,
		Source:   req.Source,
		Target:   req.Target,
		EntityID: id,
	})
	return id, nil
}

// NewDeliverableVersion creates a successor version of a deliverable.
func (c *Coordinator) NewDeliverableVersion(id string, content any, version string) (string, error) {
	return c.deliverables.NewVersion(id, content, version)
}

// SubmitApproval submits an approval request routed to the scrum master.
func (c *Coordinator) SubmitApproval(req SubmitRequest) (string, error) {
	id, err := c.approvals.Submit(req)
	if err != nil {
		return "", err
	}
	c.events.Emit(Event{
		Type:     EventApprovalSubmitted,
		Source:   req.RequestingAgent,
		Target:   models.RoleScrumMaster,
		EntityID: id,
		Detail:   req.Title,
	})
	return id, nil
}

// RecordDecision records a human decision on an approval request.
func (c *Coordinator) RecordDecision(requestID, decision, feedback string) (bool, error) {
	ok, err := c.approvals.RecordDecision(requestID, decision, feedback)
	if ok {
		c.events.Emit(Event{
			Type:     EventDecisionRecorded,
			EntityID: requestID,
			Detail:   decision,
		})
	}
	return ok, err
}

// CreateCheckpoint creates a milestone checkpoint.
func (c *Coordinator) CreateCheckpoint(req CheckpointRequest) (string, error) {
	id, err := c.checkpoints.Create(req)
	if err != nil {
		return "", err
	}
	c.events.Emit(Event{
		Type:     EventCheckpointCreated,
		EntityID: id,
		Detail:   req.Title,
	})
	return id, nil
}

// ApproveCheckpoint approves a checkpoint and notifies the team lead.
func (c *Coordinator) ApproveCheckpoint(checkpointID, actor, notes string) error {
	if err := c.checkpoints.Approve(checkpointID, actor, notes); err != nil {
		return err
	}
	c.events.Emit(Event{Type: EventCheckpointApproved, EntityID: checkpointID, Source: actor})
	return c.checkpoints.NotifyTeamLead(checkpointID, NotifyApproval)
}

// RejectCheckpoint rejects a checkpoint and notifies the team lead.
func (c *Coordinator) RejectCheckpoint(checkpointID, actor, reason, feedback string, requiresRevision bool) error {
	if err := c.checkpoints.Reject(checkpointID, actor, reason, feedback, requiresRevision); err != nil {
		return err
	}
	c.events.Emit(Event{Type: EventCheckpointRejected, EntityID: checkpointID, Source: actor, Detail: reason})
	return c.checkpoints.NotifyTeamLead(checkpointID, NotifyRejection)
}

// AddCheckpointFeedback attaches feedback and notifies the team lead.
func (c *Coordinator) AddCheckpointFeedback(checkpointID, author, content string) error {
	if err := c.checkpoints.AddFeedback(checkpointID, author, content); err != nil {
		return err
	}
	return c.checkpoints.NotifyTeamLead(checkpointID, NotifyFeedback)
}

// CompleteCheckpoint administratively closes a checkpoint into finalStatus.
func (c *Coordinator) CompleteCheckpoint(checkpointID, actor string, finalStatus models.CheckpointStatus, notes string) error {
	if err := c.checkpoints.Complete(checkpointID, actor, finalStatus, notes); err != nil {
		return err
	}
	c.events.Emit(Event{
		Type:     EventCheckpointCompleted,
		EntityID: checkpointID,
		Source:   actor,
		Detail:   string(finalStatus),
	})
	return nil
}

// RouteFeedback delivers a triaged feedback item onto the bus as a
// user_feedback message from the reserved user agent to the routed role.
// Items routed to multiple owners are broadcast.
func (c *Coordinator) RouteFeedback(item models.FeedbackItem) (string, error) {
	target := item.RoutedTo
	if target == models.RouteMultiple {
		target = models.TargetBroadcast
	}

	id, err := c.bus.Send(SendRequest{
		Source:   models.SourceUser,
		Target:   target,
		Kind:     models.KindUserFeedback,
		Priority: item.Priority,
		TaskID:   item.TaskID,
		UserID:   item.UserID,
		Payload: map[string]any{
			"feedback_id": item.ID,
			"category":    string(item.Category),
			"sentiment":   string(item.Sentiment),
			"content":     item.Content,
			"actionable":  item.ActionableItems,
		},
	})
	if err != nil {
		return "", err
	}

	c.events.Emit(Event{
		Type:      EventFeedbackTriaged,
		Source:    models.SourceUser,
		Target:    target,
		EntityID:  item.ID,
		Priority:  item.Priority,
		Detail:    string(item.Category),
		Timestamp: time.Now(),
	})
	return id, nil
}
