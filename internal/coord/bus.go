package coord

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jmallek/conclave/pkg/models"
)

// MessageBus is the directed message bus between registered agents. It owns
// the per-pair channels, the per-agent inboxes and the status record of
// every message ever sent.
type MessageBus struct {
	registry *AgentRegistry
	logger   zerolog.Logger

	// mu protects channels, inboxes and byID. Message status mutations
	// happen under this lock so read-modify-write sequences are atomic.
	mu       sync.RWMutex
	channels map[channelKey]*Channel
	inboxes  map[string][]*models.Message
	byID     map[string]*models.Message
}

// NewMessageBus creates a bus backed by the given registry.
func NewMessageBus(registry *AgentRegistry, logger zerolog.Logger) *MessageBus {
	return &MessageBus{
		registry: registry,
		logger:   logger.With().Str("component", "bus").Logger(),
		channels: make(map[channelKey]*Channel),
		inboxes:  make(map[string][]*models.Message),
		byID:     make(map[string]*models.Message),
	}
}

// SendRequest carries the parameters of a Send call.
type SendRequest struct {
	// Source is the sending agent id. Must be registered.
	Source string
	// Target is the receiving agent id, or models.TargetBroadcast.
	Target string
	// Payload is the opaque message content.
	Payload any
	// Kind is the message kind. Required.
	Kind models.MessageKind
	// Priority is the message priority. Defaults to medium when empty.
	Priority models.Priority
	// CorrelationID references a prior request, if any.
	CorrelationID string
	// TaskID is the related task, if any.
	TaskID string
	// UserID marks human-originated traffic.
	UserID string
	// UserContext carries extra human context.
	UserContext map[string]any
}

// Send validates and enqueues a message. For broadcast targets the message
// is cloned once per other registered agent and every clone is enqueued
// before Send returns; no partial broadcast is observable. Returns the id of
// the (first) enqueued message.
//
// Validation failures return before any inbox mutation.
func (b *MessageBus) Send(req SendRequest) (string, error) {
	if req.Priority == "" {
		req.Priority = models.PriorityMedium
	}
	if !req.Kind.Valid() {
		return "", fmt.Errorf("kind %q: %w", req.Kind, ErrInvalidEnum)
	}
	if !req.Priority.Valid() {
		return "", fmt.Errorf("priority %q: %w", req.Priority, ErrInvalidEnum)
	}
	if !b.registry.IsRegistered(req.Source) {
		return "", fmt.Errorf("source %q: %w", req.Source, ErrUnknownAgent)
	}
	if req.Target != models.TargetBroadcast && !b.registry.IsRegistered(req.Target) {
		return "", fmt.Errorf("target %q: %w", req.Target, ErrUnknownAgent)
	}

	// Human-originated traffic from the scrum master always pre-empts
	// agent-to-agent traffic.
	if req.Source == models.RoleScrumMaster && req.UserID != "" {
		req.Priority = models.PriorityUserInitiated
	}

	targets := []string{req.Target}
	if req.Target == models.TargetBroadcast {
		targets = targets[:0]
		for _, id := range b.registry.Agents() {
			if id != req.Source {
				targets = append(targets, id)
			}
		}
	}

	now := time.Now()
	msgs := make([]*models.Message, 0, len(targets))
	for _, target := range targets {
		msgs = append(msgs, &models.Message{
			ID:            uuid.NewString(),
			Source:        req.Source,
			Target:        target,
			Payload:       req.Payload,
			Kind:          req.Kind,
			Priority:      req.Priority,
			CorrelationID: req.CorrelationID,
			TaskID:        req.TaskID,
			UserID:        req.UserID,
			UserContext:   req.UserContext,
			Timestamp:     now,
			Status:        models.StatusCreated,
		})
	}

	b.mu.Lock()
	for _, msg := range msgs {
		key := channelKey{source: msg.Source, target: msg.Target}
		ch, ok := b.channels[key]
		if !ok {
			ch = newChannel(msg.Source, msg.Target)
			b.channels[key] = ch
		}
		ch.enqueue(msg)
		b.inboxes[msg.Target] = append(b.inboxes[msg.Target], msg)
		msg.Status = models.StatusQueued
		b.byID[msg.ID] = msg
	}
	b.mu.Unlock()

	if len(msgs) == 0 {
		// Broadcast with no other registered agents delivers nothing.
		b.logger.Debug().Str("source", req.Source).Msg("broadcast with no recipients")
		return "", nil
	}

	b.logger.Debug().
		Str("source", req.Source).
		Str("target", req.Target).
		Str("kind", string(req.Kind)).
		Str("priority", string(req.Priority)).
		Int("recipients", len(msgs)).
		Msg("message enqueued")

	return msgs[0].ID, nil
}

// ReceiveOptions filters and bounds a Receive call.
type ReceiveOptions struct {
	// Kinds restricts results to the listed kinds. Empty means all kinds.
	Kinds []models.MessageKind
	// Limit truncates the result. Zero or negative means no limit.
	Limit int
	// UserOnly restricts results to human-originated messages.
	UserOnly bool
}

// Receive returns the agent's inbox messages matching the options, sorted by
// (priority rank, timestamp ascending) at read time. Receive is a read, not
// a dequeue; message status is unaffected and an agent may read a message
// any number of times before acknowledging it.
func (b *MessageBus) Receive(agentID string, opts ReceiveOptions) []models.Message {
	kindSet := make(map[models.MessageKind]bool, len(opts.Kinds))
	for _, k := range opts.Kinds {
		kindSet[k] = true
	}

	b.mu.RLock()
	matched := make([]*models.Message, 0, len(b.inboxes[agentID]))
	for _, msg := range b.inboxes[agentID] {
		if len(kindSet) > 0 && !kindSet[msg.Kind] {
			continue
		}
		if opts.UserOnly && msg.UserID == "" {
			continue
		}
		matched = append(matched, msg)
	}
	sortByPriority(matched)

	if opts.Limit > 0 && len(matched) > opts.Limit {
		matched = matched[:opts.Limit]
	}

	out := make([]models.Message, len(matched))
	for i, msg := range matched {
		out[i] = *msg
	}
	b.mu.RUnlock()

	return out
}

// Acknowledge transitions a message in the agent's inbox to acknowledged and
// retires it from its channel queue. Acknowledging an already-acknowledged
// message is idempotent and returns true. Returns false only when the
// message is not in the agent's inbox.
func (b *MessageBus) Acknowledge(agentID, messageID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	msg := b.findInInbox(agentID, messageID)
	if msg == nil {
		return false
	}
	if msg.Status == models.StatusAcknowledged {
		return true
	}
	msg.Status = models.StatusAcknowledged
	if ch, ok := b.channels[channelKey{source: msg.Source, target: msg.Target}]; ok {
		ch.retire(messageID)
	}
	return true
}

// MarkProcessing advances a message to processing. Returns false if the
// message is not in the agent's inbox or the transition is not forward.
func (b *MessageBus) MarkProcessing(agentID, messageID string) bool {
	return b.advance(agentID, messageID, models.StatusProcessing)
}

// MarkDelivered advances a message to delivered and retires it from its
// channel queue. A delivered message is never re-queued.
func (b *MessageBus) MarkDelivered(agentID, messageID string) bool {
	if !b.advance(agentID, messageID, models.StatusDelivered) {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if msg := b.findInInbox(agentID, messageID); msg != nil {
		if ch, ok := b.channels[channelKey{source: msg.Source, target: msg.Target}]; ok {
			ch.retire(messageID)
		}
	}
	return true
}

// advance applies a forward-only status transition under the bus lock.
func (b *MessageBus) advance(agentID, messageID string, next models.MessageStatus) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	msg := b.findInInbox(agentID, messageID)
	if msg == nil {
		return false
	}
	if !msg.Status.CanAdvanceTo(next) {
		return false
	}
	msg.Status = next
	return true
}

// findInInbox returns the inbox message with the given id. Caller holds mu.
func (b *MessageBus) findInInbox(agentID, messageID string) *models.Message {
	for _, msg := range b.inboxes[agentID] {
		if msg.ID == messageID {
			return msg
		}
	}
	return nil
}

// Status returns the current status of a message by id.
func (b *MessageBus) Status(messageID string) (models.MessageStatus, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	msg, ok := b.byID[messageID]
	if !ok {
		return "", false
	}
	return msg.Status, true
}

// Channel returns the channel for the (source, target) pair, or nil if no
// message has ever been sent on it.
func (b *MessageBus) Channel(source, target string) *Channel {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.channels[channelKey{source: source, target: target}]
}

// InboxLen returns the number of messages in the agent's inbox.
func (b *MessageBus) InboxLen(agentID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.inboxes[agentID])
}
