package coord

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jmallek/conclave/pkg/models"
)

// History verbs appended to a checkpoint's approval history.
const (
	actionApproved  = "approved"
	actionRejected  = "rejected"
	actionCompleted = "completed"
)

// NotificationType selects the payload a team-lead notification carries.
type NotificationType string

const (
	// NotifyApproval announces an approval.
	NotifyApproval NotificationType = "approval"
	// NotifyRejection announces a rejection.
	NotifyRejection NotificationType = "rejection"
	// NotifyFeedback announces new feedback.
	NotifyFeedback NotificationType = "feedback"
)

// Valid returns true if the notification type is a known value.
func (t NotificationType) Valid() bool {
	switch t {
	case NotifyApproval, NotifyRejection, NotifyFeedback:
		return true
	default:
		return false
	}
}

// CheckpointManager owns milestone checkpoints and drives their lifecycle:
// pending, feedback_pending, revision_needed, rejected, approved, completed.
// Approve/reject/complete actions append to an approval history that is
// never truncated.
type CheckpointManager struct {
	bus    *MessageBus
	logger zerolog.Logger

	// mu protects checkpoints and order.
	mu          sync.RWMutex
	checkpoints map[string]*models.Checkpoint
	order       []string
}

// NewCheckpointManager creates a CheckpointManager notifying through the bus.
func NewCheckpointManager(bus *MessageBus, logger zerolog.Logger) *CheckpointManager {
	return &CheckpointManager{
		bus:         bus,
		logger:      logger.With().Str("component", "checkpoints").Logger(),
		checkpoints: make(map[string]*models.Checkpoint),
	}
}

// CheckpointRequest carries the parameters of a Create call.
type CheckpointRequest struct {
	// Type is the checkpoint kind. Required.
	Type models.CheckpointType
	// Title is the short human-facing summary.
	Title string
	// Description explains what the checkpoint covers.
	Description string
	// ProjectID is the associated project, if any.
	ProjectID string
	// MilestoneID is the associated milestone, if any.
	MilestoneID string
	// ApprovalRequestID links a wrapped approval request, if any.
	ApprovalRequestID string
	// RequiresApproval indicates the checkpoint gates on a human decision.
	RequiresApproval bool
	// ApprovalDeadline is an advisory soft deadline, if any.
	ApprovalDeadline *time.Time
	// Metadata carries optional auxiliary data.
	Metadata map[string]any
}

// Create stores a new checkpoint in the pending state and returns its id.
func (m *CheckpointManager) Create(req CheckpointRequest) (string, error) {
	if !req.Type.Valid() {
		return "", fmt.Errorf("checkpoint type %q: %w", req.Type, ErrInvalidEnum)
	}

	meta := req.Metadata
	if meta == nil {
		meta = make(map[string]any)
	}

	now := time.Now()
	cp := &models.Checkpoint{
		ID:                uuid.NewString(),
		Type:              req.Type,
		Title:             req.Title,
		Description:       req.Description,
		ProjectID:         req.ProjectID,
		MilestoneID:       req.MilestoneID,
		ApprovalRequestID: req.ApprovalRequestID,
		RequiresApproval:  req.RequiresApproval,
		Status:            models.CheckpointPending,
		ApprovalDeadline:  req.ApprovalDeadline,
		Metadata:          meta,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	m.mu.Lock()
	m.checkpoints[cp.ID] = cp
	m.order = append(m.order, cp.ID)
	m.mu.Unlock()

	m.logger.Info().
		Str("checkpoint_id", cp.ID).
		Str("type", string(cp.Type)).
		Str("title", cp.Title).
		Msg("checkpoint created")

	return cp.ID, nil
}

// AddFeedback appends a feedback entry. Feedback attached while the
// checkpoint is pending moves it to feedback_pending; in any other state the
// feedback is recorded without a status change.
func (m *CheckpointManager) AddFeedback(checkpointID, author, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp, ok := m.checkpoints[checkpointID]
	if !ok {
		return fmt.Errorf("checkpoint %q: %w", checkpointID, ErrNotFound)
	}

	cp.Feedback = append(cp.Feedback, models.CheckpointFeedback{
		Author:    author,
		Content:   content,
		CreatedAt: time.Now(),
	})
	if cp.Status == models.CheckpointPending {
		cp.Status = models.CheckpointFeedbackPending
	}
	cp.UpdatedAt = time.Now()
	return nil
}

// Approve moves a pending or feedback_pending checkpoint to approved and
// appends an approval-history entry.
func (m *CheckpointManager) Approve(checkpointID, actor, notes string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp, ok := m.checkpoints[checkpointID]
	if !ok {
		return fmt.Errorf("checkpoint %q: %w", checkpointID, ErrNotFound)
	}
	if cp.Status != models.CheckpointPending && cp.Status != models.CheckpointFeedbackPending {
		return fmt.Errorf("approve from %q: %w", cp.Status, ErrInvalidEnum)
	}

	cp.Status = models.CheckpointApproved
	cp.ApprovalHistory = append(cp.ApprovalHistory, models.ApprovalAction{
		Action:    actionApproved,
		Actor:     actor,
		Notes:     notes,
		Timestamp: time.Now(),
	})
	cp.UpdatedAt = time.Now()

	m.logger.Info().Str("checkpoint_id", checkpointID).Msg("checkpoint approved")
	return nil
}

// Reject moves a pending or feedback_pending checkpoint to revision_needed
// when requiresRevision is set, or rejected otherwise. When no structured
// feedback is supplied a feedback entry is derived from the reason so the
// rejection is never silent. Rejecting into rejected with an empty feedback
// list flags missing_feedback metadata for downstream alerting but does not
// block the transition.
func (m *CheckpointManager) Reject(checkpointID, actor, reason, feedback string, requiresRevision bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp, ok := m.checkpoints[checkpointID]
	if !ok {
		return fmt.Errorf("checkpoint %q: %w", checkpointID, ErrNotFound)
	}
	if cp.Status != models.CheckpointPending && cp.Status != models.CheckpointFeedbackPending {
		return fmt.Errorf("reject from %q: %w", cp.Status, ErrInvalidEnum)
	}

	entry := feedback
	if entry == "" {
		entry = reason
	}
	if entry != "" {
		cp.Feedback = append(cp.Feedback, models.CheckpointFeedback{
			Author:    actor,
			Content:   entry,
			CreatedAt: time.Now(),
		})
	}

	if requiresRevision {
		cp.Status = models.CheckpointRevisionNeeded
	} else {
		cp.Status = models.CheckpointRejected
		if len(cp.Feedback) == 0 {
			cp.Metadata[models.MetaMissingFeedback] = true
		}
	}

	cp.ApprovalHistory = append(cp.ApprovalHistory, models.ApprovalAction{
		Action:    actionRejected,
		Actor:     actor,
		Notes:     reason,
		Timestamp: time.Now(),
	})
	cp.UpdatedAt = time.Now()

	m.logger.Info().
		Str("checkpoint_id", checkpointID).
		Bool("requires_revision", requiresRevision).
		Msg("checkpoint rejected")
	return nil
}

// Complete is the administrative closure override: it moves the checkpoint
// from any state directly to finalStatus and appends exactly one
// approval-history entry.
func (m *CheckpointManager) Complete(checkpointID, actor string, finalStatus models.CheckpointStatus, notes string) error {
	if !finalStatus.Valid() {
		return fmt.Errorf("final status %q: %w", finalStatus, ErrInvalidEnum)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cp, ok := m.checkpoints[checkpointID]
	if !ok {
		return fmt.Errorf("checkpoint %q: %w", checkpointID, ErrNotFound)
	}

	cp.Status = finalStatus
	cp.ApprovalHistory = append(cp.ApprovalHistory, models.ApprovalAction{
		Action:    actionCompleted,
		Actor:     actor,
		Notes:     notes,
		Timestamp: time.Now(),
	})
	cp.UpdatedAt = time.Now()

	m.logger.Info().
		Str("checkpoint_id", checkpointID).
		Str("final_status", string(finalStatus)).
		Msg("checkpoint completed")
	return nil
}

// CheckDeadline flags deadline_passed metadata when the approval deadline is
// in the past and the checkpoint is still pending. Expiry is advisory: a
// human may still act after a soft deadline, so status never changes here.
// Returns true if the flag is set after the call.
func (m *CheckpointManager) CheckDeadline(checkpointID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp, ok := m.checkpoints[checkpointID]
	if !ok {
		return false, fmt.Errorf("checkpoint %q: %w", checkpointID, ErrNotFound)
	}

	if cp.Status == models.CheckpointPending &&
		cp.ApprovalDeadline != nil && cp.ApprovalDeadline.Before(time.Now()) {
		cp.Metadata[models.MetaDeadlinePassed] = true
		cp.UpdatedAt = time.Now()
	}

	passed, _ := cp.Metadata[models.MetaDeadlinePassed].(bool)
	return passed, nil
}

// NotifyTeamLead sends a notification message from the scrum master to the
// team lead describing the checkpoint change. This is the only way
// checkpoint state changes become visible to the rest of the fleet.
func (m *CheckpointManager) NotifyTeamLead(checkpointID string, kind NotificationType) error {
	if !kind.Valid() {
		return fmt.Errorf("notification type %q: %w", kind, ErrInvalidEnum)
	}

	m.mu.RLock()
	cp, ok := m.checkpoints[checkpointID]
	if !ok {
		m.mu.RUnlock()
		return fmt.Errorf("checkpoint %q: %w", checkpointID, ErrNotFound)
	}
	payload := map[string]any{
		"notification":  string(kind),
		"checkpoint_id": cp.ID,
		"type":          string(cp.Type),
		"title":         cp.Title,
		"status":        string(cp.Status),
	}
	if n := len(cp.Feedback); n > 0 {
		payload["feedback_count"] = n
		payload["latest_feedback"] = cp.Feedback[n-1].Content
	}
	m.mu.RUnlock()

	_, err := m.bus.Send(SendRequest{
		Source:  models.RoleScrumMaster,
		Target:  models.RoleTeamLead,
		Kind:    models.KindNotification,
		Payload: payload,
	})
	if err != nil {
		return fmt.Errorf("notify team lead: %w", err)
	}
	return nil
}

// Get returns a copy of the checkpoint with the given id.
func (m *CheckpointManager) Get(checkpointID string) (models.Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cp, ok := m.checkpoints[checkpointID]
	if !ok {
		return models.Checkpoint{}, fmt.Errorf("checkpoint %q: %w", checkpointID, ErrNotFound)
	}
	return copyCheckpoint(cp), nil
}

// List returns copies of all checkpoints in creation order.
func (m *CheckpointManager) List() []models.Checkpoint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Checkpoint, 0, len(m.order))
	for _, id := range m.order {
		if cp, ok := m.checkpoints[id]; ok {
			out = append(out, copyCheckpoint(cp))
		}
	}
	return out
}

// Pending returns copies of checkpoints still awaiting a decision.
func (m *CheckpointManager) Pending() []models.Checkpoint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Checkpoint, 0)
	for _, id := range m.order {
		cp, ok := m.checkpoints[id]
		if !ok {
			continue
		}
		switch cp.Status {
		case models.CheckpointPending, models.CheckpointFeedbackPending, models.CheckpointRevisionNeeded:
			out = append(out, copyCheckpoint(cp))
		}
	}
	return out
}

// copyCheckpoint deep-copies the slices so callers cannot mutate history.
func copyCheckpoint(cp *models.Checkpoint) models.Checkpoint {
	out := *cp
	out.Feedback = append([]models.CheckpointFeedback(nil), cp.Feedback...)
	out.ApprovalHistory = append([]models.ApprovalAction(nil), cp.ApprovalHistory...)
	meta := make(map[string]any, len(cp.Metadata))
	for k, v := range cp.Metadata {
		meta[k] = v
	}
	out.Metadata = meta
	return out
}
