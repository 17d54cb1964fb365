package coord

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jmallek/conclave/pkg/models"
)

// ApprovalManager owns approval requests and enforces the single-decision
// invariant: the first recorded decision wins and is never overwritten.
//
// Approvals always route through the scrum master role, which is the only
// role with a human channel.
type ApprovalManager struct {
	bus      *MessageBus
	registry *AgentRegistry
	logger   zerolog.Logger

	// mu protects requests.
	mu       sync.RWMutex
	requests map[string]*models.ApprovalRequest
}

// NewApprovalManager creates an ApprovalManager sending through the bus.
func NewApprovalManager(registry *AgentRegistry, bus *MessageBus, logger zerolog.Logger) *ApprovalManager {
	return &ApprovalManager{
		bus:      bus,
		registry: registry,
		logger:   logger.With().Str("component", "approvals").Logger(),
		requests: make(map[string]*models.ApprovalRequest),
	}
}

// SubmitRequest carries the parameters of a Submit call.
type SubmitRequest struct {
	// Title is the short summary shown to the human.
	Title string
	// Description explains what is being decided.
	Description string
	// RequestingAgent is the agent awaiting the decision. Must be registered.
	RequestingAgent string
	// Content is the deliverable content under review.
	Content any
	// UserID identifies the human addressee.
	UserID string
	// ProjectID is the related project, if any.
	ProjectID string
	// TaskID is the related task, if any.
	TaskID string
	// Deadline is an advisory soft deadline, if any.
	Deadline *time.Time
	// Options is the decision set; defaults to approve/reject when empty.
	Options []string
}

// Submit records a new approval request and sends an approval_request
// message to the scrum master at high priority. Fails when the requestor or
// the scrum master role is not registered.
func (m *ApprovalManager) Submit(req SubmitRequest) (string, error) {
	if !m.registry.IsRegistered(req.RequestingAgent) {
		return "", fmt.Errorf("requestor %q: %w", req.RequestingAgent, ErrUnknownAgent)
	}
	if !m.registry.IsRegistered(models.RoleScrumMaster) {
		return "", fmt.Errorf("role %q: %w", models.RoleScrumMaster, ErrUnknownAgent)
	}

	options := req.Options
	if len(options) == 0 {
		options = models.DefaultDecisionOptions()
	}

	request := &models.ApprovalRequest{
		ID:              uuid.NewString(),
		Title:           req.Title,
		Description:     req.Description,
		RequestingAgent: req.RequestingAgent,
		Content:         req.Content,
		UserID:          req.UserID,
		ProjectID:       req.ProjectID,
		TaskID:          req.TaskID,
		Deadline:        req.Deadline,
		Options:         options,
		Status:          models.ApprovalPending,
		CreatedAt:       time.Now(),
	}

	m.mu.Lock()
	m.requests[request.ID] = request
	m.mu.Unlock()

	_, err := m.bus.Send(SendRequest{
		Source:   req.RequestingAgent,
		Target:   models.RoleScrumMaster,
		Kind:     models.KindApprovalRequest,
		Priority: models.PriorityHigh,
		TaskID:   req.TaskID,
		UserID:   req.UserID,
		Payload: map[string]any{
			"request_id":  request.ID,
			"title":       request.Title,
			"description": request.Description,
			"options":     request.Options,
		},
	})
	if err != nil {
		// Keep the bus and the request table consistent: a request nobody
		// was told about must not linger as pending.
		m.mu.Lock()
		delete(m.requests, request.ID)
		m.mu.Unlock()
		return "", fmt.Errorf("notify scrum master: %w", err)
	}

	m.logger.Info().
		Str("request_id", request.ID).
		Str("requestor", req.RequestingAgent).
		Str("title", req.Title).
		Msg("approval requested")

	return request.ID, nil
}

// RecordDecision records the human decision for a pending request exactly
// once and sends a user_decision notification back to the requestor at high
// priority. Returns false with ErrNotFound for unknown ids and false with
// ErrAlreadyDecided when a decision is already recorded; the first decision
// is never overwritten.
func (m *ApprovalManager) RecordDecision(requestID, decision, feedback string) (bool, error) {
	m.mu.Lock()
	request, ok := m.requests[requestID]
	if !ok {
		m.mu.Unlock()
		return false, fmt.Errorf("approval request %q: %w", requestID, ErrNotFound)
	}
	if request.Decided() {
		m.mu.Unlock()
		return false, fmt.Errorf("approval request %q: %w", requestID, ErrAlreadyDecided)
	}

	now := time.Now()
	request.Decision = decision
	request.DecisionFeedback = feedback
	request.DecidedAt = &now
	request.Status = models.ApprovalDecided
	requestor := request.RequestingAgent
	taskID := request.TaskID
	userID := request.UserID
	m.mu.Unlock()

	if _, err := m.bus.Send(SendRequest{
		Source:   models.RoleScrumMaster,
		Target:   requestor,
		Kind:     models.KindUserDecision,
		Priority: models.PriorityHigh,
		TaskID:   taskID,
		UserID:   userID,
		Payload: map[string]any{
			"request_id": requestID,
			"decision":   decision,
			"feedback":   feedback,
		},
	}); err != nil {
		// The decision stands even if the notification cannot be sent;
		// callers can still query the request state.
		m.logger.Warn().Err(err).
			Str("request_id", requestID).
			Msg("decision recorded but requestor not notified")
	}

	m.logger.Info().
		Str("request_id", requestID).
		Str("decision", decision).
		Msg("decision recorded")

	return true, nil
}

// Get returns a copy of the request with the given id.
func (m *ApprovalManager) Get(requestID string) (models.ApprovalRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	request, ok := m.requests[requestID]
	if !ok {
		return models.ApprovalRequest{}, fmt.Errorf("approval request %q: %w", requestID, ErrNotFound)
	}
	return *request, nil
}

// Pending returns copies of all undecided requests.
func (m *ApprovalManager) Pending() []models.ApprovalRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.ApprovalRequest, 0)
	for _, request := range m.requests {
		if !request.Decided() {
			out = append(out, *request)
		}
	}
	return out
}
