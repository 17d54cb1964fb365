package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jmallek/conclave/internal/coord"
	"github.com/jmallek/conclave/pkg/models"
)

// DecisionSource resolves an approval request by id.
type DecisionSource interface {
	Get(requestID string) (models.ApprovalRequest, error)
}

// CheckpointSource resolves a checkpoint by id.
type CheckpointSource interface {
	Get(checkpointID string) (models.Checkpoint, error)
}

// FeedbackSource resolves a triaged feedback item by id.
type FeedbackSource interface {
	Get(id string) (models.FeedbackItem, error)
}

// Recorder persists coordination activity into the archive database.
type Recorder struct {
	db     *DB
	logger zerolog.Logger

	decisions   DecisionSource
	checkpoints CheckpointSource
	feedback    FeedbackSource
}

// NewRecorder creates a Recorder writing into db.
func NewRecorder(db *DB, logger zerolog.Logger) *Recorder {
	return &Recorder{
		db:     db,
		logger: logger.With().Str("component", "archive").Logger(),
	}
}

// WithSources attaches the live stores used to resolve event entity ids back
// into full records. With sources attached, Run archives the decision,
// checkpoint-history and feedback rows alongside the raw event stream.
func (r *Recorder) WithSources(decisions DecisionSource, checkpoints CheckpointSource, feedback FeedbackSource) *Recorder {
	r.decisions = decisions
	r.checkpoints = checkpoints
	r.feedback = feedback
	return r
}

// RecordFeedback persists a triaged feedback item.
func (r *Recorder) RecordFeedback(item models.FeedbackItem) error {
	requiresResponse := 0
	if item.RequiresResponse {
		requiresResponse = 1
	}

	_, err := r.db.Exec(`
		INSERT OR REPLACE INTO feedback_items
			(id, user_id, content, category, priority, sentiment, routed_to,
			 requires_response, status, project_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, item.UserID, item.Content, string(item.Category),
		string(item.Priority), string(item.Sentiment), item.RoutedTo,
		requiresResponse, string(item.Status), item.ProjectID,
		formatTime(item.CreatedAt))
	if err != nil {
		return fmt.Errorf("record feedback %s: %w", item.ID, err)
	}
	return nil
}

// RecordDecision persists a decided approval request. Undecided requests are
// skipped; the decision table only holds final outcomes.
func (r *Recorder) RecordDecision(request models.ApprovalRequest) error {
	if !request.Decided() {
		return nil
	}

	_, err := r.db.Exec(`
		INSERT OR REPLACE INTO decisions
			(request_id, title, requesting_agent, decision, feedback, decided_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, request.ID, request.Title, request.RequestingAgent,
		request.Decision, request.DecisionFeedback, formatTime(*request.DecidedAt))
	if err != nil {
		return fmt.Errorf("record decision %s: %w", request.ID, err)
	}
	return nil
}

// RecordCheckpointAction appends one approval-history entry for a checkpoint.
func (r *Recorder) RecordCheckpointAction(checkpointID string, status models.CheckpointStatus, action models.ApprovalAction) error {
	_, err := r.db.Exec(`
		INSERT INTO checkpoint_history
			(checkpoint_id, action, actor, notes, status, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, checkpointID, action.Action, action.Actor, action.Notes,
		string(status), formatTime(action.Timestamp))
	if err != nil {
		return fmt.Errorf("record checkpoint action %s: %w", checkpointID, err)
	}
	return nil
}

// RecordEvent persists one coordination event.
func (r *Recorder) RecordEvent(ev coord.Event) error {
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err := r.db.Exec(`
		INSERT INTO events (type, source, target, entity_id, priority, detail, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, string(ev.Type), ev.Source, ev.Target, ev.EntityID,
		string(ev.Priority), ev.Detail, formatTime(ts))
	if err != nil {
		return fmt.Errorf("record event %s: %w", ev.Type, err)
	}
	return nil
}

// Run consumes coordination events until the channel closes or the context is
// cancelled. Persistence failures are logged and skipped; the archive must
// never stall the coordinator.
func (r *Recorder) Run(ctx context.Context, events <-chan coord.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := r.RecordEvent(ev); err != nil {
				r.logger.Warn().Err(err).Str("type", string(ev.Type)).Msg("event not archived")
			}
			if err := r.recordEntity(ev); err != nil {
				r.logger.Warn().Err(err).
					Str("type", string(ev.Type)).
					Str("entity_id", ev.EntityID).
					Msg("record not archived")
			}
		}
	}
}

// recordEntity archives the full record behind an event, when a source for
// its entity kind is attached.
func (r *Recorder) recordEntity(ev coord.Event) error {
	switch ev.Type {
	case coord.EventDecisionRecorded:
		if r.decisions == nil {
			return nil
		}
		request, err := r.decisions.Get(ev.EntityID)
		if err != nil {
			return err
		}
		return r.RecordDecision(request)

	case coord.EventCheckpointApproved, coord.EventCheckpointRejected, coord.EventCheckpointCompleted:
		if r.checkpoints == nil {
			return nil
		}
		cp, err := r.checkpoints.Get(ev.EntityID)
		if err != nil {
			return err
		}
		if len(cp.ApprovalHistory) == 0 {
			return nil
		}
		return r.RecordCheckpointAction(cp.ID, cp.Status, cp.ApprovalHistory[len(cp.ApprovalHistory)-1])

	case coord.EventFeedbackTriaged:
		if r.feedback == nil {
			return nil
		}
		item, err := r.feedback.Get(ev.EntityID)
		if err != nil {
			return err
		}
		return r.RecordFeedback(item)
	}
	return nil
}

// CheckpointHistoryEntry is one archived checkpoint action, as read back
// from the database.
type CheckpointHistoryEntry struct {
	CheckpointID string
	Action       string
	Actor        string
	Notes        string
	Status       string
	OccurredAt   time.Time
}

// CheckpointHistory returns all archived checkpoint actions, newest first.
func (r *Recorder) CheckpointHistory() ([]CheckpointHistoryEntry, error) {
	rows, err := r.db.Query(`
		SELECT checkpoint_id, action, COALESCE(actor, ''), COALESCE(notes, ''), status, occurred_at
		FROM checkpoint_history ORDER BY occurred_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query checkpoint history: %w", err)
	}
	defer rows.Close()

	var out []CheckpointHistoryEntry
	for rows.Next() {
		var entry CheckpointHistoryEntry
		var occurredAt string
		if err := rows.Scan(&entry.CheckpointID, &entry.Action, &entry.Actor,
			&entry.Notes, &entry.Status, &occurredAt); err != nil {
			return nil, fmt.Errorf("scan checkpoint action: %w", err)
		}
		if t, err := parseTime(occurredAt); err == nil {
			entry.OccurredAt = t
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// FeedbackItems returns all archived feedback items, oldest first. Responses
// are not archived; items read back carry triage results and status only.
func (r *Recorder) FeedbackItems() ([]models.FeedbackItem, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, content, category, priority, sentiment, routed_to,
			requires_response, status, COALESCE(project_id, ''), created_at
		FROM feedback_items ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query feedback items: %w", err)
	}
	defer rows.Close()

	var out []models.FeedbackItem
	for rows.Next() {
		var item models.FeedbackItem
		var requiresResponse int
		var createdAt string
		if err := rows.Scan(&item.ID, &item.UserID, &item.Content, &item.Category,
			&item.Priority, &item.Sentiment, &item.RoutedTo,
			&requiresResponse, &item.Status, &item.ProjectID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan feedback item: %w", err)
		}
		item.RequiresResponse = requiresResponse != 0
		if t, err := parseTime(createdAt); err == nil {
			item.CreatedAt = t
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// FeedbackCount returns the number of archived feedback items.
func (r *Recorder) FeedbackCount() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM feedback_items").Scan(&n); err != nil {
		return 0, fmt.Errorf("count feedback: %w", err)
	}
	return n, nil
}

// EventCount returns the number of archived events.
func (r *Recorder) EventCount() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM events").Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// DecisionLogEntry is one archived decision, as read back from the database.
type DecisionLogEntry struct {
	RequestID       string
	Title           string
	RequestingAgent string
	Decision        string
	Feedback        string
	DecidedAt       time.Time
}

// DecisionLog returns all archived decisions, newest first.
func (r *Recorder) DecisionLog() ([]DecisionLogEntry, error) {
	rows, err := r.db.Query(`
		SELECT request_id, title, requesting_agent, decision, COALESCE(feedback, ''), decided_at
		FROM decisions ORDER BY decided_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var out []DecisionLogEntry
	for rows.Next() {
		var entry DecisionLogEntry
		var decidedAt string
		if err := rows.Scan(&entry.RequestID, &entry.Title, &entry.RequestingAgent,
			&entry.Decision, &entry.Feedback, &decidedAt); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		if t, err := parseTime(decidedAt); err == nil {
			entry.DecidedAt = t
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}
