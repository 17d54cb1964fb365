package completion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmallek/conclave/pkg/models"
)

// Completer is the single-turn completion surface the responder needs.
// *Client satisfies it; tests substitute a stub.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

const responderSystemPrompt = `You reply to user feedback on behalf of a software project team.
Answer the user's question directly and briefly. If the feedback is unclear,
ask one concrete clarifying question. Do not promise delivery dates.`

// Responder drafts replies for feedback items that expect an answer. It
// satisfies the triage Responder interface.
type Responder struct {
	completer Completer
	timeout   time.Duration
}

// NewResponder creates a Responder drafting through the given completer.
func NewResponder(completer Completer) *Responder {
	return &Responder{
		completer: completer,
		timeout:   30 * time.Second,
	}
}

// DraftResponse produces a reply draft for the feedback item.
func (r *Responder) DraftResponse(item models.FeedbackItem) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Feedback category: %s\n", item.Category)
	fmt.Fprintf(&sb, "Feedback from user %s:\n%s\n", item.UserID, item.Content)
	if len(item.ActionableItems) > 0 {
		sb.WriteString("Extracted requests:\n")
		for _, a := range item.ActionableItems {
			fmt.Fprintf(&sb, "- %s\n", a)
		}
	}

	draft, err := r.completer.Complete(ctx, responderSystemPrompt, sb.String())
	if err != nil {
		return "", fmt.Errorf("draft response for %s: %w", item.ID, err)
	}
	return strings.TrimSpace(draft), nil
}
