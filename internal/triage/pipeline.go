package triage

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jmallek/conclave/pkg/models"
)

// UserContext carries what is known about the human behind a piece of
// feedback. All fields are optional.
type UserContext struct {
	// Role is the user's organizational role (e.g. "stakeholder").
	Role string
	// HighQualityHistory marks users whose past feedback proved accurate.
	HighQualityHistory bool
	// ProjectID associates the feedback with a project.
	ProjectID string
	// ComponentID associates the feedback with a component.
	ComponentID string
	// TaskID associates the feedback with a task.
	TaskID string
}

// ProjectContext carries project-level routing knowledge.
type ProjectContext struct {
	// ComponentOwners lists the roles owning the affected component. A
	// single owner takes final routing precedence; multiple owners route
	// to RouteMultiple.
	ComponentOwners []string
}

// Categorize classifies content into one of the eight fixed categories. The
// first category whose pattern set matches wins, in table order; content
// matching nothing is general.
func Categorize(content string) models.FeedbackCategory {
	lower := strings.ToLower(content)
	for _, cp := range categoryPatterns {
		for _, re := range cp.Patterns {
			if re.MatchString(lower) {
				return cp.Category
			}
		}
	}
	return models.CategoryGeneral
}

// AnalyzeSentiment counts positive versus negative keyword hits. One-sided
// hits decide directly; both-sided hits decide for the side at least twice
// as strong, and are mixed otherwise. No hits is neutral.
func AnalyzeSentiment(content string) models.Sentiment {
	lower := strings.ToLower(content)

	var pos, neg int
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			pos++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			neg++
		}
	}

	switch {
	case pos == 0 && neg == 0:
		return models.SentimentNeutral
	case neg == 0:
		return models.SentimentPositive
	case pos == 0:
		return models.SentimentNegative
	case pos >= 2*neg:
		return models.SentimentPositive
	case neg >= 2*pos:
		return models.SentimentNegative
	default:
		return models.SentimentMixed
	}
}

// Prioritize scores the feedback and maps the score to a priority. The
// score starts from the per-category base weight, adds 2 for hard urgency
// words, 1 for soft urgency words, subtracts 1 for de-escalation words, and
// adds 1 each for VIP roles and high-quality feedback history.
//
// Thresholds: score >= 4 is critical, 3 is high, 2 is medium, below is low.
func Prioritize(category models.FeedbackCategory, content string, userCtx *UserContext) models.Priority {
	lower := strings.ToLower(content)

	score := categoryBaseWeight[category]
	if containsAny(lower, hardUrgencyWords) {
		score += 2
	} else if containsAny(lower, softUrgencyWords) {
		score++
	}
	if containsAny(lower, deEscalationWords) {
		score--
	}
	if userCtx != nil {
		if vipRoles[strings.ToLower(userCtx.Role)] {
			score++
		}
		if userCtx.HighQualityHistory {
			score++
		}
	}

	switch {
	case score >= 4:
		return models.PriorityCritical
	case score == 3:
		return models.PriorityHigh
	case score == 2:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

// ExtractActionableItems pulls imperative/request clauses out of the
// content, deduplicated case-insensitively. When no pattern matches it falls
// back to whole sentences containing an action verb.
func ExtractActionableItems(content string) []string {
	var items []string
	seen := make(map[string]bool)

	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		key := strings.ToLower(s)
		if !seen[key] {
			seen[key] = true
			items = append(items, s)
		}
	}

	for _, re := range actionPatterns {
		for _, match := range re.FindAllStringSubmatch(content, -1) {
			if len(match) > 1 {
				add(match[1])
			}
		}
	}
	if len(items) > 0 {
		return items
	}

	// Fallback: whole sentences containing an action verb.
	for _, sentence := range splitSentences(content) {
		lower := strings.ToLower(sentence)
		for _, verb := range actionVerbs {
			if strings.Contains(lower, verb) {
				add(sentence)
				break
			}
		}
	}
	return items
}

// DetermineRouting picks the destination role for a classified item.
// Category defaults are overridden by technical-keyword detection, then
// escalated to the team lead when the feedback spans two or more concern
// areas, or when it is critical and no specialist route applies. A
// project-context component owner takes final precedence.
func DetermineRouting(category models.FeedbackCategory, priority models.Priority, content string, projCtx *ProjectContext) string {
	lower := strings.ToLower(content)

	route, ok := defaultRouting[category]
	if !ok {
		route = models.RoleScrumMaster
	}

	// Technical keywords pull generic categories toward a specialist.
	if containsAny(lower, architectureWords) {
		route = models.RoleArchitect
	} else if containsAny(lower, implementationWords) {
		route = models.RoleDeveloper
	}

	// Cross-cutting feedback belongs to the team lead: either it spans
	// multiple concern areas, or it is critical with no specialist owner.
	if countConcernAreas(lower) >= 2 {
		route = models.RoleTeamLead
	} else if priority == models.PriorityCritical && route == models.RoleScrumMaster {
		route = models.RoleTeamLead
	}

	if projCtx != nil {
		switch len(projCtx.ComponentOwners) {
		case 0:
		case 1:
			route = projCtx.ComponentOwners[0]
		default:
			route = models.RouteMultiple
		}
	}
	return route
}

// countConcernAreas returns how many distinct concern areas the content
// touches.
func countConcernAreas(lower string) int {
	count := 0
	for _, words := range concernAreas {
		if containsAny(lower, words) {
			count++
		}
	}
	return count
}

// requiresResponse reports whether the human appears to expect a reply.
func requiresResponse(category models.FeedbackCategory, content string) bool {
	if category == models.CategoryClarification {
		return true
	}
	return strings.Contains(content, "?")
}

// Processor runs the triage pipeline and records results in a store.
type Processor struct {
	store     *FeedbackStore
	responder Responder
	logger    zerolog.Logger
}

// Responder drafts a reply for feedback that requires a response. It is the
// completion-service boundary; implementations are opaque to triage.
type Responder interface {
	DraftResponse(item models.FeedbackItem) (string, error)
}

// NewProcessor creates a Processor writing into the given store.
func NewProcessor(store *FeedbackStore, logger zerolog.Logger) *Processor {
	return &Processor{
		store:  store,
		logger: logger.With().Str("component", "triage").Logger(),
	}
}

// WithResponder attaches a responder used to draft replies for items that
// require a response. Drafting is best-effort; failures are logged, never
// surfaced.
func (p *Processor) WithResponder(r Responder) *Processor {
	p.responder = r
	return p
}

// Process runs the full pipeline: categorize, sentiment, prioritize, extract
// actionable items, route. It always returns a fully populated item; any
// internal degradation falls back to general/neutral/medium rather than
// failing the caller, because feedback must always be captured.
func (p *Processor) Process(userID, content string, userCtx *UserContext, projCtx *ProjectContext) models.FeedbackItem {
	category := Categorize(content)
	sentiment := AnalyzeSentiment(content)
	priority := Prioritize(category, content, userCtx)
	actions := ExtractActionableItems(content)
	route := DetermineRouting(category, priority, content, projCtx)

	if !category.Valid() {
		category = models.CategoryGeneral
	}
	if !sentiment.Valid() {
		sentiment = models.SentimentNeutral
	}
	if !priority.Valid() {
		priority = models.PriorityMedium
	}

	now := time.Now()
	item := models.FeedbackItem{
		ID:               uuid.NewString(),
		UserID:           userID,
		Content:          content,
		Category:         category,
		Priority:         priority,
		Sentiment:        sentiment,
		RequiresResponse: requiresResponse(category, content),
		ActionableItems:  actions,
		RoutedTo:         route,
		Status:           models.ImplementationNotStarted,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if userCtx != nil {
		item.ProjectID = userCtx.ProjectID
		item.ComponentID = userCtx.ComponentID
		item.TaskID = userCtx.TaskID
	}

	if p.store != nil {
		p.store.Add(item)
	}

	p.logger.Info().
		Str("feedback_id", item.ID).
		Str("category", string(item.Category)).
		Str("priority", string(item.Priority)).
		Str("routed_to", item.RoutedTo).
		Msg("feedback triaged")

	if p.responder != nil && item.RequiresResponse {
		if draft, err := p.responder.DraftResponse(item); err != nil {
			p.logger.Warn().Err(err).Str("feedback_id", item.ID).Msg("response draft failed")
		} else if p.store != nil {
			_ = p.store.AddResponse(item.ID, models.RoleScrumMaster, draft)
		}
	}

	return item
}

// containsAny reports whether s contains any of the given substrings.
func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// splitSentences breaks content on sentence terminators.
func splitSentences(content string) []string {
	var out []string
	var sb strings.Builder
	for _, r := range content {
		sb.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			if s := strings.TrimSpace(sb.String()); s != "" {
				out = append(out, strings.TrimRight(s, ".!?\n"))
			}
			sb.Reset()
		}
	}
	if s := strings.TrimSpace(sb.String()); s != "" {
		out = append(out, s)
	}
	return out
}
