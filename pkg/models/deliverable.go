package models

import "time"

// DeliverableType represents the kind of work product.
type DeliverableType string

const (
	// DeliverableCode is source code output.
	DeliverableCode DeliverableType = "code"
	// DeliverableDocumentation is written documentation.
	DeliverableDocumentation DeliverableType = "documentation"
	// DeliverableDesign is an architecture or design artifact.
	DeliverableDesign DeliverableType = "design"
	// DeliverableTest is test code or a test plan.
	DeliverableTest DeliverableType = "test"
	// DeliverableAnalysis is an investigation or report.
	DeliverableAnalysis DeliverableType = "analysis"
	// DeliverableUserPresentation is material prepared for the human.
	DeliverableUserPresentation DeliverableType = "user_presentation"
)

// Valid returns true if the type is a known value.
func (t DeliverableType) Valid() bool {
	switch t {
	case DeliverableCode, DeliverableDocumentation, DeliverableDesign,
		DeliverableTest, DeliverableAnalysis, DeliverableUserPresentation:
		return true
	default:
		return false
	}
}

// MetaPreviousVersion is the metadata key linking a deliverable to the
// version it supersedes.
const MetaPreviousVersion = "previous_version"

// Deliverable is an immutable, versioned work product. Updating a
// deliverable creates a new Deliverable whose metadata records the previous
// version id; prior versions are never mutated.
type Deliverable struct {
	// ID is the unique identifier for this deliverable.
	ID string `json:"id"`
	// Content is the opaque work product.
	Content any `json:"content"`
	// Type is the deliverable kind.
	Type DeliverableType `json:"type"`
	// SourceAgent is the agent that produced it.
	SourceAgent string `json:"source_agent"`
	// TaskID is the related task, if any.
	TaskID string `json:"task_id,omitempty"`
	// Version is a semantic major.minor version string.
	Version string `json:"version"`
	// ForUserPresentation flags deliverables meant for the human.
	ForUserPresentation bool `json:"for_user_presentation"`
	// Metadata carries auxiliary data, including MetaPreviousVersion.
	Metadata map[string]any `json:"metadata,omitempty"`
	// CreatedAt is when the deliverable was created.
	CreatedAt time.Time `json:"created_at"`
}

// PreviousVersion returns the id of the superseded deliverable, if any.
func (d *Deliverable) PreviousVersion() string {
	if d.Metadata == nil {
		return ""
	}
	if prev, ok := d.Metadata[MetaPreviousVersion].(string); ok {
		return prev
	}
	return ""
}
