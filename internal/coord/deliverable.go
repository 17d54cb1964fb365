package coord

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jmallek/conclave/pkg/models"
)

// initialVersion is the version assigned to a freshly created deliverable.
const initialVersion = "1.0"

// DeliverableStore owns every deliverable in the process. Agents hold ids
// only; content never travels over the bus by value.
type DeliverableStore struct {
	logger zerolog.Logger

	// mu protects items and order.
	mu    sync.RWMutex
	items map[string]*models.Deliverable
	// order preserves creation order for listing.
	order []string
}

// NewDeliverableStore creates an empty DeliverableStore.
func NewDeliverableStore(logger zerolog.Logger) *DeliverableStore {
	return &DeliverableStore{
		logger: logger.With().Str("component", "deliverables").Logger(),
		items:  make(map[string]*models.Deliverable),
	}
}

// CreateRequest carries the parameters of a Create call.
type CreateRequest struct {
	// Content is the opaque work product.
	Content any
	// Type is the deliverable kind. Required.
	Type models.DeliverableType
	// SourceAgent is the producing agent.
	SourceAgent string
	// TaskID is the related task, if any.
	TaskID string
	// ForUserPresentation flags content meant for the human.
	ForUserPresentation bool
	// Metadata carries optional auxiliary data.
	Metadata map[string]any
}

// Create stores a new deliverable at version 1.0 and returns its id.
func (s *DeliverableStore) Create(req CreateRequest) (string, error) {
	if !req.Type.Valid() {
		return "", fmt.Errorf("deliverable type %q: %w", req.Type, ErrInvalidEnum)
	}

	meta := req.Metadata
	if meta == nil {
		meta = make(map[string]any)
	}

	d := &models.Deliverable{
		ID:                  uuid.NewString(),
		Content:             req.Content,
		Type:                req.Type,
		SourceAgent:         req.SourceAgent,
		TaskID:              req.TaskID,
		Version:             initialVersion,
		ForUserPresentation: req.ForUserPresentation,
		Metadata:            meta,
		CreatedAt:           time.Now(),
	}

	s.mu.Lock()
	s.items[d.ID] = d
	s.order = append(s.order, d.ID)
	s.mu.Unlock()

	s.logger.Debug().
		Str("deliverable_id", d.ID).
		Str("type", string(d.Type)).
		Str("source", d.SourceAgent).
		Msg("deliverable created")

	return d.ID, nil
}

// Get returns a copy of the deliverable with the given id.
func (s *DeliverableStore) Get(id string) (models.Deliverable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.items[id]
	if !ok {
		return models.Deliverable{}, fmt.Errorf("deliverable %q: %w", id, ErrNotFound)
	}
	return *d, nil
}

// NewVersion creates a new deliverable superseding the given one. The prior
// version object is never mutated; the new deliverable's metadata records
// the previous version id. When version is empty the minor component of the
// prior version is incremented.
func (s *DeliverableStore) NewVersion(id string, content any, version string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.items[id]
	if !ok {
		return "", fmt.Errorf("deliverable %q: %w", id, ErrNotFound)
	}

	if version == "" {
		version = bumpMinor(prev.Version)
	}

	next := &models.Deliverable{
		ID:                  uuid.NewString(),
		Content:             content,
		Type:                prev.Type,
		SourceAgent:         prev.SourceAgent,
		TaskID:              prev.TaskID,
		Version:             version,
		ForUserPresentation: prev.ForUserPresentation,
		Metadata: map[string]any{
			models.MetaPreviousVersion: prev.ID,
		},
		CreatedAt: time.Now(),
	}

	s.items[next.ID] = next
	s.order = append(s.order, next.ID)

	s.logger.Debug().
		Str("deliverable_id", next.ID).
		Str("previous", prev.ID).
		Str("version", next.Version).
		Msg("deliverable version created")

	return next.ID, nil
}

// VersionChain returns the ids of the deliverable and all its ancestors,
// newest first.
func (s *DeliverableStore) VersionChain(id string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("deliverable %q: %w", id, ErrNotFound)
	}

	chain := []string{d.ID}
	for prev := d.PreviousVersion(); prev != ""; {
		ancestor, ok := s.items[prev]
		if !ok {
			break
		}
		chain = append(chain, ancestor.ID)
		prev = ancestor.PreviousVersion()
	}
	return chain, nil
}

// remove deletes a deliverable. Used only for transfer rollback; deliverables
// are otherwise immutable and permanent.
func (s *DeliverableStore) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Count returns the number of stored deliverables.
func (s *DeliverableStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// List returns copies of all deliverables in creation order.
func (s *DeliverableStore) List() []models.Deliverable {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Deliverable, 0, len(s.order))
	for _, id := range s.order {
		if d, ok := s.items[id]; ok {
			out = append(out, *d)
		}
	}
	return out
}

// bumpMinor increments the minor component of a major.minor version string.
// Unparseable versions restart at 1.1 rather than failing the caller.
func bumpMinor(version string) string {
	parts := strings.SplitN(version, ".", 2)
	if len(parts) != 2 {
		return "1.1"
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return "1.1"
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return "1.1"
	}
	return fmt.Sprintf("%d.%d", major, minor+1)
}
