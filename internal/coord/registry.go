package coord

import (
	"sync"
	"time"
)

// AgentRegistry tracks which agent identities are currently allowed to send
// and receive. It provides thread-safe membership checks for the bus.
type AgentRegistry struct {
	// agents maps agent ids to their registration time.
	agents map[string]time.Time
	// mu protects all fields.
	mu sync.RWMutex
}

// NewAgentRegistry creates a new AgentRegistry.
func NewAgentRegistry() *AgentRegistry {
	return &AgentRegistry{
		agents: make(map[string]time.Time),
	}
}

// Register adds an agent to the live set. Registering an already-registered
// agent is a no-op.
func (r *AgentRegistry) Register(agentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.agents[agentID]; !ok {
		r.agents[agentID] = time.Now()
	}
}

// Unregister removes an agent from the live set. Historical channels and the
// agent's inbox are retained for audit; only membership changes.
func (r *AgentRegistry) Unregister(agentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.agents, agentID)
}

// IsRegistered returns true if the agent is in the live set.
func (r *AgentRegistry) IsRegistered(agentID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.agents[agentID]
	return ok
}

// Agents returns the ids of all registered agents.
func (r *AgentRegistry) Agents() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.agents))
	for id := range r.agents {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of registered agents.
func (r *AgentRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}
