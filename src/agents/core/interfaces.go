package core

// Store owns every agent record. Implementations must be safe for concurrent
// use and must hand out copies so callers never share mutable state.
type Store interface {
	// Create stores a new idle agent for cfg and returns its snapshot.
	Create(cfg Config) (*Agent, error)
	// Get returns a snapshot of the agent or ErrAgentNotFound.
	Get(id string) (*Agent, error)
	// List returns snapshots of every agent in creation order.
	List() []*Agent
	// AppendTask adds task to the end of the agent's task sequence.
	AppendTask(agentID string, task Task) error
	// UpdateTask replaces the stored task with the same ID.
	UpdateTask(agentID string, task Task) error
	// AppendLog adds entry to the end of the agent's log.
	AppendLog(agentID string, entry LogEntry) error
	// UpdateStatus moves the agent to status, enforcing the state machine.
	UpdateStatus(agentID string, status AgentStatus) error
	// Update applies fn to the live record under the store's lock.
	Update(agentID string, fn func(*Agent) error) error
}
