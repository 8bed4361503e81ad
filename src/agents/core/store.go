package core

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a process-local Store. Records do not survive restarts.
type MemoryStore struct {
	mu     sync.RWMutex
	agents map[string]*Agent
	order  []string

	now   func() time.Time
	newID func() string
}

// StoreOption customizes a MemoryStore.
type StoreOption func(*MemoryStore)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *MemoryStore) { s.now = now }
}

// WithIDGenerator overrides how agent IDs are minted.
func WithIDGenerator(fn func() string) StoreOption {
	return func(s *MemoryStore) { s.newID = fn }
}

// NewMemoryStore returns an empty store.
func NewMemoryStore(opts ...StoreOption) *MemoryStore {
	s := &MemoryStore{
		agents: map[string]*Agent{},
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Create(cfg Config) (*Agent, error) {
	now := s.now()
	agent := &Agent{
		ID:        s.newID(),
		Config:    cfg,
		Status:    AgentIdle,
		Tasks:     []Task{},
		Logs:      []LogEntry{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.agents[agent.ID]; exists {
		return nil, fmt.Errorf("agents: duplicate agent id %q", agent.ID)
	}
	s.agents[agent.ID] = agent
	s.order = append(s.order, agent.ID)
	return agent.Clone(), nil
}

func (s *MemoryStore) Get(id string) (*Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agent, ok := s.agents[id]
	if !ok {
		return nil, ErrAgentNotFound
	}
	return agent.Clone(), nil
}

func (s *MemoryStore) List() []*Agent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Agent, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.agents[id].Clone())
	}
	return out
}

func (s *MemoryStore) AppendTask(agentID string, task Task) error {
	return s.Update(agentID, func(a *Agent) error {
		if task.AgentID != "" && task.AgentID != agentID {
			return fmt.Errorf("agents: task %s belongs to agent %s", task.ID, task.AgentID)
		}
		task.AgentID = agentID
		a.Tasks = append(a.Tasks, task)
		a.UpdatedAt = s.now()
		return nil
	})
}

func (s *MemoryStore) UpdateTask(agentID string, task Task) error {
	return s.Update(agentID, func(a *Agent) error {
		for i := range a.Tasks {
			if a.Tasks[i].ID != task.ID {
				continue
			}
			if a.Tasks[i].Status != task.Status && !a.Tasks[i].Status.CanTransitionTo(task.Status) {
				return &TransitionError{Kind: "task", ID: task.ID, From: string(a.Tasks[i].Status), To: string(task.Status)}
			}
			task.AgentID = agentID
			a.Tasks[i] = task
			a.UpdatedAt = s.now()
			return nil
		}
		return fmt.Errorf("agents: task %s not found on agent %s", task.ID, agentID)
	})
}

func (s *MemoryStore) AppendLog(agentID string, entry LogEntry) error {
	return s.Update(agentID, func(a *Agent) error {
		entry.AgentID = agentID
		a.Logs = append(a.Logs, entry)
		return nil
	})
}

func (s *MemoryStore) UpdateStatus(agentID string, status AgentStatus) error {
	return s.Update(agentID, func(a *Agent) error {
		return a.TransitionTo(status, s.now())
	})
}

func (s *MemoryStore) Update(agentID string, fn func(*Agent) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	agent, ok := s.agents[agentID]
	if !ok {
		return ErrAgentNotFound
	}
	return fn(agent)
}
