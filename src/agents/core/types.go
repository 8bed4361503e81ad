package core

import (
	"time"

	aicore "github.com/stake-plus/agentgpt/src/ai/core"
)

// AgentStatus enumerates lifecycle states for an agent.
type AgentStatus string

const (
	AgentIdle      AgentStatus = "idle"
	AgentRunning   AgentStatus = "running"
	AgentCompleted AgentStatus = "completed"
	AgentFailed    AgentStatus = "failed"
	AgentStopped   AgentStatus = "stopped"
)

// Valid reports whether s is a known agent status.
func (s AgentStatus) Valid() bool {
	switch s {
	case AgentIdle, AgentRunning, AgentCompleted, AgentFailed, AgentStopped:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether an agent in state s may move to next.
// Any settled agent can be (re)started; only a running agent can settle.
// Stopped is reached through external cancellation from any non-stopped state.
func (s AgentStatus) CanTransitionTo(next AgentStatus) bool {
	switch next {
	case AgentRunning:
		switch s {
		case AgentIdle, AgentStopped, AgentFailed, AgentCompleted:
			return true
		case AgentRunning:
			return false
		}
	case AgentCompleted:
		return s == AgentRunning
	case AgentFailed:
		return s == AgentRunning
	case AgentStopped:
		return s.Valid() && s != AgentStopped
	case AgentIdle:
		return false
	}
	return false
}

// TaskStatus enumerates lifecycle states for a single task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskRunning, TaskCompleted, TaskFailed:
		return true
	default:
		return false
	}
}

// Settled reports whether the task reached a final state.
func (s TaskStatus) Settled() bool {
	switch s {
	case TaskCompleted, TaskFailed:
		return true
	case TaskPending, TaskRunning:
		return false
	default:
		return false
	}
}

// CanTransitionTo reports whether a task in state s may move to next.
// Settled tasks never change again.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	switch s {
	case TaskPending:
		return next == TaskRunning || next == TaskFailed
	case TaskRunning:
		return next == TaskCompleted || next == TaskFailed
	case TaskCompleted, TaskFailed:
		return false
	default:
		return false
	}
}

// LogType classifies a log entry.
type LogType string

const (
	LogInfo    LogType = "info"
	LogError   LogType = "error"
	LogWarning LogType = "warning"
)

// Valid reports whether t is a known log type.
func (t LogType) Valid() bool {
	switch t {
	case LogInfo, LogError, LogWarning:
		return true
	default:
		return false
	}
}

// Config is the caller supplied definition of an agent.
type Config struct {
	Name          string            `json:"name"`
	Goal          string            `json:"goal"`
	Provider      aicore.ProviderID `json:"provider"`
	Model         string            `json:"model"`
	APIKey        string            `json:"-"`
	MaxIterations int               `json:"max_iterations"`
	Temperature   float64           `json:"temperature"`
}

// Task is one unit of work executed against the provider.
type Task struct {
	ID        string     `json:"id"`
	AgentID   string     `json:"agent_id"`
	Text      string     `json:"text"`
	Status    TaskStatus `json:"status"`
	Result    string     `json:"result,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TransitionTo moves the task to next, stamping UpdatedAt.
func (t *Task) TransitionTo(next TaskStatus, at time.Time) error {
	if !t.Status.CanTransitionTo(next) {
		return &TransitionError{Kind: "task", ID: t.ID, From: string(t.Status), To: string(next)}
	}
	t.Status = next
	t.UpdatedAt = at
	return nil
}

// LogEntry is an append-only record of something that happened during a run.
type LogEntry struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agent_id"`
	Message   string    `json:"message"`
	LogType   LogType   `json:"log_type"`
	CreatedAt time.Time `json:"created_at"`
}

// Agent is the stored record for one configured agent.
type Agent struct {
	ID             string
	Config         Config
	Status         AgentStatus
	Tasks          []Task
	Logs           []LogEntry
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ExecutionStart *time.Time
	ExecutionEnd   *time.Time
	ExecutionTime  string
}

// TransitionTo moves the agent to next, stamping UpdatedAt.
func (a *Agent) TransitionTo(next AgentStatus, at time.Time) error {
	if !a.Status.CanTransitionTo(next) {
		return &TransitionError{Kind: "agent", ID: a.ID, From: string(a.Status), To: string(next)}
	}
	a.Status = next
	a.UpdatedAt = at
	return nil
}

// CountTasks returns the number of tasks currently in status.
func (a *Agent) CountTasks(status TaskStatus) int {
	n := 0
	for _, t := range a.Tasks {
		if t.Status == status {
			n++
		}
	}
	return n
}

// Clone returns a deep copy safe to hand out to readers.
func (a *Agent) Clone() *Agent {
	if a == nil {
		return nil
	}
	out := *a
	out.Tasks = make([]Task, len(a.Tasks))
	copy(out.Tasks, a.Tasks)
	out.Logs = make([]LogEntry, len(a.Logs))
	copy(out.Logs, a.Logs)
	if a.ExecutionStart != nil {
		t := *a.ExecutionStart
		out.ExecutionStart = &t
	}
	if a.ExecutionEnd != nil {
		t := *a.ExecutionEnd
		out.ExecutionEnd = &t
	}
	return &out
}
