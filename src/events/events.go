// Package events fans agent run progress out to external subscribers.
package events

import (
	"context"
	"sync"
	"time"
)

// Type names a run event.
type Type string

const (
	AgentCreated  Type = "agent.created"
	RunStarted    Type = "run.started"
	TaskStarted   Type = "task.started"
	TaskCompleted Type = "task.completed"
	TaskFailed    Type = "task.failed"
	RunCompleted  Type = "run.completed"
	RunFailed     Type = "run.failed"
)

// Event is a single progress notification.
type Event struct {
	Type    Type
	AgentID string
	TaskID  string
	Status  string
	Message string
	At      time.Time
}

// Values flattens the event into stream fields.
func (e Event) Values() map[string]any {
	values := map[string]any{
		"type":     string(e.Type),
		"agent_id": e.AgentID,
		"time":     e.At.Unix(),
	}
	if e.TaskID != "" {
		values["task_id"] = e.TaskID
	}
	if e.Status != "" {
		values["status"] = e.Status
	}
	if e.Message != "" {
		values["message"] = e.Message
	}
	return values
}

// Publisher delivers events. Publish failures are reported but never fatal to a run.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Recorder keeps events in memory; useful for tests and debugging.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types returns the event types in publish order.
func (r *Recorder) Types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Type, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}
