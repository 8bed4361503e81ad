// Package runner executes an agent's task plan against its AI provider.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/OneOfOne/xxhash"
	"github.com/google/uuid"

	"github.com/stake-plus/agentgpt/src/agents/core"
	aicore "github.com/stake-plus/agentgpt/src/ai/core"
	"github.com/stake-plus/agentgpt/src/events"
	"github.com/stake-plus/agentgpt/src/logging"
	"github.com/stake-plus/agentgpt/src/metrics"
)

// lockShards is the number of maps holding per-agent run locks.
const lockShards = 64

// RunFaultError is returned when a run aborts outside a single task's boundary.
// The agent is left in the failed state with whatever it recorded before the fault.
type RunFaultError struct {
	AgentID string
	Err     error
}

func (e *RunFaultError) Error() string {
	return fmt.Sprintf("Agent execution failed: %v", e.Err)
}

func (e *RunFaultError) Unwrap() error { return e.Err }

// RunResult summarizes one execution.
type RunResult struct {
	AgentID        string
	TasksCompleted int
	TasksFailed    int
	ExecutionTime  string
}

// ClientFactory builds a provider client for one run.
type ClientFactory func(aicore.FactoryConfig) (aicore.Client, error)

// Runner drives agent executions. Runs of the same agent are serialized; runs of
// different agents proceed concurrently.
type Runner struct {
	store     core.Store
	registry  aicore.Registry
	newClient ClientFactory

	httpClient *http.Client
	maxTokens  int
	publisher  events.Publisher
	metrics    *metrics.Metrics
	logger     *log.Logger
	now        func() time.Time
	newID      func() string

	locks [lockShards]lockShard
}

// lockShard holds the run locks of the agents hashed to it. Entries live only
// while a run holds or waits for them.
type lockShard struct {
	mu    sync.Mutex
	locks map[string]*agentLock
}

type agentLock struct {
	mu   sync.Mutex
	refs int
}

// Option customizes a Runner.
type Option func(*Runner)

// WithClientFactory overrides how provider clients are built.
func WithClientFactory(f ClientFactory) Option { return func(r *Runner) { r.newClient = f } }

// WithHTTPClient sets the HTTP client handed to provider clients.
func WithHTTPClient(c *http.Client) Option { return func(r *Runner) { r.httpClient = c } }

// WithMaxTokens sets the completion ceiling sent to providers.
func WithMaxTokens(n int) Option { return func(r *Runner) { r.maxTokens = n } }

// WithPublisher sets the run event sink.
func WithPublisher(p events.Publisher) Option { return func(r *Runner) { r.publisher = p } }

// WithMetrics sets the Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option { return func(r *Runner) { r.metrics = m } }

// WithLogger sets the runner's logger.
func WithLogger(l *log.Logger) Option { return func(r *Runner) { r.logger = l } }

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option { return func(r *Runner) { r.now = now } }

// New returns a Runner over store using registry for provider endpoints.
func New(store core.Store, registry aicore.Registry, opts ...Option) *Runner {
	r := &Runner{
		store:     store,
		registry:  registry,
		newClient: aicore.NewClient,
		publisher: events.Nop{},
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.OrDiscard(r.logger)
	if r.publisher == nil {
		r.publisher = events.Nop{}
	}
	return r
}

func (r *Runner) lock(agentID string) func() {
	shard := &r.locks[xxhash.ChecksumString64(agentID)%lockShards]

	shard.mu.Lock()
	if shard.locks == nil {
		shard.locks = make(map[string]*agentLock)
	}
	l, ok := shard.locks[agentID]
	if !ok {
		l = &agentLock{}
		shard.locks[agentID] = l
	}
	l.refs++
	shard.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		shard.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(shard.locks, agentID)
		}
		shard.mu.Unlock()
	}
}

// Execute runs the agent's task plan to completion. It returns core.ErrAgentNotFound
// for unknown IDs and *RunFaultError when the run aborts; provider failures and
// per-task faults are recorded on the tasks instead.
func (r *Runner) Execute(ctx context.Context, agentID string) (result RunResult, err error) {
	unlock := r.lock(agentID)
	defer unlock()

	// Callers going away must not abandon a half-recorded run.
	ctx = context.WithoutCancel(ctx)

	agent, err := r.store.Get(agentID)
	if err != nil {
		return RunResult{}, err
	}

	start := r.now()
	err = r.store.Update(agentID, func(a *core.Agent) error {
		if err := a.TransitionTo(core.AgentRunning, start); err != nil {
			return err
		}
		a.ExecutionStart = &start
		a.ExecutionEnd = nil
		a.ExecutionTime = ""
		return nil
	})
	if err != nil {
		return RunResult{}, &RunFaultError{AgentID: agentID, Err: err}
	}
	r.metrics.RunStarted()
	r.publish(ctx, events.Event{Type: events.RunStarted, AgentID: agentID, Status: string(core.AgentRunning), At: start})

	defer func() {
		if p := recover(); p != nil {
			result, err = r.fail(ctx, agentID, fmt.Errorf("panic: %v", p))
		}
	}()

	client, err := r.clientFor(agent.Config)
	if err != nil {
		return r.fail(ctx, agentID, err)
	}

	result.AgentID = agentID
	for _, text := range Plan(agent.Config.Goal, agent.Config.MaxIterations) {
		status, err := r.runTask(ctx, agent, client, text)
		if err != nil {
			return r.fail(ctx, agentID, err)
		}
		switch status {
		case core.TaskCompleted:
			result.TasksCompleted++
		case core.TaskFailed:
			result.TasksFailed++
		case core.TaskPending, core.TaskRunning:
			return r.fail(ctx, agentID, fmt.Errorf("task %q left unsettled", text))
		}
	}

	end := r.now()
	err = r.store.Update(agentID, func(a *core.Agent) error {
		if err := a.TransitionTo(core.AgentCompleted, end); err != nil {
			return err
		}
		a.ExecutionEnd = &end
		a.ExecutionTime = FormatDuration(end.Sub(start))
		return nil
	})
	if err != nil {
		return r.fail(ctx, agentID, err)
	}
	result.ExecutionTime = FormatDuration(end.Sub(start))

	msg := fmt.Sprintf("Agent execution completed successfully. Generated %d tasks.", result.TasksCompleted)
	if err := r.appendLog(agentID, core.LogInfo, msg); err != nil {
		return r.fail(ctx, agentID, err)
	}

	r.metrics.RunFinished(string(core.AgentCompleted))
	r.publish(ctx, events.Event{Type: events.RunCompleted, AgentID: agentID, Status: string(core.AgentCompleted), Message: msg, At: end})
	r.logger.Printf("agent %s completed: %d completed, %d failed in %s",
		agentID, result.TasksCompleted, result.TasksFailed, result.ExecutionTime)
	return result, nil
}

// runTask records and executes one task. The returned error is a run-level fault;
// provider and client failures are contained and reflected in the task status.
func (r *Runner) runTask(ctx context.Context, agent *core.Agent, client aicore.Client, text string) (core.TaskStatus, error) {
	created := r.now()
	task := core.Task{
		ID:        r.newID(),
		AgentID:   agent.ID,
		Text:      text,
		Status:    core.TaskRunning,
		CreatedAt: created,
		UpdatedAt: created,
	}
	if err := r.store.AppendTask(agent.ID, task); err != nil {
		return "", fmt.Errorf("append task: %w", err)
	}
	if err := r.appendLog(agent.ID, core.LogInfo, "Starting task: "+text); err != nil {
		return "", err
	}
	r.publish(ctx, events.Event{Type: events.TaskStarted, AgentID: agent.ID, TaskID: task.ID, Status: string(task.Status), Message: text, At: created})

	completion, callErr := r.callProvider(ctx, agent.Config, client, text)

	next, logType, msg, evt := core.TaskCompleted, core.LogInfo, "Completed task: "+text, events.TaskCompleted
	task.Result = completion.Text
	if callErr != nil {
		next, logType, evt = core.TaskFailed, core.LogError, events.TaskFailed
		msg = fmt.Sprintf("Task failed: %s - %v", text, callErr)
		task.Result = fmt.Sprintf("Task failed: %v", callErr)
		r.logger.Printf("agent %s: %s", agent.ID, msg)
	} else if completion.Degraded() {
		r.logger.Printf("agent %s: provider degraded on %q: %s", agent.ID, text, completion.Failure)
	}

	settled := r.now()
	if err := task.TransitionTo(next, settled); err != nil {
		return "", err
	}
	if err := r.store.UpdateTask(agent.ID, task); err != nil {
		return "", fmt.Errorf("update task: %w", err)
	}
	if err := r.appendLog(agent.ID, logType, msg); err != nil {
		return "", err
	}
	r.metrics.TaskSettled(string(next))
	r.publish(ctx, events.Event{Type: evt, AgentID: agent.ID, TaskID: task.ID, Status: string(next), At: settled})
	return next, nil
}

// callProvider invokes the client, converting panics into errors so one faulty
// call fails its task rather than the run.
func (r *Runner) callProvider(ctx context.Context, cfg core.Config, client aicore.Client, text string) (completion aicore.Completion, err error) {
	began := time.Now()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("provider client panic: %v", p)
		}
		outcome := metrics.OutcomeOK
		switch {
		case err != nil:
			outcome = metrics.OutcomeFault
		case completion.Degraded():
			outcome = metrics.OutcomeDegraded
		}
		r.metrics.ObserveProviderCall(string(cfg.Provider), outcome, time.Since(began))
	}()

	return client.ExecuteTask(ctx, cfg.Goal, text, aicore.Options{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   r.maxTokens,
	})
}

func (r *Runner) clientFor(cfg core.Config) (aicore.Client, error) {
	info, err := r.registry.Lookup(cfg.Provider)
	if err != nil {
		return nil, err
	}
	client, err := r.newClient(aicore.FactoryConfig{
		Provider:   cfg.Provider,
		BaseURL:    info.BaseURL,
		APIKey:     cfg.APIKey,
		MaxTokens:  r.maxTokens,
		HTTPClient: r.httpClient,
		Logger:     r.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build %s client: %w", cfg.Provider, err)
	}
	if client == nil {
		return nil, errors.New("provider factory returned no client")
	}
	return client, nil
}

// fail marks the agent failed after a run-level fault and reports it to the caller.
func (r *Runner) fail(ctx context.Context, agentID string, cause error) (RunResult, error) {
	at := r.now()
	if err := r.store.Update(agentID, func(a *core.Agent) error {
		if a.Status == core.AgentRunning {
			return a.TransitionTo(core.AgentFailed, at)
		}
		return nil
	}); err != nil {
		r.logger.Printf("agent %s: mark failed: %v", agentID, err)
	}
	msg := fmt.Sprintf("Agent execution failed: %v", cause)
	if err := r.appendLog(agentID, core.LogError, msg); err != nil {
		r.logger.Printf("agent %s: record failure log: %v", agentID, err)
	}
	r.logger.Printf("agent %s: %s", agentID, msg)
	r.metrics.RunFinished(string(core.AgentFailed))
	r.publish(ctx, events.Event{Type: events.RunFailed, AgentID: agentID, Status: string(core.AgentFailed), Message: msg, At: at})
	return RunResult{}, &RunFaultError{AgentID: agentID, Err: cause}
}

func (r *Runner) appendLog(agentID string, logType core.LogType, message string) error {
	err := r.store.AppendLog(agentID, core.LogEntry{
		ID:        r.newID(),
		AgentID:   agentID,
		Message:   message,
		LogType:   logType,
		CreatedAt: r.now(),
	})
	if err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}

func (r *Runner) publish(ctx context.Context, event events.Event) {
	if err := r.publisher.Publish(ctx, event); err != nil {
		r.logger.Printf("publish %s for agent %s: %v", event.Type, event.AgentID, err)
	}
}
