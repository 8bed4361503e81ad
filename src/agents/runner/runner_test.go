package runner

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/OneOfOne/xxhash"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stake-plus/agentgpt/src/agents/core"
	aicore "github.com/stake-plus/agentgpt/src/ai/core"
	_ "github.com/stake-plus/agentgpt/src/ai/providers"
	"github.com/stake-plus/agentgpt/src/events"
	"github.com/stake-plus/agentgpt/src/metrics"
)

type fakeClient struct {
	mu    sync.Mutex
	calls []string
	reply func(task string) (aicore.Completion, error)
	delay time.Duration
}

func (f *fakeClient) ChatCompletion(ctx context.Context, msgs []aicore.Message, opts aicore.Options) (aicore.Completion, error) {
	return f.ExecuteTask(ctx, "", msgs[len(msgs)-1].Content, opts)
}

func (f *fakeClient) ExecuteTask(_ context.Context, _ string, task string, _ aicore.Options) (aicore.Completion, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	f.calls = append(f.calls, task)
	f.mu.Unlock()
	if f.reply == nil {
		return aicore.Completion{Text: "result: " + task}, nil
	}
	return f.reply(task)
}

func factoryFor(c aicore.Client) ClientFactory {
	return func(aicore.FactoryConfig) (aicore.Client, error) { return c, nil }
}

func steppingClock(step time.Duration) func() time.Time {
	var mu sync.Mutex
	t := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(step)
		return t
	}
}

func newAgent(t *testing.T, store core.Store, maxIterations int) *core.Agent {
	t.Helper()
	a, err := store.Create(core.Config{
		Name:          "Scout",
		Goal:          "X",
		Provider:      aicore.ProviderCerebras,
		Model:         "llama3.1-8b",
		APIKey:        "key",
		MaxIterations: maxIterations,
		Temperature:   0.5,
	})
	require.NoError(t, err)
	return a
}

func TestExecuteTwoIterations(t *testing.T) {
	store := core.NewMemoryStore()
	agent := newAgent(t, store, 2)
	client := &fakeClient{}
	r := New(store, aicore.DefaultRegistry(), WithClientFactory(factoryFor(client)))

	res, err := r.Execute(context.Background(), agent.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.TasksCompleted)
	assert.Equal(t, 0, res.TasksFailed)

	got, _ := store.Get(agent.ID)
	assert.Equal(t, core.AgentCompleted, got.Status)
	require.Len(t, got.Tasks, 2)
	assert.Equal(t, "Research and analyze: X", got.Tasks[0].Text)
	assert.Equal(t, "Gather comprehensive information about: X", got.Tasks[1].Text)
	for _, task := range got.Tasks {
		assert.Equal(t, core.TaskCompleted, task.Status)
		assert.Equal(t, "result: "+task.Text, task.Result)
		assert.Equal(t, agent.ID, task.AgentID)
	}
	assert.Regexp(t, regexp.MustCompile(`^\d+m \d+s$`), got.ExecutionTime)
	require.NotNil(t, got.ExecutionStart)
	require.NotNil(t, got.ExecutionEnd)

	messages := make([]string, 0, len(got.Logs))
	for _, l := range got.Logs {
		assert.Equal(t, core.LogInfo, l.LogType)
		messages = append(messages, l.Message)
	}
	assert.Equal(t, []string{
		"Starting task: Research and analyze: X",
		"Completed task: Research and analyze: X",
		"Starting task: Gather comprehensive information about: X",
		"Completed task: Gather comprehensive information about: X",
		"Agent execution completed successfully. Generated 2 tasks.",
	}, messages)
}

func TestTaskCountMatchesIterationBound(t *testing.T) {
	for _, n := range []int{1, 3, 5, 7, 10} {
		store := core.NewMemoryStore()
		agent := newAgent(t, store, n)
		r := New(store, aicore.DefaultRegistry(), WithClientFactory(factoryFor(&fakeClient{})))

		_, err := r.Execute(context.Background(), agent.ID)
		require.NoError(t, err)

		got, _ := store.Get(agent.ID)
		want := Plan("X", n)
		require.Len(t, got.Tasks, min(n, 5))
		for i, task := range got.Tasks {
			assert.Equal(t, want[i], task.Text)
		}
	}
}

func TestExecuteUnknownAgent(t *testing.T) {
	r := New(core.NewMemoryStore(), aicore.DefaultRegistry())
	_, err := r.Execute(context.Background(), "missing")
	assert.True(t, errors.Is(err, core.ErrAgentNotFound))
}

func TestClientErrorsFailTasksButNotTheRun(t *testing.T) {
	store := core.NewMemoryStore()
	agent := newAgent(t, store, 3)
	client := &fakeClient{reply: func(task string) (aicore.Completion, error) {
		if task == "Gather comprehensive information about: X" {
			return aicore.Completion{}, errors.New("client exploded")
		}
		return aicore.Completion{Text: "fine"}, nil
	}}
	r := New(store, aicore.DefaultRegistry(), WithClientFactory(factoryFor(client)))

	res, err := r.Execute(context.Background(), agent.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.TasksCompleted)
	assert.Equal(t, 1, res.TasksFailed)

	got, _ := store.Get(agent.ID)
	assert.Equal(t, core.AgentCompleted, got.Status)
	require.Len(t, got.Tasks, 3)
	assert.Equal(t, core.TaskCompleted, got.Tasks[0].Status)
	assert.Equal(t, core.TaskFailed, got.Tasks[1].Status)
	assert.Equal(t, "Task failed: client exploded", got.Tasks[1].Result)
	assert.Equal(t, core.TaskCompleted, got.Tasks[2].Status)

	var errorLogs []string
	for _, l := range got.Logs {
		if l.LogType == core.LogError {
			errorLogs = append(errorLogs, l.Message)
		}
	}
	assert.Equal(t, []string{"Task failed: Gather comprehensive information about: X - client exploded"}, errorLogs)
}

func TestClientPanicFailsOnlyThatTask(t *testing.T) {
	store := core.NewMemoryStore()
	agent := newAgent(t, store, 2)
	client := &fakeClient{reply: func(task string) (aicore.Completion, error) {
		if task == "Research and analyze: X" {
			panic("nil map")
		}
		return aicore.Completion{Text: "fine"}, nil
	}}
	r := New(store, aicore.DefaultRegistry(), WithClientFactory(factoryFor(client)))

	res, err := r.Execute(context.Background(), agent.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.TasksFailed)

	got, _ := store.Get(agent.ID)
	assert.Equal(t, core.TaskFailed, got.Tasks[0].Status)
	assert.Contains(t, got.Tasks[0].Result, "provider client panic: nil map")
	assert.Equal(t, core.TaskCompleted, got.Tasks[1].Status)
}

func TestProviderOutageDegradesToCompletedTasks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	deadURL := srv.URL
	srv.Close()

	store := core.NewMemoryStore()
	agent := newAgent(t, store, 3)
	reg := aicore.DefaultRegistry().WithBaseURL(aicore.ProviderCerebras, deadURL)
	r := New(store, reg, WithHTTPClient(&http.Client{Timeout: time.Second}))

	res, err := r.Execute(context.Background(), agent.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, res.TasksCompleted)
	assert.Equal(t, 0, res.TasksFailed)

	got, _ := store.Get(agent.ID)
	require.Len(t, got.Tasks, 3)
	for _, task := range got.Tasks {
		assert.Equal(t, core.TaskCompleted, task.Status)
		assert.Contains(t, task.Result, "AI provider temporarily unavailable. Error:")
	}
}

func TestProviderNon2xxDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	store := core.NewMemoryStore()
	agent := newAgent(t, store, 2)
	reg := aicore.DefaultRegistry().WithBaseURL(aicore.ProviderCerebras, srv.URL)
	r := New(store, reg)

	res, err := r.Execute(context.Background(), agent.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.TasksCompleted)
}

type faultyStore struct {
	*core.MemoryStore
	mu          sync.Mutex
	failAfter   int
	appended    int
	failUpdates bool
}

func (s *faultyStore) Update(agentID string, fn func(*core.Agent) error) error {
	s.mu.Lock()
	broken := s.failUpdates && s.appended > s.failAfter
	s.mu.Unlock()
	if broken {
		return errors.New("store read-only")
	}
	return s.MemoryStore.Update(agentID, fn)
}

func (s *faultyStore) AppendTask(agentID string, task core.Task) error {
	s.mu.Lock()
	s.appended++
	n := s.appended
	s.mu.Unlock()
	if n > s.failAfter {
		return errors.New("store corrupted")
	}
	return s.MemoryStore.AppendTask(agentID, task)
}

func TestRunFaultMarksAgentFailed(t *testing.T) {
	store := &faultyStore{MemoryStore: core.NewMemoryStore(), failAfter: 2}
	agent := newAgent(t, store, 5)
	rec := &events.Recorder{}
	r := New(store, aicore.DefaultRegistry(),
		WithClientFactory(factoryFor(&fakeClient{})),
		WithPublisher(rec))

	_, err := r.Execute(context.Background(), agent.ID)
	require.Error(t, err)
	var fault *RunFaultError
	require.True(t, errors.As(err, &fault))
	assert.Equal(t, agent.ID, fault.AgentID)
	assert.Contains(t, err.Error(), "Agent execution failed: append task: store corrupted")

	got, getErr := store.Get(agent.ID)
	require.NoError(t, getErr)
	assert.Equal(t, core.AgentFailed, got.Status)
	assert.Len(t, got.Tasks, 2)
	last := got.Logs[len(got.Logs)-1]
	assert.Equal(t, core.LogError, last.LogType)
	assert.Contains(t, last.Message, "Agent execution failed:")

	types := rec.Types()
	assert.Equal(t, events.RunFailed, types[len(types)-1])
}

func TestFailedStatusUpdateIsLogged(t *testing.T) {
	store := &faultyStore{MemoryStore: core.NewMemoryStore(), failAfter: 1, failUpdates: true}
	agent := newAgent(t, store, 3)
	var buf bytes.Buffer
	r := New(store, aicore.DefaultRegistry(),
		WithClientFactory(factoryFor(&fakeClient{})),
		WithLogger(log.New(&buf, "", 0)))

	_, err := r.Execute(context.Background(), agent.ID)
	var fault *RunFaultError
	require.True(t, errors.As(err, &fault))

	assert.Contains(t, buf.String(), "agent "+agent.ID+": mark failed: store read-only")
	got, _ := store.Get(agent.ID)
	assert.Equal(t, core.AgentRunning, got.Status)
}

func TestClientConstructionFailureIsRunFault(t *testing.T) {
	store := core.NewMemoryStore()
	agent := newAgent(t, store, 2)
	r := New(store, aicore.DefaultRegistry(), WithClientFactory(func(aicore.FactoryConfig) (aicore.Client, error) {
		return nil, errors.New("no transport")
	}))

	_, err := r.Execute(context.Background(), agent.ID)
	var fault *RunFaultError
	require.True(t, errors.As(err, &fault))

	got, _ := store.Get(agent.ID)
	assert.Equal(t, core.AgentFailed, got.Status)
	assert.Empty(t, got.Tasks)
}

func TestFailedAgentCanRunAgain(t *testing.T) {
	store := core.NewMemoryStore()
	agent := newAgent(t, store, 1)
	calls := 0
	r := New(store, aicore.DefaultRegistry(), WithClientFactory(func(aicore.FactoryConfig) (aicore.Client, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("flaky")
		}
		return &fakeClient{}, nil
	}))

	_, err := r.Execute(context.Background(), agent.ID)
	require.Error(t, err)
	_, err = r.Execute(context.Background(), agent.ID)
	require.NoError(t, err)

	got, _ := store.Get(agent.ID)
	assert.Equal(t, core.AgentCompleted, got.Status)
	assert.Len(t, got.Tasks, 1)
}

func TestExecutionTimeUsesClock(t *testing.T) {
	store := core.NewMemoryStore()
	agent := newAgent(t, store, 1)
	r := New(store, aicore.DefaultRegistry(),
		WithClientFactory(factoryFor(&fakeClient{})),
		WithClock(steppingClock(13*time.Second)))

	res, err := r.Execute(context.Background(), agent.ID)
	require.NoError(t, err)

	got, _ := store.Get(agent.ID)
	assert.Equal(t, res.ExecutionTime, got.ExecutionTime)
	assert.Equal(t, FormatDuration(got.ExecutionEnd.Sub(*got.ExecutionStart)), got.ExecutionTime)
	assert.NotEqual(t, "0m 0s", got.ExecutionTime)
}

func TestConcurrentRunsOfSameAgentAreSerialized(t *testing.T) {
	store := core.NewMemoryStore()
	agent := newAgent(t, store, 3)
	r := New(store, aicore.DefaultRegistry(), WithClientFactory(factoryFor(&fakeClient{delay: 5 * time.Millisecond})))

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Execute(context.Background(), agent.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, _ := store.Get(agent.ID)
	plan := Plan("X", 3)
	require.Len(t, got.Tasks, 6)
	for i, task := range got.Tasks {
		assert.Equal(t, plan[i%3], task.Text, "runs must not interleave")
	}
	assert.Equal(t, core.AgentCompleted, got.Status)
}

// gateClient parks the first task until release is closed; later tasks return at once.
type gateClient struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (g *gateClient) ChatCompletion(ctx context.Context, msgs []aicore.Message, opts aicore.Options) (aicore.Completion, error) {
	return g.ExecuteTask(ctx, "", msgs[len(msgs)-1].Content, opts)
}

func (g *gateClient) ExecuteTask(_ context.Context, _ string, task string, _ aicore.Options) (aicore.Completion, error) {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.started)
		<-g.release
	}
	return aicore.Completion{Text: "done: " + task}, nil
}

func TestAgentsSharingALockShardRunConcurrently(t *testing.T) {
	store := core.NewMemoryStore()
	first := newAgent(t, store, 1)
	shard := xxhash.ChecksumString64(first.ID) % lockShards
	var second *core.Agent
	for i := 0; i < 10000 && second == nil; i++ {
		cand := newAgent(t, store, 1)
		if xxhash.ChecksumString64(cand.ID)%lockShards == shard {
			second = cand
		}
	}
	require.NotNil(t, second, "no agent hashed to the same shard")

	client := &gateClient{started: make(chan struct{}), release: make(chan struct{})}
	var releaseOnce sync.Once
	release := func() { releaseOnce.Do(func() { close(client.release) }) }
	defer release()
	r := New(store, aicore.DefaultRegistry(), WithClientFactory(factoryFor(client)))

	firstDone := make(chan error, 1)
	go func() {
		_, err := r.Execute(context.Background(), first.ID)
		firstDone <- err
	}()
	select {
	case <-client.started:
	case <-time.After(2 * time.Second):
		t.Fatal("first run never reached its provider call")
	}

	secondDone := make(chan error, 1)
	go func() {
		_, err := r.Execute(context.Background(), second.ID)
		secondDone <- err
	}()
	select {
	case err := <-secondDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatalf("run of %s waited on unrelated agent %s", second.ID, first.ID)
	}

	release()
	require.NoError(t, <-firstDone)

	s := &r.locks[shard]
	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Empty(t, s.locks)
}

func TestEventsAndMetrics(t *testing.T) {
	store := core.NewMemoryStore()
	agent := newAgent(t, store, 2)
	rec := &events.Recorder{}
	reg := prometheus.NewRegistry()
	m := metrics.MustNewMetrics(reg)
	client := &fakeClient{reply: func(task string) (aicore.Completion, error) {
		return aicore.Completion{Text: "fallback", Failure: "down"}, nil
	}}
	r := New(store, aicore.DefaultRegistry(),
		WithClientFactory(factoryFor(client)),
		WithPublisher(rec),
		WithMetrics(m))

	_, err := r.Execute(context.Background(), agent.ID)
	require.NoError(t, err)
	assert.Equal(t, []events.Type{
		events.RunStarted,
		events.TaskStarted, events.TaskCompleted,
		events.TaskStarted, events.TaskCompleted,
		events.RunCompleted,
	}, rec.Types())

	expected := `
# HELP agentgpt_provider_calls_total Provider completion calls by outcome.
# TYPE agentgpt_provider_calls_total counter
agentgpt_provider_calls_total{outcome="degraded",provider="cerebras"} 2
# HELP agentgpt_runner_runs_total Agent executions by final status.
# TYPE agentgpt_runner_runs_total counter
agentgpt_runner_runs_total{status="completed"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"agentgpt_provider_calls_total", "agentgpt_runner_runs_total"))
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, events.Event) error { return errors.New("redis down") }

func TestPublishFailuresDoNotAffectRun(t *testing.T) {
	store := core.NewMemoryStore()
	agent := newAgent(t, store, 2)
	r := New(store, aicore.DefaultRegistry(),
		WithClientFactory(factoryFor(&fakeClient{})),
		WithPublisher(failingPublisher{}))

	res, err := r.Execute(context.Background(), agent.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.TasksCompleted)
}

func TestCancelledCallerContextDoesNotAbortRun(t *testing.T) {
	store := core.NewMemoryStore()
	agent := newAgent(t, store, 2)
	var seen []error
	client := &ctxClient{onCall: func(ctx context.Context) { seen = append(seen, ctx.Err()) }}
	r := New(store, aicore.DefaultRegistry(), WithClientFactory(factoryFor(client)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Execute(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, []error{nil, nil}, seen)
}

type ctxClient struct{ onCall func(context.Context) }

func (c *ctxClient) ChatCompletion(ctx context.Context, _ []aicore.Message, _ aicore.Options) (aicore.Completion, error) {
	c.onCall(ctx)
	return aicore.Completion{Text: "ok"}, nil
}

func (c *ctxClient) ExecuteTask(ctx context.Context, _, _ string, opts aicore.Options) (aicore.Completion, error) {
	return c.ChatCompletion(ctx, nil, opts)
}
