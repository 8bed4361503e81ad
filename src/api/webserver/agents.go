package webserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stake-plus/agentgpt/src/agents/core"
	"github.com/stake-plus/agentgpt/src/agents/runner"
	aicore "github.com/stake-plus/agentgpt/src/ai/core"
	"github.com/stake-plus/agentgpt/src/events"
	"github.com/stake-plus/agentgpt/src/reports"
)

type handlers struct {
	store     core.Store
	registry  aicore.Registry
	runner    *runner.Runner
	summaries *reports.Generator
	exporter  *reports.Exporter
	publisher events.Publisher

	settingsSource string
	eventSink      string

	logger *log.Logger
	now    func() time.Time
}

func newHandlers(opts Options) *handlers {
	h := &handlers{
		store:          opts.Store,
		registry:       opts.Registry,
		runner:         opts.Runner,
		summaries:      opts.Summaries,
		exporter:       opts.Exporter,
		publisher:      opts.Publisher,
		settingsSource: opts.SettingsSource,
		eventSink:      opts.EventSink,
		logger:         opts.logger(),
		now:            opts.Now,
	}
	if h.summaries == nil {
		h.summaries = reports.NewGenerator(h.store)
	}
	if h.exporter == nil {
		h.exporter = reports.NewExporter(h.store)
	}
	if h.publisher == nil {
		h.publisher = events.Nop{}
	}
	if h.now == nil {
		h.now = func() time.Time { return time.Now().UTC() }
	}
	if h.settingsSource == "" {
		h.settingsSource = "env"
	}
	if h.eventSink == "" {
		h.eventSink = "disabled"
	}
	return h
}

// agentView is the public projection of an agent; credentials never leave the store.
type agentView struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Goal      string           `json:"goal"`
	Provider  string           `json:"provider"`
	Model     string           `json:"model"`
	Status    core.AgentStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func viewOf(a *core.Agent) agentView {
	return agentView{
		ID:        a.ID,
		Name:      a.Config.Name,
		Goal:      a.Config.Goal,
		Provider:  string(a.Config.Provider),
		Model:     a.Config.Model,
		Status:    a.Status,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

type configRequest struct {
	Name          string   `json:"name"`
	Goal          string   `json:"goal"`
	Provider      string   `json:"provider"`
	Model         string   `json:"model"`
	APIKey        string   `json:"api_key"`
	MaxIterations *int     `json:"max_iterations"`
	Temperature   *float64 `json:"temperature"`
}

func (r configRequest) toConfig() core.Config {
	cfg := core.Config{
		Name:          r.Name,
		Goal:          r.Goal,
		Provider:      aicore.ProviderID(r.Provider),
		Model:         r.Model,
		APIKey:        r.APIKey,
		MaxIterations: core.DefaultMaxIterations,
		Temperature:   core.DefaultTemperature,
	}
	if r.MaxIterations != nil {
		cfg.MaxIterations = *r.MaxIterations
	}
	if r.Temperature != nil {
		cfg.Temperature = *r.Temperature
	}
	return cfg
}

// decodeCreate accepts {"config": {...}} as well as the bare config object.
func decodeCreate(body []byte) (configRequest, error) {
	var envelope struct {
		Config json.RawMessage `json:"config"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return configRequest{}, err
	}
	raw := body
	if len(bytes.TrimSpace(envelope.Config)) > 0 && !bytes.Equal(bytes.TrimSpace(envelope.Config), []byte("null")) {
		raw = envelope.Config
	}
	var req configRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return configRequest{}, err
	}
	return req, nil
}

func badRequest(c *gin.Context, format string, args ...any) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": fmt.Sprintf(format, args...)})
}

func (h *handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "AgentGPT API",
		"version":   Version,
		"providers": h.registry.IDs(),
	})
}

func (h *handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": h.now().UTC().Format(time.RFC3339Nano),
		"database":  "in-memory",
		"settings":  h.settingsSource,
		"events":    h.eventSink,
	})
}

func (h *handlers) Providers(c *gin.Context) {
	c.JSON(http.StatusOK, h.registry.Entries())
}

func (h *handlers) CreateAgent(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		badRequest(c, "read request body: %v", err)
		return
	}
	req, err := decodeCreate(body)
	if err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}

	cfg := req.toConfig()
	if err := cfg.Validate(h.registry); err != nil {
		abortWithError(c, err)
		return
	}

	agent, err := h.store.Create(cfg)
	if err != nil {
		abortWithError(c, err)
		return
	}
	h.logger.Printf("created agent %s (%s/%s)", agent.ID, cfg.Provider, cfg.Model)
	h.publish(c.Request.Context(), events.Event{
		Type:    events.AgentCreated,
		AgentID: agent.ID,
		Status:  string(agent.Status),
		Message: cfg.Name,
		At:      agent.CreatedAt,
	})

	c.JSON(http.StatusOK, viewOf(agent))
}

func (h *handlers) ListAgents(c *gin.Context) {
	agents := h.store.List()
	out := make([]agentView, 0, len(agents))
	for _, a := range agents {
		out = append(out, viewOf(a))
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) agent(c *gin.Context) (*core.Agent, bool) {
	agent, err := h.store.Get(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return nil, false
	}
	return agent, true
}

func (h *handlers) GetAgent(c *gin.Context) {
	if agent, ok := h.agent(c); ok {
		c.JSON(http.StatusOK, viewOf(agent))
	}
}

func (h *handlers) Tasks(c *gin.Context) {
	if agent, ok := h.agent(c); ok {
		c.JSON(http.StatusOK, agent.Tasks)
	}
}

func (h *handlers) Logs(c *gin.Context) {
	if agent, ok := h.agent(c); ok {
		c.JSON(http.StatusOK, agent.Logs)
	}
}

func (h *handlers) Summary(c *gin.Context) {
	if agent, ok := h.agent(c); ok {
		c.JSON(http.StatusOK, reports.Summarize(agent))
	}
}

func (h *handlers) Execute(c *gin.Context) {
	id := c.Param("id")
	res, err := h.runner.Execute(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":         "Agent execution completed successfully",
		"agent_id":        res.AgentID,
		"tasks_completed": res.TasksCompleted,
		"tasks_failed":    res.TasksFailed,
		"execution_time":  res.ExecutionTime,
	})
}

func (h *handlers) publish(ctx context.Context, event events.Event) {
	if err := h.publisher.Publish(ctx, event); err != nil {
		h.logger.Printf("publish %s: %v", event.Type, err)
	}
}
