package agents

import (
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/stake-plus/agentgpt/src/agents/core"
	"github.com/stake-plus/agentgpt/src/agents/runner"
	aicore "github.com/stake-plus/agentgpt/src/ai/core"
	"github.com/stake-plus/agentgpt/src/events"
	"github.com/stake-plus/agentgpt/src/metrics"
	"github.com/stake-plus/agentgpt/src/reports"
)

// Runtime bundles the shared services behind the HTTP surface.
type Runtime struct {
	Store     core.Store
	Registry  aicore.Registry
	Runner    *runner.Runner
	Summaries *reports.Generator
	Exporter  *reports.Exporter
	Publisher events.Publisher
	Metrics   *metrics.Metrics

	// EventSink names where run events go: "redis:<stream>" or "disabled".
	EventSink string

	redis  *redis.Client
	logger *log.Logger
}

// Close releases connections opened by Start.
func (r *Runtime) Close() error {
	if r == nil || r.redis == nil {
		return nil
	}
	return r.redis.Close()
}
