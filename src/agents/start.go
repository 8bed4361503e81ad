package agents

import (
	"context"
	"fmt"
	"log"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/stake-plus/agentgpt/src/agents/core"
	"github.com/stake-plus/agentgpt/src/agents/runner"
	aicore "github.com/stake-plus/agentgpt/src/ai/core"
	_ "github.com/stake-plus/agentgpt/src/ai/providers"
	"github.com/stake-plus/agentgpt/src/config"
	"github.com/stake-plus/agentgpt/src/data"
	"github.com/stake-plus/agentgpt/src/events"
	"github.com/stake-plus/agentgpt/src/logging"
	"github.com/stake-plus/agentgpt/src/metrics"
	"github.com/stake-plus/agentgpt/src/reports"
	"github.com/stake-plus/agentgpt/src/webclient"
)

// StartOption customizes Start.
type StartOption func(*startOptions)

type startOptions struct {
	store      core.Store
	registerer prometheus.Registerer
	clients    runner.ClientFactory
}

// WithStore replaces the in-memory agent store.
func WithStore(s core.Store) StartOption { return func(o *startOptions) { o.store = s } }

// WithRegisterer registers metrics somewhere other than the global registry.
func WithRegisterer(r prometheus.Registerer) StartOption {
	return func(o *startOptions) { o.registerer = r }
}

// WithClientFactory overrides provider client construction.
func WithClientFactory(f runner.ClientFactory) StartOption {
	return func(o *startOptions) { o.clients = f }
}

// Start wires the agent runtime from cfg. Redis is optional; when configured it
// must be reachable.
func Start(ctx context.Context, cfg config.Config, opts ...StartOption) (*Runtime, error) {
	var o startOptions
	for _, opt := range opts {
		opt(&o)
	}

	logger := logging.New("agents")

	registry := cfg.Registry(aicore.DefaultRegistry())
	if err := registry.Validate(); err != nil {
		return nil, fmt.Errorf("agents: provider registry: %w", err)
	}

	store := o.store
	if store == nil {
		store = core.NewMemoryStore()
	}

	m := metrics.Default()
	if o.registerer != nil {
		m = metrics.MustNewMetrics(o.registerer)
	}

	rt := &Runtime{
		Store:     store,
		Registry:  registry,
		Metrics:   m,
		Publisher: events.Nop{},
		EventSink: "disabled",
		logger:    logger,
	}

	if cfg.RedisURL != "" {
		rdb, err := data.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("agents: event stream: %w", err)
		}
		pub := events.NewRedisPublisher(rdb, cfg.EventStream)
		rt.redis = rdb
		rt.Publisher = pub
		rt.EventSink = "redis:" + pub.Stream()
	} else {
		logger.Printf("event stream disabled (no redis_url)")
	}

	runnerOpts := []runner.Option{
		runner.WithHTTPClient(webclient.NewDefault(cfg.ProviderTimeout)),
		runner.WithMaxTokens(cfg.MaxTokens),
		runner.WithPublisher(rt.Publisher),
		runner.WithMetrics(m),
		runner.WithLogger(logging.New("runner")),
	}
	if o.clients != nil {
		runnerOpts = append(runnerOpts, runner.WithClientFactory(o.clients))
	}
	rt.Runner = runner.New(store, registry, runnerOpts...)
	rt.Summaries = reports.NewGenerator(store)
	rt.Exporter = reports.NewExporter(store)

	for _, id := range registry.IDs() {
		info, _ := registry.Lookup(id)
		logger.Printf("provider %s -> %s (%d models)", id, info.BaseURL, len(info.Models))
	}
	return rt, nil
}

// Logger returns the runtime's component logger.
func (r *Runtime) Logger() *log.Logger { return logging.OrDiscard(r.logger) }
