// Package webserver exposes the agent API over HTTP.
package webserver

import (
	"fmt"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stake-plus/agentgpt/src/agents/core"
	"github.com/stake-plus/agentgpt/src/agents/runner"
	aicore "github.com/stake-plus/agentgpt/src/ai/core"
	"github.com/stake-plus/agentgpt/src/events"
	"github.com/stake-plus/agentgpt/src/logging"
	"github.com/stake-plus/agentgpt/src/reports"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// Options wires the server's collaborators.
type Options struct {
	Store     core.Store
	Registry  aicore.Registry
	Runner    *runner.Runner
	Summaries *reports.Generator
	Exporter  *reports.Exporter
	Publisher events.Publisher
	Limiter   *RateLimiter

	CORSOrigins []string
	RequestLog  bool
	Gatherer    prometheus.Gatherer

	// Reported by /health.
	SettingsSource string
	EventSink      string

	Logger *log.Logger
	Now    func() time.Time
}

// New builds the gin engine with every route attached. It rejects CORS origins
// that are neither "*" nor an http(s) URL.
func New(opts Options) (*gin.Engine, error) {
	corsCfg := corsConfig(opts.CORSOrigins)
	if err := corsCfg.Validate(); err != nil {
		return nil, fmt.Errorf("cors origins: %w", err)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	if opts.RequestLog {
		r.Use(gin.Logger())
	}
	attachRoutes(r, corsCfg, opts)
	return r, nil
}

func attachRoutes(r *gin.Engine, corsCfg cors.Config, opts Options) {
	r.Use(cors.New(corsCfg))

	h := newHandlers(opts)
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/providers", h.Providers)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	agents := r.Group("/agents")
	{
		agents.POST("", h.CreateAgent)
		agents.GET("", h.ListAgents)
		agents.GET("/:id", h.GetAgent)
		agents.GET("/:id/tasks", h.Tasks)
		agents.GET("/:id/logs", h.Logs)
		agents.GET("/:id/summary", h.Summary)
		agents.POST("/:id/execute", RateLimitMiddleware(opts.Limiter), h.Execute)
		agents.POST("/:id/download", h.Download)
		agents.GET("/:id/download/:format", h.DownloadFormat)
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	if len(origins) == 0 {
		cfg.AllowOrigins = []string{"http://localhost:3000"}
	}
	return cfg
}

func (o Options) logger() *log.Logger { return logging.OrDiscard(o.Logger) }
