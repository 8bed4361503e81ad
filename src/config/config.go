package config

import (
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	aicore "github.com/stake-plus/agentgpt/src/ai/core"
	"github.com/stake-plus/agentgpt/src/data"
	"github.com/stake-plus/agentgpt/src/events"
)

const (
	defaultPort          = "8000"
	defaultCORSOrigin    = "http://localhost:3000"
	defaultEnvironment   = "development"
	defaultMaxTokens     = 2000
	defaultExecuteLimit  = 10
	defaultExecuteWindow = time.Minute
	defaultTimeout       = 120 * time.Second
)

// Config holds everything the server needs at startup.
type Config struct {
	Port        string
	CORSOrigins []string
	Debug       bool
	Environment string

	RedisURL    string
	EventStream string

	ProviderTimeout time.Duration
	MaxTokens       int
	BaseURLs        map[aicore.ProviderID]string

	ExecuteRateLimit  int
	ExecuteRateWindow time.Duration

	// TLS is enabled when both files are set.
	TLSCertFile string
	TLSKeyFile  string
}

// Load resolves configuration from the settings table (when db is non-nil),
// then the environment, then defaults.
func Load(db *gorm.DB) Config {
	if db != nil {
		if err := data.LoadSettings(db); err != nil {
			log.Printf("config: load settings: %v (falling back to env)", err)
		}
	}

	cfg := Config{
		Port:              GetSetting("port", "PORT", defaultPort),
		CORSOrigins:       getListSetting("cors_origins", "CORS_ORIGINS", []string{defaultCORSOrigin}),
		Debug:             getBoolSetting("debug", "DEBUG", false),
		Environment:       GetSetting("environment", "ENVIRONMENT", defaultEnvironment),
		RedisURL:          GetSetting("redis_url", "REDIS_URL", ""),
		EventStream:       GetSetting("event_stream", "EVENT_STREAM", events.DefaultStream),
		ProviderTimeout:   getSecondsSetting("provider_timeout_seconds", "PROVIDER_TIMEOUT_SECONDS", defaultTimeout),
		MaxTokens:         getIntSetting("max_tokens", "MAX_TOKENS", defaultMaxTokens),
		ExecuteRateLimit:  getIntSetting("execute_rate_limit", "EXECUTE_RATE_LIMIT", defaultExecuteLimit),
		ExecuteRateWindow: getSecondsSetting("execute_rate_window_seconds", "EXECUTE_RATE_WINDOW_SECONDS", defaultExecuteWindow),
		TLSCertFile:       GetSetting("tls_cert_file", "TLS_CERT_FILE", ""),
		TLSKeyFile:        GetSetting("tls_key_file", "TLS_KEY_FILE", ""),
		BaseURLs:          map[aicore.ProviderID]string{},
	}

	for _, id := range aicore.DefaultRegistry().IDs() {
		name := string(id) + "_base_url"
		if url := GetSetting(name, strings.ToUpper(name), ""); url != "" {
			cfg.BaseURLs[id] = url
		}
	}
	return cfg
}

// Registry applies base URL overrides to reg.
func (c Config) Registry(reg aicore.Registry) aicore.Registry {
	for id, url := range c.BaseURLs {
		reg = reg.WithBaseURL(id, url)
	}
	return reg
}

// TLSEnabled reports whether a certificate pair is configured.
func (c Config) TLSEnabled() bool { return c.TLSCertFile != "" && c.TLSKeyFile != "" }

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}
