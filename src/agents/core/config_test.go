package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	aicore "github.com/stake-plus/agentgpt/src/ai/core"
)

func validConfig() Config {
	return Config{
		Name:          "Researcher",
		Goal:          "Study tides",
		Provider:      aicore.ProviderCerebras,
		Model:         "llama3.1-8b",
		APIKey:        "key",
		MaxIterations: DefaultMaxIterations,
		Temperature:   DefaultTemperature,
	}
}

func TestConfigValidate(t *testing.T) {
	reg := aicore.DefaultRegistry()
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "empty name", mutate: func(c *Config) { c.Name = "" }, wantMsg: "name must be"},
		{name: "long name", mutate: func(c *Config) { c.Name = strings.Repeat("n", 101) }, wantMsg: "name must be"},
		{name: "long goal", mutate: func(c *Config) { c.Goal = strings.Repeat("g", 1001) }, wantMsg: "goal must be"},
		{name: "missing key", mutate: func(c *Config) { c.APIKey = " " }, wantMsg: "api_key is required"},
		{name: "zero iterations", mutate: func(c *Config) { c.MaxIterations = 0 }, wantMsg: "max_iterations"},
		{name: "too many iterations", mutate: func(c *Config) { c.MaxIterations = 11 }, wantMsg: "max_iterations"},
		{name: "hot temperature", mutate: func(c *Config) { c.Temperature = 1.5 }, wantMsg: "temperature"},
		{name: "unknown provider", mutate: func(c *Config) { c.Provider = "openai" }, wantMsg: "Invalid AI provider"},
		{name: "foreign model", mutate: func(c *Config) { c.Model = "deepseek-v3" }, wantMsg: "Invalid model for selected provider"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate(reg)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, ErrValidation))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
