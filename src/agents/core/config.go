package core

import (
	"errors"
	"strings"
	"unicode/utf8"

	aicore "github.com/stake-plus/agentgpt/src/ai/core"
)

const (
	DefaultMaxIterations = 5
	DefaultTemperature   = 0.7

	MinIterations = 1
	MaxIterations = 10
	maxNameLen    = 100
	maxGoalLen    = 1000
)

// Validate checks field bounds and that the provider offers the model.
// Provider and model errors use the wording the HTTP layer reports verbatim.
func (c Config) Validate(reg aicore.Registry) error {
	if n := utf8.RuneCountInString(c.Name); n < 1 || n > maxNameLen {
		return validationf("name must be between 1 and %d characters", maxNameLen)
	}
	if n := utf8.RuneCountInString(c.Goal); n < 1 || n > maxGoalLen {
		return validationf("goal must be between 1 and %d characters", maxGoalLen)
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return validationf("api_key is required")
	}
	if c.MaxIterations < MinIterations || c.MaxIterations > MaxIterations {
		return validationf("max_iterations must be between %d and %d", MinIterations, MaxIterations)
	}
	if c.Temperature < 0 || c.Temperature > 1 {
		return validationf("temperature must be between 0 and 1")
	}
	if err := reg.ValidateModel(c.Provider, c.Model); err != nil {
		if errors.Is(err, aicore.ErrUnknownProvider) {
			return validationf("Invalid AI provider")
		}
		return validationf("Invalid model for selected provider")
	}
	return nil
}
