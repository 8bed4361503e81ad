// Package providers registers every built-in AI provider with the core factory.
package providers

import (
	_ "github.com/stake-plus/agentgpt/src/ai/cerebras"
	_ "github.com/stake-plus/agentgpt/src/ai/sambanova"
)
