package cerebras

import (
	"github.com/stake-plus/agentgpt/src/ai/core"
	"github.com/stake-plus/agentgpt/src/ai/openaicompat"
)

func init() {
	core.RegisterProvider(core.ProviderCerebras, newClient)
}

func newClient(cfg core.FactoryConfig) (core.Client, error) {
	if cfg.BaseURL == "" {
		info, err := core.DefaultRegistry().Lookup(core.ProviderCerebras)
		if err != nil {
			return nil, err
		}
		cfg.BaseURL = info.BaseURL
	}
	cfg.Provider = core.ProviderCerebras
	return openaicompat.New(cfg)
}
