package sambanova

import (
	"github.com/stake-plus/agentgpt/src/ai/core"
	"github.com/stake-plus/agentgpt/src/ai/openaicompat"
)

func init() {
	core.RegisterProvider(core.ProviderSambanova, newClient, "sambanova-cloud")
}

func newClient(cfg core.FactoryConfig) (core.Client, error) {
	if cfg.BaseURL == "" {
		info, err := core.DefaultRegistry().Lookup(core.ProviderSambanova)
		if err != nil {
			return nil, err
		}
		cfg.BaseURL = info.BaseURL
	}
	cfg.Provider = core.ProviderSambanova
	return openaicompat.New(cfg)
}
