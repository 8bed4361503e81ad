package core

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
)

// FactoryConfig captures the inputs required to construct a provider client.
type FactoryConfig struct {
	Provider  ProviderID
	BaseURL   string
	APIKey    string
	MaxTokens int

	HTTPClient *http.Client
	Logger     *log.Logger
}

// ProviderFactory implements provider-specific Client creation.
type ProviderFactory func(FactoryConfig) (Client, error)

var (
	mu        sync.RWMutex
	providers = map[ProviderID]ProviderFactory{}
)

// RegisterProvider registers a provider factory under one or more names.
func RegisterProvider(name ProviderID, factory ProviderFactory, aliases ...ProviderID) {
	mu.Lock()
	defer mu.Unlock()

	all := append([]ProviderID{name}, aliases...)
	for _, n := range all {
		providers[ProviderID(strings.ToLower(string(n)))] = factory
	}
}

// NewClient returns a provider-agnostic AI client.
func NewClient(cfg FactoryConfig) (Client, error) {
	key := ProviderID(strings.ToLower(strings.TrimSpace(string(cfg.Provider))))

	mu.RLock()
	factory := providers[key]
	mu.RUnlock()

	if factory == nil {
		return nil, fmt.Errorf("ai: provider %q not registered", cfg.Provider)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("ai: %s: API key not configured", cfg.Provider)
	}
	return factory(cfg)
}
