package core

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

var (
	// ErrUnknownProvider is returned when a provider ID is absent from the registry.
	ErrUnknownProvider = errors.New("ai: unknown provider")
	// ErrUnknownModel is returned when a model is not offered by the selected provider.
	ErrUnknownModel = errors.New("ai: model not offered by provider")
)

// ProviderID identifies an AI completion service.
type ProviderID string

const (
	ProviderCerebras  ProviderID = "cerebras"
	ProviderSambanova ProviderID = "sambanova"
)

// ParseProvider maps a user supplied identifier onto a known ProviderID.
func ParseProvider(raw string) (ProviderID, error) {
	switch id := ProviderID(strings.ToLower(strings.TrimSpace(raw))); id {
	case ProviderCerebras, ProviderSambanova:
		return id, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, raw)
	}
}

// ProviderInfo is the static catalog entry for one provider.
type ProviderInfo struct {
	Name    string   `json:"name"`
	BaseURL string   `json:"base_url"`
	Models  []string `json:"models"`
}

// HasModel reports whether model is one of the provider's permitted identifiers.
func (p ProviderInfo) HasModel(model string) bool {
	for _, m := range p.Models {
		if m == model {
			return true
		}
	}
	return false
}

// Registry is an immutable provider catalog.
type Registry struct {
	entries map[ProviderID]ProviderInfo
}

// DefaultRegistry returns the baked-in catalog.
func DefaultRegistry() Registry {
	return NewRegistry(map[ProviderID]ProviderInfo{
		ProviderCerebras: {
			Name:    "Cerebras Inference",
			BaseURL: "https://api.cerebras.ai/v1",
			Models: []string{
				"llama-4-scout-17b-16e-instruct",
				"llama3.1-8b",
				"llama-3.3-70b",
				"qwen-3-32b",
				"deepseek-r1-distill-llama-70b",
			},
		},
		ProviderSambanova: {
			Name:    "Sambanova Cloud",
			BaseURL: "https://api.sambanova.ai/v1",
			Models: []string{
				"Llama-4-Maverick-17B-128E-Instruct",
				"Llama-4-Scout-17B-16E-Instruct",
				"Meta-Llama-3.1-405B-Instruct",
				"deepseek-v3",
			},
		},
	})
}

// NewRegistry builds a registry from entries. The map is copied.
func NewRegistry(entries map[ProviderID]ProviderInfo) Registry {
	out := make(map[ProviderID]ProviderInfo, len(entries))
	for id, info := range entries {
		out[id] = cloneInfo(info)
	}
	return Registry{entries: out}
}

// Lookup returns the catalog entry for id.
func (r Registry) Lookup(id ProviderID) (ProviderInfo, error) {
	info, ok := r.entries[id]
	if !ok {
		return ProviderInfo{}, fmt.Errorf("%w: %q", ErrUnknownProvider, id)
	}
	return cloneInfo(info), nil
}

// ValidateModel checks that provider exists and offers model.
func (r Registry) ValidateModel(provider ProviderID, model string) error {
	info, err := r.Lookup(provider)
	if err != nil {
		return err
	}
	if !info.HasModel(model) {
		return fmt.Errorf("%w: %s/%s", ErrUnknownModel, provider, model)
	}
	return nil
}

// IDs returns the registered provider IDs in sorted order.
func (r Registry) IDs() []ProviderID {
	ids := make([]ProviderID, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Entries returns a copy of the full catalog.
func (r Registry) Entries() map[ProviderID]ProviderInfo {
	out := make(map[ProviderID]ProviderInfo, len(r.entries))
	for id, info := range r.entries {
		out[id] = cloneInfo(info)
	}
	return out
}

// WithBaseURL returns a copy of the registry with id's endpoint replaced.
// Blank URLs leave the entry untouched.
func (r Registry) WithBaseURL(id ProviderID, baseURL string) Registry {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return r
	}
	entries := r.Entries()
	if info, ok := entries[id]; ok {
		info.BaseURL = strings.TrimRight(baseURL, "/")
		entries[id] = info
	}
	return Registry{entries: entries}
}

// Validate checks every entry for a name, an absolute http(s) endpoint and a
// non-empty model list without duplicates.
func (r Registry) Validate() error {
	if len(r.entries) == 0 {
		return errors.New("ai: provider registry is empty")
	}
	var errs []error
	for _, id := range r.IDs() {
		info := r.entries[id]
		if strings.TrimSpace(info.Name) == "" {
			errs = append(errs, fmt.Errorf("ai: provider %s: missing display name", id))
		}
		u, err := url.Parse(info.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("ai: provider %s: invalid base URL %q", id, info.BaseURL))
		}
		if len(info.Models) == 0 {
			errs = append(errs, fmt.Errorf("ai: provider %s: no models", id))
		}
		seen := make(map[string]struct{}, len(info.Models))
		for _, m := range info.Models {
			if _, dup := seen[m]; dup {
				errs = append(errs, fmt.Errorf("ai: provider %s: duplicate model %q", id, m))
			}
			seen[m] = struct{}{}
		}
	}
	return errors.Join(errs...)
}

func cloneInfo(in ProviderInfo) ProviderInfo {
	out := in
	out.Models = append([]string(nil), in.Models...)
	return out
}
