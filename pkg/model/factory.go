package model

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory resolves a provider name from configuration to a concrete Model.
// Providers register once at startup; lookups are safe for concurrent use.
type Factory struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewFactory constructs a Factory seeded with the given providers. Nil
// entries and providers with an empty name are ignored.
func NewFactory(providers ...Provider) *Factory {
	f := &Factory{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		f.Register(p)
	}
	return f
}

// Register adds or replaces a provider. Names are matched case-insensitively.
func (f *Factory) Register(p Provider) {
	if p == nil {
		return
	}
	name := strings.ToLower(strings.TrimSpace(p.Name()))
	if name == "" {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.providers == nil {
		f.providers = make(map[string]Provider)
	}
	f.providers[name] = p
}

// Providers returns the registered provider names in sorted order.
func (f *Factory) Providers() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.providers))
	for name := range f.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewModel builds a Model through the provider named in cfg.
func (f *Factory) NewModel(ctx context.Context, cfg ModelConfig) (Model, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if name == "" {
		return nil, fmt.Errorf("model: provider not specified")
	}

	f.mu.RLock()
	p := f.providers[name]
	f.mu.RUnlock()
	if p == nil {
		return nil, fmt.Errorf("model: unknown provider %q (have: %s)",
			cfg.Provider, strings.Join(f.Providers(), ", "))
	}
	return p.NewModel(ctx, cfg)
}
