package scrapers

import (
	"fmt"
	"net/http"

	"github.com/lysyi3m/scrape-comb/app/config"
)

// Factory builds a Strategy from a scraper definition.
type Factory func(def config.Definition, client *http.Client, userAgent string) (Strategy, error)

// Registry maps a stable type key to a strategy factory. Strategies are
// resolved once at startup, not per firing.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns a registry with the built-in strategy types.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register("feed", NewFeedStrategy)
	r.Register("page", NewPageStrategy)
	r.Register("api", NewAPIStrategy)
	return r
}

// Register adds or replaces a factory for a type key.
func (r *Registry) Register(typ string, factory Factory) {
	r.factories[typ] = factory
}

// Resolve builds the strategy for a definition.
func (r *Registry) Resolve(def config.Definition, client *http.Client, userAgent string) (Strategy, error) {
	factory, ok := r.factories[def.Type]
	if !ok {
		return nil, fmt.Errorf("no strategy registered for type %q", def.Type)
	}
	return factory(def, client, userAgent)
}

// ResolveAll builds strategies for all definitions, keyed by known ID.
func (r *Registry) ResolveAll(defs []config.Definition, client *http.Client, userAgent string) (map[string]Strategy, error) {
	strategies := make(map[string]Strategy, len(defs))
	for _, def := range defs {
		strategy, err := r.Resolve(def, client, userAgent)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve strategy for %q: %w", def.KnownID, err)
		}
		strategies[def.KnownID] = strategy
	}
	return strategies, nil
}
