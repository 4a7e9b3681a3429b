package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Registry holds the configured adapters keyed by provider ID. Binaries
// build and register adapters explicitly at startup.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds an adapter. Registering the same ID twice is a wiring
// bug and fails loudly.
func (r *Registry) Register(p Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := p.ID()
	if _, exists := r.providers[id]; exists {
		return fmt.Errorf("provider %q already registered", id)
	}
	r.providers[id] = p
	return nil
}

// Get returns the adapter for id regardless of its enabled state.
func (r *Registry) Get(id string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[id]
	if !ok {
		return nil, E(KindNotConfigured, id, "provider not registered")
	}
	return p, nil
}

// Available returns the adapter for id only when it is enabled and fully
// configured. All mutation paths resolve adapters through this.
func (r *Registry) Available(id string) (Provider, error) {
	p, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	if !p.Enabled() {
		return nil, E(KindNotConfigured, id, "provider is disabled")
	}
	if !p.Configured() {
		return nil, E(KindNotConfigured, id, "provider is missing credentials")
	}
	return p, nil
}

// List returns all registered adapters sorted by ID.
func (r *Registry) List() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// TestAll runs connection tests for every enabled and configured adapter
// in parallel and returns the per-provider outcome.
func (r *Registry) TestAll(ctx context.Context) map[string]error {
	var (
		mu      sync.Mutex
		results = make(map[string]error)
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, p := range r.List() {
		if !p.Enabled() || !p.Configured() {
			continue
		}
		g.Go(func() error {
			err := p.TestConnection(ctx)
			mu.Lock()
			results[p.ID()] = err
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}
