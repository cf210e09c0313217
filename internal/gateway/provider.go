// Package gateway wraps text-generation providers in a resilience layer:
// per-attempt timeouts, transient retry with backoff, per-provider circuit
// breaking, optional request pacing, and an ordered fallback chain.
package gateway

import (
	"context"
	"sync"
	"time"
)

// Request is a single generation request. Never mutated after creation.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
}

// Response is a completed generation. Latency and token counts feed cost
// accounting; Provider records which backend produced the text.
type Response struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
	Provider     string
	Latency      time.Duration
}

// Provider is one text-generation backend with a stable id. Implementations
// classify their own failures into the resilience error taxonomy.
type Provider interface {
	ID() string
	Generate(ctx context.Context, req Request) (*Response, error)
}

// Registry maps provider ids to clients. Chain order comes from the caller,
// not the registry.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider under its id, replacing any existing entry.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.ID()] = p
}

// Get returns the provider for id, or nil if unknown.
func (r *Registry) Get(id string) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[id]
}

// IDs returns all registered provider ids.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	return ids
}
