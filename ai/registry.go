package ai

import (
	"fmt"
	"sync"

	"github.com/stophobia/restai/core"
)

// EmbedderFactory constructs a ready-to-use embeddings provider.
type EmbedderFactory func() (Embedder, error)

// LLMFactory constructs a ready-to-use LLM provider.
type LLMFactory func() (LLM, error)

// Registry maps configuration names to provider factories. It is populated
// once at startup and treated as read-only afterwards; resolution is safe for
// concurrent use.
type Registry struct {
	mu        sync.RWMutex
	embedders map[string]EmbedderFactory
	llms      map[string]LLMFactory
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		embedders: make(map[string]EmbedderFactory),
		llms:      make(map[string]LLMFactory),
	}
}

// RegisterEmbedder binds name to an embeddings provider factory.
// Registering the same name twice replaces the previous factory.
func (r *Registry) RegisterEmbedder(name string, factory EmbedderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.embedders[name] = factory
}

// RegisterLLM binds name to an LLM provider factory.
func (r *Registry) RegisterLLM(name string, factory LLMFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.llms[name] = factory
}

// Embedder resolves name to a new embeddings provider instance.
// Returns core.ErrUnknownProvider for unregistered names.
func (r *Registry) Embedder(name string) (Embedder, error) {
	r.mu.RLock()
	factory, ok := r.embedders[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: embeddings %q", core.ErrUnknownProvider, name)
	}
	return factory()
}

// LLM resolves name to a new LLM provider instance.
// Returns core.ErrUnknownProvider for unregistered names.
func (r *Registry) LLM(name string) (LLM, error) {
	r.mu.RLock()
	factory, ok := r.llms[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: llm %q", core.ErrUnknownProvider, name)
	}
	return factory()
}

// EmbedderNames returns the registered embeddings provider names.
func (r *Registry) EmbedderNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.embedders))
	for name := range r.embedders {
		names = append(names, name)
	}
	return names
}

// LLMNames returns the registered LLM provider names.
func (r *Registry) LLMNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.llms))
	for name := range r.llms {
		names = append(names, name)
	}
	return names
}

// HasEmbedder reports whether name resolves to an embeddings provider.
func (r *Registry) HasEmbedder(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.embedders[name]
	return ok
}

// HasLLM reports whether name resolves to an LLM provider.
func (r *Registry) HasLLM(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.llms[name]
	return ok
}
