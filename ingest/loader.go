package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/stophobia/restai/core"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
)

// Loader loads a source into ordered, split text segments.
type Loader interface {
	Load(ctx context.Context, splitter textsplitter.TextSplitter) ([]schema.Document, error)
}

// LoaderFactory builds a Loader for a concrete file path or URL.
type LoaderFactory func(target string) Loader

// Registry maps file extensions and URL fetch strategies to loader factories.
type Registry struct {
	mu         sync.RWMutex
	extensions map[string]LoaderFactory
	strategies map[string]LoaderFactory
}

// NewRegistry creates an empty loader registry.
func NewRegistry() *Registry {
	return &Registry{
		extensions: make(map[string]LoaderFactory),
		strategies: make(map[string]LoaderFactory),
	}
}

// DefaultRegistry creates a registry with the built-in loaders: plain text,
// markdown, CSV, HTML and PDF files, plus the fetch/render/crawl URL
// strategies.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.RegisterExtension(".txt", NewTextFile)
	r.RegisterExtension(".md", NewTextFile)
	r.RegisterExtension(".csv", NewCSVFile)
	r.RegisterExtension(".html", NewHTMLFile)
	r.RegisterExtension(".htm", NewHTMLFile)
	r.RegisterExtension(".pdf", NewPDFFile)

	r.RegisterStrategy(StrategyFetch, NewFetchURL)
	r.RegisterStrategy(StrategyRender, NewRenderURL)
	r.RegisterStrategy(StrategyCrawl, NewCrawlURL)

	return r
}

// URL fetch strategies.
const (
	StrategyFetch  = "fetch"
	StrategyRender = "render"
	StrategyCrawl  = "crawl"
)

// RegisterExtension registers a factory for a file extension (with dot).
func (r *Registry) RegisterExtension(ext string, factory LoaderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extensions[strings.ToLower(ext)] = factory
}

// RegisterStrategy registers a factory for a URL fetch strategy.
func (r *Registry) RegisterStrategy(strategy string, factory LoaderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[strings.ToLower(strategy)] = factory
}

// FileLoader resolves a loader for a file path by its extension.
// Returns core.ErrUnsupportedSource for unknown extensions.
func (r *Registry) FileLoader(path string) (Loader, error) {
	ext := strings.ToLower(filepath.Ext(path))

	r.mu.RLock()
	factory, ok := r.extensions[ext]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: unknown file extension %q", core.ErrUnsupportedSource, ext)
	}
	return factory(path), nil
}

// URLLoader resolves a loader for a URL by fetch strategy.
// An empty strategy defaults to fetch. Returns core.ErrUnsupportedSource for
// unknown strategies.
func (r *Registry) URLLoader(rawURL, strategy string) (Loader, error) {
	if strategy == "" {
		strategy = StrategyFetch
	}

	r.mu.RLock()
	factory, ok := r.strategies[strings.ToLower(strategy)]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: unknown fetch strategy %q", core.ErrUnsupportedSource, strategy)
	}
	return factory(rawURL), nil
}

// Extensions returns the registered file extensions.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.extensions))
	for ext := range r.extensions {
		exts = append(exts, ext)
	}
	return exts
}
