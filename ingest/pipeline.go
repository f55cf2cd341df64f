package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stophobia/restai/ai"
	"github.com/stophobia/restai/core"
	"github.com/stophobia/restai/index"
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	defaultChunkSize    = 1024
	defaultChunkOverlap = 128
)

// Pipeline turns sources into enriched, embedded chunks inside a project
// index. Each ingestion is atomic: a failure at any step leaves the index
// unchanged.
type Pipeline struct {
	registry     *Registry
	extractor    ai.KeywordExtractor
	chunkSize    int
	chunkOverlap int
	logger       *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithRegistry sets a custom loader registry.
// Default is DefaultRegistry().
func WithRegistry(registry *Registry) Option {
	return func(p *Pipeline) error {
		if registry != nil {
			p.registry = registry
		}
		return nil
	}
}

// WithChunkSize sets the split size for long segments, in characters.
func WithChunkSize(size int) Option {
	return func(p *Pipeline) error {
		if size > 0 {
			p.chunkSize = size
		}
		return nil
	}
}

// WithChunkOverlap sets the overlap between adjacent split segments.
func WithChunkOverlap(overlap int) Option {
	return func(p *Pipeline) error {
		if overlap >= 0 {
			p.chunkOverlap = overlap
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(extractor ai.KeywordExtractor, opts ...Option) (*Pipeline, error) {
	if extractor == nil {
		return nil, ErrExtractorRequired
	}

	p := &Pipeline{
		registry:     DefaultRegistry(),
		extractor:    extractor,
		chunkSize:    defaultChunkSize,
		chunkOverlap: defaultChunkOverlap,
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Registry returns the loader registry used by the pipeline.
func (p *Pipeline) Registry() *Registry {
	return p.registry
}

// IngestFile loads a file into the index under the given source name.
// The source defaults to the path when empty.
func (p *Pipeline) IngestFile(ctx context.Context, idx *index.Index, path, source string) ([]*core.Chunk, error) {
	if source == "" {
		source = path
	}

	loader, err := p.registry.FileLoader(path)
	if err != nil {
		return nil, err
	}

	return p.ingest(ctx, idx, loader, source)
}

// IngestURL loads a URL into the index using the given fetch strategy.
// The URL itself is the source name.
func (p *Pipeline) IngestURL(ctx context.Context, idx *index.Index, rawURL, strategy string) ([]*core.Chunk, error) {
	loader, err := p.registry.URLLoader(rawURL, strategy)
	if err != nil {
		return nil, err
	}

	return p.ingest(ctx, idx, loader, rawURL)
}

// ingest runs the shared steps: dedup, load, enrich, atomic upsert, persist.
func (p *Pipeline) ingest(ctx context.Context, idx *index.Index, loader Loader, source string) ([]*core.Chunk, error) {
	if idx == nil {
		return nil, ErrIndexRequired
	}

	sources, err := idx.ListSources(ctx)
	if err != nil {
		return nil, err
	}
	for _, existing := range sources {
		if existing == source {
			return nil, fmt.Errorf("%w: %s", core.ErrAlreadyIngested, source)
		}
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(p.chunkSize),
		textsplitter.WithChunkOverlap(p.chunkOverlap),
	)

	docs, err := loader.Load(ctx, splitter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrLoadFailed, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no content in %s", core.ErrLoadFailed, source)
	}

	chunks := make([]*core.Chunk, len(docs))
	for i, doc := range docs {
		chunks[i] = &core.Chunk{
			Content:  doc.PageContent,
			Source:   source,
			Keywords: p.extractor.ExtractKeywords(doc.PageContent),
		}
	}

	stored, err := idx.Upsert(ctx, chunks)
	if err != nil {
		return nil, err
	}

	if err := idx.Persist(); err != nil {
		return nil, err
	}

	p.logger.Info("ingested source", "source", source, "chunks", len(stored))
	return stored, nil
}
