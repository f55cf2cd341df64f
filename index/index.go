package index

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/stophobia/restai/ai"
	"github.com/stophobia/restai/core"
	"github.com/stophobia/restai/storage"
)

const (
	defaultEmbedBatchSize = 16
	defaultMinScore       = 0.0
)

// Index pairs a project's chunk store with its embedding provider. It embeds
// chunk content on the way in and query text on the way out, so callers only
// deal with text and similarity scores.
type Index struct {
	repo      storage.IndexRepository
	embedder  ai.Embedder
	pool      *ants.Pool
	batchSize int
	minScore  float32
	logger    *slog.Logger
}

// Filter narrows a Query. Zero-value fields are ignored; an entirely zero
// Filter matches every chunk.
type Filter struct {
	// Source restricts results to chunks derived from this source.
	Source string

	// Ids restricts results to these chunk ids.
	Ids []core.ID
}

// Option configures an Index.
type Option func(*Index) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(idx *Index) error {
		if size < 1 {
			size = 1
		}
		if idx.pool != nil {
			idx.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		idx.pool = pool
		return nil
	}
}

// WithBatchSize sets how many chunks are embedded per pool task.
func WithBatchSize(size int) Option {
	return func(idx *Index) error {
		if size < 1 {
			size = 1
		}
		idx.batchSize = size
		return nil
	}
}

// WithMinScore sets the similarity cutoff for Search results.
func WithMinScore(score float32) Option {
	return func(idx *Index) error {
		idx.minScore = score
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(idx *Index) error {
		if logger == nil {
			logger = slog.Default()
		}
		idx.logger = logger
		return nil
	}
}

// New creates an Index over the given chunk store and embedder.
func New(repo storage.IndexRepository, embedder ai.Embedder, opts ...Option) (*Index, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	idx := &Index{
		repo:      repo,
		embedder:  embedder,
		pool:      pool,
		batchSize: defaultEmbedBatchSize,
		minScore:  defaultMinScore,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(idx); optErr != nil {
			idx.pool.Release()
			return nil, optErr
		}
	}

	return idx, nil
}

// Upsert embeds the given chunks and stores them as one atomic batch: if
// embedding or storage fails for any chunk, nothing is written.
func (idx *Index) Upsert(ctx context.Context, chunks []*core.Chunk) ([]*core.Chunk, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	if err := idx.embedChunks(ctx, chunks); err != nil {
		return nil, err
	}

	return idx.repo.AddChunks(ctx, chunks...)
}

// embedChunks fills in normalized vectors for all chunks, batching the
// embedder calls across the worker pool.
func (idx *Index) embedChunks(ctx context.Context, chunks []*core.Chunk) error {
	batches := (len(chunks) + idx.batchSize - 1) / idx.batchSize
	errs := make([]error, batches)

	var wg sync.WaitGroup
	for b := 0; b < batches; b++ {
		start := b * idx.batchSize
		end := start + idx.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]
		slot := b

		wg.Add(1)
		if err := idx.pool.Submit(func() {
			defer wg.Done()

			texts := make([]string, len(batch))
			for i, chunk := range batch {
				texts[i] = chunk.Content
			}

			vectors, err := idx.embedder.EmbedTexts(ctx, texts)
			if err != nil {
				errs[slot] = err
				return
			}
			if len(vectors) != len(batch) {
				errs[slot] = ErrEmbeddingFailed
				return
			}

			for i, vector := range vectors {
				batch[i].Vector = NormalizeVector(vector)
			}
		}); err != nil {
			wg.Done()
			// Already-submitted batches still write into chunks and errs;
			// drain them before handing the slices back to the caller.
			wg.Wait()
			return err
		}
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Query retrieves chunks matching the filter, without similarity scoring.
func (idx *Index) Query(ctx context.Context, filter Filter) ([]*core.Chunk, error) {
	switch {
	case len(filter.Ids) > 0:
		chunks, err := idx.repo.GetChunks(ctx, filter.Ids...)
		if err != nil {
			return nil, err
		}
		if filter.Source == "" {
			return chunks, nil
		}
		var filtered []*core.Chunk
		for _, chunk := range chunks {
			if chunk.Source == filter.Source {
				filtered = append(filtered, chunk)
			}
		}
		return filtered, nil

	case filter.Source != "":
		return idx.repo.GetChunksBySource(ctx, filter.Source)

	default:
		ids, err := idx.repo.ListChunkIDs(ctx)
		if err != nil {
			return nil, err
		}
		return idx.repo.GetChunks(ctx, ids...)
	}
}

// Search embeds the query text and returns the k most similar chunks.
func (idx *Index) Search(ctx context.Context, query string, k int) ([]*core.ScoredChunk, error) {
	vector, err := idx.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, err
	}
	return idx.repo.FindSimilar(ctx, NormalizeVector(vector), idx.minScore, k)
}

// Delete removes chunks by id. Absent ids are a no-op.
func (idx *Index) Delete(ctx context.Context, ids ...core.ID) error {
	return idx.repo.DeleteChunks(ctx, ids...)
}

// ListSources returns the distinct sources present in the index.
func (idx *Index) ListSources(ctx context.Context) ([]string, error) {
	return idx.repo.ListSources(ctx)
}

// Count returns the number of chunks in the index.
func (idx *Index) Count(ctx context.Context) (int, error) {
	return idx.repo.CountChunks(ctx)
}

// Repository exposes the underlying chunk store for maintenance operations.
func (idx *Index) Repository() storage.IndexRepository {
	return idx.repo
}

// Persist durably flushes the index to disk.
func (idx *Index) Persist() error {
	return idx.repo.Sync()
}

// Reset removes every chunk while keeping the index open and usable.
func (idx *Index) Reset() error {
	return idx.repo.DropAll()
}

// Close releases the worker pool and closes the underlying store.
func (idx *Index) Close() error {
	idx.pool.Release()
	return idx.repo.Close()
}
