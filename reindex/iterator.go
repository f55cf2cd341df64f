package reindex

import (
	"context"

	"github.com/stophobia/restai/core"
	"github.com/stophobia/restai/storage"
)

// ChunkIterator walks all chunks of a store in id order, batch by batch.
type ChunkIterator struct {
	repo      storage.IndexRepository
	batchSize int
}

// NewChunkIterator creates an iterator with the given batch size.
func NewChunkIterator(repo storage.IndexRepository, batchSize int) *ChunkIterator {
	if batchSize < 1 {
		batchSize = 1
	}
	return &ChunkIterator{repo: repo, batchSize: batchSize}
}

// ForEach calls fn for each batch of chunks. Iteration stops on the first
// error, which is returned.
func (it *ChunkIterator) ForEach(ctx context.Context, fn func(chunks []*core.Chunk) error) error {
	ids, err := it.repo.ListChunkIDs(ctx)
	if err != nil {
		return err
	}

	for start := 0; start < len(ids); start += it.batchSize {
		end := start + it.batchSize
		if end > len(ids) {
			end = len(ids)
		}

		chunks, err := it.repo.GetChunks(ctx, ids[start:end]...)
		if err != nil {
			return err
		}
		if len(chunks) == 0 {
			continue
		}

		if err := fn(chunks); err != nil {
			return err
		}
	}

	return nil
}
