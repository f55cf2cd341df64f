package badger

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stophobia/restai/core"
	"github.com/stophobia/restai/storage"
)

// IndexRepository implements storage.IndexRepository for BadgerDB. Each
// project index owns its own database, so the repository also owns its
// backend and closes it on Close.
type IndexRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.IndexRepository = (*IndexRepository)(nil)

// NewIndexRepository creates an IndexRepository over the given backend.
// The repository takes ownership of the backend.
func NewIndexRepository(backend *Backend) (*IndexRepository, error) {
	idSeq, err := backend.GetSequence(chunkIDSeq)
	if err != nil {
		return nil, err
	}

	return &IndexRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// OpenIndexRepository opens (or creates) a project index database at path.
func OpenIndexRepository(path string, inMemory bool) (*IndexRepository, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}

	repo, err := NewIndexRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return repo, nil
}

// Close releases the ID sequence and closes the underlying database.
func (r *IndexRepository) Close() error {
	if err := r.idSeq.Release(); err != nil {
		r.backend.Close()
		return err
	}
	return r.backend.Close()
}

// Sync flushes pending writes to disk.
func (r *IndexRepository) Sync() error {
	return r.backend.Sync()
}

// DropAll removes every chunk and index entry while keeping the store open.
func (r *IndexRepository) DropAll() error {
	return r.backend.DropAll()
}

// AddChunks stores a batch of chunks in a single transaction, so the batch
// either commits as a whole or leaves the store untouched.
func (r *IndexRepository) AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			if chunk.Id == 0 {
				nextID, err := r.idSeq.Next()
				if err != nil {
					return err
				}
				// BadgerDB sequences can return 0 on first call, so we skip it
				if nextID == 0 {
					nextID, err = r.idSeq.Next()
					if err != nil {
						return err
					}
				}
				chunk.Id = core.ID(nextID)
			}

			chunk.InsertedAt = time.Now().UTC()
			chunk.UpdatedAt = chunk.InsertedAt

			if err := r.writeChunk(tx, chunk); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// UpdateChunks replaces existing chunks in place, keeping their IDs.
func (r *IndexRepository) UpdateChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			old, err := readChunk(tx, makeChunkKey(chunk.Id))
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			chunk.InsertedAt = old.InsertedAt
			chunk.UpdatedAt = time.Now().UTC()

			// Move the source index entry if the source changed
			if old.Source != chunk.Source {
				if err := tx.Delete(makeChunkSourceKey(old.Source, old.Id)); err != nil {
					return err
				}
			}

			if err := r.writeChunk(tx, chunk); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// GetChunks retrieves chunks by their IDs, skipping missing ones.
func (r *IndexRepository) GetChunks(ctx context.Context, ids ...core.ID) ([]*core.Chunk, error) {
	var result []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			chunk, err := readChunk(tx, makeChunkKey(id))
			if err != nil {
				return err
			}
			if chunk != nil {
				result = append(result, chunk)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetChunksBySource retrieves all chunks derived from a source.
func (r *IndexRepository) GetChunksBySource(ctx context.Context, source string) ([]*core.Chunk, error) {
	var results []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialChunkSourceKey(source)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = startKey
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			var chunkID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				chunkID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			chunk, err := readChunk(tx, makeChunkKey(chunkID))
			if err != nil {
				return err
			}
			if chunk != nil {
				results = append(results, chunk)
			}
		}
		return nil
	}, false)

	return results, err
}

// DeleteChunks removes chunks by id. Absent ids are skipped.
func (r *IndexRepository) DeleteChunks(ctx context.Context, ids ...core.ID) error {
	touched := make(map[string]bool)

	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeChunkKey(id)
			chunk, err := readChunk(tx, key)
			if err != nil {
				return err
			}
			if chunk == nil {
				continue
			}

			if err := tx.Delete(makeChunkSourceKey(chunk.Source, chunk.Id)); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
			touched[chunk.Source] = true
		}

		// Drop catalog entries for sources left without chunks
		for source := range touched {
			remaining, err := sourceHasChunks(tx, source)
			if err != nil {
				return err
			}
			if !remaining {
				if err := tx.Delete(makeSourceRecordKey(source)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)
}

// ListChunkIDs returns the ids of all stored chunks, ascending.
func (r *IndexRepository) ListChunkIDs(ctx context.Context) ([]core.ID, error) {
	var ids []core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix + ":")
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			id, err := parseChunkKey(iter.Item().Key())
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Keys are decimal strings, so lexicographic iteration order is not numeric
	slices.Sort(ids)
	return ids, nil
}

// ListSources returns the distinct source values across all stored chunks.
func (r *IndexRepository) ListSources(ctx context.Context) ([]string, error) {
	var sources []string
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(sourceRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := iter.Item().Value(func(val []byte) error {
				sources = append(sources, string(val))
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(sources, strings.Compare)
	return sources, nil
}

// CountChunks returns the number of stored chunks.
func (r *IndexRepository) CountChunks(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix + ":")
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// FindSimilar finds chunks similar to the given vector.
func (r *IndexRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.ScoredChunk, error) {
	var results []*core.ScoredChunk

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if chunk == nil || len(chunk.Vector) == 0 {
				continue
			}

			// Cosine similarity is the dot product for normalized vectors
			similarity := dotProduct(vector, chunk.Vector)
			if similarity >= minSimilarity {
				results = append(results, &core.ScoredChunk{
					Chunk: chunk,
					Score: similarity,
				})
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortFunc(results, func(a, b *core.ScoredChunk) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// writeChunk stores the chunk record, its source index entry, and the
// source catalog entry inside the given transaction.
func (r *IndexRepository) writeChunk(tx *badger.Txn, chunk *core.Chunk) error {
	if err := tx.Set(makeChunkKey(chunk.Id), storage.MarshalChunk(chunk)); err != nil {
		return err
	}
	if err := tx.Set(makeChunkSourceKey(chunk.Source, chunk.Id), storage.MarshalID(chunk.Id)); err != nil {
		return err
	}
	return tx.Set(makeSourceRecordKey(chunk.Source), []byte(chunk.Source))
}

// readChunk reads a chunk from the transaction.
// Returns nil without error when the key is absent.
func readChunk(tx *badger.Txn, key []byte) (*core.Chunk, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var chunk *core.Chunk
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		chunk, unmarshalErr = storage.UnmarshalChunk(val)
		return unmarshalErr
	})
	return chunk, err
}

// sourceHasChunks reports whether any source index entry remains for source.
func sourceHasChunks(tx *badger.Txn, source string) (bool, error) {
	startKey := makePartialChunkSourceKey(source)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = startKey
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	iter.Seek(startKey)
	return iter.Valid(), nil
}

// parseChunkKey extracts the chunk ID from a primary chunk key.
func parseChunkKey(key []byte) (core.ID, error) {
	raw := strings.TrimPrefix(string(key), chunkPrefix+":")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return core.ID(id), nil
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
