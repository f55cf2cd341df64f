package index

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stophobia/restai/ai/mock"
	"github.com/stophobia/restai/core"
	"github.com/stophobia/restai/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T, opts ...Option) (*Index, *mock.MockEmbedder) {
	t.Helper()
	repo, err := badger.NewMemoryIndex()
	require.NoError(t, err)

	embedder := mock.NewMockEmbedder()
	idx, err := New(repo, embedder, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx, embedder
}

func TestNew_RequiresDependencies(t *testing.T) {
	repo, err := badger.NewMemoryIndex()
	require.NoError(t, err)
	defer repo.Close()

	_, err = New(nil, mock.NewMockEmbedder())
	assert.ErrorIs(t, err, ErrRepositoryRequired)

	_, err = New(repo, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestUpsert_EmbedsAndStores(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	chunks := []*core.Chunk{
		{Content: "the sky is blue", Source: "notes.txt"},
		{Content: "grass is green", Source: "notes.txt"},
	}

	stored, err := idx.Upsert(ctx, chunks)
	require.NoError(t, err)
	require.Len(t, stored, 2)

	for _, chunk := range stored {
		assert.NotZero(t, chunk.Id)
		assert.Len(t, chunk.Vector, 384)

		var norm float32
		for _, v := range chunk.Vector {
			norm += v * v
		}
		assert.InDelta(t, 1.0, norm, 0.01)
	}

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestUpsert_EmptyBatch(t *testing.T) {
	idx, _ := newTestIndex(t)

	stored, err := idx.Upsert(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestUpsert_EmbeddingFailureWritesNothing(t *testing.T) {
	idx, embedder := newTestIndex(t)
	ctx := context.Background()

	embedFailed := errors.New("embed failed")
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, embedFailed
	}

	_, err := idx.Upsert(ctx, []*core.Chunk{{Content: "a", Source: "s"}})
	assert.ErrorIs(t, err, embedFailed)

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUpsert_SubmitFailureDrainsInFlightBatches(t *testing.T) {
	idx, embedder := newTestIndex(t, WithBatchSize(1), WithPoolSize(1))
	ctx := context.Background()

	started := make(chan struct{})
	gate := make(chan struct{})
	var once sync.Once
	var finished atomic.Bool
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		once.Do(func() { close(started) })
		<-gate
		finished.Store(true)
		return [][]float32{mock.DeterministicVector(texts[0], 8)}, nil
	}

	// Release the pool while the first batch is running, so the submit of
	// the second batch fails with the first still in flight.
	go func() {
		<-started
		idx.pool.Release()
		close(gate)
	}()

	_, err := idx.Upsert(ctx, []*core.Chunk{
		{Content: "a", Source: "s"},
		{Content: "b", Source: "s"},
	})
	require.Error(t, err)
	assert.True(t, finished.Load())

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUpsert_ManyBatches(t *testing.T) {
	idx, _ := newTestIndex(t, WithBatchSize(2), WithPoolSize(4))
	ctx := context.Background()

	var chunks []*core.Chunk
	for i := 0; i < 9; i++ {
		chunks = append(chunks, &core.Chunk{
			Content: string(rune('a' + i)),
			Source:  "many.txt",
		})
	}

	stored, err := idx.Upsert(ctx, chunks)
	require.NoError(t, err)
	require.Len(t, stored, 9)
	for _, chunk := range stored {
		assert.NotEmpty(t, chunk.Vector)
	}
}

func TestSearch_IdenticalTextRanksFirst(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	_, err := idx.Upsert(ctx, []*core.Chunk{
		{Content: "the sky is blue", Source: "notes.txt"},
		{Content: "completely unrelated text about cooking pasta", Source: "notes.txt"},
	})
	require.NoError(t, err)

	results, err := idx.Search(ctx, "the sky is blue", 2)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "the sky is blue", results[0].Chunk.Content)
	assert.InDelta(t, 1.0, results[0].Score, 0.01)
}

func TestQuery_BySource(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	_, err := idx.Upsert(ctx, []*core.Chunk{
		{Content: "one", Source: "a.txt"},
		{Content: "two", Source: "b.txt"},
	})
	require.NoError(t, err)

	got, err := idx.Query(ctx, Filter{Source: "a.txt"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "one", got[0].Content)
}

func TestQuery_ByIds(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	stored, err := idx.Upsert(ctx, []*core.Chunk{
		{Content: "one", Source: "a.txt"},
		{Content: "two", Source: "a.txt"},
	})
	require.NoError(t, err)

	got, err := idx.Query(ctx, Filter{Ids: []core.ID{stored[1].Id}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "two", got[0].Content)
}

func TestQuery_All(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	_, err := idx.Upsert(ctx, []*core.Chunk{
		{Content: "one", Source: "a.txt"},
		{Content: "two", Source: "b.txt"},
	})
	require.NoError(t, err)

	got, err := idx.Query(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestDeleteAndReset(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	stored, err := idx.Upsert(ctx, []*core.Chunk{
		{Content: "one", Source: "a.txt"},
		{Content: "two", Source: "a.txt"},
	})
	require.NoError(t, err)

	require.NoError(t, idx.Delete(ctx, stored[0].Id))
	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, idx.Reset())
	count, err = idx.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	sources, err := idx.ListSources(ctx)
	require.NoError(t, err)
	assert.Empty(t, sources)
}

func TestNormalizeVector(t *testing.T) {
	normalized := NormalizeVector([]float32{3, 4})
	assert.InDelta(t, 0.6, normalized[0], 0.001)
	assert.InDelta(t, 0.8, normalized[1], 0.001)

	zero := NormalizeVector([]float32{0, 0})
	assert.Equal(t, []float32{0, 0}, zero)

	assert.Empty(t, NormalizeVector(nil))
}
