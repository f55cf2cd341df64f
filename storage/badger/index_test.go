package badger

import (
	"context"
	"testing"

	"github.com/stophobia/restai/core"
	"github.com/stophobia/restai/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) storage.IndexRepository {
	t.Helper()
	repo, err := NewMemoryIndex()
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestIndexRepository_AddAssignsIDs(t *testing.T) {
	repo := newTestIndex(t)
	ctx := context.Background()

	chunks := []*core.Chunk{
		{Content: "alpha", Source: "notes.txt"},
		{Content: "beta", Source: "notes.txt"},
	}

	stored, err := repo.AddChunks(ctx, chunks...)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.NotZero(t, stored[0].Id)
	assert.NotZero(t, stored[1].Id)
	assert.NotEqual(t, stored[0].Id, stored[1].Id)
	assert.False(t, stored[0].InsertedAt.IsZero())
}

func TestIndexRepository_GetChunksSkipsMissing(t *testing.T) {
	repo := newTestIndex(t)
	ctx := context.Background()

	stored, err := repo.AddChunks(ctx, &core.Chunk{Content: "alpha", Source: "a.txt"})
	require.NoError(t, err)

	got, err := repo.GetChunks(ctx, stored[0].Id, core.ID(99999))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "alpha", got[0].Content)
}

func TestIndexRepository_GetChunksBySource(t *testing.T) {
	repo := newTestIndex(t)
	ctx := context.Background()

	_, err := repo.AddChunks(ctx,
		&core.Chunk{Content: "one", Source: "a.txt"},
		&core.Chunk{Content: "two", Source: "a.txt"},
		&core.Chunk{Content: "three", Source: "b.txt"},
	)
	require.NoError(t, err)

	got, err := repo.GetChunksBySource(ctx, "a.txt")
	require.NoError(t, err)
	assert.Len(t, got, 2)
	for _, c := range got {
		assert.Equal(t, "a.txt", c.Source)
	}

	empty, err := repo.GetChunksBySource(ctx, "missing.txt")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestIndexRepository_DeleteChunks(t *testing.T) {
	repo := newTestIndex(t)
	ctx := context.Background()

	stored, err := repo.AddChunks(ctx,
		&core.Chunk{Content: "one", Source: "a.txt"},
		&core.Chunk{Content: "two", Source: "a.txt"},
	)
	require.NoError(t, err)

	require.NoError(t, repo.DeleteChunks(ctx, stored[0].Id))

	remaining, err := repo.GetChunksBySource(ctx, "a.txt")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "two", remaining[0].Content)

	// Deleting absent ids is a no-op
	require.NoError(t, repo.DeleteChunks(ctx, core.ID(424242)))
}

func TestIndexRepository_DeleteLastChunkRemovesSource(t *testing.T) {
	repo := newTestIndex(t)
	ctx := context.Background()

	stored, err := repo.AddChunks(ctx, &core.Chunk{Content: "only", Source: "solo.txt"})
	require.NoError(t, err)

	sources, err := repo.ListSources(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"solo.txt"}, sources)

	require.NoError(t, repo.DeleteChunks(ctx, stored[0].Id))

	sources, err = repo.ListSources(ctx)
	require.NoError(t, err)
	assert.Empty(t, sources)
}

func TestIndexRepository_ListSourcesDistinctSorted(t *testing.T) {
	repo := newTestIndex(t)
	ctx := context.Background()

	_, err := repo.AddChunks(ctx,
		&core.Chunk{Content: "one", Source: "b.txt"},
		&core.Chunk{Content: "two", Source: "a.txt"},
		&core.Chunk{Content: "three", Source: "b.txt"},
	)
	require.NoError(t, err)

	sources, err := repo.ListSources(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, sources)
}

func TestIndexRepository_CountAndListIDs(t *testing.T) {
	repo := newTestIndex(t)
	ctx := context.Background()

	stored, err := repo.AddChunks(ctx,
		&core.Chunk{Content: "one", Source: "a.txt"},
		&core.Chunk{Content: "two", Source: "a.txt"},
		&core.Chunk{Content: "three", Source: "a.txt"},
	)
	require.NoError(t, err)

	count, err := repo.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	ids, err := repo.ListChunkIDs(ctx)
	require.NoError(t, err)
	require.Len(t, ids, 3)
	for i := 1; i < len(ids); i++ {
		assert.Less(t, ids[i-1], ids[i])
	}
	assert.Contains(t, ids, stored[0].Id)
}

func TestIndexRepository_UpdateChunks(t *testing.T) {
	repo := newTestIndex(t)
	ctx := context.Background()

	stored, err := repo.AddChunks(ctx, &core.Chunk{Content: "draft", Source: "a.txt"})
	require.NoError(t, err)
	id := stored[0].Id

	stored[0].Content = "final"
	stored[0].Vector = []float32{1, 0, 0}
	_, err = repo.UpdateChunks(ctx, stored[0])
	require.NoError(t, err)

	got, err := repo.GetChunks(ctx, id)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "final", got[0].Content)
	assert.Equal(t, []float32{1, 0, 0}, got[0].Vector)
	assert.Equal(t, id, got[0].Id)
}

func TestIndexRepository_UpdateMissing(t *testing.T) {
	repo := newTestIndex(t)

	_, err := repo.UpdateChunks(context.Background(), &core.Chunk{Id: 9999, Content: "x", Source: "a.txt"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIndexRepository_FindSimilar(t *testing.T) {
	repo := newTestIndex(t)
	ctx := context.Background()

	_, err := repo.AddChunks(ctx,
		&core.Chunk{Content: "east", Source: "a.txt", Vector: []float32{1, 0, 0}},
		&core.Chunk{Content: "north", Source: "a.txt", Vector: []float32{0, 1, 0}},
		&core.Chunk{Content: "northeast", Source: "a.txt", Vector: []float32{0.7071, 0.7071, 0}},
	)
	require.NoError(t, err)

	results, err := repo.FindSimilar(ctx, []float32{1, 0, 0}, 0.5, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "east", results[0].Chunk.Content)
	assert.Equal(t, "northeast", results[1].Chunk.Content)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestIndexRepository_FindSimilarLimit(t *testing.T) {
	repo := newTestIndex(t)
	ctx := context.Background()

	_, err := repo.AddChunks(ctx,
		&core.Chunk{Content: "a", Source: "s", Vector: []float32{1, 0}},
		&core.Chunk{Content: "b", Source: "s", Vector: []float32{0.9, 0.1}},
		&core.Chunk{Content: "c", Source: "s", Vector: []float32{0.8, 0.2}},
	)
	require.NoError(t, err)

	results, err := repo.FindSimilar(ctx, []float32{1, 0}, 0.0, 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestIndexRepository_FindSimilarEmpty(t *testing.T) {
	repo := newTestIndex(t)

	results, err := repo.FindSimilar(context.Background(), []float32{1, 0, 0}, 0.5, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestIndexRepository_DropAll(t *testing.T) {
	repo := newTestIndex(t)
	ctx := context.Background()

	_, err := repo.AddChunks(ctx, &core.Chunk{Content: "one", Source: "a.txt"})
	require.NoError(t, err)

	require.NoError(t, repo.DropAll())

	count, err := repo.CountChunks(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	sources, err := repo.ListSources(ctx)
	require.NoError(t, err)
	assert.Empty(t, sources)
}

func TestIndexRepository_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	repo, err := OpenIndexRepository(dir, false)
	require.NoError(t, err)

	stored, err := repo.AddChunks(ctx, &core.Chunk{Content: "persistent", Source: "a.txt"})
	require.NoError(t, err)
	id := stored[0].Id

	require.NoError(t, repo.Sync())
	require.NoError(t, repo.Close())

	reopened, err := OpenIndexRepository(dir, false)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetChunks(ctx, id)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "persistent", got[0].Content)
}
