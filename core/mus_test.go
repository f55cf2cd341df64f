package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkMUS_Roundtrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	chunk := Chunk{
		Id:         42,
		Content:    "The sky is blue.",
		Source:     "/uploads/docs/notes.txt",
		Keywords:   []string{"sky", "blue"},
		Vector:     []float32{0.1, 0.2, 0.3},
		InsertedAt: now,
		UpdatedAt:  now,
	}

	bs := make([]byte, ChunkMUS.Size(chunk))
	n := ChunkMUS.Marshal(chunk, bs)
	require.Equal(t, len(bs), n)

	got, n, err := ChunkMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, len(bs), n)
	assert.Equal(t, chunk.Id, got.Id)
	assert.Equal(t, chunk.Content, got.Content)
	assert.Equal(t, chunk.Source, got.Source)
	assert.Equal(t, chunk.Keywords, got.Keywords)
	assert.Equal(t, chunk.Vector, got.Vector)
	assert.True(t, chunk.InsertedAt.Equal(got.InsertedAt))
}

func TestChunkMUS_EmptySlices(t *testing.T) {
	chunk := Chunk{Content: "x", Source: "s"}

	bs := make([]byte, ChunkMUS.Size(chunk))
	ChunkMUS.Marshal(chunk, bs)

	got, _, err := ChunkMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Empty(t, got.Keywords)
	assert.Empty(t, got.Vector)
}

func TestChatSessionMUS_Roundtrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	session := ChatSession{
		Id:      "b2e9c6a1",
		Project: "docs",
		Turns: []ChatTurn{
			{Question: "What color is the sky?", Answer: "Blue.", Timestamp: now},
			{Question: "And at night?", Answer: "Dark.", Timestamp: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	bs := make([]byte, ChatSessionMUS.Size(session))
	n := ChatSessionMUS.Marshal(session, bs)
	require.Equal(t, len(bs), n)

	got, _, err := ChatSessionMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, session.Id, got.Id)
	assert.Equal(t, session.Project, got.Project)
	require.Len(t, got.Turns, 2)
	assert.Equal(t, "What color is the sky?", got.Turns[0].Question)
	assert.Equal(t, "Dark.", got.Turns[1].Answer)
}

func TestProjectMUS_Roundtrip(t *testing.T) {
	project := Project{
		Name:       "docs",
		Embeddings: "openai",
		LLM:        "llamacpp",
		System:     "You answer from the provided context only.",
		Sandboxed:  true,
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}

	bs := make([]byte, ProjectMUS.Size(project))
	ProjectMUS.Marshal(project, bs)

	got, _, err := ProjectMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, project.Name, got.Name)
	assert.Equal(t, project.Embeddings, got.Embeddings)
	assert.Equal(t, project.LLM, got.LLM)
	assert.Equal(t, project.System, got.System)
	assert.True(t, got.Sandboxed)
}

func TestUnmarshal_Truncated(t *testing.T) {
	chunk := Chunk{Content: "content", Source: "source"}
	bs := make([]byte, ChunkMUS.Size(chunk))
	ChunkMUS.Marshal(chunk, bs)

	_, _, err := ChunkMUS.Unmarshal(bs[:3])
	assert.Error(t, err)
}
