package storage

import (
	"context"

	"github.com/stophobia/restai/core"
)

// ProjectRepository provides CRUD for persisted project metadata.
// Implementations must be thread-safe; each operation is atomic.
type ProjectRepository interface {
	// GetProject retrieves a project by name.
	// Returns ErrNotFound if no project with that name exists.
	GetProject(ctx context.Context, name string) (*core.Project, error)

	// ListProjects retrieves all projects, ordered by name.
	ListProjects(ctx context.Context) ([]*core.Project, error)

	// AddProject persists a new project.
	// Returns ErrDuplicateKey if a project with that name already exists.
	// Sets CreatedAt/UpdatedAt.
	AddProject(ctx context.Context, project *core.Project) error

	// UpdateProject replaces the stored record for the project's name.
	// Updates UpdatedAt. Returns ErrNotFound if the project doesn't exist.
	UpdateProject(ctx context.Context, project *core.Project) error

	// DeleteProject removes a project by name.
	// Returns ErrNotFound if the project doesn't exist.
	DeleteProject(ctx context.Context, name string) error

	// Close closes the repository and releases resources.
	Close() error
}

// ChatRepository persists chat sessions keyed by chat id.
type ChatRepository interface {
	// GetSession retrieves a session by id.
	// Returns ErrNotFound if no session with that id exists.
	GetSession(ctx context.Context, id string) (*core.ChatSession, error)

	// PutSession stores or replaces a session. Updates UpdatedAt.
	PutSession(ctx context.Context, session *core.ChatSession) error

	// Close closes the repository and releases resources.
	Close() error
}

// IndexRepository is the chunk store backing one project index. It is a
// durable, independently openable store keyed by project name: it must
// survive process restart and be re-openable on project lookup.
type IndexRepository interface {
	// AddChunks stores a batch of chunks atomically: either every chunk in
	// the batch is committed or none is. Chunks with ID=0 get new IDs from
	// the store sequence. Sets InsertedAt/UpdatedAt.
	// Returns the chunks with generated IDs populated.
	AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// UpdateChunks replaces existing chunks in place, keeping their IDs.
	// Updates UpdatedAt. Returns ErrNotFound if any chunk doesn't exist.
	UpdateChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// GetChunks retrieves chunks by their IDs.
	// Returns only the chunks that exist (no error for missing chunks).
	GetChunks(ctx context.Context, ids ...core.ID) ([]*core.Chunk, error)

	// GetChunksBySource retrieves the complete set of chunks derived from a
	// source. An empty result is a valid, non-error outcome.
	GetChunksBySource(ctx context.Context, source string) ([]*core.Chunk, error)

	// DeleteChunks removes chunks by id. Absent ids are a no-op.
	DeleteChunks(ctx context.Context, ids ...core.ID) error

	// ListChunkIDs returns the ids of all stored chunks, ascending.
	ListChunkIDs(ctx context.Context) ([]core.ID, error)

	// ListSources returns the distinct source values across all stored chunks.
	ListSources(ctx context.Context) ([]string, error)

	// CountChunks returns the number of stored chunks.
	CountChunks(ctx context.Context) (int, error)

	// FindSimilar finds chunks similar to the given vector.
	// Returns chunks with similarity >= minSimilarity, up to limit results,
	// ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.ScoredChunk, error)

	// Sync durably flushes pending writes. After Sync returns, the written
	// chunks are observable by any process opening the store.
	Sync() error

	// DropAll removes all data while keeping the store identity.
	DropAll() error

	// Close closes the store and releases resources.
	Close() error
}
