package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Chunk IDs come from a per-project store sequence; source index keys use
// content-based hashing so identical sources map to identical keys.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Project is a tenant-scoped configuration unit bundling a document index,
// an embeddings provider, an LLM provider, and an optional persona.
type Project struct {
	Name       string // Unique, immutable identity
	Embeddings string // Embeddings provider name
	LLM        string // LLM provider name
	System     string // Optional persona / system prompt
	Sandboxed  bool   // Rejects per-call LLM and persona overrides
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ProjectPatch is a partial update to a Project. Nil fields are left unchanged.
// Name is not patchable.
type ProjectPatch struct {
	Embeddings *string
	LLM        *string
	System     *string
	Sandboxed  *bool
}

// Apply copies the non-nil patch fields onto the project and reports whether
// the embeddings provider changed, which invalidates the existing index.
func (p *ProjectPatch) Apply(project *Project) (embeddingsChanged bool) {
	if p.Embeddings != nil && *p.Embeddings != project.Embeddings {
		project.Embeddings = *p.Embeddings
		embeddingsChanged = true
	}
	if p.LLM != nil {
		project.LLM = *p.LLM
	}
	if p.System != nil {
		project.System = *p.System
	}
	if p.Sandboxed != nil {
		project.Sandboxed = *p.Sandboxed
	}
	return embeddingsChanged
}

// Chunk is a unit of ingested, embedded text stored in a project index.
type Chunk struct {
	Id         ID
	Content    string
	Source     string   // Absolute path for files, literal URL for web pages; dedup key
	Keywords   []string // Derived metadata
	Vector     []float32
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// ScoredChunk is a chunk returned from similarity search with its score.
type ScoredChunk struct {
	Chunk *Chunk
	Score float32
}

// ChatTurn is a single (question, answer) exchange in a chat session.
type ChatTurn struct {
	Question  string
	Answer    string
	Timestamp time.Time
}

// ChatSession is persisted multi-turn conversation state keyed by a chat id.
type ChatSession struct {
	Id        string // UUID, minted on first message
	Project   string
	Turns     []ChatTurn
	CreatedAt time.Time
	UpdatedAt time.Time
}
