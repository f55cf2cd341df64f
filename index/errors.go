package index

import "errors"

var (
	// ErrRepositoryRequired indicates that a chunk repository is required.
	ErrRepositoryRequired = errors.New("index repository is required")

	// ErrEmbedderRequired indicates that an embedder is required.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrEmbeddingFailed indicates that embedding generation failed.
	ErrEmbeddingFailed = errors.New("embedding generation failed")
)
