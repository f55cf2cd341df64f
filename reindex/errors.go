package reindex

import "errors"

var (
	// ErrInvalidMaxAttempts indicates that maxAttempts must be positive.
	ErrInvalidMaxAttempts = errors.New("max attempts must be greater than zero")

	// ErrRepositoryRequired indicates that a chunk repository is required.
	ErrRepositoryRequired = errors.New("index repository is required")

	// ErrEmbedderRequired indicates that an embedder is required.
	ErrEmbedderRequired = errors.New("embedder is required")
)
