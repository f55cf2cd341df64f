package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// LLM generates text from a prompt, optionally shaped by a system/persona
// instruction. Implementations must be thread-safe for concurrent use.
type LLM interface {
	// Generate produces an answer for prompt. An empty system string runs the
	// model without a persona instruction.
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// KeywordExtractor derives keyword metadata from text. Implementations are
// pure functions over their input: they tolerate empty input by producing an
// empty list and never fail.
type KeywordExtractor interface {
	// ExtractKeywords returns up to a bounded number of keywords for text.
	ExtractKeywords(text string) []string
}
