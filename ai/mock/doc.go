// Package mock provides test doubles for the ai package interfaces.
//
// MockEmbedder produces deterministic, normalized vectors derived from the
// input text, so similarity search in tests behaves predictably without an
// embedding service. MockLLM records the system/prompt it was called with
// and returns a deterministic answer unless a GenerateFunc is injected.
package mock
