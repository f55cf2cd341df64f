// Package index provides the embedding-aware view over a project's chunk
// store. Chunk content is embedded and normalized on upsert, and query text
// is embedded on search, so similarity reduces to a dot product over unit
// vectors. Embedding work is spread over a worker pool.
package index
