// Package reindex regenerates chunk embeddings in place.
//
// When a project's embeddings provider changes, stored vectors no longer
// live in the same space as new queries. The Reindexer walks every chunk in
// the project index in batches, reembeds the content with the new provider,
// normalizes, and writes the vectors back, with retry/backoff around the
// embedding calls and progress reporting for long runs.
package reindex
