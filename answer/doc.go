// Package answer implements retrieval-augmented question answering over a
// project index. Retrieved chunks are fitted into a token budget before
// being stuffed into the prompt, and a Monitor interface exposes the
// retrieval and generation stages for observability.
package answer
