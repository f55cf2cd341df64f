// Package server exposes a Brain over HTTP.
//
// The boundary is deliberately thin: wire schemas mirror the domain types
// without being contractual, handlers delegate straight to the Brain, and
// domain sentinels map onto HTTP statuses in one place. Unexpected errors
// never crash the process (recover middleware) and never leak internals.
package server
