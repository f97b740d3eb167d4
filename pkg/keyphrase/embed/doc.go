// Package embed defines the embedding capability consumed by keyword ranking
// and semantic similarity, together with a deterministic offline provider and
// decorators for retries, rate limiting and caching.
//
// Providers map a batch of texts to dense vectors in input order. The core
// never depends on a concrete model: construct a Provider once at startup and
// pass it down.
package embed
