package domain

import "errors"

var (
	// ErrEmptyQuery signals a blank search query.
	ErrEmptyQuery = errors.New("empty query")
	// ErrInvalidWeights signals ranking weights that do not sum to one.
	ErrInvalidWeights = errors.New("invalid ranking weights")
	// ErrVectorSearchUnavailable signals an absent or unreachable vector backend.
	ErrVectorSearchUnavailable = errors.New("vector search unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)
