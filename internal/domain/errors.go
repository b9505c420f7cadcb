package domain

import "errors"

var (
	// ErrNoCandidates is returned when retrieval produced nothing to rank
	ErrNoCandidates = errors.New("검색 결과가 없습니다")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrSearchFailure is returned when a search backend call fails
	ErrSearchFailure = errors.New("search backend request failed")

	// ErrEmbeddingFailure is returned when the embedding service fails.
	// It is never used for "no semantic results".
	ErrEmbeddingFailure = errors.New("embedding generation failed")

	// ErrInvalidConfig is returned for programmer or configuration mistakes
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")
)
