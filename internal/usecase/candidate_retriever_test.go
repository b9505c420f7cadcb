package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricematch/backend/internal/domain"
)

// fakeSearchBackend records the last query each strategy received
type fakeSearchBackend struct {
	mu sync.Mutex

	hits []domain.SearchHit
	err  error

	calls         []domain.SearchMode
	lastQuery     string
	lastKeyword   string
	lastSemantic  string
	lastWeights   domain.HybridWeights
	lastEmbedding []float32
	lastLimit     int
}

func (f *fakeSearchBackend) record(mode domain.SearchMode, limit int) ([]domain.SearchHit, error) {
	f.calls = append(f.calls, mode)
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

func (f *fakeSearchBackend) SearchTrigram(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = query
	return f.record(domain.SearchModeTrigram, limit)
}

func (f *fakeSearchBackend) SearchBM25(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = query
	return f.record(domain.SearchModeBM25, limit)
}

func (f *fakeSearchBackend) SearchHybrid(ctx context.Context, keywordQuery, semanticQuery string, limit int, weights domain.HybridWeights) ([]domain.SearchHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastKeyword = keywordQuery
	f.lastSemantic = semanticQuery
	f.lastWeights = weights
	return f.record(domain.SearchModeHybrid, limit)
}

func (f *fakeSearchBackend) SearchVector(ctx context.Context, embedding []float32, limit int) ([]domain.SearchHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastEmbedding = embedding
	return f.record(domain.SearchModeSemantic, limit)
}

type fakeEmbedder struct {
	vector   []float32
	err      error
	lastText string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.lastText = text
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

func newTestRetriever(t *testing.T, backend domain.SearchBackend, embedder domain.Embedder, mode domain.SearchMode) *CandidateRetriever {
	t.Helper()
	r, err := NewCandidateRetriever(backend, embedder, RetrieverConfig{Mode: mode}, zerolog.Nop())
	require.NoError(t, err)
	return r
}

func TestNewCandidateRetriever(t *testing.T) {
	backend := &fakeSearchBackend{}

	t.Run("applies defaults", func(t *testing.T) {
		r := newTestRetriever(t, backend, nil, domain.SearchModeHybrid)
		assert.Equal(t, domain.SearchModeHybrid, r.Mode())
		assert.Equal(t, DefaultSearchLimit, r.limit)
		assert.Equal(t, domain.HybridWeights{BM25: 0.5, Semantic: 0.5}, r.weights)
	})

	t.Run("rejects invalid configuration", func(t *testing.T) {
		testCases := []struct {
			name     string
			backend  domain.SearchBackend
			embedder domain.Embedder
			mode     domain.SearchMode
		}{
			{"missing backend", nil, nil, domain.SearchModeTrigram},
			{"unknown mode", backend, nil, domain.SearchMode("fuzzy")},
			{"empty mode", backend, nil, ""},
			{"semantic without embedder", backend, nil, domain.SearchModeSemantic},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := NewCandidateRetriever(tc.backend, tc.embedder, RetrieverConfig{Mode: tc.mode}, zerolog.Nop())
				assert.ErrorIs(t, err, domain.ErrInvalidConfig)
			})
		}
	})
}

func TestCandidateRetriever_QueryPreparation(t *testing.T) {
	const item = "국내산 양파를 (1kg)"

	t.Run("trigram uses semantic form", func(t *testing.T) {
		backend := &fakeSearchBackend{}
		_, err := newTestRetriever(t, backend, nil, domain.SearchModeTrigram).Retrieve(context.Background(), item)
		require.NoError(t, err)
		assert.Equal(t, []domain.SearchMode{domain.SearchModeTrigram}, backend.calls)
		assert.Equal(t, "국내산 양파를", backend.lastQuery)
	})

	t.Run("bm25 uses keyword form", func(t *testing.T) {
		backend := &fakeSearchBackend{}
		_, err := newTestRetriever(t, backend, nil, domain.SearchModeBM25).Retrieve(context.Background(), item)
		require.NoError(t, err)
		assert.Equal(t, []domain.SearchMode{domain.SearchModeBM25}, backend.calls)
		assert.Equal(t, "국내산 양파", backend.lastQuery)
	})

	t.Run("hybrid passes both forms and weights", func(t *testing.T) {
		backend := &fakeSearchBackend{}
		r, err := NewCandidateRetriever(backend, nil, RetrieverConfig{
			Mode:          domain.SearchModeHybrid,
			Limit:         5,
			HybridWeights: domain.HybridWeights{BM25: 0.3, Semantic: 0.7},
		}, zerolog.Nop())
		require.NoError(t, err)

		_, err = r.Retrieve(context.Background(), item)
		require.NoError(t, err)
		assert.Equal(t, "국내산 양파", backend.lastKeyword)
		assert.Equal(t, "국내산 양파를", backend.lastSemantic)
		assert.Equal(t, domain.HybridWeights{BM25: 0.3, Semantic: 0.7}, backend.lastWeights)
		assert.Equal(t, 5, backend.lastLimit)
	})

	t.Run("semantic embeds semantic form", func(t *testing.T) {
		backend := &fakeSearchBackend{}
		embedder := &fakeEmbedder{vector: []float32{0.1, 0.2, 0.3}}
		_, err := newTestRetriever(t, backend, embedder, domain.SearchModeSemantic).Retrieve(context.Background(), item)
		require.NoError(t, err)
		assert.Equal(t, "국내산 양파를", embedder.lastText)
		assert.Equal(t, []float32{0.1, 0.2, 0.3}, backend.lastEmbedding)
	})

	t.Run("empty query skips the backend", func(t *testing.T) {
		backend := &fakeSearchBackend{}
		got, err := newTestRetriever(t, backend, nil, domain.SearchModeBM25).Retrieve(context.Background(), "(1kg) 500g")
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
		assert.Empty(t, backend.calls)
	})
}

func TestCandidateRetriever_NormalizesHits(t *testing.T) {
	backend := &fakeSearchBackend{hits: []domain.SearchHit{
		{Product: domain.CatalogProduct{ID: "low"}, Similarity: 0.4},
		{Product: domain.CatalogProduct{ID: "high"}, Similarity: 0.9, MatchScore: 0.1},
		{Product: domain.CatalogProduct{ID: "over"}, Similarity: 1.3},
	}}

	got, err := newTestRetriever(t, backend, nil, domain.SearchModeTrigram).Retrieve(context.Background(), "양파")
	require.NoError(t, err)

	assert.Equal(t, []string{"over", "high", "low"}, ids(got))
	assert.Equal(t, 1.0, got[0].MatchScore)
	assert.Equal(t, 0.9, got[1].MatchScore)
	assert.InDelta(t, 90.0, got[1].TextScore, 1e-9)

	t.Run("non-trigram modes read match score", func(t *testing.T) {
		backend := &fakeSearchBackend{hits: []domain.SearchHit{
			{Product: domain.CatalogProduct{ID: "a"}, Similarity: 0.99, MatchScore: 0.4},
			{Product: domain.CatalogProduct{ID: "b"}, MatchScore: -0.2},
		}}
		got, err := newTestRetriever(t, backend, nil, domain.SearchModeBM25).Retrieve(context.Background(), "양파")
		require.NoError(t, err)
		assert.Equal(t, 0.4, got[0].MatchScore)
		assert.Equal(t, 0.0, got[1].MatchScore)
	})
}

func TestCandidateRetriever_Errors(t *testing.T) {
	t.Run("backend failure", func(t *testing.T) {
		backend := &fakeSearchBackend{err: errors.New("connection refused")}
		_, err := newTestRetriever(t, backend, nil, domain.SearchModeTrigram).Retrieve(context.Background(), "양파")
		assert.ErrorIs(t, err, domain.ErrSearchFailure)
		assert.NotErrorIs(t, err, domain.ErrEmbeddingFailure)
	})

	t.Run("embedding failure is distinct from search failure", func(t *testing.T) {
		backend := &fakeSearchBackend{}
		embedder := &fakeEmbedder{err: errors.New("model overloaded")}
		_, err := newTestRetriever(t, backend, embedder, domain.SearchModeSemantic).Retrieve(context.Background(), "양파")
		assert.ErrorIs(t, err, domain.ErrEmbeddingFailure)
		assert.NotErrorIs(t, err, domain.ErrSearchFailure)
		assert.Empty(t, backend.calls)
	})

	t.Run("no semantic results is not an error", func(t *testing.T) {
		backend := &fakeSearchBackend{}
		embedder := &fakeEmbedder{vector: []float32{1}}
		got, err := newTestRetriever(t, backend, embedder, domain.SearchModeSemantic).Retrieve(context.Background(), "양파")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestCandidateRetriever_FindMatches(t *testing.T) {
	backend := &fakeSearchBackend{hits: []domain.SearchHit{
		{Product: domain.CatalogProduct{ID: "a"}, MatchScore: 0.85},
		{Product: domain.CatalogProduct{ID: "b"}, MatchScore: 0.5},
	}}
	r := newTestRetriever(t, backend, nil, domain.SearchModeBM25)

	got, err := r.FindMatches(context.Background(), "양파")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAutoMatched, got.Status)
	require.NotNil(t, got.BestMatch)
	assert.Equal(t, "a", got.BestMatch.Product.ID)

	backend.err = errors.New("timeout")
	got, err = r.FindMatches(context.Background(), "양파")
	assert.Error(t, err)
	assert.Equal(t, domain.StatusUnmatched, got.Status)
	assert.Empty(t, got.Candidates)
}
