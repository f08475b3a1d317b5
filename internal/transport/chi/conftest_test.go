package chi

import (
	"context"
	"net/http/httptest"
	"testing"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sashaklochko/statista-context/internal/domain"
	"github.com/sashaklochko/statista-context/internal/domain/search/result"
	healthuc "github.com/sashaklochko/statista-context/internal/usecase/health"
	retrieveuc "github.com/sashaklochko/statista-context/internal/usecase/retrieve"
)

// mockSearcher implements retrieve.IndexSearcher for transport tests.
type mockSearcher struct {
	lexicalFn func(ctx context.Context, query string, topK int) ([]result.Hit, error)
	vectorFn  func(ctx context.Context, vector []float32, topK int) ([]result.Hit, error)
}

func (m *mockSearcher) Lexical(ctx context.Context, query string, topK int) ([]result.Hit, error) {
	if m.lexicalFn != nil {
		return m.lexicalFn(ctx, query, topK)
	}
	return nil, nil
}

func (m *mockSearcher) Vector(ctx context.Context, vector []float32, topK int) ([]result.Hit, error) {
	if m.vectorFn != nil {
		return m.vectorFn(ctx, vector, topK)
	}
	return nil, nil
}

// mockEmbedder implements retrieve.Embedder and health.EmbedderChecker.
type mockEmbedder struct {
	err error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}, nil
}

func (m *mockEmbedder) HealthCheck(_ context.Context) error { return m.err }

// mockPinger implements health.StorePinger.
type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type testDeps struct {
	searcher *mockSearcher
	embedder *mockEmbedder
	pinger   *mockPinger
}

func newTestServer(t *testing.T) (*httptest.Server, *testDeps) {
	t.Helper()

	deps := &testDeps{
		searcher: &mockSearcher{},
		embedder: &mockEmbedder{},
		pinger:   &mockPinger{},
	}

	retrieveSvc := retrieveuc.New(deps.searcher, deps.embedder, retrieveuc.Config{
		SemanticWeight:  0.5,
		KeywordWeight:   0.5,
		OverFetchFactor: 2,
		EngineLabel:     "redis",
	})
	healthSvc := healthuc.New(deps.pinger, deps.embedder)

	s := NewServer(retrieveSvc, healthSvc, "statista-context", zap.NewNop())

	r := chirouter.NewRouter()
	s.RegisterRoutes(r)

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)

	return ts, deps
}

func hit(id string, score float64) result.Hit {
	return result.NewHit(domain.Document{
		ID:    id,
		Title: "doc " + id,
		Link:  "https://example.com/" + id,
	}, score)
}
