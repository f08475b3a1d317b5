package retrieve

import (
	"context"
	"testing"

	"github.com/sashaklochko/statista-context/internal/domain"
	"github.com/sashaklochko/statista-context/internal/domain/search/mode"
	"github.com/sashaklochko/statista-context/internal/domain/search/request"
	"github.com/sashaklochko/statista-context/internal/domain/search/result"
)

// mockSearcher implements IndexSearcher for tests.
type mockSearcher struct {
	lexicalFn    func(ctx context.Context, query string, topK int) ([]result.Hit, error)
	vectorFn     func(ctx context.Context, vector []float32, topK int) ([]result.Hit, error)
	lexicalCalls int
	vectorCalls  int
}

func (m *mockSearcher) Lexical(ctx context.Context, query string, topK int) ([]result.Hit, error) {
	m.lexicalCalls++
	if m.lexicalFn != nil {
		return m.lexicalFn(ctx, query, topK)
	}
	return nil, nil
}

func (m *mockSearcher) Vector(ctx context.Context, vector []float32, topK int) ([]result.Hit, error) {
	m.vectorCalls++
	if m.vectorFn != nil {
		return m.vectorFn(ctx, vector, topK)
	}
	return nil, nil
}

// mockEmbedder implements Embedder for tests.
type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	return m.result, m.err
}

func newTestService(t *testing.T) (*Service, *mockSearcher, *mockEmbedder) {
	t.Helper()
	ms := &mockSearcher{}
	me := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}}
	svc := New(ms, me, Config{
		SemanticWeight:  0.5,
		KeywordWeight:   0.5,
		OverFetchFactor: 2,
		EngineLabel:     "redis",
	})
	return svc, ms, me
}

func mustRequest(t *testing.T, query string, m mode.Mode, limit int) *request.Request {
	t.Helper()
	req, err := request.New(query, m, limit)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return &req
}
