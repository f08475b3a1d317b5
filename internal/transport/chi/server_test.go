package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/sashaklochko/statista-context/internal/domain"
	"github.com/sashaklochko/statista-context/internal/domain/search/result"
)

func postQuery(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(url+"/forward-context", "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST /forward-context: %v", err)
	}
	return resp
}

func decodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestForwardContext_Hybrid(t *testing.T) {
	ts, deps := newTestServer(t)

	deps.searcher.lexicalFn = func(_ context.Context, _ string, _ int) ([]result.Hit, error) {
		return []result.Hit{hit("stat-1", 10), hit("stat-2", 4)}, nil
	}
	deps.searcher.vectorFn = func(_ context.Context, _ []float32, _ int) ([]result.Hit, error) {
		return []result.Hit{hit("stat-1", 0.9), hit("stat-3", 0.4)}, nil
	}

	resp := postQuery(t, ts.URL, queryRequest{Query: "gold price"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decodeJSON[queryResponse](t, resp)
	if body.SearchType != "hybrid" {
		t.Errorf("expected default search_type hybrid, got %q", body.SearchType)
	}
	if body.SearchEngine != "redis" {
		t.Errorf("expected search_engine redis, got %q", body.SearchEngine)
	}
	if len(body.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(body.Results))
	}
	if body.Results[0].ID != "stat-1" {
		t.Errorf("expected stat-1 first, got %s", body.Results[0].ID)
	}
	if len(body.Results[0].Sources) != 2 {
		t.Errorf("expected two sources for stat-1, got %v", body.Results[0].Sources)
	}
	if body.Timestamp.IsZero() {
		t.Error("expected non-zero timestamp")
	}
}

func TestForwardContext_KeywordNeverEmbeds(t *testing.T) {
	ts, deps := newTestServer(t)

	deps.embedder.err = errors.New("embedder must not be called")
	deps.searcher.lexicalFn = func(_ context.Context, query string, _ int) ([]result.Hit, error) {
		if query != "inflation" {
			t.Errorf("unexpected query: %s", query)
		}
		return []result.Hit{hit("stat-9", 3.3)}, nil
	}

	resp := postQuery(t, ts.URL, queryRequest{Query: "inflation", SearchType: "keyword", Limit: 3})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decodeJSON[queryResponse](t, resp)
	if body.SearchType != "keyword" {
		t.Errorf("expected search_type keyword, got %q", body.SearchType)
	}
	if len(body.Results) != 1 || body.Results[0].ID != "stat-9" {
		t.Fatalf("unexpected results: %+v", body.Results)
	}
}

func TestForwardContext_ValidationErrors(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		name    string
		req     queryRequest
		wantMsg string
	}{
		{"empty query", queryRequest{Query: "   "}, "query must not be empty"},
		{"unknown search type", queryRequest{Query: "q", SearchType: "fuzzy"}, "fuzzy"},
		{"limit too large", queryRequest{Query: "q", Limit: 500}, "500"},
		{"negative limit", queryRequest{Query: "q", Limit: -1}, "-1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := postQuery(t, ts.URL, tc.req)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
			body := decodeJSON[errorResponse](t, resp)
			if body.Code != codeValidationFailed {
				t.Errorf("expected code %s, got %s", codeValidationFailed, body.Code)
			}
			if !strings.Contains(body.Message, tc.wantMsg) {
				t.Errorf("expected message naming %q, got %q", tc.wantMsg, body.Message)
			}
		})
	}
}

func TestForwardContext_InvalidJSON(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/forward-context", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	body := decodeJSON[errorResponse](t, resp)
	if body.Code != codeBadRequest {
		t.Errorf("expected code %s, got %s", codeBadRequest, body.Code)
	}
}

func TestForwardContext_EmbeddingFailureInSemantic(t *testing.T) {
	ts, deps := newTestServer(t)

	deps.embedder.err = domain.ErrEmbedding

	resp := postQuery(t, ts.URL, queryRequest{Query: "q", SearchType: "semantic"})
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
	body := decodeJSON[errorResponse](t, resp)
	if body.Code != codeEmbeddingError {
		t.Errorf("expected code %s, got %s", codeEmbeddingError, body.Code)
	}
}

func TestForwardContext_IndexUnavailableInKeyword(t *testing.T) {
	ts, deps := newTestServer(t)

	deps.searcher.lexicalFn = func(_ context.Context, _ string, _ int) ([]result.Hit, error) {
		return nil, domain.ErrIndexUnavailable
	}

	resp := postQuery(t, ts.URL, queryRequest{Query: "q", SearchType: "keyword"})
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
	body := decodeJSON[errorResponse](t, resp)
	if body.Code != codeIndexUnavailable {
		t.Errorf("expected code %s, got %s", codeIndexUnavailable, body.Code)
	}
}

func TestForwardContext_HybridAggregateFailureIs503(t *testing.T) {
	ts, deps := newTestServer(t)

	deps.embedder.err = domain.ErrEmbedding
	deps.searcher.lexicalFn = func(_ context.Context, _ string, _ int) ([]result.Hit, error) {
		return nil, domain.ErrIndexUnavailable
	}

	resp := postQuery(t, ts.URL, queryRequest{Query: "q"})
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for aggregate hybrid failure, got %d", resp.StatusCode)
	}
}

func TestForwardContext_HybridDegradesWhenEmbedderDown(t *testing.T) {
	ts, deps := newTestServer(t)

	deps.embedder.err = errors.New("provider down")
	deps.searcher.lexicalFn = func(_ context.Context, _ string, _ int) ([]result.Hit, error) {
		return []result.Hit{hit("stat-1", 5)}, nil
	}

	resp := postQuery(t, ts.URL, queryRequest{Query: "q"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 after degradation, got %d", resp.StatusCode)
	}
	body := decodeJSON[queryResponse](t, resp)
	if len(body.Results) != 1 {
		t.Fatalf("expected 1 result from surviving source, got %d", len(body.Results))
	}
	if len(body.Results[0].Sources) != 1 || body.Results[0].Sources[0] != "lexical" {
		t.Errorf("expected lexical provenance, got %v", body.Results[0].Sources)
	}
}

func TestReady_OK(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/ready")
	if err != nil {
		t.Fatalf("GET /ready: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeJSON[readyResponse](t, resp)
	if body.Status != "ready" {
		t.Errorf("expected status ready, got %q", body.Status)
	}
	if body.Checks["index_store"] != "ok" || body.Checks["embedding"] != "ok" {
		t.Errorf("expected all checks ok, got %v", body.Checks)
	}
}

func TestReady_StoreDown(t *testing.T) {
	ts, deps := newTestServer(t)

	deps.pinger.err = errors.New("connection refused")

	resp, err := http.Get(ts.URL + "/ready")
	if err != nil {
		t.Fatalf("GET /ready: %v", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
	body := decodeJSON[readyResponse](t, resp)
	if body.Checks["index_store"] != "connection refused" {
		t.Errorf("expected failure detail, got %v", body.Checks)
	}
}

func TestRoot(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeJSON[rootResponse](t, resp)
	if body.Service != "statista-context" {
		t.Errorf("unexpected service name: %q", body.Service)
	}
	if body.Status != "running" {
		t.Errorf("unexpected status: %q", body.Status)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
