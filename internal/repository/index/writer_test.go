package index

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sashaklochko/statista-context/internal/db"
	"github.com/sashaklochko/statista-context/internal/domain"
)

func TestWriterEnsureIndexSchema(t *testing.T) {
	ms := &mockWriteStore{}
	var captured *db.IndexDefinition
	ms.createIndexFn = func(_ context.Context, def *db.IndexDefinition) error {
		captured = def
		return nil
	}

	w := NewWriter(ms, "statistics", 384).WithHNSW(HNSWConfig{M: 32, EFConstruct: 400})
	if err := w.EnsureIndex(context.Background(), false); err != nil {
		t.Fatalf("EnsureIndex() error = %v", err)
	}

	if captured == nil {
		t.Fatal("CreateIndex was not called")
	}
	if captured.Name != "statista:statistics:idx" {
		t.Errorf("index name = %q, want statista:statistics:idx", captured.Name)
	}
	if len(captured.Prefixes) != 1 || captured.Prefixes[0] != "statista:statistics:" {
		t.Errorf("prefixes = %v, want [statista:statistics:]", captured.Prefixes)
	}
	if len(captured.Fields) != 4 {
		t.Fatalf("got %d fields, want 4", len(captured.Fields))
	}

	byName := make(map[string]db.IndexField)
	for _, f := range captured.Fields {
		byName[f.Name] = f
	}
	if f := byName["title"]; f.Type != db.IndexFieldText || f.TextWeight != 3.0 {
		t.Errorf("title field = %+v, want TEXT weight 3", f)
	}
	if f := byName["subject"]; f.Type != db.IndexFieldText || f.TextWeight != 2.0 {
		t.Errorf("subject field = %+v, want TEXT weight 2", f)
	}
	if f := byName["description"]; f.Type != db.IndexFieldText || f.TextWeight != 0 {
		t.Errorf("description field = %+v, want TEXT default weight", f)
	}
	vec := byName["embedding"]
	if vec.Type != db.IndexFieldVector || vec.VectorAlgo != db.VectorHNSW {
		t.Errorf("embedding field = %+v, want HNSW vector", vec)
	}
	if vec.VectorDim != 384 || vec.VectorDistance != db.DistanceCosine {
		t.Errorf("embedding dim/metric = %d/%s, want 384/COSINE", vec.VectorDim, vec.VectorDistance)
	}
	if vec.VectorM != 32 || vec.VectorEFConstruct != 400 {
		t.Errorf("HNSW params = M %d EF %d, want 32/400", vec.VectorM, vec.VectorEFConstruct)
	}
}

func TestWriterEnsureIndexAlreadyExists(t *testing.T) {
	ms := &mockWriteStore{
		createIndexFn: func(context.Context, *db.IndexDefinition) error {
			return db.ErrIndexExists
		},
	}

	w := NewWriter(ms, "statistics", 384)
	if err := w.EnsureIndex(context.Background(), false); err != nil {
		t.Fatalf("EnsureIndex() on existing index error = %v, want nil", err)
	}
}

func TestWriterEnsureIndexRecreate(t *testing.T) {
	ms := &mockWriteStore{}
	var dropped string
	ms.dropIndexFn = func(_ context.Context, name string) error {
		dropped = name
		return nil
	}

	w := NewWriter(ms, "statistics", 384)
	if err := w.EnsureIndex(context.Background(), true); err != nil {
		t.Fatalf("EnsureIndex(recreate) error = %v", err)
	}
	if dropped != "statista:statistics:idx" {
		t.Errorf("dropped index = %q, want statista:statistics:idx", dropped)
	}
}

func TestWriterEnsureIndexRecreateMissingIndex(t *testing.T) {
	ms := &mockWriteStore{
		dropIndexFn: func(context.Context, string) error {
			return db.ErrIndexNotFound
		},
	}

	w := NewWriter(ms, "statistics", 384)
	if err := w.EnsureIndex(context.Background(), true); err != nil {
		t.Fatalf("EnsureIndex(recreate) with no prior index error = %v, want nil", err)
	}
}

func TestWriterUpsert(t *testing.T) {
	ms := &mockWriteStore{}
	var captured []db.HashSetItem
	ms.hsetMultiFn = func(_ context.Context, items []db.HashSetItem) error {
		captured = items
		return nil
	}

	date := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	docs := []domain.Document{{
		ID:             "42",
		Title:          "Smartphone users worldwide",
		Subject:        "Telecommunications",
		Description:    "Number of smartphone users worldwide from 2014 to 2029.",
		Link:           "https://example.com/statistics/42",
		Date:           date,
		TeaserImageURL: "https://example.com/teaser/42.png",
	}}
	vectors := [][]float32{{0.1, 0.2, 0.3}}

	w := NewWriter(ms, "statistics", 3)
	if err := w.Upsert(context.Background(), docs, vectors); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if len(captured) != 1 {
		t.Fatalf("got %d items, want 1", len(captured))
	}
	item := captured[0]
	if item.Key != "statista:statistics:42" {
		t.Errorf("key = %q, want statista:statistics:42", item.Key)
	}
	if item.Fields["title"] != "Smartphone users worldwide" {
		t.Errorf("title = %q", item.Fields["title"])
	}
	if item.Fields["date"] != "2024-03-15T10:00:00Z" {
		t.Errorf("date = %q, want 2024-03-15T10:00:00Z", item.Fields["date"])
	}
	if got := len(item.Fields["embedding"]); got != 12 {
		t.Errorf("embedding blob length = %d, want 12", got)
	}
	if item.Fields["embedding"] != vectorToBytes(vectors[0]) {
		t.Error("embedding blob does not round-trip through vectorToBytes")
	}
}

func TestWriterUpsertValidation(t *testing.T) {
	w := NewWriter(&mockWriteStore{}, "statistics", 3)
	ctx := context.Background()

	err := w.Upsert(ctx, []domain.Document{{ID: "1"}}, nil)
	if err == nil || !strings.Contains(err.Error(), "mismatch") {
		t.Errorf("count mismatch error = %v", err)
	}

	err = w.Upsert(ctx, []domain.Document{{}}, [][]float32{{1, 2, 3}})
	if err == nil || !strings.Contains(err.Error(), "no id") {
		t.Errorf("missing id error = %v", err)
	}

	err = w.Upsert(ctx, []domain.Document{{ID: "1"}}, [][]float32{{1, 2}})
	if err == nil || !strings.Contains(err.Error(), "dimensions") {
		t.Errorf("dimension mismatch error = %v", err)
	}

	if err := w.Upsert(ctx, nil, nil); err != nil {
		t.Errorf("empty upsert error = %v, want nil", err)
	}
}

func TestWriterUpsertStoreError(t *testing.T) {
	storeErr := errors.New("connection refused")
	ms := &mockWriteStore{
		hsetMultiFn: func(context.Context, []db.HashSetItem) error { return storeErr },
	}

	w := NewWriter(ms, "statistics", 3)
	err := w.Upsert(context.Background(), []domain.Document{{ID: "1"}}, [][]float32{{1, 2, 3}})
	if !errors.Is(err, storeErr) {
		t.Errorf("Upsert() error = %v, want wrapped store error", err)
	}
}
