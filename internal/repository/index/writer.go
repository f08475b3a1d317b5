package index

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sashaklochko/statista-context/internal/db"
	"github.com/sashaklochko/statista-context/internal/domain"
)

// BM25 weights of the text fields, matching how the corpus ranks them:
// title matches count triple, subject matches double.
const (
	titleWeight   = 3.0
	subjectWeight = 2.0
)

// writeStore is the consumer interface for index maintenance (ISP).
type writeStore interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
}

// HNSWConfig tunes the vector index build.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Writer persists statistics documents and maintains the FT index.
type Writer struct {
	store     writeStore
	indexName string
	dim       int
	hnsw      HNSWConfig
}

// NewWriter creates an index writer for the named statistics index.
func NewWriter(s writeStore, indexName string, dim int) *Writer {
	return &Writer{store: s, indexName: indexName, dim: dim}
}

// WithHNSW overrides the HNSW build parameters.
func (w *Writer) WithHNSW(cfg HNSWConfig) *Writer {
	w.hnsw = cfg
	return w
}

// EnsureIndex creates the FT index if it does not exist.
// With recreate set, an existing index is dropped first; documents survive
// the drop and are re-indexed in the background by the engine.
func (w *Writer) EnsureIndex(ctx context.Context, recreate bool) error {
	name := fmt.Sprintf("%s%s:idx", domain.KeyPrefix, w.indexName)

	if recreate {
		if err := w.store.DropIndex(ctx, name); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
			return fmt.Errorf("drop index %s: %w", name, err)
		}
	}

	def := &db.IndexDefinition{
		Name:     name,
		Prefixes: []string{w.keyPrefix()},
		Fields: []db.IndexField{
			{Name: fieldTitle, Type: db.IndexFieldText, TextWeight: titleWeight},
			{Name: fieldSubject, Type: db.IndexFieldText, TextWeight: subjectWeight},
			{Name: fieldDescription, Type: db.IndexFieldText},
			{
				Name:              fieldEmbedding,
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         w.dim,
				VectorDistance:    db.DistanceCosine,
				VectorM:           w.hnsw.M,
				VectorEFConstruct: w.hnsw.EFConstruct,
			},
		},
	}

	err := w.store.CreateIndex(ctx, def)
	if errors.Is(err, db.ErrIndexExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create index %s: %w", name, err)
	}
	return nil
}

// Upsert writes a batch of documents with their embeddings as hashes under
// the index key prefix. Lengths of docs and vectors must match.
func (w *Writer) Upsert(ctx context.Context, docs []domain.Document, vectors [][]float32) error {
	if len(docs) != len(vectors) {
		return fmt.Errorf("document/vector count mismatch: %d vs %d", len(docs), len(vectors))
	}
	if len(docs) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, 0, len(docs))
	for i, doc := range docs {
		if doc.ID == "" {
			return fmt.Errorf("document at index %d has no id", i)
		}
		if len(vectors[i]) != w.dim {
			return fmt.Errorf("document %s: embedding has %d dimensions, index wants %d",
				doc.ID, len(vectors[i]), w.dim)
		}
		items = append(items, db.HashSetItem{
			Key:    w.keyPrefix() + doc.ID,
			Fields: buildHashFields(&doc, vectors[i]),
		})
	}

	if err := w.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("upsert %d documents: %w", len(items), err)
	}
	return nil
}

// keyPrefix is the hash key prefix documents of this index live under.
func (w *Writer) keyPrefix() string {
	return fmt.Sprintf("%s%s:", domain.KeyPrefix, w.indexName)
}

// buildHashFields flattens a document and its embedding into hash fields.
func buildHashFields(doc *domain.Document, vector []float32) map[string]string {
	return map[string]string{
		fieldTitle:       doc.Title,
		fieldSubject:     doc.Subject,
		fieldDescription: doc.Description,
		fieldLink:        doc.Link,
		fieldDate:        doc.Date.UTC().Format(time.RFC3339),
		fieldTeaserImage: doc.TeaserImageURL,
		fieldEmbedding:   vectorToBytes(vector),
	}
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
