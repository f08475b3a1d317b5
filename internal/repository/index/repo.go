// Package index adapts the persisted statistics index to the retrieval core.
package index

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sashaklochko/statista-context/internal/db"
	"github.com/sashaklochko/statista-context/internal/domain"
	"github.com/sashaklochko/statista-context/internal/domain/search/result"
	"github.com/sashaklochko/statista-context/internal/logger"
)

// Hash field names of a persisted statistic.
const (
	fieldTitle       = "title"
	fieldSubject     = "subject"
	fieldDescription = "description"
	fieldLink        = "link"
	fieldDate        = "date"
	fieldTeaserImage = "teaser_image_url"
	fieldEmbedding   = "embedding"
)

// returnFields lists the document fields fetched with each search.
// The embedding blob is deliberately left out of search responses.
var returnFields = []string{
	fieldTitle, fieldSubject, fieldDescription, fieldLink, fieldDate, fieldTeaserImage,
}

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// Repo implements usecase/retrieve.IndexSearcher on top of the index store.
type Repo struct {
	store     store
	indexName string
}

// New creates an index repository bound to the named statistics index.
func New(s store, indexName string) *Repo {
	return &Repo{store: s, indexName: indexName}
}

// Lexical runs a BM25 keyword search and returns raw-scored hits.
func (r *Repo) Lexical(ctx context.Context, query string, topK int) ([]result.Hit, error) {
	q := &db.TextQuery{
		IndexName:    r.ftIndexName(),
		Query:        query,
		TopK:         topK,
		ReturnFields: returnFields,
	}

	sr, err := r.store.SearchBM25(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("lexical search %s: %v: %w", r.indexName, err, domain.ErrIndexUnavailable)
	}

	return r.parseHits(ctx, sr), nil
}

// Vector runs a KNN similarity search and returns raw-scored hits.
func (r *Repo) Vector(ctx context.Context, vector []float32, topK int) ([]result.Hit, error) {
	q := &db.KNNQuery{
		IndexName:    r.ftIndexName(),
		VectorField:  fieldEmbedding,
		Vector:       vector,
		K:            topK,
		ReturnFields: returnFields,
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("vector search %s: %v: %w", r.indexName, err, domain.ErrIndexUnavailable)
	}

	return r.parseHits(ctx, sr), nil
}

// ftIndexName derives the FT index name from the logical index name.
func (r *Repo) ftIndexName() string {
	return fmt.Sprintf("%s%s:idx", domain.KeyPrefix, r.indexName)
}

// keyPrefix is the hash key prefix documents of this index live under.
func (r *Repo) keyPrefix() string {
	return fmt.Sprintf("%s%s:", domain.KeyPrefix, r.indexName)
}

// parseHits converts db.SearchResult entries into raw-scored hits.
func (r *Repo) parseHits(ctx context.Context, sr *db.SearchResult) []result.Hit {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	prefix := r.keyPrefix()
	hits := make([]result.Hit, 0, len(sr.Entries))

	for _, entry := range sr.Entries {
		docID := strings.TrimPrefix(entry.Key, prefix)
		doc := parseDocument(ctx, docID, entry.Fields)
		hits = append(hits, result.NewHit(doc, entry.Score))
	}

	return hits
}

// parseDocument assembles a domain document from flat hash fields.
// An unparseable date falls back to the current time rather than failing the search.
func parseDocument(ctx context.Context, docID string, fields map[string]string) domain.Document {
	doc := domain.Document{
		ID:             docID,
		Title:          fields[fieldTitle],
		Subject:        fields[fieldSubject],
		Description:    fields[fieldDescription],
		Link:           fields[fieldLink],
		TeaserImageURL: fields[fieldTeaserImage],
	}

	doc.Date = parseDate(ctx, docID, fields[fieldDate])

	return doc
}

func parseDate(ctx context.Context, docID, raw string) time.Time {
	if raw == "" {
		return time.Now().UTC()
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	logger.FromContext(ctx).Warn("unparseable document date, using current time",
		zap.String("doc_id", docID),
		zap.String("date", raw),
	)
	return time.Now().UTC()
}
