package result

import "github.com/sashaklochko/statista-context/internal/domain"

// Source identifies which sub-search produced a hit.
type Source string

// Sub-search source constants.
const (
	// Lexical marks a hit from the BM25 text search.
	Lexical Source = "lexical"
	// Vector marks a hit from the KNN vector search.
	Vector Source = "vector"
)

// Hit is a raw-scored document from a single sub-search, before merging.
// The score is on that sub-search's native scale (BM25 or cosine similarity).
type Hit struct {
	doc   domain.Document
	score float64
}

// NewHit creates a raw sub-search hit.
func NewHit(doc domain.Document, score float64) Hit {
	return Hit{doc: doc, score: score}
}

// Document returns the matched document.
func (h *Hit) Document() domain.Document { return h.doc }

// Score returns the raw sub-search score.
func (h *Hit) Score() float64 { return h.score }

// Result is a merged, re-scored search hit. Its score is normalized to [0,1]
// and comparable across search modes.
type Result struct {
	doc     domain.Document
	score   float64
	sources []Source
}

// New creates a merged result.
func New(doc domain.Document, score float64, sources []Source) Result {
	return Result{doc: doc, score: score, sources: sources}
}

// Document returns the matched document.
func (r *Result) Document() domain.Document { return r.doc }

// Score returns the normalized similarity score.
func (r *Result) Score() float64 { return r.score }

// Sources returns the sub-searches that contributed this document.
func (r *Result) Sources() []Source { return r.sources }
