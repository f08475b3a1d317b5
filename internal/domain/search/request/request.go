package request

import (
	"fmt"
	"strings"

	"github.com/sashaklochko/statista-context/internal/domain"
	"github.com/sashaklochko/statista-context/internal/domain/search/mode"
)

// Query parameter limits.
const (
	// MaxQueryLength is the maximum allowed query length.
	MaxQueryLength = 4096
	// DefaultLimit is the result count used when limit is omitted.
	DefaultLimit = 5
	// MaxLimit is the largest accepted result count.
	MaxLimit = 100
)

// Request is a validated retrieval query.
type Request struct {
	query      string
	searchMode mode.Mode
	limit      int
}

// New validates and normalizes query parameters.
// Defaults: mode=hybrid, limit=5. A limit outside [1, MaxLimit] is rejected,
// not clamped; zero means "not set" and takes the default.
func New(query string, m mode.Mode, limit int) (Request, error) {
	if strings.TrimSpace(query) == "" {
		return Request{}, domain.ErrEmptyQuery
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w (max %d chars)", domain.ErrQueryTooLong, MaxQueryLength)
	}
	if m == "" {
		m = mode.Hybrid
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("%w: %q (valid types: %v)", domain.ErrInvalidSearchType, m, mode.Valid())
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 1 || limit > MaxLimit {
		return Request{}, fmt.Errorf("%w: %d (must be between 1 and %d)", domain.ErrInvalidLimit, limit, MaxLimit)
	}

	return Request{query: query, searchMode: m, limit: limit}, nil
}

// Query returns the query text.
func (r *Request) Query() string { return r.query }

// Mode returns the search strategy.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// Limit returns the maximum results to return.
func (r *Request) Limit() int { return r.limit }
