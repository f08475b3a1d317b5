package chi

import (
	"time"

	"github.com/sashaklochko/statista-context/internal/domain/search/result"
	retrieveuc "github.com/sashaklochko/statista-context/internal/usecase/retrieve"
)

type queryRequest struct {
	Query      string `json:"query"`
	SearchType string `json:"search_type,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

type resultItem struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Subject         string   `json:"subject"`
	Description     string   `json:"description"`
	Link            string   `json:"link"`
	Date            string   `json:"date"`
	TeaserImageURL  string   `json:"teaser_image_url,omitempty"`
	SimilarityScore float64  `json:"similarity_score"`
	Sources         []string `json:"sources"`
}

type queryResponse struct {
	Results         []resultItem `json:"results"`
	Query           string       `json:"query"`
	SearchType      string       `json:"search_type"`
	SearchEngine    string       `json:"search_engine"`
	Timestamp       time.Time    `json:"timestamp"`
	ExecutionTimeMs float64      `json:"execution_time_ms"`
}

type readyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type rootResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Status  string `json:"status"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func responseToJSON(resp *retrieveuc.Response) queryResponse {
	items := make([]resultItem, 0, len(resp.Results))
	for i := range resp.Results {
		items = append(items, resultToJSON(&resp.Results[i]))
	}

	return queryResponse{
		Results:         items,
		Query:           resp.Query,
		SearchType:      string(resp.SearchType),
		SearchEngine:    resp.SearchEngine,
		Timestamp:       resp.Timestamp,
		ExecutionTimeMs: resp.ExecutionTimeMs,
	}
}

func resultToJSON(r *result.Result) resultItem {
	doc := r.Document()

	sources := make([]string, 0, len(r.Sources()))
	for _, s := range r.Sources() {
		sources = append(sources, string(s))
	}

	return resultItem{
		ID:              doc.ID,
		Title:           doc.Title,
		Subject:         doc.Subject,
		Description:     doc.Description,
		Link:            doc.Link,
		Date:            doc.Date.UTC().Format(time.RFC3339),
		TeaserImageURL:  doc.TeaserImageURL,
		SimilarityScore: r.Score(),
		Sources:         sources,
	}
}
