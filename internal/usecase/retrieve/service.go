// Package retrieve implements the hybrid retrieval engine: embed the query,
// fan out to lexical and vector sub-searches, and merge into one ranked list.
package retrieve

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sashaklochko/statista-context/internal/domain/search/mode"
	"github.com/sashaklochko/statista-context/internal/domain/search/request"
	"github.com/sashaklochko/statista-context/internal/domain/search/result"
	"github.com/sashaklochko/statista-context/internal/logger"
	"github.com/sashaklochko/statista-context/internal/metrics"
)

// minOverFetch is the smallest top-k each sub-search asks the store for;
// merging two over-fetched lists keeps the final page full after dedupe.
const minOverFetch = 10

// Config holds ranking weights and fan-out settings.
type Config struct {
	SemanticWeight  float64
	KeywordWeight   float64
	OverFetchFactor int
	EngineLabel     string
}

// Response is the outcome of one retrieval call.
type Response struct {
	Results         []result.Result
	Query           string
	SearchType      mode.Mode // mode the caller asked for
	Executed        mode.Mode // mode actually executed (differs when hybrid degrades)
	SearchEngine    string
	Timestamp       time.Time
	ExecutionTimeMs float64
}

// Service handles document retrieval across semantic, keyword, and hybrid modes.
type Service struct {
	repo  IndexSearcher
	embed Embedder
	cfg   Config
}

// New creates a retrieval service.
func New(repo IndexSearcher, embed Embedder, cfg Config) *Service {
	if cfg.OverFetchFactor <= 0 {
		cfg.OverFetchFactor = 2
	}
	return &Service{repo: repo, embed: embed, cfg: cfg}
}

// Retrieve executes a retrieval request in its requested mode.
func (s *Service) Retrieve(ctx context.Context, req *request.Request) (Response, error) {
	start := time.Now()

	var (
		results  []result.Result
		executed mode.Mode
		err      error
	)

	switch req.Mode() {
	case mode.Keyword:
		results, err = s.retrieveKeyword(ctx, req)
		executed = mode.Keyword
	case mode.Semantic:
		results, err = s.retrieveSemantic(ctx, req)
		executed = mode.Semantic
	case mode.Hybrid:
		results, executed, err = s.retrieveHybrid(ctx, req)
	default:
		return Response{}, fmt.Errorf("unsupported search mode: %s", req.Mode())
	}

	elapsed := time.Since(start)

	if err != nil {
		metrics.RetrievalRequestsTotal.WithLabelValues(string(req.Mode()), "error").Inc()
		return Response{}, err
	}

	status := "ok"
	if executed != req.Mode() {
		status = "degraded"
	}
	metrics.RetrievalRequestsTotal.WithLabelValues(string(req.Mode()), status).Inc()
	metrics.RetrievalDuration.WithLabelValues(string(req.Mode())).Observe(elapsed.Seconds())
	metrics.RetrievalResultsReturned.WithLabelValues(string(req.Mode())).Observe(float64(len(results)))

	logger.FromContext(ctx).Info("query executed",
		zap.String("query", req.Query()),
		zap.String("search_type", string(req.Mode())),
		zap.String("executed", string(executed)),
		zap.Int("results", len(results)),
		zap.Float64("elapsed_ms", float64(elapsed.Microseconds())/1000),
	)

	return Response{
		Results:         results,
		Query:           req.Query(),
		SearchType:      req.Mode(),
		Executed:        executed,
		SearchEngine:    s.cfg.EngineLabel,
		Timestamp:       time.Now().UTC(),
		ExecutionTimeMs: float64(elapsed.Microseconds()) / 1000,
	}, nil
}

// retrieveKeyword runs BM25 only. The embedder is never invoked.
func (s *Service) retrieveKeyword(ctx context.Context, req *request.Request) ([]result.Result, error) {
	hits, err := s.repo.Lexical(ctx, req.Query(), s.topK(req))
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}

	return merge([]weightedHits{
		{hits: hits, weight: 1.0, source: result.Lexical},
	}, req.Limit()), nil
}

// retrieveSemantic embeds the query and runs KNN. An embedding failure is fatal.
func (s *Service) retrieveSemantic(ctx context.Context, req *request.Request) ([]result.Result, error) {
	embResult, err := s.embed.Embed(ctx, req.Query())
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	hits, err := s.repo.Vector(ctx, embResult.Embedding, s.topK(req))
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	return merge([]weightedHits{
		{hits: hits, weight: 1.0, source: result.Vector},
	}, req.Limit()), nil
}

// retrieveHybrid runs embed+KNN and BM25 concurrently and blends the results.
// If one side fails the other serves the request alone with unit weight;
// the executed mode reflects the fallback. Both failing is an aggregate error.
func (s *Service) retrieveHybrid(ctx context.Context, req *request.Request) ([]result.Result, mode.Mode, error) {
	topK := s.topK(req)

	g, gctx := errgroup.WithContext(ctx)

	var (
		lexHits, vecHits []result.Hit
		lexErr, vecErr   error
	)

	g.Go(func() error {
		lexHits, lexErr = s.repo.Lexical(gctx, req.Query(), topK)
		return nil // a sub-search failure must not cancel the other side
	})

	g.Go(func() error {
		embResult, err := s.embed.Embed(gctx, req.Query())
		if err != nil {
			vecErr = fmt.Errorf("vectorize query: %w", err)
			return nil
		}
		vecHits, vecErr = s.repo.Vector(gctx, embResult.Embedding, topK)
		return nil
	})

	_ = g.Wait()

	log := logger.FromContext(ctx)

	switch {
	case lexErr != nil && vecErr != nil:
		return nil, "", fmt.Errorf("hybrid search failed: %w", errors.Join(lexErr, vecErr))

	case vecErr != nil:
		log.Warn("hybrid degraded to keyword-only", zap.Error(vecErr))
		metrics.RetrievalDegradedTotal.WithLabelValues(string(result.Vector)).Inc()
		return merge([]weightedHits{
			{hits: lexHits, weight: 1.0, source: result.Lexical},
		}, req.Limit()), mode.Keyword, nil

	case lexErr != nil:
		log.Warn("hybrid degraded to semantic-only", zap.Error(lexErr))
		metrics.RetrievalDegradedTotal.WithLabelValues(string(result.Lexical)).Inc()
		return merge([]weightedHits{
			{hits: vecHits, weight: 1.0, source: result.Vector},
		}, req.Limit()), mode.Semantic, nil
	}

	// Heaviest source first: it owns the tie-break order.
	sources := []weightedHits{
		{hits: vecHits, weight: s.cfg.SemanticWeight, source: result.Vector},
		{hits: lexHits, weight: s.cfg.KeywordWeight, source: result.Lexical},
	}
	if s.cfg.KeywordWeight > s.cfg.SemanticWeight {
		sources[0], sources[1] = sources[1], sources[0]
	}

	return merge(sources, req.Limit()), mode.Hybrid, nil
}

// topK is how many hits each sub-search fetches before merging.
func (s *Service) topK(req *request.Request) int {
	k := req.Limit() * s.cfg.OverFetchFactor
	if k < minOverFetch {
		k = minOverFetch
	}
	return k
}
