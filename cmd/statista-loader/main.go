package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sashaklochko/statista-context/internal/config"
	dbRedis "github.com/sashaklochko/statista-context/internal/db/redis"
	"github.com/sashaklochko/statista-context/internal/domain"
	logpkg "github.com/sashaklochko/statista-context/internal/logger"
	indexrepo "github.com/sashaklochko/statista-context/internal/repository/index"
	openaiEmb "github.com/sashaklochko/statista-context/internal/transport/openai"
)

// statisticRecord is one entry of the statistics JSON corpus file.
type statisticRecord struct {
	ID             json.Number `json:"id"`
	Title          string      `json:"title"`
	Subject        string      `json:"subject"`
	Description    string      `json:"description"`
	Link           string      `json:"link"`
	Date           string      `json:"date"`
	TeaserImageURL string      `json:"teaser_image_url"`
}

// fallbackDate is used when a record carries an unparseable date.
var fallbackDate = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

func main() {
	var (
		dataPath  = flag.String("file", "data/statistics.json", "path to the statistics JSON corpus")
		recreate  = flag.Bool("recreate", false, "drop and recreate the search index before loading")
		batchSize = flag.Int("batch", 100, "documents per write batch")
	)
	flag.Parse()

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting corpus loader",
		zap.String("env", env),
		zap.String("file", *dataPath),
		zap.String("index", cfg.Index.Name),
		zap.Bool("recreate", *recreate),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create index store", zap.Error(err))
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Index store not ready", zap.Error(err))
	}

	embedder := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   "openai",
		Logger:     logger,
	})

	writer := indexrepo.NewWriter(store, cfg.Index.Name, cfg.Embedding.Dimensions).
		WithHNSW(indexrepo.HNSWConfig{
			M:           cfg.Index.HNSWM,
			EFConstruct: cfg.Index.HNSWEFConstruct,
		})

	if err := writer.EnsureIndex(ctx, *recreate); err != nil {
		logger.Fatal("Failed to prepare index", zap.Error(err))
	}

	records, err := readCorpus(*dataPath)
	if err != nil {
		logger.Fatal("Failed to read corpus", zap.Error(err))
	}
	logger.Info("Corpus loaded", zap.Int("documents", len(records)))

	loaded, failed, err := loadCorpus(ctx, writer, embedder, records, *batchSize, logger)
	if err != nil {
		logger.Fatal("Loading aborted", zap.Error(err),
			zap.Int("loaded", loaded), zap.Int("failed", failed))
	}

	logger.Info("Loading complete", zap.Int("loaded", loaded), zap.Int("failed", failed))
}

// readCorpus parses the statistics JSON file.
func readCorpus(path string) ([]statisticRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var records []statisticRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return records, nil
}

// loadCorpus embeds and writes records in batches. A record that fails to
// embed is skipped and counted; a store write failure aborts the run.
func loadCorpus(
	ctx context.Context,
	writer *indexrepo.Writer,
	embedder domain.Embedder,
	records []statisticRecord,
	batchSize int,
	logger *zap.Logger,
) (loaded, failed int, err error) {
	docs := make([]domain.Document, 0, batchSize)
	vectors := make([][]float32, 0, batchSize)

	flush := func() error {
		if len(docs) == 0 {
			return nil
		}
		if err := writer.Upsert(ctx, docs, vectors); err != nil {
			return err
		}
		loaded += len(docs)
		docs = docs[:0]
		vectors = vectors[:0]
		return nil
	}

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return loaded, failed, err
		}

		doc := recordToDocument(rec, logger)
		if doc.ID == "" {
			logger.Warn("Skipping record without id", zap.Int("position", i))
			failed++
			continue
		}

		res, err := embedder.Embed(ctx, embeddingText(doc))
		if err != nil {
			logger.Warn("Skipping record, embedding failed",
				zap.String("id", doc.ID), zap.Error(err))
			failed++
			continue
		}

		docs = append(docs, doc)
		vectors = append(vectors, res.Embedding)

		if len(docs) == batchSize {
			if err := flush(); err != nil {
				return loaded, failed, err
			}
		}

		if (i+1)%100 == 0 {
			logger.Info("Progress", zap.Int("prepared", i+1), zap.Int("total", len(records)))
		}
	}

	if err := flush(); err != nil {
		return loaded, failed, err
	}
	return loaded, failed, nil
}

// embeddingText is the content embedded for a statistic: title, subject and
// description concatenated, matching what the search index scores on.
func embeddingText(doc domain.Document) string {
	return doc.Title + " " + doc.Subject + " " + doc.Description
}

// recordToDocument converts a raw corpus record into a domain document.
func recordToDocument(rec statisticRecord, logger *zap.Logger) domain.Document {
	return domain.Document{
		ID:             rec.ID.String(),
		Title:          rec.Title,
		Subject:        rec.Subject,
		Description:    rec.Description,
		Link:           rec.Link,
		Date:           parseRecordDate(rec.ID.String(), rec.Date, logger),
		TeaserImageURL: rec.TeaserImageURL,
	}
}

// parseRecordDate normalizes corpus dates to UTC. Offsets are dropped and
// unparseable values fall back to a fixed date so one bad record cannot
// block the load.
func parseRecordDate(id, raw string, logger *zap.Logger) time.Time {
	if raw == "" {
		return fallbackDate
	}

	// Strip a trailing offset, the corpus mixes naive and offset timestamps.
	if idx := strings.Index(raw, "+"); idx > 0 {
		raw = raw[:idx]
	}
	raw = strings.TrimSuffix(raw, "Z")

	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}

	logger.Warn("Unparseable date, using fallback",
		zap.String("id", id), zap.String("date", raw))
	return fallbackDate
}
