package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/milvusclient"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"

	"mango-chat-backend/config"
	"mango-chat-backend/service/knowledge"
	"mango-chat-backend/utils"
)

const (
	batchSize      = 10
	insertAttempts = 3

	// requestsPerSecond paces embedding and insert calls to stay inside
	// provider quotas during a full reseed.
	requestsPerSecond = 2
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dataDir := flag.String("dir", "data/knowledge", "directory of markdown knowledge files")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	chunks, err := loadChunks(*dataDir)
	if err != nil {
		slog.Error("Failed to load knowledge files", "dir", *dataDir, "err", err)
		os.Exit(1)
	}
	if len(chunks) == 0 {
		slog.Error("No chunks produced, nothing to seed", "dir", *dataDir)
		os.Exit(1)
	}
	slog.Info("Loaded knowledge chunks", "count", len(chunks))

	embedder, err := newEmbedder(cfg)
	if err != nil {
		slog.Error("Failed to create embedder", "err", err)
		os.Exit(1)
	}

	milvus, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address: cfg.Milvus.Endpoint,
		APIKey:  cfg.Milvus.APIKey,
	})
	if err != nil {
		slog.Error("Failed to create milvus client", "err", err)
		os.Exit(1)
	}
	defer milvus.Close(ctx)

	// Reseed is replace-all: prior content goes first so stale chunks never
	// outlive their source file.
	if _, err := milvus.Delete(ctx, milvusclient.NewDeleteOption(cfg.Milvus.Collection).
		WithExpr(`id != ""`)); err != nil {
		slog.Error("Failed to clear collection", "err", err)
		os.Exit(1)
	}

	limiter := rate.NewLimiter(rate.Limit(requestsPerSecond), 1)

	inserted := 0
	for start := 0; start < len(chunks); start += batchSize {
		end := min(start+batchSize, len(chunks))
		batch := chunks[start:end]

		if err := limiter.Wait(ctx); err != nil {
			slog.Error("Rate limiter interrupted", "err", err)
			os.Exit(1)
		}

		if err := insertBatch(ctx, milvus, embedder, cfg.Milvus.Collection, batch); err != nil {
			slog.Error("Failed to insert batch", "start", start, "err", err)
			os.Exit(1)
		}
		inserted += len(batch)
		slog.Info("Inserted batch", "done", inserted, "total", len(chunks))
	}

	slog.Info("Seeding complete", "chunks", inserted)

	verify(ctx, milvus, embedder, cfg.Milvus.Collection)
}

// verify runs one test search against the freshly seeded collection so an
// empty or misconfigured index shows up right away.
func verify(ctx context.Context, milvus *milvusclient.Client, embedder embeddings.Embedder, collection string) {
	vector, err := embedder.EmbedQuery(ctx, "typical brazilian mango")
	if err != nil {
		slog.Error("Verification embed failed", "err", err)
		return
	}

	resultSets, err := milvus.Search(ctx, milvusclient.NewSearchOption(collection, 3, []entity.Vector{
		entity.FloatVector(vector),
	}).
		WithANNSField("vector").
		WithOutputFields("source"))
	if err != nil {
		slog.Error("Verification query failed", "err", err)
		return
	}

	for _, rs := range resultSets {
		if rs.ResultCount == 0 {
			slog.Warn("Verification query returned no results")
			continue
		}
		source := "unknown"
		if col := rs.GetColumn("source"); col != nil {
			if val, err := col.GetAsString(0); err == nil && val != "" {
				source = val
			}
		}
		slog.Info("Verification query succeeded",
			"results", rs.ResultCount,
			"top_score", rs.Scores[0],
			"source", source)
	}
}

func loadChunks(dir string) ([]knowledge.Chunk, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var chunks []knowledge.Chunk
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, knowledge.SplitMarkdown(string(content), entry.Name())...)
	}
	return chunks, nil
}

func newEmbedder(cfg *config.Config) (embeddings.Embedder, error) {
	client, err := openai.New(
		openai.WithEmbeddingModel(cfg.Model.EmbeddingModel),
		openai.WithToken(cfg.Model.APIKey),
		openai.WithBaseURL(cfg.Model.BaseURL),
		openai.WithHTTPClient(utils.NewHTTPClient(
			utils.WithTimeout(60*time.Second),
		)),
	)
	if err != nil {
		return nil, err
	}

	return embeddings.NewEmbedder(client,
		embeddings.WithBatchSize(batchSize),
		embeddings.WithStripNewLines(false),
	)
}

func insertBatch(ctx context.Context, milvus *milvusclient.Client, embedder embeddings.Embedder, collection string, batch []knowledge.Chunk) error {
	texts := make([]string, len(batch))
	for i, chunk := range batch {
		texts[i] = chunk.Content
	}

	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return err
	}

	ids := make([]string, len(batch))
	sources := make([]string, len(batch))
	sourceURLs := make([]string, len(batch))
	categories := make([]string, len(batch))
	dataDates := make([]string, len(batch))
	for i, chunk := range batch {
		ids[i] = chunk.ID
		sources[i] = chunk.Source
		sourceURLs[i] = chunk.SourceURL
		categories[i] = chunk.Category
		dataDates[i] = chunk.DataDate
	}

	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}

	return retry.Do(
		func() error {
			_, err := milvus.Insert(ctx, milvusclient.NewColumnBasedInsertOption(collection).
				WithColumns(
					column.NewColumnVarChar("id", ids),
					column.NewColumnFloatVector("vector", dim, vectors),
					column.NewColumnVarChar("text", texts),
					column.NewColumnVarChar("source", sources),
					column.NewColumnVarChar("source_url", sourceURLs),
					column.NewColumnVarChar("category", categories),
					column.NewColumnVarChar("data_date", dataDates),
				))
			return err
		},
		retry.Attempts(insertAttempts),
		retry.Context(ctx),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			slog.Warn("Retrying batch insert", "attempt", n+1, "err", err)
		}),
	)
}
