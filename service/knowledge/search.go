package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/milvusclient"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"mango-chat-backend/config"
	"mango-chat-backend/model"
	"mango-chat-backend/utils"
)

const (
	// DefaultLimit is the maximum number of snippets one search returns.
	DefaultLimit = 5

	// DefaultMinScore filters out low-relevance matches.
	DefaultMinScore = 0.01

	embeddingBatchSize = 10
)

type SearchOptions struct {
	Category model.KnowledgeCategory
	Limit    int
	MinScore float64
}

// Service runs similarity queries against the Milvus knowledge collection.
type Service struct {
	milvus     *milvusclient.Client
	embedder   embeddings.Embedder
	collection string
}

func NewService(ctx context.Context, cfg *config.Config) (*Service, error) {
	client, err := openai.New(
		openai.WithEmbeddingModel(cfg.Model.EmbeddingModel),
		openai.WithToken(cfg.Model.APIKey),
		openai.WithBaseURL(cfg.Model.BaseURL),
		openai.WithHTTPClient(utils.NewHTTPClient(
			utils.WithTimeout(60*time.Second),
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client,
		embeddings.WithBatchSize(embeddingBatchSize),
		embeddings.WithStripNewLines(false),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	milvus, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address: cfg.Milvus.Endpoint,
		APIKey:  cfg.Milvus.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client: %w", err)
	}

	return &Service{
		milvus:     milvus,
		embedder:   embedder,
		collection: cfg.Milvus.Collection,
	}, nil
}

// Search returns snippets ordered by descending relevance score. Every
// failure path degrades to an empty result: callers must treat "no results"
// as a normal outcome, never a system fault to surface.
func (s *Service) Search(ctx context.Context, query string, opts SearchOptions) []model.KnowledgeSnippet {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	minScore := opts.MinScore
	if minScore <= 0 {
		minScore = DefaultMinScore
	}

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		slog.Error("Failed to embed search query", "query", query, "err", err)
		return nil
	}

	searchOpt := milvusclient.NewSearchOption(s.collection, limit, []entity.Vector{
		entity.FloatVector(vector),
	}).
		WithANNSField("vector").
		WithOutputFields("text", "source", "source_url", "category", "data_date")

	if category := NormalizeCategory(opts.Category); category != "" {
		searchOpt = searchOpt.WithFilter(fmt.Sprintf("category == %q", category))
	}

	resultSets, err := s.milvus.Search(ctx, searchOpt)
	if err != nil {
		slog.Error("Knowledge search failed", "query", query, "err", err)
		return nil
	}

	var snippets []model.KnowledgeSnippet
	for _, rs := range resultSets {
		for i := 0; i < rs.ResultCount; i++ {
			snippet := model.KnowledgeSnippet{
				Score: float64(rs.Scores[i]),
			}
			snippet.Content = columnString(rs, "text", i)
			snippet.Source = columnString(rs, "source", i)
			snippet.SourceURL = columnString(rs, "source_url", i)
			snippet.Category = columnString(rs, "category", i)
			snippet.DataDate = columnString(rs, "data_date", i)
			if snippet.Source == "" {
				snippet.Source = "unknown"
			}
			if snippet.Category == "" {
				snippet.Category = model.CategoryGeneral
			}
			snippets = append(snippets, snippet)
		}
	}

	return RankSnippets(snippets, minScore)
}

func columnString(rs milvusclient.ResultSet, name string, idx int) string {
	col := rs.GetColumn(name)
	if col == nil {
		return ""
	}
	val, err := col.GetAsString(idx)
	if err != nil {
		return ""
	}
	return val
}

// NormalizeCategory returns the category when it is a member of the fixed
// allowed set, otherwise empty (no filter applied).
func NormalizeCategory(category model.KnowledgeCategory) model.KnowledgeCategory {
	for _, allowed := range model.KnowledgeCategories {
		if category == allowed {
			return category
		}
	}
	return ""
}

// RankSnippets drops snippets below minScore and sorts the remainder by
// descending score.
func RankSnippets(snippets []model.KnowledgeSnippet, minScore float64) []model.KnowledgeSnippet {
	filtered := make([]model.KnowledgeSnippet, 0, len(snippets))
	for _, s := range snippets {
		if s.Score >= minScore {
			filtered = append(filtered, s)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Score > filtered[j].Score
	})
	if len(filtered) == 0 {
		return nil
	}
	return filtered
}
