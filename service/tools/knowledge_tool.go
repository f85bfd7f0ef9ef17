package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"mango-chat-backend/model"
	"mango-chat-backend/service/knowledge"
)

const (
	confidenceHigh   = "HIGH"
	confidenceMedium = "MEDIUM"
	confidenceLow    = "LOW"

	highScoreThreshold   = 0.8
	mediumScoreThreshold = 0.5
)

type knowledgeArgs struct {
	Query    string `json:"query"`
	Category string `json:"category,omitempty"`
}

type KnowledgeEntry struct {
	Content    string  `json:"content"`
	Source     string  `json:"source"`
	SourceURL  string  `json:"sourceUrl,omitempty"`
	Confidence string  `json:"confidence"`
	Score      float64 `json:"score"`
	DataDate   string  `json:"dataDate"`
}

type KnowledgeResult struct {
	Success      bool             `json:"success"`
	Results      []KnowledgeEntry `json:"results"`
	TotalResults int              `json:"totalResults"`
}

func (r KnowledgeResult) SourceURLs() []string {
	var urls []string
	for _, entry := range r.Results {
		if entry.SourceURL != "" {
			urls = append(urls, entry.SourceURL)
		}
	}
	return urls
}

// KnowledgeTool searches the mango knowledge base and maps relevance scores
// to coarse confidence labels for model consumption.
type KnowledgeTool struct {
	searcher Searcher
}

func NewKnowledgeTool(searcher Searcher) *KnowledgeTool {
	return &KnowledgeTool{searcher: searcher}
}

func (t *KnowledgeTool) Name() string { return "searchKnowledge" }

func (t *KnowledgeTool) Description() string {
	return "Search the Brazilian mango knowledge base for factual information. " +
		"Use this for any factual question about mangos, varieties, nutrition, seasons, exports, etc."
}

func (t *KnowledgeTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query - be specific about what information you need",
			},
			"category": map[string]any{
				"type":        "string",
				"enum":        model.KnowledgeCategories,
				"description": "Optional category to narrow down the search",
			},
		},
		"required": []string{"query"},
	}
}

func (t *KnowledgeTool) Call(ctx context.Context, args json.RawMessage) (Result, error) {
	var input knowledgeArgs
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, fmt.Errorf("invalid searchKnowledge arguments: %w", err)
	}
	if input.Query == "" {
		return nil, fmt.Errorf("searchKnowledge requires a query")
	}

	snippets := t.searcher.Search(ctx, input.Query, knowledge.SearchOptions{
		Category: input.Category,
	})

	result := KnowledgeResult{
		Success:      true,
		Results:      make([]KnowledgeEntry, 0, len(snippets)),
		TotalResults: len(snippets),
	}
	for _, s := range snippets {
		result.Results = append(result.Results, KnowledgeEntry{
			Content:    s.Content,
			Source:     s.Source,
			SourceURL:  s.SourceURL,
			Confidence: ConfidenceLabel(s.Score),
			Score:      s.Score,
			DataDate:   dataDateOrDefault(s.DataDate),
		})
	}

	return result, nil
}

// ConfidenceLabel maps a relevance score to the coarse label the model sees.
func ConfidenceLabel(score float64) string {
	switch {
	case score >= highScoreThreshold:
		return confidenceHigh
	case score >= mediumScoreThreshold:
		return confidenceMedium
	default:
		return confidenceLow
	}
}

func dataDateOrDefault(dataDate string) string {
	if dataDate == "" {
		return "2024"
	}
	return dataDate
}
