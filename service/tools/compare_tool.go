package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"mango-chat-backend/model"
	"mango-chat-backend/service/knowledge"
)

const (
	minCompareVarieties = 2
	maxCompareVarieties = 4

	noVarietyData = "No data found for this variety"
)

type compareArgs struct {
	Varieties []string `json:"varieties"`
}

type ComparisonEntry struct {
	Variety   string `json:"variety"`
	Info      string `json:"info"`
	Source    string `json:"source,omitempty"`
	SourceURL string `json:"sourceUrl,omitempty"`
}

type CompareResult struct {
	Success     bool              `json:"success"`
	Comparisons []ComparisonEntry `json:"comparisons"`
}

func (r CompareResult) SourceURLs() []string {
	var urls []string
	for _, c := range r.Comparisons {
		if c.SourceURL != "" {
			urls = append(urls, c.SourceURL)
		}
	}
	return urls
}

// CompareTool runs one knowledge search per variety and returns one
// comparison entry per input, preserving input order. Per-variety searches
// are independent and run concurrently.
type CompareTool struct {
	searcher Searcher
}

func NewCompareTool(searcher Searcher) *CompareTool {
	return &CompareTool{searcher: searcher}
}

func (t *CompareTool) Name() string { return "compareVarieties" }

func (t *CompareTool) Description() string {
	return "Compare two or more Brazilian mango varieties. Use when user asks to compare mangos."
}

func (t *CompareTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"varieties": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"minItems":    minCompareVarieties,
				"maxItems":    maxCompareVarieties,
				"description": "List of mango varieties to compare",
			},
		},
		"required": []string{"varieties"},
	}
}

func (t *CompareTool) Call(ctx context.Context, args json.RawMessage) (Result, error) {
	var input compareArgs
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, fmt.Errorf("invalid compareVarieties arguments: %w", err)
	}
	if len(input.Varieties) < minCompareVarieties || len(input.Varieties) > maxCompareVarieties {
		return nil, fmt.Errorf("compareVarieties requires between %d and %d varieties",
			minCompareVarieties, maxCompareVarieties)
	}

	comparisons := make([]ComparisonEntry, len(input.Varieties))

	var wg sync.WaitGroup
	for i, variety := range input.Varieties {
		wg.Add(1)
		go func(i int, variety string) {
			defer wg.Done()

			snippets := t.searcher.Search(ctx, variety+" mango characteristics", knowledge.SearchOptions{
				Category: model.CategoryVarieties,
			})

			entry := ComparisonEntry{Variety: variety, Info: noVarietyData}
			if len(snippets) > 0 {
				entry.Info = snippets[0].Content
				entry.Source = snippets[0].Source
				entry.SourceURL = snippets[0].SourceURL
			}
			comparisons[i] = entry
		}(i, variety)
	}
	wg.Wait()

	return CompareResult{Success: true, Comparisons: comparisons}, nil
}
