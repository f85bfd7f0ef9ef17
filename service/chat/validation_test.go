package chat

import (
	"reflect"
	"testing"

	"mango-chat-backend/service/tools"
)

func TestExtractURLs(t *testing.T) {
	text := "See [Embrapa](https://www.embrapa.br/mango) and https://abrafrutas.org/dados. " +
		"Also https://www.embrapa.br/mango again."

	got := ExtractURLs(text)
	want := []string{"https://www.embrapa.br/mango", "https://abrafrutas.org/dados"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractURLs = %v, want %v", got, want)
	}
}

func TestExtractURLs_TrailingPunctuation(t *testing.T) {
	got := ExtractURLs("sources: https://example.com/a, https://example.com/b.")
	want := []string{"https://example.com/a", "https://example.com/b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractURLs = %v, want %v", got, want)
	}
}

func TestExtractURLs_NoURLs(t *testing.T) {
	if got := ExtractURLs("mangoes are in season from October to March"); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestValidateCitations_AllKnown(t *testing.T) {
	results := []tools.Result{
		tools.KnowledgeResult{
			Success: true,
			Results: []tools.KnowledgeEntry{
				{Content: "Tommy Atkins is fibrous", SourceURL: "https://www.embrapa.br/mango"},
			},
		},
	}

	validation := ValidateCitations("Per [Embrapa](https://www.embrapa.br/mango), Tommy Atkins is fibrous.", results)
	if !validation.Valid {
		t.Fatalf("expected valid, got %+v", validation)
	}
	if len(validation.UnknownURLs) != 0 {
		t.Fatalf("expected no unknown URLs, got %v", validation.UnknownURLs)
	}
}

func TestValidateCitations_UnknownURL(t *testing.T) {
	results := []tools.Result{
		tools.KnowledgeResult{
			Success: true,
			Results: []tools.KnowledgeEntry{
				{Content: "export data", SourceURL: "https://abrafrutas.org/dados"},
			},
		},
	}

	validation := ValidateCitations("See https://made-up-source.example.com/mangoes for details.", results)
	if validation.Valid {
		t.Fatalf("expected invalid, got %+v", validation)
	}
	want := []string{"https://made-up-source.example.com/mangoes"}
	if !reflect.DeepEqual(validation.UnknownURLs, want) {
		t.Fatalf("UnknownURLs = %v, want %v", validation.UnknownURLs, want)
	}
}

func TestValidateCitations_NoCitations(t *testing.T) {
	validation := ValidateCitations("Mangoes are sweet.", nil)
	if !validation.Valid {
		t.Fatalf("a response with no URLs is always valid, got %+v", validation)
	}
}

func TestValidateCitations_ErrorResultsIgnored(t *testing.T) {
	results := []tools.Result{
		tools.NewErrorResult(assertError("search unavailable")),
	}
	validation := ValidateCitations("See https://www.embrapa.br/mango.", results)
	if validation.Valid {
		t.Fatalf("error results contribute no known URLs, got %+v", validation)
	}
}

type assertError string

func (e assertError) Error() string { return string(e) }
