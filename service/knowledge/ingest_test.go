package knowledge

import (
	"strings"
	"testing"
)

const varietiesDoc = `# Brazilian Mango Varieties

Data Date: 2023-2024
Source URL: https://www.embrapa.br/mango-varieties

## Tommy Atkins

Tommy Atkins is the dominant export variety, prized for shelf life and
its red blush, though the flesh is fibrous compared with newer cultivars.

## Palmer

Palmer is a large, low-fiber variety with deep orange flesh, harvested
mainly in the Sao Francisco valley between October and December.
`

func TestSplitMarkdown_HeadingChunks(t *testing.T) {
	chunks := SplitMarkdown(varietiesDoc, "varieties.md")

	// Preamble under the document heading, then one chunk per section.
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}

	if chunks[0].ID != "varieties-0" || chunks[2].ID != "varieties-2" {
		t.Fatalf("unexpected chunk ids %q, %q", chunks[0].ID, chunks[2].ID)
	}
	if !strings.HasPrefix(chunks[0].Content, "# Brazilian Mango Varieties") {
		t.Fatalf("preamble chunk should start at the document heading, got %q", chunks[0].Content)
	}
	if !strings.HasPrefix(chunks[1].Content, "## Tommy Atkins") {
		t.Fatalf("section chunk should start at its heading, got %q", chunks[1].Content)
	}
	if !strings.Contains(chunks[2].Content, "Sao Francisco valley") {
		t.Fatalf("last chunk lost its body: %q", chunks[2].Content)
	}

	for _, chunk := range chunks {
		if chunk.Category != "varieties" {
			t.Fatalf("category should derive from filename, got %q", chunk.Category)
		}
		if chunk.Source != "varieties.md" {
			t.Fatalf("unexpected source %q", chunk.Source)
		}
		if chunk.DataDate != "2023-2024" {
			t.Fatalf("data date should come from the document token, got %q", chunk.DataDate)
		}
		if chunk.SourceURL != "https://www.embrapa.br/mango-varieties" {
			t.Fatalf("source url should come from the document token, got %q", chunk.SourceURL)
		}
	}
}

func TestSplitMarkdown_Defaults(t *testing.T) {
	doc := "# Nutrition\n\n## Vitamins\n\nMangoes are rich in vitamin C and vitamin A, with one cup covering most daily needs.\n"
	chunks := SplitMarkdown(doc, "nutrition.md")

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].DataDate != "2024" {
		t.Fatalf("missing data date should default to 2024, got %q", chunks[0].DataDate)
	}
	if chunks[0].SourceURL != "" {
		t.Fatalf("missing source url should stay empty, got %q", chunks[0].SourceURL)
	}
}

func TestSplitMarkdown_DropsShortChunks(t *testing.T) {
	doc := "# Seasons\n\n## Empty\n\nshort\n\n## Real\n\nThe harvest in the Sao Francisco valley runs from October through March every year.\n"
	chunks := SplitMarkdown(doc, "seasons.md")

	if len(chunks) != 1 {
		t.Fatalf("short sections must be dropped, got %d chunks", len(chunks))
	}
	if !strings.Contains(chunks[0].Content, "October through March") {
		t.Fatalf("kept the wrong chunk: %q", chunks[0].Content)
	}
}

func TestSplitMarkdown_NoHeadings(t *testing.T) {
	if chunks := SplitMarkdown("just some loose text without any headings at all", "general.md"); len(chunks) != 0 {
		t.Fatalf("content without headings yields no chunks, got %d", len(chunks))
	}
}
