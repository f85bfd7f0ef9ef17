package knowledge

import (
	"fmt"
	"regexp"
	"strings"
)

// minChunkLength drops fragments that are too small to be useful retrieval
// units (stray headings, blank sections).
const minChunkLength = 50

var (
	dataDateRegexp  = regexp.MustCompile(`Data Date:\s*(\d{4}(?:-\d{4})?)`)
	sourceURLRegexp = regexp.MustCompile(`Source URL:\s*(https?://\S+)`)
)

// Chunk is one unit of knowledge content ready for embedding and upload.
type Chunk struct {
	ID        string
	Content   string
	Source    string
	SourceURL string
	Category  string
	DataDate  string
}

// SplitMarkdown splits a markdown document into chunks at "## " heading
// boundaries. The category derives from the source filename; a document-wide
// "Data Date:" token (default "2024") and "Source URL:" token (default
// empty) tag every chunk.
func SplitMarkdown(content, source string) []Chunk {
	category := strings.TrimSuffix(source, ".md")

	dataDate := "2024"
	if m := dataDateRegexp.FindStringSubmatch(content); m != nil {
		dataDate = m[1]
	}

	sourceURL := ""
	if m := sourceURLRegexp.FindStringSubmatch(content); m != nil {
		sourceURL = m[1]
	}

	var chunks []Chunk
	chunkIndex := 0

	appendChunk := func(lines []string) {
		chunkContent := strings.TrimSpace(strings.Join(lines, "\n"))
		if len(chunkContent) <= minChunkLength {
			return
		}
		chunks = append(chunks, Chunk{
			ID:        fmt.Sprintf("%s-%d", category, chunkIndex),
			Content:   chunkContent,
			Source:    source,
			SourceURL: sourceURL,
			Category:  category,
			DataDate:  dataDate,
		})
		chunkIndex++
	}

	var currentHeading string
	var currentLines []string

	for _, line := range strings.Split(content, "\n") {
		switch {
		case strings.HasPrefix(line, "## "):
			if len(currentLines) > 0 && currentHeading != "" {
				appendChunk(currentLines)
			}
			currentHeading = strings.TrimSpace(strings.TrimPrefix(line, "## "))
			currentLines = []string{line}
		case strings.HasPrefix(line, "# "):
			// Document heading: starts a fresh context block.
			currentHeading = strings.TrimSpace(strings.TrimPrefix(line, "# "))
			currentLines = []string{line}
		default:
			currentLines = append(currentLines, line)
		}
	}

	if len(currentLines) > 0 && currentHeading != "" {
		appendChunk(currentLines)
	}

	return chunks
}
