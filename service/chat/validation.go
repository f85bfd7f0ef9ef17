package chat

import (
	"log/slog"
	"regexp"
	"strings"

	"mango-chat-backend/service/tools"
)

// urlRegexp matches URLs inside markdown links and plain text.
var urlRegexp = regexp.MustCompile(`https?://[^\s)>\]"']+`)

type ValidationResult struct {
	Valid       bool     `json:"valid"`
	CitedURLs   []string `json:"cited_urls"`
	KnownURLs   []string `json:"known_urls"`
	UnknownURLs []string `json:"unknown_urls"`
}

// ExtractURLs returns the deduplicated URLs cited in text, with trailing
// punctuation stripped.
func ExtractURLs(text string) []string {
	matches := urlRegexp.FindAllString(text, -1)
	if matches == nil {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	var urls []string
	for _, match := range matches {
		url := strings.TrimRight(match, ".,;:!?)")
		if url == "" || seen[url] {
			continue
		}
		seen[url] = true
		urls = append(urls, url)
	}
	return urls
}

// ValidateCitations checks that every URL cited in the response text appeared
// verbatim in some tool result's source-URL field. Advisory only: the result
// never blocks or alters the response.
func ValidateCitations(responseText string, toolResults []tools.Result) ValidationResult {
	citedURLs := ExtractURLs(responseText)

	known := make(map[string]bool)
	var knownURLs []string
	for _, result := range toolResults {
		if result == nil {
			continue
		}
		for _, url := range result.SourceURLs() {
			if url == "" || known[url] {
				continue
			}
			known[url] = true
			knownURLs = append(knownURLs, url)
		}
	}

	var unknownURLs []string
	for _, url := range citedURLs {
		if !known[url] {
			unknownURLs = append(unknownURLs, url)
		}
	}

	return ValidationResult{
		Valid:       len(unknownURLs) == 0,
		CitedURLs:   citedURLs,
		KnownURLs:   knownURLs,
		UnknownURLs: unknownURLs,
	}
}

// LogCitationWarnings surfaces hallucinated citations to operators.
func LogCitationWarnings(result ValidationResult, sessionID string) {
	if result.Valid {
		return
	}
	slog.Warn("Response cites URLs not present in any tool result",
		"session_id", sessionID,
		"unknown_urls", result.UnknownURLs,
		"known_urls", result.KnownURLs,
	)
}
