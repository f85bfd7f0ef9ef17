package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	defaultImageCount = 3
	maxImageCount     = 5

	// imageQuery is intentionally generic; the provider handles relevance.
	imageQuery = "mangoes fresh fruit"
)

// excludedFruits filters off-topic provider results by alt text.
var excludedFruits = []string{
	"jackfruit",
	"passion fruit",
	"papaya",
	"pineapple",
	"durian",
	"banana",
	"coconut",
	"avocado",
}

type imagesArgs struct {
	Count int `json:"count"`
}

type ImageCredit struct {
	Name string `json:"name"`
	Link string `json:"link"`
}

type ImageEntry struct {
	URL       string      `json:"url"`
	Thumbnail string      `json:"thumbnail"`
	Alt       string      `json:"alt"`
	Credit    ImageCredit `json:"credit"`
}

type ImagesResult struct {
	Success bool         `json:"success"`
	Images  []ImageEntry `json:"images"`
}

func (ImagesResult) SourceURLs() []string { return nil }

// ImagesTool fetches mango images for display in the chat.
type ImagesTool struct {
	provider ImageProvider
}

func NewImagesTool(provider ImageProvider) *ImagesTool {
	return &ImagesTool{provider: provider}
}

func (t *ImagesTool) Name() string { return "getMangoImages" }

func (t *ImagesTool) Description() string {
	return "Call this when the user asks to see, show, or get images, pictures, or photos of mangos. " +
		"Returns mango images that are displayed in the chat. Use generic mango search only."
}

func (t *ImagesTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"count": map[string]any{
				"type":        "integer",
				"minimum":     1,
				"maximum":     maxImageCount,
				"default":     defaultImageCount,
				"description": "Number of images to return",
			},
		},
	}
}

func (t *ImagesTool) Call(ctx context.Context, args json.RawMessage) (Result, error) {
	input := imagesArgs{Count: defaultImageCount}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &input); err != nil {
			return nil, fmt.Errorf("invalid getMangoImages arguments: %w", err)
		}
	}
	if input.Count == 0 {
		input.Count = defaultImageCount
	}
	if input.Count < 1 || input.Count > maxImageCount {
		return nil, fmt.Errorf("getMangoImages count must be between 1 and %d", maxImageCount)
	}

	images := t.provider.GetImages(ctx, imageQuery, input.Count)

	result := ImagesResult{Success: true, Images: []ImageEntry{}}
	for _, img := range images {
		if isExcludedAlt(img.AltDescription) {
			continue
		}

		alt := img.AltDescription
		if alt == "" {
			alt = "Fresh mango"
		}

		result.Images = append(result.Images, ImageEntry{
			URL:       img.URLs.Regular,
			Thumbnail: img.URLs.Thumb,
			Alt:       alt,
			Credit: ImageCredit{
				Name: img.User.Name,
				Link: img.User.Links.HTML,
			},
		})
	}

	return result, nil
}

func isExcludedAlt(alt string) bool {
	alt = strings.ToLower(alt)
	for _, fruit := range excludedFruits {
		if strings.Contains(alt, fruit) {
			return true
		}
	}
	return false
}
