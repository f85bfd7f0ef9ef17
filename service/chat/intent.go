package chat

import (
	"regexp"
	"strings"
)

// imageRequestPatterns covers explicit "show/get/send me mango image/photo"
// phrasings, including "manga" (Portuguese for mango) and singular
// "picture". The list is hand-tuned; extend it in place when new phrasings
// show up in logs.
var imageRequestPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(show|get|send|fetch)\s+(me\s+)?(a\s+)?(some\s+)?(mango|mangoes|manga|mangas|brazilian\s+mango)`),
	regexp.MustCompile(`(?i)\b(images?|pictures?|photos?)\s+(of|of\s+typical\s+)?(a\s+)?(brazilian\s+)?(mango|mangoes|manga|mangas|espada\s+manga?)`),
	regexp.MustCompile(`(?i)\b(mango|mangoes|manga|mangas)\s+(images?|pictures?|photos?)`),
	regexp.MustCompile(`(?i)\b(see|want\s+to\s+see)\s+(a\s+)?(some\s+)?(mango|mangoes|manga|mangas|images?|pictures?|photos?)`),
	regexp.MustCompile(`(?i)\b(show\s+me\s+)?(a\s+)?(images?|pictures?|photos?)\s+(of\s+)?(a\s+)?(typical\s+)?(brazilian\s+)?(mango|mangoes|manga|mangas|espada\s+manga?)`),
}

// WantsImages reports whether the user's message strongly signals an image
// request. Used by the orchestrator to force the image tool on step zero
// instead of trusting the model's own tool choice.
func WantsImages(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	for _, pattern := range imageRequestPatterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}
