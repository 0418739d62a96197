package content

import (
	"fmt"

	"github.com/gwsynth/gwsynth/pkg/ids"
)

// BuildPrompt renders the generation prompt for a document. The prompt text
// participates in the cache key, so wording changes must be accompanied by
// a prompt_version bump in the blueprint to force regeneration.
func BuildPrompt(req Request) string {
	return fmt.Sprintf(
		"Write a realistic internal %q document titled %q for the %s department of %s. "+
			"Return a title, a one-paragraph summary, 2-4 sections with headings, short paragraphs "+
			"and bullet lists, and a metadata footer. The content is synthetic test data for run %s.",
		req.Archetype, req.TitleHint, req.Department, req.Company, req.RunName,
	)
}

// CacheKey derives the cache lookup key for a generation request. All
// generation parameters participate so any change invalidates the entry.
func CacheKey(model string, temperature float64, promptVersion, stableID, prompt string) string {
	return ids.SHA256Hex(fmt.Sprintf("%s|%.3f|%s|%s|%s", model, temperature, promptVersion, stableID, prompt))
}
