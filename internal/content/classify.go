package content

import (
	"strings"

	"ChannelPublisher/internal/domain"
)

var categoryMarkers = []struct {
	category domain.Category
	words    []string
}{
	{domain.CategoryBreaking, []string{"break", "urgent", "alert"}},
	{domain.CategoryAnalysis, []string{"analysis", "research"}},
	{domain.CategoryWarning, []string{"exploit", "hack", "warning"}},
}

// Classify picks a category from substrings of the original, untranslated title.
// Markers are checked in order; the first group with a hit wins.
func Classify(title string) domain.Category {
	lower := strings.ToLower(title)
	for _, marker := range categoryMarkers {
		for _, word := range marker.words {
			if strings.Contains(lower, word) {
				return marker.category
			}
		}
	}
	return domain.CategoryRegular
}
