package scout

import (
	"strings"
)

// Phrase tables used to tag raw post text with intent markers before it is
// normalized into a signal.
var (
	buyingSignalPhrases = []string{
		"looking for",
		"need help with",
		"anyone know",
		"recommendation",
		"suggest",
		"best way to",
		"how do i",
		"where can i find",
		"does anyone have",
		"willing to pay",
		"budget",
		"worth buying",
		"is there a",
		"template for",
		"guide for",
		"resource for",
		"tool for",
		"prompt for",
		"checklist for",
	}

	painPointPhrases = []string{
		"struggling with",
		"frustrated",
		"can't figure out",
		"wasting time",
		"taking forever",
		"so hard to",
		"impossible to",
		"hate having to",
		"wish there was",
		"if only",
		"pain point",
		"biggest challenge",
		"stuck on",
		"overwhelmed by",
	}
)

const maxIntentMarkers = 5

// extractIntent returns the buying-signal and pain-point phrases present in
// text, each capped at five markers.
func extractIntent(text string) (buying []string, pain []string) {
	lower := strings.ToLower(text)

	for _, phrase := range buyingSignalPhrases {
		if strings.Contains(lower, phrase) {
			buying = append(buying, phrase)
			if len(buying) == maxIntentMarkers {
				break
			}
		}
	}
	for _, phrase := range painPointPhrases {
		if strings.Contains(lower, phrase) {
			pain = append(pain, phrase)
			if len(pain) == maxIntentMarkers {
				break
			}
		}
	}
	return buying, pain
}

// relevanceScore estimates how relevant a post is on a 0-1 scale from its
// intent markers and weighted engagement.
func relevanceScore(buying, pain []string, engagement int) float64 {
	score := 0.0

	if len(buying) > 0 {
		score += minFloat(float64(len(buying))*0.1, 0.4)
	}
	if len(pain) > 0 {
		score += minFloat(float64(len(pain))*0.1, 0.3)
	}

	switch {
	case engagement > 100:
		score += 0.2
	case engagement > 50:
		score += 0.15
	case engagement > 20:
		score += 0.1
	case engagement > 5:
		score += 0.05
	}

	return minFloat(score, 1.0)
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
