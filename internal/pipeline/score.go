package pipeline

import (
	"strings"
	"unicode/utf8"
)

// NameScore sums the lengths, in characters, of the search-name words
// contained in candidate, case-insensitively.
func NameScore(search, candidate string) int {
	lower := strings.ToLower(candidate)
	score := 0
	for _, term := range strings.Fields(strings.ToLower(search)) {
		if strings.Contains(lower, term) {
			score += utf8.RuneCountInString(term)
		}
	}
	return score
}

// BestName picks the candidate with the highest NameScore. Ties keep the
// earlier candidate; with no candidates the search name is returned.
func BestName(search string, candidates []string) string {
	if len(candidates) == 0 {
		return search
	}
	best, bestScore := candidates[0], 0
	for _, c := range candidates {
		if s := NameScore(search, c); s > bestScore {
			best, bestScore = c, s
		}
	}
	return best
}
