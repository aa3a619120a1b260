package lyrics

import "strings"

// RankExactTitle moves results whose title equals title (trimmed, case
// insensitive) to the front. Relative order within each group is kept.
func RankExactTitle(results []Result, title string) []Result {
	want := normalizeTitle(title)
	ranked := make([]Result, 0, len(results))
	var others []Result
	for _, r := range results {
		if normalizeTitle(r.Title) == want {
			ranked = append(ranked, r)
		} else {
			others = append(others, r)
		}
	}
	return append(ranked, others...)
}

func normalizeTitle(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
