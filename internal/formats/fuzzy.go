// SPDX-License-Identifier: MIT

package formats

// SuggestDistance is the default edit distance for Suggest.
const SuggestDistance = 3

// Suggest returns the configured format closest to format within maxDist
// edits. Ties resolve to the alphabetically first candidate.
func (t *Table) Suggest(format string, maxDist int) (string, bool) {
	key := Key(format)

	best := ""
	bestDist := maxDist + 1
	for _, candidate := range t.Formats() {
		dist := levenshtein(key, Key(candidate))
		if dist < bestDist {
			bestDist = dist
			best = candidate
		}
	}

	if bestDist <= maxDist {
		return best, true
	}
	return "", false
}

// Suggestions pairs every missing format with its closest configured one.
func (t *Table) Suggestions(missing []string) map[string]string {
	out := make(map[string]string)
	for _, f := range missing {
		if s, ok := t.Suggest(f, SuggestDistance); ok {
			out[f] = s
		}
	}
	return out
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}
