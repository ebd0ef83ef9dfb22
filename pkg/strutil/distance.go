package strutil

// EditDistance returns the Levenshtein distance between two strings, measured
// in codepoints.
func EditDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i, ca := range ra {
		cur[0] = i + 1
		for j, cb := range rb {
			cost := 1
			if ca == cb {
				cost = 0
			}
			cur[j+1] = min(cur[j]+1, prev[j+1]+1, prev[j]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

// Nearest returns the candidate closest to s in edit distance, if one is
// close enough to pass for a misspelling of it. Candidates further away
// than a third of the length of s, rounded up and at least 1, do not count.
func Nearest(s string, candidates []string) (string, bool) {
	maxDist := max(1, (len(s)+2)/3)
	best, bestDist := "", maxDist+1
	for _, c := range candidates {
		if d := EditDistance(s, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, bestDist <= maxDist
}
