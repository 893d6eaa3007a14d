package grammar

// maxSuggestDistance bounds how far a misspelt reference may be from a
// defined symbol to be suggested.
const maxSuggestDistance = 2

// closestSymbol returns the defined symbol nearest to ref by edit distance.
// Ties go to the earlier symbol in order.
func closestSymbol(ref Symbol, order []Symbol) (Symbol, bool) {
	best, bestDist := Symbol(""), maxSuggestDistance+1
	for _, sym := range order {
		if d := editDistance([]rune(string(ref)), []rune(string(sym))); d < bestDist {
			best, bestDist = sym, d
		}
	}
	return best, best != ""
}

// editDistance is the Levenshtein distance between a and b.
func editDistance(a, b []rune) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
