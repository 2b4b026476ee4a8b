package similarity

// Distance returns the number of single-element insertions, deletions and
// substitutions needed to turn a into b. Elements are compared with ==.
//
// Only two rows of the (len(a)+1) x (len(b)+1) table are kept, so memory is
// O(len(b)) while the result is identical to the full-table computation.
func Distance[T comparable](a, b []T) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	// Row 0: turning an empty prefix of a into b[:j] costs j insertions
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1]
				continue
			}
			curr[j] = 1 + min(curr[j-1], prev[j], prev[j-1])
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
