package par

// Owner maps a linear pair index onto the rank that computes it. The rule is
// a pure round-robin: rank k%size owns index k. Ownership is total (every
// index has exactly one owner) and requires no communication to evaluate, so
// any rank can test any index in O(1).
func Owner(index, size int) int {
	if size <= 1 {
		return 0
	}
	return index % size
}
