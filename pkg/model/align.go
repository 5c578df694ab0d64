package model

const (
	MatchScore    = 100
	MismatchScore = -1
	GapScore      = -1
	EndGapScore   = 0
)

// compareFamilies scores one aligned column. Untagged carries no homology
// signal, so it never matches, not even another Untagged.
func compareFamilies(a, b FamilyID) int {
	if a == b && a.Tagged() {
		return MatchScore
	}
	return MismatchScore
}

// ScoreFamilies globally aligns two family sequences and returns the
// bottom-right cell of the score matrix. The first row and column cost
// EndGapScore, so leading indels are free.
func ScoreFamilies(a, b []FamilyID) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	// Two rolling rows of the (len(a)+1) x (len(b)+1) matrix.
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for c := 1; c <= len(b); c++ {
		prev[c] = prev[c-1] + EndGapScore
	}

	for r := 1; r <= len(a); r++ {
		curr[0] = prev[0] + EndGapScore
		for c := 1; c <= len(b); c++ {
			diag := prev[c-1] + compareFamilies(a[r-1], b[c-1])
			left := curr[c-1] + GapScore
			up := prev[c] + GapScore
			curr[c] = max(diag, left, up)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
