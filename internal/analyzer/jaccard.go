package analyzer

// ExactJaccard computes |A ∩ B| / |A ∪ B|. An empty set is similar to
// nothing, including another empty set.
func ExactJaccard(a, b TokenSet) float64 {
	if a.IsEmpty() || b.IsEmpty() {
		return 0.0
	}
	inter := a.IntersectionSize(b)
	union := a.Len() + b.Len() - inter
	return float64(inter) / float64(union)
}

// CompareSignatures estimates Jaccard similarity as the fraction of rows on
// which two signatures agree. Rows where either side is Inf never agree, and
// signatures of different lengths compare as 0.
func CompareSignatures(sig1, sig2 []uint64) float64 {
	if len(sig1) == 0 || len(sig1) != len(sig2) {
		return 0.0
	}
	match := 0
	for i := range sig1 {
		if sig1[i] == sig2[i] && sig1[i] != Inf {
			match++
		}
	}
	return float64(match) / float64(len(sig1))
}
