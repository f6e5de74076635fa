package constants

// Similarity levels used to label reported pairs.
const (
	// DuplicateThreshold marks pairs that are copies apart from trivial edits
	DuplicateThreshold = 0.95

	// NearDuplicateThreshold marks pairs sharing most of their content
	NearDuplicateThreshold = 0.80

	// SimilarThreshold marks pairs with substantial overlap
	SimilarThreshold = 0.50
)

// SimilarityLevel is a coarse label for a similarity score
type SimilarityLevel string

const (
	LevelDuplicate     SimilarityLevel = "duplicate"
	LevelNearDuplicate SimilarityLevel = "near-duplicate"
	LevelSimilar       SimilarityLevel = "similar"
	LevelWeak          SimilarityLevel = "weak"
)

// ClassifySimilarity maps a score in [0, 1] to its level
func ClassifySimilarity(score float64) SimilarityLevel {
	switch {
	case score >= DuplicateThreshold:
		return LevelDuplicate
	case score >= NearDuplicateThreshold:
		return LevelNearDuplicate
	case score >= SimilarThreshold:
		return LevelSimilar
	default:
		return LevelWeak
	}
}
