package domain

import (
	"testing"
)

// TestDefaultValueConsistency ensures all default values are properly defined
// and maintain expected relationships
func TestDefaultValueConsistency(t *testing.T) {
	t.Run("Threshold is within the open unit interval", func(t *testing.T) {
		if DefaultSimilarityThreshold <= 0.0 || DefaultSimilarityThreshold >= 1.0 {
			t.Errorf("DefaultSimilarityThreshold (%.2f) is outside (0.0, 1.0)", DefaultSimilarityThreshold)
		}
	})

	t.Run("Bucket bits are within bounds", func(t *testing.T) {
		if MinBucketBits >= MaxBucketBits {
			t.Errorf("MinBucketBits (%d) should be < MaxBucketBits (%d)", MinBucketBits, MaxBucketBits)
		}
		if DefaultBucketBits < MinBucketBits || DefaultBucketBits > MaxBucketBits {
			t.Errorf("DefaultBucketBits (%d) is outside [%d, %d]", DefaultBucketBits, MinBucketBits, MaxBucketBits)
		}
	})

	t.Run("Default bucket space fits the slot cap", func(t *testing.T) {
		if int64(1)<<DefaultBucketBits > DefaultMaxBucketSlots {
			t.Errorf("2^%d bucket slots exceed DefaultMaxBucketSlots (%d)", DefaultBucketBits, DefaultMaxBucketSlots)
		}
	})

	t.Run("Default signature matrix fits the cell cap", func(t *testing.T) {
		if DefaultMaxMatrixCells < int64(DefaultNumHashes) {
			t.Errorf("DefaultMaxMatrixCells (%d) cannot hold a single document", DefaultMaxMatrixCells)
		}
	})

	t.Run("Positive sizes", func(t *testing.T) {
		if DefaultNumHashes <= 0 {
			t.Errorf("DefaultNumHashes should be positive, got %d", DefaultNumHashes)
		}
		if DefaultShingleSize <= 0 {
			t.Errorf("DefaultShingleSize should be positive, got %d", DefaultShingleSize)
		}
		if DefaultMaxFileSizeBytes <= 0 {
			t.Errorf("DefaultMaxFileSizeBytes should be positive, got %d", DefaultMaxFileSizeBytes)
		}
	})

	t.Run("Include patterns are set", func(t *testing.T) {
		if len(DefaultIncludePatterns) == 0 {
			t.Error("DefaultIncludePatterns should not be empty")
		}
	})
}
