package domain

// Default signature and banding parameters.
const (
	// DefaultNumHashes is the signature length F.
	DefaultNumHashes = 128

	// DefaultSimilarityThreshold is the Jaccard similarity the banding S-curve is tuned to.
	DefaultSimilarityThreshold = 0.5

	// DefaultSeed drives hash family generation. Same seed, same results.
	DefaultSeed uint64 = 0x5eed1234cafebabe

	// DefaultShingleSize is the k in character k-grams.
	DefaultShingleSize = 5

	// DefaultBucketBits sets the bucket index space of each band to 2^20 slots.
	// Reduction collisions only add false positives.
	DefaultBucketBits = 20

	// MinBucketBits and MaxBucketBits bound the configurable bucket index width.
	MinBucketBits = 8
	MaxBucketBits = 32
)

// Default resource limits.
const (
	// DefaultMaxMatrixCells caps F x D (8 bytes per cell, 1 GiB).
	DefaultMaxMatrixCells int64 = 1 << 27

	// DefaultMaxBucketSlots caps 2^BucketBits.
	DefaultMaxBucketSlots int64 = 1 << 24

	// DefaultMaxFileSizeBytes skips documents larger than 16 MiB.
	DefaultMaxFileSizeBytes int64 = 16 << 20
)

// Default input patterns.
var (
	DefaultIncludePatterns = []string{"**/*.txt", "**/*.md"}
	DefaultExcludePatterns = []string{}
)
