package analyzer

import (
	"context"
	"encoding/binary"
	"fmt"
	"runtime"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/ludo-technologies/dupscan/domain"
)

// bandSeedSalt separates the bucket hash family from the signature family
// when both are generated from the same user seed.
const bandSeedSalt uint64 = 0xb5ad4eceda1ce2a9

// BandingConfig configures LSH banding
type BandingConfig struct {
	// BucketBits sets each band's bucket index space to 2^BucketBits slots.
	// Distinct band slices that land in the same slot become candidates, so a
	// narrower space only adds false positives, never false negatives.
	BucketBits int

	// Seed generates the per-band bucket hash functions
	Seed uint64

	// Workers bounds concurrently processed bands (default GOMAXPROCS)
	Workers int

	// MaxBucketSlots caps 2^BucketBits; 0 disables the check
	MaxBucketSlots int64
}

// BandingStats provides statistics about one banding run
type BandingStats struct {
	Bands         int     `json:"bands" yaml:"bands"`
	RowsPerBand   int     `json:"rows_per_band" yaml:"rows_per_band"`
	BucketBits    int     `json:"bucket_bits" yaml:"bucket_bits"`
	Buckets       int     `json:"buckets" yaml:"buckets"`               // occupied buckets over all bands
	MaxBucketSize int     `json:"max_bucket_size" yaml:"max_bucket_size"`
	AvgBucketSize float64 `json:"avg_bucket_size" yaml:"avg_bucket_size"`
	Collisions    int     `json:"collisions" yaml:"collisions"` // pairs emitted before deduplication
	Candidates    int     `json:"candidates" yaml:"candidates"`
	SkippedEmpty  int     `json:"skipped_empty" yaml:"skipped_empty"`
}

// Bander splits a signature matrix into bands and buckets each document's
// band slice to find collisions
type Bander struct {
	config BandingConfig
}

// NewBander creates a bander; a zero BucketBits uses the default
func NewBander(config BandingConfig) *Bander {
	if config.BucketBits == 0 {
		config.BucketBits = domain.DefaultBucketBits
	}
	return &Bander{config: config}
}

// BandAndBucket returns every pair of documents that share a bucket in at least one band
func (b *Bander) BandAndBucket(ctx context.Context, matrix *SignatureMatrix, rowsPerBand int) (*CandidatePairSet, error) {
	candidates, _, err := b.BandAndBucketWithStats(ctx, matrix, rowsPerBand)
	return candidates, err
}

type bandResult struct {
	candidates *CandidatePairSet
	buckets    int
	occupancy  int
	maxBucket  int
	collisions int
}

// BandAndBucketWithStats is BandAndBucket plus bucket statistics.
//
// Bands are independent: each worker owns one band's bucket map and emits
// a local candidate set, and the sets are merged in band order once all
// workers finish. Band processing order never changes the result.
func (b *Bander) BandAndBucketWithStats(ctx context.Context, matrix *SignatureMatrix, rowsPerBand int) (*CandidatePairSet, BandingStats, error) {
	if matrix == nil || matrix.NumHashes() == 0 || matrix.NumDocuments() == 0 {
		return nil, BandingStats{}, domain.NewInvalidInputError("signature matrix is empty", nil)
	}
	if rowsPerBand < 1 || rowsPerBand > matrix.NumHashes() {
		return nil, BandingStats{}, domain.NewInvalidInputError(
			fmt.Sprintf("rows per band must be between 1 and %d, got %d", matrix.NumHashes(), rowsPerBand), nil)
	}
	bits := b.config.BucketBits
	if bits < domain.MinBucketBits || bits > domain.MaxBucketBits {
		return nil, BandingStats{}, domain.NewConfigError(
			fmt.Sprintf("bucket bits must be between %d and %d, got %d", domain.MinBucketBits, domain.MaxBucketBits, bits), nil)
	}
	slots := int64(1) << bits
	if b.config.MaxBucketSlots > 0 && slots > b.config.MaxBucketSlots {
		return nil, BandingStats{}, domain.NewResourceExhaustionError("bucket table slots", slots, b.config.MaxBucketSlots)
	}

	bands := numBands(matrix.NumHashes(), rowsPerBand)
	bucketFamily, err := GenerateHashFamily(bands, b.config.Seed^bandSeedSalt)
	if err != nil {
		return nil, BandingStats{}, err
	}
	mask := uint64(slots - 1)

	workers := b.config.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]bandResult, bands)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(workers, bands))
	for band := 0; band < bands; band++ {
		start := band * rowsPerBand
		end := min(start+rowsPerBand, matrix.NumHashes())
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[band] = bucketBand(matrix, start, end, bucketFamily.At(band), mask, int(min(slots, int64(matrix.NumDocuments()))))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, BandingStats{}, err
	}

	stats := BandingStats{
		Bands:       bands,
		RowsPerBand: rowsPerBand,
		BucketBits:  bits,
	}
	perBand := make([]*CandidatePairSet, bands)
	occupancy := 0
	for i, r := range results {
		perBand[i] = r.candidates
		stats.Buckets += r.buckets
		stats.Collisions += r.collisions
		stats.MaxBucketSize = max(stats.MaxBucketSize, r.maxBucket)
		occupancy += r.occupancy
	}
	for j := 0; j < matrix.NumDocuments(); j++ {
		if matrix.IsEmptyColumn(j) {
			stats.SkippedEmpty++
		}
	}
	if stats.Buckets > 0 {
		stats.AvgBucketSize = float64(occupancy) / float64(stats.Buckets)
	}

	candidates := MergeCandidates(perBand...)
	stats.Candidates = candidates.Len()
	return candidates, stats, nil
}

// bucketBand buckets rows [start, end) of every non-empty document.
// Documents are visited in ascending order, so each emitted pair already
// has the existing occupant as its smaller index.
func bucketBand(matrix *SignatureMatrix, start, end int, fn HashFunction, mask uint64, capacity int) bandResult {
	buckets := make(map[uint32][]int32, capacity)
	local := NewCandidatePairSet()
	buf := make([]byte, 8*(end-start))
	res := bandResult{}

	for j := 0; j < matrix.NumDocuments(); j++ {
		if matrix.IsEmptyColumn(j) {
			continue
		}
		for k := start; k < end; k++ {
			binary.LittleEndian.PutUint64(buf[(k-start)*8:], matrix.At(k, j))
		}
		idx := bucketIndex(buf, fn, mask)

		occupants := buckets[idx]
		for _, i := range occupants {
			local.Add(int(i), j)
			res.collisions++
		}
		buckets[idx] = append(occupants, int32(j))
		res.occupancy++
	}

	res.candidates = local
	res.buckets = len(buckets)
	for _, occupants := range buckets {
		res.maxBucket = max(res.maxBucket, len(occupants))
	}
	return res
}

// bucketIndex digests a band slice with xxhash, re-hashes the digest with
// the band's universal hash function and keeps the low bits.
func bucketIndex(slice []byte, fn HashFunction, mask uint64) uint32 {
	digest := xxhash.Sum64(slice)
	return uint32(fn.Apply(digest%fn.M) & mask)
}
