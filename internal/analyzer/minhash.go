package analyzer

import (
	"context"
	"math"
	"runtime"
	"slices"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/ludo-technologies/dupscan/domain"
)

// Inf marks a signature cell that no token lowered. Hash values are always
// below the modulus, which is below Inf.
const Inf uint64 = math.MaxUint64

// cancelCheckInterval is how many ranks a worker processes between context checks.
const cancelCheckInterval = 4096

// SignatureMatrix is the F x D MinHash matrix: one row per hash function,
// one column per document. It is immutable once built.
type SignatureMatrix struct {
	numHashes      int
	numDocs        int
	distinctTokens int
	data           []uint64 // row-major, data[k*numDocs+j]
}

// NumHashes returns F, the signature length
func (m *SignatureMatrix) NumHashes() int { return m.numHashes }

// NumDocuments returns D
func (m *SignatureMatrix) NumDocuments() int { return m.numDocs }

// DistinctTokens returns U, the size of the token universe the ranks were assigned over
func (m *SignatureMatrix) DistinctTokens() int { return m.distinctTokens }

// At returns entry (k, j)
func (m *SignatureMatrix) At(k, j int) uint64 { return m.data[k*m.numDocs+j] }

// Row returns hash function k's values across all documents. Read-only.
func (m *SignatureMatrix) Row(k int) []uint64 {
	return m.data[k*m.numDocs : (k+1)*m.numDocs]
}

// Column returns a copy of document j's signature
func (m *SignatureMatrix) Column(j int) []uint64 {
	col := make([]uint64, m.numHashes)
	for k := range col {
		col[k] = m.data[k*m.numDocs+j]
	}
	return col
}

// IsEmptyColumn reports whether document j had no tokens. A non-empty
// document has a finite value in every row, so checking row 0 is enough.
func (m *SignatureMatrix) IsEmptyColumn(j int) bool {
	return m.data[j] == Inf
}

// Similarity estimates the Jaccard similarity of documents i and j
func (m *SignatureMatrix) Similarity(i, j int) float64 {
	if m.IsEmptyColumn(i) || m.IsEmptyColumn(j) {
		return 0.0
	}
	match := 0
	for k := 0; k < m.numHashes; k++ {
		row := m.data[k*m.numDocs:]
		if row[i] == row[j] {
			match++
		}
	}
	return float64(match) / float64(m.numHashes)
}

// Equal reports whether two matrices are bit-identical
func (m *SignatureMatrix) Equal(other *SignatureMatrix) bool {
	if m == nil || other == nil {
		return m == other
	}
	return m.numHashes == other.numHashes &&
		m.numDocs == other.numDocs &&
		slices.Equal(m.data, other.data)
}

// SignatureBuilderConfig configures a SignatureBuilder
type SignatureBuilderConfig struct {
	// Workers bounds concurrent row blocks (default GOMAXPROCS)
	Workers int

	// MaxMatrixCells caps F x D; 0 disables the check
	MaxMatrixCells int64

	// OnRowsDone is called as row blocks finish. It may be called concurrently.
	OnRowsDone func(done, total int)
}

// SignatureBuilder computes MinHash signature matrices
type SignatureBuilder struct {
	config SignatureBuilderConfig
}

// NewSignatureBuilder creates a builder
func NewSignatureBuilder(config SignatureBuilderConfig) *SignatureBuilder {
	return &SignatureBuilder{config: config}
}

// Build computes the signature matrix of tokenSets under family.
//
// Every distinct token across the corpus gets a rank 1..U in ascending
// numeric order, and row k of document j is the minimum of
// h_k(RankKey(rank(t))) over its tokens. Hash rows are split into
// contiguous blocks, one per worker, so workers never write the same cell.
// On error no matrix is returned.
func (b *SignatureBuilder) Build(ctx context.Context, tokenSets []TokenSet, family *HashFamily) (*SignatureMatrix, error) {
	if len(tokenSets) == 0 {
		return nil, domain.NewInvalidInputError("token set collection is empty", nil)
	}
	if len(tokenSets) > math.MaxInt32 {
		return nil, domain.NewInvalidInputError("too many documents", nil)
	}
	if family.Len() == 0 {
		return nil, domain.NewInvalidInputError("hash family has no functions", nil)
	}

	numHashes, numDocs := family.Len(), len(tokenSets)
	cells := int64(numHashes) * int64(numDocs)
	if b.config.MaxMatrixCells > 0 && cells > b.config.MaxMatrixCells {
		return nil, domain.NewResourceExhaustionError("signature matrix cells", cells, b.config.MaxMatrixCells)
	}

	universe, postings := buildPostings(tokenSets)

	data := make([]uint64, cells)
	for i := range data {
		data[i] = Inf
	}

	workers := b.config.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, numHashes)
	rowsPerWorker := (numHashes + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var rowsDone atomic.Int64
	for lo := 0; lo < numHashes; lo += rowsPerWorker {
		hi := min(lo+rowsPerWorker, numHashes)
		g.Go(func() error {
			if err := fillRows(gctx, data, numDocs, family, postings, lo, hi); err != nil {
				return err
			}
			done := rowsDone.Add(int64(hi - lo))
			if b.config.OnRowsDone != nil {
				b.config.OnRowsDone(int(done), numHashes)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &SignatureMatrix{
		numHashes:      numHashes,
		numDocs:        numDocs,
		distinctTokens: len(universe),
		data:           data,
	}, nil
}

// fillRows lowers rows [lo, hi) of the matrix for every ranked token.
func fillRows(ctx context.Context, data []uint64, numDocs int, family *HashFamily, postings [][]int32, lo, hi int) error {
	hv := make([]uint64, hi-lo)
	for r, docs := range postings {
		if r%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		key := RankKey(uint64(r+1), family.modulus)
		for k := lo; k < hi; k++ {
			hv[k-lo] = family.funcs[k].Apply(key)
		}
		for k := lo; k < hi; k++ {
			v := hv[k-lo]
			row := data[k*numDocs : (k+1)*numDocs]
			for _, j := range docs {
				if v < row[j] {
					row[j] = v
				}
			}
		}
	}
	return nil
}

// buildPostings returns the sorted token universe and, for each rank-1, the
// ascending list of documents containing that token.
func buildPostings(tokenSets []TokenSet) ([]uint64, [][]int32) {
	total := 0
	for _, s := range tokenSets {
		total += s.Len()
	}
	universe := make([]uint64, 0, total)
	for _, s := range tokenSets {
		universe = append(universe, s.tokens...)
	}
	slices.Sort(universe)
	universe = slices.Compact(universe)

	postings := make([][]int32, len(universe))
	for j, s := range tokenSets {
		for _, t := range s.tokens {
			r, _ := slices.BinarySearch(universe, t)
			postings[r] = append(postings[r], int32(j))
		}
	}
	return universe, postings
}
