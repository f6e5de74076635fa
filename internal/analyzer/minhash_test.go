package analyzer

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/dupscan/domain"
)

// rangeSet returns the token set {lo, ..., hi}
func rangeSet(lo, hi uint64) TokenSet {
	values := make([]uint64, 0, hi-lo+1)
	for v := lo; v <= hi; v++ {
		values = append(values, v)
	}
	return NewTokenSet(values...)
}

func mustFamily(t testing.TB, count int, seed uint64) *HashFamily {
	t.Helper()
	family, err := GenerateHashFamily(count, seed)
	require.NoError(t, err)
	return family
}

func mustBuild(t testing.TB, sets []TokenSet, family *HashFamily) *SignatureMatrix {
	t.Helper()
	matrix, err := NewSignatureBuilder(SignatureBuilderConfig{}).Build(context.Background(), sets, family)
	require.NoError(t, err)
	return matrix
}

// referenceSignatures computes the matrix with plain nested loops
func referenceSignatures(sets []TokenSet, family *HashFamily) [][]uint64 {
	var universe []uint64
	for _, s := range sets {
		universe = append(universe, s.Tokens()...)
	}
	slices.Sort(universe)
	universe = slices.Compact(universe)

	out := make([][]uint64, family.Len())
	for k := range out {
		out[k] = make([]uint64, len(sets))
		for j := range out[k] {
			out[k][j] = Inf
		}
	}
	for r, tok := range universe {
		key := RankKey(uint64(r+1), family.Modulus())
		for k := 0; k < family.Len(); k++ {
			v := family.At(k).Apply(key)
			for j, s := range sets {
				if s.Contains(tok) && v < out[k][j] {
					out[k][j] = v
				}
			}
		}
	}
	return out
}

func TestBuild_MatchesReference(t *testing.T) {
	sets := []TokenSet{
		NewTokenSet(10, 20, 30, 40),
		NewTokenSet(30, 40, 50),
		NewTokenSet(99),
		NewTokenSet(),
		NewTokenSet(20, 50, 1_000_000_007),
	}
	family := mustFamily(t, 37, 9)
	want := referenceSignatures(sets, family)

	for _, workers := range []int{1, 2, 5, 64} {
		matrix, err := NewSignatureBuilder(SignatureBuilderConfig{Workers: workers}).
			Build(context.Background(), sets, family)
		require.NoError(t, err)

		assert.Equal(t, 37, matrix.NumHashes())
		assert.Equal(t, 5, matrix.NumDocuments())
		assert.Equal(t, 7, matrix.DistinctTokens())
		for k := 0; k < matrix.NumHashes(); k++ {
			assert.Equal(t, want[k], matrix.Row(k), "workers=%d row=%d", workers, k)
		}
	}
}

func TestBuild_EmptyInput(t *testing.T) {
	matrix, err := NewSignatureBuilder(SignatureBuilderConfig{}).Build(context.Background(), nil, mustFamily(t, 8, 1))

	assert.Nil(t, matrix)
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidInput))
}

func TestBuild_NoHashFunctions(t *testing.T) {
	sets := []TokenSet{NewTokenSet(1, 2)}

	matrix, err := NewSignatureBuilder(SignatureBuilderConfig{}).Build(context.Background(), sets, nil)
	assert.Nil(t, matrix)
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidInput))

	matrix, err = NewSignatureBuilder(SignatureBuilderConfig{}).Build(context.Background(), sets, &HashFamily{})
	assert.Nil(t, matrix)
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidInput))
}

func TestBuild_ResourceLimit(t *testing.T) {
	sets := []TokenSet{NewTokenSet(1), NewTokenSet(2)}
	builder := NewSignatureBuilder(SignatureBuilderConfig{MaxMatrixCells: 10})

	matrix, err := builder.Build(context.Background(), sets, mustFamily(t, 8, 1))

	assert.Nil(t, matrix)
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeResourceExhausted))
	assert.Contains(t, err.Error(), "16")
}

func TestBuild_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	matrix, err := NewSignatureBuilder(SignatureBuilderConfig{}).
		Build(ctx, []TokenSet{rangeSet(1, 100)}, mustFamily(t, 16, 1))

	assert.Nil(t, matrix, "a failed build must not return a partial matrix")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestBuild_EmptyTokenSet(t *testing.T) {
	sets := []TokenSet{rangeSet(1, 5), NewTokenSet(), NewTokenSet()}
	matrix := mustBuild(t, sets, mustFamily(t, 32, 1))

	for _, v := range matrix.Column(1) {
		assert.Equal(t, Inf, v)
	}
	assert.True(t, matrix.IsEmptyColumn(1))
	assert.False(t, matrix.IsEmptyColumn(0))

	assert.Equal(t, 0.0, matrix.Similarity(0, 1))
	assert.Equal(t, 0.0, matrix.Similarity(1, 2), "two empty documents are not similar")
	assert.Equal(t, 0.0, CompareSignatures(matrix.Column(1), matrix.Column(2)))
}

func TestBuild_Deterministic(t *testing.T) {
	sets := []TokenSet{rangeSet(1, 50), rangeSet(25, 80), rangeSet(200, 210)}

	m1 := mustBuild(t, sets, mustFamily(t, 64, 42))
	m2 := mustBuild(t, sets, mustFamily(t, 64, 42))
	m3 := mustBuild(t, sets, mustFamily(t, 64, 43))

	assert.True(t, m1.Equal(m2))
	assert.False(t, m1.Equal(m3))
}

func TestBuild_IdenticalDocuments(t *testing.T) {
	sets := []TokenSet{rangeSet(1, 20), rangeSet(5, 30), rangeSet(1, 20)}
	matrix := mustBuild(t, sets, mustFamily(t, 100, 3))

	assert.Equal(t, matrix.Column(0), matrix.Column(2))
	assert.Equal(t, 1.0, matrix.Similarity(0, 2))
}

func TestBuild_ProgressCallback(t *testing.T) {
	var last atomic.Int64
	builder := NewSignatureBuilder(SignatureBuilderConfig{
		Workers: 3,
		OnRowsDone: func(done, total int) {
			assert.Equal(t, 50, total)
			for {
				cur := last.Load()
				if int64(done) <= cur || last.CompareAndSwap(cur, int64(done)) {
					return
				}
			}
		},
	})

	_, err := builder.Build(context.Background(), []TokenSet{rangeSet(1, 10)}, mustFamily(t, 50, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(50), last.Load())
}

// The fraction of agreeing rows converges on the true Jaccard similarity.
func TestMinHashConvergence_SmallSets(t *testing.T) {
	a := rangeSet(1, 5) // {1,2,3,4,5}
	b := rangeSet(3, 7) // {3,4,5,6,7}
	exact := 3.0 / 7.0
	require.InDelta(t, exact, ExactJaccard(a, b), 1e-12)

	estimates := make([]float64, 0, 25)
	for seed := uint64(1); seed <= 25; seed++ {
		matrix := mustBuild(t, []TokenSet{a, b}, mustFamily(t, 100, seed))
		estimates = append(estimates, CompareSignatures(matrix.Column(0), matrix.Column(1)))
	}
	sort.Float64s(estimates)
	median := estimates[len(estimates)/2]

	assert.InDelta(t, exact, median, 0.1, "median estimate %.3f over %d seeds", median, len(estimates))
}

func TestMinHashConvergence_LargeSets(t *testing.T) {
	tests := []struct {
		name string
		a, b TokenSet
	}{
		{name: "high overlap", a: rangeSet(1, 1000), b: rangeSet(101, 1100)},
		{name: "medium overlap", a: rangeSet(1, 1000), b: rangeSet(501, 1500)},
		{name: "low overlap", a: rangeSet(1, 1000), b: rangeSet(901, 1900)},
		{name: "subset", a: rangeSet(1, 1000), b: rangeSet(1, 250)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exact := ExactJaccard(tt.a, tt.b)
			total := 0.0
			const runs = 20
			for seed := uint64(0); seed < runs; seed++ {
				matrix := mustBuild(t, []TokenSet{tt.a, tt.b}, mustFamily(t, 100, seed))
				total += matrix.Similarity(0, 1)
			}
			assert.InDelta(t, exact, total/runs, 0.05)
		})
	}
}

func TestMinHashDisjointSets(t *testing.T) {
	matrix := mustBuild(t, []TokenSet{rangeSet(1, 100), rangeSet(1001, 1100)}, mustFamily(t, 128, 5))

	assert.Equal(t, 0.0, matrix.Similarity(0, 1))
}

func BenchmarkBuild(b *testing.B) {
	sets := make([]TokenSet, 200)
	for i := range sets {
		lo := uint64(i * 50)
		sets[i] = rangeSet(lo, lo+500)
	}
	family := mustFamily(b, 128, 1)
	builder := NewSignatureBuilder(SignatureBuilderConfig{})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := builder.Build(context.Background(), sets, family); err != nil {
			b.Fatal(err)
		}
	}
}
