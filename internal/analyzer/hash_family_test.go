package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/dupscan/domain"
)

func TestGenerateHashFamily(t *testing.T) {
	family, err := GenerateHashFamily(64, 42)
	require.NoError(t, err)

	assert.Equal(t, 64, family.Len())
	assert.Equal(t, uint64(42), family.Seed())
	assert.Equal(t, MersennePrime61, family.Modulus())
}

func TestGenerateHashFamily_Deterministic(t *testing.T) {
	f1, err := GenerateHashFamily(64, 42)
	require.NoError(t, err)
	f2, err := GenerateHashFamily(64, 42)
	require.NoError(t, err)
	f3, err := GenerateHashFamily(64, 43)
	require.NoError(t, err)

	assert.Equal(t, f1.Functions(), f2.Functions(), "same seed must reproduce the family")
	assert.NotEqual(t, f1.Functions(), f3.Functions(), "different seeds should produce different families")
}

func TestGenerateHashFamily_PrefixStable(t *testing.T) {
	short, err := GenerateHashFamily(10, 7)
	require.NoError(t, err)
	long, err := GenerateHashFamily(20, 7)
	require.NoError(t, err)

	assert.Equal(t, short.Functions(), long.Functions()[:10])
}

func TestGenerateHashFamily_InvalidCount(t *testing.T) {
	for _, count := range []int{0, -1} {
		family, err := GenerateHashFamily(count, 1)
		assert.Nil(t, family)
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeConfigError), "count %d: %v", count, err)
	}
}

func TestGenerateHashFamilyWithModulus(t *testing.T) {
	tests := []struct {
		name    string
		modulus uint64
		wantErr bool
	}{
		{name: "mersenne 61", modulus: MersennePrime61},
		{name: "first prime above 2^32", modulus: 4294967311},
		{name: "prime below 2^31", modulus: 1000003, wantErr: true},
		{name: "composite", modulus: 1 << 40, wantErr: true},
		{name: "zero", modulus: 0, wantErr: true},
		{name: "sentinel", modulus: ^uint64(0), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			family, err := GenerateHashFamilyWithModulus(8, 1, tt.modulus)
			if tt.wantErr {
				assert.Nil(t, family)
				assert.True(t, domain.IsErrorCode(err, domain.ErrCodeConfigError))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.modulus, family.Modulus())
		})
	}
}

func TestHashFunctionProperties(t *testing.T) {
	family, err := GenerateHashFamily(256, 42)
	require.NoError(t, err)

	for i, fn := range family.Functions() {
		assert.GreaterOrEqual(t, fn.A, uint64(1), "function %d should have a >= 1", i)
		assert.Less(t, fn.A, fn.M, "function %d should have a < m", i)
		assert.Less(t, fn.B, fn.M, "function %d should have b < m", i)
		assert.False(t, fn.A == 1 && fn.B == 0, "function %d is the identity", i)
		assert.Equal(t, MersennePrime61, fn.M)
	}
}

func TestHashFunction_Apply(t *testing.T) {
	fn := HashFunction{A: 3, B: 4, M: 7}
	assert.Equal(t, uint64(5), fn.Apply(5)) // 19 mod 7

	// (m-1)^2 overflows 64 bits; (m-1) is -1 mod m so the square is 1.
	big := HashFunction{A: MersennePrime61 - 1, B: 0, M: MersennePrime61}
	assert.Equal(t, uint64(1), big.Apply(MersennePrime61-1))

	withB := HashFunction{A: MersennePrime61 - 1, B: MersennePrime61 - 1, M: MersennePrime61}
	assert.Equal(t, uint64(0), withB.Apply(MersennePrime61-1))
}

func TestRankKey(t *testing.T) {
	seen := make(map[uint64]bool)
	for r := uint64(1); r <= 1000; r++ {
		k := RankKey(r, MersennePrime61)
		assert.Less(t, k, MersennePrime61)
		assert.Equal(t, k, RankKey(r, MersennePrime61))
		seen[k] = true
	}
	assert.Len(t, seen, 1000, "consecutive ranks should map to distinct keys")
}

func BenchmarkHashFunctionApply(b *testing.B) {
	family, _ := GenerateHashFamily(1, 1)
	fn := family.At(0)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		fn.Apply(uint64(i))
	}
}
