package analyzer

import (
	"fmt"
	"math"
	"math/big"
	"math/bits"
	"math/rand/v2"

	"github.com/ludo-technologies/dupscan/domain"
)

// MersennePrime61 is 2^61 - 1, the default modulus of a HashFamily.
const MersennePrime61 uint64 = (1 << 61) - 1

// minModulus is the smallest modulus accepted: anything below 2^31 makes
// collisions between distinct token ranks likely on real corpora.
const minModulus uint64 = 1 << 31

// HashFunction is the universal hash h(x) = (a*x + b) mod m
type HashFunction struct {
	A uint64 `json:"a"`
	B uint64 `json:"b"`
	M uint64 `json:"m"`
}

// Apply evaluates the function. The product is computed in 128 bits so
// no input below 2^64 overflows.
func (h HashFunction) Apply(x uint64) uint64 {
	hi, lo := bits.Mul64(h.A, x)
	lo, carry := bits.Add64(lo, h.B, 0)
	hi += carry
	return bits.Rem64(hi, lo, h.M)
}

// HashFamily is an ordered, immutable sequence of hash functions generated
// from a seed.
type HashFamily struct {
	funcs   []HashFunction
	seed    uint64
	modulus uint64
}

// GenerateHashFamily generates count functions modulo MersennePrime61
func GenerateHashFamily(count int, seed uint64) (*HashFamily, error) {
	return GenerateHashFamilyWithModulus(count, seed, MersennePrime61)
}

// GenerateHashFamilyWithModulus generates count functions with a caller-chosen
// prime modulus. The result is a pure function of (count, seed, modulus).
func GenerateHashFamilyWithModulus(count int, seed uint64, modulus uint64) (*HashFamily, error) {
	if count <= 0 {
		return nil, domain.NewConfigError(fmt.Sprintf("hash function count must be > 0, got %d", count), nil)
	}
	if err := validateModulus(modulus); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	funcs := make([]HashFunction, count)
	for i := range funcs {
		for {
			a := 1 + rng.Uint64N(modulus-1) // [1, m-1]
			b := rng.Uint64N(modulus)       // [0, m-1]
			if a == 1 && b == 0 {
				// identity
				continue
			}
			funcs[i] = HashFunction{A: a, B: b, M: modulus}
			break
		}
	}

	return &HashFamily{funcs: funcs, seed: seed, modulus: modulus}, nil
}

func validateModulus(m uint64) error {
	if m < minModulus {
		return domain.NewConfigError(fmt.Sprintf("hash modulus %d must be >= 2^31", m), nil)
	}
	// MaxUint64 is reserved as the +Inf sentinel of a SignatureMatrix.
	if m >= math.MaxUint64 {
		return domain.NewConfigError("hash modulus must be < 2^64-1", nil)
	}
	if !new(big.Int).SetUint64(m).ProbablyPrime(20) {
		return domain.NewConfigError(fmt.Sprintf("hash modulus %d is not prime", m), nil)
	}
	return nil
}

// Len returns the number of functions
func (f *HashFamily) Len() int {
	if f == nil {
		return 0
	}
	return len(f.funcs)
}

// At returns the i-th function
func (f *HashFamily) At(i int) HashFunction { return f.funcs[i] }

// Functions returns a copy of the function sequence
func (f *HashFamily) Functions() []HashFunction {
	out := make([]HashFunction, len(f.funcs))
	copy(out, f.funcs)
	return out
}

func (f *HashFamily) Seed() uint64    { return f.seed }
func (f *HashFamily) Modulus() uint64 { return f.modulus }

// RankKey maps a token rank to the value fed to the hash functions. Linear
// hashes of consecutive integers are not min-wise independent, so ranks are
// spread over the domain with the splitmix64 finalizer first. The mapping is
// fixed, so a rank always yields the same key.
func RankKey(rank uint64, modulus uint64) uint64 {
	z := rank + 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	z ^= z >> 31
	return z % modulus
}
