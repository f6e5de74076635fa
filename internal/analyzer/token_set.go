package analyzer

import (
	"slices"
)

// TokenSet is an immutable set of token values, stored sorted and deduplicated
type TokenSet struct {
	tokens []uint64
}

// NewTokenSet builds a set from arbitrary values; duplicates collapse
func NewTokenSet(values ...uint64) TokenSet {
	if len(values) == 0 {
		return TokenSet{}
	}
	tokens := slices.Clone(values)
	slices.Sort(tokens)
	return TokenSet{tokens: slices.Compact(tokens)}
}

// Len returns the set cardinality
func (s TokenSet) Len() int { return len(s.tokens) }

// IsEmpty reports whether the set has no tokens
func (s TokenSet) IsEmpty() bool { return len(s.tokens) == 0 }

// Contains reports membership
func (s TokenSet) Contains(t uint64) bool {
	_, found := slices.BinarySearch(s.tokens, t)
	return found
}

// Tokens returns the sorted tokens. The slice must not be modified.
func (s TokenSet) Tokens() []uint64 { return s.tokens }

// IntersectionSize counts common tokens with a linear merge
func (s TokenSet) IntersectionSize(other TokenSet) int {
	a, b := s.tokens, other.tokens
	i, j, n := 0, 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			n++
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return n
}
