package analyzer

import (
	"cmp"
	"slices"
)

// Pair is an unordered document pair stored with I < J
type Pair struct {
	I int `json:"i" yaml:"i"`
	J int `json:"j" yaml:"j"`
}

// NewPair orders a and b so the smaller index comes first
func NewPair(a, b int) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair{I: a, J: b}
}

func comparePairs(a, b Pair) int {
	if c := cmp.Compare(a.I, b.I); c != 0 {
		return c
	}
	return cmp.Compare(a.J, b.J)
}

// CandidatePairSet is a set of canonical pairs. It is not safe for
// concurrent mutation; banding gives each worker its own set.
type CandidatePairSet struct {
	pairs map[Pair]struct{}
}

// NewCandidatePairSet creates an empty set
func NewCandidatePairSet() *CandidatePairSet {
	return &CandidatePairSet{pairs: make(map[Pair]struct{})}
}

// Add inserts the pair {a, b}. Self pairs are ignored. Reports whether the set grew.
func (s *CandidatePairSet) Add(a, b int) bool {
	if a == b {
		return false
	}
	p := NewPair(a, b)
	if _, ok := s.pairs[p]; ok {
		return false
	}
	s.pairs[p] = struct{}{}
	return true
}

// Contains reports whether {a, b} is in the set
func (s *CandidatePairSet) Contains(a, b int) bool {
	_, ok := s.pairs[NewPair(a, b)]
	return ok
}

// Len returns the number of pairs
func (s *CandidatePairSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.pairs)
}

// Pairs returns the pairs sorted by (I, J)
func (s *CandidatePairSet) Pairs() []Pair {
	if s == nil {
		return nil
	}
	out := make([]Pair, 0, len(s.pairs))
	for p := range s.pairs {
		out = append(out, p)
	}
	slices.SortFunc(out, comparePairs)
	return out
}

// Union adds every pair of other to s
func (s *CandidatePairSet) Union(other *CandidatePairSet) {
	if other == nil {
		return
	}
	for p := range other.pairs {
		s.pairs[p] = struct{}{}
	}
}

// MergeCandidates unions per-band results into a new set. Merging is
// commutative and idempotent: passing the same set twice changes nothing.
func MergeCandidates(sets ...*CandidatePairSet) *CandidatePairSet {
	merged := NewCandidatePairSet()
	for _, s := range sets {
		merged.Union(s)
	}
	return merged
}
