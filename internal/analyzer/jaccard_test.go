package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExactJaccard(t *testing.T) {
	tests := []struct {
		name     string
		a, b     TokenSet
		expected float64
	}{
		{name: "identical", a: NewTokenSet(1, 2, 3), b: NewTokenSet(3, 2, 1), expected: 1.0},
		{name: "disjoint", a: NewTokenSet(1, 2, 3), b: NewTokenSet(4, 5, 6), expected: 0.0},
		{name: "partial overlap", a: NewTokenSet(1, 2, 3, 4, 5), b: NewTokenSet(3, 4, 5, 6, 7), expected: 3.0 / 7.0},
		{name: "subset", a: NewTokenSet(1, 2), b: NewTokenSet(1, 2, 3), expected: 2.0 / 3.0},
		{name: "duplicates collapse", a: NewTokenSet(1, 1, 2, 2), b: NewTokenSet(2), expected: 0.5},
		{name: "one empty", a: NewTokenSet(1), b: NewTokenSet(), expected: 0.0},
		{name: "both empty", a: NewTokenSet(), b: NewTokenSet(), expected: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ExactJaccard(tt.a, tt.b), 1e-12)
			assert.InDelta(t, tt.expected, ExactJaccard(tt.b, tt.a), 1e-12)
		})
	}
}

func TestCompareSignatures(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []uint64
		expected float64
	}{
		{name: "one row differs", a: []uint64{2, 2, 2}, b: []uint64{2, 4, 2}, expected: 2.0 / 3.0},
		{name: "identical", a: []uint64{1, 2, 3}, b: []uint64{1, 2, 3}, expected: 1.0},
		{name: "length mismatch", a: []uint64{1, 2}, b: []uint64{1, 2, 3}, expected: 0.0},
		{name: "empty", a: nil, b: nil, expected: 0.0},
		{name: "inf never matches", a: []uint64{Inf, Inf}, b: []uint64{Inf, Inf}, expected: 0.0},
		{name: "mixed inf", a: []uint64{Inf, 7}, b: []uint64{Inf, 7}, expected: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, CompareSignatures(tt.a, tt.b), 1e-12)
		})
	}
}

func TestTokenSet(t *testing.T) {
	s := NewTokenSet(5, 1, 3, 3, 1)

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []uint64{1, 3, 5}, s.Tokens())
	assert.True(t, s.Contains(3))
	assert.False(t, s.Contains(4))
	assert.True(t, NewTokenSet().IsEmpty())
	assert.Equal(t, 2, s.IntersectionSize(NewTokenSet(3, 5, 7)))
}

func TestTokenSet_CopiesInput(t *testing.T) {
	values := []uint64{3, 1, 2}
	s := NewTokenSet(values...)
	values[0] = 100

	assert.Equal(t, []uint64{1, 2, 3}, s.Tokens())
}
