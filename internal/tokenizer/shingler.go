// Package tokenizer turns raw document text into token sets of hashed
// character k-grams.
package tokenizer

import (
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/ludo-technologies/dupscan/domain"
	"github.com/ludo-technologies/dupscan/internal/analyzer"
)

// Shingler produces k-gram token sets
type Shingler struct {
	// K is the window width in runes
	K int

	// Normalize lower-cases the text and collapses runs of whitespace
	// into a single space before shingling
	Normalize bool
}

// NewShingler creates a shingler; k <= 0 uses the default width
func NewShingler(k int, normalize bool) *Shingler {
	if k <= 0 {
		k = domain.DefaultShingleSize
	}
	return &Shingler{K: k, Normalize: normalize}
}

// Shingle slides a K-rune window over text and hashes every window.
// Text shorter than K has no window and yields an empty set.
func (s *Shingler) Shingle(text string) analyzer.TokenSet {
	if s.Normalize {
		text = normalize(text)
	}
	if text == "" {
		return analyzer.NewTokenSet()
	}

	k := s.K
	if k <= 0 {
		k = domain.DefaultShingleSize
	}

	runes := []rune(text)
	if len(runes) < k {
		return analyzer.NewTokenSet()
	}

	// byte offsets of every rune start, plus the end of the text
	offsets := make([]int, 0, len(runes)+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	offsets = append(offsets, len(text))

	tokens := make([]uint64, 0, len(runes)-k+1)
	for i := 0; i+k <= len(runes); i++ {
		tokens = append(tokens, hashGram(text[offsets[i]:offsets[i+k]]))
	}
	return analyzer.NewTokenSet(tokens...)
}

// hashGram truncates the 64-bit digest to a 32-bit token
func hashGram(gram string) uint64 {
	return uint64(uint32(xxhash.Sum64String(gram)))
}

func normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	space := false
	for _, r := range strings.TrimSpace(text) {
		if unicode.IsSpace(r) {
			if !space {
				b.WriteByte(' ')
			}
			space = true
			continue
		}
		space = false
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
