package puzzle

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_MaskLaw(t *testing.T) {
	g := NewGenerator(RandShuffler{})

	for _, program := range roundTripPrograms {
		spec := g.Generate(program)

		require.Len(t, spec.Mask, len(spec.Tokens))

		inMasked := make(map[int]bool, len(spec.MaskedIndices))
		for _, idx := range spec.MaskedIndices {
			assert.False(t, inMasked[idx], "maskedIndices must not repeat index %d", idx)
			inMasked[idx] = true
		}

		for i, tok := range spec.Tokens {
			want := !isWhitespaceToken(tok)
			assert.Equal(t, want, spec.Mask[i], "mask[%d] for token %q", i, tok)
			assert.Equal(t, want, inMasked[i], "maskedIndices membership for token %q", tok)
		}
	}
}

func TestGenerate_MaskedIndicesIsPermutation(t *testing.T) {
	g := NewGenerator(RandShuffler{})
	spec := g.Generate("def f(a):\n    return a + 1\n")

	sorted := append([]int(nil), spec.MaskedIndices...)
	sort.Ints(sorted)

	var expected []int
	for i, tok := range spec.Tokens {
		if !isWhitespaceToken(tok) {
			expected = append(expected, i)
		}
	}
	assert.Equal(t, expected, sorted)
}

func TestGenerate_EmptyProgram(t *testing.T) {
	g := NewGenerator(RandShuffler{})
	spec := g.Generate("")

	assert.Empty(t, spec.Tokens)
	assert.Empty(t, spec.MaskedIndices)
	assert.Empty(t, spec.Mask)
	assert.NotNil(t, spec.MaskedIndices, "empty permutation, not nil")
}

func TestGenerate_WhitespaceOnlyProgram(t *testing.T) {
	g := NewGenerator(RandShuffler{})
	spec := g.Generate("  \n\t\n")

	assert.Len(t, spec.Tokens, 1)
	assert.Empty(t, spec.MaskedIndices)
	assert.Equal(t, []bool{false}, spec.Mask)
}

func TestGenerate_SeededShufflerIsReproducible(t *testing.T) {
	program := "x = 1\nprint(x)\n"

	first := NewGenerator(NewSeededShuffler(42)).Generate(program)
	second := NewGenerator(NewSeededShuffler(42)).Generate(program)
	assert.Equal(t, first.MaskedIndices, second.MaskedIndices)

	other := NewGenerator(NewSeededShuffler(7)).Generate(program)
	assert.Equal(t, first.Tokens, other.Tokens)
	assert.Equal(t, first.Mask, other.Mask)
}

func TestGenerate_DoesNotMutateBetweenCalls(t *testing.T) {
	g := NewGenerator(RandShuffler{})
	program := "a = 1\nb = 2\n"

	first := g.Generate(program)
	tokensBefore := append([]string(nil), first.Tokens...)

	g.Generate(program)
	assert.Equal(t, tokensBefore, first.Tokens, "a returned spec must never be mutated by later calls")
}
