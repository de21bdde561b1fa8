package puzzle

import "math/rand/v2"

// Shuffler permutes the presentation order of masked token indices.
// Implemented by RandShuffler (production) and SeededShuffler (tests,
// --seed reproduction).
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// RandShuffler produces a fresh uniform permutation per call.
// Thread-safety: math/rand/v2 top-level functions are safe for
// concurrent use.
type RandShuffler struct{}

// Shuffle implements Shuffler.
func (RandShuffler) Shuffle(n int, swap func(i, j int)) {
	rand.Shuffle(n, swap)
}

// SeededShuffler produces the same permutation sequence for the same
// seed. Not safe for concurrent use; intended for tests and for
// reproducing a puzzle from the CLI.
type SeededShuffler struct {
	rng *rand.Rand
}

// NewSeededShuffler creates a SeededShuffler from a fixed seed.
func NewSeededShuffler(seed uint64) *SeededShuffler {
	return &SeededShuffler{rng: rand.New(rand.NewPCG(seed, seed))}
}

// Shuffle implements Shuffler.
func (s *SeededShuffler) Shuffle(n int, swap func(i, j int)) {
	s.rng.Shuffle(n, swap)
}

// Spec is a reconstruction puzzle: the full token sequence, a shuffled
// permutation of the non-whitespace token indices, and a mask aligned
// with the tokens.
//
// Invariant: Mask[i] == true iff i appears in MaskedIndices iff Tokens[i]
// is not pure whitespace.
type Spec struct {
	Tokens        []string `json:"tokens"`
	MaskedIndices []int    `json:"maskedIndices"`
	Mask          []bool   `json:"mask"`
}

// Generator builds puzzles. Stateless between calls apart from the
// injected shuffler.
type Generator struct {
	shuffler Shuffler
}

// NewGenerator creates a Generator using the given shuffler.
func NewGenerator(shuffler Shuffler) *Generator {
	return &Generator{shuffler: shuffler}
}

// Generate tokenizes the program and masks every non-whitespace token.
// Eligible indices are collected in original order, then their
// presentation order is shuffled. The returned Spec is not retained or
// mutated by the generator afterwards.
//
// The empty program yields empty tokens and an empty permutation.
func (g *Generator) Generate(program string) Spec {
	tokens := Tokenize(program)

	maskedIndices := []int{}
	mask := make([]bool, len(tokens))
	for i, tok := range tokens {
		if !isWhitespaceToken(tok) {
			maskedIndices = append(maskedIndices, i)
			mask[i] = true
		}
	}

	g.shuffler.Shuffle(len(maskedIndices), func(i, j int) {
		maskedIndices[i], maskedIndices[j] = maskedIndices[j], maskedIndices[i]
	})

	return Spec{
		Tokens:        tokens,
		MaskedIndices: maskedIndices,
		Mask:          mask,
	}
}
