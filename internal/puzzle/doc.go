// Package puzzle turns a reference solution program into a shuffled
// reconstruction puzzle.
//
// Tokenization is lossless: concatenating the tokens of any program in
// original order reproduces the source text exactly, whitespace included.
// The reconstruction check in the presentation layer depends on exact
// reassembly, so this round-trip law is load-bearing.
//
// Masking covers exactly the non-whitespace tokens, keeping indentation
// and newlines visible as scaffolding. The order in which masked tokens
// are offered for placement is a fresh random permutation per call, so a
// learner cannot memorize a fixed reveal order.
package puzzle
