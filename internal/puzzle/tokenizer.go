package puzzle

import "strings"

// Two-character operators recognized as single tokens. Longer runs of
// punctuation fall back to one token per character, which is still
// lossless.
var twoCharOps = map[string]bool{
	"==": true, "!=": true, "<=": true, ">=": true,
	"//": true, "**": true, "->": true, ":=": true,
	"+=": true, "-=": true, "*=": true, "/=": true,
}

// Tokenize splits a program into a lossless sequence of lexical tokens:
//
//   - runs of whitespace (spaces, tabs, newlines) as single tokens
//   - identifiers and number literals as single tokens
//   - string literals (single-, double-, and triple-quoted, with escape
//     handling) as single tokens
//   - comments to end of line as single tokens
//   - two-character operators from a fixed table, else one punctuation
//     character per token
//
// Concatenating the result in order reproduces src exactly. Malformed
// input (an unterminated string, say) still tokenizes losslessly; the
// unterminated literal simply extends to the end of the source.
func Tokenize(src string) []string {
	tokens := []string{}
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case isSpace(c):
			j := i
			for j < len(src) && isSpace(src[j]) {
				j++
			}
			tokens = append(tokens, src[i:j])
			i = j

		case c == '#':
			j := i
			for j < len(src) && src[j] != '\n' {
				j++
			}
			tokens = append(tokens, src[i:j])
			i = j

		case c == '\'' || c == '"':
			j := scanString(src, i)
			tokens = append(tokens, src[i:j])
			i = j

		case isIdentChar(c):
			j := i
			for j < len(src) && isIdentChar(src[j]) {
				j++
			}
			tokens = append(tokens, src[i:j])
			i = j

		default:
			if i+2 <= len(src) && twoCharOps[src[i:i+2]] {
				tokens = append(tokens, src[i:i+2])
				i += 2
			} else {
				tokens = append(tokens, src[i:i+1])
				i++
			}
		}
	}
	return tokens
}

// scanString returns the index just past the string literal starting at
// src[start]. Handles triple quotes and backslash escapes. An unterminated
// literal extends to len(src).
func scanString(src string, start int) int {
	quote := src[start]
	triple := strings.HasPrefix(src[start:], strings.Repeat(string(quote), 3))

	if triple {
		closer := strings.Repeat(string(quote), 3)
		i := start + 3
		for i < len(src) {
			if src[i] == '\\' {
				i += 2
				continue
			}
			if strings.HasPrefix(src[i:], closer) {
				return i + 3
			}
			i++
		}
		return len(src)
	}

	i := start + 1
	for i < len(src) {
		switch src[i] {
		case '\\':
			i += 2
		case quote:
			return i + 1
		case '\n':
			// Single-quoted literals do not span lines.
			return i
		default:
			i++
		}
	}
	return len(src)
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func isIdentChar(c byte) bool {
	return c == '_' || c == '.' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c >= 0x80 // non-ASCII bytes stay attached to their identifier
}

// isWhitespaceToken reports whether a token is pure whitespace, and so
// stays visible as scaffolding rather than being masked.
func isWhitespaceToken(tok string) bool {
	return strings.TrimSpace(tok) == ""
}
