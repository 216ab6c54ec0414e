// Package match implements the textual-closeness scoring used to rank and
// validate candidate entity names. Pure functions, no I/O.
package match

import (
	"strings"
	"unicode"
)

// minTokenLen filters short stopword-like tokens out of the overlap count.
const minTokenLen = 2

// Score computes a normalized closeness score between two names in [0, 1].
//
// 1.0  when the normalized forms are identical
// 0.8  when one normalized form contains the other
// else matching tokens / max token count, counting only tokens longer
// than two characters that appear verbatim in both names
//
// Returns 0.0 when either input is empty.
func Score(a, b string) float64 {
	ca, cb := compact(a), compact(b)
	if ca == "" || cb == "" {
		return 0.0
	}

	if ca == cb {
		return 1.0
	}
	if strings.Contains(ca, cb) || strings.Contains(cb, ca) {
		return 0.8
	}

	wordsA := strings.Fields(normalize(a))
	wordsB := strings.Fields(normalize(b))
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0.0
	}

	common := 0
	for _, wa := range wordsA {
		if len(wa) <= minTokenLen {
			continue
		}
		for _, wb := range wordsB {
			if wa == wb {
				common++
				break
			}
		}
	}

	longest := len(wordsA)
	if len(wordsB) > longest {
		longest = len(wordsB)
	}
	return float64(common) / float64(longest)
}

// normalize lowercases s and replaces every non-alphanumeric rune with a
// space, so the result can be tokenized on whitespace.
func normalize(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		} else {
			sb.WriteRune(' ')
		}
	}
	return sb.String()
}

// compact is normalize with all whitespace removed; used for the equality
// and containment checks.
func compact(s string) string {
	return strings.Join(strings.Fields(normalize(s)), "")
}

// Tokens splits a raw name on spaces, commas, hyphens, slashes and other
// common delimiters, lowercased, empties dropped.
func Tokens(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		switch r {
		case ' ', '\t', '\n', ',', '-', '/', '&', '+', '(', ')':
			return true
		}
		return unicode.IsSpace(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// ContainsAnyToken reports whether name contains at least one of the given
// tokens, either as a substring or at a word boundary.
func ContainsAnyToken(name string, tokens []string) bool {
	if strings.TrimSpace(name) == "" || len(tokens) == 0 {
		return false
	}
	lower := strings.ToLower(name)
	for _, token := range tokens {
		if tokenMatches(lower, token) {
			return true
		}
	}
	return false
}

// CountTokenMatches counts how many of the tokens appear in name. Each token
// is counted at most once.
func CountTokenMatches(name string, tokens []string) int {
	if strings.TrimSpace(name) == "" || len(tokens) == 0 {
		return 0
	}
	lower := strings.ToLower(name)
	count := 0
	for _, token := range tokens {
		if tokenMatches(lower, token) {
			count++
		}
	}
	return count
}

func tokenMatches(lowerName, token string) bool {
	token = strings.ToLower(token)
	if token == "" {
		return false
	}
	if strings.Contains(lowerName, token) {
		return true
	}
	for _, word := range strings.FieldsFunc(lowerName, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-'
	}) {
		if word == token || strings.HasPrefix(word, token) || strings.HasSuffix(word, token) {
			return true
		}
	}
	return false
}
