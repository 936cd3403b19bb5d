// Package nlp is the small text toolkit the transformation passes rely on:
// a word tokenizer with its inverse, a rule-based part-of-speech tagger, a
// prepositional-phrase span detector and a thesaurus.
package nlp

import (
	"strings"
	"unicode"
)

// Tokenize splits text into words and punctuation marks. Apostrophes and
// hyphens inside a word stay with it, so "what's" and "bug-infested" are one
// token each. Runs of the same punctuation mark ("??", "...") are one token.
func Tokenize(text string) []string {
	var tokens []string
	runes := []rune(text)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case isWordRune(r):
			start := i
			for i < len(runes) {
				if isWordRune(runes[i]) {
					i++
					continue
				}
				if isJoiner(runes[i]) && i+1 < len(runes) && isWordRune(runes[i+1]) && i > start {
					i++
					continue
				}
				break
			}
			tokens = append(tokens, string(runes[start:i]))
		default:
			start := i
			for i < len(runes) && runes[i] == r {
				i++
			}
			tokens = append(tokens, string(runes[start:i]))
		}
	}
	return tokens
}

// Detokenize joins tokens with single spaces, attaching closing punctuation
// to the preceding token and opening brackets to the following one.
func Detokenize(tokens []string) string {
	var b strings.Builder
	attach := false
	for i, tok := range tokens {
		if i > 0 && !attach && !closes(tok) {
			b.WriteByte(' ')
		}
		b.WriteString(tok)
		attach = opens(tok)
	}
	return b.String()
}

// IsPunct reports whether tok consists only of punctuation or symbols.
func IsPunct(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if isWordRune(r) || unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isJoiner(r rune) bool {
	return r == '\'' || r == '-' || r == '’'
}

func closes(tok string) bool {
	if !IsPunct(tok) {
		return false
	}
	switch tok[0] {
	case '?', '!', '.', ',', ';', ':', ')', ']', '}', '%':
		return true
	}
	return false
}

func opens(tok string) bool {
	switch tok {
	case "(", "[", "{", "$":
		return true
	}
	return false
}
