package transform

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type contractionPair struct {
	expanded, contracted string
}

var contractions = []contractionPair{
	{"do not", "don't"},
	{"does not", "doesn't"},
	{"did not", "didn't"},
	{"is not", "isn't"},
	{"are not", "aren't"},
	{"was not", "wasn't"},
	{"were not", "weren't"},
	{"have not", "haven't"},
	{"has not", "hasn't"},
	{"had not", "hadn't"},
	{"will not", "won't"},
	{"would not", "wouldn't"},
	{"cannot", "can't"},
	{"can not", "can't"},
	{"could not", "couldn't"},
	{"should not", "shouldn't"},
	{"must not", "mustn't"},
	{"it is", "it's"},
	{"that is", "that's"},
	{"they are", "they're"},
	{"we are", "we're"},
	{"you are", "you're"},
	{"he is", "he's"},
	{"she is", "she's"},
	{"what is", "what's"},
	{"who is", "who's"},
	{"where is", "where's"},
	{"when is", "when's"},
	{"how is", "how's"},
	{"there is", "there's"},
	{"I am", "I'm"},
	{"I will", "I'll"},
	{"you will", "you'll"},
	{"he will", "he'll"},
	{"she will", "she'll"},
	{"we will", "we'll"},
	{"they will", "they'll"},
	{"I would", "I'd"},
	{"you would", "you'd"},
	{"he would", "he'd"},
	{"she would", "she'd"},
	{"we would", "we'd"},
	{"they would", "they'd"},
}

// expansions maps each contraction back to an expansion. A contraction that
// several expansions share keeps its first entry.
var expansions = func() []contractionPair {
	var out []contractionPair
	seen := map[string]bool{}
	for _, c := range contractions {
		if seen[c.contracted] {
			continue
		}
		seen[c.contracted] = true
		out = append(out, c)
	}
	return out
}()

// ToggleContraction expands the first contraction present, or contracts the
// first expandable phrase when the text has none or the expand draw fails.
// Matching ignores case and the replacement keeps a leading capital, so a
// contraction followed by an expansion restores the text. At most one
// occurrence changes.
func (a *Augmenter) ToggleContraction(text string) string {
	lower := strings.ToLower(text)
	if len(lower) != len(text) {
		return text
	}
	if strings.Contains(text, "'") && a.rng.Chance(expandChance) {
		for _, c := range expansions {
			if i := indexWord(lower, strings.ToLower(c.contracted)); i >= 0 {
				return text[:i] + matchCase(text[i:], c.expanded) + text[i+len(c.contracted):]
			}
		}
		return text
	}
	for _, c := range contractions {
		if i := indexWord(lower, strings.ToLower(c.expanded)); i >= 0 {
			return text[:i] + matchCase(text[i:], c.contracted) + text[i+len(c.expanded):]
		}
	}
	return text
}

// indexWord returns the byte offset of the first occurrence of phrase in s
// that starts and ends on a word boundary, or -1.
func indexWord(s, phrase string) int {
	from := 0
	for from <= len(s)-len(phrase) {
		i := strings.Index(s[from:], phrase)
		if i < 0 {
			return -1
		}
		i += from
		end := i + len(phrase)
		if boundaryBefore(s, i) && boundaryAfter(s, end) {
			return i
		}
		from = i + 1
	}
	return -1
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordChar(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordChar(r)
}

func isWordChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\''
}
