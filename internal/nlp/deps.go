package nlp

// Span is an inclusive token range.
type Span struct {
	Start, End int
}

// Len returns the number of tokens in the span.
func (s Span) Len() int { return s.End - s.Start + 1 }

// PrepSpans finds prepositional phrases: a preposition followed by the noun
// phrase it governs. The object is any run of determiners, modifiers and
// numbers closed by a noun (compounds included) or a pronoun. A span ends at
// the first token that cannot continue the object, which may itself open the
// next span. Prepositions without an object yield no span.
func PrepSpans(tags []Tag) []Span {
	var spans []Span
	start, head := -1, false
	closeAt := func(end int) {
		if start >= 0 && head {
			spans = append(spans, Span{start, end})
		}
		start, head = -1, false
	}
	for i, t := range tags {
		if t == Adp {
			closeAt(i - 1)
			start = i
			continue
		}
		if start < 0 {
			continue
		}
		switch {
		case head && t == Noun && tags[i-1] == Noun:
		case !head && (t == Det || t == Adj || t == Num):
		case !head && (t == Noun || t == Pron):
			head = true
		default:
			closeAt(i - 1)
		}
	}
	closeAt(len(tags) - 1)
	return spans
}

// Adjectives returns interior adjective positions: neither the first nor the
// last token.
func Adjectives(tags []Tag) []int {
	var out []int
	for i := 1; i < len(tags)-1; i++ {
		if tags[i] == Adj {
			out = append(out, i)
		}
	}
	return out
}
