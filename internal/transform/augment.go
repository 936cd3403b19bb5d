package transform

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"agriqa/internal/lexicon"
	"agriqa/internal/nlp"
	"agriqa/internal/random"
)

// Technique names one augmentation transform.
type Technique string

const (
	Misspelling          Technique = "misspelling"
	WordReplacement      Technique = "word_replacement"
	PunctuationVariation Technique = "punctuation_variation"
	WordOrder            Technique = "word_order"
	Contraction          Technique = "contraction"
)

// Techniques lists the transforms in the order Apply picks from.
var Techniques = []Technique{Misspelling, WordReplacement, PunctuationVariation, WordOrder, Contraction}

const (
	misspellPattern = 0.7
	synonymChance   = 0.3
	commaChance     = 0.4
	moveSpanChance  = 0.6
	moveToFront     = 0.5
	adjectiveSwap   = 0.4
	expandChance    = 0.6
)

type misspelling struct {
	from, to  string
	wholeWord bool
}

var misspellings = []misspelling{
	{"ie", "ei", false},
	{"ei", "ie", false},
	{"a", "e", false},
	{"e", "a", false},
	{"to", "too", true},
	{"too", "to", true},
	{"your", "youre", true},
	{"youre", "your", true},
	{"their", "there", true},
	{"there", "their", true},
	{"its", "it's", true},
	{"it's", "its", true},
	{"affect", "effect", true},
	{"effect", "affect", true},
	{"than", "then", true},
	{"then", "than", true},
	{"lose", "loose", true},
	{"loose", "lose", true},
	{"ible", "able", false},
	{"able", "ible", false},
	{"tion", "sion", false},
	{"sion", "tion", false},
}

var questionEndings = []string{"?", "??", " ???", "? ", "? Hmm?", "?!", " ?"}

var statementEndings = []string{".", "...", "!", " !", " ...", ""}

// Augmenter applies the augmentation transforms.
type Augmenter struct {
	rng       *random.Stream
	tagger    *nlp.Tagger
	thesaurus *nlp.Thesaurus
}

func NewAugmenter(rng *random.Stream, tagger *nlp.Tagger, thesaurus *nlp.Thesaurus) *Augmenter {
	return &Augmenter{rng: rng, tagger: tagger, thesaurus: thesaurus}
}

// LexiconTagger returns a tagger that knows produce and plant parts as nouns
// and conditions as adjectives.
func LexiconTagger(lex *lexicon.Lexicon) *nlp.Tagger {
	extra := map[string]nlp.Tag{}
	for _, w := range lex.Produce() {
		extra[w] = nlp.Noun
	}
	for _, w := range lex.PlantParts {
		extra[w] = nlp.Noun
	}
	for _, w := range lex.Conditions {
		extra[w] = nlp.Adj
	}
	return nlp.NewTagger(extra)
}

// Apply picks one technique uniformly and applies it.
func (a *Augmenter) Apply(text string) (string, Technique) {
	t := random.Pick(a.rng, Techniques)
	return a.ApplyTechnique(t, text), t
}

func (a *Augmenter) ApplyTechnique(t Technique, text string) string {
	switch t {
	case Misspelling:
		return a.Misspell(text)
	case WordReplacement:
		return a.ReplaceSynonyms(text)
	case PunctuationVariation:
		return a.VaryPunctuation(text)
	case WordOrder:
		return a.VaryWordOrder(text)
	case Contraction:
		return a.ToggleContraction(text)
	}
	return text
}

// Misspell corrupts one or two distinct words, preferring a known confusion
// pattern and falling back to a character edit.
func (a *Augmenter) Misspell(text string) string {
	words := strings.Fields(text)
	if len(words) < 2 {
		return text
	}
	n := min(a.rng.Between(1, 2), len(words))
	for _, idx := range a.rng.Sample(len(words), n) {
		if out, ok := a.applyPattern(words[idx]); ok {
			words[idx] = out
			continue
		}
		lower := []rune(strings.ToLower(words[idx]))
		if len(lower) <= 3 {
			continue
		}
		kind := random.Pick(a.rng, typoKinds)
		pos := a.rng.Between(1, len(lower)-2)
		words[idx] = string(typo(lower, pos, kind))
	}
	return strings.Join(words, " ")
}

func (a *Augmenter) applyPattern(word string) (string, bool) {
	lower := strings.ToLower(word)
	for _, m := range misspellings {
		if m.wholeWord {
			if lower != m.from {
				continue
			}
		} else if !strings.Contains(lower, m.from) {
			continue
		}
		if !a.rng.Chance(misspellPattern) {
			continue
		}
		if m.wholeWord {
			return matchCase(word, m.to), true
		}
		return spliceFold(word, m.from, m.to), true
	}
	return word, false
}

// spliceFold replaces the first case-insensitive occurrence of from in s.
func spliceFold(s, from, to string) string {
	lower := strings.ToLower(s)
	if len(lower) != len(s) {
		return strings.Replace(s, from, to, 1)
	}
	i := strings.Index(lower, from)
	if i < 0 {
		return s
	}
	return s[:i] + to + s[i+len(from):]
}

// ReplaceSynonyms swaps some content words for thesaurus synonyms.
func (a *Augmenter) ReplaceSynonyms(text string) string {
	tokens := nlp.Tokenize(text)
	tags := a.tagger.Tag(tokens)
	changed := false
	for i, tok := range tokens {
		if !tags[i].Content() || utf8.RuneCountInString(tok) <= 3 || !a.rng.Chance(synonymChance) {
			continue
		}
		synonyms := a.thesaurus.Synonyms(tok)
		if len(synonyms) == 0 {
			continue
		}
		replacement := random.Pick(a.rng, synonyms)
		if r, _ := utf8.DecodeRuneInString(tok); unicode.IsUpper(r) {
			replacement = capitalize(replacement)
		}
		tokens[i] = replacement
		changed = true
	}
	if !changed {
		return text
	}
	return nlp.Detokenize(tokens)
}

// VaryPunctuation rewrites the terminal punctuation and may add a comma.
func (a *Augmenter) VaryPunctuation(text string) string {
	if strings.HasSuffix(strings.TrimRightFunc(text, unicode.IsSpace), "?") {
		ending := random.Pick(a.rng, questionEndings)
		if strings.HasSuffix(text, "?") {
			text = text[:len(text)-1] + ending
		} else {
			text += ending
		}
	} else {
		text = strings.TrimRight(text, ".!?") + random.Pick(a.rng, statementEndings)
	}

	words := strings.Fields(text)
	if len(words) > 5 && !strings.Contains(text, ",") && a.rng.Chance(commaChance) {
		pos := a.rng.Between(2, len(words)-2)
		words[pos] += ","
		text = strings.Join(words, " ")
	}
	return text
}

// VaryWordOrder moves a prepositional phrase of a question to its front or
// end, or swaps two adjacent interior adjectives.
func (a *Augmenter) VaryWordOrder(text string) string {
	tokens := nlp.Tokenize(text)
	tags := a.tagger.Tag(tokens)

	if strings.HasSuffix(text, "?") {
		spans := nlp.PrepSpans(tags)
		if len(spans) > 0 && a.rng.Chance(moveSpanChance) {
			span := random.Pick(a.rng, spans)
			phrase := append([]string(nil), tokens[span.Start:span.End+1]...)
			rest := make([]string, 0, len(tokens)-len(phrase))
			rest = append(rest, tokens[:span.Start]...)
			rest = append(rest, tokens[span.End+1:]...)

			if a.rng.Chance(moveToFront) && !punctIn(tokens, 3) {
				out := append(phrase, ",")
				return nlp.Detokenize(append(out, rest...))
			}
			if n := len(rest); n > 0 && rest[n-1] == "?" {
				out := append(rest[:n-1:n-1], phrase...)
				return nlp.Detokenize(append(out, "?"))
			}
			return nlp.Detokenize(append(rest, phrase...))
		}
	}

	adjectives := nlp.Adjectives(tags)
	if len(adjectives) > 0 && a.rng.Chance(adjectiveSwap) {
		pos := random.Pick(a.rng, adjectives)
		if tags[pos-1] == nlp.Adj {
			tokens[pos-1], tokens[pos] = tokens[pos], tokens[pos-1]
			return nlp.Detokenize(tokens)
		}
	}
	return text
}

func punctIn(tokens []string, n int) bool {
	for i := 0; i < n && i < len(tokens); i++ {
		if nlp.IsPunct(tokens[i]) {
			return true
		}
	}
	return false
}
