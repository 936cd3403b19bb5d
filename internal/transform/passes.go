// Package transform implements the text passes applied to a question during
// synthesis and the augmentation transforms applied to finished records.
// Every pass draws from the shared random.Stream it was built with.
package transform

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"agriqa/internal/lexicon"
	"agriqa/internal/nlp"
	"agriqa/internal/random"
)

// Probabilities of the vocabulary and speech passes.
const (
	vocabularyGate   = 0.3
	vocabularySwap   = 0.4
	vocabularyInsert = 0.2
	fillerChance     = 0.15
	grammarFlip      = 0.4
	regionalGate     = 0.2
	regionalSwap     = 0.4
)

// StyleRules are the per-tag probabilities of the style pass.
type StyleRules struct {
	Direct     float64
	Technical  float64
	Analytical float64
}

// DefaultStyleRules are the production probabilities.
var DefaultStyleRules = StyleRules{Direct: 0.3, Technical: 0.4, Analytical: 0.35}

var technicalPrefixes = []string{
	"From a technical standpoint, ",
	"Considering the physiological aspects, ",
	"In terms of agricultural science, ",
	"Based on morphological characteristics, ",
}

var analyticalPrefixes = []string{
	"Could you analyze ",
	"I need an analysis of ",
	"What analysis would explain ",
	"Can you evaluate ",
}

// Passes holds the synthesis-time passes.
type Passes struct {
	lex   *lexicon.Lexicon
	rng   *random.Stream
	Style StyleRules
}

func NewPasses(lex *lexicon.Lexicon, rng *random.Stream) *Passes {
	return &Passes{lex: lex, rng: rng, Style: DefaultStyleRules}
}

// InjectVocabulary swaps at most one generic term for a matching persona term
// and may splice a connector phrase with a persona term into the question.
func (p *Passes) InjectVocabulary(question string, persona *lexicon.Persona) string {
	if !p.rng.Chance(vocabularyGate) || len(persona.Vocabulary) == 0 {
		return question
	}
	tokens := nlp.Tokenize(question)
	changed := false

scan:
	for i, tok := range tokens {
		lower := strings.ToLower(tok)
		for _, generic := range p.lex.GenericTerms {
			if lower != generic.Term || !p.rng.Chance(vocabularySwap) {
				continue
			}
			relevant := relevantTerms(persona.Vocabulary, generic)
			if len(relevant) > 0 {
				tokens[i] = random.Pick(p.rng, relevant)
				changed = true
				break scan
			}
		}
	}

	if p.rng.Chance(vocabularyInsert) && len(tokens) > 3 && len(p.lex.Connectors) > 0 {
		pos := p.rng.Between(1, len(tokens)-2)
		connector := random.Pick(p.rng, p.lex.Connectors)
		term := random.Pick(p.rng, persona.Vocabulary)
		tokens = insert(tokens, pos, connector, term)
		changed = true
	}

	if !changed {
		return question
	}
	return nlp.Detokenize(tokens)
}

// relevantTerms returns the persona terms containing the generic term or any
// of its variants.
func relevantTerms(vocabulary []string, generic lexicon.TermVariants) []string {
	needles := append([]string{generic.Term}, generic.Variants...)
	var out []string
	for _, term := range vocabulary {
		for _, n := range needles {
			if strings.Contains(term, n) {
				out = append(out, term)
				break
			}
		}
	}
	return out
}

// ApplyStyle reshapes the question according to the persona's style tags.
// Tags are evaluated direct, technical, analytical; each rewrite works on the
// clause left by the previous one.
func (p *Passes) ApplyStyle(question string, tags []string) string {
	has := func(tag string) bool { return slices.Contains(tags, tag) }

	if has("direct") {
		words := strings.Fields(clause(question))
		if p.rng.Chance(p.Style.Direct) && len(words) > 5 {
			question = strings.Join(words[:len(words)/2], " ") + "?"
		}
	}
	if has("technical") && p.rng.Chance(p.Style.Technical) {
		prefix := random.Pick(p.rng, technicalPrefixes)
		question = prefix + strings.ToLower(clause(question)) + "?"
	}
	if has("analytical") && p.rng.Chance(p.Style.Analytical) {
		prefix := random.Pick(p.rng, analyticalPrefixes)
		question = prefix + strings.ToLower(clause(question)) + "?"
	}

	if question == "" {
		return question
	}
	if !strings.HasSuffix(question, "?") && !strings.HasSuffix(question, "!") && !strings.HasSuffix(question, ".") {
		question += "?"
	}
	return capitalize(question)
}

// AddSpeechPatterns layers filler words, a persona-rate error and a regional
// dialect substitution onto the question.
func (p *Passes) AddSpeechPatterns(question string, persona *lexicon.Persona) string {
	if len(persona.Fillers) > 0 && p.rng.Chance(fillerChance) {
		words := strings.Fields(question)
		pos := p.rng.Between(1, max(2, len(words)-1))
		filler := random.Pick(p.rng, persona.Fillers)
		question = strings.Join(insert(words, pos, filler), " ")
	}

	if p.rng.Chance(persona.Errors()) {
		question = p.injectError(question)
	}

	if len(persona.Dialect) > 0 && p.rng.Chance(regionalGate) {
		question = p.regional(question, persona.Dialect)
	}
	return question
}

const (
	errTypo           = "typo"
	errGrammar        = "grammar"
	errPunctuation    = "punctuation"
	errCapitalization = "capitalization"
)

var errorKinds = []string{errTypo, errGrammar, errPunctuation, errCapitalization}

func (p *Passes) injectError(question string) string {
	switch random.Pick(p.rng, errorKinds) {
	case errTypo:
		runes := []rune(question)
		if len(runes) <= 5 {
			return question
		}
		pos := p.rng.Between(1, len(runes)-2)
		return string(typo(runes, pos, random.Pick(p.rng, typoKinds)))
	case errGrammar:
		words := strings.Fields(question)
		for i, w := range words {
			flipped, ok := agreementFlips[strings.ToLower(w)]
			if !ok {
				continue
			}
			if p.rng.Chance(grammarFlip) {
				words[i] = matchCase(w, flipped)
			}
			break
		}
		return strings.Join(words, " ")
	case errPunctuation:
		return strings.TrimSuffix(question, "?")
	case errCapitalization:
		return lowerFirst(question)
	}
	return question
}

var agreementFlips = map[string]string{"is": "are", "are": "is", "was": "were", "were": "was"}

const (
	editSwap      = "swap"
	editOmit      = "omit"
	editDuplicate = "duplicate"
)

var typoKinds = []string{editSwap, editOmit, editDuplicate}

// typo applies one character edit at pos. pos must be in [0, len(runes)).
func typo(runes []rune, pos int, kind string) []rune {
	out := make([]rune, 0, len(runes)+1)
	switch kind {
	case editSwap:
		out = append(out, runes...)
		if pos < len(out)-1 {
			out[pos], out[pos+1] = out[pos+1], out[pos]
		}
	case editOmit:
		out = append(out, runes[:pos]...)
		out = append(out, runes[pos+1:]...)
	case editDuplicate:
		out = append(out, runes[:pos+1]...)
		out = append(out, runes[pos:]...)
	default:
		out = append(out, runes...)
	}
	return out
}

// regional tries the dialect terms in order. Each term present in the
// question gets one swap draw; the first successful draw replaces its first
// occurrence and ends the pass.
func (p *Passes) regional(question string, dialect []lexicon.TermVariants) string {
	tokens := nlp.Tokenize(question)
	for _, d := range dialect {
		if len(d.Variants) == 0 {
			continue
		}
		i := slices.IndexFunc(tokens, func(tok string) bool { return strings.ToLower(tok) == d.Term })
		if i < 0 || !p.rng.Chance(regionalSwap) {
			continue
		}
		tokens[i] = random.Pick(p.rng, d.Variants)
		return nlp.Detokenize(tokens)
	}
	return question
}

func clause(s string) string {
	return strings.TrimRight(s, "?!.,")
}

func insert(items []string, pos int, values ...string) []string {
	if pos > len(items) {
		pos = len(items)
	}
	out := make([]string, 0, len(items)+len(values))
	out = append(out, items[:pos]...)
	out = append(out, values...)
	return append(out, items[pos:]...)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

// matchCase gives replacement the capitalization of the first letter of orig.
func matchCase(orig, replacement string) string {
	r, _ := utf8.DecodeRuneInString(orig)
	if unicode.IsUpper(r) {
		return capitalize(replacement)
	}
	return replacement
}
