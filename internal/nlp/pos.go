package nlp

import (
	"regexp"
	"strings"
)

// Tag is a coarse universal part-of-speech tag.
type Tag string

const (
	Noun  Tag = "NOUN"
	Verb  Tag = "VERB"
	Adj   Tag = "ADJ"
	Adv   Tag = "ADV"
	Adp   Tag = "ADP"
	Det   Tag = "DET"
	Pron  Tag = "PRON"
	Aux   Tag = "AUX"
	Conj  Tag = "CCONJ"
	Part  Tag = "PART"
	Num   Tag = "NUM"
	Punct Tag = "PUNCT"
	Intj  Tag = "INTJ"
)

// Content reports whether t is an open-class tag eligible for synonym lookup.
func (t Tag) Content() bool {
	switch t {
	case Noun, Verb, Adj, Adv:
		return true
	}
	return false
}

var closedClass = map[string]Tag{}

func init() {
	for tag, words := range map[Tag]string{
		Det:  "a an the this that these those my your his her its our their some any each every no all both another which what whose",
		Pron: "i you he she it we they me him us them mine yours something anything someone everything who whom",
		Adp:  "about above across after against along among around at before behind below beneath beside between beyond by during for from in inside into near of off on onto out outside over per through throughout toward towards under until upon via with within without",
		Aux:  "is are was were be been being am do does did have has had will would can could should shall may might must isn't aren't wasn't weren't don't doesn't didn't won't wouldn't can't couldn't shouldn't mustn't haven't hasn't hadn't",
		Conj: "and or but nor yet so",
		Part: "to not n't 's",
		Adv:  "when where why how very too also still just only already well here there now then again soon often always never really quite rather even almost once typically",
		Intj: "hmm um uh oh ah wow yeah please",
	} {
		for _, w := range strings.Fields(words) {
			closedClass[w] = tag
		}
	}
}

var commonWords = map[string]Tag{
	"good": Adj, "bad": Adj, "safe": Adj, "okay": Adj, "ok": Adj, "fresh": Adj, "ripe": Adj,
	"ready": Adj, "normal": Adj, "healthy": Adj, "best": Adj, "optimal": Adj, "common": Adj,
	"special": Adj, "specific": Adj, "potential": Adj, "possible": Adj, "similar": Adj,
	"commercial": Adj, "premium": Adj, "long": Adj, "other": Adj, "proper": Adj, "peak": Adj,
	"edible": Adj, "visual": Adj, "dry": Adj, "ideal": Adj, "wild": Adj, "native": Adj,
	"soft": Adj, "hard": Adj, "firm": Adj, "green": Adj, "red": Adj, "brown": Adj,
	"yellow": Adj, "dark": Adj, "pale": Adj, "sour": Adj, "warm": Adj, "whole": Adj,
	"integrated": Adj, "controlled": Adj, "modified": Adj, "various": Adj, "many": Adj,
	"much": Adj, "unusual": Adj, "acceptable": Adj, "marketable": Adj, "stored": Adj,
	"eat": Verb, "grow": Verb, "store": Verb, "keep": Verb, "pick": Verb, "plant": Verb,
	"harvest": Verb, "know": Verb, "tell": Verb, "look": Verb, "looks": Verb, "get": Verb,
	"put": Verb, "throw": Verb, "sell": Verb, "buy": Verb, "accept": Verb, "identify": Verb,
	"determine": Verb, "assess": Verb, "evaluate": Verb, "control": Verb, "prevent": Verb,
	"recommend": Verb, "explain": Verb, "affect": Verb, "cause": Verb, "causes": Verb,
	"need": Verb, "help": Verb, "distinguish": Verb, "differentiate": Verb, "classify": Verb,
	"indicate": Verb, "correlate": Verb, "occur": Verb, "provide": Verb, "compare": Verb,
	"extend": Verb, "maximize": Verb, "optimize": Verb, "implement": Verb, "adjust": Verb,
	"confirm": Verb, "measure": Verb, "quantify": Verb, "consume": Verb, "become": Verb,
	"leave": Verb, "go": Verb, "last": Verb, "work": Verb, "works": Verb, "meet": Verb,
	"qualify": Verb, "receive": Verb, "influence": Verb, "impact": Verb, "signal": Verb,
	"correspond": Verb, "contribute": Verb, "exist": Verb, "shows": Verb, "stop": Verb,
	"rid": Verb, "eating": Verb, "growing": Verb, "infecting": Verb, "harming": Verb,
	"causing": Verb, "affecting": Verb, "managing": Verb, "contributing": Verb,
	"called": Verb, "used": Verb, "monitored": Verb, "based": Verb, "classified": Verb,
	"fruit": Noun, "soil": Noun, "water": Noun, "quality": Noun, "disease": Noun,
	"fridge": Noun, "market": Noun, "variety": Noun, "pest": Noun, "sugar": Noun,
	"leaves": Noun, "bugs": Noun, "insects": Noun, "spots": Noun, "holes": Noun,
	"time": Noun, "way": Noun, "kind": Noun, "type": Noun, "lot": Noun, "signs": Noun,
	"customers": Noun, "stores": Noun, "crop": Noun, "storage": Noun, "grade": Noun,
}

type rule struct {
	re  *regexp.Regexp
	tag Tag
}

// Suffix rules are tried in order after the word tables miss.
var suffixRules = []rule{
	{regexp.MustCompile(`^[0-9]+([.,][0-9]+)?$`), Num},
	{regexp.MustCompile(`^[a-z]+ly$`), Adv},
	{regexp.MustCompile(`^[a-z]+(ness|ment|tion|sion|ance|ence|ity|ism|ship|ure|age)s?$`), Noun},
	{regexp.MustCompile(`^[a-z]+(ous|ful|less|able|ible|ive|ic|ical|al|ary|ish|ant|ent)$`), Adj},
	{regexp.MustCompile(`^[a-z]+(ize|ise|ify|ate)$`), Verb},
	{regexp.MustCompile(`^[a-z]+ing$`), Verb},
	{regexp.MustCompile(`^[a-z]+(ed|en)$`), Verb},
	{regexp.MustCompile(`^[a-z]+(est|er)$`), Adj},
}

// Tagger assigns coarse tags from closed-class tables, a vocabulary table
// and ordered suffix rules, then applies a few contextual corrections.
type Tagger struct {
	words map[string]Tag
}

// NewTagger returns a tagger whose vocabulary table is the built-in one
// extended with extra. Multi-word keys are ignored.
func NewTagger(extra map[string]Tag) *Tagger {
	words := make(map[string]Tag, len(commonWords)+len(extra))
	for w, t := range commonWords {
		words[w] = t
	}
	for w, t := range extra {
		w = strings.ToLower(w)
		if strings.Contains(w, " ") {
			continue
		}
		words[w] = t
	}
	return &Tagger{words: words}
}

// Tag returns one tag per token.
func (tg *Tagger) Tag(tokens []string) []Tag {
	tags := make([]Tag, len(tokens))
	for i, tok := range tokens {
		tags[i] = tg.lookup(tok)
	}
	for i := range tags {
		lower := strings.ToLower(tokens[i])
		switch {
		// "to" before a verb-like token is a particle, elsewhere a preposition.
		case lower == "to":
			if i+1 < len(tags) && tags[i+1] == Verb {
				tags[i] = Part
			} else {
				tags[i] = Adp
			}
		// Participles directly before a noun, or after a linking verb, describe it.
		case tags[i] == Verb && strings.HasSuffix(lower, "ed"):
			if i+1 < len(tags) && tags[i+1] == Noun {
				tags[i] = Adj
			} else if i > 0 && tags[i-1] == Aux {
				tags[i] = Adj
			}
		// A noun-suffixed unknown after a determiner and before a noun is a modifier.
		case tags[i] == Noun && i > 0 && tags[i-1] == Det && i+1 < len(tags) && tags[i+1] == Noun:
			if _, known := tg.words[lower]; !known {
				tags[i] = Adj
			}
		}
	}
	return tags
}

func (tg *Tagger) lookup(tok string) Tag {
	if IsPunct(tok) {
		return Punct
	}
	lower := strings.ToLower(tok)
	if t, ok := closedClass[lower]; ok {
		return t
	}
	if t, ok := tg.words[lower]; ok {
		return t
	}
	if strings.HasSuffix(lower, "'s") || strings.HasSuffix(lower, "'re") || strings.HasSuffix(lower, "'m") {
		return Pron
	}
	for _, r := range suffixRules {
		if r.re.MatchString(lower) {
			return r.tag
		}
	}
	return Noun
}
