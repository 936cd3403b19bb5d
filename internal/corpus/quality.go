package corpus

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Quality thresholds in words.
const (
	ShortQuestionWords = 3
	LongQuestionWords  = 30
)

// SamplePersonas are the personas shown in the per-intent examples.
var SamplePersonas = []string{"scientist", "farmer", "final_consumer"}

// Count is one tallied value.
type Count struct {
	Key   string  `json:"key"`
	Count int     `json:"count"`
	Share float64 `json:"share"`
}

// LengthStats summarizes a length measure.
type LengthStats struct {
	Mean float64 `json:"mean"`
	Min  int     `json:"min"`
	Max  int     `json:"max"`
}

// PersonaLength is the mean question size of one persona.
type PersonaLength struct {
	Persona   string  `json:"persona"`
	MeanChars float64 `json:"mean_chars"`
	MeanWords float64 `json:"mean_words"`
}

// Example is a sample question for an intent and persona.
type Example struct {
	Intent   string `json:"intent"`
	Persona  string `json:"persona"`
	Question string `json:"question"`
}

// QualityReport is the textual dataset analysis.
type QualityReport struct {
	Size           int                       `json:"size"`
	Duplicates     int                       `json:"duplicates"`
	DuplicateRate  float64                   `json:"duplicate_rate"`
	Intents        []Count                   `json:"intents"`
	Personas       []Count                   `json:"personas"`
	TopProduce     []Count                   `json:"top_produce"`
	TopConditions  []Count                   `json:"top_conditions"`
	Chars          LengthStats               `json:"chars"`
	Words          LengthStats               `json:"words"`
	PersonaLengths []PersonaLength           `json:"persona_lengths"`
	ShortCount     int                       `json:"short_count"`
	ShortSamples   []string                  `json:"short_samples"`
	LongCount      int                       `json:"long_count"`
	LongSamples    []string                  `json:"long_samples"`
	TopWords       []Count                   `json:"top_words"`
	Examples       []Example                 `json:"examples"`
	IntentPersona  map[string]map[string]int `json:"intent_persona"`
	UniqueProduce  int                       `json:"unique_produce"`
	UniqueIntents  int                       `json:"unique_intents"`
	UniquePersonas int                       `json:"unique_personas"`
}

// Analyze computes the quality report of a table. Ties in every ranking are
// broken by key so the report is deterministic.
func Analyze(t Table) QualityReport {
	rep := QualityReport{Size: len(t), IntentPersona: map[string]map[string]int{}}
	if len(t) == 0 {
		return rep
	}
	rep.Duplicates = t.Duplicates()
	rep.DuplicateRate = float64(rep.Duplicates) / float64(len(t))

	intents := map[string]int{}
	personas := map[string]int{}
	produce := map[string]int{}
	conditions := map[string]int{}
	words := map[string]int{}
	personaChars := map[string]int{}
	personaWords := map[string]int{}
	var intentOrder []string
	examples := map[string]map[string]string{}

	rep.Chars.Min, rep.Words.Min = int(^uint(0)>>1), int(^uint(0)>>1)
	totalChars, totalWords := 0, 0

	for _, r := range t {
		if _, ok := intents[r.Intent]; !ok {
			intentOrder = append(intentOrder, r.Intent)
		}
		intents[r.Intent]++
		personas[r.Persona]++
		if r.Produce != "" {
			produce[r.Produce]++
		}
		if r.Condition != "" {
			conditions[r.Condition]++
		}
		if rep.IntentPersona[r.Intent] == nil {
			rep.IntentPersona[r.Intent] = map[string]int{}
		}
		rep.IntentPersona[r.Intent][r.Persona]++

		fields := strings.Fields(r.Question)
		nc, nw := utf8.RuneCountInString(r.Question), len(fields)
		totalChars += nc
		totalWords += nw
		rep.Chars.Min, rep.Chars.Max = min(rep.Chars.Min, nc), max(rep.Chars.Max, nc)
		rep.Words.Min, rep.Words.Max = min(rep.Words.Min, nw), max(rep.Words.Max, nw)
		personaChars[r.Persona] += nc
		personaWords[r.Persona] += nw

		if nw < ShortQuestionWords {
			rep.ShortCount++
			if len(rep.ShortSamples) < 3 {
				rep.ShortSamples = append(rep.ShortSamples, r.Question)
			}
		}
		if nw > LongQuestionWords {
			rep.LongCount++
			if len(rep.LongSamples) < 3 {
				rep.LongSamples = append(rep.LongSamples, r.Question)
			}
		}
		for _, w := range strings.Fields(strings.ToLower(r.Question)) {
			words[w]++
		}

		if examples[r.Intent] == nil {
			examples[r.Intent] = map[string]string{}
		}
		if _, ok := examples[r.Intent][r.Persona]; !ok {
			examples[r.Intent][r.Persona] = r.Question
		}
	}

	n := float64(len(t))
	rep.Chars.Mean = float64(totalChars) / n
	rep.Words.Mean = float64(totalWords) / n
	rep.Intents = ranked(intents, len(t), 0)
	rep.Personas = ranked(personas, len(t), 0)
	rep.TopProduce = ranked(produce, len(t), 10)
	rep.TopConditions = ranked(conditions, len(t), 10)
	rep.TopWords = ranked(words, totalWords, 15)
	rep.UniqueProduce = len(produce)
	rep.UniqueIntents = len(intents)
	rep.UniquePersonas = len(personas)

	for p, c := range personas {
		rep.PersonaLengths = append(rep.PersonaLengths, PersonaLength{
			Persona:   p,
			MeanChars: float64(personaChars[p]) / float64(c),
			MeanWords: float64(personaWords[p]) / float64(c),
		})
	}
	sort.Slice(rep.PersonaLengths, func(i, j int) bool {
		a, b := rep.PersonaLengths[i], rep.PersonaLengths[j]
		if a.MeanChars != b.MeanChars {
			return a.MeanChars > b.MeanChars
		}
		return a.Persona < b.Persona
	})

	for _, intent := range intentOrder {
		for _, p := range SamplePersonas {
			if q, ok := examples[intent][p]; ok {
				rep.Examples = append(rep.Examples, Example{Intent: intent, Persona: p, Question: q})
			}
		}
	}
	return rep
}

// ranked sorts counts descending, then by key, keeping at most limit entries
// (all when limit is 0). Shares are relative to total.
func ranked(counts map[string]int, total, limit int) []Count {
	out := make([]Count, 0, len(counts))
	for k, c := range counts {
		share := 0.0
		if total > 0 {
			share = float64(c) / float64(total)
		}
		out = append(out, Count{Key: k, Count: c, Share: share})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
