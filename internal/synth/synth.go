// Package synth turns a (persona, intent) pair into one labeled question.
package synth

import (
	"fmt"
	"strings"

	"agriqa/internal/lexicon"
	"agriqa/internal/random"
	"agriqa/internal/transform"
)

// Metadata describes how a question was produced.
type Metadata struct {
	Persona     string
	Intent      string
	Produce     string
	Condition   string
	Template    string
	Tier        lexicon.Tier
	PersonaTier lexicon.Tier
}

// Synthesizer fills intent templates and runs the persona passes over them.
type Synthesizer struct {
	lex    *lexicon.Lexicon
	rng    *random.Stream
	passes *transform.Passes
}

func New(lex *lexicon.Lexicon, rng *random.Stream) *Synthesizer {
	return &Synthesizer{lex: lex, rng: rng, passes: transform.NewPasses(lex, rng)}
}

// Passes exposes the text passes so callers can tune their rules.
func (s *Synthesizer) Passes() *transform.Passes {
	return s.passes
}

// Synthesize builds one in-scope question. Empty produce or condition are
// drawn from the lexicon.
func (s *Synthesizer) Synthesize(personaKey, intentName, produce, condition string) (string, Metadata, error) {
	persona, err := s.lex.Persona(personaKey)
	if err != nil {
		return "", Metadata{}, err
	}
	intent, err := s.lex.Intent(intentName)
	if err != nil {
		return "", Metadata{}, err
	}

	if produce == "" {
		if s.lex.FruitOnly(intentName) {
			produce = random.Pick(s.rng, s.lex.Fruits)
		} else {
			produce = random.Pick(s.rng, s.lex.Produce())
		}
	}
	if condition == "" {
		if lexicon.UsesDiseases(intentName) {
			condition = random.Pick(s.rng, s.lex.Diseases)
		} else {
			condition = random.Pick(s.rng, s.lex.Conditions)
		}
	}

	tier, templates, err := intent.Resolve(persona.Complexity)
	if err != nil {
		return "", Metadata{}, fmt.Errorf("persona %s: %w", personaKey, err)
	}
	template := random.Pick(s.rng, templates)

	question := strings.ReplaceAll(template, "{produce}", produce)
	question = strings.ReplaceAll(question, "{condition}", condition)
	question = s.passes.InjectVocabulary(question, persona)
	question = s.passes.ApplyStyle(question, persona.QuestionStyle)
	question = s.passes.AddSpeechPatterns(question, persona)

	return question, Metadata{
		Persona:     personaKey,
		Intent:      intentName,
		Produce:     produce,
		Condition:   condition,
		Template:    template,
		Tier:        tier,
		PersonaTier: persona.Complexity,
	}, nil
}

// OutOfScope draws a question from the out-of-scope pool and applies only the
// persona's speech patterns. Produce and condition stay empty.
func (s *Synthesizer) OutOfScope(personaKey string) (string, Metadata, error) {
	persona, err := s.lex.Persona(personaKey)
	if err != nil {
		return "", Metadata{}, err
	}
	base := random.Pick(s.rng, s.lex.OutOfScope)
	return s.passes.AddSpeechPatterns(base, persona), Metadata{
		Persona:     personaKey,
		Intent:      lexicon.OutOfScope,
		Template:    base,
		PersonaTier: persona.Complexity,
	}, nil
}
