// Package lexicon holds the static vocabularies, persona registry and intent
// template bank the generator draws from. A Lexicon is loaded once and treated
// as read-only afterwards.
package lexicon

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// OutOfScope is the intent label for questions outside the produce domain.
const OutOfScope = "out_of_scope"

// DefaultErrorRate applies to personas that do not configure one.
const DefaultErrorRate = 0.1

var (
	ErrUnknownPersona = errors.New("unknown persona")
	ErrUnknownIntent  = errors.New("unknown intent")
	ErrNoTemplates    = errors.New("intent has no templates")
)

// TermVariants maps one standard term to its replacements.
type TermVariants struct {
	Term     string   `yaml:"term"`
	Variants []string `yaml:"variants"`
}

// Persona is a simulated question asker.
type Persona struct {
	Key           string              `yaml:"key"`
	Vocabulary    []string            `yaml:"vocabulary"`
	Complexity    Tier                `yaml:"complexity"`
	Interests     []string            `yaml:"interests"`
	QuestionStyle []string            `yaml:"question_style"`
	Regions       map[string][]string `yaml:"regions,omitempty"`
	Dialect       []TermVariants      `yaml:"dialect,omitempty"`
	Fillers       []string            `yaml:"fillers,omitempty"`
	ErrorRate     *float64            `yaml:"error_rate,omitempty"`
	Examples      []string            `yaml:"examples,omitempty"`
}

// Errors returns the probability that the speech pass injects an error.
func (p *Persona) Errors() float64 {
	if p.ErrorRate == nil {
		return DefaultErrorRate
	}
	return *p.ErrorRate
}

// Intent is a labeled template bank.
type Intent struct {
	Name      string            `yaml:"name"`
	Templates map[Tier][]string `yaml:"templates"`
}

// Resolve returns the tier whose templates serve a persona of tier want.
func (i *Intent) Resolve(want Tier) (Tier, []string, error) {
	for _, t := range want.Preference() {
		if templates := i.Templates[t]; len(templates) > 0 {
			return t, templates, nil
		}
	}
	return 0, nil, fmt.Errorf("%w: %s", ErrNoTemplates, i.Name)
}

// Weight is one entry of a categorical distribution.
type Weight struct {
	Key    string  `yaml:"key"`
	Weight float64 `yaml:"weight"`
}

// Distribution is an ordered categorical table. Order fixes the draw mapping.
type Distribution []Weight

func (d Distribution) Keys() []string {
	out := make([]string, len(d))
	for i, w := range d {
		out[i] = w.Key
	}
	return out
}

func (d Distribution) Weights() []float64 {
	out := make([]float64, len(d))
	for i, w := range d {
		out[i] = w.Weight
	}
	return out
}

// Share returns the weight for key, or 0.
func (d Distribution) Share(key string) float64 {
	for _, w := range d {
		if w.Key == key {
			return w.Weight
		}
	}
	return 0
}

// Targets are the distributions the corpus assembler aims for.
type Targets struct {
	Personas           Distribution `yaml:"personas"`
	Intents            Distribution `yaml:"intents"`
	OutOfScopeFraction float64      `yaml:"out_of_scope_fraction"`
}

// Lexicon is the full static configuration of the generator.
type Lexicon struct {
	Fruits           []string       `yaml:"fruits"`
	Vegetables       []string       `yaml:"vegetables"`
	PlantParts       []string       `yaml:"plant_parts"`
	Conditions       []string       `yaml:"conditions"`
	Diseases         []string       `yaml:"diseases"`
	FruitOnlyIntents []string       `yaml:"fruit_only_intents"`
	GenericTerms     []TermVariants `yaml:"generic_terms"`
	Connectors       []string       `yaml:"connectors"`
	Personas         []*Persona     `yaml:"personas"`
	Intents          []*Intent      `yaml:"intents"`
	OutOfScope       []string       `yaml:"out_of_scope"`
	Targets          Targets        `yaml:"targets"`

	personas map[string]*Persona
	intents  map[string]*Intent
	produce  []string
}

// index builds lookup tables. It is called by the loaders.
func (l *Lexicon) index() {
	l.personas = make(map[string]*Persona, len(l.Personas))
	for _, p := range l.Personas {
		l.personas[p.Key] = p
	}
	l.intents = make(map[string]*Intent, len(l.Intents))
	for _, in := range l.Intents {
		l.intents[in.Name] = in
	}
	l.produce = make([]string, 0, len(l.Fruits)+len(l.Vegetables))
	l.produce = append(l.produce, l.Fruits...)
	l.produce = append(l.produce, l.Vegetables...)
}

// Persona looks up a persona by key.
func (l *Lexicon) Persona(key string) (*Persona, error) {
	p, ok := l.personas[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPersona, key)
	}
	return p, nil
}

// Intent looks up an in-scope intent by name.
func (l *Lexicon) Intent(name string) (*Intent, error) {
	in, ok := l.intents[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIntent, name)
	}
	return in, nil
}

// PersonaKeys returns persona keys in registry order.
func (l *Lexicon) PersonaKeys() []string {
	out := make([]string, len(l.Personas))
	for i, p := range l.Personas {
		out[i] = p.Key
	}
	return out
}

// IntentNames returns in-scope intent names in bank order.
func (l *Lexicon) IntentNames() []string {
	out := make([]string, len(l.Intents))
	for i, in := range l.Intents {
		out[i] = in.Name
	}
	return out
}

// Produce returns fruits followed by vegetables.
func (l *Lexicon) Produce() []string {
	return l.produce
}

// FruitOnly reports whether produce for intent is drawn from fruits alone.
func (l *Lexicon) FruitOnly(intent string) bool {
	for _, name := range l.FruitOnlyIntents {
		if name == intent {
			return true
		}
	}
	return false
}

// UsesDiseases reports whether conditions for intent come from the disease list.
func UsesDiseases(intent string) bool {
	return strings.Contains(intent, "disease") || strings.Contains(intent, "pest")
}

// IsProduce reports whether s is in the fruit or vegetable vocabulary.
func (l *Lexicon) IsProduce(s string) bool {
	return contains(l.produce, s)
}

// IsCondition reports whether s is in the condition or disease vocabulary.
func (l *Lexicon) IsCondition(s string) bool {
	return contains(l.Conditions, s) || contains(l.Diseases, s)
}

// Validate checks the lexicon for the configuration errors the generator
// cannot recover from at runtime.
func (l *Lexicon) Validate() error {
	var problems []string
	if len(l.Fruits) == 0 {
		problems = append(problems, "fruits is empty")
	}
	if len(l.Conditions) == 0 {
		problems = append(problems, "conditions is empty")
	}
	if len(l.Diseases) == 0 {
		problems = append(problems, "diseases is empty")
	}
	if len(l.Personas) == 0 {
		problems = append(problems, "no personas defined")
	}
	if len(l.OutOfScope) == 0 {
		problems = append(problems, "out_of_scope pool is empty")
	}
	seen := map[string]bool{}
	for _, p := range l.Personas {
		if p.Key == "" {
			problems = append(problems, "persona with empty key")
			continue
		}
		if seen[p.Key] {
			problems = append(problems, fmt.Sprintf("duplicate persona %q", p.Key))
		}
		seen[p.Key] = true
		if rate := p.Errors(); rate < 0 || rate > 1 {
			problems = append(problems, fmt.Sprintf("persona %q error_rate %.2f outside [0,1]", p.Key, rate))
		}
	}
	for _, in := range l.Intents {
		if in.Name == OutOfScope {
			problems = append(problems, "out_of_scope must be defined by the out_of_scope pool, not as a templated intent")
			continue
		}
		if _, _, err := in.Resolve(TierMedium); err != nil {
			problems = append(problems, err.Error())
		}
	}
	problems = append(problems, l.checkDistribution("personas", l.Targets.Personas, l.personas != nil, func(k string) bool {
		_, ok := l.personas[k]
		return ok
	})...)
	problems = append(problems, l.checkDistribution("intents", l.Targets.Intents, l.intents != nil, func(k string) bool {
		_, ok := l.intents[k]
		return ok
	})...)
	if f := l.Targets.OutOfScopeFraction; f < 0 || f >= 1 {
		problems = append(problems, fmt.Sprintf("out_of_scope_fraction %.2f outside [0,1)", f))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid lexicon: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (l *Lexicon) checkDistribution(name string, d Distribution, indexed bool, known func(string) bool) []string {
	var problems []string
	if len(d) == 0 {
		return []string{fmt.Sprintf("%s distribution is empty", name)}
	}
	sum := 0.0
	for _, w := range d {
		if w.Weight < 0 {
			problems = append(problems, fmt.Sprintf("%s weight for %q is negative", name, w.Key))
		}
		if indexed && !known(w.Key) {
			problems = append(problems, fmt.Sprintf("%s distribution references unknown key %q", name, w.Key))
		}
		sum += w.Weight
	}
	if math.Abs(sum-1) > 1e-6 {
		problems = append(problems, fmt.Sprintf("%s distribution sums to %.4f, want 1", name, sum))
	}
	return problems
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
