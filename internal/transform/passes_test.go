package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agriqa/internal/lexicon"
	"agriqa/internal/random"
)

func testLexicon(t *testing.T) *lexicon.Lexicon {
	t.Helper()
	lex, err := lexicon.Default()
	require.NoError(t, err)
	return lex
}

func rate(v float64) *float64 { return &v }

func TestApplyStyle_ZeroProbabilityIsIdentity(t *testing.T) {
	p := NewPasses(testLexicon(t), random.New(42))
	p.Style = StyleRules{}
	tags := []string{"direct", "technical", "analytical"}

	for _, q := range []string{
		"Is this banana good?",
		"What are the optimal storage conditions for maintaining quality of kale?",
		"Can you assess the quality parameters of this brown banana for consumption safety?",
	} {
		assert.Equal(t, q, p.ApplyStyle(q, tags))
	}
}

func TestApplyStyle_Rules(t *testing.T) {
	long := "What are the optimal storage conditions for maintaining quality of kale?"
	tests := []struct {
		name  string
		rules StyleRules
		tags  []string
		in    string
		want  string
	}{
		{"direct shortens", StyleRules{Direct: 1}, []string{"direct"}, long, "What are the optimal storage?"},
		{"direct needs length", StyleRules{Direct: 1}, []string{"direct"}, "Is this kale ripe?", "Is this kale ripe?"},
		{"technical prefix", StyleRules{Technical: 1}, []string{"technical"}, "Is this banana good?", "From a technical standpoint, is this banana good?"},
		{"analytical prefix", StyleRules{Analytical: 1}, []string{"analytical"}, "Is this banana good?", "Could you analyze is this banana good?"},
		{"tags compound", StyleRules{Direct: 1, Analytical: 1}, []string{"analytical", "direct"}, long, "Could you analyze what are the optimal storage?"},
		{"unknown tag", StyleRules{Direct: 1, Technical: 1, Analytical: 1}, []string{"simple"}, "Is this ripe?", "Is this ripe?"},
		{"terminal and capital", StyleRules{}, nil, "is it ripe", "Is it ripe?"},
		{"keeps period", StyleRules{}, nil, "tell me.", "Tell me."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPasses(testLexicon(t), random.Always(0))
			p.Style = tt.rules
			assert.Equal(t, tt.want, p.ApplyStyle(tt.in, tt.tags))
		})
	}
}

func TestInjectVocabulary(t *testing.T) {
	lex := testLexicon(t)
	controller := &lexicon.Persona{Key: "qc", Vocabulary: []string{"defect", "quality check"}}
	farmer := &lexicon.Persona{Key: "f", Vocabulary: []string{"crop"}}

	t.Run("swaps one generic term", func(t *testing.T) {
		p := NewPasses(lex, random.FromSource(&random.Scripted{Floats: []float64{0, 0, 0.9}}))
		assert.Equal(t, "Is this apple quality check?", p.InjectVocabulary("Is this apple good?", controller))
	})
	t.Run("inserts connector phrase", func(t *testing.T) {
		src := &random.Scripted{Floats: []float64{0, 0}, Ints: []int{1, 0, 0}}
		p := NewPasses(lex, random.FromSource(src))
		assert.Equal(t, "Is this for crop apple ripe?", p.InjectVocabulary("Is this apple ripe?", farmer))
	})
	t.Run("gate closed", func(t *testing.T) {
		p := NewPasses(lex, random.Always(0.9))
		assert.Equal(t, "Is this apple good?", p.InjectVocabulary("Is this apple good?", controller))
	})
	t.Run("no vocabulary", func(t *testing.T) {
		p := NewPasses(lex, random.Always(0))
		assert.Equal(t, "Is this apple good?", p.InjectVocabulary("Is this apple good?", &lexicon.Persona{Key: "x"}))
	})
}

func TestAddSpeechPatterns_Errors(t *testing.T) {
	lex := testLexicon(t)
	always := &lexicon.Persona{Key: "always", ErrorRate: rate(1)}

	tests := []struct {
		name string
		src  *random.Scripted
		in   string
		want string
	}{
		{"grammar flip", &random.Scripted{Floats: []float64{0}, Ints: []int{1}}, "Is this apple ripe?", "Are this apple ripe?"},
		{"grammar lower", &random.Scripted{Floats: []float64{0}, Ints: []int{1}}, "Why were the leaves brown?", "Why was the leaves brown?"},
		{"grammar draw fails stops scan", &random.Scripted{Floats: []float64{0, 0.9}, Ints: []int{1}}, "Is this apple, is it?", "Is this apple, is it?"},
		{"punctuation", &random.Scripted{Floats: []float64{0}, Ints: []int{2}}, "Is this apple ripe?", "Is this apple ripe"},
		{"capitalization", &random.Scripted{Floats: []float64{0}, Ints: []int{3}}, "Is this apple ripe?", "is this apple ripe?"},
		{"typo swap", &random.Scripted{Floats: []float64{0}, Ints: []int{0, 2, 0}}, "abcdefg", "abcedfg"},
		{"typo omit", &random.Scripted{Floats: []float64{0}, Ints: []int{0, 2, 1}}, "abcdefg", "abcefg"},
		{"typo duplicate", &random.Scripted{Floats: []float64{0}, Ints: []int{0, 2, 2}}, "abcdefg", "abcddefg"},
		{"typo too short", &random.Scripted{Floats: []float64{0}, Ints: []int{0}}, "abcde", "abcde"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPasses(lex, random.FromSource(tt.src))
			assert.Equal(t, tt.want, p.AddSpeechPatterns(tt.in, always))
		})
	}
}

func TestAddSpeechPatterns_Filler(t *testing.T) {
	persona := &lexicon.Persona{Key: "f", Fillers: []string{"like"}, ErrorRate: rate(0)}
	src := &random.Scripted{Floats: []float64{0, 0.5}, Ints: []int{0, 0}}
	p := NewPasses(testLexicon(t), random.FromSource(src))
	assert.Equal(t, "Is like it ripe?", p.AddSpeechPatterns("Is it ripe?", persona))
}

func TestAddSpeechPatterns_Regional(t *testing.T) {
	persona := &lexicon.Persona{
		Key:       "c",
		ErrorRate: rate(0),
		Dialect:   []lexicon.TermVariants{{Term: "vegetable", Variants: []string{"veg", "veggie"}}},
	}
	src := &random.Scripted{Floats: []float64{0.5, 0, 0}, Ints: []int{1}}
	p := NewPasses(testLexicon(t), random.FromSource(src))
	assert.Equal(t, "Is this veggie fresh?", p.AddSpeechPatterns("Is this vegetable fresh?", persona))

	p = NewPasses(testLexicon(t), random.FromSource(&random.Scripted{Floats: []float64{0.5, 0, 0.9}}))
	assert.Equal(t, "Is this vegetable fresh?", p.AddSpeechPatterns("Is this vegetable fresh?", persona))
}

func TestAddSpeechPatterns_RegionalTriesLaterTerms(t *testing.T) {
	farmer := &lexicon.Persona{
		Key:       "farmer",
		ErrorRate: rate(0),
		Dialect: []lexicon.TermVariants{
			{Term: "vegetable", Variants: []string{"veg"}},
			{Term: "problem", Variants: []string{"trouble", "issue"}},
		},
	}
	tests := []struct {
		name   string
		floats []float64
		want   string
	}{
		{"first term swaps", []float64{0.5, 0, 0}, "Is this veg a problem?"},
		{"first draw fails second swaps", []float64{0.5, 0, 0.9, 0}, "Is this vegetable a trouble?"},
		{"every draw fails", []float64{0.5, 0, 0.9, 0.9}, "Is this vegetable a problem?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPasses(testLexicon(t), random.FromSource(&random.Scripted{Floats: tt.floats}))
			assert.Equal(t, tt.want, p.AddSpeechPatterns("Is this vegetable a problem?", farmer))
		})
	}

	t.Run("absent terms take no draw", func(t *testing.T) {
		p := NewPasses(testLexicon(t), random.FromSource(&random.Scripted{Floats: []float64{0.5, 0, 0}}))
		assert.Equal(t, "Is there a trouble here?", p.AddSpeechPatterns("Is there a problem here?", farmer))
	})
}

func TestAddSpeechPatterns_Quiet(t *testing.T) {
	persona := &lexicon.Persona{Key: "q", ErrorRate: rate(0)}
	p := NewPasses(testLexicon(t), random.New(1))
	for i := 0; i < 20; i++ {
		assert.Equal(t, "Is it ripe?", p.AddSpeechPatterns("Is it ripe?", persona))
	}
}
