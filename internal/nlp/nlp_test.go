package nlp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Is this banana good?", []string{"Is", "this", "banana", "good", "?"}},
		{"What's wrong with my bug-infested kale?", []string{"What's", "wrong", "with", "my", "bug-infested", "kale", "?"}},
		{"My apple looks brown, is that normal?", []string{"My", "apple", "looks", "brown", ",", "is", "that", "normal", "?"}},
		{"Really??", []string{"Really", "??"}},
		{"  spaced   out  ", []string{"spaced", "out"}},
		{"", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Tokenize(tt.in), tt.in)
	}
}

func TestDetokenize_RoundTrip(t *testing.T) {
	for _, s := range []string{
		"Is this banana good?",
		"My apple looks brown, is that normal?",
		"What's the best way to keep pea fresh?",
		"Is this viral, bacterial, or fungal etiology?",
	} {
		assert.Equal(t, s, Detokenize(Tokenize(s)))
	}
	assert.Equal(t, "(a) b", Detokenize([]string{"(", "a", ")", "b"}))
}

func TestIsPunct(t *testing.T) {
	assert.True(t, IsPunct("?"))
	assert.True(t, IsPunct("..."))
	assert.False(t, IsPunct("a?"))
	assert.False(t, IsPunct(""))
}

func TestTagger_Tag(t *testing.T) {
	tg := NewTagger(map[string]Tag{"banana": Noun, "bruised": Adj, "passion fruit": Noun})
	tokens := Tokenize("Can I eat this bruised banana quickly in the fridge?")
	tags := tg.Tag(tokens)
	require.Len(t, tags, len(tokens))

	want := []Tag{Aux, Pron, Verb, Det, Adj, Noun, Adv, Adp, Det, Noun, Punct}
	assert.Equal(t, want, tags)
}

func TestTagger_ToParticle(t *testing.T) {
	tg := NewTagger(nil)
	tags := tg.Tag([]string{"ready", "to", "eat"})
	assert.Equal(t, Part, tags[1])
	tags = tg.Tag([]string{"compare", "to", "kale"})
	assert.Equal(t, Adp, tags[1])
}

func TestTagger_Participles(t *testing.T) {
	tg := NewTagger(nil)
	tags := tg.Tag(Tokenize("Is cracked kale safe?"))
	assert.Equal(t, Adj, tags[1])
	tags = tg.Tag(Tokenize("It is cracked?"))
	assert.Equal(t, Adj, tags[2])
	tags = tg.Tag(Tokenize("They cracked it"))
	assert.Equal(t, Verb, tags[1])
}

func TestTag_Content(t *testing.T) {
	assert.True(t, Noun.Content())
	assert.True(t, Adv.Content())
	assert.False(t, Det.Content())
	assert.False(t, Punct.Content())
}

func TestPrepSpans(t *testing.T) {
	tg := NewTagger(map[string]Tag{"tomato": Noun})
	tokens := Tokenize("What are these bugs on my tomato?")
	spans := PrepSpans(tg.Tag(tokens))
	require.Len(t, spans, 1)
	assert.Equal(t, Span{4, 6}, spans[0])
	assert.Equal(t, 3, spans[0].Len())
}

func TestPrepSpans_Adjacent(t *testing.T) {
	tags := []Tag{Verb, Adp, Det, Noun, Adp, Noun, Punct}
	assert.Equal(t, []Span{{1, 3}, {4, 5}}, PrepSpans(tags))
}

func TestPrepSpans_NoObject(t *testing.T) {
	tags := []Tag{Verb, Adp, Punct}
	assert.Empty(t, PrepSpans(tags))
	assert.Empty(t, PrepSpans([]Tag{Noun, Adp}))
}

func TestAdjectives_InteriorOnly(t *testing.T) {
	tags := []Tag{Adj, Adj, Noun, Adj}
	assert.Equal(t, []int{1}, Adjectives(tags))
}

func TestThesaurus_Synonyms(t *testing.T) {
	th, err := ParseThesaurus([]byte("Good: [safe, good, full_of, beneficial, safe]\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"beneficial", "full of", "safe"}, th.Synonyms("good"))
	assert.Equal(t, []string{"beneficial", "full of", "safe"}, th.Synonyms("GOOD"))
	assert.Nil(t, th.Synonyms("banana"))
	assert.Equal(t, 1, th.Len())
}

func TestDefaultThesaurus(t *testing.T) {
	th, err := DefaultThesaurus()
	require.NoError(t, err)
	assert.Greater(t, th.Len(), 100)
	assert.Contains(t, th.Synonyms("fridge"), "refrigerator")
}

func TestLoadThesaurus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "th.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ripe: [mature]\n"), 0o644))
	th, err := LoadThesaurus(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"mature"}, th.Synonyms("ripe"))

	_, err = LoadThesaurus(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
