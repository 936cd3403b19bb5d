package nlp

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed thesaurus.yaml
var thesaurusYAML []byte

// Thesaurus maps a lower-cased word to its synonym lemmas.
type Thesaurus struct {
	entries map[string][]string
}

// DefaultThesaurus returns the built-in synonym table.
func DefaultThesaurus() (*Thesaurus, error) {
	return ParseThesaurus(thesaurusYAML)
}

// LoadThesaurus reads a synonym table from a YAML file of word: [synonyms].
func LoadThesaurus(path string) (*Thesaurus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read thesaurus: %w", err)
	}
	return ParseThesaurus(data)
}

func ParseThesaurus(data []byte) (*Thesaurus, error) {
	raw := map[string][]string{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode thesaurus: %w", err)
	}
	th := &Thesaurus{entries: make(map[string][]string, len(raw))}
	for word, lemmas := range raw {
		th.entries[strings.ToLower(word)] = lemmas
	}
	return th, nil
}

// Synonyms returns the distinct synonyms of word, excluding word itself, in
// sorted order. Underscores in multi-word lemmas become spaces.
func (th *Thesaurus) Synonyms(word string) []string {
	lower := strings.ToLower(word)
	lemmas := th.entries[lower]
	if len(lemmas) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(lemmas))
	out := make([]string, 0, len(lemmas))
	for _, l := range lemmas {
		s := strings.ReplaceAll(l, "_", " ")
		if s == "" || strings.EqualFold(s, lower) || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of head words.
func (th *Thesaurus) Len() int { return len(th.entries) }
