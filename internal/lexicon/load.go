package lexicon

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Default returns the built-in agricultural lexicon.
func Default() (*Lexicon, error) {
	lex, err := Parse(defaultYAML)
	if err != nil {
		return nil, fmt.Errorf("built-in lexicon: %w", err)
	}
	return lex, nil
}

// Load reads a lexicon from a YAML file. An empty path returns Default.
func Load(path string) (*Lexicon, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	lex, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("lexicon %s: %w", path, err)
	}
	return lex, nil
}

// Parse decodes and validates a lexicon document.
func Parse(data []byte) (*Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	lex.index()
	if err := lex.Validate(); err != nil {
		return nil, err
	}
	return &lex, nil
}
