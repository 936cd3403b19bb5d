// Package paraphrase rewrites questions with a language model.
package paraphrase

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Paraphraser returns one rewording of a question.
type Paraphraser interface {
	Paraphrase(ctx context.Context, text string) (string, error)
	Name() string
}

// Options selects and configures a provider.
type Options struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
}

const (
	DefaultGeminiModel = "gemini-2.0-flash"
	DefaultOllamaModel = "llama3.2"
	DefaultTimeout     = 60 * time.Second
)

func New(ctx context.Context, opts Options) (Paraphraser, error) {
	provider := strings.ToLower(strings.TrimSpace(opts.Provider))
	if provider == "" {
		provider = "gemini"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	switch provider {
	case "gemini":
		if opts.Model == "" {
			opts.Model = DefaultGeminiModel
		}
		return NewGemini(ctx, opts.APIKey, opts.Model)
	case "ollama":
		if opts.Model == "" {
			opts.Model = DefaultOllamaModel
		}
		return NewOllama(opts.Model, opts.BaseURL, opts.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported paraphrase provider: %s", opts.Provider)
	}
}

func buildPrompt(text string) string {
	var sb strings.Builder
	sb.WriteString("Rewrite the following question about agricultural produce so it keeps the same meaning and intent.\n")
	sb.WriteString("Keep the speaker's tone and level of expertise. Reply with the rewritten question only, on one line.\n\n")
	sb.WriteString("Question: ")
	sb.WriteString(text)
	return sb.String()
}

// Clean reduces a model response to a single question: surrounding code
// fences and quotes are stripped and only the first non-empty line is kept.
func Clean(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if nl := strings.IndexByte(text, '\n'); nl >= 0 && !strings.ContainsAny(text[:nl], " ?") {
			text = text[nl+1:]
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	line := ""
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			line = l
			break
		}
	}
	line = strings.TrimPrefix(line, "Question:")
	line = strings.TrimSpace(line)
	for _, q := range []string{`"`, "'", "“", "”"} {
		line = strings.TrimPrefix(line, q)
		line = strings.TrimSuffix(line, q)
	}
	return strings.TrimSpace(line)
}
