package paraphrase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Is this kale fresh?  ", "Is this kale fresh?"},
		{"\"Is this kale fresh?\"", "Is this kale fresh?"},
		{"```\nIs this kale fresh?\n```", "Is this kale fresh?"},
		{"```text\nIs this kale fresh?\n```", "Is this kale fresh?"},
		{"\n\nIs this kale fresh?\nHere is another option.", "Is this kale fresh?"},
		{"Question: Is this kale fresh?", "Is this kale fresh?"},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Clean(tt.in), tt.in)
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(context.Background(), Options{Provider: "bard"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported paraphrase provider")
}

func TestNew_GeminiNeedsKey(t *testing.T) {
	_, err := New(context.Background(), Options{Provider: "gemini"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key")
}

func TestNew_Ollama(t *testing.T) {
	p, err := New(context.Background(), Options{Provider: " Ollama "})
	require.NoError(t, err)
	assert.Equal(t, "ollama", p.Name())
	o := p.(*Ollama)
	assert.Equal(t, DefaultOllamaModel, o.model)
	assert.Equal(t, "http://127.0.0.1:11434/api/generate", o.endpoint)
}

func TestOllama_Paraphrase(t *testing.T) {
	var got ollamaGenerateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: "\"Is the kale still fresh?\"\n"})
	}))
	defer srv.Close()

	o := NewOllama("llama3.2", srv.URL+"/", time.Second)
	out, err := o.Paraphrase(context.Background(), "Is this kale fresh?")
	require.NoError(t, err)
	assert.Equal(t, "Is the kale still fresh?", out)
	assert.Equal(t, "llama3.2", got.Model)
	assert.False(t, got.Stream)
	assert.Contains(t, got.Prompt, "Question: Is this kale fresh?")
}

func TestOllama_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	o := NewOllama("missing", srv.URL, time.Second)
	_, err := o.Paraphrase(context.Background(), "Is this kale fresh?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "(404)")
	assert.Contains(t, err.Error(), "model not found")
}

func TestOllama_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewOllama("llama3.2", srv.URL, time.Second).Paraphrase(ctx, "Is this kale fresh?")
	assert.ErrorIs(t, err, context.Canceled)
}
