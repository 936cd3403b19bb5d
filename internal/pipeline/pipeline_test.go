package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agriqa/internal/config"
	"agriqa/internal/corpus"
	"agriqa/internal/report"
	"agriqa/internal/storage"
)

func testConfig(t *testing.T, size int) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Generation.Size = size
	cfg.Output.CSV = filepath.Join(dir, "dataset.csv")
	cfg.Output.DB = filepath.Join(dir, "runs.db")
	cfg.Output.Report = filepath.Join(dir, "report.json")
	return cfg
}

func TestRun_EndToEnd(t *testing.T) {
	cfg := testConfig(t, 300)
	sum, err := Run(context.Background(), Options{Config: cfg, Logger: zerolog.Nop()})
	require.NoError(t, err)

	assert.Equal(t, 300, sum.Size)
	assert.Equal(t, 300, sum.TargetSize)
	assert.Zero(t, sum.Shortfall)
	assert.Equal(t, 285, sum.Initial.Requested)
	assert.Equal(t, 57, sum.Augment.Sampled)
	assert.True(t, sum.Stored)
	assert.NotEmpty(t, sum.RunID)
	assert.Zero(t, sum.Table.Duplicates())
	assert.Equal(t, 300, sum.Quality.Size)

	table, err := corpus.LoadCSV(cfg.Output.CSV)
	require.NoError(t, err)
	assert.Equal(t, sum.Table, table)

	store, err := storage.NewSQLiteStore(cfg.Output.DB)
	require.NoError(t, err)
	defer store.Close()
	run, stored, err := store.LoadRun(context.Background(), sum.RunID)
	require.NoError(t, err)
	assert.Equal(t, table, stored)
	assert.Equal(t, int64(42), run.Seed)
	assert.Equal(t, 300, run.TargetSize)

	var settings runSettings
	require.NoError(t, json.Unmarshal(run.Settings, &settings))
	assert.True(t, settings.Augment)
	assert.Empty(t, settings.Paraphrase)

	data, err := os.ReadFile(cfg.Output.Report)
	require.NoError(t, err)
	var rep report.Report
	require.NoError(t, json.Unmarshal(data, &rep))
	assert.Equal(t, sum.RunID, rep.RunID)
	var stages []string
	for _, st := range rep.Stages {
		stages = append(stages, st.Name)
		assert.Equal(t, "ok", st.Status, st.Name)
	}
	assert.Equal(t, []string{"generate", "augment", "topup", "trim", "quality", "persist"}, stages)
	assert.Equal(t, 300, rep.Summary.FinalSize)
	assert.NotEmpty(t, rep.Shares)
}

func TestRun_Deterministic(t *testing.T) {
	a := testConfig(t, 200)
	b := testConfig(t, 200)
	b.Output.DB = ""

	first, err := Run(context.Background(), Options{Config: a, Logger: zerolog.Nop()})
	require.NoError(t, err)
	second, err := Run(context.Background(), Options{Config: b, Logger: zerolog.Nop()})
	require.NoError(t, err)
	assert.False(t, second.Stored)

	x, err := os.ReadFile(a.Output.CSV)
	require.NoError(t, err)
	y, err := os.ReadFile(b.Output.CSV)
	require.NoError(t, err)
	assert.Equal(t, string(x), string(y))
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRun_DefaultConfigNotExhausted(t *testing.T) {
	if testing.Short() {
		t.Skip("full default-size run")
	}
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Output.CSV = filepath.Join(dir, "dataset.csv")
	cfg.Output.Report = filepath.Join(dir, "report.json")

	sum, err := Run(context.Background(), Options{Config: cfg, Logger: zerolog.Nop()})
	require.NoError(t, err)
	assert.Equal(t, cfg.Generation.Size, sum.Size)
	assert.Less(t, sum.Initial.Attempts, cfg.Generation.MaxAttempts)

	data, err := os.ReadFile(cfg.Output.Report)
	require.NoError(t, err)
	var rep report.Report
	require.NoError(t, json.Unmarshal(data, &rep))
	for _, st := range rep.Stages {
		if st.Name == "generate" {
			assert.Equal(t, "ok", st.Status)
		}
	}
	for _, sig := range rep.Signals {
		assert.NotEqual(t, "exhausted", sig.Code, sig.Message)
	}
}

func TestRun_NoAugment(t *testing.T) {
	cfg := testConfig(t, 100)
	cfg.Generation.Augment = false
	cfg.Output.Report = ""

	sum, err := Run(context.Background(), Options{Config: cfg, Logger: zerolog.Nop()})
	require.NoError(t, err)
	assert.Equal(t, 100, sum.Size)
	assert.Zero(t, sum.Augment.Sampled)
	assert.GreaterOrEqual(t, sum.TopUpAttempts, 1)
	assert.Empty(t, sum.ReportPath)
}

type suffixParaphraser struct {
	calls int
	err   error
}

func (s *suffixParaphraser) Name() string { return "suffix" }

func (s *suffixParaphraser) Paraphrase(ctx context.Context, text string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return strings.TrimSuffix(text, "?") + " in your view?", nil
}

func TestRun_Paraphrase(t *testing.T) {
	cfg := testConfig(t, 200)
	cfg.Paraphrase.Fraction = 0.1
	p := &suffixParaphraser{}

	sum, err := Run(context.Background(), Options{Config: cfg, Paraphraser: p, Logger: zerolog.Nop()})
	require.NoError(t, err)
	assert.Equal(t, "suffix", sum.Paraphrase.Provider)
	assert.Positive(t, sum.Paraphrase.Requested)
	assert.Equal(t, sum.Paraphrase.Requested, p.calls)
	assert.Equal(t, 200, sum.Size)
}

func TestRun_ParaphraseCancelled(t *testing.T) {
	cfg := testConfig(t, 100)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, Options{Config: cfg, Paraphraser: &suffixParaphraser{}, Logger: zerolog.Nop()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	_, statErr := os.Stat(cfg.Output.CSV)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_InvalidConfig(t *testing.T) {
	cfg := testConfig(t, 0)
	_, err := Run(context.Background(), Options{Config: cfg, Logger: zerolog.Nop()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generation.size")
}
