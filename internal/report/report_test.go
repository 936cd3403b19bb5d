package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport_Stages(t *testing.T) {
	r := New(42, 100, "out.csv")

	h := r.BeginStage("generate")
	r.EndStage(h, "", map[string]float64{"rows": 95, " ": 1}, []string{" backfilled ", ""}, nil)
	h = r.BeginStage("paraphrase")
	r.EndStage(h, "", nil, nil, errors.New("provider down"))
	r.EndStage(r.BeginStage("  "), "ok", nil, nil, nil)

	require.Len(t, r.Stages, 2)
	assert.Equal(t, "ok", r.Stages[0].Status)
	assert.Equal(t, map[string]float64{"rows": 95}, r.Stages[0].Counters)
	assert.Equal(t, []string{"backfilled"}, r.Stages[0].Notes)
	assert.Equal(t, "error", r.Stages[1].Status)
	assert.Equal(t, "provider down", r.Stages[1].Error)

	r.Finalize(100)
	assert.Equal(t, 2, r.Summary.StageCount)
	assert.Equal(t, 1, r.Summary.FailedStages)
	assert.Equal(t, 100, r.Summary.TargetSize)
	assert.Equal(t, 100, r.Summary.FinalSize)
}

func TestReport_SignalsSorted(t *testing.T) {
	r := New(1, 10, "")
	r.AddSignal("duplicates", "quality", "INFO", "duplicates removed", 2)
	r.AddSignal("exhausted", "generate", SeverityCritical, "shortfall", 3)
	r.AddSignal("intent_drift", "quality", SeverityWarning, "drift", 0.1)
	r.AddSignal("", "quality", SeverityWarning, "ignored", 0)

	r.Finalize(10)
	require.Len(t, r.Signals, 3)
	assert.Equal(t, "exhausted", r.Signals[0].Code)
	assert.Equal(t, "intent_drift", r.Signals[1].Code)
	assert.Equal(t, "info", r.Signals[2].Severity)
	assert.Equal(t, map[string]int{"critical": 1, "warning": 1, "info": 1}, r.Summary.SignalsBySeverity)
}

func TestReport_CompareShares(t *testing.T) {
	r := New(1, 100, "")
	worst := r.CompareShares("quality", "persona",
		map[string]float64{"farmer": 0.5, "scientist": 0.5},
		map[string]int{"farmer": 70, "scientist": 25, "retailer": 5}, 100, 0.1)

	assert.InDelta(t, 0.25, worst, 1e-9)
	require.Len(t, r.Shares, 3)
	assert.Equal(t, "farmer", r.Shares[0].Key)
	assert.Equal(t, "retailer", r.Shares[1].Key)
	assert.Zero(t, r.Shares[1].Target)
	assert.InDelta(t, -0.25, r.Shares[2].Drift, 1e-9)

	require.Len(t, r.Signals, 2)
	assert.Equal(t, "persona_drift", r.Signals[0].Code)
	assert.InDelta(t, 0.25, r.Summary.MaxDrift, 1e-9)

	assert.Zero(t, r.CompareShares("quality", "intent", nil, nil, 0, 0.1))
}

func TestReport_Save(t *testing.T) {
	r := New(7, 10, "data.csv")
	r.RunID = "run-1"
	r.EndStage(r.BeginStage("generate"), "ok", map[string]float64{"rows": 10}, nil, nil)
	r.Finalize(10)

	path := filepath.Join(t.TempDir(), "nested", "report.json")
	require.NoError(t, r.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var loaded Report
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, "v1", loaded.Version)
	assert.Equal(t, "run-1", loaded.RunID)
	assert.Equal(t, int64(7), loaded.Seed)
	require.Len(t, loaded.Stages, 1)
	assert.Equal(t, 10, loaded.Summary.FinalSize)

	var nilReport *Report
	assert.NoError(t, nilReport.Save(path))
}

func TestReport_SaveValidatesAgainstSchema(t *testing.T) {
	tests := []struct {
		name  string
		build func(r *Report)
	}{
		{"unknown stage status", func(r *Report) {
			r.EndStage(r.BeginStage("generate"), "maybe", nil, nil, nil)
		}},
		{"unknown severity", func(r *Report) {
			r.AddSignal("odd", "quality", "loud", "too loud", 1)
		}},
		{"bad version", func(r *Report) {
			r.Version = "latest"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(1, 10, "data.csv")
			tt.build(r)
			r.Finalize(10)

			path := filepath.Join(t.TempDir(), "report.json")
			err := r.Save(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "schema validation")
			_, statErr := os.Stat(path)
			assert.True(t, errors.Is(statErr, os.ErrNotExist))
		})
	}
}

func TestReport_ValidateFullRun(t *testing.T) {
	r := New(3, 4, "data.csv")
	r.EndStage(r.BeginStage("generate"), "partial", map[string]float64{"rows": 3}, []string{"short"}, nil)
	r.EndStage(r.BeginStage("paraphrase"), "", nil, nil, errors.New("boom"))
	r.CompareShares("quality", "intent", map[string]float64{"a": 0.9, "b": 0.1}, map[string]int{"a": 1, "b": 3}, 4, 0.05)
	r.AddSignal("shortfall", "trim", SeverityWarning, "dataset has 3 rows", 1)
	r.Finalize(3)
	assert.NoError(t, r.Validate())
}
