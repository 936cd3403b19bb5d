// Package report records per-stage metrics and quality signals of a pipeline
// run and saves them as JSON.
package report

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"
)

type Signal struct {
	Code     string  `json:"code"`
	Stage    string  `json:"stage"`
	Severity string  `json:"severity"`
	Message  string  `json:"message"`
	Value    float64 `json:"value,omitempty"`
}

type StageMetric struct {
	Name       string             `json:"name"`
	Status     string             `json:"status"`
	StartedAt  string             `json:"started_at"`
	FinishedAt string             `json:"finished_at"`
	DurationMS int64              `json:"duration_ms"`
	Counters   map[string]float64 `json:"counters,omitempty"`
	Notes      []string           `json:"notes,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// ShareMetric compares the observed share of one label with its target.
type ShareMetric struct {
	Kind   string  `json:"kind"`
	Key    string  `json:"key"`
	Count  int     `json:"count"`
	Target float64 `json:"target"`
	Actual float64 `json:"actual"`
	Drift  float64 `json:"drift"`
}

type Summary struct {
	StageCount        int            `json:"stage_count"`
	FailedStages      int            `json:"failed_stages"`
	TargetSize        int            `json:"target_size"`
	FinalSize         int            `json:"final_size"`
	MaxDrift          float64        `json:"max_drift"`
	SignalsBySeverity map[string]int `json:"signals_by_severity"`
}

type Report struct {
	Version     string        `json:"version"`
	RunID       string        `json:"run_id,omitempty"`
	Seed        int64         `json:"seed"`
	GeneratedAt string        `json:"generated_at"`
	Output      string        `json:"output"`
	Stages      []StageMetric `json:"stages"`
	Shares      []ShareMetric `json:"shares,omitempty"`
	Signals     []Signal      `json:"signals,omitempty"`
	Summary     Summary       `json:"summary"`
}

type StageHandle struct {
	name    string
	started time.Time
}

func New(seed int64, targetSize int, output string) *Report {
	return &Report{
		Version:     "v1",
		Seed:        seed,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Output:      output,
		Stages:      []StageMetric{},
		Signals:     []Signal{},
		Summary:     Summary{TargetSize: targetSize},
	}
}

func (r *Report) BeginStage(name string) StageHandle {
	return StageHandle{name: strings.TrimSpace(name), started: time.Now().UTC()}
}

func (r *Report) EndStage(h StageHandle, status string, counters map[string]float64, notes []string, err error) {
	if r == nil || strings.TrimSpace(h.name) == "" {
		return
	}
	if strings.TrimSpace(status) == "" {
		status = "ok"
	}
	finished := time.Now().UTC()
	m := StageMetric{
		Name:       h.name,
		Status:     status,
		StartedAt:  h.started.Format(time.RFC3339Nano),
		FinishedAt: finished.Format(time.RFC3339Nano),
		DurationMS: finished.Sub(h.started).Milliseconds(),
		Counters:   cleanCounters(counters),
		Notes:      cleanNotes(notes),
	}
	if err != nil {
		m.Error = err.Error()
		if status == "ok" {
			m.Status = "error"
		}
	}
	r.Stages = append(r.Stages, m)
}

func (r *Report) AddSignal(code, stage, severity, message string, value float64) {
	if r == nil {
		return
	}
	s := Signal{
		Code:     strings.TrimSpace(code),
		Stage:    strings.TrimSpace(stage),
		Severity: strings.ToLower(strings.TrimSpace(severity)),
		Message:  strings.TrimSpace(message),
		Value:    value,
	}
	if s.Code == "" || s.Stage == "" || s.Severity == "" || s.Message == "" {
		return
	}
	r.Signals = append(r.Signals, s)
}

// CompareShares records the observed share of every target key and raises a
// warning signal for each key whose drift exceeds tolerance. Observed keys
// without a target are recorded with target 0. It returns the largest drift.
func (r *Report) CompareShares(stage, kind string, targets map[string]float64, counts map[string]int, total int, tolerance float64) float64 {
	if r == nil || total <= 0 {
		return 0
	}
	keys := make([]string, 0, len(targets))
	for k := range targets {
		keys = append(keys, k)
	}
	for k := range counts {
		if _, ok := targets[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	worst := 0.0
	for _, k := range keys {
		actual := float64(counts[k]) / float64(total)
		drift := actual - targets[k]
		r.Shares = append(r.Shares, ShareMetric{
			Kind: kind, Key: k, Count: counts[k],
			Target: targets[k], Actual: actual, Drift: drift,
		})
		abs := math.Abs(drift)
		worst = math.Max(worst, abs)
		if abs > tolerance {
			r.AddSignal(kind+"_drift", stage, SeverityWarning,
				fmt.Sprintf("%s %s share %.4f differs from target %.4f", kind, k, actual, targets[k]), drift)
		}
	}
	r.Summary.MaxDrift = math.Max(r.Summary.MaxDrift, worst)
	return worst
}

func (r *Report) Finalize(finalSize int) {
	if r == nil {
		return
	}
	r.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	severityCount := map[string]int{
		SeverityCritical: 0,
		SeverityWarning:  0,
		SeverityInfo:     0,
	}
	sort.SliceStable(r.Signals, func(i, j int) bool {
		pi := signalPriority(r.Signals[i].Severity)
		pj := signalPriority(r.Signals[j].Severity)
		if pi == pj {
			if r.Signals[i].Stage == r.Signals[j].Stage {
				return r.Signals[i].Code < r.Signals[j].Code
			}
			return r.Signals[i].Stage < r.Signals[j].Stage
		}
		return pi > pj
	})
	for _, s := range r.Signals {
		severityCount[s.Severity]++
	}

	failed := 0
	for _, st := range r.Stages {
		if st.Status != "ok" {
			failed++
		}
	}

	r.Summary.StageCount = len(r.Stages)
	r.Summary.FailedStages = failed
	r.Summary.FinalSize = finalSize
	r.Summary.SignalsBySeverity = severityCount
}

func (r *Report) Save(path string) error {
	if r == nil {
		return nil
	}
	if err := r.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0644)
}

func cleanCounters(raw map[string]float64) map[string]float64 {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		out[key] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func cleanNotes(raw []string) []string {
	if len(raw) == 0 {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, n := range raw {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func signalPriority(severity string) int {
	switch severity {
	case SeverityCritical:
		return 3
	case SeverityWarning:
		return 2
	default:
		return 1
	}
}
