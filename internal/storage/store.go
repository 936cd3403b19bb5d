package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"agriqa/internal/corpus"
)

var ErrRunNotFound = errors.New("run not found")

// Run describes one persisted generation.
type Run struct {
	ID         string          `json:"id"`
	Seed       int64           `json:"seed"`
	TargetSize int             `json:"target_size"`
	Size       int             `json:"size"`
	CreatedAt  time.Time       `json:"created_at"`
	Settings   json.RawMessage `json:"settings,omitempty"`
}

// NewRun stamps a run with a fresh id and the current time. Settings are
// stored as JSON.
func NewRun(seed int64, targetSize int, settings any) (Run, error) {
	raw, err := json.Marshal(settings)
	if err != nil {
		return Run{}, err
	}
	return Run{
		ID:         uuid.NewString(),
		Seed:       seed,
		TargetSize: targetSize,
		CreatedAt:  time.Now().UTC(),
		Settings:   raw,
	}, nil
}

// RunStore persists generated tables keyed by run.
type RunStore interface {
	// SaveRun stores the run and its records. Size is the unique record count.
	SaveRun(ctx context.Context, run Run, table corpus.Table) (Run, error)

	// LoadRun returns a run and its records in their original order.
	LoadRun(ctx context.Context, id string) (Run, corpus.Table, error)

	// ListRuns returns runs newest first.
	ListRuns(ctx context.Context) ([]Run, error)

	DeleteRun(ctx context.Context, id string) error
	Close() error
}
