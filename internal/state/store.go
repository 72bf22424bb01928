// Package state records the history of extract and check runs in SQLite.
package state

import (
	"context"
	"errors"
	"time"

	"github.com/leapstack-labs/driftnet/pkg/core"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// CheckRun is one execution of the check command.
type CheckRun struct {
	ID           string `json:"id"`
	ContractPath string `json:"contract"`
	// Actual is the path of the actual schema, or the target type when Live.
	Actual    string    `json:"actual"`
	Live      bool      `json:"live"`
	StartedAt time.Time `json:"started_at"`
	Missing   int       `json:"missing"`
	Added     int       `json:"added"`
	// Skipped counts sources present on only one side.
	Skipped int  `json:"skipped_sources"`
	Failed  bool `json:"failed"`
}

// ExtractRun is one execution of the extract command.
type ExtractRun struct {
	ID           string    `json:"id"`
	OutputPath   string    `json:"output"`
	StartedAt    time.Time `json:"started_at"`
	FilesScanned int       `json:"files_scanned"`
	FilesSkipped int       `json:"files_skipped"`
	Sources      int       `json:"sources"`
	Columns      int       `json:"columns"`
}

// Store persists run history.
type Store interface {
	RecordCheck(ctx context.Context, run *CheckRun, drifts []core.Drift) error
	ListChecks(ctx context.Context, limit int) ([]CheckRun, error)
	GetCheck(ctx context.Context, id string) (*CheckRun, error)
	GetCheckDrifts(ctx context.Context, id string) ([]core.Drift, error)
	RecordExtract(ctx context.Context, run *ExtractRun) error
	ListExtracts(ctx context.Context, limit int) ([]ExtractRun, error)
	Close() error
}
