// Package store persists reconciliation runs and their contact records.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/sells-group/roster-cli/internal/model"
)

// ErrRunNotFound is returned, possibly wrapped, when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status       model.RunStatus `json:"status,omitempty"`
	CreatedAfter time.Time       `json:"created_after,omitempty"`
	Limit        int             `json:"limit,omitempty"`
	Offset       int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for reconciliation runs.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, label string) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	CompleteRun(ctx context.Context, runID string, stats *model.BatchStats) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Contacts
	SaveContacts(ctx context.Context, runID string, records []model.ContactRecord) error
	ListContacts(ctx context.Context, runID string) ([]model.ContactRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

const defaultListLimit = 100

// contactColumns are the columns written for every saved contact. The full
// record is kept as JSON; the rest are for querying.
var contactColumns = []string{"id", "run_id", "position", "name", "email", "phone", "domain", "confidence", "score", "data", "created_at"}
