package store

import (
	"context"

	"github.com/khabzox/business-lead-finder/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store persists pipeline runs and their ranked leads. Persistence is
// entirely caller-opt-in: the pipeline core never touches a Store, the CLI
// and server layers do.
type Store interface {
	// Runs
	CreateRun(ctx context.Context) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	CompleteRun(ctx context.Context, runID string, status model.RunStatus, summary model.RunSummary) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Leads
	SaveLeads(ctx context.Context, runID string, leads []model.BusinessRecord) error
	ListLeads(ctx context.Context, runID string) ([]model.BusinessRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
