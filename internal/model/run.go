package model

import "time"

// RunStatus represents the current state of a pipeline run.
type RunStatus string

const (
	RunStatusNormalizing   RunStatus = "normalizing"
	RunStatusDeduplicating RunStatus = "deduplicating"
	RunStatusProbing       RunStatus = "probing"
	RunStatusScoring       RunStatus = "scoring"
	RunStatusRanked        RunStatus = "ranked"
	RunStatusFailed        RunStatus = "failed"
)

// RunSummary holds the per-stage counters for one pipeline run. The caller
// can always determine how many raw records were dropped and why.
type RunSummary struct {
	Input      int `json:"input"`
	Dropped    int `json:"dropped"`
	Duplicates int `json:"duplicates"`
	Probed     int `json:"probed"`
	Scored     int `json:"scored"`
}

// Run is a persisted pipeline execution.
type Run struct {
	ID        string     `json:"id"`
	Status    RunStatus  `json:"status"`
	Summary   RunSummary `json:"summary"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
