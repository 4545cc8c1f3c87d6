package domain

import (
	"time"

	"github.com/google/uuid"
)

// Sync run trigger sources.
const (
	TriggerManual   = "manual"
	TriggerSchedule = "schedule"
	TriggerWebhook  = "webhook"
	TriggerCLI      = "cli"
)

// Sync modes.
const (
	ModeFull        = "full"
	ModeIncremental = "incremental"
)

// SyncRun is the append-only audit record for one orchestrator invocation.
type SyncRun struct {
	ID           uuid.UUID  `db:"id"`
	Trigger      string     `db:"trigger_source"`
	Mode         string     `db:"mode"`
	StartedAt    time.Time  `db:"started_at"`
	FinishedAt   *time.Time `db:"finished_at"`
	Fetched      int        `db:"fetched"`
	Synced       int        `db:"synced"`
	Updated      int        `db:"updated"`
	Errors       int        `db:"errors"`
	Linked       int        `db:"linked"`
	ErrorDetails []string   `db:"error_details"`
}

// KindResult holds the outcome of syncing a single entity kind.
type KindResult struct {
	Kind          EntityKind    `json:"kind"`
	Fetched       int           `json:"fetched"`
	Synced        int           `json:"synced"`
	Updated       int           `json:"updated"`
	Errors        int           `json:"errors"`
	ErrorMessages []string      `json:"errorMessages,omitempty"`
	Duration      time.Duration `json:"-"`
}

// LinkResult holds the outcome of the reconciliation pass.
type LinkResult struct {
	Linked int `json:"linked"`
	Errors int `json:"errors"`
}

// Summary is the structured per-run result returned from every sync
// operation, suitable for both logging and programmatic assertions.
type Summary struct {
	Success      bool         `json:"success"`
	Mode         string       `json:"mode"`
	DryRun       bool         `json:"dryRun,omitempty"`
	Fetched      int          `json:"fetched"`
	Synced       int          `json:"synced"`
	Updated      int          `json:"updated"`
	Errors       int          `json:"errors"`
	ErrorDetails []string     `json:"errorDetails,omitempty"`
	Kinds        []KindResult `json:"kinds,omitempty"`
	LinkResult   *LinkResult  `json:"linkResult,omitempty"`
	StartedAt    time.Time    `json:"startedAt"`
	DurationMS   int64        `json:"durationMs"`
}

// Add folds a per-kind result into the summary totals.
func (s *Summary) Add(r KindResult) {
	s.Fetched += r.Fetched
	s.Synced += r.Synced
	s.Updated += r.Updated
	s.Errors += r.Errors
	s.ErrorDetails = append(s.ErrorDetails, r.ErrorMessages...)
	s.Kinds = append(s.Kinds, r)
}
