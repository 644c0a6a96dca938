package runs

import (
	"github.com/scorely/scorely/internal/history"
	"github.com/scorely/scorely/internal/profiles"
)

// Status is the lifecycle position of a run.
type Status string

const (
	StatusInitializing Status = "initializing"
	StatusRunning      Status = "running"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
)

// Run is the assembled view of a run: durable state, presentation timeline,
// and the ledger entry when one exists.
type Run struct {
	ID       string                     `json:"id"`
	Status   Status                     `json:"status"`
	Score    *int                       `json:"score,omitempty"`
	Grade    string                     `json:"grade,omitempty"`
	TaskID   string                     `json:"taskId,omitempty"`
	DealID   string                     `json:"dealId,omitempty"`
	Error    string                     `json:"error,omitempty"`
	Timeline []TimelineStep             `json:"timeline"`
	Log      []string                   `json:"log"`
	Profile  *profiles.FinancialProfile `json:"profile,omitempty"`
	History  *history.Entry             `json:"history,omitempty"`
}

// Submission is the request body for starting a run.
type Submission struct {
	Profile profiles.FinancialProfile `json:"profile"`
}

// Receipt acknowledges an accepted run submission.
type Receipt struct {
	RunID  string `json:"runId"`
	Status Status `json:"status"`
}
