// Package history maintains the append-only ledger of scoring outcomes.
// Entries are keyed by remote task id so a replayed pipeline never records
// the same computation twice.
package history

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one recorded scoring outcome.
type Entry struct {
	ID         uuid.UUID `json:"id"`
	TaskID     string    `json:"taskId"`
	Status     string    `json:"status"`
	Score      int       `json:"score"`
	Grade      string    `json:"grade"`
	RecordedAt time.Time `json:"recordedAt"`
}

// Entry statuses, recorded with the casing the remote marketplace reports
// for task outcomes.
const (
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)
