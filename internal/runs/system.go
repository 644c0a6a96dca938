package runs

import (
	"context"

	"github.com/scorely/scorely/internal/profiles"
)

// System defines the public contract for run orchestration.
type System interface {
	Handler() *Handler

	// Submit validates the profile, records it under a fresh placeholder run
	// id, and starts the pipeline in the background.
	Submit(ctx context.Context, profile *profiles.FinancialProfile) (Receipt, error)
	// Execute drives the pipeline for a run id. It is a no-op while the same
	// run is executing or after it has completed.
	Execute(ctx context.Context, id string) error
	// Get assembles the run view. The id may be a placeholder run id or a
	// remote task id; aliases resolve in both directions.
	Get(ctx context.Context, id string) (*Run, error)
	// Retry re-invokes Execute for a failed run, resuming at the first
	// incomplete step.
	Retry(ctx context.Context, id string) (Receipt, error)
	// Report renders the plain-text score report for a terminal run.
	Report(ctx context.Context, id string) ([]byte, string, error)
}
