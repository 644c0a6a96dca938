// Package gateway adapts the confidential-computing marketplace to the four
// operations the run pipeline needs: protect, grant, process, and fetch-result.
// All operations fail fast with ErrNotInitialized until the startup probe has
// verified the marketplace and the configured chain.
package gateway

import (
	"context"
	"time"

	"github.com/scorely/scorely/internal/profiles"
	"github.com/scorely/scorely/pkg/lifecycle"
)

// StatusPayload carries remote identifiers that may surface before a
// dispatch resolves. Callers must capture these as soon as observed.
type StatusPayload struct {
	TaskID string `json:"taskId,omitempty"`
	DealID string `json:"dealId,omitempty"`
}

// StatusUpdate is an intermediate progress report emitted during Process.
type StatusUpdate struct {
	Title   string
	Payload StatusPayload
}

// StatusFunc receives intermediate progress during a dispatch.
type StatusFunc func(StatusUpdate)

// Dispatch identifies a completed remote computation: the task instance
// and its underlying matching agreement.
type Dispatch struct {
	TaskID string `json:"taskId"`
	DealID string `json:"dealId"`
}

// Factor is one named component of the score breakdown.
type Factor struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Stake reports the requester's marketplace account after EnsureStake.
type Stake struct {
	Deposited bool  `json:"deposited"`
	Balance   int64 `json:"balance"`
}

// ScoreResult is the decoded outcome of a confidential scoring task.
// Bundle holds the raw zipped archive for retention.
type ScoreResult struct {
	Score     int       `json:"score"`
	Grade     string    `json:"grade"`
	Factors   []Factor  `json:"factors"`
	Timestamp time.Time `json:"timestamp"`
	TaskID    string    `json:"taskId"`
	Bundle    []byte    `json:"-"`
}

// System defines the gateway contract consumed by the run orchestrator.
// Implementations are constructed with deployment configuration and injected;
// nothing reaches for a gateway through package-level state.
type System interface {
	// Start registers the readiness probe with the lifecycle coordinator.
	Start(lc *lifecycle.Coordinator) error
	// Ready reports whether the gateway has completed initialization.
	Ready() bool
	// Protect serializes and encrypts the profile, returning the
	// protected-data content address.
	Protect(ctx context.Context, profile *profiles.FinancialProfile) (string, error)
	// GrantAccess authorizes the configured application to consume the
	// protected data, bounded by the configured access count at zero price.
	GrantAccess(ctx context.Context, protectedDataAddress string) (string, error)
	// Process dispatches a computation against the configured application and
	// workerpool, invoking onStatus with intermediate progress until the task
	// completes.
	Process(ctx context.Context, protectedDataAddress string, onStatus StatusFunc) (Dispatch, error)
	// FetchResult downloads and decodes the zipped result bundle for a task.
	FetchResult(ctx context.Context, taskID string) (*ScoreResult, error)
	// EnsureStake tops up the requester's marketplace deposit when it is
	// below the configured minimum. Best-effort precondition for Process.
	EnsureStake(ctx context.Context) (Stake, error)
	// ExplorerLink returns a verification URL for a resource kind and id.
	ExplorerLink(kind, id string) string
}
