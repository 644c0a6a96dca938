package profiles

import "context"

// System defines the public contract for profile persistence.
// A profile is written exactly once at submission time under the placeholder
// run id and read back only when a reloaded run needs its original input.
type System interface {
	Save(ctx context.Context, runID string, profile *FinancialProfile) error
	Find(ctx context.Context, runID string) (*FinancialProfile, error)
}
