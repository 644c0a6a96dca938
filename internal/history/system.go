package history

import (
	"context"

	"github.com/scorely/scorely/pkg/pagination"
)

// System defines the public contract for the history ledger.
type System interface {
	Handler() *Handler

	// Append records an entry unless one already exists for its task id.
	// Returns false when the entry was deduplicated.
	Append(ctx context.Context, entry Entry) (bool, error)
	Find(ctx context.Context, taskID string) (*Entry, error)
	List(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[Entry], error)
}
