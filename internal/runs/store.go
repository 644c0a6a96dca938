package runs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/scorely/scorely/pkg/repository"
)

// StateStore persists run progress and the local-to-remote id aliases.
// State writes are read-merge-write: callers submit patches, never whole
// records, and the merged result is what lands.
type StateStore interface {
	// Load returns the persisted state for an id, or a zero state when none
	// exists. Unreadable state is treated as absent so the pipeline restarts
	// from the beginning rather than wedging.
	Load(ctx context.Context, id string) (State, error)
	// Save merges patch into the persisted state under id and returns the
	// merged result.
	Save(ctx context.Context, id string, patch State) (State, error)
	// SaveAlias records the bridge from a placeholder run id to its remote
	// task id. Re-recording the same alias is a no-op.
	SaveAlias(ctx context.Context, localID, taskID string) error
	// ResolveTask returns the task id aliased to a local id, or "" when none.
	ResolveTask(ctx context.Context, localID string) (string, error)
	// ResolveLocal returns the local id aliased to a task id, or "" when none.
	ResolveLocal(ctx context.Context, taskID string) (string, error)
}

type stateStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStateStore creates a PostgreSQL-backed StateStore.
func NewStateStore(db *sql.DB, logger *slog.Logger) StateStore {
	return &stateStore{
		db:     db,
		logger: logger.With("system", "runs.store"),
	}
}

func (s *stateStore) Load(ctx context.Context, id string) (State, error) {
	q := `SELECT state FROM run_states WHERE run_id = $1`

	var raw []byte
	err := s.db.QueryRowContext(ctx, q, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("load state %s: %w", id, err)
	}

	return s.decode(id, raw), nil
}

func (s *stateStore) Save(ctx context.Context, id string, patch State) (State, error) {
	return repository.WithTx(ctx, s.db, func(tx *sql.Tx) (State, error) {
		var raw []byte
		current := State{}

		err := tx.QueryRowContext(ctx,
			`SELECT state FROM run_states WHERE run_id = $1 FOR UPDATE`, id,
		).Scan(&raw)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return State{}, fmt.Errorf("read state %s: %w", id, err)
		default:
			current = s.decode(id, raw)
		}

		merged := current.merge(patch)
		data, err := json.Marshal(merged)
		if err != nil {
			return State{}, fmt.Errorf("encode state %s: %w", id, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO run_states(run_id, state, updated_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (run_id) DO UPDATE
			SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`,
			id, data, time.Now().UTC(),
		)
		if err != nil {
			return State{}, fmt.Errorf("write state %s: %w", id, err)
		}

		return merged, nil
	})
}

func (s *stateStore) SaveAlias(ctx context.Context, localID, taskID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO run_aliases(local_id, task_id)
		VALUES ($1, $2)
		ON CONFLICT (local_id) DO UPDATE SET task_id = EXCLUDED.task_id`,
		localID, taskID,
	)
	if err != nil {
		return fmt.Errorf("save alias %s -> %s: %w", localID, taskID, err)
	}
	return nil
}

func (s *stateStore) ResolveTask(ctx context.Context, localID string) (string, error) {
	return s.resolve(ctx,
		`SELECT task_id FROM run_aliases WHERE local_id = $1`, localID)
}

func (s *stateStore) ResolveLocal(ctx context.Context, taskID string) (string, error) {
	return s.resolve(ctx,
		`SELECT local_id FROM run_aliases WHERE task_id = $1`, taskID)
}

func (s *stateStore) resolve(ctx context.Context, q, id string) (string, error) {
	var resolved string
	err := s.db.QueryRowContext(ctx, q, id).Scan(&resolved)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("resolve alias %s: %w", id, err)
	}
	return resolved, nil
}

func (s *stateStore) decode(id string, raw []byte) State {
	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		s.logger.Warn("discarding unreadable run state", "run_id", id, "error", err)
		return State{}
	}
	return state
}
