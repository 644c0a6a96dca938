package profiles

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/scorely/scorely/pkg/repository"
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a profile repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "profiles"),
	}
}

func (r *repo) Save(ctx context.Context, runID string, profile *FinancialProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	// Profiles are immutable once recorded; a second write for the same run is a conflict.
	q := `
		INSERT INTO run_profiles(run_id, profile)
		VALUES ($1, $2)`

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if _, err := tx.ExecContext(ctx, q, runID, data); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("profile recorded", "run_id", runID)
	return nil
}

func (r *repo) Find(ctx context.Context, runID string) (*FinancialProfile, error) {
	q := `SELECT profile FROM run_profiles WHERE run_id = $1`

	data, err := repository.QueryOne(ctx, r.db, q, []any{runID}, func(s repository.Scanner) ([]byte, error) {
		var raw []byte
		if err := s.Scan(&raw); err != nil {
			return nil, err
		}
		return raw, nil
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	var profile FinancialProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("decode profile for run %s: %w", runID, err)
	}

	return &profile, nil
}
