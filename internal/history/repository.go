package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/scorely/scorely/pkg/pagination"
	"github.com/scorely/scorely/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a history repository implementing the System interface.
func New(
	db *sql.DB,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "history"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) Append(ctx context.Context, entry Entry) (bool, error) {
	q := `
		INSERT INTO history_entries(id, task_id, status, score, grade, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (task_id) DO NOTHING`

	args := []any{
		entry.ID, entry.TaskID, entry.Status,
		entry.Score, entry.Grade, entry.RecordedAt,
	}

	appended, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (bool, error) {
		result, err := tx.ExecContext(ctx, q, args...)
		if err != nil {
			return false, err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return false, err
		}
		return affected > 0, nil
	})
	if err != nil {
		return false, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if appended {
		r.logger.Info("history entry recorded",
			"task_id", entry.TaskID,
			"status", entry.Status,
		)
	}
	return appended, nil
}

func (r *repo) Find(ctx context.Context, taskID string) (*Entry, error) {
	q := `
		SELECT id, task_id, status, score, grade, recorded_at
		FROM history_entries
		WHERE task_id = $1`

	entry, err := repository.QueryOne(ctx, r.db, q, []any{taskID}, scanEntry)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &entry, nil
}

func (r *repo) List(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[Entry], error) {
	page.Normalize(r.pagination)

	where := ""
	countArgs := []any{}
	if page.Search != nil {
		where = "WHERE task_id ILIKE '%' || $1 || '%'"
		countArgs = append(countArgs, *page.Search)
	}

	var total int
	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM history_entries %s", where)
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count history entries: %w", err)
	}

	pageSQL := fmt.Sprintf(`
		SELECT id, task_id, status, score, grade, recorded_at
		FROM history_entries
		%s
		ORDER BY recorded_at DESC
		LIMIT $%d OFFSET $%d`,
		where, len(countArgs)+1, len(countArgs)+2,
	)
	pageArgs := append(countArgs, page.PageSize, page.Offset())

	entries, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("query history entries: %w", err)
	}

	result := pagination.NewPageResult(entries, total, page.Page, page.PageSize)
	return &result, nil
}

func scanEntry(s repository.Scanner) (Entry, error) {
	var entry Entry
	err := s.Scan(
		&entry.ID,
		&entry.TaskID,
		&entry.Status,
		&entry.Score,
		&entry.Grade,
		&entry.RecordedAt,
	)
	return entry, err
}
