package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taskgram/api/internal/domain"
	"github.com/taskgram/api/internal/platform/logger"
	"github.com/taskgram/api/internal/store"
)

// taskColumns is the canonical SELECT/RETURNING column list for task rows.
const taskColumns = "id, owner_id, title, description, status, priority, due_date, created_at, updated_at"

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the
// TaskStore interface. It accepts a database connection or transaction that
// should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// Create implements store.TaskStore.Create
// It saves a new task to the database, handling domain validation.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO tasks (id, owner_id, title, description, status, priority, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.OwnerID,
		task.Title,
		nullString(task.Description),
		task.Status,
		task.Priority,
		nullTime(task.DueDate),
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()),
			slog.Int64("owner_id", task.OwnerID))
		return MapError(err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.Int64("owner_id", task.OwnerID),
		slog.String("status", string(task.Status)))
	return nil
}

// GetByID implements store.TaskStore.GetByID
// Returns store.ErrTaskNotFound if no row matches (owner, id); a task that
// exists under a different owner is indistinguishable from one that does
// not exist at all.
func (s *PostgresTaskStore) GetByID(
	ctx context.Context,
	ownerID int64,
	id uuid.UUID,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE owner_id = $1 AND id = $2`, taskColumns)

	task, err := scanTask(s.db.QueryRowContext(ctx, query, ownerID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()),
			slog.Int64("owner_id", ownerID))
		return nil, MapError(err)
	}

	return task, nil
}

// List implements store.TaskStore.List
// Filters combine conjunctively; an empty filter set returns every task the
// owner has. Row order follows the database's default scan order.
func (s *PostgresTaskStore) List(
	ctx context.Context,
	ownerID int64,
	filters store.TaskFilters,
) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	where, args := buildListWhere(ownerID, filters)
	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE %s`, taskColumns, where)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list tasks",
			slog.String("error", err.Error()),
			slog.Int64("owner_id", ownerID))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, MapError(err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return tasks, nil
}

// Update implements store.TaskStore.Update
// Only fields present in the update are written; updated_at is always
// refreshed. Returns store.ErrTaskNotFound if no row matched (owner, id).
func (s *PostgresTaskStore) Update(
	ctx context.Context,
	ownerID int64,
	id uuid.UUID,
	update store.TaskUpdate,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	set, args := buildUpdateSet(update, time.Now().UTC())
	args = append(args, ownerID, id)

	query := fmt.Sprintf(
		`UPDATE tasks SET %s WHERE owner_id = $%d AND id = $%d RETURNING %s`,
		set, len(args)-1, len(args), taskColumns,
	)

	task, err := scanTask(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()),
			slog.Int64("owner_id", ownerID))
		return nil, MapError(err)
	}

	log.Info("task updated",
		slog.String("task_id", id.String()),
		slog.Int64("owner_id", ownerID))
	return task, nil
}

// Delete implements store.TaskStore.Delete
// Hard delete; returns store.ErrTaskNotFound if nothing was deleted.
func (s *PostgresTaskStore) Delete(ctx context.Context, ownerID int64, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(
		ctx,
		`DELETE FROM tasks WHERE owner_id = $1 AND id = $2`,
		ownerID, id,
	)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()),
			slog.Int64("owner_id", ownerID))
		return MapError(err)
	}

	if err := CheckRowsAffected(result); err != nil {
		return err
	}

	log.Info("task deleted",
		slog.String("task_id", id.String()),
		slog.Int64("owner_id", ownerID))
	return nil
}

// FindDueSoon implements store.TaskStore.FindDueSoon
// Only pending tasks with now <= due_date <= now+window qualify.
func (s *PostgresTaskStore) FindDueSoon(
	ctx context.Context,
	ownerID int64,
	now time.Time,
	window time.Duration,
) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := fmt.Sprintf(`
		SELECT %s FROM tasks
		WHERE owner_id = $1
		  AND status = $2
		  AND due_date >= $3
		  AND due_date <= $4
	`, taskColumns)

	rows, err := s.db.QueryContext(
		ctx,
		query,
		ownerID,
		domain.TaskStatusPending,
		now,
		now.Add(window),
	)
	if err != nil {
		log.Error("failed to query due-soon tasks",
			slog.String("error", err.Error()),
			slog.Int64("owner_id", ownerID))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, MapError(err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return tasks, nil
}

// DistinctOwnerIDs implements store.TaskStore.DistinctOwnerIDs
func (s *PostgresTaskStore) DistinctOwnerIDs(ctx context.Context) ([]int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT owner_id FROM tasks`)
	if err != nil {
		log.Error("failed to enumerate owners", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	owners := make([]int64, 0)
	for rows.Next() {
		var ownerID int64
		if err := rows.Scan(&ownerID); err != nil {
			return nil, MapError(err)
		}
		if ownerID > 0 {
			owners = append(owners, ownerID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return owners, nil
}

// buildListWhere builds the WHERE clause and argument list for List.
// Filter conditions are appended in a fixed order so the generated SQL is
// stable for a given filter set.
func buildListWhere(ownerID int64, filters store.TaskFilters) (string, []any) {
	conditions := []string{"owner_id = $1"}
	args := []any{ownerID}

	if filters.Status != nil {
		args = append(args, *filters.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filters.Priority != nil {
		args = append(args, *filters.Priority)
		conditions = append(conditions, fmt.Sprintf("priority = $%d", len(args)))
	}
	if filters.DueDateFrom != nil {
		args = append(args, *filters.DueDateFrom)
		conditions = append(conditions, fmt.Sprintf("due_date >= $%d", len(args)))
	}
	if filters.DueDateTo != nil {
		args = append(args, *filters.DueDateTo)
		conditions = append(conditions, fmt.Sprintf("due_date <= $%d", len(args)))
	}

	return strings.Join(conditions, " AND "), args
}

// buildUpdateSet builds the SET clause and argument list for Update.
// updated_at always leads; nullable columns honor their Set flags so a
// present-but-nil Description or DueDate writes NULL.
func buildUpdateSet(update store.TaskUpdate, now time.Time) (string, []any) {
	assignments := []string{"updated_at = $1"}
	args := []any{now}

	if update.Title != nil {
		args = append(args, *update.Title)
		assignments = append(assignments, fmt.Sprintf("title = $%d", len(args)))
	}
	if update.Status != nil {
		args = append(args, *update.Status)
		assignments = append(assignments, fmt.Sprintf("status = $%d", len(args)))
	}
	if update.Priority != nil {
		args = append(args, *update.Priority)
		assignments = append(assignments, fmt.Sprintf("priority = $%d", len(args)))
	}
	if update.DescriptionSet {
		args = append(args, nullString(update.Description))
		assignments = append(assignments, fmt.Sprintf("description = $%d", len(args)))
	}
	if update.DueDateSet {
		args = append(args, nullTime(update.DueDate))
		assignments = append(assignments, fmt.Sprintf("due_date = $%d", len(args)))
	}

	return strings.Join(assignments, ", "), args
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask reads one task row into a domain.Task, normalizing nullable
// columns into pointers and timestamps into UTC.
func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task        domain.Task
		description sql.NullString
		dueDate     sql.NullTime
	)

	err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.Title,
		&description,
		&task.Status,
		&task.Priority,
		&dueDate,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		task.Description = &description.String
	}
	if dueDate.Valid {
		t := dueDate.Time.UTC()
		task.DueDate = &t
	}
	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()

	return &task, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
