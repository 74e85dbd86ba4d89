package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/task-diary/apiserver/types"
)

// TaskRepository handles persistence for tasks. Every query is scoped
// to the owning user; a task belonging to another user is treated the
// same as a task that does not exist.
type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]types.Task, error) {
	const query = `
		SELECT id, user_id, title, completed, created_at, updated_at
		FROM tasks
		WHERE user_id = $1
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]types.Task, 0)
	for rows.Next() {
		var task types.Task
		if err := rows.Scan(
			&task.ID,
			&task.UserID,
			&task.Title,
			&task.Completed,
			&task.CreatedAt,
			&task.UpdatedAt,
		); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tasks, nil
}

func (r *TaskRepository) Create(ctx context.Context, task types.Task) (types.Task, error) {
	now := time.Now()
	task.ID = uuid.New()
	task.Completed = false
	task.CreatedAt = now
	task.UpdatedAt = now

	const query = `
		INSERT INTO tasks (id, user_id, title, completed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.UserID,
		task.Title,
		task.Completed,
		task.CreatedAt,
		task.UpdatedAt,
	); err != nil {
		return types.Task{}, err
	}
	return task, nil
}

// Update applies the patch to the task matching both id and owner in a
// single statement, so concurrent updates serialize at the database.
func (r *TaskRepository) Update(ctx context.Context, userID, taskID uuid.UUID, patch types.TaskPatch) (types.Task, error) {
	const query = `
		UPDATE tasks
		SET title = COALESCE($1, title),
			completed = COALESCE($2, completed),
			updated_at = $3
		WHERE id = $4 AND user_id = $5
		RETURNING id, user_id, title, completed, created_at, updated_at`
	var task types.Task
	err := r.db.QueryRowContext(
		ctx,
		query,
		patch.Title,
		patch.Completed,
		time.Now(),
		taskID,
		userID,
	).Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Completed,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Task{}, ErrNotFound
		}
		return types.Task{}, err
	}
	return task, nil
}

// Delete removes the task matching both id and owner. It reports
// whether a row was removed; zero rows is not an error.
func (r *TaskRepository) Delete(ctx context.Context, userID, taskID uuid.UUID) (bool, error) {
	const query = `DELETE FROM tasks WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, taskID, userID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
