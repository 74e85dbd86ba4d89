package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/task-diary/apiserver/types"
)

// ErrMissingTitle is returned when a task title is empty after trimming.
var ErrMissingTitle = errors.New("title is required")

// TaskRepository defines persistence operations for tasks. All
// operations are scoped to the owning user.
type TaskRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]types.Task, error)
	Create(ctx context.Context, task types.Task) (types.Task, error)
	Update(ctx context.Context, userID, taskID uuid.UUID, patch types.TaskPatch) (types.Task, error)
	Delete(ctx context.Context, userID, taskID uuid.UUID) (bool, error)
}

// TaskService encapsulates task use-cases for a single owner.
type TaskService struct {
	repo TaskRepository
}

func NewTaskService(repo TaskRepository) *TaskService {
	return &TaskService{repo: repo}
}

// List returns the user's tasks, newest first.
func (s *TaskService) List(ctx context.Context, userID uuid.UUID) ([]types.Task, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *TaskService) Create(ctx context.Context, userID uuid.UUID, title string) (types.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return types.Task{}, ErrMissingTitle
	}
	return s.repo.Create(ctx, types.Task{
		UserID: userID,
		Title:  title,
	})
}

// Update applies the patch to a task owned by userID. A task owned by
// someone else yields store.ErrNotFound, same as a missing task.
func (s *TaskService) Update(ctx context.Context, userID, taskID uuid.UUID, patch types.TaskPatch) (types.Task, error) {
	if patch.Title != nil {
		trimmed := strings.TrimSpace(*patch.Title)
		if trimmed == "" {
			return types.Task{}, ErrMissingTitle
		}
		patch.Title = &trimmed
	}
	return s.repo.Update(ctx, userID, taskID, patch)
}

// Delete removes a task owned by userID. Deleting a task that does not
// exist or is not owned is a no-op, not an error.
func (s *TaskService) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	_, err := s.repo.Delete(ctx, userID, taskID)
	return err
}
