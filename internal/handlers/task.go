package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/task-diary/apiserver/internal/logger"
	"github.com/task-diary/apiserver/internal/services"
	"github.com/task-diary/apiserver/internal/store"
	"github.com/task-diary/apiserver/types"
)

// TaskHandler provides HTTP handlers for the per-user task CRUD.
type TaskHandler struct {
	taskService *services.TaskService
}

// NewTaskHandler constructs a handler with the provided service.
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// TaskRouter registers task routes on the given router. Every route is
// wrapped by the auth middleware.
func TaskRouter(r chi.Router, taskService *services.TaskService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewTaskHandler(taskService)

	r.Use(authMiddleware)
	r.Get("/", handler.ListTasks)
	r.Post("/", handler.CreateTask)
	r.Route("/{taskID}", func(r chi.Router) {
		r.Put("/", handler.UpdateTask)
		r.Delete("/", handler.DeleteTask)
	})
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	tasks, err := h.taskService.List(r.Context(), identity.UserID)
	if err != nil {
		logger.Log.Errorw("list tasks", "error", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Title required")
		return
	}

	task, err := h.taskService.Create(r.Context(), identity.UserID, req.Title)
	if err != nil {
		if errors.Is(err, services.ErrMissingTitle) {
			writeError(w, http.StatusBadRequest, "Title required")
			return
		}
		logger.Log.Errorw("create task", "error", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	taskID, err := parseTaskID(r)
	if err != nil {
		// A malformed id cannot match any owned task.
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}

	var patch types.TaskPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	task, err := h.taskService.Update(r.Context(), identity.UserID, taskID, patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Task not found")
			return
		}
		if errors.Is(err, services.ErrMissingTitle) {
			writeError(w, http.StatusBadRequest, "Title required")
			return
		}
		logger.Log.Errorw("update task", "error", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	taskID, err := parseTaskID(r)
	if err != nil {
		// Same silent success as deleting a nonexistent task.
		writeJSON(w, http.StatusOK, MessageResponse{Msg: "Deleted"})
		return
	}

	if err := h.taskService.Delete(r.Context(), identity.UserID, taskID); err != nil {
		logger.Log.Errorw("delete task", "error", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Msg: "Deleted"})
}

type CreateTaskRequest struct {
	Title string `json:"title"`
}

func parseTaskID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "taskID"))
}
