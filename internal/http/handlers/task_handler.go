package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sitetrack/sitetrack-backend/internal/domain"
	"github.com/sitetrack/sitetrack-backend/internal/http/response"
	"github.com/sitetrack/sitetrack-backend/internal/repo/postgres"
	"github.com/sitetrack/sitetrack-backend/pkg/events"
	"github.com/sitetrack/sitetrack-backend/pkg/logger"
)

type TaskHandler struct {
	Tasks postgres.TaskRepository
	Users postgres.UserRepository
	Bus   events.Publisher
}

func NewTaskHandler(tasks postgres.TaskRepository, users postgres.UserRepository, bus events.Publisher) *TaskHandler {
	return &TaskHandler{Tasks: tasks, Users: users, Bus: bus}
}

func (h *TaskHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.getByID)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.remove)
	return r
}

func (h *TaskHandler) list(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.Users)
	if u == nil {
		return
	}

	projectID := uuidQuery(r, "project_id")
	if projectID == nil {
		response.BadRequest(w, "project_id is required")
		return
	}
	if !canAccessProject(u, *projectID) {
		response.Forbidden(w, "project not accessible")
		return
	}

	var status *domain.TaskStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := domain.TaskStatus(raw)
		switch s {
		case domain.TaskPending, domain.TaskInProgress, domain.TaskDone:
			status = &s
		default:
			response.BadRequest(w, "invalid status")
			return
		}
	}

	tasks, err := h.Tasks.ListByProject(r.Context(), *projectID, status, intQuery(r, "limit", 50), intQuery(r, "offset", 0))
	if err != nil {
		response.InternalError(w, "failed to list tasks")
		return
	}
	response.JSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) create(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.Users)
	if u == nil {
		return
	}
	if u.Role == domain.RoleEmployee {
		response.Forbidden(w, "insufficient permissions")
		return
	}

	var in domain.Task
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	if in.Title == "" || in.ProjectID == uuid.Nil {
		response.BadRequest(w, "title and project_id are required")
		return
	}
	if !canAccessProject(u, in.ProjectID) {
		response.Forbidden(w, "project not accessible")
		return
	}
	in.CreatedBy = u.ID

	created, err := h.Tasks.Create(r.Context(), &in)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to create task", "error", err)
		response.InternalError(w, "failed to create task")
		return
	}

	if err := h.Bus.Publish(r.Context(), events.TaskCreated, events.TaskCreatedEvent{
		TaskID:     created.ID,
		ProjectID:  created.ProjectID,
		Title:      created.Title,
		AssigneeID: created.AssigneeID,
		CreatedBy:  u.ID,
		CreatedAt:  time.Now(),
	}); err != nil {
		logger.WarnContext(r.Context(), "Failed to publish task event", "error", err)
	}

	response.JSON(w, http.StatusCreated, created)
}

func (h *TaskHandler) getByID(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.Users)
	if u == nil {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	t, err := h.Tasks.GetByID(r.Context(), id)
	if err != nil {
		response.InternalError(w, "failed to load task")
		return
	}
	if t == nil {
		response.NotFound(w, "task not found")
		return
	}
	if !canAccessProject(u, t.ProjectID) {
		response.Forbidden(w, "project not accessible")
		return
	}
	response.JSON(w, http.StatusOK, t)
}

func (h *TaskHandler) update(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.Users)
	if u == nil {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	existing, err := h.Tasks.GetByID(r.Context(), id)
	if err != nil {
		response.InternalError(w, "failed to load task")
		return
	}
	if existing == nil {
		response.NotFound(w, "task not found")
		return
	}
	if !canAccessProject(u, existing.ProjectID) {
		response.Forbidden(w, "project not accessible")
		return
	}

	var patch domain.TaskPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}

	// Employees may only move status on tasks assigned to them.
	if u.Role == domain.RoleEmployee {
		if existing.AssigneeID == nil || *existing.AssigneeID != u.ID {
			response.Forbidden(w, "task not assigned to you")
			return
		}
		patch = domain.TaskPatch{Status: patch.Status}
	}
	if patch.Status != nil {
		switch *patch.Status {
		case domain.TaskPending, domain.TaskInProgress, domain.TaskDone:
		default:
			response.BadRequest(w, "invalid status")
			return
		}
	}
	if patch.Priority != nil {
		switch *patch.Priority {
		case domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh:
		default:
			response.BadRequest(w, "invalid priority")
			return
		}
	}

	updated, err := h.Tasks.Update(r.Context(), id, patch)
	if err != nil {
		response.InternalError(w, "failed to update task")
		return
	}
	if updated == nil {
		response.NotFound(w, "task not found")
		return
	}

	if patch.Status != nil {
		if err := h.Bus.Publish(r.Context(), events.TaskUpdated, events.TaskUpdatedEvent{
			TaskID:    updated.ID,
			ProjectID: updated.ProjectID,
			Status:    string(updated.Status),
			UpdatedBy: u.ID,
			UpdatedAt: time.Now(),
		}); err != nil {
			logger.WarnContext(r.Context(), "Failed to publish task event", "error", err)
		}
	}

	response.JSON(w, http.StatusOK, updated)
}

func (h *TaskHandler) remove(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.Users)
	if u == nil {
		return
	}
	if u.Role == domain.RoleEmployee {
		response.Forbidden(w, "insufficient permissions")
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	existing, err := h.Tasks.GetByID(r.Context(), id)
	if err != nil {
		response.InternalError(w, "failed to load task")
		return
	}
	if existing == nil {
		response.NotFound(w, "task not found")
		return
	}
	if !canAccessProject(u, existing.ProjectID) {
		response.Forbidden(w, "project not accessible")
		return
	}

	if err := h.Tasks.Delete(r.Context(), id); err != nil {
		response.InternalError(w, "failed to delete task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
