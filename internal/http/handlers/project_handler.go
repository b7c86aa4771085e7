package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sitetrack/sitetrack-backend/internal/domain"
	"github.com/sitetrack/sitetrack-backend/internal/http/response"
	"github.com/sitetrack/sitetrack-backend/internal/repo/postgres"
)

type ProjectHandler struct {
	Projects postgres.ProjectRepository
	Users    postgres.UserRepository
}

func NewProjectHandler(projects postgres.ProjectRepository, users postgres.UserRepository) *ProjectHandler {
	return &ProjectHandler{Projects: projects, Users: users}
}

func (h *ProjectHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.getByID)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.remove)
	return r
}

func (h *ProjectHandler) list(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.Users)
	if u == nil {
		return
	}

	projects, err := h.Projects.List(r.Context())
	if err != nil {
		response.InternalError(w, "failed to list projects")
		return
	}

	if !u.IsAdmin() {
		visible := projects[:0]
		for _, p := range projects {
			if u.HasProject(p.ID) {
				visible = append(visible, p)
			}
		}
		projects = visible
	}
	response.JSON(w, http.StatusOK, projects)
}

func (h *ProjectHandler) create(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.Users)
	if u == nil {
		return
	}
	if !u.IsAdmin() {
		response.Forbidden(w, "insufficient permissions")
		return
	}

	var in domain.Project
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	if in.Name == "" {
		response.BadRequest(w, "name is required")
		return
	}

	created, err := h.Projects.Create(r.Context(), &in)
	if err != nil {
		response.InternalError(w, "failed to create project")
		return
	}
	response.JSON(w, http.StatusCreated, created)
}

func (h *ProjectHandler) getByID(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.Users)
	if u == nil {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if !canAccessProject(u, id) {
		response.Forbidden(w, "project not accessible")
		return
	}

	p, err := h.Projects.GetByID(r.Context(), id)
	if err != nil {
		response.InternalError(w, "failed to load project")
		return
	}
	if p == nil {
		response.NotFound(w, "project not found")
		return
	}
	response.JSON(w, http.StatusOK, p)
}

func (h *ProjectHandler) update(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.Users)
	if u == nil {
		return
	}
	if !u.IsAdmin() {
		response.Forbidden(w, "insufficient permissions")
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var patch domain.ProjectPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	if patch.Status != nil {
		switch *patch.Status {
		case domain.ProjectPlanning, domain.ProjectActive, domain.ProjectOnHold, domain.ProjectCompleted:
		default:
			response.BadRequest(w, "invalid status")
			return
		}
	}

	updated, err := h.Projects.Update(r.Context(), id, patch)
	if err != nil {
		response.InternalError(w, "failed to update project")
		return
	}
	if updated == nil {
		response.NotFound(w, "project not found")
		return
	}
	response.JSON(w, http.StatusOK, updated)
}

func (h *ProjectHandler) remove(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.Users)
	if u == nil {
		return
	}
	if !u.IsAdmin() {
		response.Forbidden(w, "insufficient permissions")
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.Projects.Delete(r.Context(), id); err != nil {
		response.InternalError(w, "failed to delete project")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
