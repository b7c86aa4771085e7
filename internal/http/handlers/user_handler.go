package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/alexedwards/argon2id"
	"github.com/go-chi/chi/v5"

	"github.com/sitetrack/sitetrack-backend/internal/domain"
	"github.com/sitetrack/sitetrack-backend/internal/http/response"
	"github.com/sitetrack/sitetrack-backend/internal/repo/postgres"
	"github.com/sitetrack/sitetrack-backend/internal/utils"
	"github.com/sitetrack/sitetrack-backend/pkg/logger"
)

type UserHandler struct {
	Users postgres.UserRepository
}

func NewUserHandler(users postgres.UserRepository) *UserHandler {
	return &UserHandler{Users: users}
}

func (h *UserHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/me", h.me)
	r.Get("/{id}", h.getByID)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.deactivate)
	return r
}

func (h *UserHandler) list(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.Users)
	if u == nil {
		return
	}
	if u.Role == domain.RoleEmployee {
		response.Forbidden(w, "insufficient permissions")
		return
	}

	if projectID := uuidQuery(r, "project_id"); projectID != nil {
		if !canAccessProject(u, *projectID) {
			response.Forbidden(w, "project not accessible")
			return
		}
		users, err := h.Users.ListByProject(r.Context(), *projectID)
		if err != nil {
			response.InternalError(w, "failed to list users")
			return
		}
		response.JSON(w, http.StatusOK, users)
		return
	}

	users, err := h.Users.List(r.Context(), intQuery(r, "limit", 20), intQuery(r, "offset", 0))
	if err != nil {
		response.InternalError(w, "failed to list users")
		return
	}
	response.JSON(w, http.StatusOK, users)
}

func (h *UserHandler) create(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.Users)
	if u == nil {
		return
	}
	if !u.IsAdmin() {
		response.Forbidden(w, "insufficient permissions")
		return
	}

	var in domain.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	in.Email = utils.NormalizeEmail(in.Email)
	if in.Name == "" || !utils.IsValidEmail(in.Email) || len(in.Password) < 8 {
		response.BadRequest(w, "name, valid email and a password of at least 8 characters are required")
		return
	}
	switch in.Role {
	case domain.RoleAdmin, domain.RoleManager, domain.RoleEmployee:
	case "":
		in.Role = domain.RoleEmployee
	default:
		response.BadRequest(w, "invalid role")
		return
	}

	existing, err := h.Users.FindByEmail(r.Context(), in.Email)
	if err != nil {
		response.InternalError(w, "failed to check email")
		return
	}
	if existing != nil {
		response.WriteError(w, http.StatusConflict, "email already in use", response.CodeEmailExists)
		return
	}

	hash, err := argon2id.CreateHash(in.Password, argon2id.DefaultParams)
	if err != nil {
		response.InternalError(w, "failed to hash password")
		return
	}

	created, err := h.Users.Create(r.Context(), &in, hash)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to create user", "error", err)
		response.InternalError(w, "failed to create user")
		return
	}
	response.JSON(w, http.StatusCreated, created)
}

func (h *UserHandler) me(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.Users)
	if u == nil {
		return
	}
	response.JSON(w, http.StatusOK, u)
}

func (h *UserHandler) getByID(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.Users)
	if u == nil {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if u.Role == domain.RoleEmployee && id != u.ID {
		response.Forbidden(w, "insufficient permissions")
		return
	}

	found, err := h.Users.FindByID(r.Context(), id)
	if err != nil {
		response.InternalError(w, "failed to load user")
		return
	}
	if found == nil {
		response.NotFound(w, "user not found")
		return
	}
	response.JSON(w, http.StatusOK, found)
}

func (h *UserHandler) update(w http.ResponseWriter, r *http.Request) {
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

	var in domain.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	if in.Role != nil {
		switch *in.Role {
		case domain.RoleAdmin, domain.RoleManager, domain.RoleEmployee:
		default:
			response.BadRequest(w, "invalid role")
			return
		}
	}

	updated, err := h.Users.Update(r.Context(), id, &in)
	if err != nil {
		response.InternalError(w, "failed to update user")
		return
	}
	if updated == nil {
		response.NotFound(w, "user not found")
		return
	}
	response.JSON(w, http.StatusOK, updated)
}

func (h *UserHandler) deactivate(w http.ResponseWriter, r *http.Request) {
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
	if id == u.ID {
		response.BadRequest(w, "cannot deactivate your own account")
		return
	}
	if err := h.Users.Deactivate(r.Context(), id); err != nil {
		response.InternalError(w, "failed to deactivate user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
