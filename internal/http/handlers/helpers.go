package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sitetrack/sitetrack-backend/internal/domain"
	mw "github.com/sitetrack/sitetrack-backend/internal/http/middleware"
	"github.com/sitetrack/sitetrack-backend/internal/http/response"
	"github.com/sitetrack/sitetrack-backend/internal/repo/postgres"
)

// actor loads the authenticated user behind the request. Writes the error
// response itself; callers just bail on nil.
func actor(w http.ResponseWriter, r *http.Request, users postgres.UserRepository) *domain.User {
	claims := mw.Claims(r)
	if claims == nil {
		response.Unauthorized(w, "authentication required")
		return nil
	}
	u, err := users.FindByID(r.Context(), claims.Sub)
	if err != nil {
		response.InternalError(w, "failed to load user")
		return nil
	}
	if u == nil || !u.Active {
		response.Unauthorized(w, "account not found or deactivated")
		return nil
	}
	return u
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		response.BadRequest(w, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func uuidQuery(r *http.Request, name string) *uuid.UUID {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

func intQuery(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// canAccessProject checks project-scoped visibility: admins see everything,
// everyone else only their assigned projects.
func canAccessProject(u *domain.User, projectID uuid.UUID) bool {
	return u.IsAdmin() || u.HasProject(projectID)
}
