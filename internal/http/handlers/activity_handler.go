package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sitetrack/sitetrack-backend/internal/domain"
	"github.com/sitetrack/sitetrack-backend/internal/http/response"
	"github.com/sitetrack/sitetrack-backend/internal/repo/postgres"
)

type ActivityHandler struct {
	Activity postgres.ActivityRepository
	Users    postgres.UserRepository
}

func NewActivityHandler(activity postgres.ActivityRepository, users postgres.UserRepository) *ActivityHandler {
	return &ActivityHandler{Activity: activity, Users: users}
}

func (h *ActivityHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	return r
}

func (h *ActivityHandler) list(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.Users)
	if u == nil {
		return
	}
	if u.Role == domain.RoleEmployee {
		response.Forbidden(w, "insufficient permissions")
		return
	}

	entries, err := h.Activity.List(r.Context(), intQuery(r, "limit", 50), intQuery(r, "offset", 0))
	if err != nil {
		response.InternalError(w, "failed to list activity")
		return
	}
	response.JSON(w, http.StatusOK, entries)
}
