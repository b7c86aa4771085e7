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

type PettyCashHandler struct {
	Entries postgres.PettyCashRepository
	Users   postgres.UserRepository
	Bus     events.Publisher
}

func NewPettyCashHandler(entries postgres.PettyCashRepository, users postgres.UserRepository, bus events.Publisher) *PettyCashHandler {
	return &PettyCashHandler{Entries: entries, Users: users, Bus: bus}
}

func (h *PettyCashHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/balance", h.balance)
	return r
}

func (h *PettyCashHandler) list(w http.ResponseWriter, r *http.Request) {
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

	entries, err := h.Entries.ListByProject(r.Context(), *projectID, intQuery(r, "limit", 50), intQuery(r, "offset", 0))
	if err != nil {
		response.InternalError(w, "failed to list petty cash entries")
		return
	}
	response.JSON(w, http.StatusOK, entries)
}

func (h *PettyCashHandler) create(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.Users)
	if u == nil {
		return
	}
	if u.Role == domain.RoleEmployee {
		response.Forbidden(w, "insufficient permissions")
		return
	}

	var in domain.PettyCashEntry
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	if in.ProjectID == uuid.Nil {
		response.BadRequest(w, "project_id is required")
		return
	}
	if in.Type != domain.PettyCashCredit && in.Type != domain.PettyCashDebit {
		response.BadRequest(w, "type must be 'credit' or 'debit'")
		return
	}
	if in.Amount <= 0 {
		response.BadRequest(w, "amount must be positive")
		return
	}
	if !canAccessProject(u, in.ProjectID) {
		response.Forbidden(w, "project not accessible")
		return
	}
	in.CreatedBy = u.ID

	created, err := h.Entries.Create(r.Context(), &in)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to record petty cash entry", "error", err)
		response.InternalError(w, "failed to record entry")
		return
	}

	if err := h.Bus.Publish(r.Context(), events.PettyCashRecorded, events.PettyCashRecordedEvent{
		EntryID:    created.ID,
		ProjectID:  created.ProjectID,
		EntryType:  string(created.Type),
		Amount:     created.Amount,
		CreatedBy:  created.CreatedBy,
		RecordedAt: time.Now(),
	}); err != nil {
		logger.WarnContext(r.Context(), "Failed to publish petty cash event", "error", err)
	}

	response.JSON(w, http.StatusCreated, created)
}

func (h *PettyCashHandler) balance(w http.ResponseWriter, r *http.Request) {
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

	balance, err := h.Entries.Balance(r.Context(), *projectID)
	if err != nil {
		response.InternalError(w, "failed to compute balance")
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"project_id": projectID,
		"balance":    balance,
	})
}
