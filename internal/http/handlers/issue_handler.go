package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sitetrack/sitetrack-backend/internal/domain"
	"github.com/sitetrack/sitetrack-backend/internal/http/response"
	"github.com/sitetrack/sitetrack-backend/internal/platform/mailer"
	"github.com/sitetrack/sitetrack-backend/internal/repo/postgres"
	"github.com/sitetrack/sitetrack-backend/pkg/events"
	"github.com/sitetrack/sitetrack-backend/pkg/logger"
)

type IssueHandler struct {
	Issues   postgres.IssueRepository
	Users    postgres.UserRepository
	Projects postgres.ProjectRepository
	Bus      events.Publisher
	Mail     mailer.Service
}

func NewIssueHandler(issues postgres.IssueRepository, users postgres.UserRepository, projects postgres.ProjectRepository, bus events.Publisher, mail mailer.Service) *IssueHandler {
	return &IssueHandler{Issues: issues, Users: users, Projects: projects, Bus: bus, Mail: mail}
}

func (h *IssueHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.getByID)
	r.Patch("/{id}", h.update)
	r.Post("/{id}/assign", h.assign)
	r.Delete("/{id}", h.remove)
	return r
}

func (h *IssueHandler) list(w http.ResponseWriter, r *http.Request) {
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

	var status *domain.IssueStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := domain.IssueStatus(raw)
		switch s {
		case domain.IssueOpen, domain.IssueInProgress, domain.IssueResolved, domain.IssueClosed:
			status = &s
		default:
			response.BadRequest(w, "invalid status")
			return
		}
	}

	issues, err := h.Issues.ListByProject(r.Context(), *projectID, status, intQuery(r, "limit", 50), intQuery(r, "offset", 0))
	if err != nil {
		response.InternalError(w, "failed to list issues")
		return
	}
	response.JSON(w, http.StatusOK, issues)
}

// create lets any project member report an issue.
func (h *IssueHandler) create(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.Users)
	if u == nil {
		return
	}

	var in domain.Issue
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
	in.ReportedBy = u.ID

	created, err := h.Issues.Create(r.Context(), &in)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to create issue", "error", err)
		response.InternalError(w, "failed to create issue")
		return
	}

	if err := h.Bus.Publish(r.Context(), events.IssueCreated, events.IssueCreatedEvent{
		IssueID:   created.ID,
		ProjectID: created.ProjectID,
		Title:     created.Title,
		Severity:   string(created.Severity),
		ReportedBy: u.ID,
		CreatedAt:  time.Now(),
	}); err != nil {
		logger.WarnContext(r.Context(), "Failed to publish issue event", "error", err)
	}

	response.JSON(w, http.StatusCreated, created)
}

func (h *IssueHandler) getByID(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.Users)
	if u == nil {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	issue, err := h.Issues.GetByID(r.Context(), id)
	if err != nil {
		response.InternalError(w, "failed to load issue")
		return
	}
	if issue == nil {
		response.NotFound(w, "issue not found")
		return
	}
	if !canAccessProject(u, issue.ProjectID) {
		response.Forbidden(w, "project not accessible")
		return
	}
	response.JSON(w, http.StatusOK, issue)
}

func (h *IssueHandler) update(w http.ResponseWriter, r *http.Request) {
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

	existing, err := h.Issues.GetByID(r.Context(), id)
	if err != nil {
		response.InternalError(w, "failed to load issue")
		return
	}
	if existing == nil {
		response.NotFound(w, "issue not found")
		return
	}
	if !canAccessProject(u, existing.ProjectID) {
		response.Forbidden(w, "project not accessible")
		return
	}

	var patch domain.IssuePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	if patch.Status != nil {
		switch *patch.Status {
		case domain.IssueOpen, domain.IssueInProgress, domain.IssueResolved, domain.IssueClosed:
		default:
			response.BadRequest(w, "invalid status")
			return
		}
	}
	if patch.Severity != nil {
		switch *patch.Severity {
		case domain.SeverityMinor, domain.SeverityMajor, domain.SeverityCritical:
		default:
			response.BadRequest(w, "invalid severity")
			return
		}
	}

	updated, err := h.Issues.Update(r.Context(), id, patch)
	if err != nil {
		response.InternalError(w, "failed to update issue")
		return
	}
	if updated == nil {
		response.NotFound(w, "issue not found")
		return
	}
	response.JSON(w, http.StatusOK, updated)
}

type assignRequest struct {
	AssigneeID uuid.UUID `json:"assignee_id"`
}

// assign sets the assignee, publishes the event and notifies them by email.
func (h *IssueHandler) assign(w http.ResponseWriter, r *http.Request) {
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

	var in assignRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.AssigneeID == uuid.Nil {
		response.BadRequest(w, "assignee_id is required")
		return
	}

	issue, err := h.Issues.GetByID(r.Context(), id)
	if err != nil {
		response.InternalError(w, "failed to load issue")
		return
	}
	if issue == nil {
		response.NotFound(w, "issue not found")
		return
	}
	if !canAccessProject(u, issue.ProjectID) {
		response.Forbidden(w, "project not accessible")
		return
	}

	assignee, err := h.Users.FindByID(r.Context(), in.AssigneeID)
	if err != nil {
		response.InternalError(w, "failed to load assignee")
		return
	}
	if assignee == nil || !assignee.Active {
		response.BadRequest(w, "assignee not found or deactivated")
		return
	}

	updated, err := h.Issues.Update(r.Context(), id, domain.IssuePatch{AssigneeID: &in.AssigneeID})
	if err != nil {
		response.InternalError(w, "failed to assign issue")
		return
	}

	if err := h.Bus.Publish(r.Context(), events.IssueAssigned, events.IssueAssignedEvent{
		IssueID:    updated.ID,
		ProjectID:  updated.ProjectID,
		AssigneeID: in.AssigneeID,
		AssignedBy: u.ID,
		AssignedAt: time.Now(),
	}); err != nil {
		logger.WarnContext(r.Context(), "Failed to publish issue event", "error", err)
	}

	projectName := ""
	if p, err := h.Projects.GetByID(r.Context(), updated.ProjectID); err == nil && p != nil {
		projectName = p.Name
	}
	if err := h.Mail.SendIssueAssigned(assignee.Email, assignee.Name, updated.Title, projectName); err != nil {
		logger.WarnContext(r.Context(), "Failed to send assignment email", "error", err)
	}

	response.JSON(w, http.StatusOK, updated)
}

func (h *IssueHandler) remove(w http.ResponseWriter, r *http.Request) {
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
	if err := h.Issues.Delete(r.Context(), id); err != nil {
		response.InternalError(w, "failed to delete issue")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
