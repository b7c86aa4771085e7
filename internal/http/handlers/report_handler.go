package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sitetrack/sitetrack-backend/internal/domain"
	"github.com/sitetrack/sitetrack-backend/internal/http/response"
	"github.com/sitetrack/sitetrack-backend/internal/repo/postgres"
	"github.com/sitetrack/sitetrack-backend/pkg/logger"
)

type ReportHandler struct {
	Users      postgres.UserRepository
	Projects   postgres.ProjectRepository
	Attendance postgres.AttendanceRepository
	Materials  postgres.MaterialRepository
	PettyCash  postgres.PettyCashRepository
}

func NewReportHandler(users postgres.UserRepository, projects postgres.ProjectRepository, attendance postgres.AttendanceRepository, materials postgres.MaterialRepository, pettyCash postgres.PettyCashRepository) *ReportHandler {
	return &ReportHandler{Users: users, Projects: projects, Attendance: attendance, Materials: materials, PettyCash: pettyCash}
}

func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/projects/{id}", h.projectReport)
	return r
}

// ProjectReport is the combined snapshot a site manager pulls at day end:
// attendance over the requested window, current stock and the cash position.
type ProjectReport struct {
	Project    *domain.Project              `json:"project"`
	From       time.Time                    `json:"from"`
	To         time.Time                    `json:"to"`
	Attendance []postgres.AttendanceSummary `json:"attendance"`
	Materials  []domain.Material            `json:"materials"`
	CashBalance float64                     `json:"cash_balance"`
	HeadCount  int                          `json:"head_count"`
}

func (h *ReportHandler) projectReport(w http.ResponseWriter, r *http.Request) {
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
	if !canAccessProject(u, id) {
		response.Forbidden(w, "project not accessible")
		return
	}

	project, err := h.Projects.GetByID(r.Context(), id)
	if err != nil {
		response.InternalError(w, "failed to load project")
		return
	}
	if project == nil {
		response.NotFound(w, "project not found")
		return
	}

	// Default window: the last 7 days.
	to := domain.DayOf(time.Now())
	from := to.AddDate(0, 0, -6)
	if t := dateQuery(r, "from"); t != nil {
		from = *t
	}
	if t := dateQuery(r, "to"); t != nil {
		to = *t
	}
	if from.After(to) {
		response.BadRequest(w, "from must not be after to")
		return
	}

	summary, err := h.Attendance.Summary(r.Context(), id, from, to)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to build attendance summary", "error", err)
		response.InternalError(w, "failed to build report")
		return
	}
	materials, err := h.Materials.ListByProject(r.Context(), id)
	if err != nil {
		response.InternalError(w, "failed to build report")
		return
	}
	balance, err := h.PettyCash.Balance(r.Context(), id)
	if err != nil {
		response.InternalError(w, "failed to build report")
		return
	}
	crew, err := h.Users.ListByProject(r.Context(), id)
	if err != nil {
		response.InternalError(w, "failed to build report")
		return
	}

	response.JSON(w, http.StatusOK, ProjectReport{
		Project:     project,
		From:        from,
		To:          to,
		Attendance:  summary,
		Materials:   materials,
		CashBalance: balance,
		HeadCount:   len(crew),
	})
}
