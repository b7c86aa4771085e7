package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sitetrack/sitetrack-backend/internal/domain"
	"github.com/sitetrack/sitetrack-backend/internal/http/response"
	"github.com/sitetrack/sitetrack-backend/internal/importer"
	"github.com/sitetrack/sitetrack-backend/internal/repo/postgres"
	"github.com/sitetrack/sitetrack-backend/pkg/config"
	"github.com/sitetrack/sitetrack-backend/pkg/events"
	"github.com/sitetrack/sitetrack-backend/pkg/logger"
)

type AttendanceHandler struct {
	Attendance postgres.AttendanceRepository
	Users      postgres.UserRepository
	Importer   *importer.Importer
	Bus        events.Publisher
	Cfg        config.ImportConfig
}

func NewAttendanceHandler(attendance postgres.AttendanceRepository, users postgres.UserRepository, imp *importer.Importer, bus events.Publisher, cfg config.ImportConfig) *AttendanceHandler {
	return &AttendanceHandler{Attendance: attendance, Users: users, Importer: imp, Bus: bus, Cfg: cfg}
}

func (h *AttendanceHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/import", h.importFile)
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/summary", h.summary)
	r.Post("/check-in", h.checkIn)
	r.Post("/check-out", h.checkOut)
	r.Get("/{id}", h.getByID)
	r.Patch("/{id}/status", h.updateStatus)
	r.Delete("/{id}", h.remove)
	return r
}

// importFile accepts a multipart upload of a biometric device export and runs
// the full import pipeline on it.
func (h *AttendanceHandler) importFile(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.Users)
	if u == nil {
		return
	}
	if u.Role == domain.RoleEmployee {
		response.Forbidden(w, "insufficient permissions")
		return
	}

	if err := r.ParseMultipartForm(h.Cfg.MaxUploadBytes); err != nil {
		response.BadRequest(w, "invalid multipart upload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "missing file field")
		return
	}
	defer file.Close()

	result, err := h.Importer.Run(r.Context(), u, header.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, importer.ErrNoProjectAvailable):
			response.WriteError(w, http.StatusBadRequest, err.Error(), response.CodeNoProject)
		case errors.Is(err, importer.ErrMissingLogSection), errors.Is(err, importer.ErrMissingLogColumns):
			response.WriteError(w, http.StatusBadRequest, err.Error(), response.CodeImportFailed)
		case errors.Is(err, importer.ErrFileTooLarge):
			response.WriteError(w, http.StatusRequestEntityTooLarge, err.Error(), response.CodeImportFailed)
		default:
			logger.ErrorContext(r.Context(), "Attendance import failed", "error", err)
			response.WriteError(w, http.StatusInternalServerError, "import failed", response.CodeImportFailed)
		}
		return
	}

	response.JSON(w, http.StatusOK, result)
}

func (h *AttendanceHandler) list(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.Users)
	if u == nil {
		return
	}

	filter := postgres.AttendanceFilter{
		UserID:    uuidQuery(r, "user_id"),
		ProjectID: uuidQuery(r, "project_id"),
		Limit:     intQuery(r, "limit", 50),
		Offset:    intQuery(r, "offset", 0),
	}
	if from := dateQuery(r, "from"); from != nil {
		filter.From = from
	}
	if to := dateQuery(r, "to"); to != nil {
		filter.To = to
	}

	// Employees only see their own records.
	if u.Role == domain.RoleEmployee {
		filter.UserID = &u.ID
	}
	if filter.ProjectID != nil && !canAccessProject(u, *filter.ProjectID) {
		response.Forbidden(w, "project not accessible")
		return
	}

	records, err := h.Attendance.List(r.Context(), filter)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to list attendance", "error", err)
		response.InternalError(w, "failed to list attendance")
		return
	}
	response.JSON(w, http.StatusOK, records)
}

func (h *AttendanceHandler) getByID(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.Users)
	if u == nil {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	rec, err := h.Attendance.GetByID(r.Context(), id)
	if err != nil {
		response.InternalError(w, "failed to load attendance")
		return
	}
	if rec == nil {
		response.NotFound(w, "attendance record not found")
		return
	}
	if u.Role == domain.RoleEmployee && rec.UserID != u.ID {
		response.Forbidden(w, "record not accessible")
		return
	}
	response.JSON(w, http.StatusOK, rec)
}

type createAttendanceRequest struct {
	UserID    uuid.UUID               `json:"user_id"`
	ProjectID *uuid.UUID              `json:"project_id,omitempty"`
	Day       string                  `json:"day"`
	CheckIn   *time.Time              `json:"check_in,omitempty"`
	CheckOut  *time.Time              `json:"check_out,omitempty"`
	Status    domain.AttendanceStatus `json:"status"`
	Notes     string                  `json:"notes,omitempty"`
}

// create records attendance manually, e.g. marking a worker absent or on
// leave for a day without a device scan.
func (h *AttendanceHandler) create(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.Users)
	if u == nil {
		return
	}
	if u.Role == domain.RoleEmployee {
		response.Forbidden(w, "insufficient permissions")
		return
	}

	var in createAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	if in.UserID == uuid.Nil {
		response.BadRequest(w, "user_id is required")
		return
	}
	switch in.Status {
	case domain.AttendancePresent, domain.AttendanceAbsent, domain.AttendanceOnLeave, domain.AttendanceHalfDay:
	case "":
		in.Status = domain.AttendancePresent
	default:
		response.BadRequest(w, "invalid status")
		return
	}
	day, err := time.ParseInLocation("2006-01-02", in.Day, time.Local)
	if err != nil {
		response.BadRequest(w, "day is required (YYYY-MM-DD)")
		return
	}
	if in.ProjectID != nil && !canAccessProject(u, *in.ProjectID) {
		response.Forbidden(w, "project not accessible")
		return
	}

	checkIn := day
	if in.CheckIn != nil {
		checkIn = *in.CheckIn
	}
	rec := &domain.Attendance{
		UserID:    in.UserID,
		ProjectID: in.ProjectID,
		Day:       day,
		CheckIn:   checkIn,
		CheckOut:  in.CheckOut,
		Status:    in.Status,
		Notes:     in.Notes,
	}
	if in.CheckOut != nil {
		rec.WorkHours = domain.WorkHoursBetween(checkIn, *in.CheckOut)
	}

	created, err := h.Attendance.Create(r.Context(), rec)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			response.Conflict(w, "attendance already recorded for that user and day")
			return
		}
		logger.ErrorContext(r.Context(), "Failed to create attendance", "error", err)
		response.InternalError(w, "failed to create attendance")
		return
	}

	h.publishRecorded(r, created)
	response.JSON(w, http.StatusCreated, created)
}

type checkInRequest struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	PhotoURL  *string  `json:"photo_url,omitempty"`
	Notes     string   `json:"notes,omitempty"`
}

// checkIn records the day's first scan for the calling user. A repeat call on
// the same day is a conflict; the span only moves through check-out.
func (h *AttendanceHandler) checkIn(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.Users)
	if u == nil {
		return
	}

	var in checkInRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&in)
	}

	now := time.Now()
	day := domain.DayOf(now)

	existing, err := h.Attendance.GetByUserAndDay(r.Context(), u.ID, day)
	if err != nil {
		response.InternalError(w, "failed to check attendance")
		return
	}
	if existing != nil {
		response.Conflict(w, "already checked in today")
		return
	}

	rec := &domain.Attendance{
		UserID:    u.ID,
		Day:       day,
		CheckIn:   now,
		WorkHours: 0,
		Status:    domain.AttendancePresent,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		PhotoURL:  in.PhotoURL,
		Notes:     in.Notes,
	}
	if len(u.ProjectIDs) > 0 {
		rec.ProjectID = &u.ProjectIDs[0]
	}

	created, err := h.Attendance.Create(r.Context(), rec)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			response.Conflict(w, "already checked in today")
			return
		}
		logger.ErrorContext(r.Context(), "Failed to create attendance", "error", err)
		response.InternalError(w, "failed to check in")
		return
	}

	h.publishRecorded(r, created)
	response.JSON(w, http.StatusCreated, created)
}

func (h *AttendanceHandler) checkOut(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.Users)
	if u == nil {
		return
	}

	now := time.Now()
	day := domain.DayOf(now)

	existing, err := h.Attendance.GetByUserAndDay(r.Context(), u.ID, day)
	if err != nil {
		response.InternalError(w, "failed to check attendance")
		return
	}
	if existing == nil {
		response.NotFound(w, "no check-in recorded today")
		return
	}

	checkOut := now
	if existing.CheckOut != nil && existing.CheckOut.After(checkOut) {
		checkOut = *existing.CheckOut
	}

	updated, err := h.Attendance.UpdateSpan(r.Context(), existing.ID, existing.CheckIn, checkOut,
		domain.WorkHoursBetween(existing.CheckIn, checkOut))
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to update attendance", "error", err)
		response.InternalError(w, "failed to check out")
		return
	}

	h.publishRecorded(r, updated)
	response.JSON(w, http.StatusOK, updated)
}

type statusUpdateRequest struct {
	Status domain.AttendanceStatus `json:"status"`
	Notes  string                  `json:"notes,omitempty"`
}

func (h *AttendanceHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
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

	var in statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	switch in.Status {
	case domain.AttendancePresent, domain.AttendanceAbsent, domain.AttendanceOnLeave, domain.AttendanceHalfDay:
	default:
		response.BadRequest(w, "invalid status")
		return
	}

	updated, err := h.Attendance.UpdateStatus(r.Context(), id, in.Status, in.Notes)
	if err != nil {
		response.InternalError(w, "failed to update status")
		return
	}
	if updated == nil {
		response.NotFound(w, "attendance record not found")
		return
	}
	response.JSON(w, http.StatusOK, updated)
}

func (h *AttendanceHandler) remove(w http.ResponseWriter, r *http.Request) {
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
	if err := h.Attendance.Delete(r.Context(), id); err != nil {
		response.InternalError(w, "failed to delete attendance")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AttendanceHandler) summary(w http.ResponseWriter, r *http.Request) {
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

	from := dateQuery(r, "from")
	to := dateQuery(r, "to")
	if from == nil || to == nil {
		response.BadRequest(w, "from and to are required (YYYY-MM-DD)")
		return
	}

	summary, err := h.Attendance.Summary(r.Context(), *projectID, *from, *to)
	if err != nil {
		response.InternalError(w, "failed to build summary")
		return
	}
	response.JSON(w, http.StatusOK, summary)
}

func (h *AttendanceHandler) publishRecorded(r *http.Request, rec *domain.Attendance) {
	if err := h.Bus.Publish(r.Context(), events.AttendanceRecorded, events.AttendanceRecordedEvent{
		AttendanceID: rec.ID,
		UserID:       rec.UserID,
		Day:          rec.Day,
		Status:       string(rec.Status),
		RecordedAt:   time.Now(),
	}); err != nil {
		logger.WarnContext(r.Context(), "Failed to publish attendance event", "error", err)
	}
}

func dateQuery(r *http.Request, name string) *time.Time {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return nil
	}
	return &t
}
