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
	"github.com/sitetrack/sitetrack-backend/internal/repo/postgres"
	"github.com/sitetrack/sitetrack-backend/pkg/events"
	"github.com/sitetrack/sitetrack-backend/pkg/logger"
)

type InventoryHandler struct {
	Materials postgres.MaterialRepository
	Users     postgres.UserRepository
	Bus       events.Publisher
}

func NewInventoryHandler(materials postgres.MaterialRepository, users postgres.UserRepository, bus events.Publisher) *InventoryHandler {
	return &InventoryHandler{Materials: materials, Users: users, Bus: bus}
}

func (h *InventoryHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/materials", h.listMaterials)
	r.Post("/materials", h.createMaterial)
	r.Post("/materials/{id}/adjust", h.adjustStock)
	r.Get("/transfers", h.listTransfers)
	r.Post("/transfers", h.transfer)
	r.Get("/consumption", h.listConsumption)
	r.Post("/consumption", h.consume)
	return r
}

func (h *InventoryHandler) listMaterials(w http.ResponseWriter, r *http.Request) {
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

	materials, err := h.Materials.ListByProject(r.Context(), *projectID)
	if err != nil {
		response.InternalError(w, "failed to list materials")
		return
	}
	response.JSON(w, http.StatusOK, materials)
}

// createMaterial registers stock arriving on site. Posting an existing
// (project, name, unit) tops up the quantity instead of duplicating the row.
func (h *InventoryHandler) createMaterial(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.Users)
	if u == nil {
		return
	}
	if u.Role == domain.RoleEmployee {
		response.Forbidden(w, "insufficient permissions")
		return
	}

	var in domain.Material
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	if in.Name == "" || in.Unit == "" || in.ProjectID == uuid.Nil {
		response.BadRequest(w, "name, unit and project_id are required")
		return
	}
	if in.Quantity < 0 {
		response.BadRequest(w, "quantity must not be negative")
		return
	}
	if !canAccessProject(u, in.ProjectID) {
		response.Forbidden(w, "project not accessible")
		return
	}

	created, err := h.Materials.Create(r.Context(), &in)
	if err != nil {
		response.InternalError(w, "failed to create material")
		return
	}
	response.JSON(w, http.StatusCreated, created)
}

type adjustRequest struct {
	Delta float64 `json:"delta"`
}

func (h *InventoryHandler) adjustStock(w http.ResponseWriter, r *http.Request) {
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

	var in adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Delta == 0 {
		response.BadRequest(w, "non-zero delta is required")
		return
	}

	updated, err := h.Materials.AdjustStock(r.Context(), id, in.Delta)
	if err != nil {
		if errors.Is(err, postgres.ErrInsufficientStock) {
			response.WriteError(w, http.StatusConflict, "insufficient stock", response.CodeStockShort)
			return
		}
		response.InternalError(w, "failed to adjust stock")
		return
	}
	response.JSON(w, http.StatusOK, updated)
}

func (h *InventoryHandler) listTransfers(w http.ResponseWriter, r *http.Request) {
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

	transfers, err := h.Materials.ListTransfers(r.Context(), *projectID, intQuery(r, "limit", 50), intQuery(r, "offset", 0))
	if err != nil {
		response.InternalError(w, "failed to list transfers")
		return
	}
	response.JSON(w, http.StatusOK, transfers)
}

func (h *InventoryHandler) transfer(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.Users)
	if u == nil {
		return
	}
	if u.Role == domain.RoleEmployee {
		response.Forbidden(w, "insufficient permissions")
		return
	}

	var in domain.Transfer
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	if in.MaterialID == uuid.Nil || in.FromProjectID == uuid.Nil || in.ToProjectID == uuid.Nil {
		response.BadRequest(w, "material_id, from_project_id and to_project_id are required")
		return
	}
	if in.FromProjectID == in.ToProjectID {
		response.BadRequest(w, "source and destination projects must differ")
		return
	}
	if in.Quantity <= 0 {
		response.BadRequest(w, "quantity must be positive")
		return
	}
	if !canAccessProject(u, in.FromProjectID) {
		response.Forbidden(w, "source project not accessible")
		return
	}
	in.CreatedBy = u.ID

	created, err := h.Materials.Transfer(r.Context(), &in)
	if err != nil {
		if errors.Is(err, postgres.ErrInsufficientStock) {
			response.WriteError(w, http.StatusConflict, "insufficient stock at source project", response.CodeStockShort)
			return
		}
		logger.ErrorContext(r.Context(), "Material transfer failed", "error", err)
		response.InternalError(w, "failed to transfer material")
		return
	}

	if err := h.Bus.Publish(r.Context(), events.MaterialTransferred, events.MaterialTransferredEvent{
		TransferID:    created.ID,
		MaterialID:    created.MaterialID,
		FromProjectID: created.FromProjectID,
		ToProjectID:   created.ToProjectID,
		Quantity:      created.Quantity,
		CreatedBy:     created.CreatedBy,
		TransferredAt: time.Now(),
	}); err != nil {
		logger.WarnContext(r.Context(), "Failed to publish transfer event", "error", err)
	}

	response.JSON(w, http.StatusCreated, created)
}

func (h *InventoryHandler) listConsumption(w http.ResponseWriter, r *http.Request) {
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

	entries, err := h.Materials.ListConsumption(r.Context(), *projectID, intQuery(r, "limit", 50), intQuery(r, "offset", 0))
	if err != nil {
		response.InternalError(w, "failed to list consumption")
		return
	}
	response.JSON(w, http.StatusOK, entries)
}

func (h *InventoryHandler) consume(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.Users)
	if u == nil {
		return
	}

	var in domain.Consumption
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	if in.MaterialID == uuid.Nil || in.ProjectID == uuid.Nil {
		response.BadRequest(w, "material_id and project_id are required")
		return
	}
	if in.Quantity <= 0 {
		response.BadRequest(w, "quantity must be positive")
		return
	}
	if !canAccessProject(u, in.ProjectID) {
		response.Forbidden(w, "project not accessible")
		return
	}
	in.CreatedBy = u.ID

	created, err := h.Materials.Consume(r.Context(), &in)
	if err != nil {
		if errors.Is(err, postgres.ErrInsufficientStock) {
			response.WriteError(w, http.StatusConflict, "insufficient stock", response.CodeStockShort)
			return
		}
		logger.ErrorContext(r.Context(), "Material consumption failed", "error", err)
		response.InternalError(w, "failed to record consumption")
		return
	}

	if err := h.Bus.Publish(r.Context(), events.MaterialConsumed, events.MaterialConsumedEvent{
		ConsumptionID: created.ID,
		MaterialID:    created.MaterialID,
		ProjectID:     created.ProjectID,
		Quantity:      created.Quantity,
		CreatedBy:     created.CreatedBy,
		ConsumedAt:    time.Now(),
	}); err != nil {
		logger.WarnContext(r.Context(), "Failed to publish consumption event", "error", err)
	}

	response.JSON(w, http.StatusCreated, created)
}
