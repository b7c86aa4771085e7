package domain

import (
	"time"

	"github.com/google/uuid"
)

type Material struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"project_id"`
	Name      string    `json:"name"`
	Unit      string    `json:"unit"`
	Quantity  float64   `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Transfer moves a material quantity between two project sites.
type Transfer struct {
	ID            uuid.UUID `json:"id"`
	MaterialID    uuid.UUID `json:"material_id"`
	FromProjectID uuid.UUID `json:"from_project_id"`
	ToProjectID   uuid.UUID `json:"to_project_id"`
	Quantity      float64   `json:"quantity"`
	Notes         string    `json:"notes,omitempty"`
	CreatedBy     uuid.UUID `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// Consumption records material used up on site, optionally against a task.
type Consumption struct {
	ID         uuid.UUID  `json:"id"`
	MaterialID uuid.UUID  `json:"material_id"`
	ProjectID  uuid.UUID  `json:"project_id"`
	TaskID     *uuid.UUID `json:"task_id,omitempty"`
	Quantity   float64    `json:"quantity"`
	Notes      string     `json:"notes,omitempty"`
	CreatedBy  uuid.UUID  `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
}
