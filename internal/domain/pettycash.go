package domain

import (
	"time"

	"github.com/google/uuid"
)

type PettyCashType string

const (
	PettyCashCredit PettyCashType = "credit"
	PettyCashDebit  PettyCashType = "debit"
)

type PettyCashEntry struct {
	ID          uuid.UUID     `json:"id"`
	ProjectID   uuid.UUID     `json:"project_id"`
	Type        PettyCashType `json:"type"`
	Amount      float64       `json:"amount"`
	Description string        `json:"description,omitempty"`
	CreatedBy   uuid.UUID     `json:"created_by"`
	CreatedAt   time.Time     `json:"created_at"`
}
