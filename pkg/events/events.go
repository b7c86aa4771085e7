package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/sitetrack/sitetrack-backend/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	ID        string
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
			ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		})
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
			ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// Event subjects
const (
	// Attendance events
	AttendanceImported = "attendance.imported"
	AttendanceRecorded = "attendance.recorded"

	// Task events
	TaskCreated = "task.created"
	TaskUpdated = "task.updated"

	// Issue events
	IssueCreated  = "issue.created"
	IssueAssigned = "issue.assigned"

	// Inventory events
	MaterialTransferred = "material.transferred"
	MaterialConsumed    = "material.consumed"

	// Petty cash events
	PettyCashRecorded = "pettycash.recorded"

	// Activity events
	ActivityRecorded = "activity.recorded"
)

// Event payloads
type AttendanceImportedEvent struct {
	ImportedBy   uuid.UUID `json:"imported_by"`
	FileName     string    `json:"file_name"`
	RecordCount  int       `json:"record_count"`
	CreatedUsers int       `json:"created_users"`
	ErrorCount   int       `json:"error_count"`
	ImportedAt   time.Time `json:"imported_at"`
}

type AttendanceRecordedEvent struct {
	AttendanceID uuid.UUID `json:"attendance_id"`
	UserID       uuid.UUID `json:"user_id"`
	Day          time.Time `json:"day"`
	Status       string    `json:"status"`
	RecordedAt   time.Time `json:"recorded_at"`
}

type TaskCreatedEvent struct {
	TaskID     uuid.UUID  `json:"task_id"`
	ProjectID  uuid.UUID  `json:"project_id"`
	Title      string     `json:"title"`
	AssigneeID *uuid.UUID `json:"assignee_id,omitempty"`
	CreatedBy  uuid.UUID  `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
}

type TaskUpdatedEvent struct {
	TaskID    uuid.UUID `json:"task_id"`
	ProjectID uuid.UUID `json:"project_id"`
	Status    string    `json:"status"`
	UpdatedBy uuid.UUID `json:"updated_by"`
	UpdatedAt time.Time `json:"updated_at"`
}

type IssueCreatedEvent struct {
	IssueID    uuid.UUID `json:"issue_id"`
	ProjectID  uuid.UUID `json:"project_id"`
	Title      string    `json:"title"`
	Severity   string    `json:"severity"`
	ReportedBy uuid.UUID `json:"reported_by"`
	CreatedAt  time.Time `json:"created_at"`
}

type IssueAssignedEvent struct {
	IssueID    uuid.UUID `json:"issue_id"`
	ProjectID  uuid.UUID `json:"project_id"`
	AssigneeID uuid.UUID `json:"assignee_id"`
	AssignedBy uuid.UUID `json:"assigned_by"`
	AssignedAt time.Time `json:"assigned_at"`
}

type MaterialTransferredEvent struct {
	TransferID    uuid.UUID `json:"transfer_id"`
	MaterialID    uuid.UUID `json:"material_id"`
	FromProjectID uuid.UUID `json:"from_project_id"`
	ToProjectID   uuid.UUID `json:"to_project_id"`
	Quantity      float64   `json:"quantity"`
	CreatedBy     uuid.UUID `json:"created_by"`
	TransferredAt time.Time `json:"transferred_at"`
}

type MaterialConsumedEvent struct {
	ConsumptionID uuid.UUID `json:"consumption_id"`
	MaterialID    uuid.UUID `json:"material_id"`
	ProjectID     uuid.UUID `json:"project_id"`
	Quantity      float64   `json:"quantity"`
	CreatedBy     uuid.UUID `json:"created_by"`
	ConsumedAt    time.Time `json:"consumed_at"`
}

type PettyCashRecordedEvent struct {
	EntryID    uuid.UUID `json:"entry_id"`
	ProjectID  uuid.UUID `json:"project_id"`
	EntryType  string    `json:"entry_type"`
	Amount     float64   `json:"amount"`
	CreatedBy  uuid.UUID `json:"created_by"`
	RecordedAt time.Time `json:"recorded_at"`
}

type ActivityRecordedEvent struct {
	ActivityID uuid.UUID `json:"activity_id"`
	UserID     uuid.UUID `json:"user_id"`
	Action     string    `json:"action"`
	TargetType string    `json:"target_type"`
	Detail     string    `json:"detail"`
	RecordedAt time.Time `json:"recorded_at"`
}
