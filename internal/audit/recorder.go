// Package audit persists activity entries for domain events. Handlers publish
// to the bus; the recorder consumes and appends the audit row, so write paths
// never block on the trail.
package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/sitetrack/sitetrack-backend/internal/domain"
	"github.com/sitetrack/sitetrack-backend/internal/repo/postgres"
	"github.com/sitetrack/sitetrack-backend/pkg/events"
	"github.com/sitetrack/sitetrack-backend/pkg/logger"
)

type Recorder struct {
	activity postgres.ActivityRepository
}

func NewRecorder(activity postgres.ActivityRepository) *Recorder {
	return &Recorder{activity: activity}
}

// Start subscribes the recorder to every audited subject. Queue subscription
// keeps entries single-writer when multiple instances run.
func (rec *Recorder) Start(bus events.Subscriber) error {
	subjects := []string{
		events.AttendanceRecorded,
		events.TaskCreated,
		events.TaskUpdated,
		events.IssueCreated,
		events.IssueAssigned,
		events.MaterialTransferred,
		events.MaterialConsumed,
		events.PettyCashRecorded,
	}
	for _, subject := range subjects {
		if err := bus.QueueSubscribe(subject, "audit", rec.handle); err != nil {
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
	}
	return nil
}

func (rec *Recorder) handle(msg *events.Message) {
	entry, err := entryFor(msg)
	if err != nil {
		logger.Warn("Dropping unparsable audit event", "subject", msg.Subject, "error", err)
		return
	}
	if entry == nil {
		return
	}
	if _, err := rec.activity.Create(context.Background(), entry); err != nil {
		logger.Error("Failed to append activity entry", "subject", msg.Subject, "error", err)
	}
}

func entryFor(msg *events.Message) (*domain.Activity, error) {
	switch msg.Subject {
	case events.AttendanceRecorded:
		var e events.AttendanceRecordedEvent
		if err := json.Unmarshal(msg.Data, &e); err != nil {
			return nil, err
		}
		return &domain.Activity{
			UserID:     e.UserID,
			Action:     "attendance_recorded",
			TargetType: "attendance",
			TargetID:   ptr(e.AttendanceID),
			Detail:     fmt.Sprintf("status %s on %s", e.Status, e.Day.Format("2006-01-02")),
		}, nil
	case events.TaskCreated:
		var e events.TaskCreatedEvent
		if err := json.Unmarshal(msg.Data, &e); err != nil {
			return nil, err
		}
		return &domain.Activity{
			UserID:     e.CreatedBy,
			Action:     "task_created",
			TargetType: "task",
			TargetID:   ptr(e.TaskID),
			Detail:     e.Title,
		}, nil
	case events.TaskUpdated:
		var e events.TaskUpdatedEvent
		if err := json.Unmarshal(msg.Data, &e); err != nil {
			return nil, err
		}
		return &domain.Activity{
			UserID:     e.UpdatedBy,
			Action:     "task_updated",
			TargetType: "task",
			TargetID:   ptr(e.TaskID),
			Detail:     "status " + e.Status,
		}, nil
	case events.IssueCreated:
		var e events.IssueCreatedEvent
		if err := json.Unmarshal(msg.Data, &e); err != nil {
			return nil, err
		}
		return &domain.Activity{
			UserID:     e.ReportedBy,
			Action:     "issue_created",
			TargetType: "issue",
			TargetID:   ptr(e.IssueID),
			Detail:     fmt.Sprintf("%s (%s)", e.Title, e.Severity),
		}, nil
	case events.IssueAssigned:
		var e events.IssueAssignedEvent
		if err := json.Unmarshal(msg.Data, &e); err != nil {
			return nil, err
		}
		return &domain.Activity{
			UserID:     e.AssignedBy,
			Action:     "issue_assigned",
			TargetType: "issue",
			TargetID:   ptr(e.IssueID),
			Detail:     "assignee " + e.AssigneeID.String(),
		}, nil
	case events.MaterialTransferred:
		var e events.MaterialTransferredEvent
		if err := json.Unmarshal(msg.Data, &e); err != nil {
			return nil, err
		}
		return &domain.Activity{
			UserID:     e.CreatedBy,
			Action:     "material_transferred",
			TargetType: "transfer",
			TargetID:   ptr(e.TransferID),
			Detail:     fmt.Sprintf("%.2f units", e.Quantity),
		}, nil
	case events.MaterialConsumed:
		var e events.MaterialConsumedEvent
		if err := json.Unmarshal(msg.Data, &e); err != nil {
			return nil, err
		}
		return &domain.Activity{
			UserID:     e.CreatedBy,
			Action:     "material_consumed",
			TargetType: "consumption",
			TargetID:   ptr(e.ConsumptionID),
			Detail:     fmt.Sprintf("%.2f units", e.Quantity),
		}, nil
	case events.PettyCashRecorded:
		var e events.PettyCashRecordedEvent
		if err := json.Unmarshal(msg.Data, &e); err != nil {
			return nil, err
		}
		return &domain.Activity{
			UserID:     e.CreatedBy,
			Action:     "pettycash_recorded",
			TargetType: "petty_cash",
			TargetID:   ptr(e.EntryID),
			Detail:     fmt.Sprintf("%s %.2f", e.EntryType, e.Amount),
		}, nil
	}
	return nil, nil
}

func ptr(id uuid.UUID) *uuid.UUID { return &id }
