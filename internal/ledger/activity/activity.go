// Package activity appends immutable audit entries and mirrors them onto
// the event stream. Every mutating operation in the service records here,
// either employee-attributed or system-attributed.
package activity

import (
	"context"
	"fmt"

	"github.com/autohive/arledger/internal/ledger/events"
	"github.com/autohive/arledger/internal/ledger/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is the single append operation the logger needs. Callers running
// inside a transaction pass their transactional repository so the entry
// commits or rolls back with the rest of their work.
type Store interface {
	CreateActivity(ctx context.Context, entry *models.ActivityLog) error
}

type EventProducer interface {
	Produce(eventType events.EventType, entry *models.ActivityLog)
}

type Logger struct {
	producer EventProducer
	logger   *zap.Logger
}

func NewLogger(producer EventProducer, logger *zap.Logger) *Logger {
	return &Logger{
		producer: producer,
		logger:   logger.Named("activity"),
	}
}

// Record appends one audit entry via the given store. The insert is a
// single atomic write; the event emission is fire-and-forget.
func (l *Logger) Record(ctx context.Context, store Store, employee string, action models.ActionKind, details string, companyID *uuid.UUID) (*models.ActivityLog, error) {
	entry := &models.ActivityLog{
		Employee:  employee,
		Action:    string(action),
		Details:   details,
		CompanyID: companyID,
	}
	if err := store.CreateActivity(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record activity: %w", err)
	}

	eventType := events.ActivityRecorded
	if action == models.ActionMarkedPaid && employee == models.SystemEmployee {
		eventType = events.ContractSettled
	}
	go func() {
		l.producer.Produce(eventType, entry)
	}()

	l.logger.Info("activity recorded",
		zap.String("employee", employee),
		zap.String("action", string(action)),
	)
	return entry, nil
}
