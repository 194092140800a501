// Package notify delivers user notifications. Delivery is fire-and-forget:
// callers log failures and never roll back on them.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	TypeReadingRequested = "reading.requested"
	TypeReadingStatus    = "reading.status_changed"
	TypeDisputeResolved  = "dispute.resolved"
	TypeReadingRefunded  = "reading.refunded"
)

type Notification struct {
	UserID    uuid.UUID      `json:"userId"`
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the log. Used when no broker is configured.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log.With(zap.String("notifier", "log"))}
}

func (l *LogNotifier) Notify(_ context.Context, n Notification) error {
	l.log.Info("Notification",
		zap.String("user_id", n.UserID.String()),
		zap.String("type", n.Type),
		zap.String("message", n.Message),
		zap.Any("data", n.Data),
	)
	return nil
}
