package service

import (
	"context"
	"time"

	"github.com/quocanhngo/deadlinemind/internal/model"
)

// VehicleSource reads vehicles from the data store
type VehicleSource interface {
	FindAll(ctx context.Context) (*model.VehicleBatch, error)
	FindByUser(ctx context.Context, userID string) (*model.VehicleBatch, error)
}

// ContactResolver returns the contact of a user, or an apperr NotFound error
type ContactResolver interface {
	Resolve(ctx context.Context, userID string) (*model.Contact, error)
}

type ReportRenderer interface {
	RenderVehicleReport(recipientName string, rows []model.VehicleReportRow, subject string) (string, error)
}

// EmailSender delivers HTML reports. Available returns a configuration
// error when the channel cannot be used.
type EmailSender interface {
	Available() error
	SendVehicleReport(ctx context.Context, to model.EmailRecipient, html, subject string) (string, error)
}

// WhatsAppSender delivers templated expiry reminders
type WhatsAppSender interface {
	Available() error
	SendExpiryReminder(ctx context.Context, phoneNumber string, vars model.WhatsAppReminder) (string, error)
}

// NotificationLedger stores when each document of a vehicle was last notified
type NotificationLedger interface {
	RecordSent(ctx context.Context, vehicleID string, doc model.DocumentType, at time.Time) error
}

// RunLock prevents overlapping scans
type RunLock interface {
	Acquire(ctx context.Context, ttl time.Duration) (func(context.Context) error, error)
}

// RunArchiver keeps a copy of each run summary
type RunArchiver interface {
	Archive(ctx context.Context, s *model.RunSummary) (string, error)
}
