package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/quocanhngo/deadlinemind/internal/apperr"
	"github.com/quocanhngo/deadlinemind/internal/expiry"
	"github.com/quocanhngo/deadlinemind/internal/model"
	"go.uber.org/zap"
)

// ReportService e-mails a user the status of all their vehicles on demand
type ReportService struct {
	vehicles    VehicleSource
	renderer    ReportRenderer
	email       EmailSender
	callTimeout time.Duration
	now         func() time.Time
	log         *zap.Logger
}

func NewReportService(vehicles VehicleSource, renderer ReportRenderer, email EmailSender, callTimeout time.Duration, log *zap.Logger) *ReportService {
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	return &ReportService{
		vehicles:    vehicles,
		renderer:    renderer,
		email:       email,
		callTimeout: callTimeout,
		now:         time.Now,
		log:         log.Named("report"),
	}
}

// SendSummary renders every vehicle of userID with its overall status and
// mails it to email. name falls back to the e-mail local part.
func (s *ReportService) SendSummary(ctx context.Context, userID, email, name string) (*model.SummaryEmailResponse, error) {
	op := "report.sendSummary"
	if userID == "" || strings.TrimSpace(email) == "" {
		return nil, apperr.Malformed(op, "user information is missing")
	}
	if err := s.email.Available(); err != nil {
		return nil, err
	}
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	batch, err := s.vehicles.FindByUser(fetchCtx, userID)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to load vehicles: %w", err)
	}
	for _, bad := range batch.Malformed {
		s.log.Warn("Malformed vehicle left out of summary", zap.String("user_id", userID), zap.Error(bad))
	}

	now := s.now()
	rows := make([]model.VehicleReportRow, 0, len(batch.Vehicles))
	for i := range batch.Vehicles {
		v := &batch.Vehicles[i]
		rows = append(rows, expiry.ReportRow(v, expiry.OverallStatus(v, now)))
	}

	html, err := s.renderer.RenderVehicleReport(name, rows, "")
	if err != nil {
		return nil, fmt.Errorf("failed to render summary: %w", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	if _, err := s.email.SendVehicleReport(sendCtx, model.EmailRecipient{Email: email, Name: name}, html, "Your Vehicle Deadline Summary"); err != nil {
		return nil, err
	}

	s.log.Info("📧 Summary e-mail sent", zap.String("user_id", userID), zap.Int("vehicles", len(rows)))
	resp := &model.SummaryEmailResponse{Success: true, Message: "Summary email sent successfully!", Vehicles: len(rows)}
	if len(rows) == 0 {
		resp.Message = "Summary email sent. You have no vehicles to report."
	}
	return resp, nil
}
