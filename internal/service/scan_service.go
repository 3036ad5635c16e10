package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/quocanhngo/deadlinemind/internal/apperr"
	"github.com/quocanhngo/deadlinemind/internal/expiry"
	"github.com/quocanhngo/deadlinemind/internal/metrics"
	"github.com/quocanhngo/deadlinemind/internal/model"
	"github.com/quocanhngo/deadlinemind/pkg/lock"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultWorkers     = 4
	DefaultCallTimeout = 15 * time.Second
	DefaultLockTTL     = 15 * time.Minute
)

var (
	// ErrBulkFetch means the vehicle list could not be read and the run was aborted
	ErrBulkFetch = errors.New("failed to fetch vehicles")
	// ErrScanInProgress means another scan holds the run lock
	ErrScanInProgress = errors.New("an expiry scan is already running")
)

// ScanService runs the expiry scan: it walks every vehicle, decides which
// documents are due for a reminder, dispatches them and records the ledger.
type ScanService struct {
	vehicles VehicleSource
	contacts ContactResolver
	renderer ReportRenderer
	email    EmailSender
	whatsapp WhatsAppSender
	ledger   NotificationLedger

	lock    RunLock
	lockTTL time.Duration
	archive RunArchiver

	policy      expiry.Policy
	workers     int
	callTimeout time.Duration
	now         func() time.Time
	newRunID    func() string
	log         *zap.Logger
}

// ScanOption customises a ScanService
type ScanOption func(*ScanService)

func WithPolicy(p expiry.Policy) ScanOption {
	return func(s *ScanService) { s.policy = p }
}

func WithWorkers(n int) ScanOption {
	return func(s *ScanService) {
		if n > 0 {
			s.workers = n
		}
	}
}

func WithCallTimeout(d time.Duration) ScanOption {
	return func(s *ScanService) {
		if d > 0 {
			s.callTimeout = d
		}
	}
}

// WithClock overrides the time source, mainly for tests
func WithClock(now func() time.Time) ScanOption {
	return func(s *ScanService) { s.now = now }
}

// WithRunLock rejects a scan while another one holds l
func WithRunLock(l RunLock, ttl time.Duration) ScanOption {
	return func(s *ScanService) {
		s.lock = l
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

// WithArchiver stores every run summary after the scan
func WithArchiver(a RunArchiver) ScanOption {
	return func(s *ScanService) { s.archive = a }
}

// NewScanService wires the scan. email and whatsapp may be nil, which
// disables that channel.
func NewScanService(
	vehicles VehicleSource,
	contacts ContactResolver,
	renderer ReportRenderer,
	email EmailSender,
	whatsapp WhatsAppSender,
	ledger NotificationLedger,
	log *zap.Logger,
	opts ...ScanOption,
) *ScanService {
	s := &ScanService{
		vehicles:    vehicles,
		contacts:    contacts,
		renderer:    renderer,
		email:       email,
		whatsapp:    whatsapp,
		ledger:      ledger,
		lockTTL:     DefaultLockTTL,
		policy:      expiry.DefaultPolicy(),
		workers:     DefaultWorkers,
		callTimeout: DefaultCallTimeout,
		now:         time.Now,
		newRunID:    uuid.NewString,
		log:         log.Named("scan"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run performs one scan. The summary is always returned, also alongside
// ErrBulkFetch. Cancelling ctx stops scheduling further vehicles; vehicles
// already started run to completion and the summary is marked partial.
func (s *ScanService) Run(ctx context.Context) (*model.RunSummary, error) {
	summary := &model.RunSummary{
		RunID:     s.newRunID(),
		StartedAt: s.now(),
		Details:   []string{},
	}
	log := s.log.With(zap.String("run_id", summary.RunID))

	if s.lock != nil {
		release, err := s.lock.Acquire(ctx, s.lockTTL)
		switch {
		case errors.Is(err, lock.ErrLocked):
			metrics.ScanRunsTotal.WithLabelValues("locked").Inc()
			log.Warn("⚠️ Expiry scan skipped, another run holds the lock")
			return nil, ErrScanInProgress
		case err != nil:
			log.Warn("⚠️ Run lock unavailable, scanning without it", zap.Error(err))
			summary.Add(fmt.Sprintf("Run lock unavailable, continuing without it: %v", err))
		default:
			defer func() {
				if err := release(context.WithoutCancel(ctx)); err != nil {
					log.Warn("Failed to release run lock", zap.Error(err))
				}
			}()
		}
	}

	timer := prometheus.NewTimer(metrics.ScanDuration)
	defer timer.ObserveDuration()
	log.Info("🔎 Expiry scan started")

	channels := s.checkChannels(summary, log)

	batch, err := s.vehicles.FindAll(ctx)
	if err != nil {
		summary.ErrorsEncountered++
		summary.Add(fmt.Sprintf("CRITICAL ERROR during processing: %v", err))
		log.Error("❌ Expiry scan aborted, vehicles could not be fetched", zap.Error(err))
		s.complete(ctx, summary, "failed", log)
		return summary, fmt.Errorf("%w: %w", ErrBulkFetch, err)
	}

	summary.Add(fmt.Sprintf("Found %d vehicles to check.", batch.Total()))
	for _, bad := range batch.Malformed {
		summary.VehiclesChecked++
		summary.ErrorsEncountered++
		summary.Add(fmt.Sprintf("Skipped malformed vehicle record: %v", bad))
	}

	results := s.processAll(ctx, batch.Vehicles, channels, log)
	scheduled := 0
	for _, r := range results {
		if r != nil {
			summary.Merge(r)
			scheduled++
		}
	}

	result := "completed"
	if scheduled < len(batch.Vehicles) {
		summary.Partial = true
		summary.Add(fmt.Sprintf("Scan interrupted: %d of %d vehicles were not processed.", len(batch.Vehicles)-scheduled, len(batch.Vehicles)))
		result = "partial"
	}

	s.complete(ctx, summary, result, log)
	return summary, nil
}

// processAll fans vehicles out to the worker pool and returns one result
// per vehicle in fetch order. Vehicles never scheduled have a nil result.
func (s *ScanService) processAll(ctx context.Context, vehicles []model.Vehicle, channels *channelState, log *zap.Logger) []*model.RunSummary {
	results := make([]*model.RunSummary, len(vehicles))
	cache := newContactCache(s.contacts, s.callTimeout)
	work := context.WithoutCancel(ctx)

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i := range vehicles {
		if ctx.Err() != nil {
			log.Warn("Scan cancelled, not scheduling remaining vehicles", zap.Int("remaining", len(vehicles)-i))
			break
		}
		g.Go(func() error {
			results[i] = s.processVehicle(work, &vehicles[i], cache, channels, log)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *ScanService) processVehicle(ctx context.Context, v *model.Vehicle, cache *contactCache, channels *channelState, log *zap.Logger) (res *model.RunSummary) {
	res = &model.RunSummary{VehiclesChecked: 1}
	log = log.With(zap.String("vehicle_id", v.ID), zap.String("user_id", v.UserID))

	defer func() {
		if r := recover(); r != nil {
			res.ErrorsEncountered++
			res.Add(fmt.Sprintf("Unexpected failure while processing vehicle %s: %v", v.ID, r))
			log.Error("❌ Recovered panic while processing vehicle", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()

	now := s.now()

	// resolved lazily so vehicles with nothing due never touch the contact store
	var (
		contact    *model.Contact
		contactErr error
		looked     bool
	)
	resolve := func() (*model.Contact, error) {
		if !looked {
			contact, contactErr = cache.get(ctx, v.UserID)
			looked = true
		}
		return contact, contactErr
	}

	for _, doc := range model.DocumentTypes {
		s.processDocument(ctx, v, doc, now, resolve, channels, res, log.With(zap.String("document", string(doc))))
	}
	return res
}

func (s *ScanService) processDocument(
	ctx context.Context,
	v *model.Vehicle,
	doc model.DocumentType,
	now time.Time,
	resolve func() (*model.Contact, error),
	channels *channelState,
	res *model.RunSummary,
	log *zap.Logger,
) {
	lc := newLifecycle()
	defer func() {
		metrics.DocumentOutcomesTotal.WithLabelValues(lc.finish(ctx)).Inc()
	}()
	advance := func(event string) {
		if err := lc.fire(ctx, event); err != nil {
			log.Debug("Lifecycle transition rejected", zap.String("event", event), zap.Error(err))
		}
	}

	lastSent := v.LastNotified(doc)
	decision := s.policy.Evaluate(v.ExpiryDate(doc), lastSent, now)
	if !decision.Eligible {
		advance(eventSkip)
		res.Add(notEligibleDetail(v, doc, decision, lastSent))
		return
	}
	advance(eventQualify)
	res.Add(fmt.Sprintf("Vehicle %s (User: %s): %s expires in %d days. Last notification: %s.",
		v.ID, v.UserID, doc.Label(), decision.DaysLeft, formatLastSent(lastSent)))

	contact, err := resolve()
	switch {
	case apperr.IsNotFound(err):
		advance(eventMiss)
		res.SkippedNoContact++
		res.Add(fmt.Sprintf("%s expiring for vehicle %s (user %s), but no user profile was found.", doc.Label(), v.ID, v.UserID))
		log.Warn("No user profile for eligible vehicle")
		return
	case err != nil:
		advance(eventMiss)
		res.ErrorsEncountered++
		res.Add(fmt.Sprintf("Failed to look up user %s for vehicle %s: %v", v.UserID, v.ID, err))
		log.Error("❌ Contact lookup failed", zap.Error(err))
		return
	case !contact.HasEmail() && !contact.HasPhone():
		advance(eventMiss)
		res.SkippedNoContact++
		res.Add(fmt.Sprintf("%s expiring for vehicle %s (user %s), but the user has neither an e-mail address nor a phone number.", doc.Label(), v.ID, v.UserID))
		return
	}
	advance(eventResolve)

	attempted, delivered := false, false
	if contact.HasEmail() && channels.enabled(channelEmail) {
		attempted = true
		if s.sendEmail(ctx, v, doc, now, contact, channels, res, log) {
			delivered = true
		}
	}
	if contact.HasPhone() && channels.enabled(channelWhatsApp) {
		attempted = true
		if s.sendWhatsApp(ctx, v, doc, contact, channels, res, log) {
			delivered = true
		}
	}
	advance(eventDispatch)

	if !attempted {
		res.Add(fmt.Sprintf("%s expiring for vehicle %s (user %s), but no notification channel is available for this user.", doc.Label(), v.ID, v.UserID))
		return
	}
	if !delivered {
		return
	}

	// the ledger records when delivery completed, not when the scan looked at the vehicle
	sentAt := s.now()
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	if err := s.ledger.RecordSent(callCtx, v.ID, doc, sentAt); err != nil {
		res.LedgerWriteFailures++
		res.ErrorsEncountered++
		metrics.LedgerWriteFailuresTotal.Inc()
		res.Add(fmt.Sprintf("%s notification for vehicle %s was sent but its timestamp could not be recorded, it may be sent again next run: %v", doc.Label(), v.ID, err))
		log.Error("❌ Notification sent but ledger write failed", zap.Error(err))
		return
	}
	advance(eventRecord)
}

func (s *ScanService) sendEmail(ctx context.Context, v *model.Vehicle, doc model.DocumentType, now time.Time, contact *model.Contact, channels *channelState, res *model.RunSummary, log *zap.Logger) bool {
	row := expiry.ReportRow(v, expiry.Classify(v.ExpiryDate(doc), now))
	heading := fmt.Sprintf("Urgent: %s Expiry for %s", doc.Label(), v.Model)
	subject := fmt.Sprintf("Vehicle %s Expiry Reminder: %s", doc.Label(), v.Model)

	html, err := s.renderer.RenderVehicleReport(contact.Name(), []model.VehicleReportRow{row}, heading)
	if err != nil {
		s.dispatchFailed(channelEmail, v, doc, err, channels, res, log)
		return false
	}

	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	to := model.EmailRecipient{Email: *contact.Email, Name: contact.Name()}
	if _, err := s.email.SendVehicleReport(callCtx, to, html, subject); err != nil {
		s.dispatchFailed(channelEmail, v, doc, err, channels, res, log)
		return false
	}

	res.EmailNotificationsSent++
	metrics.NotificationsSentTotal.WithLabelValues(channelEmail, string(doc)).Inc()
	res.Add(fmt.Sprintf("%s notification sent for vehicle %s to user %s (%s).", doc.Label(), v.ID, v.UserID, to.Email))
	return true
}

func (s *ScanService) sendWhatsApp(ctx context.Context, v *model.Vehicle, doc model.DocumentType, contact *model.Contact, channels *channelState, res *model.RunSummary, log *zap.Logger) bool {
	vars := model.WhatsAppReminder{
		RecipientLabel:      contact.Label(),
		VehicleLabel:        v.Label(),
		DocumentType:        doc.Label(),
		ExpiryDateFormatted: v.ExpiryDate(doc).Format(model.ReportDateLayout),
	}

	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	if _, err := s.whatsapp.SendExpiryReminder(callCtx, *contact.PhoneNumber, vars); err != nil {
		s.dispatchFailed(channelWhatsApp, v, doc, err, channels, res, log)
		return false
	}

	res.WhatsAppNotificationsSent++
	metrics.NotificationsSentTotal.WithLabelValues(channelWhatsApp, string(doc)).Inc()
	res.Add(fmt.Sprintf("%s WhatsApp reminder sent for vehicle %s to user %s.", doc.Label(), v.ID, v.UserID))
	return true
}

// dispatchFailed counts a failed send. A configuration error turns the
// channel off for the rest of the run.
func (s *ScanService) dispatchFailed(channel string, v *model.Vehicle, doc model.DocumentType, err error, channels *channelState, res *model.RunSummary, log *zap.Logger) {
	kind := apperr.KindOf(err)
	res.ErrorsEncountered++
	metrics.DispatchErrorsTotal.WithLabelValues(channel, kind.String()).Inc()
	res.Add(fmt.Sprintf("Failed to send %s %s notification for vehicle %s: %v", doc, channel, v.ID, err))
	log.Warn("Dispatch failed", zap.String("channel", channel), zap.Stringer("kind", kind), zap.Error(err))

	if kind == apperr.KindConfiguration && channels.disable(channel, err) {
		res.Add(fmt.Sprintf("%s channel disabled for the rest of this run: %v", channelName(channel), err))
		log.Error("❌ Channel disabled after configuration error", zap.String("channel", channel), zap.Error(err))
	}
}

// checkChannels reports unusable channels once, before any vehicle is processed
func (s *ScanService) checkChannels(summary *model.RunSummary, log *zap.Logger) *channelState {
	channels := newChannelState()

	check := func(channel string, available func() error) {
		var err error
		if available == nil {
			err = apperr.Configuration("scan", "%s channel is not configured", channel)
		} else {
			err = available()
		}
		if err != nil {
			channels.disable(channel, err)
			summary.Add(fmt.Sprintf("%s channel unavailable: %v", channelName(channel), err))
			log.Warn("⚠️ Notification channel unavailable", zap.String("channel", channel), zap.Error(err))
		}
	}

	var emailAvailable, whatsappAvailable func() error
	if s.email != nil {
		emailAvailable = s.email.Available
	}
	if s.whatsapp != nil {
		whatsappAvailable = s.whatsapp.Available
	}
	check(channelEmail, emailAvailable)
	check(channelWhatsApp, whatsappAvailable)
	return channels
}

// complete stamps the summary, archives it and records the run metrics
func (s *ScanService) complete(ctx context.Context, summary *model.RunSummary, result string, log *zap.Logger) {
	summary.FinishedAt = s.now()
	metrics.ScanRunsTotal.WithLabelValues(result).Inc()

	if s.archive != nil {
		archiveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.callTimeout)
		defer cancel()
		if key, err := s.archive.Archive(archiveCtx, summary); err != nil {
			log.Warn("Failed to archive run summary", zap.Error(err))
		} else {
			log.Debug("Run summary archived", zap.String("key", key))
		}
	}

	log.Info("✅ Expiry scan finished",
		zap.String("result", result),
		zap.Int("vehicles_checked", summary.VehiclesChecked),
		zap.Int("emails_sent", summary.EmailNotificationsSent),
		zap.Int("whatsapp_sent", summary.WhatsAppNotificationsSent),
		zap.Int("errors", summary.ErrorsEncountered),
		zap.Int("skipped_no_contact", summary.SkippedNoContact),
		zap.Int("ledger_write_failures", summary.LedgerWriteFailures),
		zap.Duration("took", summary.FinishedAt.Sub(summary.StartedAt)),
	)
}

func notEligibleDetail(v *model.Vehicle, doc model.DocumentType, d expiry.Decision, lastSent *time.Time) string {
	switch d.Reason {
	case expiry.ReasonRecentlyNotified:
		return fmt.Sprintf("Vehicle %s: %s expiring soon, but notification already sent recently (%s).", v.ID, doc.Label(), formatLastSent(lastSent))
	case expiry.ReasonAlreadyExpired:
		return fmt.Sprintf("Vehicle %s: %s expired %d days ago, expired documents are not notified.", v.ID, doc.Label(), -d.DaysLeft)
	default:
		return fmt.Sprintf("Vehicle %s: %s expires in %d days, not yet in the notification window.", v.ID, doc.Label(), d.DaysLeft)
	}
}

func formatLastSent(t *time.Time) string {
	if t == nil {
		return "Never"
	}
	return t.UTC().Format(time.RFC3339)
}

func channelName(channel string) string {
	if channel == channelWhatsApp {
		return "WhatsApp"
	}
	return strings.ToUpper(channel[:1]) + channel[1:]
}
