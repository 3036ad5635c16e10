package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/quocanhngo/deadlinemind/internal/apperr"
	"github.com/quocanhngo/deadlinemind/internal/model"
)

var refNow = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return refNow }

func daysFromNow(d int) time.Time { return refNow.AddDate(0, 0, d) }

func ptrTime(t time.Time) *time.Time { return &t }

func ptrString(s string) *string { return &s }

// vehicle returns a vehicle with both documents far from expiry
func vehicle(id, userID, modelName string) model.Vehicle {
	return model.Vehicle{
		ID:                  id,
		UserID:              userID,
		Model:               modelName,
		RegistrationNumber:  "REG-" + id,
		TaxExpiryDate:       daysFromNow(200),
		InsuranceExpiryDate: daysFromNow(300),
	}
}

type ledgerWrite struct {
	vehicleID string
	doc       model.DocumentType
	at        time.Time
}

// memStore is a vehicle source and notification ledger backed by a slice
type memStore struct {
	mu        sync.Mutex
	vehicles  []model.Vehicle
	malformed []error
	fetchErr  error
	ledgerErr error
	writes    []ledgerWrite
}

func newMemStore(vs ...model.Vehicle) *memStore {
	return &memStore{vehicles: vs}
}

func (m *memStore) FindAll(_ context.Context) (*model.VehicleBatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return &model.VehicleBatch{
		Vehicles:  append([]model.Vehicle(nil), m.vehicles...),
		Malformed: m.malformed,
	}, nil
}

func (m *memStore) FindByUser(_ context.Context, userID string) (*model.VehicleBatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	batch := &model.VehicleBatch{}
	for _, v := range m.vehicles {
		if v.UserID == userID {
			batch.Vehicles = append(batch.Vehicles, v)
		}
	}
	return batch, nil
}

func (m *memStore) RecordSent(_ context.Context, vehicleID string, doc model.DocumentType, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = append(m.writes, ledgerWrite{vehicleID: vehicleID, doc: doc, at: at})
	if m.ledgerErr != nil {
		return m.ledgerErr
	}
	for i := range m.vehicles {
		v := &m.vehicles[i]
		if v.ID != vehicleID {
			continue
		}
		if last := v.LastNotified(doc); last != nil && last.After(at) {
			return nil
		}
		stamp := at
		if doc == model.DocumentTax {
			v.LastTaxNotificationSent = &stamp
		} else {
			v.LastInsuranceNotificationSent = &stamp
		}
		return nil
	}
	return apperr.NotFound("memStore", "vehicle %s not found", vehicleID)
}

func (m *memStore) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.writes)
}

type fakeContacts struct {
	mu       sync.Mutex
	contacts map[string]*model.Contact
	err      error
	calls    map[string]int
}

func newFakeContacts(cs ...*model.Contact) *fakeContacts {
	f := &fakeContacts{contacts: map[string]*model.Contact{}, calls: map[string]int{}}
	for _, c := range cs {
		f.contacts[c.UID] = c
	}
	return f
}

func (f *fakeContacts) Resolve(_ context.Context, userID string) (*model.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[userID]++
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.contacts[userID]
	if !ok {
		return nil, apperr.NotFound("fakeContacts", "user %s not found", userID)
	}
	return c, nil
}

func (f *fakeContacts) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func emailContact(uid, email string) *model.Contact {
	return &model.Contact{UID: uid, Email: ptrString(email), DisplayName: ptrString("Asha")}
}

func phoneContact(uid, phone string) *model.Contact {
	return &model.Contact{UID: uid, PhoneNumber: ptrString(phone)}
}

// fakeRenderer panics when asked to render a heading containing panicOn
type fakeRenderer struct {
	panicOn string
}

func (r fakeRenderer) RenderVehicleReport(name string, rows []model.VehicleReportRow, subject string) (string, error) {
	if r.panicOn != "" && strings.Contains(subject, r.panicOn) {
		panic("template exploded")
	}
	return "<h2>" + subject + "</h2><p>" + name + "</p>", nil
}

type sentEmail struct {
	to      model.EmailRecipient
	subject string
}

type fakeEmail struct {
	mu           sync.Mutex
	availableErr error
	sendErr      error
	onSend       func()
	sent         []sentEmail
	calls        int
}

func (f *fakeEmail) Available() error { return f.availableErr }

func (f *fakeEmail) SendVehicleReport(_ context.Context, to model.EmailRecipient, _ string, subject string) (string, error) {
	f.mu.Lock()
	f.calls++
	hook := f.onSend
	err := f.sendErr
	if err == nil {
		f.sent = append(f.sent, sentEmail{to: to, subject: subject})
	}
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if err != nil {
		return "", err
	}
	return "<msg@test>", nil
}

func (f *fakeEmail) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type sentWhatsApp struct {
	phone string
	vars  model.WhatsAppReminder
}

type fakeWhatsApp struct {
	mu           sync.Mutex
	availableErr error
	sendErr      error
	sent         []sentWhatsApp
	calls        int
}

func (f *fakeWhatsApp) Available() error { return f.availableErr }

func (f *fakeWhatsApp) SendExpiryReminder(_ context.Context, phone string, vars model.WhatsAppReminder) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.sent = append(f.sent, sentWhatsApp{phone: phone, vars: vars})
	return "SM1", nil
}

func (f *fakeWhatsApp) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeLock struct {
	err      error
	released bool
	ttl      time.Duration
}

func (l *fakeLock) Acquire(_ context.Context, ttl time.Duration) (func(context.Context) error, error) {
	l.ttl = ttl
	if l.err != nil {
		return nil, l.err
	}
	return func(context.Context) error {
		l.released = true
		return nil
	}, nil
}

type fakeArchive struct {
	archived []*model.RunSummary
}

func (a *fakeArchive) Archive(_ context.Context, s *model.RunSummary) (string, error) {
	a.archived = append(a.archived, s)
	return "runs/" + s.RunID + ".json", nil
}
