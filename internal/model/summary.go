package model

import "time"

// RunSummary is produced once per scan invocation
type RunSummary struct {
	RunID                     string    `json:"runId"`
	StartedAt                 time.Time `json:"startedAt"`
	FinishedAt                time.Time `json:"finishedAt"`
	VehiclesChecked           int       `json:"vehiclesChecked"`
	EmailNotificationsSent    int       `json:"emailNotificationsSent"`
	WhatsAppNotificationsSent int       `json:"whatsappNotificationsSent"`
	ErrorsEncountered         int       `json:"errorsEncountered"`
	SkippedNoContact          int       `json:"skippedNoContact"`
	LedgerWriteFailures       int       `json:"ledgerWriteFailures"`
	Partial                   bool      `json:"partial"`
	Details                   []string  `json:"details"`
}

// Add appends a line to the diagnostic trail
func (s *RunSummary) Add(detail string) {
	s.Details = append(s.Details, detail)
}

// Merge folds the counters and trail of a single vehicle into the run summary
func (s *RunSummary) Merge(o *RunSummary) {
	s.VehiclesChecked += o.VehiclesChecked
	s.EmailNotificationsSent += o.EmailNotificationsSent
	s.WhatsAppNotificationsSent += o.WhatsAppNotificationsSent
	s.ErrorsEncountered += o.ErrorsEncountered
	s.SkippedNoContact += o.SkippedNoContact
	s.LedgerWriteFailures += o.LedgerWriteFailures
	s.Details = append(s.Details, o.Details...)
}
