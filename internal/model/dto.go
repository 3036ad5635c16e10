package model

// ========== Expiry Check DTOs ==========

// CheckExpiriesResponse is the body returned to the scheduler that triggered a scan
type CheckExpiriesResponse struct {
	Message                   string   `json:"message"`
	RunID                     string   `json:"runId,omitempty"`
	VehiclesChecked           int      `json:"vehiclesChecked"`
	EmailNotificationsSent    int      `json:"emailNotificationsSent"`
	WhatsAppNotificationsSent int      `json:"whatsappNotificationsSent"`
	ErrorsEncountered         int      `json:"errorsEncountered"`
	SkippedNoContact          int      `json:"skippedNoContact"`
	LedgerWriteFailures       int      `json:"ledgerWriteFailures"`
	Partial                   bool     `json:"partial"`
	Details                   []string `json:"details"`
	Error                     string   `json:"error,omitempty"`
}

// NewCheckExpiriesResponse builds the response body from a run summary
func NewCheckExpiriesResponse(message string, s *RunSummary) CheckExpiriesResponse {
	resp := CheckExpiriesResponse{Message: message, Details: []string{}}
	if s == nil {
		return resp
	}
	resp.RunID = s.RunID
	resp.VehiclesChecked = s.VehiclesChecked
	resp.EmailNotificationsSent = s.EmailNotificationsSent
	resp.WhatsAppNotificationsSent = s.WhatsAppNotificationsSent
	resp.ErrorsEncountered = s.ErrorsEncountered
	resp.SkippedNoContact = s.SkippedNoContact
	resp.LedgerWriteFailures = s.LedgerWriteFailures
	resp.Partial = s.Partial
	if s.Details != nil {
		resp.Details = s.Details
	}
	return resp
}

// ========== Summary Report DTOs ==========

type SummaryEmailResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Vehicles int    `json:"vehicles"`
}

// ========== Common ==========

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
