package model

// ReportDateLayout is the date format used in reports and reminders ("Jan 02, 2006")
const ReportDateLayout = "Jan 02, 2006"

// VehicleReportRow is the simplified vehicle view rendered into HTML reports
type VehicleReportRow struct {
	Model               string
	RegistrationNumber  string
	TaxExpiryDate       string
	InsuranceExpiryDate string
	OverallStatus       string
}

// WhatsAppReminder holds the template variables of a WhatsApp expiry reminder
type WhatsAppReminder struct {
	RecipientLabel      string
	VehicleLabel        string
	DocumentType        string
	ExpiryDateFormatted string
}
