package model

import (
	"fmt"
	"time"
)

// DocumentType is one of the two independently expiring obligations of a vehicle
type DocumentType string

const (
	DocumentTax       DocumentType = "tax"
	DocumentInsurance DocumentType = "insurance"
)

// DocumentTypes lists every document type in the order a scan evaluates them
var DocumentTypes = []DocumentType{DocumentTax, DocumentInsurance}

// Label returns the human readable name used in messages ("Tax", "Insurance")
func (d DocumentType) Label() string {
	switch d {
	case DocumentTax:
		return "Tax"
	case DocumentInsurance:
		return "Insurance"
	default:
		return string(d)
	}
}

// Valid reports whether d is a known document type
func (d DocumentType) Valid() bool {
	return d == DocumentTax || d == DocumentInsurance
}

// Vehicle is a tracked asset owned by a single user
type Vehicle struct {
	ID                            string     `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID                        string     `json:"user_id" gorm:"size:128;not null;index"`
	Model                         string     `json:"model" gorm:"size:200;not null"`
	RegistrationNumber            string     `json:"registration_number" gorm:"size:50;not null"`
	TaxExpiryDate                 time.Time  `json:"tax_expiry_date" gorm:"type:timestamptz;not null"`
	InsuranceExpiryDate           time.Time  `json:"insurance_expiry_date" gorm:"type:timestamptz;not null"`
	InsuranceCompany              *string    `json:"insurance_company,omitempty" gorm:"size:200"`
	MemberID                      *string    `json:"member_id,omitempty" gorm:"size:128"`
	MemberName                    *string    `json:"member_name,omitempty" gorm:"size:100"`
	LastTaxNotificationSent       *time.Time `json:"last_tax_notification_sent" gorm:"type:timestamptz"`
	LastInsuranceNotificationSent *time.Time `json:"last_insurance_notification_sent" gorm:"type:timestamptz"`
	CreatedAt                     time.Time  `json:"created_at"`
	UpdatedAt                     time.Time  `json:"updated_at"`
}

// ExpiryDate returns the expiry date of the given document type
func (v *Vehicle) ExpiryDate(doc DocumentType) time.Time {
	if doc == DocumentInsurance {
		return v.InsuranceExpiryDate
	}
	return v.TaxExpiryDate
}

// LastNotified returns the ledger timestamp of the given document type (nil = never)
func (v *Vehicle) LastNotified(doc DocumentType) *time.Time {
	if doc == DocumentInsurance {
		return v.LastInsuranceNotificationSent
	}
	return v.LastTaxNotificationSent
}

// Label returns "Model (REG)" as shown in reminders
func (v *Vehicle) Label() string {
	return fmt.Sprintf("%s (%s)", v.Model, v.RegistrationNumber)
}

// VehicleBatch is the result of a bulk read. Documents that could not be
// parsed are reported in Malformed instead of being coerced into Vehicles.
type VehicleBatch struct {
	Vehicles  []Vehicle
	Malformed []error
}

// Total is the number of documents read, well-formed or not
func (b *VehicleBatch) Total() int {
	return len(b.Vehicles) + len(b.Malformed)
}

// LedgerColumn returns the storage column holding the last notification time of doc
func LedgerColumn(doc DocumentType) string {
	if doc == DocumentInsurance {
		return "last_insurance_notification_sent"
	}
	return "last_tax_notification_sent"
}

// LedgerField returns the Firestore field holding the last notification time of doc
func LedgerField(doc DocumentType) string {
	if doc == DocumentInsurance {
		return "lastInsuranceNotificationSent"
	}
	return "lastTaxNotificationSent"
}
