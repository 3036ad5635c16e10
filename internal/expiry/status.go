// Package expiry holds the pure urgency and notification policy of DeadlineMind.
package expiry

import (
	"time"

	"github.com/quocanhngo/deadlinemind/internal/model"
)

// Status is the urgency tier of an expiry date
type Status string

const (
	StatusExpired  Status = "Expired"
	StatusUrgent   Status = "Urgent"
	StatusUpcoming Status = "Upcoming"
	StatusSafe     Status = "Safe"
)

const (
	urgentWithinDays   = 7
	upcomingWithinDays = 30
)

// DaysLeft returns the whole days from now until expiry, truncated toward zero.
// Negative means the date is in the past.
func DaysLeft(expiry, now time.Time) int {
	return int(expiry.Sub(now) / (24 * time.Hour))
}

// ClassifyDays maps a days-left count to its tier. Boundaries belong to the lower tier.
func ClassifyDays(daysLeft int) Status {
	switch {
	case daysLeft < 0:
		return StatusExpired
	case daysLeft <= urgentWithinDays:
		return StatusUrgent
	case daysLeft <= upcomingWithinDays:
		return StatusUpcoming
	default:
		return StatusSafe
	}
}

// Classify computes the urgency tier of an expiry date
func Classify(expiry, now time.Time) Status {
	return ClassifyDays(DaysLeft(expiry, now))
}

// OverallStatus is the tier of whichever document of the vehicle expires first
func OverallStatus(v *model.Vehicle, now time.Time) Status {
	tax := DaysLeft(v.TaxExpiryDate, now)
	insurance := DaysLeft(v.InsuranceExpiryDate, now)
	return ClassifyDays(min(tax, insurance))
}

// ReportRow builds the simplified report view of a vehicle with the given status
func ReportRow(v *model.Vehicle, status Status) model.VehicleReportRow {
	return model.VehicleReportRow{
		Model:               v.Model,
		RegistrationNumber:  v.RegistrationNumber,
		TaxExpiryDate:       v.TaxExpiryDate.Format(model.ReportDateLayout),
		InsuranceExpiryDate: v.InsuranceExpiryDate.Format(model.ReportDateLayout),
		OverallStatus:       string(status),
	}
}
