package repository

import (
	"testing"
	"time"

	"github.com/quocanhngo/deadlinemind/internal/apperr"
)

func TestToTime(t *testing.T) {
	want := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	ptr := want

	tests := []struct {
		name   string
		in     interface{}
		want   time.Time
		wantOK bool
	}{
		{"nil", nil, time.Time{}, false},
		{"time", want, want, true},
		{"pointer", &ptr, want, true},
		{"nil pointer", (*time.Time)(nil), time.Time{}, false},
		{"rfc3339", "2026-10-20T00:00:00Z", want, true},
		{"rfc3339 offset", "2026-10-20T05:30:00+05:30", want, true},
		{"date only", "2026-10-20", want, true},
		{"empty string", "  ", time.Time{}, false},
		{"millis int64", want.UnixMilli(), want, true},
		{"millis float", float64(want.UnixMilli()), want, true},
		{"seconds map", map[string]interface{}{"seconds": want.Unix(), "nanoseconds": int64(0)}, want, true},
		{"admin seconds map", map[string]interface{}{"_seconds": float64(want.Unix()), "_nanoseconds": float64(0)}, want, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := toTime(tt.in)
			if err != nil {
				t.Fatalf("toTime() error = %v", err)
			}
			if ok != tt.wantOK || !got.Equal(tt.want) {
				t.Errorf("toTime() = %v, %v, want %v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestToTimeRejectsGarbage(t *testing.T) {
	for _, in := range []interface{}{"next tuesday", true, []int{1}, map[string]interface{}{"nanos": 1}} {
		if _, _, err := toTime(in); err == nil {
			t.Errorf("toTime(%v) expected error", in)
		}
	}
}

func validDocument() map[string]interface{} {
	return map[string]interface{}{
		"userId":                  "uid-1",
		"model":                   "Swift",
		"registrationNumber":      "MH12AB1234",
		"taxExpiryDate":           time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC),
		"insuranceExpiryDate":     "2027-03-01",
		"insuranceCompany":        "Acko",
		"memberName":              "",
		"lastTaxNotificationSent": time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestParseVehicleDocument(t *testing.T) {
	v, err := parseVehicleDocument("veh-1", validDocument())
	if err != nil {
		t.Fatalf("parseVehicleDocument() error = %v", err)
	}
	if v.ID != "veh-1" || v.UserID != "uid-1" || v.Model != "Swift" || v.RegistrationNumber != "MH12AB1234" {
		t.Errorf("unexpected identity fields: %+v", v)
	}
	if !v.InsuranceExpiryDate.Equal(time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("insurance expiry = %v", v.InsuranceExpiryDate)
	}
	if v.LastTaxNotificationSent == nil || v.LastInsuranceNotificationSent != nil {
		t.Errorf("ledger fields = %v, %v", v.LastTaxNotificationSent, v.LastInsuranceNotificationSent)
	}
	if v.InsuranceCompany == nil || *v.InsuranceCompany != "Acko" || v.MemberName != nil || v.MemberID != nil {
		t.Errorf("optional strings = %v, %v, %v", v.InsuranceCompany, v.MemberName, v.MemberID)
	}
}

func TestParseVehicleDocumentMalformed(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]interface{})
	}{
		{"missing user", func(d map[string]interface{}) { delete(d, "userId") }},
		{"numeric model", func(d map[string]interface{}) { d["model"] = 42 }},
		{"missing tax expiry", func(d map[string]interface{}) { delete(d, "taxExpiryDate") }},
		{"bad insurance expiry", func(d map[string]interface{}) { d["insuranceExpiryDate"] = "soon" }},
		{"bad ledger timestamp", func(d map[string]interface{}) { d["lastInsuranceNotificationSent"] = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := validDocument()
			tt.mutate(doc)
			_, err := parseVehicleDocument("veh-1", doc)
			if !apperr.IsMalformed(err) {
				t.Fatalf("parseVehicleDocument() error = %v, want malformed", err)
			}
		})
	}
}
