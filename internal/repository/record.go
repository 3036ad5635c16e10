package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/quocanhngo/deadlinemind/internal/apperr"
	"github.com/quocanhngo/deadlinemind/internal/model"
)

// Firestore field names of a vehicle document
const (
	fieldUserID              = "userId"
	fieldModel               = "model"
	fieldRegistrationNumber  = "registrationNumber"
	fieldTaxExpiryDate       = "taxExpiryDate"
	fieldInsuranceExpiryDate = "insuranceExpiryDate"
	fieldInsuranceCompany    = "insuranceCompany"
	fieldMemberID            = "memberId"
	fieldMemberName          = "memberName"
	fieldCreatedAt           = "createdAt"
	fieldUpdatedAt           = "updatedAt"
)

// parseVehicleDocument converts a raw vehicle document into a Vehicle.
// Required fields that are missing or of the wrong type make the whole
// document malformed; nothing is defaulted.
func parseVehicleDocument(id string, data map[string]interface{}) (model.Vehicle, error) {
	op := "repository.parseVehicle"
	v := model.Vehicle{ID: id}
	var err error

	if v.UserID, err = requiredString(data, fieldUserID); err != nil {
		return model.Vehicle{}, apperr.New(apperr.KindMalformed, op, fmt.Errorf("vehicle %s: %w", id, err))
	}
	if v.Model, err = requiredString(data, fieldModel); err != nil {
		return model.Vehicle{}, apperr.New(apperr.KindMalformed, op, fmt.Errorf("vehicle %s: %w", id, err))
	}
	if v.RegistrationNumber, err = requiredString(data, fieldRegistrationNumber); err != nil {
		return model.Vehicle{}, apperr.New(apperr.KindMalformed, op, fmt.Errorf("vehicle %s: %w", id, err))
	}

	timeFields := []struct {
		name     string
		required bool
		set      func(time.Time)
	}{
		{fieldTaxExpiryDate, true, func(t time.Time) { v.TaxExpiryDate = t }},
		{fieldInsuranceExpiryDate, true, func(t time.Time) { v.InsuranceExpiryDate = t }},
		{model.LedgerField(model.DocumentTax), false, func(t time.Time) { v.LastTaxNotificationSent = &t }},
		{model.LedgerField(model.DocumentInsurance), false, func(t time.Time) { v.LastInsuranceNotificationSent = &t }},
		{fieldCreatedAt, false, func(t time.Time) { v.CreatedAt = t }},
		{fieldUpdatedAt, false, func(t time.Time) { v.UpdatedAt = t }},
	}
	for _, f := range timeFields {
		t, ok, err := toTime(data[f.name])
		if err != nil {
			return model.Vehicle{}, apperr.New(apperr.KindMalformed, op, fmt.Errorf("vehicle %s: field %s: %w", id, f.name, err))
		}
		if !ok {
			if f.required {
				return model.Vehicle{}, apperr.Malformed(op, "vehicle %s: field %s is missing", id, f.name)
			}
			continue
		}
		f.set(t)
	}

	v.InsuranceCompany = optionalString(data, fieldInsuranceCompany)
	v.MemberID = optionalString(data, fieldMemberID)
	v.MemberName = optionalString(data, fieldMemberName)
	return v, nil
}

func requiredString(data map[string]interface{}, key string) (string, error) {
	raw, ok := data[key]
	if !ok || raw == nil {
		return "", fmt.Errorf("field %s is missing", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("field %s is %T, want string", key, raw)
	}
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("field %s is empty", key)
	}
	return s, nil
}

func optionalString(data map[string]interface{}, key string) *string {
	s, ok := data[key].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// toTime normalises every timestamp representation found in vehicle
// documents. ok is false when the value is absent.
func toTime(raw interface{}) (t time.Time, ok bool, err error) {
	switch v := raw.(type) {
	case nil:
		return time.Time{}, false, nil
	case time.Time:
		return v.UTC(), true, nil
	case *time.Time:
		if v == nil {
			return time.Time{}, false, nil
		}
		return v.UTC(), true, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return time.Time{}, false, nil
		}
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true, nil
			}
		}
		return time.Time{}, false, fmt.Errorf("unparseable timestamp %q", v)
	case int64:
		return time.UnixMilli(v).UTC(), true, nil
	case int:
		return time.UnixMilli(int64(v)).UTC(), true, nil
	case float64:
		return time.UnixMilli(int64(v)).UTC(), true, nil
	case map[string]interface{}:
		return timestampMap(v)
	default:
		return time.Time{}, false, fmt.Errorf("unsupported timestamp type %T", raw)
	}
}

// timestampMap handles serialised Timestamp objects ({seconds, nanoseconds}
// or the admin SDK's {_seconds, _nanoseconds})
func timestampMap(m map[string]interface{}) (time.Time, bool, error) {
	secs, ok := number(m, "seconds", "_seconds")
	if !ok {
		return time.Time{}, false, fmt.Errorf("timestamp object has no seconds")
	}
	nanos, _ := number(m, "nanoseconds", "_nanoseconds")
	return time.Unix(secs, nanos).UTC(), true, nil
}

func number(m map[string]interface{}, keys ...string) (int64, bool) {
	for _, k := range keys {
		switch n := m[k].(type) {
		case int64:
			return n, true
		case int:
			return int64(n), true
		case float64:
			return int64(n), true
		}
	}
	return 0, false
}
