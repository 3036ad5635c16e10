package expiry

import "time"

const (
	DefaultNotifyWindowDays   = 7
	DefaultResendCooldownDays = 10
)

// Reason explains an eligibility decision
type Reason string

const (
	ReasonEligible         Reason = "eligible"
	ReasonNotYetInWindow   Reason = "not_yet_in_window"
	ReasonAlreadyExpired   Reason = "already_expired"
	ReasonRecentlyNotified Reason = "recently_notified"
)

// Policy decides whether a document's notification should (re)fire
type Policy struct {
	// NotifyWindowDays is how many days before expiry notifications start.
	NotifyWindowDays int
	// ResendCooldownDays is the minimum gap between two notifications of the same document.
	ResendCooldownDays int
	// NotifyExpired allows fresh notifications for documents that already expired.
	NotifyExpired bool
}

// DefaultPolicy returns the 7-day window, 10-day cooldown policy that skips expired documents
func DefaultPolicy() Policy {
	return Policy{
		NotifyWindowDays:   DefaultNotifyWindowDays,
		ResendCooldownDays: DefaultResendCooldownDays,
	}
}

// Decision is the outcome of evaluating one document
type Decision struct {
	Eligible bool
	Reason   Reason
	DaysLeft int
}

// Evaluate decides eligibility and reports why
func (p Policy) Evaluate(expiry time.Time, lastSent *time.Time, now time.Time) Decision {
	daysLeft := DaysLeft(expiry, now)
	d := Decision{DaysLeft: daysLeft}

	switch {
	case daysLeft > p.NotifyWindowDays:
		d.Reason = ReasonNotYetInWindow
	case daysLeft < 0 && !p.NotifyExpired:
		d.Reason = ReasonAlreadyExpired
	case lastSent != nil && !lastSent.Before(now.AddDate(0, 0, -p.ResendCooldownDays)):
		d.Reason = ReasonRecentlyNotified
	default:
		d.Eligible = true
		d.Reason = ReasonEligible
	}
	return d
}

// IsEligible reports whether a notification is due
func (p Policy) IsEligible(expiry time.Time, lastSent *time.Time, now time.Time) bool {
	return p.Evaluate(expiry, lastSent, now).Eligible
}
