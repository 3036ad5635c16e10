package model

import "strings"

// Contact is the notification recipient behind a vehicle's owner.
// Email and phone number are independently optional; each one gates its channel.
type Contact struct {
	UID         string
	Email       *string
	DisplayName *string
	PhoneNumber *string
}

func (c *Contact) HasEmail() bool { return c != nil && nonEmpty(c.Email) }
func (c *Contact) HasPhone() bool { return c != nil && nonEmpty(c.PhoneNumber) }

// Name returns the display name, falling back to the e-mail local part
func (c *Contact) Name() string {
	if c == nil {
		return ""
	}
	if nonEmpty(c.DisplayName) {
		return *c.DisplayName
	}
	if nonEmpty(c.Email) {
		return strings.SplitN(*c.Email, "@", 2)[0]
	}
	return ""
}

// Label is the name used to greet the recipient in templated messages
func (c *Contact) Label() string {
	if name := c.Name(); name != "" {
		return name
	}
	return "Customer"
}

func nonEmpty(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

// ContactRecord is the Postgres row backing a Contact (users ⟕ user_notification_details)
type ContactRecord struct {
	ID          string  `gorm:"column:id"`
	Email       *string `gorm:"column:email"`
	DisplayName *string `gorm:"column:display_name"`
	PhoneNumber *string `gorm:"column:phone_number"`
}

// ToContact converts the row into the domain Contact
func (r *ContactRecord) ToContact() *Contact {
	return &Contact{
		UID:         r.ID,
		Email:       r.Email,
		DisplayName: r.DisplayName,
		PhoneNumber: r.PhoneNumber,
	}
}

// EmailRecipient is the destination of an e-mail notification
type EmailRecipient struct {
	Email string
	Name  string
}
