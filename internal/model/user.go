package model

import "time"

// User is a notification recipient in the self-hosted (Postgres) store
type User struct {
	ID          string    `json:"id" gorm:"size:128;primaryKey"`
	Email       *string   `json:"email" gorm:"size:255;uniqueIndex"`
	DisplayName *string   `json:"display_name" gorm:"size:100"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserNotificationDetails stores the WhatsApp phone number of a user
type UserNotificationDetails struct {
	UserID      string    `json:"user_id" gorm:"size:128;primaryKey"`
	PhoneNumber string    `json:"phone_number" gorm:"size:32;not null"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName overrides the pluralised default
func (UserNotificationDetails) TableName() string {
	return "user_notification_details"
}
