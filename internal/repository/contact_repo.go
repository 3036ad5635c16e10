package repository

import (
	"context"
	"errors"
	"time"

	"github.com/quocanhngo/deadlinemind/internal/apperr"
	"github.com/quocanhngo/deadlinemind/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ContactRepository resolves contacts from the users table joined with
// user_notification_details
type ContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// Resolve returns the contact for userID or a NotFound error
func (r *ContactRepository) Resolve(ctx context.Context, userID string) (*model.Contact, error) {
	var rec model.ContactRecord
	err := r.db.WithContext(ctx).
		Table("users").
		Select("users.id, users.email, users.display_name, d.phone_number").
		Joins("LEFT JOIN user_notification_details d ON d.user_id = users.id").
		Where("users.id = ?", userID).
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("postgres.contacts.resolve", "user %s not found", userID)
	}
	if err != nil {
		return nil, apperr.Transient("postgres.contacts.resolve", err)
	}

	contact := rec.ToContact()
	if contact.PhoneNumber != nil && *contact.PhoneNumber == "" {
		contact.PhoneNumber = nil
	}
	return contact, nil
}

// UpsertUser inserts a user or refreshes its e-mail and display name
func (r *ContactRepository) UpsertUser(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "display_name", "updated_at"}),
	}).Create(user).Error
}

// SetPhoneNumber stores the WhatsApp number of a user
func (r *ContactRepository) SetPhoneNumber(ctx context.Context, userID, phone string) error {
	details := model.UserNotificationDetails{
		UserID:      userID,
		PhoneNumber: phone,
		UpdatedAt:   time.Now(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"phone_number", "updated_at"}),
	}).Create(&details).Error
}
