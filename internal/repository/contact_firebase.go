package repository

import (
	"context"
	"strings"

	"cloud.google.com/go/firestore"
	"firebase.google.com/go/v4/auth"
	"github.com/quocanhngo/deadlinemind/internal/apperr"
	"github.com/quocanhngo/deadlinemind/internal/model"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const notificationDetailsCollection = "userNotificationDetails"

// FirebaseContactResolver looks up contacts in Firebase Auth. The WhatsApp
// number lives in a separate Firestore document keyed by uid.
type FirebaseContactResolver struct {
	auth *auth.Client
	fs   *firestore.Client
}

func NewFirebaseContactResolver(authClient *auth.Client, fs *firestore.Client) *FirebaseContactResolver {
	return &FirebaseContactResolver{auth: authClient, fs: fs}
}

// Resolve returns the contact for userID or a NotFound error
func (r *FirebaseContactResolver) Resolve(ctx context.Context, userID string) (*model.Contact, error) {
	op := "firebase.contacts.resolve"

	rec, err := r.auth.GetUser(ctx, userID)
	if auth.IsUserNotFound(err) {
		return nil, apperr.NotFound(op, "user %s not found", userID)
	}
	if err != nil {
		return nil, apperr.Transient(op, err)
	}

	contact := &model.Contact{UID: userID}
	if rec.UserInfo != nil {
		contact.Email = nonBlank(rec.Email)
		contact.DisplayName = nonBlank(rec.DisplayName)
		contact.PhoneNumber = nonBlank(rec.PhoneNumber)
	}

	snap, err := r.fs.Collection(notificationDetailsCollection).Doc(userID).Get(ctx)
	switch {
	case status.Code(err) == codes.NotFound:
		// no dedicated WhatsApp number, keep the Auth phone
	case err != nil:
		return nil, apperr.Transient(op, err)
	default:
		if phone, ok := snap.Data()["phoneNumber"].(string); ok {
			if p := nonBlank(phone); p != nil {
				contact.PhoneNumber = p
			}
		}
	}

	return contact, nil
}

func nonBlank(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
