package firebase

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Config holds Firebase Admin credentials
type Config struct {
	ProjectID          string
	CredentialsFile    string
	ServiceAccountJSON string
}

// Clients bundles the Admin SDK clients used by the service. They are
// constructed once at start-up and passed to whoever needs them.
type Clients struct {
	Auth      *auth.Client
	Firestore *firestore.Client
}

// New initialises the Firebase app and its Auth and Firestore clients
func New(ctx context.Context, cfg Config, log *zap.Logger) (*Clients, error) {
	var opt option.ClientOption
	switch {
	case cfg.ServiceAccountJSON != "":
		opt = option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON))
	case cfg.CredentialsFile != "":
		opt = option.WithCredentialsFile(cfg.CredentialsFile)
	default:
		return nil, errors.New("firebase credentials not provided")
	}

	var appCfg *firebase.Config
	if cfg.ProjectID != "" {
		appCfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, appCfg, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get auth client: %w", err)
	}

	fs, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get firestore client: %w", err)
	}

	log.Info("✅ Firebase Admin initialized", zap.String("project", cfg.ProjectID))
	return &Clients{Auth: authClient, Firestore: fs}, nil
}

// Close releases the Firestore connection
func (c *Clients) Close() error {
	if c == nil || c.Firestore == nil {
		return nil
	}
	return c.Firestore.Close()
}
