// Package bootstrap wires the data store, notification channels and scan
// services from configuration. The HTTP server and the CLI scanner share it.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/quocanhngo/deadlinemind/internal/config"
	"github.com/quocanhngo/deadlinemind/internal/expiry"
	"github.com/quocanhngo/deadlinemind/internal/middleware"
	"github.com/quocanhngo/deadlinemind/internal/model"
	"github.com/quocanhngo/deadlinemind/internal/repository"
	"github.com/quocanhngo/deadlinemind/internal/service"
	"github.com/quocanhngo/deadlinemind/migrations"
	"github.com/quocanhngo/deadlinemind/pkg/firebase"
	"github.com/quocanhngo/deadlinemind/pkg/lock"
	"github.com/quocanhngo/deadlinemind/pkg/mailer"
	"github.com/quocanhngo/deadlinemind/pkg/storage"
	"github.com/quocanhngo/deadlinemind/pkg/whatsapp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// App holds the services built from one configuration
type App struct {
	Scan    *service.ScanService
	Reports *service.ReportService
	// Verifier checks Firebase ID tokens. It is nil when no Firebase
	// credentials are configured, which disables the user-facing routes.
	Verifier middleware.TokenVerifier

	closers []func() error
	log     *zap.Logger
}

type store struct {
	vehicles interface {
		service.VehicleSource
		service.NotificationLedger
	}
	contacts service.ContactResolver
}

// New connects every configured backend. Only the data store is mandatory;
// Redis, MinIO, e-mail and WhatsApp degrade to "disabled" when unavailable.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	app := &App{log: log}

	// ==================== Firebase ====================
	var fb *firebase.Clients
	if cfg.Firebase.HasCredentials() {
		var err error
		fb, err = firebase.New(ctx, firebase.Config{
			ProjectID:          cfg.Firebase.ProjectID,
			CredentialsFile:    cfg.Firebase.CredentialsFile,
			ServiceAccountJSON: cfg.Firebase.ServiceAccountJSON,
		}, log)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, fb.Close)
		app.Verifier = fb.Auth
	}

	// ==================== Data Store ====================
	var st store
	switch cfg.Store.Driver {
	case config.StoreFirestore:
		if fb == nil {
			app.Close()
			return nil, fmt.Errorf("the %s data store needs Firebase credentials", config.StoreFirestore)
		}
		st.vehicles = repository.NewFirestoreVehicleStore(fb.Firestore, log)
		st.contacts = repository.NewFirebaseContactResolver(fb.Auth, fb.Firestore)
		log.Info("📚 Using Firestore data store")
	case config.StorePostgres:
		db, err := OpenPostgres(cfg, log)
		if err != nil {
			app.Close()
			return nil, err
		}
		if sqlDB, err := db.DB(); err == nil {
			app.closers = append(app.closers, sqlDB.Close)
		}
		st.vehicles = repository.NewVehicleRepository(db)
		st.contacts = repository.NewContactRepository(db)
		log.Info("📚 Using PostgreSQL data store")
	default:
		app.Close()
		return nil, fmt.Errorf("unknown data store %q", cfg.Store.Driver)
	}

	// ==================== Channels ====================
	mailClient := mailer.New(mailer.Config{
		Host:        cfg.Email.Host,
		Port:        cfg.Email.Port,
		Username:    cfg.Email.Username,
		APIKey:      cfg.Email.APIKey,
		From:        cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		ImplicitTLS: cfg.Email.ImplicitTLS,
	}, log)
	if err := mailClient.Available(); err != nil {
		log.Warn("⚠️  E-mail channel disabled", zap.Error(err))
	} else {
		log.Info("📧 SMTP configured", zap.String("host", cfg.Email.Host), zap.String("port", cfg.Email.Port))
	}

	waClient := whatsapp.New(whatsapp.Config{
		AccountSID: cfg.WhatsApp.AccountSID,
		AuthToken:  cfg.WhatsApp.AuthToken,
		FromNumber: cfg.WhatsApp.FromNumber,
		ContentSID: cfg.WhatsApp.ContentSID,
	}, log)
	if err := waClient.Available(); err != nil {
		log.Warn("⚠️  WhatsApp channel disabled", zap.Error(err))
	} else {
		log.Info("💬 Twilio WhatsApp configured")
	}

	renderer := mailer.NewReportRenderer()

	opts := []service.ScanOption{
		service.WithPolicy(expiry.Policy{
			NotifyWindowDays:   cfg.Scan.NotifyWindowDays,
			ResendCooldownDays: cfg.Scan.ResendCooldownDays,
			NotifyExpired:      cfg.Scan.NotifyExpired,
		}),
		service.WithWorkers(cfg.Scan.Workers),
		service.WithCallTimeout(cfg.Scan.CallTimeout),
	}

	// ==================== Redis (run lock) ====================
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       0,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("⚠️  Redis not available, scans run without a lock", zap.Error(err))
			_ = rdb.Close()
		} else {
			log.Info("✅ Connected to Redis")
			app.closers = append(app.closers, rdb.Close)
			opts = append(opts, service.WithRunLock(lock.NewRedisLock(rdb, ""), cfg.Scan.LockTTL))
		}
	}

	// ==================== MinIO (run archive) ====================
	if cfg.MinIO.Enabled() {
		archive, err := storage.NewMinIO(ctx, storage.Config{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			Bucket:    cfg.MinIO.Bucket,
			UseSSL:    cfg.MinIO.UseSSL,
		}, log)
		if err != nil {
			log.Warn("⚠️  MinIO not available, run summaries will not be archived", zap.Error(err))
		} else {
			log.Info("✅ Connected to MinIO", zap.String("bucket", cfg.MinIO.Bucket))
			opts = append(opts, service.WithArchiver(archive))
		}
	}

	app.Scan = service.NewScanService(st.vehicles, st.contacts, renderer, mailClient, waClient, st.vehicles, log, opts...)
	app.Reports = service.NewReportService(st.vehicles, renderer, mailClient, cfg.Scan.CallTimeout, log)
	return app, nil
}

// OpenPostgres connects with GORM and applies the embedded migrations,
// falling back to AutoMigrate when they cannot run.
func OpenPostgres(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	gormLogger := logger.Default.LogMode(logger.Info)
	if cfg.App.Env == "production" {
		gormLogger = logger.Default.LogMode(logger.Warn)
	}

	db, err := gorm.Open(postgres.Open(cfg.DB.DSN()), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("✅ Connected to PostgreSQL")

	if err := migrations.Run(cfg.DB.URL(), log); err != nil {
		log.Warn("⚠️  Migration warning, falling back to GORM AutoMigrate", zap.Error(err))
		if err := db.AutoMigrate(
			&model.User{},
			&model.UserNotificationDetails{},
			&model.Vehicle{},
		); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}
	log.Info("✅ Database migrated successfully")
	return db, nil
}

// Close releases every connection opened by New
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("Failed to close resource", zap.Error(err))
		}
	}
	a.closers = nil
}
