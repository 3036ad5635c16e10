package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreFirestore = "firestore"
	StorePostgres  = "postgres"
)

// Config holds all configuration for the application
type Config struct {
	App      AppConfig
	Store    StoreConfig
	DB       DBConfig
	Redis    RedisConfig
	Firebase FirebaseConfig
	Email    EmailConfig
	WhatsApp WhatsAppConfig
	MinIO    MinIOConfig
	Scan     ScanConfig
	Cron     CronConfig
	Log      LogConfig
	CORS     CORSConfig
}

type AppConfig struct {
	Env  string
	Port string
}

// StoreConfig selects where vehicles, contacts and the notification ledger live
type StoreConfig struct {
	Driver string // firestore or postgres
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN returns the PostgreSQL connection string
func (d DBConfig) DSN() string {
	return "host=" + d.Host +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.Name +
		" port=" + d.Port +
		" sslmode=" + d.SSLMode +
		" TimeZone=UTC"
}

// URL returns the PostgreSQL connection URL (for golang-migrate)
func (d DBConfig) URL() string {
	return "postgres://" + d.User + ":" + d.Password +
		"@" + d.Host + ":" + d.Port +
		"/" + d.Name + "?sslmode=" + d.SSLMode
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

// Addr returns the Redis address
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

// Enabled reports whether a Redis host was configured
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

type FirebaseConfig struct {
	ProjectID          string
	CredentialsFile    string
	ServiceAccountJSON string
}

// HasCredentials reports whether any service account credentials were provided
func (f FirebaseConfig) HasCredentials() bool {
	return f.CredentialsFile != "" || f.ServiceAccountJSON != ""
}

// EmailConfig configures the SMTP relay. The API key is used as the SMTP
// password, which is how Resend's relay authenticates.
type EmailConfig struct {
	Host        string
	Port        string
	Username    string
	APIKey      string
	FromAddress string
	FromName    string
	ImplicitTLS bool
}

type WhatsAppConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	ContentSID string
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Enabled reports whether run summaries should be archived to MinIO
func (m MinIOConfig) Enabled() bool {
	return m.Endpoint != ""
}

// ScanConfig tunes the expiry scan
type ScanConfig struct {
	NotifyWindowDays   int
	ResendCooldownDays int
	NotifyExpired      bool
	Workers            int
	CallTimeout        time.Duration
	LockTTL            time.Duration
}

type CronConfig struct {
	Secret string
}

type LogConfig struct {
	Level  string
	Format string
	File   string
}

type CORSConfig struct {
	Origins []string
}

// Load reads configuration from .env file and environment variables
func Load() *Config {
	// Load .env file (ignore error if not exists - e.g. in Docker)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading from environment variables")
	}

	env := getEnv("APP_ENV", "development")
	logFormat := "console"
	if env == "production" {
		logFormat = "json"
	}

	return &Config{
		App: AppConfig{
			Env:  env,
			Port: getEnv("APP_PORT", "8080"),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getEnv("DATA_STORE", StoreFirestore)),
		},
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "deadlinemind"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "deadlinemind"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		Firebase: FirebaseConfig{
			ProjectID:          getEnv("FIREBASE_PROJECT_ID", ""),
			CredentialsFile:    getEnv("FIREBASE_CREDENTIALS_FILE", ""),
			ServiceAccountJSON: getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		},
		Email: EmailConfig{
			Host:        getEnv("SMTP_HOST", "smtp.resend.com"),
			Port:        getEnv("SMTP_PORT", "465"),
			Username:    getEnv("SMTP_USERNAME", "resend"),
			APIKey:      getEnv("EMAIL_API_KEY", getEnv("RESEND_API_KEY", "")),
			FromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),
			FromName:    getEnv("EMAIL_FROM_NAME", "DeadlineMind"),
			ImplicitTLS: getBool("SMTP_IMPLICIT_TLS", true),
		},
		WhatsApp: WhatsAppConfig{
			AccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
			FromNumber: getEnv("TWILIO_WHATSAPP_FROM_NUMBER", ""),
			ContentSID: getEnv("TWILIO_WHATSAPP_CONTENT_SID", ""),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    getEnv("MINIO_BUCKET", "deadlinemind-runs"),
			UseSSL:    getBool("MINIO_USE_SSL", false),
		},
		Scan: ScanConfig{
			NotifyWindowDays:   getInt("NOTIFY_WINDOW_DAYS", 7),
			ResendCooldownDays: getInt("RESEND_COOLDOWN_DAYS", 10),
			NotifyExpired:      getBool("NOTIFY_EXPIRED", false),
			Workers:            getInt("SCAN_WORKERS", 4),
			CallTimeout:        getDuration("CALL_TIMEOUT", 15*time.Second),
			LockTTL:            getDuration("SCAN_LOCK_TTL", 15*time.Minute),
		},
		Cron: CronConfig{
			Secret: getEnv("CRON_SECRET", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", logFormat),
			File:   getEnv("LOG_FILE", ""),
		},
		CORS: CORSConfig{
			Origins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		},
	}
}

// Validate checks the settings whose absence is fatal to the whole service.
// Missing e-mail, WhatsApp, Redis or MinIO settings only disable that feature.
func (c *Config) Validate() error {
	var errs []error
	if c.Cron.Secret == "" {
		errs = append(errs, errors.New("CRON_SECRET is not set"))
	}
	switch c.Store.Driver {
	case StoreFirestore:
		if !c.Firebase.HasCredentials() {
			errs = append(errs, errors.New("FIREBASE_CREDENTIALS_FILE or FIREBASE_SERVICE_ACCOUNT_JSON is required for the firestore data store"))
		}
	case StorePostgres:
		if c.DB.Password == "" {
			errs = append(errs, errors.New("DB_PASSWORD is required for the postgres data store"))
		}
	default:
		errs = append(errs, errors.New("DATA_STORE must be firestore or postgres, got "+strconv.Quote(c.Store.Driver)))
	}
	if c.Scan.Workers < 1 {
		errs = append(errs, errors.New("SCAN_WORKERS must be at least 1"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
