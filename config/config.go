package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

type Config struct {
	Port         string
	StoreBackend string
	MongoURI     string
	DBName       string

	S3Bucket        string
	S3Region        string
	S3AccessKeyID   string
	S3SecretKey     string
	S3Endpoint      string // custom endpoint (MinIO, localstack); empty for AWS
	MaxUploadMB     int64
	MetadataEnabled bool

	JWTSecret       string
	TokenTTL        time.Duration
	SessionLifetime time.Duration
	CookieSecure    bool
	BcryptCost      int
	HashWorkers     int

	RateLimitPerMinute int
	RateLimitBurst     int

	OTPEncryptionKey []byte // 32 bytes for AES-256; optional, base64 in env

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPass     string
	SMTPFrom     string
	SMTPStartTLS bool
	AppURL       string

	AdminUsername string
	AdminEmail    string
	AdminPassword string

	CORSOrigins []string
	LogLevel    slog.Level
}

// Load reads the environment. Malformed values are an error; missing ones fall back to defaults.
func Load() (*Config, error) {
	var errs []error
	intEnv := func(key string, fallback int) int {
		v := getEnv(key, "")
		if v == "" {
			return fallback
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			errs = append(errs, fmt.Errorf("%s: want a positive integer, got %q", key, v))
			return fallback
		}
		return n
	}
	boolEnv := func(key string, fallback bool) bool {
		v := getEnv(key, "")
		if v == "" {
			return fallback
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: want a boolean, got %q", key, v))
			return fallback
		}
		return b
	}
	durationEnv := func(key string, fallback time.Duration) time.Duration {
		v := getEnv(key, "")
		if v == "" {
			return fallback
		}
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("%s: want a positive duration, got %q", key, v))
			return fallback
		}
		return d
	}

	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", BackendMongo)),
		MongoURI:     getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		DBName:       getEnv("MONGODB_DB", "intelliread"),

		S3Bucket:        getEnv("AWS_S3_BUCKET", ""),
		S3Region:        getEnv("AWS_REGION", "us-east-1"),
		S3AccessKeyID:   getEnv("AWS_ACCESS_KEY_ID", ""),
		S3SecretKey:     getEnv("AWS_SECRET_ACCESS_KEY", ""),
		S3Endpoint:      getEnv("AWS_S3_ENDPOINT", ""),
		MaxUploadMB:     int64(intEnv("MAX_UPLOAD_MB", 50)),
		MetadataEnabled: boolEnv("METADATA_LOOKUP", true),

		JWTSecret:       getEnv("JWT_SECRET", "change-me-in-production"),
		TokenTTL:        durationEnv("TOKEN_TTL", 24*time.Hour),
		SessionLifetime: durationEnv("SESSION_LIFETIME", 24*time.Hour),
		CookieSecure:    boolEnv("COOKIE_SECURE", false),
		BcryptCost:      intEnv("BCRYPT_COST", 12),
		HashWorkers:     intEnv("HASH_WORKERS", 4),

		RateLimitPerMinute: intEnv("RATE_LIMIT_PER_MINUTE", 20),
		RateLimitBurst:     intEnv("RATE_LIMIT_BURST", 5),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     intEnv("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPass:     getEnv("SMTP_PASS", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "IntelliRead <no-reply@intelliread.local>"),
		SMTPStartTLS: boolEnv("SMTP_STARTTLS", true),
		AppURL:       getEnv("APP_URL", "http://localhost:5173"),

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@intelliread.com"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
	}

	if cfg.StoreBackend != BackendMongo && cfg.StoreBackend != BackendMemory {
		errs = append(errs, fmt.Errorf("STORE_BACKEND: want %q or %q, got %q", BackendMongo, BackendMemory, cfg.StoreBackend))
	}
	if k := getEnv("OTP_ENCRYPTION_KEY", ""); k != "" {
		key, err := base64.StdEncoding.DecodeString(k)
		if err != nil || len(key) != 32 {
			errs = append(errs, errors.New("OTP_ENCRYPTION_KEY must be 32 bytes base64 (generate with: openssl rand -base64 32)"))
		} else {
			cfg.OTPEncryptionKey = key
		}
	}
	for _, o := range strings.Split(getEnv("CORS_ORIGINS", "http://localhost:5173"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// RequiredEnvVars must be set in production.
var RequiredEnvVars = []string{
	"MONGODB_URI",
	"MONGODB_DB",
	"JWT_SECRET",
	"ADMIN_PASSWORD",
	"OTP_ENCRYPTION_KEY",
	"SMTP_HOST",
}

// OptionalEnvVars are logged at startup so you can confirm they are loaded when set.
var OptionalEnvVars = []string{
	"PORT",
	"STORE_BACKEND",
	"AWS_S3_BUCKET",
	"AWS_REGION",
	"AWS_S3_ENDPOINT",
	"AWS_ACCESS_KEY_ID",
	"AWS_SECRET_ACCESS_KEY",
	"SMTP_USER",
	"SMTP_PASS",
	"APP_URL",
	"CORS_ORIGINS",
	"COOKIE_SECURE",
}

var secretEnvVars = map[string]bool{
	"JWT_SECRET":            true,
	"ADMIN_PASSWORD":        true,
	"OTP_ENCRYPTION_KEY":    true,
	"AWS_ACCESS_KEY_ID":     true,
	"AWS_SECRET_ACCESS_KEY": true,
	"SMTP_PASS":             true,
}

// ValidateEnv checks the production requirements and logs which variables are set.
// Secret values are never logged.
func ValidateEnv(log *slog.Logger) error {
	var missing []string
	for _, key := range RequiredEnvVars {
		if getEnv(key, "") == "" {
			missing = append(missing, key)
			continue
		}
		log.Info("env loaded", "key", key)
	}
	for _, key := range OptionalEnvVars {
		v := getEnv(key, "")
		switch {
		case v == "":
			log.Debug("env not set (optional)", "key", key)
		case secretEnvVars[key]:
			log.Info("env loaded", "key", key)
		default:
			log.Info("env loaded", "key", key, "value", v)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env: %s (set these in .env or environment)", strings.Join(missing, ", "))
	}
	if getEnv("JWT_SECRET", "") == "change-me-in-production" {
		return errors.New("JWT_SECRET must be set to a strong secret (not the default change-me-in-production)")
	}
	if len(getEnv("ADMIN_PASSWORD", "")) < 8 {
		return errors.New("ADMIN_PASSWORD must be at least 8 characters")
	}
	return nil
}
