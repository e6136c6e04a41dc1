package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr                  string        `env:"APP_ADDR" envDefault:":8080"`
	DatabaseURL           string        `env:"DATABASE_URL"`
	JWTSecret             string        `env:"JWT_SECRET"`
	DataEncryptionKey     string        `env:"DATA_ENCRYPTION_KEY"`
	Environment           string        `env:"APP_ENV" envDefault:"development"`
	FrontendOrigins       []string      `env:"FRONTEND_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	PublicBaseURL         string        `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:3000"`
	StorageDir            string        `env:"STORAGE_DIR" envDefault:"data/uploads"`
	SeedTenantName        string        `env:"SEED_TENANT_NAME" envDefault:"Default Tenant"`
	SeedAdminEmail        string        `env:"SEED_ADMIN_EMAIL"`
	SeedAdminPassword     string        `env:"SEED_ADMIN_PASSWORD"`
	EmailFrom             string        `env:"EMAIL_FROM" envDefault:"no-reply@example.com"`
	EmailEnabled          bool          `env:"EMAIL_ENABLED" envDefault:"false"`
	SMTPHost              string        `env:"SMTP_HOST"`
	SMTPPort              int           `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser              string        `env:"SMTP_USER"`
	SMTPPassword          string        `env:"SMTP_PASSWORD"`
	SMTPUseTLS            bool          `env:"SMTP_USE_TLS" envDefault:"true"`
	RunMigrations         bool          `env:"RUN_MIGRATIONS" envDefault:"true"`
	RunSeed               bool          `env:"RUN_SEED" envDefault:"true"`
	MaxBodyBytes          int64         `env:"MAX_BODY_BYTES" envDefault:"1048576"`
	MaxUploadBytes        int64         `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
	RateLimitPerMinute    int64         `env:"RATE_LIMIT_PER_MINUTE" envDefault:"60"`
	RateLimitStore        string        `env:"RATE_LIMIT_STORE" envDefault:"memory"`
	RedisURL              string        `env:"REDIS_URL"`
	AccessTokenTTL        time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"8h"`
	InviteTTL             time.Duration `env:"INVITE_TTL" envDefault:"72h"`
	InviteCleanupInterval time.Duration `env:"INVITE_CLEANUP_INTERVAL" envDefault:"1h"`
	MetricsEnabled        bool          `env:"METRICS_ENABLED" envDefault:"true"`
}

// Load reads .env files when present and then the process environment.
func Load() (Config, error) {
	for _, file := range []string{".env", ".env.local"} {
		_ = godotenv.Load(file)
	}
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.IsProduction() {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production for encryption at rest")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be changed or RUN_SEED disabled in production")
		}
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.MaxUploadBytes < c.MaxBodyBytes {
		return fmt.Errorf("MAX_UPLOAD_BYTES must not be smaller than MAX_BODY_BYTES")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	switch c.RateLimitStore {
	case "memory":
	case "redis":
		if strings.TrimSpace(c.RedisURL) == "" {
			return fmt.Errorf("REDIS_URL must be set when RATE_LIMIT_STORE is redis")
		}
	default:
		return fmt.Errorf("RATE_LIMIT_STORE must be memory or redis")
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	if c.InviteTTL <= 0 {
		return fmt.Errorf("INVITE_TTL must be positive")
	}
	return nil
}
