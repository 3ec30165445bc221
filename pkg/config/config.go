package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool
	JWTSecret    string
	JWTIssuer    string

	// Priority access windows. A slot opens ReleaseWindow before its start
	// time; each tier below Essential waits an extra TierStagger.
	ReleaseWindow time.Duration
	TierStagger   time.Duration

	// SweepInterval is how often the completion sweeper runs.
	SweepInterval time.Duration

	// RateLimit is the per-IP request limit in ulule/limiter notation, e.g. "100-M".
	RateLimit string

	// SMTP settings for booking notifications. Notifications go to the
	// community notifications mailbox; leaving SMTPHost empty falls back to
	// log-only delivery.
	SMTPHost string
	SMTPPort string
	SMTPFrom string
	SMTPTo   string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_ISSUER", "cwas-backend")
	viper.SetDefault("RELEASE_WINDOW", "48h")
	viper.SetDefault("TIER_STAGGER", "4h")
	viper.SetDefault("SWEEP_INTERVAL", "1m")
	viper.SetDefault("RATE_LIMIT", "100-M")
	viper.SetDefault("SMTP_HOST", "")
	viper.SetDefault("SMTP_PORT", "25")
	viper.SetDefault("SMTP_FROM", "")
	viper.SetDefault("SMTP_TO", "")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL not set. Running with the in-memory store.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET not set. Using default insecure key.")
	}
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	var err error
	cfg.ReleaseWindow, err = time.ParseDuration(viper.GetString("RELEASE_WINDOW"))
	if err != nil {
		log.Printf("Warning: Invalid RELEASE_WINDOW (%q). Defaulting to 48h.\n", viper.GetString("RELEASE_WINDOW"))
		cfg.ReleaseWindow = 48 * time.Hour
	}
	cfg.TierStagger, err = time.ParseDuration(viper.GetString("TIER_STAGGER"))
	if err != nil {
		log.Printf("Warning: Invalid TIER_STAGGER (%q). Defaulting to 4h.\n", viper.GetString("TIER_STAGGER"))
		cfg.TierStagger = 4 * time.Hour
	}
	cfg.SweepInterval, err = time.ParseDuration(viper.GetString("SWEEP_INTERVAL"))
	if err != nil {
		log.Printf("Warning: Invalid SWEEP_INTERVAL (%q). Defaulting to 1m.\n", viper.GetString("SWEEP_INTERVAL"))
		cfg.SweepInterval = time.Minute
	}

	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	cfg.SMTPHost = viper.GetString("SMTP_HOST")
	cfg.SMTPPort = viper.GetString("SMTP_PORT")
	cfg.SMTPFrom = viper.GetString("SMTP_FROM")
	cfg.SMTPTo = viper.GetString("SMTP_TO")

	return cfg, nil
}
