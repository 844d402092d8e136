package config

import (
	"os"
	"strconv"
	"time"

	"github.com/vietlong-68/auth-service/internal/utils"
)

// Config holds all application configuration.
type Config struct {
	AppName string
	AppPort string
	AppUrl  string
	DBUrl   string

	// Keyed-MAC signer for HS512 tokens. Must be at least 32 bytes.
	JWTSignerKey []byte
	TokenExpiry  time.Duration

	// Fixed-interval sweeps.
	ExpiredActiveSweepInterval    time.Duration
	ExpiredBlacklistSweepInterval time.Duration

	// Calendar-scheduled sweeps.
	DeepCleanupCron     string
	OrphanedCleanupCron string
	DeepCleanupDays     int
}

const (
	DefaultTokenExpiry                   = 1 * time.Hour
	DefaultExpiredActiveSweepInterval    = 30 * time.Minute
	DefaultExpiredBlacklistSweepInterval = 1 * time.Hour
	DefaultDeepCleanupCron               = "0 3 * * *"
	DefaultOrphanedCleanupCron           = "30 3 * * *"
	DefaultDeepCleanupDays               = 7
	minSignerKeyLength                   = 32
)

// LoadConfig reads configuration from the environment and validates it.
// Invalid configuration is fatal at startup.
func LoadConfig() *Config {
	cfg := &Config{
		AppName: envOrDefault("APP_NAME", "auth-service"),
		AppPort: envOrDefault("APP_PORT", "8080"),
		AppUrl:  envOrDefault("APP_URL", "http://localhost:3000"),
		DBUrl:   os.Getenv("DATABASE_URL"),

		JWTSignerKey: []byte(os.Getenv("JWT_SIGNER_KEY")),
		TokenExpiry:  durationEnv("JWT_TOKEN_EXPIRY", DefaultTokenExpiry),

		ExpiredActiveSweepInterval:    durationEnv("CLEANUP_ACTIVE_TOKENS_INTERVAL", DefaultExpiredActiveSweepInterval),
		ExpiredBlacklistSweepInterval: durationEnv("CLEANUP_EXPIRED_TOKENS_INTERVAL", DefaultExpiredBlacklistSweepInterval),
		DeepCleanupCron:               envOrDefault("CLEANUP_DEEP_CRON", DefaultDeepCleanupCron),
		OrphanedCleanupCron:           envOrDefault("CLEANUP_ORPHANED_CRON", DefaultOrphanedCleanupCron),
		DeepCleanupDays:               intEnv("CLEANUP_DEEP_DAYS", DefaultDeepCleanupDays),
	}

	cfg.validate()
	return cfg
}

func (c *Config) validate() {
	if c.DBUrl == "" {
		utils.Logger.Fatal("DATABASE_URL is required")
	}
	if len(c.JWTSignerKey) < minSignerKeyLength {
		utils.Logger.Fatalf("JWT_SIGNER_KEY must be at least %d bytes", minSignerKeyLength)
	}
	if c.TokenExpiry <= 0 {
		utils.Logger.Fatal("JWT token expiry must be positive")
	}
	if c.ExpiredActiveSweepInterval <= 0 {
		utils.Logger.Fatal("Active tokens cleanup interval must be positive")
	}
	if c.ExpiredBlacklistSweepInterval <= 0 {
		utils.Logger.Fatal("Expired tokens cleanup interval must be positive")
	}
	if c.DeepCleanupDays <= 0 {
		utils.Logger.Fatal("Deep cleanup days must be positive")
	}
	if c.DeepCleanupCron == "" {
		utils.Logger.Fatal("Deep cleanup cron expression cannot be empty")
	}
	if c.OrphanedCleanupCron == "" {
		utils.Logger.Fatal("Orphaned cleanup cron expression cannot be empty")
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		utils.Logger.Fatalf("Invalid duration in %s: %v", key, err)
	}
	return d
}

func intEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		utils.Logger.Fatalf("Invalid integer in %s: %v", key, err)
	}
	return n
}
