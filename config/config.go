package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultCrisisMessage = "Your submission contains concerning content. Please reach out to PennCAPS " +
	"(Penn's counseling services) at 215-898-7021 or visit caps.upenn.edu. " +
	"If you're in crisis, call 988 (Suicide & Crisis Lifeline)."

var defaultOrigins = []string{
	"http://localhost:5173",
	"http://localhost:3000",
	"http://127.0.0.1:5173",
	"http://127.0.0.1:3000",
	"https://moodmap-prod.vercel.app",
}

// ModerationConfig holds the abuse-prevention knobs.
type ModerationConfig struct {
	DailyLimit       int
	HideThreshold    int
	DeleteThreshold  int
	SuspendThreshold int
	MaxNoteLength    int
}

func DefaultModeration() ModerationConfig {
	return ModerationConfig{
		DailyLimit:       5,
		HideThreshold:    3,
		DeleteThreshold:  5,
		SuspendThreshold: 3,
		MaxNoteLength:    200,
	}
}

func (m ModerationConfig) Validate() error {
	if m.DailyLimit < 1 {
		return fmt.Errorf("DAILY_LIMIT must be at least 1, got %d", m.DailyLimit)
	}
	if m.HideThreshold < 1 {
		return fmt.Errorf("HIDE_THRESHOLD must be at least 1, got %d", m.HideThreshold)
	}
	if m.DeleteThreshold < m.HideThreshold {
		return fmt.Errorf("DELETE_THRESHOLD (%d) must not be below HIDE_THRESHOLD (%d)", m.DeleteThreshold, m.HideThreshold)
	}
	if m.SuspendThreshold < 1 {
		return fmt.Errorf("SUSPEND_THRESHOLD must be at least 1, got %d", m.SuspendThreshold)
	}
	if m.MaxNoteLength < 1 {
		return fmt.Errorf("MAX_NOTE_LENGTH must be at least 1, got %d", m.MaxNoteLength)
	}
	return nil
}

// ArchiveConfig points at the R2 bucket that keeps snapshots of retired posts.
type ArchiveConfig struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Prefix          string
	Region          string
}

// Enabled reports whether enough settings are present to talk to R2.
func (a ArchiveConfig) Enabled() bool {
	return a.BucketName != "" && a.AccountID != "" && a.AccessKeyID != "" && a.SecretAccessKey != ""
}

type Config struct {
	Port            string
	DatabaseURL     string
	DBHost          string
	DBPort          string
	DBUser          string
	DBPassword      string
	DBName          string
	JWTSecret       string
	LogLevel        string
	Debug           bool
	AllowedOrigins  []string
	Location        *time.Location
	StreakCacheTTL  time.Duration
	StreakCacheSize int
	CrisisMessage   string
	Moderation      ModerationConfig
	Archive         ArchiveConfig
}

// DSN returns DATABASE_URL when set, otherwise a DSN assembled from the DB_* parts.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// Load reads the configuration from the environment. A missing .env file is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	tz := getEnv("TIMEZONE", "America/New_York")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}

	moderation, err := loadModeration()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBUser:          getEnv("DB_USER", ""),
		DBPassword:      getEnv("DB_PASSWORD", ""),
		DBName:          getEnv("DB_NAME", "moodmap"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Debug:           getEnvAsBool("DEBUG", false),
		AllowedOrigins:  getEnvAsList("ALLOWED_ORIGINS", defaultOrigins),
		Location:        loc,
		StreakCacheTTL:  getEnvAsDuration("STREAK_CACHE_TTL", time.Minute),
		StreakCacheSize: getEnvAsInt("STREAK_CACHE_SIZE", 4096),
		CrisisMessage:   getEnv("CRISIS_MESSAGE", defaultCrisisMessage),
		Moderation:      moderation,
		Archive: ArchiveConfig{
			AccountID:       getEnv("CLOUDFLARE_ACCOUNT_ID", ""),
			AccessKeyID:     getEnv("CLOUDFLARE_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("CLOUDFLARE_SECRET_ACCESS_KEY", ""),
			BucketName:      getEnv("ARCHIVE_BUCKET", ""),
			Prefix:          getEnv("ARCHIVE_PREFIX", "retired-posts"),
			Region:          "auto",
		},
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if err := cfg.Moderation.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadModeration reads the thresholds. Unlike the other settings a value that
// is set but not a number is an error, not a silent fallback.
func loadModeration() (ModerationConfig, error) {
	m := DefaultModeration()
	fields := []struct {
		key string
		dst *int
	}{
		{"DAILY_LIMIT", &m.DailyLimit},
		{"HIDE_THRESHOLD", &m.HideThreshold},
		{"DELETE_THRESHOLD", &m.DeleteThreshold},
		{"SUSPEND_THRESHOLD", &m.SuspendThreshold},
		{"MAX_NOTE_LENGTH", &m.MaxNoteLength},
	}
	for _, f := range fields {
		v, err := getEnvAsIntStrict(f.key, *f.dst)
		if err != nil {
			return ModerationConfig{}, err
		}
		*f.dst = v
	}
	return m, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultVal int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultVal
}

func getEnvAsIntStrict(key string, defaultVal int) (int, error) {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be an integer", key, raw)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if val, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsList(key string, defaultVal []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
