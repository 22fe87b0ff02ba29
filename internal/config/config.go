package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"merchant-onboarding/internal/datastore"
)

// Defaults for optional settings.
const (
	DefaultListenAddr       = ":8181"
	DefaultKafkaTopic       = "contract-events"
	DefaultAutosaveDebounce = 2 * time.Second
	DefaultSessionTTL       = 2 * time.Hour
)

// Settings is everything the binaries read from the environment.
type Settings struct {
	Store            datastore.Config
	RedisURL         string
	KafkaBrokers     string
	KafkaTopic       string
	GeminiAPIKey     string
	ListenAddr       string
	AutosaveDebounce time.Duration
	SessionTTL       time.Duration
	RunMigrations    bool
}

// Load reads Settings from the environment. Malformed values fall back to
// their defaults with a warning.
func Load() Settings {
	return Settings{
		Store:            GetDataStoreConfig(),
		RedisURL:         os.Getenv("REDIS_URL"),
		KafkaBrokers:     os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:       getString("KAFKA_TOPIC", DefaultKafkaTopic),
		GeminiAPIKey:     GetGeminiAPIKey(),
		ListenAddr:       getString("LISTEN_ADDR", DefaultListenAddr),
		AutosaveDebounce: getDuration("AUTOSAVE_DEBOUNCE", DefaultAutosaveDebounce),
		SessionTTL:       getDuration("SESSION_TTL", DefaultSessionTTL),
		RunMigrations:    getBool("RUN_MIGRATIONS", false),
	}
}

// GetDataStoreConfig returns the data store configuration based on environment variables
func GetDataStoreConfig() datastore.Config {
	storeType := os.Getenv("ONBOARDING_STORE_TYPE")
	if storeType == "" {
		storeType = "postgresql" // Default to PostgreSQL
	}

	config := datastore.Config{}

	switch strings.ToLower(storeType) {
	case "memory", "mock":
		config.Type = datastore.MemoryStore
		config.SeedDataPath = os.Getenv("ONBOARDING_SEED_DATA")
	case "postgresql", "postgres", "db":
		config.Type = datastore.PostgreSQLStore
		config.ConnectionString = GetConnectionString()
	default:
		log.Printf("⚠️ Unknown ONBOARDING_STORE_TYPE %q, using postgresql", storeType)
		config.Type = datastore.PostgreSQLStore
		config.ConnectionString = GetConnectionString()
	}

	return config
}

// GetConnectionString returns the database connection string
func GetConnectionString() string {
	connStr := os.Getenv("DB_CONN_STRING")
	if connStr == "" {
		// Default connection string for local development
		return "postgres://localhost:5432/postgres?sslmode=disable"
	}
	return connStr
}

// GetGeminiAPIKey prefers GEMINI_API_KEY over GOOGLE_API_KEY.
func GetGeminiAPIKey() string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("GOOGLE_API_KEY")
}

// IsMemoryMode returns true if running without a database
func IsMemoryMode() bool {
	return GetDataStoreConfig().Type == datastore.MemoryStore
}

func getString(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}

func getDuration(name string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("⚠️ Invalid %s=%q, using %s", name, raw, def)
		return def
	}
	return d
}

func getBool(name string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("⚠️ Invalid %s=%q, using %t", name, raw, def)
		return def
	}
	return b
}
