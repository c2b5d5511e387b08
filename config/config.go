package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port   string
	JWTKey string

	// PostgreSQL ledger connection
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	// Search index (Elasticsearch-compatible REST endpoint)
	IndexBaseURL string

	// External capacity system
	CapacityBaseURL string
	CapacityApiKey  string

	// Write batching
	EnrollBatchSize int // ledger batch-insert size for Enroll
	SyncChunkSize   int // bulk-index chunk size during resync
	SyncPageSize    int // ledger scan page size during resync

	// Nightly resync job
	ResyncCron    string
	ResyncEnabled bool

	// Failure alerting
	SendgridApiKey string
	AlertSender    string
	AlertRecipient string
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = &Config{
		Port:   getEnv("PORT", "3000"),
		JWTKey: getEnv("JWT_SECRET_KEY", "defaultSecret"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "lms_ledger"),
		DBPort:     getEnv("DB_PORT", "5432"),

		IndexBaseURL: getEnv("INDEX_BASE_URL", "http://localhost:9200"),

		CapacityBaseURL: getEnv("CAPACITY_BASE_URL", "http://localhost:8090"),
		CapacityApiKey:  getEnv("CAPACITY_API_KEY", ""),

		EnrollBatchSize: getEnvInt("ENROLL_BATCH_SIZE", 10),
		SyncChunkSize:   getEnvInt("SYNC_CHUNK_SIZE", 100),
		SyncPageSize:    getEnvInt("SYNC_PAGE_SIZE", 100),

		ResyncCron:    getEnv("RESYNC_CRON", "30 2 * * *"),
		ResyncEnabled: getEnvBool("RESYNC_ENABLED", true),

		SendgridApiKey: getEnv("SENDGRID_API_KEY", ""),
		AlertSender:    getEnv("ALERT_SENDER", "alerts@lms.local"),
		AlertRecipient: getEnv("ALERT_RECIPIENT", ""),
	}

	// Validate critical configuration
	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.SendgridApiKey == "" {
		log.Println("Warning: SENDGRID_API_KEY not set. Resync failure alerts are disabled.")
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}

// getEnvBool retrieves an environment variable as a boolean or returns the default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to bool: %v", key, err)
		return defaultValue
	}
	return boolValue
}
