package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store drivers accepted in STORE_DRIVER.
const (
	StoreMongo  = "mongo"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config holds the application's configuration values.
type Config struct {
	HostIP           string   // Host IP for the server
	RESTPort         int      // Port for the REST API and the game hub
	GinMode          string   // Mode for the Gin framework (e.g., release, debug, test)
	JWTSecret        string   // Secret key for JWT signing
	JWTIssuer        string   // Issuer claim for JWTs
	StoreDriver      string   // One of mongo, sqlite or memory
	DBHost           string   // Hostname or IP address for the database
	DBPort           int      // Port number for the database
	DBUser           string   // Username for the database
	DBPassword       string   // Password for the database
	DBName           string   // Name of the database
	SQLitePath       string   // Database file used by the sqlite driver
	RedisAddr        string   // Redis address; enables locking shared across instances
	RedisPassword    string   // Password for redis
	LockTTLSeconds   int      // Expiry of a redis game lock
	RequestSeconds   int      // Upper bound on a single REST game operation
	DeadlockSeconds  int      // Lock hold time after which go-deadlock reports
	BoardSize        int      // Number of tiles on generated boards
	CatalogPath      string   // Optional YAML file with professors and bullies
	WSAllowedOrigins []string // Origins accepted on the websocket endpoint
}

// Envs holds the application's configuration loaded from environment variables.
var Envs = initConfig()

// initConfig initializes and returns the application configuration.
// It loads environment variables from a .env file.
func initConfig() Config {
	// Load .env file if available
	if err := godotenv.Load(); err != nil {
		log.Printf("[APP] [INFO] .env file not found or could not be loaded: %v", err)
	}

	c := Config{
		HostIP:           mustGetEnv("HOST_IP"),
		RESTPort:         mustGetEnvAsInt("REST_PORT"),
		GinMode:          getEnvWithDefault("GIN_MODE", "release"),
		JWTSecret:        mustGetEnv("JWT_SECRET"),
		JWTIssuer:        mustGetEnv("JWT_ISSUER"),
		StoreDriver:      getEnvWithDefault("STORE_DRIVER", StoreMongo),
		SQLitePath:       getEnvWithDefault("SQLITE_PATH", "snakes.db"),
		RedisAddr:        getEnvWithDefault("REDIS_ADDR", ""),
		RedisPassword:    getEnvWithDefault("REDIS_PASSWORD", ""),
		LockTTLSeconds:   getEnvAsIntWithDefault("LOCK_TTL_SECONDS", 8),
		RequestSeconds:   getEnvAsIntWithDefault("REQUEST_TIMEOUT_SECONDS", 10),
		DeadlockSeconds:  getEnvAsIntWithDefault("DEADLOCK_TIMEOUT_SECONDS", 30),
		BoardSize:        getEnvAsIntWithDefault("BOARD_SIZE", 100),
		CatalogPath:      getEnvWithDefault("CATALOG_PATH", ""),
		WSAllowedOrigins: splitList(getEnvWithDefault("WS_ALLOWED_ORIGINS", "")),
	}

	switch c.StoreDriver {
	case StoreMongo:
		c.DBHost = mustGetEnv("DB_HOST")
		c.DBPort = mustGetEnvAsInt("DB_PORT")
		c.DBUser = mustGetEnv("DB_USER")
		c.DBPassword = mustGetEnv("DB_PASS")
		c.DBName = mustGetEnv("DB_NAME")
	case StoreSQLite, StoreMemory:
	default:
		log.Fatalf("[APP] [FATAL] Environment variable STORE_DRIVER must be one of mongo, sqlite, memory; got %q", c.StoreDriver)
	}

	return c
}

// mustGetEnv retrieves the value of an environment variable or logs a fatal error if not set.
func mustGetEnv(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		log.Fatalf("[APP] [FATAL] Environment variable %s is not set", key)
	}
	return value
}

// mustGetEnvAsInt retrieves the value of an environment variable as an integer or logs a fatal error if not set or cannot be parsed.
func mustGetEnvAsInt(key string) int {
	return atoi(key, mustGetEnv(key))
}

// getEnvWithDefault retrieves the value of an environment variable or returns a default value if not set.
func getEnvWithDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsIntWithDefault(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	return atoi(key, value)
}

func atoi(key, valueStr string) int {
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Fatalf("[APP] [FATAL] Environment variable %s must be an integer: %v", key, err)
	}
	return value
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
