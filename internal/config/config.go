package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all tunables for the match-hosting server.
type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Chain / settlement
	RPCURL            string
	ENSRPCURL         string
	ServerPrivateKey  string
	EscrowAddress     string
	SettlementAddress string
	SettlementEnabled bool
	AdminSecret       string

	// Stale / timeout tuning
	StaleMatchTimeoutMs       int
	QueueTicketTTLSeconds     int
	PendingMatchTTLSeconds    int
	WSTokenTTLSeconds         int
	DepositTimeoutSeconds     int
	DefaultMoveTimeoutMs      int
	HelloGraceSeconds         int
	SyncIntervalSeconds       int
	ActiveIndexTTLSeconds     int
	CompletedMatchEvictionMin int
	AuthSignatureWindowMin    int
	SettlementMaxAttempts     int
}

// Load reads configuration from the environment, loading a .env file
// first if one is present.
func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/dorkfun?sslmode=disable"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port:        getEnv("PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "https://dork.fun"),

		// Chain / settlement
		RPCURL:            getEnv("RPC_URL", ""),
		ENSRPCURL:         getEnv("ENS_RPC_URL", ""),
		ServerPrivateKey:  getEnv("SERVER_PRIVATE_KEY", ""),
		EscrowAddress:     getEnv("ESCROW_ADDRESS", ""),
		SettlementAddress: getEnv("SETTLEMENT_ADDRESS", ""),
		SettlementEnabled: getEnvBool("SETTLEMENT_ENABLED", false),
		AdminSecret:       getEnv("ADMIN_SECRET", "change-me-in-production"),

		// Stale / timeout tuning
		StaleMatchTimeoutMs:       getEnvInt("STALE_MATCH_TIMEOUT_MS", 5*60*1000),
		QueueTicketTTLSeconds:     getEnvInt("QUEUE_TICKET_TTL_SECONDS", 30),
		PendingMatchTTLSeconds:    getEnvInt("PENDING_MATCH_TTL_SECONDS", 120),
		WSTokenTTLSeconds:         getEnvInt("WS_TOKEN_TTL_SECONDS", 300),
		DepositTimeoutSeconds:     getEnvInt("DEPOSIT_TIMEOUT_SECONDS", 300),
		DefaultMoveTimeoutMs:      getEnvInt("DEFAULT_MOVE_TIMEOUT_MS", 10*60*1000),
		HelloGraceSeconds:         getEnvInt("HELLO_GRACE_SECONDS", 10),
		SyncIntervalSeconds:       getEnvInt("SYNC_INTERVAL_SECONDS", 8),
		ActiveIndexTTLSeconds:     getEnvInt("ACTIVE_INDEX_TTL_SECONDS", 60*60),
		CompletedMatchEvictionMin: getEnvInt("COMPLETED_MATCH_EVICTION_MIN", 30),
		AuthSignatureWindowMin:    getEnvInt("AUTH_SIGNATURE_WINDOW_MIN", 5),
		SettlementMaxAttempts:     getEnvInt("SETTLEMENT_MAX_ATTEMPTS", 5),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
