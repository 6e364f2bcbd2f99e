// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Store backends
const (
	StoreBolt     = "bolt"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreMemory   = "memory"
)

type Config struct {
	GRPCAddr string
	HTTPAddr string
	LogLevel string

	Ledger   LedgerConfig
	Store    StoreConfig
	DB       DBConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Sync     SyncConfig
	Security SecurityConfig
}

type LedgerConfig struct {
	BridgeURL      string
	APIKey         string
	RequestTimeout time.Duration
}

type StoreConfig struct {
	Backend  string // "bolt", "postgres", "redis", "memory"
	BoltPath string
}

type DBConfig struct {
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	Namespace string
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

type SyncConfig struct {
	Enabled  bool
	Interval time.Duration
}

type SecurityConfig struct {
	VaultProvider string // "env", "file"
	FileVaultDir  string
	FileVaultKey  string
}

func Load(logger *zap.Logger) (*Config, error) {
	cfg := &Config{
		GRPCAddr: getEnv("GRPC_ADDR", ":8030"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8031"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// ============================================================================
		// Ledger bridge
		// ============================================================================
		Ledger: LedgerConfig{
			BridgeURL:      getEnv("LEDGER_BRIDGE_URL", "http://localhost:8040/rpc"),
			APIKey:         os.Getenv("LEDGER_API_KEY"),
			RequestTimeout: getEnvAsDuration("LEDGER_REQUEST_TIMEOUT", 20*time.Second),
		},

		// ============================================================================
		// Storage
		// ============================================================================
		Store: StoreConfig{
			Backend:  strings.ToLower(getEnv("STORE_BACKEND", StoreBolt)),
			BoltPath: getEnv("BOLT_PATH", "./data/wallets.db"),
		},
		DB: DBConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "wallet_sync"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        os.Getenv("DB_PASSWORD"),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 20),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "localhost:6379"),
			Password:  os.Getenv("REDIS_PASS"),
			DB:        getEnvAsInt("REDIS_DB", 0),
			Namespace: getEnv("REDIS_NAMESPACE", "wallet:v1"),
		},

		// ============================================================================
		// Events and background sync
		// ============================================================================
		Kafka: KafkaConfig{
			Enabled: getEnvAsBool("KAFKA_ENABLED", false),
			Brokers: parseCSVEnv("KAFKA_BROKERS", "localhost:9092"),
			Topic:   getEnv("KAFKA_TOPIC", "wallet-events"),
		},
		Sync: SyncConfig{
			Enabled:  getEnvAsBool("SYNC_ENABLED", true),
			Interval: getEnvAsDuration("SYNC_INTERVAL", time.Minute),
		},

		// ============================================================================
		// Security
		// ============================================================================
		Security: SecurityConfig{
			VaultProvider: strings.ToLower(getEnv("VAULT_PROVIDER", "env")),
			FileVaultDir:  getEnv("FILE_VAULT_DIR", "./vault"),
			FileVaultKey:  os.Getenv("FILE_VAULT_KEY"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger.Info("Configuration loaded",
		zap.String("grpc_addr", cfg.GRPCAddr),
		zap.String("http_addr", cfg.HTTPAddr),
		zap.String("store", cfg.Store.Backend),
		zap.String("ledger_bridge", cfg.Ledger.BridgeURL),
		zap.Bool("kafka", cfg.Kafka.Enabled),
		zap.Bool("sync", cfg.Sync.Enabled),
		zap.String("vault", cfg.Security.VaultProvider),
	)

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case StoreBolt, StorePostgres, StoreRedis, StoreMemory:
	default:
		return fmt.Errorf("unsupported STORE_BACKEND %q", c.Store.Backend)
	}

	switch c.Security.VaultProvider {
	case "env":
	case "file":
		if c.Security.FileVaultKey == "" {
			return fmt.Errorf("FILE_VAULT_KEY is required when VAULT_PROVIDER=file")
		}
	default:
		return fmt.Errorf("unsupported VAULT_PROVIDER %q", c.Security.VaultProvider)
	}

	if c.Ledger.BridgeURL == "" {
		return fmt.Errorf("LEDGER_BRIDGE_URL is required")
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return fmt.Errorf("KAFKA_BROKERS and KAFKA_TOPIC are required when KAFKA_ENABLED=true")
	}
	return nil
}

// ============================================================================
// Helper Functions
// ============================================================================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func parseCSVEnv(key, fallback string) []string {
	val := getEnv(key, fallback)
	parts := strings.Split(val, ",")
	out := parts[:0]
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
