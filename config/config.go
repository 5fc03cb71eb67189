package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreBackendRedis  = "redis"
	StoreBackendMemory = "memory"
)

type Config struct {
	Env    string
	Server ServerConfig
	Redis  RedisConfig
	Store  StoreConfig
	Queue  QueueConfig
	Lock   LockConfig
	JWT    JWTConfig
	Log    LogConfig
	Kafka  KafkaConfig
}

type ServerConfig struct {
	GRpcPort     int
	HTTPPort     int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	MaxRetries   int
	PoolSize     int
	MinIdleConns int
}

type StoreConfig struct {
	Backend   string
	KeyPrefix string
}

type QueueConfig struct {
	MaxActiveTokens int
	TokenTTL        time.Duration
	RecordRetention time.Duration
	PromoteInterval time.Duration
	CleanupInterval time.Duration
	ShutdownTimeout time.Duration
}

type LockConfig struct {
	HoldTimeout   time.Duration
	WaitTimeout   time.Duration
	RetryInterval time.Duration
}

type KafkaConfig struct {
	Brokers              []string
	ProducerRetryMax     int
	ProducerRequiredAcks int
	Enabled              bool
	ConsumerGroupID      string
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type LogConfig struct {
	Level    string
	Mode     string
	Encoding string
}

func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	cfg := &Config{
		Env: getEnv("ENV", "development"),
		Server: ServerConfig{
			GRpcPort:     getEnvAsInt("SERVER_GRPC_PORT", 50057),
			HTTPPort:     getEnvAsInt("SERVER_HTTP_PORT", 8080),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Redis: RedisConfig{
			Addr:         getEnv("REDIS_ADDR", "localhost:6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			MaxRetries:   getEnvAsInt("REDIS_MAX_RETRIES", 3),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 5),
		},
		Store: StoreConfig{
			Backend:   getEnv("STORE_BACKEND", StoreBackendRedis),
			KeyPrefix: getEnv("STORE_KEY_PREFIX", "concert"),
		},
		Queue: QueueConfig{
			MaxActiveTokens: getEnvAsInt("QUEUE_MAX_ACTIVE_TOKENS", 100),
			TokenTTL:        getEnvAsDuration("QUEUE_TOKEN_TTL", 10*time.Minute),
			RecordRetention: getEnvAsDuration("QUEUE_RECORD_RETENTION", 24*time.Hour),
			PromoteInterval: getEnvAsDuration("QUEUE_PROMOTE_INTERVAL", 5*time.Second),
			CleanupInterval: getEnvAsDuration("QUEUE_CLEANUP_INTERVAL", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("QUEUE_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Lock: LockConfig{
			HoldTimeout:   getEnvAsDuration("LOCK_HOLD_TIMEOUT", 3*time.Second),
			WaitTimeout:   getEnvAsDuration("LOCK_WAIT_TIMEOUT", 5*time.Second),
			RetryInterval: getEnvAsDuration("LOCK_RETRY_INTERVAL", 50*time.Millisecond),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "jwt-secret"),
			Issuer: getEnv("JWT_ISSUER", "ticketbottle-concert"),
		},
		Log: LogConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Mode:     getEnv("LOG_MODE", "development"),
			Encoding: getEnv("LOG_ENCODING", "console"),
		},
		Kafka: KafkaConfig{
			Brokers:              getEnvAsSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			ProducerRetryMax:     getEnvAsInt("KAFKA_PRODUCER_RETRY_MAX", 3),
			ProducerRequiredAcks: getEnvAsInt("KAFKA_PRODUCER_REQUIRED_ACKS", 1),
			Enabled:              getEnvAsBool("KAFKA_ENABLED", false),
			ConsumerGroupID:      getEnv("KAFKA_CONSUMER_GROUP_ID", "concert-service"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.GRpcPort <= 0 || c.Server.GRpcPort > 65535 {
		return fmt.Errorf("invalid grpc port: %d", c.Server.GRpcPort)
	}

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid http port: %d", c.Server.HTTPPort)
	}

	switch c.Store.Backend {
	case StoreBackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis address is required")
		}
	case StoreBackendMemory:
	default:
		return fmt.Errorf("unknown store backend: %q", c.Store.Backend)
	}

	if c.Queue.MaxActiveTokens <= 0 {
		return fmt.Errorf("max active tokens must be positive: %d", c.Queue.MaxActiveTokens)
	}

	if c.Queue.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive: %s", c.Queue.TokenTTL)
	}

	if c.Queue.PromoteInterval <= 0 || c.Queue.CleanupInterval <= 0 {
		return fmt.Errorf("sweep intervals must be positive")
	}

	if c.Lock.HoldTimeout <= 0 || c.Lock.WaitTimeout < 0 {
		return fmt.Errorf("invalid lock timeouts: hold=%s wait=%s", c.Lock.HoldTimeout, c.Lock.WaitTimeout)
	}

	if c.JWT.Secret == "" || c.JWT.Secret == "jwt-secret" {
		if c.Env == "production" {
			return fmt.Errorf("JWT secret must be set in production")
		}
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers are required when kafka is enabled")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	// Split by comma
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
