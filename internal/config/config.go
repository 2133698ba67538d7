package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type DatabaseConfig struct {
	User         string
	Password     string
	Host         string
	Port         string
	Name         string
	MaxIdleConns int
	MaxOpenConns int
	ConnLifetime time.Duration
}

// DSN returns the go-sql-driver/mysql connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type GatewayConfig struct {
	BaseURL             string
	APIKey              string
	WebhookSecret       string
	WebhookVerification string
	Timeout             time.Duration
	ChargeExpiry        time.Duration
}

type FeeConfig struct {
	ProPercent      int64
	FreemiumPercent int64
}

type UpgradeConfig struct {
	Price    int64
	Duration time.Duration
}

type ReconcileConfig struct {
	Enabled        bool
	Cron           string
	BatchSize      int
	Lookback       time.Duration
	StatusCacheTTL time.Duration
}

type Config struct {
	Env               string
	Port              string
	GRPCPort          string
	LogLevel          string
	RedisAddr         string
	JWTSecret         string
	RateLimitRPS      float64
	RateLimitBurst    int
	WorkerConcurrency int

	Database  DatabaseConfig
	Gateway   GatewayConfig
	Fees      FeeConfig
	Upgrade   UpgradeConfig
	Reconcile ReconcileConfig
}

// Load reads .env (current directory first, then the parent) and builds the
// configuration from the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../.env"); err != nil {
			logrus.Debug("no .env file found, using system environment variables")
		}
	}
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Env:               GetEnv("APP_ENV", "development"),
		Port:              GetEnv("PORT", "8080"),
		GRPCPort:          GetEnv("GRPC_PORT", "50051"),
		LogLevel:          GetEnv("LOG_LEVEL", "info"),
		RedisAddr:         GetEnv("REDIS_URL", "localhost:6379"),
		JWTSecret:         GetEnv("JWT_SECRET", ""),
		RateLimitRPS:      getFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:    getInt("RATE_LIMIT_BURST", 20),
		WorkerConcurrency: getInt("WORKER_CONCURRENCY", 10),
		Database: DatabaseConfig{
			User:         GetEnv("DB_USER", "root"),
			Password:     GetEnv("DB_PASSWORD", ""),
			Host:         GetEnv("DB_HOST", "127.0.0.1"),
			Port:         GetEnv("DB_PORT", "3306"),
			Name:         GetEnv("DB_NAME", "creator_payments"),
			MaxIdleConns: getInt("DB_MAX_IDLE_CONNS", 5),
			MaxOpenConns: getInt("DB_MAX_OPEN_CONNS", 10),
			ConnLifetime: getDuration("DB_CONN_LIFETIME", time.Minute),
		},
		Gateway: GatewayConfig{
			BaseURL:             strings.TrimRight(GetEnv("ABACATEPAY_BASE_URL", "https://api.abacatepay.com/v1"), "/"),
			APIKey:              GetEnv("ABACATEPAY_API_KEY", ""),
			WebhookSecret:       GetEnv("ABACATEPAY_WEBHOOK_SECRET", ""),
			WebhookVerification: strings.ToLower(GetEnv("WEBHOOK_VERIFICATION", "shared_secret")),
			Timeout:             getDuration("GATEWAY_TIMEOUT", 15*time.Second),
			ChargeExpiry:        getDuration("CHARGE_EXPIRY", 24*time.Hour),
		},
		Fees: FeeConfig{
			ProPercent:      int64(getInt("FEE_PERCENT_PRO", 6)),
			FreemiumPercent: int64(getInt("FEE_PERCENT_FREEMIUM", 12)),
		},
		Upgrade: UpgradeConfig{
			Price:    int64(getInt("PRO_PRICE", 4790)),
			Duration: getDuration("PRO_DURATION", 30*24*time.Hour),
		},
		Reconcile: ReconcileConfig{
			Enabled:        getBool("RECONCILE_ENABLED", true),
			Cron:           GetEnv("RECONCILE_CRON", "*/5 * * * *"),
			BatchSize:      getInt("RECONCILE_BATCH_SIZE", 100),
			Lookback:       getDuration("RECONCILE_LOOKBACK", 24*time.Hour),
			StatusCacheTTL: getDuration("STATUS_CACHE_TTL", 0),
		},
	}
	return cfg, cfg.Validate()
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "dev" || c.Env == "test"
}

// Validate rejects configurations that cannot run outside development.
func (c *Config) Validate() error {
	switch c.Gateway.WebhookVerification {
	case "shared_secret", "hmac_sha256":
	default:
		return fmt.Errorf("unsupported WEBHOOK_VERIFICATION %q", c.Gateway.WebhookVerification)
	}
	if c.Fees.ProPercent < 0 || c.Fees.ProPercent > 100 || c.Fees.FreemiumPercent < 0 || c.Fees.FreemiumPercent > 100 {
		return fmt.Errorf("fee percentages must be within 0..100")
	}
	if c.Gateway.Timeout <= 0 {
		return fmt.Errorf("GATEWAY_TIMEOUT must be positive")
	}
	if c.IsDevelopment() {
		return nil
	}

	var missing []string
	if c.Gateway.APIKey == "" {
		missing = append(missing, "ABACATEPAY_API_KEY")
	}
	if c.Gateway.WebhookSecret == "" {
		missing = append(missing, "ABACATEPAY_WEBHOOK_SECRET")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// GetEnv returns the value of key or def when it is unset or empty.
func GetEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getInt(key string, def int) int {
	v, err := strconv.Atoi(GetEnv(key, ""))
	if err != nil {
		return def
	}
	return v
}

func getFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(GetEnv(key, ""), 64)
	if err != nil {
		return def
	}
	return v
}

func getBool(key string, def bool) bool {
	v, err := strconv.ParseBool(GetEnv(key, ""))
	if err != nil {
		return def
	}
	return v
}

func getDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(GetEnv(key, ""))
	if err != nil {
		return def
	}
	return v
}
