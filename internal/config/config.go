package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	SMTP      SMTPConfig
	Gateway   GatewayConfig
	Billing   BillingConfig
	Wallet    WalletConfig
	Scheduler SchedulerConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	JwtSecret          string
	NatsURL            string
	RedisURL           string
	OtelEnabled        bool
	OtelEndpoint       string
}

type DatabaseConfig struct {
	Driver     string // "postgres" or "sqlite"
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type GatewayConfig struct {
	Provider           string // "midtrans", "stripe" or "fake"
	MidtransServerKey  string
	MidtransIrisKey    string
	MidtransProduction bool
	StripeSecretKey    string
	StripeCurrency     string
}

type BillingConfig struct {
	SweepWindow     time.Duration
	SweepWorkers    int
	PlatformFeeRate decimal.Decimal
}

type WalletConfig struct {
	MinimumWithdrawal decimal.Decimal
	CardHoldingWindow time.Duration
	BalanceCacheTTL   time.Duration
}

type SchedulerConfig struct {
	RenewalSweepSchedule     string
	FinalizeCancelSchedule   string
	ReleaseCreditsSchedule   string
	ReconcileRefundsSchedule string
	LeaseTTL                 time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
			OtelEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
		Database: DatabaseConfig{
			Driver:     strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "SubShare"),
		},
		Gateway: GatewayConfig{
			Provider:           strings.ToLower(getEnv("GATEWAY_PROVIDER", "fake")),
			MidtransServerKey:  getEnv("MIDTRANS_SERVER_KEY", ""),
			MidtransIrisKey:    getEnv("MIDTRANS_IRIS_KEY", ""),
			MidtransProduction: getEnvAsBool("MIDTRANS_IS_PRODUCTION", false),
			StripeSecretKey:    getEnv("STRIPE_SECRET_KEY", ""),
			StripeCurrency:     strings.ToLower(getEnv("STRIPE_CURRENCY", "brl")),
		},
		Billing: BillingConfig{
			SweepWindow:     getEnvAsDuration("BILLING_SWEEP_WINDOW", 5*24*time.Hour),
			SweepWorkers:    getEnvAsInt("BILLING_SWEEP_WORKERS", 8),
			PlatformFeeRate: getEnvAsDecimal("BILLING_PLATFORM_FEE_RATE", decimal.RequireFromString("0.05")),
		},
		Wallet: WalletConfig{
			MinimumWithdrawal: getEnvAsDecimal("WALLET_MINIMUM_WITHDRAWAL", decimal.RequireFromString("10.00")),
			CardHoldingWindow: getEnvAsDuration("WALLET_CARD_HOLDING_WINDOW", 14*24*time.Hour),
			BalanceCacheTTL:   getEnvAsDuration("WALLET_BALANCE_CACHE_TTL", 30*time.Second),
		},
		Scheduler: SchedulerConfig{
			RenewalSweepSchedule:     getEnv("SCHEDULER_RENEWAL_SWEEP", "0 */6 * * *"),
			FinalizeCancelSchedule:   getEnv("SCHEDULER_FINALIZE_CANCELLATIONS", "*/30 * * * *"),
			ReleaseCreditsSchedule:   getEnv("SCHEDULER_RELEASE_CREDITS", "15 * * * *"),
			ReconcileRefundsSchedule: getEnv("SCHEDULER_RECONCILE_REFUNDS", "*/10 * * * *"),
			LeaseTTL:                 getEnvAsDuration("SCHEDULER_LEASE_TTL", 10*time.Minute),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	strValue := getEnv(key, "")
	if value, err := decimal.NewFromString(strValue); err == nil {
		return value
	}
	return fallback
}
