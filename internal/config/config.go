package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Verification VerificationConfig
	Payment      PaymentConfig
	Email        EmailConfig
	RabbitMQ     RabbitMQConfig
	Jobs         JobsConfig
	RateLimit    RateLimitConfig
	Log          LogConfig
}

type ServerConfig struct {
	Port         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  string
}

func (c ServerConfig) IsProduction() bool { return c.Environment == "production" }

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	CacheTTL time.Duration
}

type JWTConfig struct {
	PrivateKeyPath      string
	PublicKeyPath       string
	AccessTokenExpiry   time.Duration
	RefreshTokenExpiry  time.Duration
	CheckoutTokenExpiry time.Duration
	Issuer              string
}

// VerificationConfig drives the email verification and password reset
// flows: code lifetime, attempt throttling and resend cooldowns.
type VerificationConfig struct {
	TOTPStep           time.Duration
	MaxCodeAttempts    int
	ThrottleDelays     []time.Duration
	MaxResendAttempts  int
	InitialCooldown    time.Duration
	SubsequentCooldown time.Duration
	ResendResetWindow  time.Duration
	ResetBlockDuration time.Duration
}

// ThrottleFor is the wait required after the given number of failed attempts
func (c VerificationConfig) ThrottleFor(attempts int) time.Duration {
	if len(c.ThrottleDelays) == 0 || attempts <= 0 {
		return 0
	}
	return c.ThrottleDelays[min(attempts, len(c.ThrottleDelays)-1)]
}

// CooldownFor is the wait before the next resend after resendCount resends
func (c VerificationConfig) CooldownFor(resendCount int) time.Duration {
	if resendCount < 2 {
		return c.InitialCooldown
	}
	return c.SubsequentCooldown
}

func DefaultVerification() VerificationConfig {
	return VerificationConfig{
		TOTPStep:           5 * time.Minute,
		MaxCodeAttempts:    5,
		ThrottleDelays:     []time.Duration{0, 2 * time.Second, 5 * time.Second, 10 * time.Second, 30 * time.Second},
		MaxResendAttempts:  5,
		InitialCooldown:    60 * time.Second,
		SubsequentCooldown: 120 * time.Second,
		ResendResetWindow:  24 * time.Hour,
		ResetBlockDuration: 30 * time.Minute,
	}
}

type PaymentConfig struct {
	PagarmeAPIKey       string
	PagarmeBaseURL      string
	PagarmeTimeout      time.Duration
	StatementDescriptor string
	PendingTTL          time.Duration
	WebhookSecret       string
}

type EmailConfig struct {
	Enabled     bool
	APIKey      string
	FromName    string
	FromEmail   string
	FrontendURL string
}

type RabbitMQConfig struct {
	URL      string
	Exchange string
}

type JobsConfig struct {
	Enabled               bool
	ExpirePendingPayments string
	ExpireSubscriptions   string
	ExpireContracts       string
}

type RateLimitConfig struct {
	AuthWindow   time.Duration
	AuthMax      int
	PublicWindow time.Duration
	PublicMax    int
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	// .env is optional in production
	_ = godotenv.Load()

	defaults := DefaultVerification()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "3000"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 35*time.Second),
			CORSOrigins:  getEnv("CORS_ORIGINS", "http://localhost:5173"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "crm"),
			Password:        getEnv("DB_PASSWORD", "crm"),
			DBName:          getEnv("DB_NAME", "crm_imobiliario"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
			CacheTTL: getDurationEnv("REDIS_CACHE_TTL", 5*time.Minute),
		},
		JWT: JWTConfig{
			PrivateKeyPath:      getEnv("JWT_PRIVATE_KEY_PATH", "./keys/private.pem"),
			PublicKeyPath:       getEnv("JWT_PUBLIC_KEY_PATH", "./keys/public.pem"),
			AccessTokenExpiry:   getDurationEnv("JWT_ACCESS_EXPIRY", 15*time.Minute),
			RefreshTokenExpiry:  getDurationEnv("JWT_REFRESH_EXPIRY", 7*24*time.Hour),
			CheckoutTokenExpiry: getDurationEnv("JWT_CHECKOUT_EXPIRY", time.Hour),
			Issuer:              getEnv("JWT_ISSUER", "crm-imobiliario"),
		},
		Verification: VerificationConfig{
			TOTPStep:           getDurationEnv("TOTP_STEP", defaults.TOTPStep),
			MaxCodeAttempts:    getIntEnv("VERIFICATION_MAX_CODE_ATTEMPTS", defaults.MaxCodeAttempts),
			ThrottleDelays:     getDurationListEnv("VERIFICATION_THROTTLE_DELAYS", defaults.ThrottleDelays),
			MaxResendAttempts:  getIntEnv("VERIFICATION_MAX_RESEND_ATTEMPTS", defaults.MaxResendAttempts),
			InitialCooldown:    getDurationEnv("VERIFICATION_INITIAL_COOLDOWN", defaults.InitialCooldown),
			SubsequentCooldown: getDurationEnv("VERIFICATION_SUBSEQUENT_COOLDOWN", defaults.SubsequentCooldown),
			ResendResetWindow:  getDurationEnv("VERIFICATION_RESEND_RESET_WINDOW", defaults.ResendResetWindow),
			ResetBlockDuration: getDurationEnv("PASSWORD_RESET_BLOCK_DURATION", defaults.ResetBlockDuration),
		},
		Payment: PaymentConfig{
			PagarmeAPIKey:       getEnv("PAGARME_API_KEY", ""),
			PagarmeBaseURL:      getEnv("PAGARME_BASE_URL", "https://api.pagar.me/core/v5"),
			PagarmeTimeout:      getDurationEnv("PAGARME_TIMEOUT", 30*time.Second),
			StatementDescriptor: getEnv("PAGARME_STATEMENT_DESCRIPTOR", "CRM IMOBIL"),
			PendingTTL:          getDurationEnv("PENDING_PAYMENT_TTL", 30*time.Minute),
			WebhookSecret:       getEnv("PAGARME_WEBHOOK_SECRET", ""),
		},
		Email: EmailConfig{
			Enabled:     getBoolEnv("EMAIL_ENABLED", false),
			APIKey:      getEnv("RESEND_API_KEY", ""),
			FromName:    getEnv("EMAIL_FROM_NAME", "CRM Imobiliário"),
			FromEmail:   getEnv("EMAIL_FROM", "no-reply@crmimobiliario.com.br"),
			FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      getEnv("RABBITMQ_URL", ""),
			Exchange: getEnv("RABBITMQ_EXCHANGE", "crm_events"),
		},
		Jobs: JobsConfig{
			Enabled:               getBoolEnv("JOBS_ENABLED", true),
			ExpirePendingPayments: getEnv("JOB_EXPIRE_PENDING_PAYMENTS", "@every 15m"),
			ExpireSubscriptions:   getEnv("JOB_EXPIRE_SUBSCRIPTIONS", "0 3 * * *"),
			ExpireContracts:       getEnv("JOB_EXPIRE_CONTRACTS", "30 3 * * *"),
		},
		RateLimit: RateLimitConfig{
			AuthWindow:   getDurationEnv("RATE_LIMIT_AUTH_WINDOW", time.Minute),
			AuthMax:      getIntEnv("RATE_LIMIT_AUTH_MAX", 10),
			PublicWindow: getDurationEnv("RATE_LIMIT_PUBLIC_WINDOW", time.Minute),
			PublicMax:    getIntEnv("RATE_LIMIT_PUBLIC_MAX", 60),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.Verification.MaxCodeAttempts <= 0 {
		errs = append(errs, errors.New("VERIFICATION_MAX_CODE_ATTEMPTS must be positive"))
	}
	if len(c.Verification.ThrottleDelays) == 0 {
		errs = append(errs, errors.New("VERIFICATION_THROTTLE_DELAYS must not be empty"))
	}
	if c.Server.IsProduction() {
		if c.Payment.PagarmeAPIKey == "" {
			errs = append(errs, errors.New("PAGARME_API_KEY is required in production"))
		}
		if c.Payment.WebhookSecret == "" {
			errs = append(errs, errors.New("PAGARME_WEBHOOK_SECRET is required in production"))
		}
	}
	return errors.Join(errs...)
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getDurationListEnv parses a comma separated list such as "0s,2s,5s".
// Any malformed entry falls back to the whole default.
func getDurationListEnv(key string, defaultValue []time.Duration) []time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]time.Duration, 0, len(parts))
	for _, p := range parts {
		d, err := time.ParseDuration(strings.TrimSpace(p))
		if err != nil {
			return defaultValue
		}
		out = append(out, d)
	}
	return out
}
