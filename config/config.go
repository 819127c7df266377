package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	LogLevel    string
	Name        string
	Version     string
	FrontendURL string
	HTTP        HTTPConfig
	Postgres    PostgresConfig
	JWT         JWTConfig
	S3          S3Config
	Redis       RedisConfig
	Email       EmailConfig
	Analytics   AnalyticsConfig
	MercadoPago MercadoPagoConfig
	Scheduling  SchedulingConfig
	Reminder    ReminderConfig
	Metrics     MetricsConfig
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxHeaderMB  int
}

type PostgresConfig struct {
	Host               string
	Port               string
	Username           string
	Password           string
	DBName             string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
	MaxLifetime        time.Duration
}

type JWTConfig struct {
	SigningKey       string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	PasswordResetTTL time.Duration
}

type S3Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	PresignExpiry   time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// EmailConfig: с TestMode письма только пишутся в лог.
type EmailConfig struct {
	ResendAPIKey string
	From         string
	FromName     string
	TestMode     bool
}

type AnalyticsConfig struct {
	Enabled            bool
	Region             string
	AccessKeyID        string
	SecretAccessKey    string
	Endpoint           string
	CompletedTable     string
	LoyaltyPointsTable string
}

type MercadoPagoConfig struct {
	AccessToken string
	Currency    string
}

type SchedulingConfig struct {
	Timezone         string
	MaxExpansionDays int
}

type ReminderConfig struct {
	Enabled  bool
	Interval time.Duration
}

type MetricsConfig struct {
	Enabled     bool
	Path        string
	ServiceName string
}

func NewConfig() (*Config, error) {
	// .env необязателен, переменные окружения имеют приоритет
	_ = godotenv.Load()

	httpReadTimeout, err := time.ParseDuration(getEnv("HTTP_READ_TIMEOUT", "10s"))
	if err != nil {
		return nil, err
	}

	httpWriteTimeout, err := time.ParseDuration(getEnv("HTTP_WRITE_TIMEOUT", "10s"))
	if err != nil {
		return nil, err
	}

	postgresMaxLifetime, err := time.ParseDuration(getEnv("POSTGRES_MAX_LIFETIME", "5m"))
	if err != nil {
		return nil, err
	}

	jwtAccessTokenTTL, err := time.ParseDuration(getEnv("JWT_ACCESS_TOKEN_TTL", "15m"))
	if err != nil {
		return nil, err
	}

	jwtRefreshTokenTTL, err := time.ParseDuration(getEnv("JWT_REFRESH_TOKEN_TTL", "24h"))
	if err != nil {
		return nil, err
	}

	passwordResetTTL, err := time.ParseDuration(getEnv("PASSWORD_RESET_TTL", "30m"))
	if err != nil {
		return nil, err
	}

	presignExpiry, err := time.ParseDuration(getEnv("S3_PRESIGN_EXPIRY", "1h"))
	if err != nil {
		return nil, err
	}

	reminderInterval, err := time.ParseDuration(getEnv("REMINDER_INTERVAL", "5m"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Name:        getEnv("APP_NAME", "agendavip"),
		Version:     getEnv("APP_VERSION", "1.0.0"),
		FrontendURL: getEnv("FRONTEND_LOGIN_URL", "http://localhost:3000/login"),
		HTTP: HTTPConfig{
			Port:         getEnv("HTTP_PORT", "8080"),
			ReadTimeout:  httpReadTimeout,
			WriteTimeout: httpWriteTimeout,
			MaxHeaderMB:  getEnvAsInt("HTTP_MAX_HEADER_MB", 1),
		},
		Postgres: PostgresConfig{
			Host:               getEnv("POSTGRES_HOST", "localhost"),
			Port:               getEnv("POSTGRES_PORT", "5432"),
			Username:           getEnv("POSTGRES_USER", "postgres"),
			Password:           getEnv("POSTGRES_PASSWORD", "postgres"),
			DBName:             getEnv("POSTGRES_DB", "agendavip"),
			SSLMode:            getEnv("POSTGRES_SSL_MODE", "disable"),
			MaxConnections:     getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("POSTGRES_MAX_IDLE_CONNECTIONS", 5),
			MaxLifetime:        postgresMaxLifetime,
		},
		JWT: JWTConfig{
			SigningKey:       getEnv("JWT_SIGNING_KEY", "your_secret_key"),
			AccessTokenTTL:   jwtAccessTokenTTL,
			RefreshTokenTTL:  jwtRefreshTokenTTL,
			PasswordResetTTL: passwordResetTTL,
		},
		S3: S3Config{
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			Region:          getEnv("S3_REGION", "us-east-1"),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			Bucket:          getEnv("S3_BUCKET", "agendavip"),
			UseSSL:          getEnvAsBool("S3_USE_SSL", true),
			PresignExpiry:   presignExpiry,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			From:         getEnv("EMAIL_FROM", "nao-responda@agendavip.com.br"),
			FromName:     getEnv("EMAIL_FROM_NAME", "AgendaVip"),
			TestMode:     getEnvAsBool("EMAIL_TEST_MODE", true),
		},
		Analytics: AnalyticsConfig{
			Enabled:            getEnvAsBool("ANALYTICS_ENABLED", false),
			Region:             getEnv("AWS_REGION", "sa-east-1"),
			AccessKeyID:        getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:    getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:           getEnv("DYNAMODB_ENDPOINT", ""),
			CompletedTable:     getEnv("DYNAMODB_COMPLETED_TABLE", "servicos_finalizados"),
			LoyaltyPointsTable: getEnv("DYNAMODB_LOYALTY_TABLE", "pontos_fidelidade"),
		},
		MercadoPago: MercadoPagoConfig{
			AccessToken: getEnv("MERCADOPAGO_ACCESS_TOKEN", ""),
			Currency:    getEnv("MERCADOPAGO_CURRENCY", "BRL"),
		},
		Scheduling: SchedulingConfig{
			Timezone:         getEnv("SCHEDULING_TIMEZONE", "America/Sao_Paulo"),
			MaxExpansionDays: getEnvAsInt("SCHEDULING_MAX_EXPANSION_DAYS", 93),
		},
		Reminder: ReminderConfig{
			Enabled:  getEnvAsBool("REMINDER_ENABLED", true),
			Interval: reminderInterval,
		},
		Metrics: MetricsConfig{
			Enabled:     getEnvAsBool("METRICS_ENABLED", true),
			Path:        getEnv("METRICS_PATH", "/metrics"),
			ServiceName: getEnv("METRICS_SERVICE_NAME", "agendavip"),
		},
	}

	if cfg.Environment == "production" && cfg.JWT.SigningKey == "your_secret_key" {
		return nil, fmt.Errorf("JWT_SIGNING_KEY deve ser definido em produção")
	}

	return cfg, nil
}

// Location возвращает часовой пояс расписания, при ошибке UTC.
func (c SchedulingConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value := 0
	_, err := fmt.Sscanf(valueStr, "%d", &value)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return defaultValue
	}
}
