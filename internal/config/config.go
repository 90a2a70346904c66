package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// ErrInvalidConfig возвращается, если конфигурация не прошла валидацию
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config корневая конфигурация сервиса
type Config struct {
	Server       ServerConfig       `toml:"server"`
	Database     DatabaseConfig     `toml:"database"`
	Logs         LogsConfig         `toml:"logs"`
	Metrics      MetricsConfig      `toml:"metrics"`
	Redis        RedisConfig        `toml:"redis"`
	Kafka        KafkaConfig        `toml:"kafka"`
	Stripe       StripeConfig       `toml:"stripe"`
	StaffService StaffServiceConfig `toml:"staff_service"`
	Booking      BookingConfig      `toml:"booking"`
	RateLimit    RateLimitConfig    `toml:"rate_limit"`
}

type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"`
}

// DSN строка подключения для lib/pq
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type LogsConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// RedisConfig пустой Addr отключает распределенные блокировки
type RedisConfig struct {
	Addr           string `toml:"addr"`
	Password       string `toml:"password"`
	DB             int    `toml:"db"`
	LockPrefix     string `toml:"lock_prefix"`
	LockTTLSeconds int    `toml:"lock_ttl_seconds"`
	LockWaitMillis int    `toml:"lock_wait_millis"`
}

// Enabled настроен ли Redis
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// KafkaConfig пустой Brokers отключает публикацию аудита
type KafkaConfig struct {
	Brokers    []string `toml:"brokers"`
	AuditTopic string   `toml:"audit_topic"`
}

func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

// StripeConfig пустой SecretKey отключает создание платежей,
// пустой WebhookSecret отключает прием уведомлений об оплате
type StripeConfig struct {
	SecretKey  string `toml:"secret_key"`
	SuccessURL string `toml:"success_url"`
	CancelURL  string `toml:"cancel_url"`
	Currency   string `toml:"currency"`

	WebhookSecret string `toml:"webhook_secret"`
	// Допустимый возраст подписи Stripe-Signature в секундах
	WebhookToleranceSeconds int `toml:"webhook_tolerance_seconds"`
}

func (c StripeConfig) Enabled() bool {
	return c.SecretKey != ""
}

type StaffServiceConfig struct {
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"`
}

type BookingConfig struct {
	// Шаг перебора кандидатов в минутах
	SearchStepMinutes int `toml:"search_step_minutes"`
	// 0 отключает автоматическую отмену неоплаченных записей
	PendingTTLMinutes int    `toml:"pending_ttl_minutes"`
	ExpireSchedule    string `toml:"expire_schedule"`
	DefaultPageSize   int    `toml:"default_page_size"`
	MaxPageSize       int    `toml:"max_page_size"`
	AlternativesCount int    `toml:"alternatives_count"`
}

type RateLimitConfig struct {
	Enabled bool    `toml:"enabled"`
	RPS     float64 `toml:"rps"`
	Burst   int     `toml:"burst"`
}

// Load читает конфигурацию из TOML файла, применяет значения по умолчанию
// и переопределения из окружения
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default конфигурация по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     15,
			WriteTimeout:    15,
			IdleTimeout:     60,
			ShutdownTimeout: 10,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Logs: LogsConfig{Level: "info"},
		Metrics: MetricsConfig{
			Path:        "/metrics",
			ServiceName: "appointment_service",
		},
		Redis: RedisConfig{
			LockPrefix:     "appointments:lock",
			LockTTLSeconds: 10,
			LockWaitMillis: 2000,
		},
		Kafka:        KafkaConfig{AuditTopic: "appointments.audit"},
		Stripe:       StripeConfig{Currency: "usd", WebhookToleranceSeconds: 300},
		StaffService: StaffServiceConfig{Timeout: 5},
		Booking: BookingConfig{
			SearchStepMinutes: 10,
			ExpireSchedule:    "@every 1m",
			DefaultPageSize:   20,
			MaxPageSize:       100,
			AlternativesCount: 5,
		},
		RateLimit: RateLimitConfig{RPS: 5, Burst: 10},
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("STRIPE_SECRET_KEY"); v != "" {
		c.Stripe.SecretKey = v
	}
	if v := os.Getenv("STRIPE_WEBHOOK_SECRET"); v != "" {
		c.Stripe.WebhookSecret = v
	}
}

// Validate проверяет согласованность значений
func (c *Config) Validate() error {
	var problems []string

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		problems = append(problems, "server.http_port must be in 1..65535")
	}
	if c.Database.Host == "" || c.Database.DBName == "" {
		problems = append(problems, "database.host and database.dbname are required")
	}
	if c.StaffService.URL == "" {
		problems = append(problems, "staff_service.url is required")
	}
	if c.Booking.SearchStepMinutes <= 0 || c.Booking.SearchStepMinutes > 60 {
		problems = append(problems, "booking.search_step_minutes must be in 1..60")
	}
	if c.Booking.PendingTTLMinutes < 0 {
		problems = append(problems, "booking.pending_ttl_minutes must be >= 0")
	}
	if c.Booking.DefaultPageSize <= 0 || c.Booking.DefaultPageSize > c.Booking.MaxPageSize {
		problems = append(problems, "booking.default_page_size must be in 1..max_page_size")
	}
	if c.Booking.AlternativesCount < 0 {
		problems = append(problems, "booking.alternatives_count must be >= 0")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		problems = append(problems, "rate_limit.rps and rate_limit.burst must be positive")
	}
	if c.Stripe.Enabled() && (c.Stripe.SuccessURL == "" || c.Stripe.CancelURL == "") {
		problems = append(problems, "stripe.success_url and stripe.cancel_url are required when stripe is enabled")
	}
	if c.Stripe.WebhookToleranceSeconds <= 0 {
		problems = append(problems, "stripe.webhook_tolerance_seconds must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
