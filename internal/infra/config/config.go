package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	App       AppSettings       `mapstructure:"app"`
	Postgres  PostgresSettings  `mapstructure:"postgres"`
	Redis     RedisSettings     `mapstructure:"redis"`
	Kafka     KafkaSettings     `mapstructure:"kafka"`
	Telemetry TelemetrySettings `mapstructure:"telemetry"`
	Resend    ResendSettings    `mapstructure:"resend"`
	RateLimit RateLimitSettings `mapstructure:"rate_limit"`
}

type AppSettings struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
}

// RedisSettings configures Redis connection and TLS
type RedisSettings struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	DB           int    `mapstructure:"db"`
	Password     string `mapstructure:"password"`
	TLSEnabled   bool   `mapstructure:"tls_enabled"`
	ResendPrefix string `mapstructure:"resend_prefix"`
	OTPPrefix    string `mapstructure:"otp_prefix"`
}

// KafkaSettings configures Kafka producer
type KafkaSettings struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
	Async       bool     `mapstructure:"async"`
}

// ResendSettings configures the per-email verification resend limiter and
// code issuance. Store selects the limiter backend ("redis" or "memory").
type ResendSettings struct {
	Store          string        `mapstructure:"store"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	Window         time.Duration `mapstructure:"window"`
	MinInterval    time.Duration `mapstructure:"min_interval"`
	SendTimeout    time.Duration `mapstructure:"send_timeout"`
	OTPTTL         time.Duration `mapstructure:"otp_ttl"`
	OTPMaxAttempts int           `mapstructure:"otp_max_attempts"`
}

// RateLimitSettings configures the per-IP sliding window on the auth routes.
type RateLimitSettings struct {
	WindowDuration    time.Duration `mapstructure:"window_duration"`
	ResendMaxAttempts int           `mapstructure:"resend_max_attempts"`
	VerifyMaxAttempts int           `mapstructure:"verify_max_attempts"`
}

type TelemetrySettings struct {
	MetricsPort int    `mapstructure:"metrics_port"`
	ServiceName string `mapstructure:"service_name"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("CAMPUS")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"redis.resend_prefix",
		"redis.otp_prefix",
		"kafka.brokers",
		"kafka.topic_prefix",
		"kafka.async",
		"resend.store",
		"resend.max_attempts",
		"resend.window",
		"resend.min_interval",
		"resend.send_timeout",
		"resend.otp_ttl",
		"resend.otp_max_attempts",
		"rate_limit.window_duration",
		"rate_limit.resend_max_attempts",
		"rate_limit.verify_max_attempts",
		"telemetry.metrics_port",
		"telemetry.service_name",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "wellness-api")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "campus")
	v.SetDefault("postgres.password", "campus_password")
	v.SetDefault("postgres.database", "campus")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", "60m")
	v.SetDefault("postgres.max_conn_idle_time", "15m")
	v.SetDefault("postgres.health_check_period", "30s")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)
	v.SetDefault("redis.resend_prefix", "verify:resend")
	v.SetDefault("redis.otp_prefix", "verify:otp")

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic_prefix", "campus")
	v.SetDefault("kafka.async", true)

	v.SetDefault("resend.store", "redis")
	v.SetDefault("resend.max_attempts", 3)
	v.SetDefault("resend.window", "10m")
	v.SetDefault("resend.min_interval", "1m")
	v.SetDefault("resend.send_timeout", "10s")
	v.SetDefault("resend.otp_ttl", "10m")
	v.SetDefault("resend.otp_max_attempts", 5)

	v.SetDefault("rate_limit.window_duration", "1m")
	v.SetDefault("rate_limit.resend_max_attempts", 10)
	v.SetDefault("rate_limit.verify_max_attempts", 20)

	v.SetDefault("telemetry.metrics_port", 9090)
	v.SetDefault("telemetry.service_name", "wellness-api")
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, "CAMPUS_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
