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
	RateLimit RateLimitSettings `mapstructure:"rate_limit"`
	Reset     ResetSettings     `mapstructure:"reset"`
	Bcrypt    BcryptSettings    `mapstructure:"bcrypt"`
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

// RedisSettings configures Redis connection and TLS. Redis is only required
// when rate_limit.store is "redis"; single-instance deployments may run with
// the in-memory store.
type RedisSettings struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	DB              int    `mapstructure:"db"`
	Password        string `mapstructure:"password"`
	TLSEnabled      bool   `mapstructure:"tls_enabled"`
	RateLimitPrefix string `mapstructure:"rate_limit_prefix"`
}

// KafkaSettings configures the Kafka producer used for domain events and
// outbound notification delivery requests.
type KafkaSettings struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
	Async       bool     `mapstructure:"async"`
}

// RateLimitSettings configures the per-email reset request limiter. The store
// must be "redis" in multi-instance deployments; the "memory" store is only
// correct for a single process.
type RateLimitSettings struct {
	Store           string        `mapstructure:"store"`
	WindowDuration  time.Duration `mapstructure:"window_duration"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
	Cooldown        time.Duration `mapstructure:"cooldown"`
	InitiateIPBurst int           `mapstructure:"initiate_ip_burst"`
}

// ResetSettings configures reset token lifetime and maintenance cadence.
// The upstream product shipped with both 24h and 1h token lifetimes in
// different flows; the TTL is deliberately a config value with a 1h default.
type ResetSettings struct {
	TokenTTL        time.Duration `mapstructure:"token_ttl"`
	HistoryDepth    int           `mapstructure:"history_depth"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// BcryptSettings configures the adaptive password hash.
type BcryptSettings struct {
	Cost int `mapstructure:"cost"`
}

type TelemetrySettings struct {
	MetricsPort  int     `mapstructure:"metrics_port"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("CREDSVC")

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
		"redis.rate_limit_prefix",
		"kafka.brokers",
		"kafka.topic_prefix",
		"kafka.async",
		"telemetry.metrics_port",
		"telemetry.otlp_endpoint",
		"telemetry.service_name",
		"telemetry.sampling_rate",
		"rate_limit.store",
		"rate_limit.window_duration",
		"rate_limit.max_attempts",
		"rate_limit.cooldown",
		"rate_limit.initiate_ip_burst",
		"reset.token_ttl",
		"reset.history_depth",
		"reset.cleanup_interval",
		"bcrypt.cost",
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
	v.SetDefault("app.name", "credential-service")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "hotel")
	v.SetDefault("postgres.password", "hotel_password")
	v.SetDefault("postgres.database", "hotel")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", time.Hour)
	v.SetDefault("postgres.max_conn_idle_time", 30*time.Minute)
	v.SetDefault("postgres.health_check_period", time.Minute)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.rate_limit_prefix", "credsvc:reset:attempts")

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic_prefix", "hotel")
	v.SetDefault("kafka.async", true)

	v.SetDefault("telemetry.metrics_port", 9090)
	v.SetDefault("telemetry.service_name", "credential-service")
	v.SetDefault("telemetry.sampling_rate", 0.1)

	v.SetDefault("rate_limit.store", "memory")
	v.SetDefault("rate_limit.window_duration", 24*time.Hour)
	v.SetDefault("rate_limit.max_attempts", 3)
	v.SetDefault("rate_limit.cooldown", 5*time.Minute)
	v.SetDefault("rate_limit.initiate_ip_burst", 30)

	v.SetDefault("reset.token_ttl", time.Hour)
	v.SetDefault("reset.history_depth", 5)
	v.SetDefault("reset.cleanup_interval", time.Hour)

	v.SetDefault("bcrypt.cost", 12)
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}
