package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Registry    RegistryConfig    `mapstructure:"registry"`
	Tenants     TenantsConfig     `mapstructure:"tenants"`
	Redis       RedisConfig       `mapstructure:"redis"`
	DLQ         DLQConfig         `mapstructure:"dlq"`
	Aggregation AggregationConfig `mapstructure:"aggregation"`
	Webhook     WebhookConfig     `mapstructure:"webhook"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type RegistryConfig struct {
	URL      string        `mapstructure:"url"`
	Token    string        `mapstructure:"token"`
	Timeout  time.Duration `mapstructure:"timeout"`
	PageSize int           `mapstructure:"page_size"`
}

type TenantsConfig struct {
	Backend    string         `mapstructure:"backend"`
	Parallel   bool           `mapstructure:"parallel"`
	StaticFile string         `mapstructure:"static_file"`
	Postgres   PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	URL     string        `mapstructure:"url"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type DLQConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	NatsURL string `mapstructure:"nats_url"`
}

type AggregationConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type WebhookConfig struct {
	SignatureSecret string `mapstructure:"signature_secret"`
	MaxPayloadSize  int    `mapstructure:"max_payload_size"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ConnString builds a pgx-compatible connection string.
func (p PostgresConfig) ConnString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode,
	)
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", 8087)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("registry.url", "http://localhost:8090")
	v.SetDefault("registry.timeout", "10s")
	v.SetDefault("registry.page_size", 100)
	v.SetDefault("tenants.backend", "static")
	v.SetDefault("tenants.parallel", false)
	v.SetDefault("tenants.static_file", "tenants.yaml")
	v.SetDefault("tenants.postgres.host", "localhost")
	v.SetDefault("tenants.postgres.port", 5432)
	v.SetDefault("tenants.postgres.user", "bridge")
	v.SetDefault("tenants.postgres.database", "bridge")
	v.SetDefault("tenants.postgres.sslmode", "disable")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.url", "redis://localhost:6379")
	v.SetDefault("redis.ttl", "1h")
	v.SetDefault("dlq.enabled", false)
	v.SetDefault("dlq.nats_url", "nats://localhost:4222")
	v.SetDefault("aggregation.interval", "1h")
	v.SetDefault("webhook.max_payload_size", 1048576)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/sensor-bridge")
	}

	// Environment variables override
	v.SetEnvPrefix("BRIDGE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
