// Package config читает настройки сервиса из окружения и необязательного YAML-файла.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/example/payment-aggregator/internal/analytics"
	"github.com/example/payment-aggregator/internal/domain"
)

type Config struct {
	Port          string
	Env           string
	AllowUnsigned bool
	Secrets       map[domain.ProcessorID]string
	Stripe        StripeConfig
	Mock          MockConfig
	Postgres      PostgresConfig
	Kafka         KafkaConfig
	STAN          STANConfig
	Series        analytics.SeriesConfig
	StreamBuffer  int
	ExportBuffer  int
}

type StripeConfig struct {
	SecretKey    string
	PollInterval time.Duration
}

// MockConfig — генератор тестового трафика.
type MockConfig struct {
	Interval time.Duration
	APIURL   string
}

type PostgresConfig struct {
	URL string
}

type KafkaConfig struct {
	Broker string
	Topic  string
}

// STANConfig — ретрансляция вебхуков через NATS Streaming; пустой URL отключает.
type STANConfig struct {
	URL       string
	ClusterID string
	ClientID  string
	Subject   string
}

var secretKeys = map[domain.ProcessorID]string{
	domain.Stripe:             "stripe_webhook_secret",
	domain.Bluefin:            "bluefin_webhook_secret",
	domain.WorldpayIntegrated: "worldpay_webhook_secret",
	domain.Gravity:            "gravity_webhook_secret",
	domain.Covetrus:           "covetrus_webhook_secret",
}

func defaults(v *viper.Viper) {
	series := analytics.DefaultSeriesConfig()
	v.SetDefault("port", "3001")
	v.SetDefault("app_env", "development")
	v.SetDefault("allow_unsigned_webhooks", false)
	for _, key := range secretKeys {
		v.SetDefault(key, "")
	}
	v.SetDefault("stripe_secret_key", "")
	v.SetDefault("stripe_poll_interval_ms", 30000)
	v.SetDefault("webhook_interval_ms", 3000)
	v.SetDefault("api_service_url", "http://localhost:3001")
	v.SetDefault("database_url", "")
	v.SetDefault("kafka_broker", "")
	v.SetDefault("kafka_topic", "transactions")
	v.SetDefault("nats_url", "")
	v.SetDefault("stan_cluster_id", "test-cluster")
	v.SetDefault("stan_client_id", "")
	v.SetDefault("stan_subject", "webhooks")
	v.SetDefault("timeseries_base_min", series.BaseMin)
	v.SetDefault("timeseries_base_max", series.BaseMax)
	v.SetDefault("timeseries_min_value", series.MinValue)
	v.SetDefault("timeseries_max_value", series.MaxValue)
	v.SetDefault("timeseries_center_noon", false)
	v.SetDefault("stream_buffer", 64)
	v.SetDefault("export_buffer", 256)
}

// Load собирает конфигурацию: значения по умолчанию, затем файл из CONFIG_FILE, затем окружение.
func Load() (*Config, error) {
	v := viper.New()
	defaults(v)
	v.AutomaticEnv()

	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{
		Port:          v.GetString("port"),
		Env:           strings.ToLower(v.GetString("app_env")),
		AllowUnsigned: v.GetBool("allow_unsigned_webhooks"),
		Secrets:       make(map[domain.ProcessorID]string, len(secretKeys)),
		Stripe: StripeConfig{
			SecretKey:    v.GetString("stripe_secret_key"),
			PollInterval: millis(v.GetInt("stripe_poll_interval_ms")),
		},
		Mock: MockConfig{
			Interval: millis(v.GetInt("webhook_interval_ms")),
			APIURL:   strings.TrimRight(v.GetString("api_service_url"), "/"),
		},
		Postgres: PostgresConfig{URL: v.GetString("database_url")},
		Kafka: KafkaConfig{
			Broker: v.GetString("kafka_broker"),
			Topic:  v.GetString("kafka_topic"),
		},
		STAN: STANConfig{
			URL:       v.GetString("nats_url"),
			ClusterID: v.GetString("stan_cluster_id"),
			ClientID:  v.GetString("stan_client_id"),
			Subject:   v.GetString("stan_subject"),
		},
		Series: analytics.SeriesConfig{
			BaseMin:    v.GetInt("timeseries_base_min"),
			BaseMax:    v.GetInt("timeseries_base_max"),
			MinValue:   v.GetInt("timeseries_min_value"),
			MaxValue:   v.GetInt("timeseries_max_value"),
			CenterNoon: v.GetBool("timeseries_center_noon"),
		},
		StreamBuffer: v.GetInt("stream_buffer"),
		ExportBuffer: v.GetInt("export_buffer"),
	}
	for id, key := range secretKeys {
		cfg.Secrets[id] = v.GetString(key)
	}
	return cfg, nil
}

func millis(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func (c *Config) Production() bool { return c.Env == "production" }

// Validate отказывает в запуске production без секретов, если обход не разрешён явно.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("%w: empty PORT", domain.ErrValidation)
	}
	if c.Stripe.PollInterval <= 0 || c.Mock.Interval <= 0 {
		return fmt.Errorf("%w: intervals must be positive", domain.ErrValidation)
	}
	if !c.Production() || c.AllowUnsigned {
		return nil
	}
	var missing []string
	for _, id := range domain.Processors {
		if c.Secrets[id] == "" {
			missing = append(missing, strings.ToUpper(secretKeys[id]))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: production requires %s (or ALLOW_UNSIGNED_WEBHOOKS=true)",
			domain.ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}
