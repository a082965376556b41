package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/payment-aggregator/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "3001" || cfg.Env != "development" {
		t.Errorf("port/env = %s/%s", cfg.Port, cfg.Env)
	}
	if cfg.Stripe.PollInterval != 30*time.Second || cfg.Mock.Interval != 3*time.Second {
		t.Errorf("intervals = %v/%v", cfg.Stripe.PollInterval, cfg.Mock.Interval)
	}
	if len(cfg.Secrets) != len(domain.Processors) {
		t.Errorf("secrets = %v", cfg.Secrets)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("WORLDPAY_WEBHOOK_SECRET", "wp")
	t.Setenv("STRIPE_POLL_INTERVAL_MS", "1500")
	t.Setenv("TIMESERIES_CENTER_NOON", "true")
	t.Setenv("API_SERVICE_URL", "http://api:3001/")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "8080" {
		t.Errorf("port = %s", cfg.Port)
	}
	if cfg.Secrets[domain.WorldpayIntegrated] != "wp" {
		t.Errorf("worldpay secret = %q", cfg.Secrets[domain.WorldpayIntegrated])
	}
	if cfg.Stripe.PollInterval != 1500*time.Millisecond {
		t.Errorf("poll interval = %v", cfg.Stripe.PollInterval)
	}
	if !cfg.Series.CenterNoon {
		t.Error("center noon not read")
	}
	if cfg.Mock.APIURL != "http://api:3001" {
		t.Errorf("api url = %s", cfg.Mock.APIURL)
	}
}

func TestLoadFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "port: \"9000\"\nkafka_topic: payments\ngravity_webhook_secret: from-file\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "9100")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "9100" {
		t.Errorf("port = %s, env must win over file", cfg.Port)
	}
	if cfg.Kafka.Topic != "payments" || cfg.Secrets[domain.Gravity] != "from-file" {
		t.Errorf("file values not applied: %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := Load(); err == nil {
		t.Error("Load() must fail on an unreadable CONFIG_FILE")
	}
}

func TestValidateProduction(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{name: "production without secrets", env: map[string]string{"APP_ENV": "production"}, wantErr: true},
		{name: "production with explicit bypass", env: map[string]string{"APP_ENV": "production", "ALLOW_UNSIGNED_WEBHOOKS": "true"}},
		{name: "production with all secrets", env: map[string]string{
			"APP_ENV":                 "production",
			"STRIPE_WEBHOOK_SECRET":   "a",
			"BLUEFIN_WEBHOOK_SECRET":  "b",
			"WORLDPAY_WEBHOOK_SECRET": "c",
			"GRAVITY_WEBHOOK_SECRET":  "d",
			"COVETRUS_WEBHOOK_SECRET": "e",
		}},
		{name: "zero interval", env: map[string]string{"WEBHOOK_INTERVAL_MS": "0"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load()
			if err != nil {
				t.Fatal(err)
			}
			err = cfg.Validate()
			if tt.wantErr != (err != nil) {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}
