package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return configPath
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("SALONHUB_DB_PATH", "salons.db")

	configPath := writeConfig(t, `
app:
  name: "salonhub-test"
  timezone: "Europe/Berlin"
database:
  path: "${SALONHUB_DB_PATH}"
availability:
  slot_granularity_minutes: 15
  hide_past_slots: true
booking:
  lock_ttl: 5s
api:
  enabled: true
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Database.Path != "salons.db" {
		t.Errorf("expected env-expanded path salons.db, got %s", cfg.Database.Path)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("expected default driver sqlite, got %s", cfg.Database.Driver)
	}
	if cfg.Availability.SlotGranularityMinutes != 15 {
		t.Errorf("expected granularity 15, got %d", cfg.Availability.SlotGranularityMinutes)
	}
	if !cfg.Availability.HidePastSlots {
		t.Error("expected hide_past_slots to be true")
	}
	if cfg.Booking.LockTTL != 5*time.Second {
		t.Errorf("expected lock ttl 5s, got %s", cfg.Booking.LockTTL)
	}
	if !cfg.API.HTTP.Enabled {
		t.Error("expected http to be enabled together with api")
	}
	if cfg.Location().String() != "Europe/Berlin" {
		t.Errorf("expected Europe/Berlin location, got %s", cfg.Location())
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	configPath := writeConfig(t, `
database:
  driver: "mysql"
  path: "x.db"
`)
	if _, err := Load(configPath); err == nil {
		t.Fatal("expected validation error for unsupported driver")
	}
}

func TestValidateConfig(t *testing.T) {
	valid := func() Config {
		cfg := Config{Database: DatabaseConfig{Path: "path"}}
		cfg.applyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing sqlite path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: true,
		},
		{
			name: "postgres without host",
			mutate: func(c *Config) {
				c.Database.Driver = DriverPostgres
				c.Database.Postgres.DBName = "salonhub"
			},
			wantErr: true,
		},
		{
			name: "postgres complete",
			mutate: func(c *Config) {
				c.Database.Driver = DriverPostgres
				c.Database.Postgres.Host = "localhost"
				c.Database.Postgres.DBName = "salonhub"
			},
			wantErr: false,
		},
		{
			name:    "bad timezone",
			mutate:  func(c *Config) { c.App.Timezone = "Mars/Olympus" },
			wantErr: true,
		},
		{
			name:    "negative granularity",
			mutate:  func(c *Config) { c.Availability.SlotGranularityMinutes = -30 },
			wantErr: true,
		},
		{
			name:    "tls without cert",
			mutate:  func(c *Config) { c.API.GRPC.TLS.Enabled = true },
			wantErr: true,
		},
		{
			name:    "amqp without url",
			mutate:  func(c *Config) { c.Events.AMQP.Enabled = true },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.Availability.SlotGranularityMinutes != 30 {
		t.Errorf("expected default granularity 30, got %d", cfg.Availability.SlotGranularityMinutes)
	}
	if cfg.API.GRPC.Port != 8081 {
		t.Errorf("expected default gRPC port 8081, got %d", cfg.API.GRPC.Port)
	}
	if cfg.API.HTTP.Port != 8080 {
		t.Errorf("expected default HTTP port 8080, got %d", cfg.API.HTTP.Port)
	}
	if cfg.App.Timezone != "UTC" {
		t.Errorf("expected default timezone UTC, got %s", cfg.App.Timezone)
	}
	if cfg.Booking.LockTTL != 10*time.Second {
		t.Errorf("expected default lock ttl 10s, got %s", cfg.Booking.LockTTL)
	}
	if cfg.Backup.Schedule != "24h" {
		t.Errorf("expected default backup schedule 24h, got %s", cfg.Backup.Schedule)
	}
	if cfg.Monitoring.PrometheusPort != 0 {
		t.Errorf("expected prometheus port to stay unset while disabled, got %d", cfg.Monitoring.PrometheusPort)
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "salonhub", SSLMode: "disable"}
	want := "host=db port=5432 user=u password=p dbname=salonhub sslmode=disable"
	if got := p.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
