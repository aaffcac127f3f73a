package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Driver = %q, expected sqlite", cfg.Database.Driver)
	}
	if cfg.JWT.ExpireMinutes != 30 {
		t.Errorf("ExpireMinutes = %d, expected 30", cfg.JWT.ExpireMinutes)
	}
	if cfg.JWT.Algorithm != "HS256" {
		t.Errorf("Algorithm = %q, expected HS256", cfg.JWT.Algorithm)
	}
	if cfg.Dashboard.DeadlineDays != 7 {
		t.Errorf("DeadlineDays = %d, expected 7", cfg.Dashboard.DeadlineDays)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Port = %q, expected 8080", cfg.Server.Port)
	}
}

func TestLoad_FileKeepsUnsetDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "server:\n  port: \"9090\"\njwt:\n  secret: from-file\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("Port = %q, expected 9090", cfg.Server.Port)
	}
	if cfg.JWT.Secret != "from-file" {
		t.Errorf("Secret = %q, expected from-file", cfg.JWT.Secret)
	}
	if cfg.JWT.ExpireMinutes != 30 {
		t.Errorf("ExpireMinutes = %d, expected default 30", cfg.JWT.ExpireMinutes)
	}
}

func TestOverrideFromEnv(t *testing.T) {
	t.Setenv("SECRET_KEY", "env-secret")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "90")
	t.Setenv("DATABASE_URL", "postgres://x")
	t.Setenv("HOLIDAY_COUNTRY", "gb")
	t.Setenv("LOG_RETENTION_DAYS", "7")

	cfg := DefaultConfig()
	cfg.overrideFromEnv()

	if cfg.JWT.Secret != "env-secret" {
		t.Errorf("Secret = %q, expected env-secret", cfg.JWT.Secret)
	}
	if cfg.JWT.ExpireMinutes != 90 {
		t.Errorf("ExpireMinutes = %d, expected 90", cfg.JWT.ExpireMinutes)
	}
	if cfg.Database.DSN != "postgres://x" {
		t.Errorf("DSN = %q", cfg.Database.DSN)
	}
	if cfg.Dashboard.HolidayCountry != "GB" {
		t.Errorf("HolidayCountry = %q, expected GB", cfg.Dashboard.HolidayCountry)
	}
	if cfg.Log.RetentionDays != 7 {
		t.Errorf("RetentionDays = %d, expected 7", cfg.Log.RetentionDays)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Server.Port = "7070"
	cfg.Dashboard.HolidayCountry = "DE"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Server.Port != "7070" || loaded.Dashboard.HolidayCountry != "DE" {
		t.Errorf("loaded = %+v", loaded.Server)
	}
}

func TestParseRedisURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		addr     string
		password string
		db       int
	}{
		{"host only", "redis://localhost:6379", "localhost:6379", "", 0},
		{"with password", "redis://:secret@redis:6379", "redis:6379", "secret", 0},
		{"with db", "redis://:pw@10.0.0.1:6380/3", "10.0.0.1:6380", "pw", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.parseRedisURL(tt.url)
			if cfg.Redis.Addr != tt.addr {
				t.Errorf("Addr = %q, expected %q", cfg.Redis.Addr, tt.addr)
			}
			if cfg.Redis.Password != tt.password {
				t.Errorf("Password = %q, expected %q", cfg.Redis.Password, tt.password)
			}
			if cfg.Redis.DB != tt.db {
				t.Errorf("DB = %d, expected %d", cfg.Redis.DB, tt.db)
			}
		})
	}
}
