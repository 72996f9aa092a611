package config

import (
	"os"
	"path/filepath"
	"testing"
)

const minimalYAML = `
server:
  port: 8080
database:
  host: localhost
  port: 5432
  name: agropower
  user: agro
  password: secret
auth:
  secret: test-secret
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.MetricsPort != 8081 {
		t.Errorf("MetricsPort default: got %d, want 8081", cfg.Server.MetricsPort)
	}
	if cfg.Server.RecommendationTimeoutSeconds != 15 {
		t.Errorf("recommendation timeout default: got %d", cfg.Server.RecommendationTimeoutSeconds)
	}
	if cfg.Server.PowerLossTimeoutSeconds != 10 {
		t.Errorf("power-loss timeout default: got %d", cfg.Server.PowerLossTimeoutSeconds)
	}
	if cfg.Database.SSLMode != "disable" {
		t.Errorf("sslMode default: got %q", cfg.Database.SSLMode)
	}
	if cfg.RunMode != RunModeProduction {
		t.Errorf("runMode default: got %q", cfg.RunMode)
	}
	if cfg.Auth.TokenTTLMinutes != 60 {
		t.Errorf("token ttl default: got %d", cfg.Auth.TokenTTLMinutes)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6432")
	t.Setenv("DB_PASS", "from-env")
	t.Setenv("AUTH_SECRET", "env-secret")
	t.Setenv("RUN_MODE", "development")

	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Host != "db.internal" || cfg.Database.Port != 6432 {
		t.Errorf("env DSN overlay not applied: %s:%d", cfg.Database.Host, cfg.Database.Port)
	}
	if cfg.Database.Password != "from-env" {
		t.Errorf("DB_PASS not applied")
	}
	if cfg.Auth.Secret != "env-secret" {
		t.Errorf("AUTH_SECRET not applied")
	}
	if cfg.RunMode != RunModeDevelopment {
		t.Errorf("RUN_MODE not applied: %q", cfg.RunMode)
	}
}

func TestLoadRejectsIncomplete(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing port", body: "server: {}\ndatabase: {host: h, port: 5432, name: n, user: u}\nauth: {secret: s}\n"},
		{name: "missing db host", body: "server: {port: 8080}\ndatabase: {port: 5432, name: n, user: u}\nauth: {secret: s}\n"},
		{name: "missing secret", body: "server: {port: 8080}\ndatabase: {host: h, port: 5432, name: n, user: u}\n"},
		{name: "bad run mode", body: minimalYAML + "runMode: staging\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.body)); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: 5432, Name: "n", User: "u", Password: "p", SSLMode: "disable"}
	want := "host=h port=5432 dbname=n user=u password=p sslmode=disable"
	if got := d.DSN(); got != want {
		t.Errorf("DSN: got %q, want %q", got, want)
	}
}
