package config

import "testing"

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 0},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingDatabaseAddrs(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{},
		},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_EmptyResourceType(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
		Resources: ResourcesConfig{
			Types:           []string{"Users", "  "},
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for blank resource type")
	}
}

func TestValidate_MaxPageBelowDefault(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
		Resources: ResourcesConfig{
			Types:           []string{"Users"},
			DefaultPageSize: 50,
			MaxPageSize:     20,
		},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for max_page_size below default_page_size")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 10 {
		t.Errorf("expected WriteTimeoutSec=10, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if len(cfg.Resources.Types) != 2 || cfg.Resources.Types[0] != "Users" {
		t.Errorf("expected default types [Users Groups], got %v", cfg.Resources.Types)
	}
	if cfg.Resources.DefaultPageSize != 20 {
		t.Errorf("expected DefaultPageSize=20, got %d", cfg.Resources.DefaultPageSize)
	}
	if cfg.Resources.MaxPageSize != 100 {
		t.Errorf("expected MaxPageSize=100, got %d", cfg.Resources.MaxPageSize)
	}
	if cfg.Filter.MaxLength != 1000 {
		t.Errorf("expected Filter.MaxLength=1000, got %d", cfg.Filter.MaxLength)
	}
	if cfg.Filter.MaxDepth != 50 {
		t.Errorf("expected Filter.MaxDepth=50, got %d", cfg.Filter.MaxDepth)
	}
	if cfg.Storage.KeyPrefix != "scimd:" {
		t.Errorf("expected KeyPrefix='scimd:', got %q", cfg.Storage.KeyPrefix)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database: DatabaseConfig{ReadinessTimeout: 15},
		Resources: ResourcesConfig{
			Types: []string{"Devices"}, DefaultPageSize: 50, MaxPageSize: 500,
		},
		Filter:  FilterConfig{MaxLength: 200, MaxDepth: 10},
		Storage: StorageConfig{KeyPrefix: "custom:"},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if len(cfg.Resources.Types) != 1 || cfg.Resources.Types[0] != "Devices" {
		t.Errorf("expected types [Devices], got %v", cfg.Resources.Types)
	}
	if cfg.Filter.MaxLength != 200 || cfg.Filter.MaxDepth != 10 {
		t.Errorf("expected filter limits 200/10, got %d/%d", cfg.Filter.MaxLength, cfg.Filter.MaxDepth)
	}
	if cfg.Storage.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Storage.KeyPrefix)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("SCIMD_TEST_ADDR", "redis:6379")

	in := []byte("addrs: [\"${SCIMD_TEST_ADDR}\"]\nprefix: ${SCIMD_TEST_PREFIX:-scimd:}\n")
	out := string(expandEnvVars(in))

	if out != "addrs: [\"redis:6379\"]\nprefix: scimd:\n" {
		t.Errorf("unexpected expansion:\n%s", out)
	}
}
