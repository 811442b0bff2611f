package config

import "testing"

func TestLoadServerDefaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://localhost:5432/ludo?sslmode=disable")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Fatalf("RedisAddr = %q, want localhost:6379", cfg.RedisAddr)
	}
}

func TestLoadServerRequiresPostgresDSN(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")

	_, err := LoadServer()
	if err == nil {
		t.Fatal("LoadServer() expected error, got nil")
	}
}

func TestLoadGameParseTypes(t *testing.T) {
	t.Setenv("TURN_TIMEOUT", "45s")
	t.Setenv("SIX_RULE", "false")
	t.Setenv("BIG_TABLE_FEE", "25000")

	cfg, err := LoadGame()
	if err != nil {
		t.Fatalf("LoadGame() error = %v", err)
	}
	if cfg.TurnTimeout.Seconds() != 45 {
		t.Fatalf("TurnTimeout = %v, want 45s", cfg.TurnTimeout)
	}
	if cfg.SixRule {
		t.Fatal("SixRule = true, want false")
	}
	if cfg.BigTableFee != 25000 {
		t.Fatalf("BigTableFee = %d, want 25000", cfg.BigTableFee)
	}
}
