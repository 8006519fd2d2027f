package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_PATH", "PERSIST_BACKEND", "REDIS_DB", "MODULE_BLACKLIST", "TICK_INTERVAL_MS", "RATE_LIMIT_PER_MIN"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Port != ":8080" {
		t.Fatalf("Port = %q", cfg.Port)
	}
	if cfg.PersistBackend != BackendSQLite {
		t.Fatalf("PersistBackend = %q", cfg.PersistBackend)
	}
	if cfg.TickInterval != 20*time.Millisecond {
		t.Fatalf("TickInterval = %v", cfg.TickInterval)
	}
	if len(cfg.ModuleBlacklist) != 0 {
		t.Fatalf("ModuleBlacklist = %v", cfg.ModuleBlacklist)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PERSIST_BACKEND", "Redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("MODULE_BLACKLIST", " telemetry, ,Mapper ")
	t.Setenv("TICK_INTERVAL_MS", "50")
	t.Setenv("RATE_LIMIT_PER_MIN", "oops")

	cfg := Load()
	if cfg.PersistBackend != BackendRedis {
		t.Fatalf("PersistBackend = %q", cfg.PersistBackend)
	}
	if cfg.RedisDB != 3 {
		t.Fatalf("RedisDB = %d", cfg.RedisDB)
	}
	if len(cfg.ModuleBlacklist) != 2 || cfg.ModuleBlacklist[0] != "telemetry" || cfg.ModuleBlacklist[1] != "Mapper" {
		t.Fatalf("ModuleBlacklist = %v", cfg.ModuleBlacklist)
	}
	if cfg.TickInterval != 50*time.Millisecond {
		t.Fatalf("TickInterval = %v", cfg.TickInterval)
	}
	if cfg.RateLimit != 120 {
		t.Fatalf("RateLimit = %d, want default on bad value", cfg.RateLimit)
	}
}

func TestTickIntervalRejectsNonPositive(t *testing.T) {
	for _, v := range []string{"0", "-5", "abc"} {
		t.Setenv("TICK_INTERVAL_MS", v)
		if got := Load().TickInterval; got != 20*time.Millisecond {
			t.Fatalf("TICK_INTERVAL_MS=%q gave %v, want default 20ms", v, got)
		}
	}
}

func TestDefaultJWTSecretDetected(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if cfg := Load(); !cfg.UsingDefaultJWTSecret() {
		t.Fatalf("unset JWT_SECRET not reported as default")
	}
	t.Setenv("JWT_SECRET", "s3cret")
	if cfg := Load(); cfg.UsingDefaultJWTSecret() {
		t.Fatalf("configured JWT_SECRET reported as default")
	}
}
