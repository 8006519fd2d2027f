package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Persistence backends accepted in PERSIST_BACKEND
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// DefaultJWTSecret is used when JWT_SECRET is unset
const DefaultJWTSecret = "your-secret-key-change-in-production"

// Config 应用配置
type Config struct {
	Port      string
	DBPath    string
	JWTSecret string

	PersistBackend string
	SnapshotPath   string
	RedisAddr      string
	RedisPass      string
	RedisDB        int

	TuningPath      string
	ModuleBlacklist []string
	TickInterval    time.Duration
	RateLimit       int // requests per minute per client on mutating routes
}

// Load 加载配置. A .env file in the working directory is applied first;
// variables already set in the environment win.
func Load() *Config {
	_ = godotenv.Load(".env")

	return &Config{
		Port:      getEnv("PORT", ":8080"),
		DBPath:    getEnv("DB_PATH", "./data/landsat/landsat.db"),
		JWTSecret: getEnv("JWT_SECRET", DefaultJWTSecret),

		PersistBackend: strings.ToLower(getEnv("PERSIST_BACKEND", BackendSQLite)),
		SnapshotPath:   getEnv("SNAPSHOT_PATH", "./data/landsat/landsat.snap.zst"),
		RedisAddr:      getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPass:      os.Getenv("REDIS_PASS"),
		RedisDB:        getEnvInt("REDIS_DB", 0),

		TuningPath:      os.Getenv("TUNING_PATH"),
		ModuleBlacklist: splitList(os.Getenv("MODULE_BLACKLIST")),
		TickInterval:    time.Duration(getEnvPositiveInt("TICK_INTERVAL_MS", 20)) * time.Millisecond,
		RateLimit:       getEnvInt("RATE_LIMIT_PER_MIN", 120),
	}
}

// UsingDefaultJWTSecret reports whether tokens are checked against the
// well-known fallback secret
func (c *Config) UsingDefaultJWTSecret() bool {
	return c.JWTSecret == DefaultJWTSecret
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// getEnvPositiveInt is getEnvInt that also rejects zero
func getEnvPositiveInt(key string, def int) int {
	if n := getEnvInt(key, def); n > 0 {
		return n
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
