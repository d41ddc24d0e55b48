package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrSnakeDoc/routine/internal/connect"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request deadline (ex: 5s)

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Storage
	Store       string // memory | redis | sqlite | postgres
	SQLitePath  string // ex: "/data/routine.db"
	PostgresDSN string // ex: "postgres://routine:secret@db:5432/routine?sslmode=disable"
	SeedDemo    bool   // seed demo items when the store is empty

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisPoolSize         int           // Redis connection pool size

	// Backend connection retry (redis, postgres)
	ConnectTimeout time.Duration // total time to retry connecting (ex: 30s)
	RetryInterval  time.Duration // initial wait between retries (ex: 2s, grows exponentially)
	MaxWait        time.Duration // max wait between retries (ex: 10s)
	PingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	WarnThreshold  int           // warn after this many attempts

	// Homepage import
	ImportServicesFile  string        // optional services.yaml to import
	ImportBookmarksFile string        // optional bookmarks.yaml to import
	ImportInterval      time.Duration // re-import interval (default: 24h)
	StatsInterval       time.Duration // stats gauge refresh (default: 30s)

	// Access restrictions
	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict access to specific IP (e.g. "1.2.3.4, 5.6.7.8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	CORSOrigins  []string // allowed origins, "*" for any
	RateBurst    int      // token bucket size per client on mutating routes
	RatePerMin   int      // tokens refilled per minute
}

// Load reads the configuration from the environment.
// ROUTINE_ENV_FILE names an optional dotenv file; variables already set in the environment win over it.
// Invalid or missing required settings panic.
func Load() *Config {
	if path := os.Getenv("ROUTINE_ENV_FILE"); path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(fmt.Sprintf("❌ FATAL: Cannot load ROUTINE_ENV_FILE %s: %v", path, err))
		}
	}

	cfg := &Config{
		// Server settings
		ListenPort:      getenv("ROUTINE_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("ROUTINE_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("ROUTINE_REQUEST_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("ROUTINE_LOG_LEVEL", "info"),
		PrettyLog: mustBool("ROUTINE_PRETTY_LOG", true),

		// Storage
		Store:      strings.ToLower(getenv("ROUTINE_STORE", StoreSQLite)),
		SQLitePath: getenv("ROUTINE_SQLITE_PATH", "/data/routine.db"),
		SeedDemo:   mustBool("ROUTINE_SEED_DEMO", false),

		// Retry settings
		ConnectTimeout: mustDuration("ROUTINE_CONNECT_TIMEOUT", 30*time.Second),
		RetryInterval:  mustDuration("ROUTINE_RETRY_INTERVAL", 2*time.Second),
		MaxWait:        mustDuration("ROUTINE_MAX_WAIT", 10*time.Second),
		PingTimeout:    mustDuration("ROUTINE_PING_TIMEOUT", 5*time.Second),
		WarnThreshold:  getenvInt("ROUTINE_WARN_THRESHOLD", 3),

		// Import
		ImportServicesFile:  getenv("ROUTINE_IMPORT_SERVICES_FILE", ""),
		ImportBookmarksFile: getenv("ROUTINE_IMPORT_BOOKMARKS_FILE", ""),
		ImportInterval:      mustDuration("ROUTINE_IMPORT_INTERVAL", 24*time.Hour),
		StatsInterval:       mustDuration("ROUTINE_STATS_INTERVAL", 30*time.Second),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("ROUTINE_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("ROUTINE_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("ROUTINE_TRUST_PROXY", true),
		CORSOrigins:  splitAndTrim(getenv("ROUTINE_CORS_ORIGINS", "*")),
		RateBurst:    getenvInt("ROUTINE_RATE_LIMIT_BURST", 60),
		RatePerMin:   getenvInt("ROUTINE_RATE_LIMIT_PER_MIN", 120),
	}

	switch cfg.Store {
	case StoreMemory, StoreSQLite:
	case StorePostgres:
		cfg.PostgresDSN = requireEnv("ROUTINE_POSTGRES_DSN")
	case StoreRedis:
		cfg.RedisAddr = requireEnv("ROUTINE_REDIS_ADDR")
		cfg.RedisUser = getenv("ROUTINE_REDIS_USERNAME", "")
		cfg.RedisPasswordRequired = mustBool("ROUTINE_REDIS_PASSWORD_REQUIRED", false)
		cfg.RedisPassword = getenv("ROUTINE_REDIS_PASSWORD", "")
		cfg.RedisDB = getenvInt("ROUTINE_REDIS_DB", 0)
		cfg.RedisDT = mustDuration("ROUTINE_REDIS_DIAL_TIMEOUT", 5*time.Second)
		cfg.RedisRT = mustDuration("ROUTINE_REDIS_READ_TIMEOUT", 3*time.Second)
		cfg.RedisWT = mustDuration("ROUTINE_REDIS_WRITE_TIMEOUT", 3*time.Second)
		cfg.RedisPoolSize = getenvInt("ROUTINE_REDIS_POOL_SIZE", 10)

		if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
			panic("❌ FATAL: ROUTINE_REDIS_PASSWORD is required when ROUTINE_REDIS_PASSWORD_REQUIRED=true")
		}
	default:
		panic(fmt.Sprintf("❌ FATAL: Unknown ROUTINE_STORE %q (want memory, redis, sqlite or postgres)", cfg.Store))
	}

	if cfg.ImportInterval <= 0 || cfg.StatsInterval <= 0 {
		panic("❌ FATAL: ROUTINE_IMPORT_INTERVAL and ROUTINE_STATS_INTERVAL must be > 0")
	}

	if cfg.RateBurst <= 0 || cfg.RatePerMin <= 0 {
		panic("❌ FATAL: ROUTINE_RATE_LIMIT_BURST and ROUTINE_RATE_LIMIT_PER_MIN must be > 0")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		if cfg.PostgresDSN != "" {
			cfgCopy.PostgresDSN = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// Retry returns the backend connection retry settings.
func (c *Config) Retry() connect.Options {
	return connect.Options{
		ConnectTimeout: c.ConnectTimeout,
		RetryInterval:  c.RetryInterval,
		MaxWait:        c.MaxWait,
		PingTimeout:    c.PingTimeout,
		WarnThreshold:  c.WarnThreshold,
	}
}

// ImportEnabled reports whether at least one Homepage file is configured.
func (c *Config) ImportEnabled() bool {
	return c.ImportServicesFile != "" || c.ImportBookmarksFile != ""
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
