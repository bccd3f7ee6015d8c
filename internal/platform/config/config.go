package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	liststr "gatekeeper/pkg/platform/strings"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr        string
	Environment string
	LogLevel    slog.Level
	HealthPath  string

	AdminToken     string
	AdminTokenHash string
	JWTSigningKey  string
	TrustedProxies []string

	Redis      RedisConfig
	RateLimit  RateLimitConfig
	Versioning VersioningConfig
}

// RedisConfig configures the shared counter store connection.
// An empty URL selects the in-memory store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type RateLimitConfig struct {
	Disabled            bool
	PolicyFile          string
	StoreTimeout        time.Duration
	MemoryStoreCapacity int
}

type VersioningConfig struct {
	Supported []string
	Current   string
	Default   string
	Product   string
}

const devAdminToken = "demo-admin-token"

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var errs []string
	durationVar := func(name string, def time.Duration) time.Duration {
		raw := os.Getenv(name)
		if raw == "" {
			return def
		}
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			errs = append(errs, fmt.Sprintf("%s: invalid duration %q", name, raw))
			return def
		}
		return d
	}
	intVar := func(name string, def int) int {
		raw := os.Getenv(name)
		if raw == "" {
			return def
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			errs = append(errs, fmt.Sprintf("%s: invalid positive integer %q", name, raw))
			return def
		}
		return n
	}

	env := getenv("ENVIRONMENT", "local")
	level, err := ParseLogLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		errs = append(errs, err.Error())
	}

	adminToken := os.Getenv("ADMIN_TOKEN")
	adminTokenHash := os.Getenv("ADMIN_TOKEN_HASH")
	if adminToken == "" && adminTokenHash == "" && env != "production" {
		adminToken = devAdminToken
	}

	supported := liststr.SplitListLower(getenv("API_SUPPORTED_VERSIONS", "v1"), ",")
	if len(supported) == 0 {
		supported = []string{"v1"}
	}
	current := strings.ToLower(getenv("API_CURRENT_VERSION", supported[len(supported)-1]))
	def := strings.ToLower(getenv("API_DEFAULT_VERSION", "v1"))

	cfg := Server{
		Addr:           getenv("GATEKEEPER_ADDR", ":8080"),
		Environment:    env,
		LogLevel:       level,
		HealthPath:     getenv("HEALTH_PATH", "/health"),
		AdminToken:     adminToken,
		AdminTokenHash: adminTokenHash,
		JWTSigningKey:  os.Getenv("JWT_SIGNING_KEY"),
		TrustedProxies: liststr.SplitList(os.Getenv("TRUSTED_PROXIES"), ","),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     intVar("REDIS_POOL_SIZE", 10),
			MinIdleConns: intVar("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  durationVar("REDIS_DIAL_TIMEOUT", 2*time.Second),
			ReadTimeout:  durationVar("REDIS_READ_TIMEOUT", 500*time.Millisecond),
			WriteTimeout: durationVar("REDIS_WRITE_TIMEOUT", 500*time.Millisecond),
		},
		RateLimit: RateLimitConfig{
			Disabled:            os.Getenv("RATE_LIMIT_DISABLED") == "true",
			PolicyFile:          os.Getenv("RATE_LIMIT_POLICY_FILE"),
			StoreTimeout:        durationVar("STORE_TIMEOUT", 100*time.Millisecond),
			MemoryStoreCapacity: intVar("MEMORY_STORE_CAPACITY", 100_000),
		},
		Versioning: VersioningConfig{
			Supported: supported,
			Current:   current,
			Default:   def,
			Product:   getenv("API_PRODUCT", "dashboard"),
		},
	}

	if env == "production" && cfg.AdminToken == "" && cfg.AdminTokenHash == "" {
		errs = append(errs, "ADMIN_TOKEN or ADMIN_TOKEN_HASH is required in production")
	}
	if !strings.HasPrefix(cfg.HealthPath, "/") {
		errs = append(errs, fmt.Sprintf("HEALTH_PATH must start with '/': %q", cfg.HealthPath))
	}
	if len(errs) > 0 {
		return Server{}, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// ParseLogLevel maps debug|info|warn|error to a slog level. Empty means info.
func ParseLogLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: unknown level %q", raw)
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
