package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// ErrInvalidConfig is returned when an environment value cannot be used.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DataDir            string
	CatalogFile        string
	OffersFile         string
	BundlesFile        string
	CouponsFile        string
	CurrencyCode       string
	LoyaltySeedPoints  int64
	RateLimit          string
	RateLimitRedisURL  string
	CORSAllowedOrigins []string
	ShutdownTimeout    time.Duration

	LogFormat        string
	LogLevel         string
	MetricsNamespace string
	MetricsEnabled   bool
	TracingEnabled   bool
	OTLPEndpoint     string
	TracingSampling  float64
	MetricsBuckets   string

	PprofEnabled bool
	PprofUser    string
	PprofPass    string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	dataDir := valueOrDefault(k.String("DATA_DIR"), "data")
	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DataDir:            dataDir,
		CatalogFile:        dataFile(dataDir, k.String("CATALOG_FILE"), "catalog.csv"),
		OffersFile:         dataFile(dataDir, k.String("OFFERS_FILE"), "offers.csv"),
		BundlesFile:        dataFile(dataDir, k.String("BUNDLES_FILE"), "bundles.csv"),
		CouponsFile:        dataFile(dataDir, k.String("COUPONS_FILE"), "coupons.csv"),
		CurrencyCode:       strings.ToUpper(valueOrDefault(k.String("CURRENCY_CODE"), "EUR")),
		RateLimit:          valueOrDefault(k.String("RATE_LIMIT"), "120-M"),
		RateLimitRedisURL:  strings.TrimSpace(k.String("RATE_LIMIT_REDIS_URL")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		ShutdownTimeout:    parseDuration(k.String("SHUTDOWN_TIMEOUT"), "10s"),

		LogFormat:        valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
		LogLevel:         valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
		MetricsNamespace: valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "checkout"),
		MetricsEnabled:   parseBoolDefault(k.String("OBS_ENABLE_PROMETHEUS"), true),
		TracingEnabled:   parseBoolDefault(k.String("OBS_ENABLE_TRACING"), false),
		OTLPEndpoint:     strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
		MetricsBuckets:   strings.TrimSpace(k.String("OBS_METRICS_BUCKETS_MS")),

		PprofEnabled: parseBoolDefault(k.String("OBS_ENABLE_PPROF"), false),
		PprofUser:    strings.TrimSpace(k.String("SECURE_PPROF_BASIC_AUTH_USER")),
		PprofPass:    strings.TrimSpace(k.String("SECURE_PPROF_BASIC_AUTH_PASS")),
	}

	seed, err := parseInt(k.String("LOYALTY_SEED_POINTS"), 0)
	if err != nil || seed < 0 {
		return nil, fmt.Errorf("LOYALTY_SEED_POINTS must be a non-negative integer: %w", ErrInvalidConfig)
	}
	cfg.LoyaltySeedPoints = seed

	ratio, err := parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1.0)
	if err != nil || ratio < 0 || ratio > 1 {
		return nil, fmt.Errorf("OBS_TRACING_SAMPLING_RATIO must be within 0..1: %w", ErrInvalidConfig)
	}
	cfg.TracingSampling = ratio

	if len(cfg.CurrencyCode) != 3 {
		return nil, fmt.Errorf("CURRENCY_CODE must be a 3-letter code: %w", ErrInvalidConfig)
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// dataFile resolves an explicit file setting or falls back to name inside dir.
// Relative explicit paths are taken as-is.
func dataFile(dir, value, name string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return filepath.Join(dir, name)
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "t", "true", "yes", "on":
		return true
	case "0", "f", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseInt(value string, fallback int64) (int64, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	return strconv.ParseInt(strings.TrimSpace(value), 10, 64)
}

func parseFloat(value string, fallback float64) (float64, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(strings.TrimSpace(value), 64)
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
