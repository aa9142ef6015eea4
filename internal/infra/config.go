package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv            string
	Port              string
	StoreDriver       string
	DatabaseURL       string
	DBMaxConns        int
	JWTSecret         string
	SessionTTL        time.Duration
	RedisURL          string
	IdempotencyTTL    time.Duration
	GeoIPDBPath       string
	DefaultLocale     string
	Currency          string
	MinDonation       decimal.Decimal
	PaymentProvider   string
	ModeratorIDs      []string
	AllowedOrigins    []string
	SiteTitle         string
	SiteHeadline      string
	HTTPReadTimeout   time.Duration
	HTTPWriteTimeout  time.Duration
	HTTPIdleTimeout   time.Duration
	RateLimitPerMin   int
	ReconcileInterval time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "8080"),
		StoreDriver:       strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		DBMaxConns:        getEnvInt("DB_MAX_CONNS", 10),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		SessionTTL:        time.Hour * time.Duration(getEnvInt("SESSION_TTL_HOURS", 24)),
		RedisURL:          os.Getenv("REDIS_URL"),
		IdempotencyTTL:    time.Hour * time.Duration(getEnvInt("IDEMPOTENCY_TTL_HOURS", 24)),
		GeoIPDBPath:       os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:     getEnv("DEFAULT_LOCALE", "en"),
		Currency:          strings.ToUpper(getEnv("CURRENCY", "USD")),
		PaymentProvider:   strings.ToLower(os.Getenv("PAYMENT_PROVIDER")),
		ModeratorIDs:      getEnvList("MODERATOR_IDS"),
		AllowedOrigins:    getEnvList("CORS_ALLOWED_ORIGINS"),
		SiteTitle:         getEnv("SITE_TITLE", "Pool Party"),
		SiteHeadline:      getEnv("SITE_HEADLINE", "Chip in together"),
		HTTPReadTimeout:   time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:  time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:   time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:   getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		ReconcileInterval: time.Second * time.Duration(getEnvInt("RECONCILE_INTERVAL_SECONDS", 300)),
	}

	minDonation, err := getEnvDecimal("MIN_DONATION", decimal.NewFromInt(1))
	if err != nil {
		return nil, err
	}
	if minDonation.IsNegative() {
		return nil, fmt.Errorf("MIN_DONATION must not be negative")
	}
	cfg.MinDonation = minDonation

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	case StoreDriverMemory:
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDecimal(key string, fallback decimal.Decimal) (decimal.Decimal, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: invalid amount %q", key, v)
	}
	return d.Round(2), nil
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
