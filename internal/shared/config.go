package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv       string
	HTTPAddr     string
	MetricsAddr  string
	MySQLDSN     string
	CacheBackend string // memory | redis
	RedisAddr    string
	RedisDB      int
	RedisPass    string
	FeedBase     string
	FeedKey      string
	Workers      int
	ExpCount     int
	CacheTTL     time.Duration
	JWTSecret    string
	TokenTTL     time.Duration
	MaxPhotoKB   int
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:       env("APP_ENV", "prod"),
		HTTPAddr:     env("HTTP_ADDR", ":8080"),
		MetricsAddr:  env("METRICS_ADDR", ":9100"),
		MySQLDSN:     env("MYSQL_DSN", "root:root@tcp(localhost:3306)/tablebook?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		CacheBackend: env("CACHE_BACKEND", "memory"),
		RedisAddr:    env("REDIS_ADDR", "localhost:6379"),
		RedisPass:    env("REDIS_PASSWORD", ""),
		RedisDB:      atoi("REDIS_DB", 0),
		FeedBase:     env("FEED_BASE_URL", "https://partners.tablebook.example/v2"),
		FeedKey:      env("FEED_API_KEY", ""),
		Workers:      atoi("INGEST_WORKERS", 8),
		ExpCount:     atoi("INGEST_EXPERIENCE_COUNT", 50),
		CacheTTL:     time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		JWTSecret:    env("JWT_SECRET", ""),
		TokenTTL:     time.Duration(atoi("TOKEN_TTL_MINUTES", 24*60)) * time.Minute,
		MaxPhotoKB:   atoi("MAX_PHOTO_KB", 2048),
	}
	if c.FeedKey == "" {
		log.Warn().Msg("FEED_API_KEY is empty")
	}
	if c.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// FeedIDs returns the restaurant ids the ingestor should pull, taken from
// FEED_IDS (comma-separated) when set.
func FeedIDs() []int64 {
	raw := os.Getenv("FEED_IDS")
	if raw == "" {
		return DefaultFeedIDs
	}
	var out []int64
	for _, p := range strings.Split(raw, ",") {
		if n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64); err == nil {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return DefaultFeedIDs
	}
	return out
}
