package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv          string
	HTTPAddr        string
	MetricsAddr     string
	MySQLDSN        string
	RedisAddr       string
	RedisDB         int
	RedisPass       string
	MarketplaceBase string
	MarketplaceKey  string
	Workers         int
	OwnerIDs        []int64
	CacheTTL        time.Duration
	FilterPolicy    string // open|closed
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
		AppEnv:          env("APP_ENV", "prod"),
		HTTPAddr:        env("HTTP_ADDR", ":8080"),
		MetricsAddr:     env("METRICS_ADDR", ":9100"),
		MySQLDSN:        env("MYSQL_DSN", "root:root@tcp(localhost:3306)/rentmatch?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:       env("REDIS_ADDR", "localhost:6379"),
		RedisDB:         atoi("REDIS_DB", 0),
		RedisPass:       env("REDIS_PASSWORD", ""),
		MarketplaceBase: env("MARKETPLACE_BASE_URL", "https://api.rentmatch.example"),
		MarketplaceKey:  env("MARKETPLACE_API_KEY", ""),
		Workers:         atoi("SYNC_WORKERS", 8),
		OwnerIDs:        int64List("SYNC_OWNER_IDS"),
		CacheTTL:        time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		FilterPolicy:    env("FILTER_FAIL_POLICY", "open"),
	}
	if c.MarketplaceKey == "" {
		log.Warn().Msg("MARKETPLACE_API_KEY is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func int64List(k string) []int64 {
	raw := os.Getenv(k)
	if raw == "" {
		return nil
	}
	var out []int64
	for _, s := range strings.Split(raw, ",") {
		if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			out = append(out, n)
		}
	}
	return out
}
