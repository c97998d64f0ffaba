package shared

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	HTTPTimeout time.Duration
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	CacheTTL    time.Duration

	Workers       int
	SourceTimeout time.Duration
	SweepInterval time.Duration
	SendAlerts    bool

	MaxPagesPerSource int
	BBBComplaints     bool
	RequestsPerSecond float64
	UserAgent         string
	GooglePlacesBase  string
	YelpFusionBase    string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
}

// Load reads the environment, after merging a .env file from the working
// directory when one exists. Variables already set win over the file.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg(".env not loaded")
	}

	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		HTTPTimeout: time.Duration(atoi("HTTP_REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/reviewhound?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,

		Workers:       atoi("INGEST_WORKERS", 4),
		SourceTimeout: time.Duration(atoi("SOURCE_TIMEOUT_SECONDS", 120)) * time.Second,
		SweepInterval: time.Duration(atof("SWEEP_INTERVAL_HOURS", 6) * float64(time.Hour)),
		SendAlerts:    atob("SEND_ALERTS", true),

		MaxPagesPerSource: atoi("MAX_PAGES_PER_SOURCE", 3),
		BBBComplaints:     atob("BBB_INCLUDE_COMPLAINTS", false),
		RequestsPerSecond: atof("REQUESTS_PER_SECOND", 0.5),
		UserAgent:         env("USER_AGENT", "Mozilla/5.0 (compatible; reviewhound/1.0)"),
		GooglePlacesBase:  env("GOOGLE_PLACES_BASE_URL", "https://maps.googleapis.com/maps/api"),
		YelpFusionBase:    env("YELP_FUSION_BASE_URL", "https://api.yelp.com/v3"),

		SMTPHost:     env("SMTP_HOST", ""),
		SMTPPort:     atoi("SMTP_PORT", 587),
		SMTPUser:     env("SMTP_USER", ""),
		SMTPPassword: env("SMTP_PASSWORD", ""),
		SMTPFrom:     env("SMTP_FROM", ""),
	}
	if c.Workers <= 0 {
		log.Warn().Int("workers", c.Workers).Msg("INGEST_WORKERS must be positive; using 1")
		c.Workers = 1
	}
	if c.SendAlerts && c.SMTPHost == "" {
		log.Warn().Msg("SMTP_HOST is empty; alerts will only be logged")
	}
	return c
}

func env(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func atoi(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
		log.Warn().Str("key", k).Str("value", v).Msg("not an integer; using default")
	}
	return def
}

func atof(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
		log.Warn().Str("key", k).Str("value", v).Msg("not a number; using default")
	}
	return def
}

func atob(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
		log.Warn().Str("key", k).Str("value", v).Msg("not a boolean; using default")
	}
	return def
}
