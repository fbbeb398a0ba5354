package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"report-gateway/middleware/admission/domain"
)

type config struct {
	listenAddr string

	authSecret string
	authHeader string

	short      domain.WindowPolicy
	long       domain.WindowPolicy
	evictEmpty bool
	sweepEvery time.Duration
	trustXFF   bool
	addHeaders bool

	concurrencyMax     int
	concurrencyTimeout time.Duration

	mailgunAPIKey  string
	mailgunDomain  string
	mailgunBaseURL string
	toAddress      string
	relayRPS       float64
	relayBurst     int
	relayTimeout   time.Duration

	redisAddr     string
	redisPassword string
	redisDB       int

	rateStatsEnabled   bool
	rateStatsPrefix    string
	rateStatsTTL       time.Duration
	rateStatsBucket    string
	rateStatsTrackKeys bool

	counterKey     string
	reportMaxBytes int64
	corsOrigins    []string
}

func (c config) mailgunEnabled() bool {
	return c.mailgunAPIKey != "" && c.mailgunDomain != "" && c.toAddress != ""
}

func readConfig() (config, error) {
	var (
		cfg  config
		errs []error
	)
	must := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	var err error

	cfg.listenAddr = getenvDefault("LISTEN_ADDR", ":"+getenvDefault("PORT", "10000"))

	// segredo vazio não impede o boot: toda requisição responde 500 até corrigir.
	cfg.authSecret = os.Getenv("AUTH_SECRET")
	cfg.authHeader = getenvDefault("AUTH_HEADER", "X-Gehaltsmelder-Auth")

	cfg.short.Window, err = getenvWindow("RATE_SHORT_WINDOW", 60*time.Second)
	must(err)
	cfg.short.Max, err = getenvInt("RATE_SHORT_MAX", 5)
	must(err)
	cfg.long.Window, err = getenvWindow("RATE_LONG_WINDOW", 24*time.Hour)
	must(err)
	cfg.long.Max, err = getenvInt("RATE_LONG_MAX", 50)
	must(err)
	cfg.evictEmpty, err = getenvBool("RATE_EVICT_EMPTY", false)
	must(err)
	cfg.sweepEvery, err = getenvDuration("RATE_SWEEP_EVERY", 10*time.Minute)
	must(err)
	cfg.trustXFF, err = getenvBool("TRUST_XFF", false)
	must(err)
	cfg.addHeaders, err = getenvBool("ADD_RATELIMIT_HEADERS", false)
	must(err)

	cfg.concurrencyMax, err = getenvInt("CONCURRENCY_MAX", 100)
	must(err)
	cfg.concurrencyTimeout, err = getenvDuration("CONCURRENCY_TIMEOUT", 0)
	must(err)

	cfg.mailgunAPIKey = os.Getenv("MAILGUN_API_KEY")
	cfg.mailgunDomain = os.Getenv("MAILGUN_DOMAIN")
	cfg.mailgunBaseURL = os.Getenv("MAILGUN_BASE_URL")
	cfg.toAddress = os.Getenv("TO_ADDRESS")
	cfg.relayRPS, err = getenvFloat("RELAY_RPS", 1)
	must(err)
	cfg.relayBurst, err = getenvInt("RELAY_BURST", 5)
	must(err)
	cfg.relayTimeout, err = getenvDuration("RELAY_TIMEOUT", 15*time.Second)
	must(err)

	cfg.redisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.redisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.redisDB, err = getenvInt("REDIS_DB", 0)
	must(err)

	cfg.rateStatsEnabled, err = getenvBool("RATE_STATS_ENABLED", false)
	must(err)
	cfg.rateStatsPrefix = getenvDefault("RATE_STATS_PREFIX", "admission:stats")
	cfg.rateStatsTTL, err = getenvDuration("RATE_STATS_TTL", 48*time.Hour)
	must(err)
	cfg.rateStatsBucket = getenvDefault("RATE_STATS_BUCKET", "minute")
	cfg.rateStatsTrackKeys, err = getenvBool("RATE_STATS_TRACK_KEYS", false)
	must(err)

	cfg.counterKey = getenvDefault("COUNTER_KEY", "reports:total")
	maxBytes, err := getenvInt("REPORT_MAX_BYTES", 10<<20)
	must(err)
	cfg.reportMaxBytes = int64(maxBytes)
	cfg.corsOrigins = splitList(getenvDefault("CORS_ORIGINS", "*"))

	if len(errs) > 0 {
		return config{}, errors.Join(errs...)
	}

	if err := cfg.short.Validate(); err != nil {
		return config{}, fmt.Errorf("short window: %w", err)
	}
	if err := cfg.long.Validate(); err != nil {
		return config{}, fmt.Errorf("long window: %w", err)
	}
	if cfg.rateStatsEnabled && cfg.redisAddr == "" {
		return config{}, errors.New("REDIS_ADDR is required when RATE_STATS_ENABLED=true")
	}
	if cfg.concurrencyMax < 0 {
		return config{}, errors.New("CONCURRENCY_MAX must be >= 0")
	}
	if cfg.relayRPS < 0 {
		return config{}, errors.New("RELAY_RPS must be >= 0")
	}
	if cfg.reportMaxBytes <= 0 {
		return config{}, errors.New("REPORT_MAX_BYTES must be > 0")
	}
	return cfg, nil
}

func getenvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", k, err)
	}
	return i, nil
}

func getenvFloat(k string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", k, err)
	}
	return f, nil
}

func getenvBool(k string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", k, err)
	}
	return b, nil
}

func getenvDuration(k string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", k, err)
	}
	return d, nil
}

// getenvWindow aceita duração Go ("90s", "24h") ou segundos inteiros ("86400").
func getenvWindow(k string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", k, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
