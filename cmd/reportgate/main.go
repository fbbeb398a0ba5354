package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"report-gateway/metrics"
	"report-gateway/middleware/admission"
	"report-gateway/middleware/admission/domain"
	"report-gateway/middleware/admission/infra"
	"report-gateway/report"
	"report-gateway/report/application"
	reportdomain "report-gateway/report/domain"
	reportinfra "report-gateway/report/infra"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	_ = godotenv.Load()

	logger := newLogger(os.Stderr, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	slog.SetDefault(logger)

	cfg, err := readConfig()
	if err != nil {
		logger.Error("config error", "error", err)
		os.Exit(1)
	}
	if cfg.authSecret == "" {
		logger.Error("AUTH_SECRET is not set; every report request will fail with 500 until it is configured")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var rdb *redis.Client
	if cfg.redisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.redisAddr,
			Password: cfg.redisPassword,
			DB:       cfg.redisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		pingCancel()
		if err != nil {
			logger.Error("redis ping error", "addr", cfg.redisAddr, "error", err)
			os.Exit(1)
		}
	}

	m := metrics.New()

	limiter := infra.NewHistoryStore(cfg.short, cfg.long,
		infra.WithEvictEmpty(cfg.evictEmpty),
		infra.WithSweepEvery(cfg.sweepEvery),
	)
	limiter.StartJanitor(ctx)
	m.GaugeFunc("tracked_clients", "Clients with a request history held in memory.", func() float64 {
		return float64(limiter.Len())
	})

	var statsReader admission.StatsReader
	stats := infra.TeeStats{infra.NewPrometheusStatsStore(m.AdmissionDecisions)}
	if cfg.rateStatsEnabled {
		redisStats := infra.NewRedisStatsStore(rdb,
			infra.WithStatsPrefix(cfg.rateStatsPrefix),
			infra.WithStatsTTL(cfg.rateStatsTTL),
			infra.WithStatsBucket(cfg.rateStatsBucket),
			infra.WithStatsTrackKeys(cfg.rateStatsTrackKeys),
		)
		stats = append(stats, redisStats)
		statsReader = redisStats
	} else {
		memStats := infra.NewMemoryStatsStore()
		stats = append(stats, memStats)
		statsReader = memStats
	}

	var notifier reportdomain.Notifier
	if cfg.mailgunEnabled() {
		notifier = reportinfra.NewMailgunNotifier(reportinfra.MailgunConfig{
			APIKey:  cfg.mailgunAPIKey,
			Domain:  cfg.mailgunDomain,
			To:      cfg.toAddress,
			BaseURL: cfg.mailgunBaseURL,
			RPS:     cfg.relayRPS,
			Burst:   cfg.relayBurst,
		},
			reportinfra.WithHTTPClient(&http.Client{Timeout: cfg.relayTimeout}),
			reportinfra.WithMailgunLogger(logger),
		)
	} else {
		logger.Warn("MAILGUN_API_KEY, MAILGUN_DOMAIN or TO_ADDRESS missing; reports are only logged")
		notifier = reportinfra.LogNotifier{Logger: logger}
	}

	var counter reportdomain.Counter = &reportinfra.MemoryCounter{}
	if rdb != nil {
		counter = reportinfra.NewRedisCounter(rdb, cfg.counterKey)
	}

	keyFn := admission.DefaultKeyFunc(cfg.trustXFF)

	admit := admission.Middleware(admission.Options{
		Secret:              cfg.authSecret,
		Limiter:             limiter,
		Clock:               domain.SystemClock,
		Stats:               stats,
		KeyFn:               keyFn,
		CredentialHeader:    cfg.authHeader,
		AddRateLimitHeaders: cfg.addHeaders,
		Logger:              logger,
	})
	inflightOpts := admission.ConcurrencyOptions{
		AcquireTimeout: cfg.concurrencyTimeout,
		Logger:         logger,
	}
	if cfg.concurrencyMax > 0 {
		pool := infra.NewChanPool(cfg.concurrencyMax)
		inflightOpts.Pool = pool
		m.GaugeFunc("inflight_submissions", "Report submissions currently holding a slot.", func() float64 {
			return float64(pool.InUse())
		})
	}
	inflight := admission.ConcurrencyMiddleware(inflightOpts)

	submit := report.Handler(report.Options{
		Service: application.Service{
			Notifier: notifier,
			Counter:  counter,
			Clock:    domain.SystemClock,
			Observer: m,
			Logger:   logger,
		},
		MaxBodyBytes: cfg.reportMaxBytes,
		ClientFn:     keyFn,
		Logger:       logger,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", cfg.authHeader},
		ExposedHeaders: []string{"Retry-After"},
		MaxAge:         300,
	}))
	r.Get("/", report.Home)
	r.Handle("/metrics", m.Handler())
	r.Route("/stats", func(r chi.Router) {
		r.Method(http.MethodGet, "/admission", admission.StatsHandler(statsReader, logger))
		r.Method(http.MethodGet, "/reports", report.TotalHandler(counter, logger))
	})
	r.With(admit, inflight).Post("/report", submit.ServeHTTP)

	srv := &http.Server{
		Addr:              cfg.listenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("report gateway listening", "addr", cfg.listenAddr)
	logger.Info("admission",
		"short", cfg.short.Max, "short_window", cfg.short.Window,
		"long", cfg.long.Max, "long_window", cfg.long.Window,
		"evict_empty", cfg.evictEmpty, "trust_xff", cfg.trustXFF,
	)
	logger.Info("relay", "mailgun", cfg.mailgunEnabled(), "rps", cfg.relayRPS, "burst", cfg.relayBurst)
	logger.Info("redis", "enabled", rdb != nil, "rate_stats", cfg.rateStatsEnabled, "counter_key", cfg.counterKey)
	logger.Info("concurrency", "max", cfg.concurrencyMax, "acquire_timeout", cfg.concurrencyTimeout)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
