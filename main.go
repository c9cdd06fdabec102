package main

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"xp-dashboard/internal/auth"
	"xp-dashboard/internal/observability/metrics"
	"xp-dashboard/internal/platform"
	"xp-dashboard/internal/profile/application"
	"xp-dashboard/internal/profile/domain"
	profilememory "xp-dashboard/internal/profile/infrastructure/memory"
	profilepostgres "xp-dashboard/internal/profile/infrastructure/postgres"
	profilehttp "xp-dashboard/internal/profile/interfaces/http"
	"xp-dashboard/internal/proxy"
	"xp-dashboard/internal/session"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("env file error: %v", err)
	}
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	var (
		db          *sql.DB
		snapshots domain.SnapshotRepository
		pruner    domain.SnapshotPruner
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("db open error: %v", err)
		}
		defer db.Close()

		if err := db.Ping(); err != nil {
			logger.Fatalf("db ping error: %v", err)
		}
		pgSnapshots, err := profilepostgres.NewSnapshotRepository(db)
		if err != nil {
			logger.Fatalf("snapshot repository error: %v", err)
		}
		if err := pgSnapshots.EnsureSchema(context.Background()); err != nil {
			logger.Fatalf("snapshot schema error: %v", err)
		}
		snapshots, pruner = pgSnapshots, pgSnapshots
	} else {
		memSnapshots := profilememory.NewSnapshotRepository()
		snapshots, pruner = memSnapshots, memSnapshots
	}

	metrics.Init(db, logger)

	dashboardCfg, err := application.LoadConfig(cfg.DashboardConfig)
	if err != nil {
		logger.Fatalf("dashboard config error: %v", err)
	}

	client, err := platform.NewClient(cfg.PlatformBaseURL,
		platform.WithTimeout(cfg.UpstreamTimeout),
		platform.WithPaths(cfg.AuthPath, cfg.GraphQLPath),
		platform.WithLatencyObserver(metrics.ObserveUpstream),
	)
	if err != nil {
		logger.Fatalf("platform client error: %v", err)
	}

	sessionStore := session.NewMemoryStore()
	sessions, err := session.NewManager(sessionStore, client, cfg.SessionTTL, cfg.SessionRememberTTL)
	if err != nil {
		logger.Fatalf("session manager error: %v", err)
	}

	dashboard, err := application.NewDashboard(client, dashboardCfg, logger,
		application.WithSnapshots(snapshots, cfg.CacheTTL),
	)
	if err != nil {
		logger.Fatalf("dashboard error: %v", err)
	}

	handler, err := profilehttp.NewHandler(dashboard, sessions, logger, cfg.SecureCookies)
	if err != nil {
		logger.Fatalf("dashboard handler error: %v", err)
	}

	go runSweeper(context.Background(), sessionStore, pruner, cfg.CacheTTL, cfg.SweepInterval, logger)

	exempt := []string{"/healthz", "/metrics", "/api/v1/session"}
	router := profilehttp.NewRouter(handler)
	if cfg.ProxyEnabled {
		corsProxy, err := proxy.New(proxy.Config{
			Upstream:       cfg.PlatformBaseURL,
			AuthPath:       cfg.AuthPath,
			GraphQLPath:    cfg.GraphQLPath,
			AllowedOrigins: cfg.CORSAllowedOrigins,
			Timeout:        cfg.UpstreamTimeout,
		}, logger)
		if err != nil {
			logger.Fatalf("proxy error: %v", err)
		}
		router.Handle(proxy.SignInRoute, corsProxy)
		router.Handle(proxy.GraphQLRoute, corsProxy)
		exempt = append(exempt, proxy.SignInRoute, proxy.GraphQLRoute)
	}
	router.Handle("/metrics", promhttp.Handler())
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	policy := auth.NewDefaultPolicy(exempt, nil)
	authMiddleware := auth.NewMiddleware(policy, sessions)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           loggingMiddleware(authMiddleware.Wrap(router), logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL        string
	HTTPAddr           string
	PlatformBaseURL    string
	AuthPath           string
	GraphQLPath        string
	UpstreamTimeout    time.Duration
	CacheTTL           time.Duration
	SessionTTL         time.Duration
	SessionRememberTTL time.Duration
	SweepInterval      time.Duration
	SecureCookies      bool
	ProxyEnabled       bool
	CORSAllowedOrigins []string
	DashboardConfig    string
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:        getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:           getenvDefault("HTTP_ADDR", ":8080"),
		PlatformBaseURL:    getenvDefault("PLATFORM_BASE_URL", platform.DefaultBaseURL),
		AuthPath:           getenvDefault("AUTH_PATH", platform.DefaultAuthPath),
		GraphQLPath:        getenvDefault("GRAPHQL_PATH", platform.DefaultGraphQLPath),
		UpstreamTimeout:    getenvDuration("UPSTREAM_TIMEOUT", 15*time.Second),
		CacheTTL:           getenvDuration("CACHE_TTL", 10*time.Minute),
		SessionTTL:         getenvDuration("SESSION_TTL", time.Hour),
		SessionRememberTTL: getenvDuration("SESSION_REMEMBER_TTL", 720*time.Hour),
		SweepInterval:      getenvDuration("SWEEP_INTERVAL", 5*time.Minute),
		SecureCookies:      getenvBoolDefault("SECURE_COOKIES", false),
		ProxyEnabled:       getenvBoolDefault("PROXY_ENABLED", true),
		CORSAllowedOrigins: splitList(getenvDefault("CORS_ALLOWED_ORIGINS", "")),
		DashboardConfig:    getenvDefault("DASHBOARD_CONFIG", ""),
	}
	if cfg.PlatformBaseURL == "" {
		log.Fatal("PLATFORM_BASE_URL is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvBoolDefault(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// runSweeper drops expired sessions and snapshots older than the cache ttl.
func runSweeper(ctx context.Context, sessions *session.MemoryStore, snapshots domain.SnapshotPruner, cacheTTL, interval time.Duration, logger *log.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			sweep(ctx, now, sessions, snapshots, cacheTTL, logger)
		}
	}
}

func sweep(ctx context.Context, now time.Time, sessions *session.MemoryStore, snapshots domain.SnapshotPruner, cacheTTL time.Duration, logger *log.Logger) {
	if n := sessions.Sweep(now); n > 0 {
		logger.Printf("session sweep: removed=%d", n)
	}
	if snapshots == nil || cacheTTL <= 0 {
		return
	}
	removed, err := snapshots.DeleteOlderThan(ctx, now.Add(-cacheTTL))
	if err != nil {
		logger.Printf("snapshot sweep error: %v", err)
		return
	}
	if removed > 0 {
		logger.Printf("snapshot sweep: removed=%d", removed)
	}
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Flush lets streamed proxy responses through the status recorder.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
