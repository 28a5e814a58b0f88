package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yourorg/wardrobe/internal/featureflags"
	"github.com/yourorg/wardrobe/internal/handler"
	"github.com/yourorg/wardrobe/internal/infrastructure/logger"
	"github.com/yourorg/wardrobe/internal/infrastructure/redis"
	"github.com/yourorg/wardrobe/internal/observability/metrics"
	"github.com/yourorg/wardrobe/internal/observability/tracing"
	"github.com/yourorg/wardrobe/internal/reliability/retry"
	"github.com/yourorg/wardrobe/internal/repository"
	"github.com/yourorg/wardrobe/internal/security/audit"
	"github.com/yourorg/wardrobe/internal/security/auth"
	"github.com/yourorg/wardrobe/internal/security/authorization"
	"github.com/yourorg/wardrobe/internal/security/middleware"
	"github.com/yourorg/wardrobe/internal/security/ratelimit"
	"github.com/yourorg/wardrobe/internal/service"
	"github.com/yourorg/wardrobe/internal/worker"
	"github.com/yourorg/wardrobe/pkg/config"
	"github.com/yourorg/wardrobe/pkg/database"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting wardrobe server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize tracing (no-op unless an OTLP endpoint is set)
	shutdownTracing, err := tracing.Init(ctx, log, "wardrobe", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer shutdownTracing(context.Background())

	// 4. Connect to Postgres with retries, then ensure the schema
	db, err := retry.Do(ctx, retry.DefaultConfig(), log, "postgres connect", func(ctx context.Context) (*database.ConnectionPool, error) {
		return database.NewConnectionPool(ctx, cfg.DatabaseURL, log)
	})
	if err != nil {
		log.Error("failed to connect to Postgres", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Error("failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 5. Initialize Redis client. The shared catalog cache is optional
	// and can be disabled with a feature flag.
	var redisClient *redis.Client
	if !featureflags.Enabled(featureflags.DisableRedisCache) {
		redisClient, err = redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Warn("redis unavailable, catalog cache disabled", slog.String("error", err.Error()))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	// 6. Initialize repositories
	clothingRepo := repository.NewPostgresClothingRepository(db.GetDB(), log)
	userRepo := repository.NewPostgresUserRepository(db.GetDB(), log)
	outfitRepo := repository.NewPostgresOutfitRepository(db.GetDB(), log)

	// 7. Initialize services
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, "wardrobe")
	authService := service.NewAuthService(userRepo, tokenManager, time.Duration(cfg.TokenExpiryMinutes)*time.Minute, log)
	outfitService := service.NewOutfitService(clothingRepo, outfitRepo, log)
	catalogService := service.NewCatalogService(clothingRepo, userRepo, redisClient, cfg.CategoryNames, cfg.CatalogCacheTTL, cfg.WardrobeCacheTTL, log)
	adminService := service.NewAdminService(clothingRepo, userRepo, outfitRepo, catalogService, log)

	// 7a. Initialize security components
	rateLimiter := ratelimit.NewLimiter(100, time.Minute) // 100 requests per minute per user
	auditLogger := audit.NewLogger(log)
	authorizer := authorization.NewAuthorizer(cfg.AdminUsername, log)

	// 8. Initialize handlers
	authHandler := handler.NewAuthHandler(authService, auditLogger, log)
	wardrobeHandler := handler.NewWardrobeHandler(catalogService, log)
	adminHandler := handler.NewAdminHandler(adminService, auditLogger, cfg.CatalogImportPath, log)
	healthHandler := handler.NewHealthHandler(db, redisClient, log)
	outfitSocket := handler.NewOutfitSocketHandler(outfitService, userRepo, auditLogger, log, cfg.CORSAllowedOrigins, cfg.WSReceiveTimeout)

	// 9. Setup HTTP routes
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/wardrobe", wardrobeHandler.Wardrobe)
	mux.HandleFunc("GET /api/catalog", wardrobeHandler.Catalog)
	mux.HandleFunc("GET /api/admin/users", adminHandler.Users)
	mux.HandleFunc("POST /api/admin/import", adminHandler.Import)
	mux.HandleFunc("POST /api/admin/assign", adminHandler.Assign)
	mux.HandleFunc("POST /api/admin/assign-all", adminHandler.AssignAll)
	mux.HandleFunc("POST /api/admin/reset-outfits", adminHandler.ResetOutfits)
	mux.HandleFunc("POST /api/admin/reset-ownership", adminHandler.ResetOwnership)
	mux.HandleFunc("POST /api/admin/reset-catalog", adminHandler.ResetCatalog)
	mux.Handle("GET /ws/outfits", outfitSocket)
	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)
	mux.Handle("/metrics", promhttp.Handler())

	// Prometheus and otel instrumentation wrap a response writer that
	// does not implement http.Hijacker, which breaks the websocket
	// upgrade. Websocket traffic goes to the mux directly.
	instrumented := metrics.HTTPMetricsMiddleware(otelhttp.NewHandler(mux, "wardrobe-http"))
	routed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/ws/") {
			mux.ServeHTTP(w, r)
			return
		}
		instrumented.ServeHTTP(w, r)
	})

	// CORS middleware honoring configured origins
	handlerWithCORS := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(cfg.CORSAllowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if len(cfg.CORSAllowedOrigins) > 0 {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowedOrigins[0])
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		routed.ServeHTTP(w, r)
	})

	// Chain middleware: request ID -> JWT -> rate limit -> admin -> CORS
	rootHandler := withRequestID(
		middleware.JWTMiddleware(tokenManager, log)(
			middleware.RateLimitMiddleware(rateLimiter, log)(
				middleware.AdminMiddleware(authorizer, auditLogger, log)(
					middleware.ValidateJSONContentType(log)(handlerWithCORS),
				),
			),
		),
		log,
	)

	// 10. Start inventory stats worker in background
	if !featureflags.Enabled(featureflags.DisableStatsWorker) {
		statsWorker := worker.NewStatsWorker(clothingRepo, userRepo, outfitRepo, log, cfg.StatsInterval)
		go statsWorker.Start(ctx)
	}

	// 11. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("auth", "jwt"),
		slog.String("admin_user", cfg.AdminUsername),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info("shutdown signal received")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // Stop stats worker
	rateLimiter.Stop()
	log.Info("server stopped")
}

type requestIDKey struct{}

// withRequestID attaches a request ID to the context and response headers for traceability
func withRequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := generateRequestID()
		w.Header().Set("X-Request-ID", reqID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		log.Info("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration_ms", time.Since(start)),
		)
	})
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

func generateRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}
	return fmt.Sprintf("req-%d", time.Now().UnixNano())
}
