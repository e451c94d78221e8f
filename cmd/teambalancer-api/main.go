package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/teambalancer/teambalancer-api/internal/config"
	"github.com/teambalancer/teambalancer-api/internal/cycle"
	"github.com/teambalancer/teambalancer-api/internal/database"
	"github.com/teambalancer/teambalancer-api/internal/handlers"
	"github.com/teambalancer/teambalancer-api/internal/metrics"
	authmw "github.com/teambalancer/teambalancer-api/internal/middleware"
	"github.com/teambalancer/teambalancer-api/internal/models"
	"github.com/teambalancer/teambalancer-api/internal/notify"
	"github.com/teambalancer/teambalancer-api/internal/oauth"
	"github.com/teambalancer/teambalancer-api/internal/oracle"
	"github.com/teambalancer/teambalancer-api/internal/scheduler"
	"github.com/teambalancer/teambalancer-api/internal/services"
	"github.com/teambalancer/teambalancer-api/internal/sse"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		fatal(logger, "failed to connect to database", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		fatal(logger, "failed to run migrations", err)
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			fatal(logger, "failed to connect to redis", err)
		}
	}

	cycles, err := cycle.NewCalculator(cfg.Cycle.Epoch, cfg.Cycle.LengthDays)
	if err != nil {
		fatal(logger, "invalid cycle configuration", err)
	}

	distributor, err := oracle.New(ctx, cfg.Oracle, logger)
	if err != nil {
		fatal(logger, "failed to create distribution oracle", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.RegisterCollectors(reg)

	var notifier notify.Notifier = notify.Nop{}
	if cfg.Webhook.DiscordURL != "" {
		notifier = notify.NewDiscordNotifier(cfg.Webhook, cfg.DashboardURL)
	}

	hub := sse.NewHub()
	go hub.Run(ctx)

	var states oauth.StateStore
	if redisClient != nil {
		states = oauth.NewRedisStateStore(redisClient, "teambalancer:oauth:")
	} else {
		memStates := oauth.NewMemoryStateStore()
		go memStates.RunSweeper(ctx, time.Minute)
		states = memStates
	}

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	userService := services.NewUserService(db, logger)
	tokenService := services.NewTokenService(db)
	accessService := services.NewAccessService(db, cfg.UnrestrictedAccessPolicy)
	classService := services.NewUserClassService(db)
	portionService := services.NewWorkPortionService(db, notifier, hub, logger)
	preferenceService := services.NewPreferenceService(db, accessService)
	assignmentService := services.NewAssignmentService(db, distributor, notifier, hub, logger)

	authHandler := handlers.NewAuthHandler(cfg, states, userService, tokenService, jwtService)
	userHandler := handlers.NewUserHandler(userService)
	classHandler := handlers.NewUserClassHandler(classService)
	portionHandler := handlers.NewWorkPortionHandler(portionService, accessService, userService)
	preferenceHandler := handlers.NewPreferenceHandler(preferenceService)
	assignmentHandler := handlers.NewAssignmentHandler(assignmentService, cycles)
	sseHandler := handlers.NewSSEHandler(hub)
	healthHandler := handlers.NewHealthHandler(db, reg)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())

	app.Get("/health", healthHandler.Health)
	app.Get("/metrics", healthHandler.Metrics)

	// One limiter shared by every group. It runs after Auth where Auth is
	// mounted so signed-in callers are limited per user.
	var limit drift.HandlerFunc
	if redisClient != nil {
		limit = authmw.RedisRateLimit(redisClient, cfg.RateLimit)
	} else {
		memLimiter := authmw.NewMemoryLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		go memLimiter.RunSweeper(ctx, time.Minute, 10*time.Minute)
		limit = authmw.RateLimit(memLimiter, cfg.RateLimit.TrustProxy)
	}

	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Use(limit)
	auth.Get("/:provider/consent", authHandler.GetConsentURL)
	auth.Get("/:provider/callback", authHandler.Callback)
	auth.Post("/exchange", authHandler.ExchangeCode)
	auth.Post("/refresh", authHandler.RefreshToken)
	auth.Post("/logout", authHandler.Logout)

	protected := api.Group("")
	protected.Use(authmw.Auth(jwtService))
	protected.Use(limit)

	protected.Post("/auth/logout-all", authHandler.LogoutAll)

	protected.Get("/users/me", userHandler.GetMe)
	protected.Get("/users/me/classes", classHandler.Mine)
	protected.Get("/user-classes", classHandler.List)

	protected.Get("/work-portions", portionHandler.List)
	protected.Get("/work-portions/:id", portionHandler.Get)
	protected.Get("/work-portions/:id/access/check", portionHandler.CheckAccess)

	protected.Get("/workload-preferences", preferenceHandler.List)
	protected.Post("/workload-preferences", preferenceHandler.Set)

	protected.Get("/assignments/current", assignmentHandler.Current)
	protected.Get("/assignments/history", assignmentHandler.History)
	protected.Post("/assignments/history/:id/complete", assignmentHandler.CompleteHistory)

	protected.Get("/events", sseHandler.Connect)

	admin := api.Group("")
	admin.Use(authmw.Auth(jwtService))
	admin.Use(limit)
	admin.Use(authmw.RequireRole(models.RoleAdmin))

	admin.Get("/users", userHandler.List)
	admin.Patch("/users/:id/role", userHandler.UpdateRole)

	admin.Post("/user-classes", classHandler.Create)
	admin.Get("/user-classes/:id/users", classHandler.ListUsers)
	admin.Post("/user-classes/:id/assign", classHandler.AssignUser)
	admin.Delete("/user-classes/:id/assign/:userId", classHandler.RemoveUser)

	admin.Post("/work-portions", portionHandler.Create)
	admin.Patch("/work-portions/:id", portionHandler.Update)
	admin.Delete("/work-portions/:id", portionHandler.Delete)
	admin.Get("/work-portions/:id/access", portionHandler.ListAccess)
	admin.Post("/work-portions/:id/access", portionHandler.GrantAccess)
	admin.Delete("/work-portions/:id/access/:classId", portionHandler.RevokeAccess)
	admin.Get("/work-portions/:id/history", assignmentHandler.PortionHistory)

	admin.Post("/assignments/generate", assignmentHandler.Generate)

	if cfg.Cycle.Scheduled {
		sched := scheduler.New(assignmentService, cycles, cfg.Cycle.CheckInterval, logger)
		go sched.Run(ctx)
	}

	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := tokenService.CleanupExpired(ctx)
				if err != nil {
					logger.Warn("refresh token cleanup failed", "error", err)
					continue
				}
				logger.Debug("refresh tokens cleaned up", "removed", removed)
			}
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", srv.Addr, "env", cfg.Env, "oracle", cfg.Oracle.Provider)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fatal(logger, "server failed", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	assignmentService.Wait()
	portionService.Wait()
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
