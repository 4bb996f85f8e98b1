package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/Solomon-TC/The-Habit-Hero/docs" // swagger docs
	"github.com/Solomon-TC/The-Habit-Hero/internal/api/handlers"
	"github.com/Solomon-TC/The-Habit-Hero/internal/api/middleware"
	"github.com/Solomon-TC/The-Habit-Hero/internal/api/routes"
	"github.com/Solomon-TC/The-Habit-Hero/internal/domain/events"
	"github.com/Solomon-TC/The-Habit-Hero/internal/domain/goals"
	"github.com/Solomon-TC/The-Habit-Hero/internal/domain/habits"
	"github.com/Solomon-TC/The-Habit-Hero/internal/domain/progression"
	"github.com/Solomon-TC/The-Habit-Hero/internal/infrastructure/cache"
	"github.com/Solomon-TC/The-Habit-Hero/internal/infrastructure/persistence/postgres/connection"
	"github.com/Solomon-TC/The-Habit-Hero/internal/infrastructure/persistence/postgres/migrations"
	"github.com/Solomon-TC/The-Habit-Hero/internal/infrastructure/scheduler"
	"github.com/Solomon-TC/The-Habit-Hero/pkg/config"
	"github.com/Solomon-TC/The-Habit-Hero/pkg/logger"
	"github.com/Solomon-TC/The-Habit-Hero/pkg/security/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           Habit Hero API
// @version         1.0
// @description     Habit tracking with streaks, goals, milestones, XP and levels.

// @host      localhost:8000
// @BasePath

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLog := logger.New(cfg.Logging)
	defer appLog.Sync()

	appLog.Info("Configuration loaded successfully",
		zap.String("mode", cfg.Server.Mode),
		zap.Bool("redis_enabled", cfg.Redis.Enabled),
		zap.Bool("scheduler_enabled", cfg.Scheduler.Enabled),
	)

	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	gin.DisableBindValidation()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(appLog.Named("http")))
	router.Use(middleware.NewMetricsMiddleware().CollectMetrics())
	router.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORS.AllowedOrigins,
		AllowMethods: cfg.CORS.AllowedMethods,
		AllowHeaders: append(cfg.CORS.AllowedHeaders,
			"Accept-Encoding",
			"Content-Type",
			"Authorization",
			middleware.RequestIDHeader,
		),
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Encoding",
			"X-RateLimit-Remaining",
			"X-RateLimit-Reset",
			"X-Cache",
			middleware.RequestIDHeader,
		},
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	db, err := connection.NewDatabase(cfg)
	if err != nil {
		appLog.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := migrations.AutoMigrate(db, appLog.Named("migrations")); err != nil {
		appLog.Fatal("Failed to run database migrations", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis is optional. Without it there are no dashboard events, response cache or rate limits.
	var (
		publisher       events.Publisher
		redisClient     *cache.RedisClient
		cacheMiddleware *middleware.CacheMiddleware
		rateLimit       gin.HandlerFunc
	)
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(cache.NewConfigFromEnv(cfg), appLog.Named("redis"))
		if err != nil {
			appLog.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()

		publisher = redisClient
		cacheMiddleware = middleware.NewCacheMiddleware(redisClient, "responses", 5*time.Minute, appLog.Named("cache"))

		if cfg.RateLimit.Enabled {
			limiter := auth.NewRedisLimiter(redisClient.GetClient(), cfg.RateLimit.Requests, cfg.RateLimit.Window)
			rateLimit = middleware.RateLimitMiddleware(limiter, appLog.Named("ratelimit"))
		}

		go listenForInvalidations(ctx, redisClient, cacheMiddleware, appLog.Named("events"))
	} else {
		appLog.Warn("Redis disabled; dashboard events, response cache and rate limiting are off")
	}

	progressionService := progression.NewService(progression.NewRepository(db), publisher, appLog.Named("progression"))
	habitsService := habits.NewService(habits.NewRepository(db), progressionService, publisher, cfg.Gamification.Habit, appLog.Named("habits"))
	goalsService := goals.NewService(goals.NewRepository(db), habitsService, progressionService, publisher, cfg.Gamification, appLog.Named("goals"))

	if cfg.Scheduler.Enabled {
		scheduler.NewScheduler(habitsService, cfg.Scheduler.ReconcileHour, appLog.Named("scheduler")).Start(ctx)
		appLog.Info("Streak reconciliation scheduler started", zap.Int("hour_utc", cfg.Scheduler.ReconcileHour))
	}

	guards := routes.Guards{
		Auth:       middleware.NewAuthMiddleware(auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer), appLog.Named("auth")),
		RateLimit:  rateLimit,
		Cache:      cacheMiddleware,
		Validation: middleware.NewValidationMiddleware(appLog.Named("validation")),
	}

	if cfg.Swagger.Enabled {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	health := map[string]routes.Pinger{
		"database": routes.PingFunc(func(context.Context) error { return db.Ping() }),
	}
	if redisClient != nil {
		health["redis"] = routes.PingFunc(redisClient.HealthCheck)
	}
	routes.SetupHealthRoutes(router, health)

	routes.NewHabitsRoutes(handlers.NewHabitsHandler(habitsService, appLog.Named("habits_api")), guards).RegisterRoutes(router)
	routes.NewGoalsRoutes(handlers.NewGoalsHandler(goalsService, appLog.Named("goals_api")), guards).RegisterRoutes(router)
	routes.NewProgressionRoutes(handlers.NewProgressionHandler(progressionService, appLog.Named("progression_api")), guards).RegisterRoutes(router)

	for _, route := range router.Routes() {
		appLog.Debug("Route registered",
			zap.String("method", route.Method),
			zap.String("path", route.Path),
		)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.Timeout,
	}

	go func() {
		appLog.Info(fmt.Sprintf("Server starting on port %d", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	appLog.Info("Shutting down server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Server forced to shutdown", zap.Error(err))
	}

	appLog.Info("Server exited properly")
}

// listenForInvalidations drops a user's cached responses whenever any instance
// reports a change for them.
func listenForInvalidations(ctx context.Context, redisClient *cache.RedisClient, responses *middleware.CacheMiddleware, log *zap.Logger) {
	err := redisClient.SubscribeToDashboardEvents(ctx, func(event *events.DashboardEvent) error {
		if event.UserID == uuid.Nil {
			return nil
		}
		if err := responses.InvalidateUser(ctx, event.UserID.String()); err != nil {
			log.Warn("Failed to invalidate cached responses",
				zap.Error(err),
				zap.String("user_id", event.UserID.String()),
				zap.String("event_type", event.EventType))
		}
		return nil
	})
	if err != nil && ctx.Err() == nil {
		log.Error("Dashboard event subscription ended", zap.Error(err))
	}
}
