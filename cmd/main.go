package main

import (
	"context"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/wuzamanfou/smart-brain-api/config"
	database "github.com/wuzamanfou/smart-brain-api/internal/core"
	"github.com/wuzamanfou/smart-brain-api/internal/core/repository"
	"github.com/wuzamanfou/smart-brain-api/internal/logger"
	logicv1 "github.com/wuzamanfou/smart-brain-api/internal/logic/v1"
	"github.com/wuzamanfou/smart-brain-api/internal/token"
	"github.com/wuzamanfou/smart-brain-api/internal/vision"
	webv1 "github.com/wuzamanfou/smart-brain-api/internal/web/v1"
	"github.com/wuzamanfou/smart-brain-api/middleware"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		panic("Configuration validation failed: " + err.Error())
	}

	logger.Setup(cfg.Logging.Level)

	log.Info().
		Str("service", cfg.Service.Name).
		Str("version", cfg.Service.Version).
		Str("env", cfg.Service.Env).
		Str("port", cfg.Service.Port).
		Msg("Service starting")

	// Initialize OpenTelemetry tracing
	var tp interface{ Shutdown(context.Context) error }
	var err error
	if cfg.Tracing.Enabled {
		tp, err = middleware.InitTracing(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize tracing")
		} else {
			log.Info().
				Str("endpoint", cfg.Tracing.Endpoint).
				Float64("sample_rate", cfg.Tracing.SampleRate).
				Msg("Tracing initialized")
		}
	} else {
		log.Info().Msg("Tracing disabled (TRACING_ENABLED=false)")
	}

	// Initialize Pyroscope profiling
	if cfg.Profiling.Enabled {
		if err := middleware.InitProfiling(cfg); err != nil {
			log.Warn().Err(err).Msg("Failed to initialize profiling")
		} else {
			log.Info().
				Str("endpoint", cfg.Profiling.Endpoint).
				Msg("Profiling initialized")
			defer middleware.StopProfiling()
		}
	} else {
		log.Info().Msg("Profiling disabled (PROFILING_ENABLED=false)")
	}

	// Initialize database connection pool (pgx)
	pool, err := database.Connect(context.Background(), cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()
	log.Info().Msg("Database connection pool established")

	// Initialize the shared Redis client. A failed ping is not fatal: logins
	// still succeed in degraded mode while go-redis keeps reconnecting.
	redisClient, err := database.ConnectRedis(context.Background(), database.RedisOptions{
		URL:           cfg.Redis.URL,
		TLS:           cfg.Redis.TLS,
		TLSSkipVerify: cfg.Redis.TLSSkipVerify,
		DialTimeout:   cfg.Redis.DialTimeout,
		ReadTimeout:   cfg.Redis.ReadTimeout,
		WriteTimeout:  cfg.Redis.WriteTimeout,
	})
	if redisClient == nil {
		log.Fatal().Err(err).Msg("Invalid Redis configuration")
	}
	if err != nil {
		log.Warn().Err(err).Msg("Redis not reachable - sessions will not persist until it returns")
	} else {
		log.Info().Str("env", cfg.Service.Env).Msg("Connected to Redis")
	}
	defer redisClient.Close()

	// Wire dependencies
	sessionStore := repository.NewSessionStore(redisClient)
	codec := token.NewCodec(cfg.Session.Secret, cfg.Session.TTL)
	sessionManager := logicv1.NewSessionManager(codec, sessionStore, cfg.Session.TTL)

	users := repository.NewUserRepository(pool)
	profiles := repository.NewProfileRepository(pool)
	detector := vision.NewClient(
		cfg.Clarifai.BaseURL,
		cfg.Clarifai.PAT,
		cfg.Clarifai.UserID,
		cfg.Clarifai.AppID,
		cfg.Clarifai.ModelID,
	)

	authService := logicv1.NewAuthService(users, sessionManager)
	profileService := logicv1.NewProfileService(profiles, detector)
	handler := webv1.NewHandler(authService, profileService, sessionStore)
	authMiddleware := middleware.NewAuthMiddleware(sessionManager)

	r := gin.Default()

	var isShuttingDown atomic.Bool

	// Tracing middleware
	r.Use(middleware.TracingMiddleware(cfg.Service.Name))

	// Logging middleware
	r.Use(middleware.LoggingMiddleware())

	// Prometheus middleware
	r.Use(middleware.PrometheusMiddleware())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Readiness check
	// Returns 503 once shutdown has started, to drain traffic before HTTP shutdown.
	r.GET("/ready", func(c *gin.Context) {
		if isShuttingDown.Load() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "shutting_down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Metrics endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	handler.RegisterRoutes(r, authMiddleware)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Service.Port,
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Service.Port).Msg("Starting smart-brain API")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info().Msg("Shutdown signal received")

	// Fail readiness first and wait for propagation before closing listeners.
	isShuttingDown.Store(true)
	drainDelay := cfg.GetReadinessDrainDelayDuration()
	if drainDelay > 0 {
		log.Info().Dur("delay", drainDelay).Msg("Readiness drain delay started")
		time.Sleep(drainDelay)
		log.Info().Dur("delay", drainDelay).Msg("Readiness drain delay completed")
	}

	// Shutdown context with configurable timeout
	shutdownTimeout := cfg.GetShutdownTimeoutDuration()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info().Dur("timeout", shutdownTimeout).Msg("Shutting down server...")

	// 1. Shutdown HTTP server
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		log.Info().Msg("HTTP server shutdown complete")
	}

	// 2. Close database connections
	pool.Close()
	log.Info().Msg("Database pool closed")

	// 3. Close the Redis client
	if err := redisClient.Close(); err != nil {
		log.Error().Err(err).Msg("Redis client close error")
	} else {
		log.Info().Msg("Redis client closed")
	}

	// 4. Shutdown tracer
	if tp != nil {
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Tracer shutdown error")
		} else {
			log.Info().Msg("Tracer shutdown complete")
		}
	}

	log.Info().Msg("Graceful shutdown complete")
}
