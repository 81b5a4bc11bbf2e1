package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mmdatafocus/pos_backend/config"
	"github.com/mmdatafocus/pos_backend/middlewares"
	"github.com/mmdatafocus/pos_backend/models"
	"github.com/mmdatafocus/pos_backend/utils"
	"github.com/mmdatafocus/pos_backend/workflow"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	defaultPort          = "4000"
	correlationIdHeader  = "x-correlation-id"
	defaultAdminEmail    = "admin@pos.local"
	defaultAdminPassword = "Admin123"
)

var defaultProductTypes = []string{"Comida", "Bebidas", "Alcohol"}

func getRedisClient(redisAddress string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     redisAddress,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	return client
}

// correlationMiddleware attaches a correlation id to the request context and echoes it back.
func correlationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.GetHeader(correlationIdHeader)
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Header(correlationIdHeader, cid)
		c.Next()
	}
}

// readinessGate answers 503 until DB and Redis are connected. Probes and metrics are always served.
func readinessGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.URL.Path {
		case "/health", "/healthz", "/metrics":
			c.Next()
			return
		}
		if config.GetDB() == nil || config.GetRedisDB() == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service starting"})
			return
		}
		c.Next()
	}
}

var errCorsOriginsRequired = errors.New("CORS_ALLOWED_ORIGINS must be set in production")

// corsConfigFromEnv allows every origin outside production. Production requires an
// explicit allowlist via CORS_ALLOWED_ORIGINS (comma-separated).
func corsConfigFromEnv() (cors.Config, error) {
	corsConfig := cors.DefaultConfig()
	if config.IsProduction() {
		origins := splitAndTrim(os.Getenv("CORS_ALLOWED_ORIGINS"))
		if len(origins) == 0 {
			return corsConfig, errCorsOriginsRequired
		}
		corsConfig.AllowOrigins = origins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization", correlationIdHeader)
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition", correlationIdHeader)
	corsConfig.AllowCredentials = !corsConfig.AllowAllOrigins
	return corsConfig, nil
}

// corsMiddleware sends no CORS headers when the config is invalid; main refuses to start in that case.
func corsMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	corsConfig, err := corsConfigFromEnv()
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "cors"}).Error(err.Error())
		return func(c *gin.Context) { c.Next() }
	}
	return cors.New(corsConfig)
}

// rateLimitFromEnv returns the shared request limiter, or nil unless RATE_LIMIT_ENABLED=true.
// Env: RATE_LIMIT_MAX_REQUESTS (default 600), RATE_LIMIT_WINDOW_SECONDS (default 60).
func rateLimitFromEnv() *middlewares.RateLimiter {
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		return nil
	}
	limit := int64(600)
	if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			limit = n
		}
	}
	windowSec := int64(60)
	if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			windowSec = n
		}
	}
	client := getRedisClient(os.Getenv("REDIS_ADDRESS"))
	return middlewares.NewRateLimiter(client, limit, time.Duration(windowSec)*time.Second)
}

func newRouter(logger *logrus.Logger, loginLimiter *middlewares.LoginLimiter) *gin.Engine {
	r := gin.New()
	r.Use(correlationMiddleware())
	r.Use(readinessGate())
	r.Use(corsMiddleware(logger))
	if rateLimiter := rateLimitFromEnv(); rateLimiter != nil {
		r.Use(rateLimiter.RateLimitMiddleware)
	}
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())
	r.Use(middlewares.MetricsMiddleware())
	r.Use(middlewares.AuthMiddleware())
	registerRoutes(r, loginLimiter)
	return r
}

// bootstrapData runs migrations and seeds the default admin and product types.
func bootstrapData(ctx context.Context, logger *logrus.Logger) {
	// AutoMigrate DDL can block tables; SKIP_MIGRATIONS=true leaves it to a separate job.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	email := envOrDefault("ADMIN_EMAIL", defaultAdminEmail)
	password := envOrDefault("ADMIN_PASSWORD", defaultAdminPassword)
	if _, created, err := models.EnsureAdmin(ctx, email, password, "Administrator"); err != nil {
		config.LogError(logger, "server.go", "bootstrapData", "EnsureAdmin", email, err)
	} else if created {
		logger.WithFields(logrus.Fields{"email": email}).Info("default admin created")
	}
	if err := models.SeedProductTypes(ctx, defaultProductTypes...); err != nil {
		config.LogError(logger, "server.go", "bootstrapData", "SeedProductTypes", defaultProductTypes, err)
	}
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	if _, err := corsConfigFromEnv(); err != nil {
		logger.WithFields(logrus.Fields{"field": "cors"}).Fatal(err.Error())
	}

	loginLimiter := middlewares.NewLoginLimiter(5, 10)
	stopCleanup := make(chan struct{})
	loginLimiter.StartCleanup(5*time.Minute, stopCleanup)

	// Start the HTTP server first; the readiness gate answers 503 until DB and Redis are up.
	r := newRouter(logger, loginLimiter)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()

	bootstrapData(sigCtx, logger)

	if _, err := utils.GetObjectStore(); err != nil {
		logger.WithFields(logrus.Fields{"field": "storage"}).Fatal("object store unavailable: " + err.Error())
	}

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	if topic := config.EventTopic(); topic != "" {
		if os.Getenv("PUBSUB_CREATE_TOPIC") == "true" {
			if client, err := config.GetPubSubClient(sigCtx); err != nil {
				config.LogError(logger, "server.go", "main", "GetPubSubClient", topic, err)
			} else if _, err := config.CreateTopicIfNotExists(sigCtx, client, topic); err != nil {
				config.LogError(logger, "server.go", "main", "CreateTopicIfNotExists", topic, err)
			}
		}
		go workflow.NewOutboxDispatcher(db, logger).Run(workerCtx)
	} else {
		logger.WithFields(logrus.Fields{"field": "outbox"}).Warn("PUBSUB_TOPIC not set; outbox dispatcher disabled")
	}

	summaryCron, err := workflow.StartDailySummaryCron(config.DailySummaryCronSpec(), workflow.NewDailySummaryJob(logger, config.GetRedisLock()))
	if err != nil {
		config.LogError(logger, "server.go", "main", "StartDailySummaryCron", config.DailySummaryCronSpec(), err)
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("pos api listening on port ", port)
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Stop background work before draining requests.
	cancelWorkers()
	close(stopCleanup)
	if summaryCron != nil {
		<-summaryCron.Stop().Done()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

// customErrorLogger logs c.Errors after the handler chain runs.
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			ctx := c.Request.Context()
			cid, _ := utils.GetCorrelationIdFromContext(ctx)
			fields := logrus.Fields{
				"method":         c.Request.Method,
				"path":           c.Request.URL.Path,
				"status":         c.Writer.Status(),
				"correlation_id": cid,
			}
			if email, ok := utils.GetUserEmailFromContext(ctx); ok {
				fields["user_email"] = email
			}
			if name, ok := utils.GetUserNameFromContext(ctx); ok {
				fields["user_name"] = name
			}
			logger.WithFields(fields).Error(c.Errors.String())
		}
	}
}

func envOrDefault(key string, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
