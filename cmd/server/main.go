package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/quocanhngo/deadlinemind/internal/bootstrap"
	"github.com/quocanhngo/deadlinemind/internal/config"
	"github.com/quocanhngo/deadlinemind/internal/handler"
	"github.com/quocanhngo/deadlinemind/internal/middleware"
	"github.com/quocanhngo/deadlinemind/pkg/logger"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           DeadlineMind API
// @version         1.0
// @description     Vehicle tax and insurance expiry reminders by e-mail and WhatsApp.
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.email  support@deadlinemind.local

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      api.localhost
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// ==================== Load Config ====================
	cfg := config.Load()
	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
	defer func() { _ = log.Sync() }()

	log.Info("🚀 Starting DeadlineMind API Server", zap.String("env", cfg.App.Env), zap.String("store", cfg.Store.Driver))
	if err := cfg.Validate(); err != nil {
		log.Fatal("❌ Invalid configuration", zap.Error(err))
	}

	// ==================== Initialize Layers ====================
	app, err := bootstrap.New(context.Background(), cfg, log)
	if err != nil {
		log.Fatal("❌ Failed to initialize services", zap.Error(err))
	}
	defer app.Close()

	cronHandler := handler.NewCronHandler(app.Scan)
	reportHandler := handler.NewReportHandler(app.Reports)

	// ==================== Gin Router ====================
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Serve swagger.json at /docs/swagger.json to avoid conflict with /swagger/* wildcard
	router.StaticFile("/docs/swagger.json", "./docs/swagger.json")
	url := ginSwagger.URL("/docs/swagger.json")
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, url))

	router.Use(middleware.CORSMiddleware(cfg.CORS.Origins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "deadlinemind-api",
			"store":   cfg.Store.Driver,
			"time":    time.Now().Format(time.RFC3339),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ==================== API Routes ====================
	api := router.Group("/api/v1")
	{
		// Invoked by the external scheduler
		cron := api.Group("/cron")
		cron.Use(middleware.CronSecretMiddleware(cfg.Cron.Secret, log))
		{
			cron.GET("/check-expiries", cronHandler.CheckExpiries)
			cron.POST("/check-expiries", cronHandler.CheckExpiries)
		}

		if app.Verifier != nil {
			reports := api.Group("/reports")
			reports.Use(middleware.FirebaseAuthMiddleware(app.Verifier))
			{
				reports.POST("/summary", reportHandler.SendSummary)
			}
		} else {
			log.Warn("⚠️  Firebase Auth not configured, /api/v1/reports is disabled")
		}
	}

	// ==================== Start Server ====================
	runCtx, stopRequests := context.WithCancel(context.Background())
	defer stopRequests()
	srv := newHTTPServer(":"+cfg.App.Port, router, runCtx)

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("❌ Server failed", zap.Error(err))
		}
	}()

	log.Info("🌐 DeadlineMind API running", zap.String("addr", "http://0.0.0.0:"+cfg.App.Port))
	log.Info("📋 API docs", zap.String("url", "http://0.0.0.0:"+cfg.App.Port+"/swagger/index.html"))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("🛑 Shutting down server...")

	// An in-flight scan stops scheduling and finishes the vehicles it already started
	stopRequests()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("❌ Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("✅ Server exited gracefully")
}
