package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"scoro2clearbooks/internal/clearbooks"
	"scoro2clearbooks/internal/config"
	"scoro2clearbooks/internal/httpapi"
	"scoro2clearbooks/internal/scoro"
	"scoro2clearbooks/internal/sync"
	"scoro2clearbooks/pkg/utils"
)

func main() {
	// Local .env for development; the environment wins in deployment
	gotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Scoro to ClearBooks sync service",
		zap.Int("port", cfg.Server.Port),
		zap.String("from_date", cfg.Sync.FromDate))

	scoroClient := scoro.NewClient(scoro.Config{
		BaseURL:          cfg.Scoro.BaseURL,
		APIKey:           cfg.Scoro.APIKey,
		CompanyAccountID: cfg.Scoro.CompanyAccountID,
		Lang:             cfg.Scoro.Lang,
		PerPage:          cfg.Scoro.PerPage,
		Timeout:          cfg.Scoro.APITimeout,
	}, logger)

	clearBooksClient := clearbooks.NewClient(clearbooks.Config{
		APIKey:  cfg.ClearBooks.APIKey,
		Timeout: cfg.ClearBooks.APITimeout,
	}, logger)

	runner := sync.NewRunner(scoroClient, clearBooksClient, cfg.Sync.FromDate, logger)
	handler := httpapi.NewHandler(runner, logger)

	if cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))
	handler.Register(router)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}
