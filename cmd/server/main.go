package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/daybook-ai/daybook/internal/assistant"
	"github.com/daybook-ai/daybook/internal/config"
	"github.com/daybook-ai/daybook/internal/conversation"
	"github.com/daybook-ai/daybook/internal/llm"
	"github.com/daybook-ai/daybook/internal/logger"
	"github.com/daybook-ai/daybook/internal/reminder"
	"github.com/daybook-ai/daybook/internal/storage/pg"
	"github.com/daybook-ai/daybook/internal/task"
)

func main() {
	config.LoadConfig()

	appLogger := logger.New(logger.FromConfig(config.AppConfig.LogLevel, config.AppConfig.LogFormat))

	appLogger.Info("setting gin mode", slog.String("mode", config.AppConfig.GinMode))
	gin.SetMode(config.AppConfig.GinMode)

	// Initialize database.
	db, err := pg.InitDatabase(config.AppConfig.DatabaseURL)
	if err != nil {
		appLogger.Error("failed to initialize database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.DB.Close()

	// Initialize services.
	baseURL, apiKey := config.AppConfig.LLMCredentials()
	llmClient := llm.NewClient(baseURL, apiKey, appLogger)
	taskService := task.NewService(db.DB, appLogger)
	reminderService := reminder.NewService(db.DB, appLogger)
	conversationService := conversation.NewService(db.DB, appLogger)
	assistantService := assistant.NewService(config.AppConfig, llmClient, taskService, reminderService, conversationService, appLogger)

	dispatcher := reminder.NewDispatcher(reminderService, appLogger, nil)
	if err := dispatcher.Start(config.AppConfig.ReminderDispatchSpec); err != nil {
		appLogger.Error("failed to start reminder dispatcher", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize handlers.
	assistantHandler := assistant.NewHandler(assistantService, appLogger)
	reminderHandler := reminder.NewHandler(reminderService, appLogger)

	// Initialize Gin router.
	router := gin.Default()

	// Add CORS middleware.
	allowedOrigins := strings.Split(config.AppConfig.CORSAllowedOrigins, ",")
	router.Use(func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		for _, allowed := range allowedOrigins {
			if strings.TrimSpace(allowed) == origin || strings.TrimSpace(allowed) == "*" {
				c.Header("Access-Control-Allow-Origin", origin)
				break
			}
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Health check endpoint.
	router.GET("/health", func(c *gin.Context) {
		if err := db.DB.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Assistant API routes.
	api := router.Group("/api/v1")
	{
		assistantHandler.RegisterRoutes(api)
		reminderHandler.RegisterRoutes(api)
	}

	port := ":" + config.AppConfig.Port
	appLogger.Info("assistant listening", slog.String("port", port))

	srv := &http.Server{
		Addr:    port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("failed to start server", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("shutting down server")

	dispatcher.Stop()
	appLogger.Info("reminder dispatcher stopped")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("server forced to shutdown", slog.String("error", err.Error()))
		os.Exit(1)
	}

	appLogger.Info("server exited")
}
