package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"script-server/internal/config"
	"script-server/internal/handler"
	"script-server/internal/llm"
	"script-server/internal/prompt"
	"script-server/internal/service"
	"script-server/internal/session"
	"script-server/internal/tokenizer"
	sharedLogger "script-server/pkg/logger"
	sharedMiddleware "script-server/pkg/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	ginprometheus "github.com/zsais/go-gin-prometheus"
)

func main() {
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := sharedLogger.New(sharedLogger.Config{
		Level:    cfg.LogLevel,
		Encoding: cfg.LogEncoding,
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
	zap.L().Info("Configuration loaded", cfg.LogFields()...)

	systemPrompt, err := prompt.Load(cfg.PromptPath)
	if err != nil {
		zap.L().Fatal("Failed to load system prompt", zap.String("path", cfg.PromptPath), zap.Error(err))
	}

	store, err := session.NewStore(cfg.UploadsDir, logger)
	if err != nil {
		zap.L().Fatal("Failed to prepare uploads directory", zap.Error(err))
	}

	estimator := tokenizer.New(cfg.TokenEncoding, logger)
	zap.L().Info("Token estimator ready", zap.String("encoding", cfg.TokenEncoding), zap.Bool("exact", estimator.Exact()))

	aiClient, err := llm.NewAIClient(cfg, logger)
	if err != nil {
		zap.L().Fatal("Failed to create AI client", zap.Error(err))
	}

	var sweeper *session.Sweeper
	if cfg.SessionTTL > 0 {
		sweeper, err = session.NewSweeper(store, cfg.SessionTTL, cfg.SessionSweepSchedule, logger)
		if err != nil {
			zap.L().Fatal("Failed to create session sweeper", zap.Error(err))
		}
		sweeper.Start()
	}

	scriptService := service.NewScriptService(store, aiClient, estimator, service.Settings{
		SystemPrompt:   systemPrompt,
		Temperature:    cfg.Temperature,
		MaxTokens:      cfg.AIMaxTokens,
		MaxInputTokens: cfg.MaxInputTokens,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}, logger)
	scriptHandler := handler.NewScriptHandler(scriptService, logger)

	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(sharedMiddleware.GinZapLogger(logger))
	router.Use(gin.Recovery())

	p := ginprometheus.NewPrometheus("gin")

	corsConfig := cors.DefaultConfig()
	allowedOrigins := cfg.GetAllowedOrigins()
	if len(allowedOrigins) > 0 {
		corsConfig.AllowOrigins = allowedOrigins
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
		zap.L().Info("FRONT_END_URL not set, allowing default", zap.String("origin", "http://localhost:3000"))
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "HEAD", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", sharedMiddleware.RequestIDHeader}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	scriptHandler.RegisterRoutes(router)
	p.Use(router)

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		ReadTimeout: 60 * time.Second,
		// a generation may run for the whole AI timeout
		WriteTimeout: cfg.AITimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	zap.L().Info("Starting HTTP server", zap.String("port", cfg.Port))

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("HTTP Server listen error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("Shutting down server...")

	if sweeper != nil {
		<-sweeper.Stop().Done()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("HTTP Server forced to shutdown", zap.Error(err))
	}

	zap.L().Info("Server exiting")
}
