package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ENNAJI/ExamCADProtoENSAM/internal/cache"
	"github.com/ENNAJI/ExamCADProtoENSAM/internal/config"
	"github.com/ENNAJI/ExamCADProtoENSAM/internal/handlers"
	"github.com/ENNAJI/ExamCADProtoENSAM/internal/models"
	"github.com/ENNAJI/ExamCADProtoENSAM/internal/questionbank"
	"github.com/ENNAJI/ExamCADProtoENSAM/internal/repositories/postgres"
	"github.com/ENNAJI/ExamCADProtoENSAM/internal/services"
	"github.com/ENNAJI/ExamCADProtoENSAM/internal/session"
	"github.com/ENNAJI/ExamCADProtoENSAM/internal/utils"
	"github.com/ENNAJI/ExamCADProtoENSAM/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	var appLogger utils.Logger
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
		appLogger = utils.NewDefaultLogger()
	} else {
		appLogger = utils.NewDevelopmentLogger()
	}
	logger := utils.ToSlogLogger(appLogger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := db.AutoMigrate(&models.Student{}, &models.AttemptRecord{}, &models.ExamResult{}); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("Database ready")

	// The portal works without Redis, subject lists and the dashboard just
	// stop being cached.
	var cacheService cache.CacheService = cache.NoopCache{}
	if redisClient, err := pkg.NewRedisClient(cfg); err != nil {
		logger.Warn("Redis unavailable, caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		cacheService = cache.NewRedisCache(redisClient, logger)
		logger.Info("Redis ready")
	}

	eventCfg := config.LoadEventConfig()
	publisher, err := eventCfg.CreateEventPublisher(logger)
	if err != nil {
		logger.Error("Failed to create event publisher", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	bank, err := questionbank.LoadDir(cfg.QuestionsDir, logger)
	if err != nil {
		logger.Error("Failed to load question bank", "dir", cfg.QuestionsDir, "error", err)
		os.Exit(1)
	}
	logger.Info("Question bank loaded", "subjects", len(bank.Subjects()))

	curriculum := questionbank.DefaultCurriculum()
	if path := os.Getenv("CURRICULUM_FILE"); path != "" {
		curriculum, err = questionbank.LoadCurriculum(path)
		if err != nil {
			logger.Error("Failed to load curriculum", "path", path, "error", err)
			os.Exit(1)
		}
	}

	repo := postgres.NewRepository(db)
	sessions := session.NewStore()

	serviceManager := services.NewServiceManager(
		repo,
		bank,
		curriculum,
		sessions,
		cacheService,
		publisher,
		logger,
		cfg.JWTSecret,
		nil,
	)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(appLogger))

	handlerManager := handlers.NewHandlerManager(serviceManager, utils.NewValidator(), appLogger)
	handlerManager.SetupRoutes(router)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown", "error", err)
	}

	logger.Info("Server exited", "open_sessions", sessions.Len())
}
