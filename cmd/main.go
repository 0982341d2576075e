package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sekkei-dojo/backend/internal/config"
	"github.com/sekkei-dojo/backend/internal/db"
	"github.com/sekkei-dojo/backend/internal/handlers"
	"github.com/sekkei-dojo/backend/internal/logger"
	"github.com/sekkei-dojo/backend/internal/middleware"
	"github.com/sekkei-dojo/backend/internal/repos"
	"github.com/sekkei-dojo/backend/internal/server"
	"github.com/sekkei-dojo/backend/internal/services"
	"github.com/sekkei-dojo/backend/internal/sessionstore"
	"github.com/sekkei-dojo/backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
	guestSessionTTL := utils.GetEnvAsInt("GUEST_SESSION_TTL_SECONDS", 86400, log)
	listenAddr := utils.GetEnv("LISTEN_ADDR", ":8080", log)
	configPath := utils.GetEnv("CONFIG_PATH", "config.yaml", log)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Error("Could not load config", "error", err)
		os.Exit(1)
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Guest claim store. Redis when configured, in-process otherwise.
	var guestClaims sessionstore.GuestClaimStore
	if os.Getenv("REDIS_ADDR") != "" {
		guestClaims, err = sessionstore.NewRedisStore(log)
		if err != nil {
			log.Error("Could not init Redis guest claim store", "error", err)
			os.Exit(1)
		}
	} else {
		log.Warn("REDIS_ADDR not set, guest claims are held in process memory")
		guestClaims = sessionstore.NewMemoryStore()
	}

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	problemGroupRepo := repos.NewProblemGroupRepo(thePG, log)
	problemRepo := repos.NewProblemRepo(thePG, log)
	modelAnswerRepo := repos.NewModelAnswerRepo(thePG, log)
	attemptRepo := repos.NewAttemptRepo(thePG, log)
	answerRepo := repos.NewAnswerRepo(thePG, log)
	userProgressRepo := repos.NewUserProgressRepo(thePG, log)
	favoriteRepo := repos.NewFavoriteRepo(thePG, log)
	aiCallLogRepo := repos.NewAICallLogRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	geminiClient, err := services.NewGeminiClient(log)
	if err != nil {
		log.Error("Could not init GeminiClient", "error", err)
		os.Exit(1)
	}
	authService := services.NewAuthService(
		thePG,
		log,
		userRepo,
		userTokenRepo,
		jwtSecretKey,
		time.Duration(accessTokenTTL)*time.Second,
		time.Duration(refreshTokenTTL)*time.Second,
	)
	generatorService := services.NewProblemGeneratorService(thePG, log, geminiClient, problemGroupRepo, problemRepo, modelAnswerRepo, aiCallLogRepo)
	graderService := services.NewAnswerGraderService(log, geminiClient, aiCallLogRepo)
	stockService := services.NewStockService(thePG, log, problemGroupRepo, attemptRepo)
	allocationService := services.NewAllocationService(thePG, log, problemGroupRepo, userProgressRepo, guestClaims)
	completionService := services.NewCompletionService(thePG, log, attemptRepo, userProgressRepo, guestClaims)
	libraryService := services.NewLibraryService(thePG, log, problemGroupRepo, problemRepo, modelAnswerRepo, attemptRepo, userProgressRepo, answerRepo, favoriteRepo, guestClaims, graderService)

	replenisherService := services.NewReplenisherService(thePG, log, cfg.Replenisher, stockService, generatorService)
	replenisherService.StartWorker(context.Background())

	// Handlers
	log.Info("Setting up Handlers from main...")
	authHandler := handlers.NewAuthHandler(authService, time.Duration(accessTokenTTL)*time.Second)
	problemGroupHandler := handlers.NewProblemGroupHandler(allocationService, completionService, stockService, libraryService)
	gradeHandler := handlers.NewGradeHandler(libraryService)
	favoriteHandler := handlers.NewFavoriteHandler(libraryService)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log, authService, guestSessionTTL)

	var allowedOrigins []string
	if raw := os.Getenv("CORS_ALLOWED_ORIGINS"); raw != "" {
		allowedOrigins = strings.Split(raw, ",")
	}

	router := server.NewRouter(server.RouterConfig{
		AuthHandler:         authHandler,
		ProblemGroupHandler: problemGroupHandler,
		GradeHandler:        gradeHandler,
		FavoriteHandler:     favoriteHandler,
		AuthMiddleware:      authMiddleware,
		AllowedOrigins:      allowedOrigins,
	})

	log.Info("Starting server", "addr", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Error("Server exited", "error", err)
		os.Exit(1)
	}
}
