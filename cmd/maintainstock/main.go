package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sekkei-dojo/backend/internal/config"
	"github.com/sekkei-dojo/backend/internal/db"
	"github.com/sekkei-dojo/backend/internal/logger"
	"github.com/sekkei-dojo/backend/internal/repos"
	"github.com/sekkei-dojo/backend/internal/services"
	"github.com/sekkei-dojo/backend/internal/utils"
)

// One-shot stock maintenance. Runs the same replenish pass the server's
// background worker runs, then exits; meant for cron and for seeding a
// fresh database.
func main() {
	minStock := flag.Int("min-stock", 0, "override the configured per-difficulty stock floor")
	dryRun := flag.Bool("dry-run", false, "report stock levels without generating anything")
	flag.Parse()

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

	configPath := utils.GetEnv("CONFIG_PATH", "config.yaml", log)
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Error("Could not load config", "error", err)
		os.Exit(1)
	}
	if *minStock > 0 {
		cfg.Replenisher.MinStock = *minStock
	}

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

	problemGroupRepo := repos.NewProblemGroupRepo(thePG, log)
	problemRepo := repos.NewProblemRepo(thePG, log)
	modelAnswerRepo := repos.NewModelAnswerRepo(thePG, log)
	attemptRepo := repos.NewAttemptRepo(thePG, log)
	aiCallLogRepo := repos.NewAICallLogRepo(thePG, log)

	stockService := services.NewStockService(thePG, log, problemGroupRepo, attemptRepo)

	ctx := context.Background()

	if *dryRun {
		counts, err := stockService.StockAll(ctx, cfg.Replenisher.Difficulties)
		if err != nil {
			log.Error("Could not read stock", "error", err)
			os.Exit(1)
		}
		for _, difficulty := range cfg.Replenisher.Difficulties {
			log.Info("Stock level",
				"difficulty", difficulty,
				"stock", counts[difficulty],
				"floor", cfg.Replenisher.MinStock,
			)
		}
		return
	}

	geminiClient, err := services.NewGeminiClient(log)
	if err != nil {
		log.Error("Could not init GeminiClient", "error", err)
		os.Exit(1)
	}
	generatorService := services.NewProblemGeneratorService(thePG, log, geminiClient, problemGroupRepo, problemRepo, modelAnswerRepo, aiCallLogRepo)
	replenisherService := services.NewReplenisherService(thePG, log, cfg.Replenisher, stockService, generatorService)

	generated, err := replenisherService.RunOnce(ctx)
	if err != nil {
		log.Error("Replenish pass failed", "generated", generated, "error", err)
		os.Exit(1)
	}
	log.Info("Replenish pass finished", "generated", generated)
}
