package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/sekkei-dojo/backend/internal/logger"
	"github.com/sekkei-dojo/backend/internal/repos"
	"github.com/sekkei-dojo/backend/internal/types"
)

// StockService computes, per difficulty, how many problem groups have never
// been durably completed by anyone. Guest consumption is intentionally not
// tracked, so a group a guest burned through still counts as stock for users.
type StockService interface {
	Stock(ctx context.Context, difficulty string) (int64, error)
	StockAll(ctx context.Context, difficulties []string) (map[string]int64, error)
}

type stockService struct {
	db          *gorm.DB
	log         *logger.Logger
	groupRepo   repos.ProblemGroupRepo
	attemptRepo repos.AttemptRepo
}

func NewStockService(db *gorm.DB, log *logger.Logger, groupRepo repos.ProblemGroupRepo, attemptRepo repos.AttemptRepo) StockService {
	return &stockService{
		db:          db,
		log:         log.With("service", "StockService"),
		groupRepo:   groupRepo,
		attemptRepo: attemptRepo,
	}
}

func (s *stockService) Stock(ctx context.Context, difficulty string) (int64, error) {
	if !types.ValidDifficulty(difficulty) {
		return 0, fmt.Errorf("invalid difficulty %q", difficulty)
	}

	total, err := s.groupRepo.CountByDifficulty(ctx, nil, difficulty)
	if err != nil {
		return 0, fmt.Errorf("count groups: %w", err)
	}
	attempted, err := s.attemptRepo.CountDistinctGroupsByDifficulty(ctx, nil, difficulty)
	if err != nil {
		return 0, fmt.Errorf("count attempted groups: %w", err)
	}
	return total - attempted, nil
}

func (s *stockService) StockAll(ctx context.Context, difficulties []string) (map[string]int64, error) {
	out := make(map[string]int64, len(difficulties))
	for _, d := range difficulties {
		n, err := s.Stock(ctx, d)
		if err != nil {
			return nil, err
		}
		out[d] = n
	}
	return out, nil
}
