package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/sekkei-dojo/backend/internal/config"
	"github.com/sekkei-dojo/backend/internal/logger"
)

// ReplenisherService keeps every difficulty tier stocked above the floor.
// It only ever inserts brand-new groups, so it is safe to run concurrently
// with allocation; a stale stock read just means a tier briefly holds one
// group more or less than the floor.
type ReplenisherService interface {
	// RunOnce checks every configured tier and generates whatever is short.
	// Returns the number of groups generated.
	RunOnce(ctx context.Context) (int, error)
	// StartWorker runs RunOnce on the configured interval until ctx ends.
	StartWorker(ctx context.Context)
}

type replenisherService struct {
	db        *gorm.DB
	log       *logger.Logger
	cfg       config.ReplenisherConfig
	stock     StockService
	generator ProblemGeneratorService
}

func NewReplenisherService(
	db *gorm.DB,
	log *logger.Logger,
	cfg config.ReplenisherConfig,
	stock StockService,
	generator ProblemGeneratorService,
) ReplenisherService {
	return &replenisherService{
		db:        db,
		log:       log.With("service", "ReplenisherService"),
		cfg:       cfg,
		stock:     stock,
		generator: generator,
	}
}

func (s *replenisherService) RunOnce(ctx context.Context) (int, error) {
	grp, grpCtx := errgroup.WithContext(ctx)
	counts := make([]int, len(s.cfg.Difficulties))

	for i, difficulty := range s.cfg.Difficulties {
		i, difficulty := i, difficulty
		grp.Go(func() error {
			n, err := s.replenishTier(grpCtx, difficulty)
			counts[i] = n
			return err
		})
	}
	err := grp.Wait()

	total := 0
	for _, n := range counts {
		total += n
	}
	return total, err
}

func (s *replenisherService) replenishTier(ctx context.Context, difficulty string) (int, error) {
	current, err := s.stock.Stock(ctx, difficulty)
	if err != nil {
		return 0, fmt.Errorf("stock %s: %w", difficulty, err)
	}

	floor := int64(s.cfg.MinStock)
	if current >= floor {
		s.log.Debug("Stock is sufficient", "difficulty", difficulty, "stock", current, "floor", floor)
		return 0, nil
	}

	shortage := int(floor - current)
	s.log.Info("Replenishing stock", "difficulty", difficulty, "stock", current, "shortage", shortage)

	generated := 0
	for i := 0; i < shortage; i++ {
		group, genErr := s.generator.GenerateAndPersist(ctx, difficulty, s.cfg.AppScale, s.cfg.Mode)
		if genErr != nil {
			// Transient by definition; the next interval retries the rest.
			s.log.Warn("Generation failed during replenishment",
				"difficulty", difficulty,
				"generated", generated,
				"shortage", shortage,
				"error", genErr,
			)
			return generated, genErr
		}
		generated++
		s.log.Info("Replenished one group",
			"difficulty", difficulty,
			"problem_group_id", group.ID.String(),
			"progress", fmt.Sprintf("%d/%d", generated, shortage),
		)
	}
	return generated, nil
}

func (s *replenisherService) StartWorker(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()

		s.log.Info("Replenisher worker started",
			"interval", s.cfg.Interval.String(),
			"min_stock", s.cfg.MinStock,
		)

		for {
			select {
			case <-ctx.Done():
				s.log.Info("Replenisher worker stopping")
				return
			case <-ticker.C:
				n, err := s.RunOnce(ctx)
				if err != nil {
					s.log.Warn("Replenisher run finished with error", "generated", n, "error", err)
					continue
				}
				if n > 0 {
					s.log.Info("Replenisher run finished", "generated", n)
				}
			}
		}
	}()
}
