package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sekkei-dojo/backend/internal/logger"
	"github.com/sekkei-dojo/backend/internal/repos"
	"github.com/sekkei-dojo/backend/internal/types"
)

const generationTemperature = 0.8

type GeneratedProblem struct {
	Kind        string `json:"kind"`
	OrderIndex  int    `json:"order_index"`
	Body        string `json:"body"`
	ModelAnswer string `json:"model_answer"`
}

type GeneratedGroup struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Problems    []GeneratedProblem `json:"problems"`
}

// ProblemGeneratorService produces problem groups through the LLM and
// persists them. A group and its problems and model answers land in one
// transaction, so a timeout or malformed payload never leaves a partially
// visible group.
type ProblemGeneratorService interface {
	GenerateAndPersist(ctx context.Context, difficulty, appScale, mode string) (*types.ProblemGroup, error)
}

type problemGeneratorService struct {
	db            *gorm.DB
	log           *logger.Logger
	gemini        GeminiClient
	groupRepo     repos.ProblemGroupRepo
	problemRepo   repos.ProblemRepo
	modelAnsRepo  repos.ModelAnswerRepo
	aiCallLogRepo repos.AICallLogRepo
}

func NewProblemGeneratorService(
	db *gorm.DB,
	log *logger.Logger,
	gemini GeminiClient,
	groupRepo repos.ProblemGroupRepo,
	problemRepo repos.ProblemRepo,
	modelAnsRepo repos.ModelAnswerRepo,
	aiCallLogRepo repos.AICallLogRepo,
) ProblemGeneratorService {
	return &problemGeneratorService{
		db:            db,
		log:           log.With("service", "ProblemGeneratorService"),
		gemini:        gemini,
		groupRepo:     groupRepo,
		problemRepo:   problemRepo,
		modelAnsRepo:  modelAnsRepo,
		aiCallLogRepo: aiCallLogRepo,
	}
}

func (s *problemGeneratorService) GenerateAndPersist(ctx context.Context, difficulty, appScale, mode string) (*types.ProblemGroup, error) {
	if !types.ValidDifficulty(difficulty) {
		return nil, fmt.Errorf("%w: invalid difficulty %q", ErrGeneration, difficulty)
	}
	if !types.ValidAppScale(appScale) {
		return nil, fmt.Errorf("%w: invalid app scale %q", ErrGeneration, appScale)
	}
	if !types.ValidMode(mode) {
		return nil, fmt.Errorf("%w: invalid mode %q", ErrGeneration, mode)
	}

	prompt := buildGenerationPrompt(difficulty, appScale, mode)

	started := time.Now()
	raw, callErr := s.gemini.GenerateJSON(ctx, prompt, generationTemperature)
	s.recordCall(ctx, prompt, raw, time.Since(started), callErr)
	if callErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, callErr)
	}

	var generated GeneratedGroup
	if err := json.Unmarshal([]byte(raw), &generated); err != nil {
		return nil, fmt.Errorf("%w: parse generated payload: %v", ErrGeneration, err)
	}
	if err := validateGeneratedGroup(&generated, mode); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	group := &types.ProblemGroup{
		ID:          uuid.New(),
		Title:       generated.Title,
		Description: generated.Description,
		Difficulty:  difficulty,
		AppScale:    appScale,
		Mode:        mode,
	}

	problems := make([]*types.Problem, 0, len(generated.Problems))
	modelAnswers := make([]*types.ModelAnswer, 0, len(generated.Problems))
	for _, gp := range generated.Problems {
		problem := &types.Problem{
			ID:             uuid.New(),
			ProblemGroupID: group.ID,
			Kind:           gp.Kind,
			OrderIndex:     gp.OrderIndex,
			Body:           gp.Body,
		}
		problems = append(problems, problem)
		modelAnswers = append(modelAnswers, &types.ModelAnswer{
			ID:        uuid.New(),
			ProblemID: problem.ID,
			Version:   1,
			Body:      gp.ModelAnswer,
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.groupRepo.Create(ctx, tx, []*types.ProblemGroup{group}); err != nil {
			return fmt.Errorf("create problem group: %w", err)
		}
		if _, err := s.problemRepo.Create(ctx, tx, problems); err != nil {
			return fmt.Errorf("create problems: %w", err)
		}
		if _, err := s.modelAnsRepo.Create(ctx, tx, modelAnswers); err != nil {
			return fmt.Errorf("create model answers: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: persist group: %v", ErrGeneration, err)
	}

	group.Problems = problems
	s.log.Info("Generated problem group",
		"problem_group_id", group.ID.String(),
		"difficulty", difficulty,
		"mode", mode,
		"problem_count", len(problems),
	)
	return group, nil
}

func validateGeneratedGroup(g *GeneratedGroup, mode string) error {
	if g.Title == "" {
		return fmt.Errorf("generated payload is missing title")
	}
	if g.Description == "" {
		return fmt.Errorf("generated payload is missing description")
	}
	if len(g.Problems) == 0 {
		return fmt.Errorf("generated payload has no problems")
	}

	seenOrder := make(map[int]bool, len(g.Problems))
	dbCount, apiCount := 0, 0
	for i, p := range g.Problems {
		if !types.ValidProblemKind(p.Kind) {
			return fmt.Errorf("problem %d: invalid kind %q", i+1, p.Kind)
		}
		if p.Body == "" {
			return fmt.Errorf("problem %d: empty body", i+1)
		}
		if p.ModelAnswer == "" {
			return fmt.Errorf("problem %d: empty model answer", i+1)
		}
		if p.OrderIndex <= 0 {
			return fmt.Errorf("problem %d: invalid order_index %d", i+1, p.OrderIndex)
		}
		if seenOrder[p.OrderIndex] {
			return fmt.Errorf("problem %d: duplicate order_index %d", i+1, p.OrderIndex)
		}
		seenOrder[p.OrderIndex] = true
		switch p.Kind {
		case types.ProblemKindDB:
			dbCount++
		case types.ProblemKindAPI:
			apiCount++
		}
	}

	switch mode {
	case types.ModeDBOnly:
		if len(g.Problems) != 1 || dbCount != 1 {
			return fmt.Errorf("mode db_only requires exactly one db problem, got %d db / %d api", dbCount, apiCount)
		}
	case types.ModeAPIOnly:
		if dbCount != 0 || apiCount < 1 {
			return fmt.Errorf("mode api_only requires api problems only, got %d db / %d api", dbCount, apiCount)
		}
	case types.ModeBoth:
		if dbCount != 1 {
			return fmt.Errorf("mode both requires exactly one db problem, got %d", dbCount)
		}
		if apiCount < 1 {
			return fmt.Errorf("mode both requires at least one api problem")
		}
		if g.Problems[0].Kind != types.ProblemKindDB {
			return fmt.Errorf("mode both requires the db problem first, got %q", g.Problems[0].Kind)
		}
	}
	return nil
}

func (s *problemGeneratorService) recordCall(ctx context.Context, prompt, response string, latency time.Duration, callErr error) {
	row := &types.AICallLog{
		ID:        uuid.New(),
		CallType:  "generation",
		Model:     s.gemini.Model(),
		Prompt:    prompt,
		Response:  response,
		Success:   callErr == nil,
		LatencyMS: latency.Milliseconds(),
	}
	if callErr != nil {
		row.Error = callErr.Error()
	}
	if _, err := s.aiCallLogRepo.Create(ctx, nil, []*types.AICallLog{row}); err != nil {
		s.log.Warn("Failed to record AI call log", "error", err)
	}
}
