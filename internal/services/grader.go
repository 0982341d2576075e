package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sekkei-dojo/backend/internal/logger"
	"github.com/sekkei-dojo/backend/internal/repos"
	"github.com/sekkei-dojo/backend/internal/types"
)

// Grading prefers consistency over creativity.
const gradingTemperature = 0.3

type GradingResult struct {
	Grade       int    `json:"grade"`
	ModelAnswer string `json:"model_answer"`
	Explanation string `json:"explanation"`
}

// AnswerGraderService scores one submitted answer. Purely advisory: results
// never touch attempt state, so callers may grade the same answer repeatedly.
type AnswerGraderService interface {
	Grade(ctx context.Context, kind, problemBody, answerBody string) (*GradingResult, error)
}

type answerGraderService struct {
	log           *logger.Logger
	gemini        GeminiClient
	aiCallLogRepo repos.AICallLogRepo
}

func NewAnswerGraderService(log *logger.Logger, gemini GeminiClient, aiCallLogRepo repos.AICallLogRepo) AnswerGraderService {
	return &answerGraderService{
		log:           log.With("service", "AnswerGraderService"),
		gemini:        gemini,
		aiCallLogRepo: aiCallLogRepo,
	}
}

func (s *answerGraderService) Grade(ctx context.Context, kind, problemBody, answerBody string) (*GradingResult, error) {
	if !types.ValidProblemKind(kind) {
		return nil, fmt.Errorf("%w: invalid problem kind %q", ErrGrading, kind)
	}

	prompt := buildGradingPrompt(kind, problemBody, answerBody)

	started := time.Now()
	raw, callErr := s.gemini.GenerateJSON(ctx, prompt, gradingTemperature)
	s.recordCall(ctx, prompt, raw, time.Since(started), callErr)
	if callErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrGrading, callErr)
	}

	var result GradingResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("%w: parse grading payload: %v", ErrGrading, err)
	}
	if err := validateGradingResult(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGrading, err)
	}
	return &result, nil
}

func validateGradingResult(r *GradingResult) error {
	if !types.ValidGrade(r.Grade) {
		return fmt.Errorf("grade must be 0, 1 or 2, got %d", r.Grade)
	}
	if r.ModelAnswer == "" {
		return fmt.Errorf("grading payload is missing model_answer")
	}
	if r.Explanation == "" {
		return fmt.Errorf("grading payload is missing explanation")
	}
	return nil
}

func (s *answerGraderService) recordCall(ctx context.Context, prompt, response string, latency time.Duration, callErr error) {
	row := &types.AICallLog{
		ID:        uuid.New(),
		CallType:  "grading",
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
