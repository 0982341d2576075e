package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/sekkei-dojo/backend/internal/repos"
	"github.com/sekkei-dojo/backend/internal/types"
)

const validGeneratedPayload = `{
  "title": "Inventory service",
  "description": "A warehouse inventory backend for a retail chain.",
  "problems": [
    {"kind": "db", "order_index": 1, "body": "Design the stock keeping schema.", "model_answer": "Tables for items, locations and stock levels."},
    {"kind": "api", "order_index": 2, "body": "Design the stock adjustment endpoint.", "model_answer": "POST /adjustments with item, delta and reason."}
  ]
}`

func newGeneratorService(t *testing.T, gemini GeminiClient) (ProblemGeneratorService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	log := newTestLogger(t)
	svc := NewProblemGeneratorService(db, log, gemini,
		repos.NewProblemGroupRepo(db, log),
		repos.NewProblemRepo(db, log),
		repos.NewModelAnswerRepo(db, log),
		repos.NewAICallLogRepo(db, log),
	)
	return svc, db
}

func TestGenerateAndPersist(t *testing.T) {
	gemini := &fakeGemini{responses: []string{validGeneratedPayload}}
	svc, db := newGeneratorService(t, gemini)

	group, err := svc.GenerateAndPersist(context.Background(), types.DifficultyEasy, types.AppScaleMedium, types.ModeBoth)
	if err != nil {
		t.Fatalf("GenerateAndPersist: %v", err)
	}
	if group.Title != "Inventory service" {
		t.Fatalf("group title = %q", group.Title)
	}
	if group.Difficulty != types.DifficultyEasy || group.Mode != types.ModeBoth {
		t.Fatalf("group tagged %s/%s, want easy/both", group.Difficulty, group.Mode)
	}
	if len(group.Problems) != 2 {
		t.Fatalf("group has %d problems, want 2", len(group.Problems))
	}

	var problemCount, answerCount int64
	if err := db.Model(&types.Problem{}).Count(&problemCount).Error; err != nil {
		t.Fatalf("count problems: %v", err)
	}
	if err := db.Model(&types.ModelAnswer{}).Count(&answerCount).Error; err != nil {
		t.Fatalf("count model answers: %v", err)
	}
	if problemCount != 2 || answerCount != 2 {
		t.Fatalf("persisted %d problems / %d model answers, want 2 / 2", problemCount, answerCount)
	}

	// The call lands in the audit log.
	var logCount int64
	if err := db.Model(&types.AICallLog{}).Where("call_type = ? AND success", "generation").Count(&logCount).Error; err != nil {
		t.Fatalf("count call log: %v", err)
	}
	if logCount != 1 {
		t.Fatalf("ai call log rows = %d, want 1", logCount)
	}
}

func TestGenerateAndPersistRejectsMalformedPayload(t *testing.T) {
	cases := map[string]string{
		"not json":          "here are your problems!",
		"no problems":       `{"title": "t", "description": "d", "problems": []}`,
		"empty body":        `{"title": "t", "description": "d", "problems": [{"kind": "db", "order_index": 1, "body": "", "model_answer": "a"}]}`,
		"bad kind":          `{"title": "t", "description": "d", "problems": [{"kind": "ui", "order_index": 1, "body": "b", "model_answer": "a"}]}`,
		"duplicate order":   `{"title": "t", "description": "d", "problems": [{"kind": "db", "order_index": 1, "body": "b", "model_answer": "a"}, {"kind": "api", "order_index": 1, "body": "b", "model_answer": "a"}]}`,
		"api problem first": `{"title": "t", "description": "d", "problems": [{"kind": "api", "order_index": 1, "body": "b", "model_answer": "a"}, {"kind": "db", "order_index": 2, "body": "b", "model_answer": "a"}]}`,
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			svc, db := newGeneratorService(t, &fakeGemini{responses: []string{payload}})

			_, err := svc.GenerateAndPersist(context.Background(), types.DifficultyEasy, types.AppScaleMedium, types.ModeBoth)
			if !errors.Is(err, ErrGeneration) {
				t.Fatalf("err = %v, want ErrGeneration", err)
			}

			// Nothing may be half-persisted.
			var count int64
			if err := db.Model(&types.ProblemGroup{}).Count(&count).Error; err != nil {
				t.Fatalf("count groups: %v", err)
			}
			if count != 0 {
				t.Fatalf("rejected payload persisted %d groups", count)
			}
		})
	}
}

func TestGenerateAndPersistModeRules(t *testing.T) {
	dbOnly := `{"title": "t", "description": "d", "problems": [{"kind": "db", "order_index": 1, "body": "b", "model_answer": "a"}]}`
	svc, _ := newGeneratorService(t, &fakeGemini{responses: []string{dbOnly}})
	if _, err := svc.GenerateAndPersist(context.Background(), types.DifficultyEasy, types.AppScaleSmall, types.ModeDBOnly); err != nil {
		t.Fatalf("db_only GenerateAndPersist: %v", err)
	}

	// The same payload under api_only must fail.
	svc2, _ := newGeneratorService(t, &fakeGemini{responses: []string{dbOnly}})
	if _, err := svc2.GenerateAndPersist(context.Background(), types.DifficultyEasy, types.AppScaleSmall, types.ModeAPIOnly); !errors.Is(err, ErrGeneration) {
		t.Fatalf("api_only err = %v, want ErrGeneration", err)
	}
}

func TestGenerateAndPersistClientError(t *testing.T) {
	svc, db := newGeneratorService(t, &fakeGemini{err: errors.New("upstream down")})

	_, err := svc.GenerateAndPersist(context.Background(), types.DifficultyHard, types.AppScaleLarge, types.ModeBoth)
	if !errors.Is(err, ErrGeneration) {
		t.Fatalf("err = %v, want ErrGeneration", err)
	}

	// The failed call is still logged.
	var logCount int64
	if err := db.Model(&types.AICallLog{}).Where("call_type = ? AND NOT success", "generation").Count(&logCount).Error; err != nil {
		t.Fatalf("count call log: %v", err)
	}
	if logCount != 1 {
		t.Fatalf("ai call log rows = %d, want 1", logCount)
	}
}
