package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/sekkei-dojo/backend/internal/logger"
	"github.com/sekkei-dojo/backend/internal/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.ProblemGroup{},
		&types.Problem{},
		&types.ModelAnswer{},
		&types.Attempt{},
		&types.Answer{},
		&types.UserProgress{},
		&types.FavoriteProblemGroup{},
		&types.AICallLog{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

// fakeGemini returns canned responses in order, repeating the last one once
// the script runs out.
type fakeGemini struct {
	responses []string
	err       error
	calls     int
}

func (f *fakeGemini) GenerateJSON(ctx context.Context, prompt string, temperature float64) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", nil
	}
	idx := f.calls - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return f.responses[idx], nil
}

func (f *fakeGemini) Model() string { return "fake-model" }

func seedGroup(t *testing.T, db *gorm.DB, difficulty string, createdAt time.Time) *types.ProblemGroup {
	t.Helper()
	group := &types.ProblemGroup{
		ID:          uuid.New(),
		Title:       "Ride sharing backend",
		Description: "Design the data layer and endpoints for a ride sharing service.",
		Difficulty:  difficulty,
		AppScale:    types.AppScaleMedium,
		Mode:        types.ModeBoth,
		CreatedAt:   createdAt,
	}
	if err := db.Create(group).Error; err != nil {
		t.Fatalf("seed group: %v", err)
	}

	problems := []*types.Problem{
		{
			ID:             uuid.New(),
			ProblemGroupID: group.ID,
			Kind:           types.ProblemKindDB,
			OrderIndex:     1,
			Body:           "Design the schema for trips, drivers and riders.",
		},
		{
			ID:             uuid.New(),
			ProblemGroupID: group.ID,
			Kind:           types.ProblemKindAPI,
			OrderIndex:     2,
			Body:           "Design the endpoint that requests a ride.",
		},
	}
	if err := db.Create(&problems).Error; err != nil {
		t.Fatalf("seed problems: %v", err)
	}
	for _, p := range problems {
		answer := &types.ModelAnswer{
			ID:        uuid.New(),
			ProblemID: p.ID,
			Version:   1,
			Body:      "Reference answer for " + p.Kind,
		}
		if err := db.Create(answer).Error; err != nil {
			t.Fatalf("seed model answer: %v", err)
		}
	}
	group.Problems = problems
	return group
}

func seedAttempt(t *testing.T, db *gorm.DB, groupID, userID uuid.UUID) {
	t.Helper()
	if err := db.Create(&types.Attempt{
		ID:             uuid.New(),
		ProblemGroupID: groupID,
		UserID:         userID,
	}).Error; err != nil {
		t.Fatalf("seed attempt: %v", err)
	}
}
