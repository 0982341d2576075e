package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sekkei-dojo/backend/internal/repos"
	"github.com/sekkei-dojo/backend/internal/types"
)

func TestStockCountsUntouchedGroupsOnly(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	svc := NewStockService(db, log, repos.NewProblemGroupRepo(db, log), repos.NewAttemptRepo(db, log))
	ctx := context.Background()

	a := seedGroup(t, db, types.DifficultyEasy, time.Now())
	seedGroup(t, db, types.DifficultyEasy, time.Now())
	seedGroup(t, db, types.DifficultyEasy, time.Now())
	seedGroup(t, db, types.DifficultyHard, time.Now())

	count, err := svc.Stock(ctx, types.DifficultyEasy)
	if err != nil {
		t.Fatalf("Stock: %v", err)
	}
	if count != 3 {
		t.Fatalf("easy stock = %d, want 3", count)
	}

	// One attempt by anyone burns the group for stock purposes, and more
	// attempts on the same group do not burn it twice.
	seedAttempt(t, db, a.ID, uuid.New())
	seedAttempt(t, db, a.ID, uuid.New())

	count, err = svc.Stock(ctx, types.DifficultyEasy)
	if err != nil {
		t.Fatalf("Stock: %v", err)
	}
	if count != 2 {
		t.Fatalf("easy stock after attempts = %d, want 2", count)
	}
}

func TestStockAll(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	svc := NewStockService(db, log, repos.NewProblemGroupRepo(db, log), repos.NewAttemptRepo(db, log))

	seedGroup(t, db, types.DifficultyEasy, time.Now())
	seedGroup(t, db, types.DifficultyMedium, time.Now())
	seedGroup(t, db, types.DifficultyMedium, time.Now())

	counts, err := svc.StockAll(context.Background(), []string{
		types.DifficultyEasy, types.DifficultyMedium, types.DifficultyHard,
	})
	if err != nil {
		t.Fatalf("StockAll: %v", err)
	}
	want := map[string]int64{"easy": 1, "medium": 2, "hard": 0}
	for difficulty, expected := range want {
		if counts[difficulty] != expected {
			t.Fatalf("stock[%s] = %d, want %d", difficulty, counts[difficulty], expected)
		}
	}
}

func TestStockRejectsInvalidDifficulty(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	svc := NewStockService(db, log, repos.NewProblemGroupRepo(db, log), repos.NewAttemptRepo(db, log))

	if _, err := svc.Stock(context.Background(), "impossible"); err == nil {
		t.Fatalf("Stock accepted an invalid difficulty")
	}
}
