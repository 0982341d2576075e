package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sekkei-dojo/backend/internal/identity"
	"github.com/sekkei-dojo/backend/internal/repos"
	"github.com/sekkei-dojo/backend/internal/sessionstore"
	"github.com/sekkei-dojo/backend/internal/types"
)

const gradedCorrectPayload = `{"grade": 2, "model_answer": "Looks right.", "explanation": "Matches the reference design."}`

type libraryFixture struct {
	db          *gorm.DB
	library     LibraryService
	allocation  AllocationService
	completion  CompletionService
	guestClaims *sessionstore.MemoryStore
}

func newLibraryFixture(t *testing.T, gemini GeminiClient) *libraryFixture {
	t.Helper()
	db := newTestDB(t)
	log := newTestLogger(t)
	groupRepo := repos.NewProblemGroupRepo(db, log)
	problemRepo := repos.NewProblemRepo(db, log)
	modelAnswerRepo := repos.NewModelAnswerRepo(db, log)
	attemptRepo := repos.NewAttemptRepo(db, log)
	progressRepo := repos.NewUserProgressRepo(db, log)
	answerRepo := repos.NewAnswerRepo(db, log)
	favoriteRepo := repos.NewFavoriteRepo(db, log)
	guestClaims := sessionstore.NewMemoryStore()
	grader := NewAnswerGraderService(log, gemini, repos.NewAICallLogRepo(db, log))

	return &libraryFixture{
		db:          db,
		library:     NewLibraryService(db, log, groupRepo, problemRepo, modelAnswerRepo, attemptRepo, progressRepo, answerRepo, favoriteRepo, guestClaims, grader),
		allocation:  NewAllocationService(db, log, groupRepo, progressRepo, guestClaims),
		completion:  NewCompletionService(db, log, attemptRepo, progressRepo, guestClaims),
		guestClaims: guestClaims,
	}
}

func TestGradeBatchForUser(t *testing.T) {
	fx := newLibraryFixture(t, &fakeGemini{responses: []string{gradedCorrectPayload}})
	group := seedGroup(t, fx.db, types.DifficultyEasy, time.Now())

	ctx := context.Background()
	userID := uuid.New()
	requester := identity.User(userID)

	if _, err := fx.allocation.Allocate(ctx, requester, types.DifficultyEasy); err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	submissions := []AnswerSubmission{
		{ProblemID: group.Problems[0].ID, AnswerBody: "trips(id, rider_id, driver_id, state)"},
		{ProblemID: group.Problems[1].ID, AnswerBody: "POST /rides with pickup and dropoff"},
	}
	results, err := fx.library.GradeBatch(ctx, requester, group.ID, "", submissions)
	if err != nil {
		t.Fatalf("GradeBatch: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for _, r := range results {
		if r.Grade != types.GradeCorrect {
			t.Fatalf("grade = %d, want %d", r.Grade, types.GradeCorrect)
		}
	}

	// User answers are kept as history.
	var count int64
	if err := fx.db.Model(&types.Answer{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		t.Fatalf("count answers: %v", err)
	}
	if count != 2 {
		t.Fatalf("persisted %d answers, want 2", count)
	}
}

func TestGradeBatchRequiresAccess(t *testing.T) {
	fx := newLibraryFixture(t, &fakeGemini{responses: []string{gradedCorrectPayload}})
	group := seedGroup(t, fx.db, types.DifficultyEasy, time.Now())

	submissions := []AnswerSubmission{{ProblemID: group.Problems[0].ID, AnswerBody: "an answer"}}

	// A user who never touched the group cannot grade against it.
	_, err := fx.library.GradeBatch(context.Background(), identity.User(uuid.New()), group.ID, "", submissions)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("user err = %v, want ErrPermissionDenied", err)
	}

	// A guest with the wrong token is rejected the same way.
	ctx := context.Background()
	guest := identity.Guest("guest-grading")
	if _, err := fx.allocation.Allocate(ctx, guest, types.DifficultyEasy); err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	_, err = fx.library.GradeBatch(ctx, guest, group.ID, "wrong-token", submissions)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("guest err = %v, want ErrPermissionDenied", err)
	}
}

func TestGradeBatchForGuest(t *testing.T) {
	fx := newLibraryFixture(t, &fakeGemini{responses: []string{gradedCorrectPayload}})
	group := seedGroup(t, fx.db, types.DifficultyEasy, time.Now())

	ctx := context.Background()
	guest := identity.Guest("guest-grading-ok")
	allocated, err := fx.allocation.Allocate(ctx, guest, types.DifficultyEasy)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	results, err := fx.library.GradeBatch(ctx, guest, group.ID, allocated.GuestToken, []AnswerSubmission{
		{ProblemID: group.Problems[0].ID, AnswerBody: "a schema"},
	})
	if err != nil {
		t.Fatalf("GradeBatch: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}

	// Guest answers are never persisted.
	var count int64
	if err := fx.db.Model(&types.Answer{}).Count(&count).Error; err != nil {
		t.Fatalf("count answers: %v", err)
	}
	if count != 0 {
		t.Fatalf("guest grading persisted %d answers, want 0", count)
	}
}

func TestGradeBatchAfterGuestCompletion(t *testing.T) {
	fx := newLibraryFixture(t, &fakeGemini{responses: []string{gradedCorrectPayload}})
	group := seedGroup(t, fx.db, types.DifficultyEasy, time.Now())

	ctx := context.Background()
	guest := identity.Guest("guest-finished")
	allocated, err := fx.allocation.Allocate(ctx, guest, types.DifficultyEasy)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if err := fx.completion.Complete(ctx, guest, group.ID, allocated.GuestToken); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	_, err = fx.library.GradeBatch(ctx, guest, group.ID, allocated.GuestToken, []AnswerSubmission{
		{ProblemID: group.Problems[0].ID, AnswerBody: "late answer"},
	})
	if !errors.Is(err, ErrGuestLimitReached) {
		t.Fatalf("post-completion GradeBatch err = %v, want ErrGuestLimitReached", err)
	}
}

func TestGradeBatchValidation(t *testing.T) {
	fx := newLibraryFixture(t, &fakeGemini{responses: []string{gradedCorrectPayload}})
	group := seedGroup(t, fx.db, types.DifficultyEasy, time.Now())

	ctx := context.Background()
	requester := identity.User(uuid.New())
	if _, err := fx.allocation.Allocate(ctx, requester, types.DifficultyEasy); err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	// Oversized answer.
	_, err := fx.library.GradeBatch(ctx, requester, group.ID, "", []AnswerSubmission{
		{ProblemID: group.Problems[0].ID, AnswerBody: strings.Repeat("a", MaxAnswerBodyLength+1)},
	})
	if !errors.Is(err, ErrGrading) {
		t.Fatalf("oversized answer err = %v, want ErrGrading", err)
	}

	// A problem from another group.
	other := seedGroup(t, fx.db, types.DifficultyMedium, time.Now())
	_, err = fx.library.GradeBatch(ctx, requester, group.ID, "", []AnswerSubmission{
		{ProblemID: other.Problems[0].ID, AnswerBody: "an answer"},
	})
	if !errors.Is(err, ErrGrading) {
		t.Fatalf("foreign problem err = %v, want ErrGrading", err)
	}

	// Empty batch.
	if _, err := fx.library.GradeBatch(ctx, requester, group.ID, "", nil); !errors.Is(err, ErrGrading) {
		t.Fatalf("empty batch err = %v, want ErrGrading", err)
	}
}

func TestMine(t *testing.T) {
	fx := newLibraryFixture(t, &fakeGemini{})
	first := seedGroup(t, fx.db, types.DifficultyEasy, time.Now().Add(-time.Hour))
	seedGroup(t, fx.db, types.DifficultyEasy, time.Now())

	ctx := context.Background()
	userID := uuid.New()
	requester := identity.User(userID)

	if _, err := fx.allocation.Allocate(ctx, requester, types.DifficultyEasy); err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if err := fx.completion.Complete(ctx, requester, first.ID, ""); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	groups, err := fx.library.Mine(ctx, userID)
	if err != nil {
		t.Fatalf("Mine: %v", err)
	}
	if len(groups) != 1 || groups[0].ID != first.ID {
		t.Fatalf("Mine returned %d groups, want exactly the finished one", len(groups))
	}
}

func TestDetailHidesModelAnswersUntilFinished(t *testing.T) {
	fx := newLibraryFixture(t, &fakeGemini{})
	group := seedGroup(t, fx.db, types.DifficultyEasy, time.Now())

	ctx := context.Background()
	requester := identity.User(uuid.New())

	if _, err := fx.allocation.Allocate(ctx, requester, types.DifficultyEasy); err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	detail, err := fx.library.Detail(ctx, requester, group.ID, "")
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	if detail.ModelAnswers != nil {
		t.Fatalf("model answers leaked before completion")
	}

	if err := fx.completion.Complete(ctx, requester, group.ID, ""); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	detail, err = fx.library.Detail(ctx, requester, group.ID, "")
	if err != nil {
		t.Fatalf("Detail after completion: %v", err)
	}
	if len(detail.ModelAnswers) != 2 {
		t.Fatalf("model answers for %d problems, want 2", len(detail.ModelAnswers))
	}
}

func TestDetailDeniesStrangers(t *testing.T) {
	fx := newLibraryFixture(t, &fakeGemini{})
	group := seedGroup(t, fx.db, types.DifficultyEasy, time.Now())

	_, err := fx.library.Detail(context.Background(), identity.User(uuid.New()), group.ID, "")
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("Detail err = %v, want ErrPermissionDenied", err)
	}

	_, err = fx.library.Detail(context.Background(), identity.User(uuid.New()), uuid.New(), "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Detail of missing group err = %v, want ErrNotFound", err)
	}
}

func TestFavorites(t *testing.T) {
	fx := newLibraryFixture(t, &fakeGemini{})
	group := seedGroup(t, fx.db, types.DifficultyEasy, time.Now())

	ctx := context.Background()
	userID := uuid.New()

	if err := fx.library.AddFavorite(ctx, userID, group.ID); err != nil {
		t.Fatalf("AddFavorite: %v", err)
	}
	// Adding twice is a no-op, not an error.
	if err := fx.library.AddFavorite(ctx, userID, group.ID); err != nil {
		t.Fatalf("repeat AddFavorite: %v", err)
	}

	groups, err := fx.library.ListFavorites(ctx, userID)
	if err != nil {
		t.Fatalf("ListFavorites: %v", err)
	}
	if len(groups) != 1 || groups[0].ID != group.ID {
		t.Fatalf("favorites = %d groups, want exactly the favorited one", len(groups))
	}

	if err := fx.library.RemoveFavorite(ctx, userID, group.ID); err != nil {
		t.Fatalf("RemoveFavorite: %v", err)
	}
	groups, err = fx.library.ListFavorites(ctx, userID)
	if err != nil {
		t.Fatalf("ListFavorites after removal: %v", err)
	}
	if len(groups) != 0 {
		t.Fatalf("favorites after removal = %d, want 0", len(groups))
	}

	if err := fx.library.AddFavorite(ctx, userID, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("AddFavorite of missing group err = %v, want ErrNotFound", err)
	}
}
