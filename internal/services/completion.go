package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sekkei-dojo/backend/internal/identity"
	"github.com/sekkei-dojo/backend/internal/logger"
	"github.com/sekkei-dojo/backend/internal/repos"
	"github.com/sekkei-dojo/backend/internal/sessionstore"
	"github.com/sekkei-dojo/backend/internal/types"
)

// CompletionService retires a requester's claimed group. The whole operation
// is idempotent: the finish action is retried by clients on network errors
// and double submits, and a repeat call must ack, not fail.
type CompletionService interface {
	Complete(ctx context.Context, requester identity.Requester, groupID uuid.UUID, guestToken string) error
}

type completionService struct {
	db           *gorm.DB
	log          *logger.Logger
	attemptRepo  repos.AttemptRepo
	progressRepo repos.UserProgressRepo
	guestClaims  sessionstore.GuestClaimStore
}

func NewCompletionService(
	db *gorm.DB,
	log *logger.Logger,
	attemptRepo repos.AttemptRepo,
	progressRepo repos.UserProgressRepo,
	guestClaims sessionstore.GuestClaimStore,
) CompletionService {
	return &completionService{
		db:           db,
		log:          log.With("service", "CompletionService"),
		attemptRepo:  attemptRepo,
		progressRepo: progressRepo,
		guestClaims:  guestClaims,
	}
}

func (s *completionService) Complete(ctx context.Context, requester identity.Requester, groupID uuid.UUID, guestToken string) error {
	if groupID == uuid.Nil {
		return ErrNoActiveClaim
	}
	if requester.IsUser() {
		return s.completeUser(ctx, requester.UserID, groupID)
	}
	return s.completeGuest(ctx, requester.SessionID, groupID, guestToken)
}

func (s *completionService) completeUser(ctx context.Context, userID, groupID uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		progress, err := s.progressRepo.GetByUserID(ctx, tx, userID)
		if err != nil {
			return fmt.Errorf("read progress: %w", err)
		}

		if progress != nil && progress.CurrentGroupID != nil && *progress.CurrentGroupID == groupID {
			if err := s.attemptRepo.InsertIgnore(ctx, tx, &types.Attempt{
				ID:             uuid.New(),
				ProblemGroupID: groupID,
				UserID:         userID,
			}); err != nil {
				return fmt.Errorf("record attempt: %w", err)
			}
			if _, err := s.progressRepo.Release(ctx, tx, userID, groupID); err != nil {
				return fmt.Errorf("release claim: %w", err)
			}
			return nil
		}

		// No matching claim. A retry of an already-finished group still has
		// its attempt row, so ack instead of erroring; anything else is a
		// client/server desync.
		done, err := s.attemptRepo.Exists(ctx, tx, groupID, userID)
		if err != nil {
			return fmt.Errorf("check attempt: %w", err)
		}
		if done {
			return nil
		}
		return ErrNoActiveClaim
	})
	if err != nil {
		return err
	}

	s.log.Info("Completed problem group",
		"user_id", userID.String(),
		"problem_group_id", groupID.String(),
	)
	return nil
}

func (s *completionService) completeGuest(ctx context.Context, sessionID string, groupID uuid.UUID, guestToken string) error {
	claim, err := s.guestClaims.Get(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("read guest claim: %w", err)
	}
	if claim == nil || claim.Token != guestToken || claim.ProblemGroupID != groupID.String() {
		return ErrNoActiveClaim
	}
	if claim.Completed {
		return nil
	}

	if err := s.guestClaims.MarkCompleted(ctx, sessionID); err != nil {
		return fmt.Errorf("mark guest claim completed: %w", err)
	}

	s.log.Info("Completed guest problem group",
		"session_id", sessionID,
		"problem_group_id", groupID.String(),
	)
	return nil
}
