package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sekkei-dojo/backend/internal/identity"
	"github.com/sekkei-dojo/backend/internal/logger"
	"github.com/sekkei-dojo/backend/internal/repos"
	"github.com/sekkei-dojo/backend/internal/sessionstore"
	"github.com/sekkei-dojo/backend/internal/types"
)

type AllocationResult struct {
	Group *types.ProblemGroup
	// GuestToken is set only for guest requesters; the client must echo it
	// back on grading and completion.
	GuestToken string
}

// AllocationService hands out problem groups. The per-requester claim is the
// only exclusivity in the system: groups themselves are shared, eligibility
// is keyed by the (group, user) attempt pair, so no global lock is needed.
type AllocationService interface {
	Allocate(ctx context.Context, requester identity.Requester, difficulty string) (*AllocationResult, error)
}

type allocationService struct {
	db           *gorm.DB
	log          *logger.Logger
	groupRepo    repos.ProblemGroupRepo
	progressRepo repos.UserProgressRepo
	guestClaims  sessionstore.GuestClaimStore
}

func NewAllocationService(
	db *gorm.DB,
	log *logger.Logger,
	groupRepo repos.ProblemGroupRepo,
	progressRepo repos.UserProgressRepo,
	guestClaims sessionstore.GuestClaimStore,
) AllocationService {
	return &allocationService{
		db:           db,
		log:          log.With("service", "AllocationService"),
		groupRepo:    groupRepo,
		progressRepo: progressRepo,
		guestClaims:  guestClaims,
	}
}

func (s *allocationService) Allocate(ctx context.Context, requester identity.Requester, difficulty string) (*AllocationResult, error) {
	if !types.ValidDifficulty(difficulty) {
		return nil, fmt.Errorf("invalid difficulty %q", difficulty)
	}

	if requester.IsUser() {
		return s.allocateUser(ctx, requester.UserID, difficulty)
	}
	return s.allocateGuest(ctx, requester.SessionID, difficulty)
}

func (s *allocationService) allocateUser(ctx context.Context, userID uuid.UUID, difficulty string) (*AllocationResult, error) {
	var groupID uuid.UUID

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.progressRepo.EnsureRow(ctx, tx, userID); err != nil {
			return fmt.Errorf("ensure progress row: %w", err)
		}

		progress, err := s.progressRepo.GetByUserID(ctx, tx, userID)
		if err != nil {
			return fmt.Errorf("read progress: %w", err)
		}
		if progress != nil && progress.CurrentGroupID != nil {
			return ErrAlreadyInProgress
		}

		group, err := s.groupRepo.FirstEligibleForUser(ctx, tx, difficulty, userID)
		if err != nil {
			return fmt.Errorf("select eligible group: %w", err)
		}
		if group == nil {
			return ErrOutOfStock
		}

		// The conditional update is the real guard; the read above only
		// produces a clean error before we bother selecting a group.
		claimed, err := s.progressRepo.ClaimGroup(ctx, tx, userID, group.ID)
		if err != nil {
			return fmt.Errorf("claim group: %w", err)
		}
		if !claimed {
			return ErrAlreadyInProgress
		}

		groupID = group.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	full, err := s.groupRepo.GetByID(ctx, nil, groupID)
	if err != nil {
		return nil, fmt.Errorf("load allocated group: %w", err)
	}
	if full == nil {
		return nil, fmt.Errorf("allocated group %s disappeared", groupID)
	}

	s.log.Info("Allocated problem group to user",
		"user_id", userID.String(),
		"problem_group_id", groupID.String(),
		"difficulty", difficulty,
	)
	return &AllocationResult{Group: full}, nil
}

func (s *allocationService) allocateGuest(ctx context.Context, sessionID, difficulty string) (*AllocationResult, error) {
	existing, err := s.guestClaims.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("read guest claim: %w", err)
	}
	if existing != nil {
		if existing.Completed {
			return nil, ErrGuestLimitReached
		}
		return nil, ErrAlreadyAllocated
	}

	group, err := s.groupRepo.RandomUnattempted(ctx, nil, difficulty)
	if err != nil {
		return nil, fmt.Errorf("select guest group: %w", err)
	}
	if group == nil {
		return nil, ErrOutOfStock
	}

	token, err := newGuestToken()
	if err != nil {
		return nil, fmt.Errorf("mint guest token: %w", err)
	}

	claimed, err := s.guestClaims.Claim(ctx, sessionID, &sessionstore.GuestClaim{
		Token:          token,
		ProblemGroupID: group.ID.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("store guest claim: %w", err)
	}
	if !claimed {
		// Lost the set-if-absent race against a concurrent allocate.
		return nil, ErrAlreadyAllocated
	}

	full, err := s.groupRepo.GetByID(ctx, nil, group.ID)
	if err != nil {
		return nil, fmt.Errorf("load allocated group: %w", err)
	}
	if full == nil {
		return nil, fmt.Errorf("allocated group %s disappeared", group.ID)
	}

	s.log.Info("Allocated problem group to guest",
		"session_id", sessionID,
		"problem_group_id", group.ID.String(),
		"difficulty", difficulty,
	)
	return &AllocationResult{Group: full, GuestToken: token}, nil
}

func newGuestToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
