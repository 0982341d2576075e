package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sekkei-dojo/backend/internal/identity"
	"github.com/sekkei-dojo/backend/internal/logger"
	"github.com/sekkei-dojo/backend/internal/repos"
	"github.com/sekkei-dojo/backend/internal/sessionstore"
	"github.com/sekkei-dojo/backend/internal/types"
)

// MaxAnswerBodyLength caps a single submitted answer.
const MaxAnswerBodyLength = 10000

type AnswerSubmission struct {
	ProblemID  uuid.UUID `json:"problem_id"`
	AnswerBody string    `json:"answer_body"`
}

type GradedAnswer struct {
	ProblemID   uuid.UUID `json:"problem_id"`
	Grade       int       `json:"grade"`
	ModelAnswer string    `json:"model_answer"`
	Explanation string    `json:"explanation"`
}

// GroupDetail is a group with its problems and, once the requester has
// finished the group, the model answers keyed by problem id.
type GroupDetail struct {
	Group        *types.ProblemGroup                `json:"problem_group"`
	ModelAnswers map[uuid.UUID][]*types.ModelAnswer `json:"model_answers,omitempty"`
}

// LibraryService covers everything around a dispensed group that is not the
// claim state machine itself: grading submitted answers, browsing finished
// groups and managing favorites.
type LibraryService interface {
	// GradeBatch grades the submissions against their problems. Users must
	// reference a group they hold or have finished; guests must present
	// their allocation token. Graded answers are persisted for users only.
	GradeBatch(ctx context.Context, requester identity.Requester, groupID uuid.UUID, guestToken string, submissions []AnswerSubmission) ([]GradedAnswer, error)
	// Mine lists the groups the user has finished, most recent first.
	Mine(ctx context.Context, userID uuid.UUID) ([]*types.ProblemGroup, error)
	Detail(ctx context.Context, requester identity.Requester, groupID uuid.UUID, guestToken string) (*GroupDetail, error)
	AddFavorite(ctx context.Context, userID, groupID uuid.UUID) error
	RemoveFavorite(ctx context.Context, userID, groupID uuid.UUID) error
	ListFavorites(ctx context.Context, userID uuid.UUID) ([]*types.ProblemGroup, error)
}

type libraryService struct {
	db           *gorm.DB
	log          *logger.Logger
	groupRepo    repos.ProblemGroupRepo
	problemRepo  repos.ProblemRepo
	modelAnswers repos.ModelAnswerRepo
	attemptRepo  repos.AttemptRepo
	progressRepo repos.UserProgressRepo
	answerRepo   repos.AnswerRepo
	favoriteRepo repos.FavoriteRepo
	guestClaims  sessionstore.GuestClaimStore
	grader       AnswerGraderService
}

func NewLibraryService(
	db *gorm.DB,
	log *logger.Logger,
	groupRepo repos.ProblemGroupRepo,
	problemRepo repos.ProblemRepo,
	modelAnswers repos.ModelAnswerRepo,
	attemptRepo repos.AttemptRepo,
	progressRepo repos.UserProgressRepo,
	answerRepo repos.AnswerRepo,
	favoriteRepo repos.FavoriteRepo,
	guestClaims sessionstore.GuestClaimStore,
	grader AnswerGraderService,
) LibraryService {
	return &libraryService{
		db:           db,
		log:          log.With("service", "LibraryService"),
		groupRepo:    groupRepo,
		problemRepo:  problemRepo,
		modelAnswers: modelAnswers,
		attemptRepo:  attemptRepo,
		progressRepo: progressRepo,
		answerRepo:   answerRepo,
		favoriteRepo: favoriteRepo,
		guestClaims:  guestClaims,
		grader:       grader,
	}
}

func (s *libraryService) GradeBatch(ctx context.Context, requester identity.Requester, groupID uuid.UUID, guestToken string, submissions []AnswerSubmission) ([]GradedAnswer, error) {
	if len(submissions) == 0 {
		return nil, fmt.Errorf("%w: no answers submitted", ErrGrading)
	}
	for _, sub := range submissions {
		if sub.ProblemID == uuid.Nil {
			return nil, fmt.Errorf("%w: answer is missing problem_id", ErrGrading)
		}
		if sub.AnswerBody == "" {
			return nil, fmt.Errorf("%w: answer body is empty", ErrGrading)
		}
		if len(sub.AnswerBody) > MaxAnswerBodyLength {
			return nil, fmt.Errorf("%w: answer body exceeds %d characters", ErrGrading, MaxAnswerBodyLength)
		}
	}

	if !requester.IsUser() {
		claim, err := s.guestClaims.Get(ctx, requester.SessionID)
		if err != nil {
			return nil, fmt.Errorf("read guest claim: %w", err)
		}
		// A finished guest session has consumed its single attempt; viewing
		// results stays open, grading does not.
		if claim != nil && claim.Completed {
			return nil, ErrGuestLimitReached
		}
	}

	group, err := s.authorizeGroupAccess(ctx, requester, groupID, guestToken)
	if err != nil {
		return nil, err
	}

	problemsByID := make(map[uuid.UUID]*types.Problem, len(group.Problems))
	for _, p := range group.Problems {
		problemsByID[p.ID] = p
	}

	results := make([]GradedAnswer, 0, len(submissions))
	for _, sub := range submissions {
		problem, ok := problemsByID[sub.ProblemID]
		if !ok {
			return nil, fmt.Errorf("%w: problem %s does not belong to group %s", ErrGrading, sub.ProblemID, group.ID)
		}

		graded, err := s.grader.Grade(ctx, problem.Kind, problem.Body, sub.AnswerBody)
		if err != nil {
			return nil, err
		}
		results = append(results, GradedAnswer{
			ProblemID:   problem.ID,
			Grade:       graded.Grade,
			ModelAnswer: graded.ModelAnswer,
			Explanation: graded.Explanation,
		})
	}

	if requester.IsUser() {
		if err := s.persistAnswers(ctx, requester.UserID, submissions, results); err != nil {
			// Grading already succeeded; losing the history row is not worth
			// failing the request over.
			s.log.Warn("Failed to persist graded answers",
				"user_id", requester.UserID.String(),
				"error", err,
			)
		}
	}
	return results, nil
}

func (s *libraryService) persistAnswers(ctx context.Context, userID uuid.UUID, submissions []AnswerSubmission, results []GradedAnswer) error {
	rows := make([]*types.Answer, 0, len(results))
	for i, res := range results {
		metadata, err := buildAnswerMetadata(res.ModelAnswer, res.Explanation)
		if err != nil {
			return err
		}
		rows = append(rows, &types.Answer{
			ID:         uuid.New(),
			ProblemID:  res.ProblemID,
			UserID:     userID,
			AnswerBody: submissions[i].AnswerBody,
			Grade:      res.Grade,
			Version:    1,
			Metadata:   metadata,
		})
	}
	_, err := s.answerRepo.Create(ctx, nil, rows)
	return err
}

func buildAnswerMetadata(modelAnswer, explanation string) (datatypes.JSON, error) {
	raw, err := json.Marshal(map[string]string{
		"model_answer": modelAnswer,
		"explanation":  explanation,
	})
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// authorizeGroupAccess checks the requester is entitled to the group's
// content and returns the group with its problems loaded.
func (s *libraryService) authorizeGroupAccess(ctx context.Context, requester identity.Requester, groupID uuid.UUID, guestToken string) (*types.ProblemGroup, error) {
	group, err := s.groupRepo.GetByID(ctx, nil, groupID)
	if err != nil {
		return nil, fmt.Errorf("load group: %w", err)
	}
	if group == nil {
		return nil, ErrNotFound
	}

	if requester.IsUser() {
		progress, err := s.progressRepo.GetByUserID(ctx, nil, requester.UserID)
		if err != nil {
			return nil, fmt.Errorf("read progress: %w", err)
		}
		if progress != nil && progress.CurrentGroupID != nil && *progress.CurrentGroupID == groupID {
			return group, nil
		}
		attempted, err := s.attemptRepo.Exists(ctx, nil, groupID, requester.UserID)
		if err != nil {
			return nil, fmt.Errorf("check attempt: %w", err)
		}
		if !attempted {
			return nil, ErrPermissionDenied
		}
		return group, nil
	}

	claim, err := s.guestClaims.Get(ctx, requester.SessionID)
	if err != nil {
		return nil, fmt.Errorf("read guest claim: %w", err)
	}
	if claim == nil || guestToken == "" || claim.Token != guestToken || claim.ProblemGroupID != groupID.String() {
		return nil, ErrPermissionDenied
	}
	return group, nil
}

func (s *libraryService) Mine(ctx context.Context, userID uuid.UUID) ([]*types.ProblemGroup, error) {
	attempts, err := s.attemptRepo.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(attempts))
	for _, a := range attempts {
		ids = append(ids, a.ProblemGroupID)
	}
	groups, err := s.groupRepo.GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("load groups: %w", err)
	}
	return groups, nil
}

func (s *libraryService) Detail(ctx context.Context, requester identity.Requester, groupID uuid.UUID, guestToken string) (*GroupDetail, error) {
	group, err := s.authorizeGroupAccess(ctx, requester, groupID, guestToken)
	if err != nil {
		return nil, err
	}

	detail := &GroupDetail{Group: group}

	finished, err := s.hasFinished(ctx, requester, groupID)
	if err != nil {
		return nil, err
	}
	if !finished {
		// Model answers stay hidden until the group is finished, so an
		// in-progress solver cannot peek.
		return detail, nil
	}

	problemIDs := make([]uuid.UUID, 0, len(group.Problems))
	for _, p := range group.Problems {
		problemIDs = append(problemIDs, p.ID)
	}
	answers, err := s.modelAnswers.GetByProblemIDs(ctx, nil, problemIDs)
	if err != nil {
		return nil, fmt.Errorf("load model answers: %w", err)
	}

	detail.ModelAnswers = make(map[uuid.UUID][]*types.ModelAnswer, len(problemIDs))
	for _, ma := range answers {
		detail.ModelAnswers[ma.ProblemID] = append(detail.ModelAnswers[ma.ProblemID], ma)
	}
	return detail, nil
}

func (s *libraryService) hasFinished(ctx context.Context, requester identity.Requester, groupID uuid.UUID) (bool, error) {
	if requester.IsUser() {
		done, err := s.attemptRepo.Exists(ctx, nil, groupID, requester.UserID)
		if err != nil {
			return false, fmt.Errorf("check attempt: %w", err)
		}
		return done, nil
	}
	claim, err := s.guestClaims.Get(ctx, requester.SessionID)
	if err != nil {
		return false, fmt.Errorf("read guest claim: %w", err)
	}
	return claim != nil && claim.Completed, nil
}

func (s *libraryService) AddFavorite(ctx context.Context, userID, groupID uuid.UUID) error {
	group, err := s.groupRepo.GetByID(ctx, nil, groupID)
	if err != nil {
		return fmt.Errorf("load group: %w", err)
	}
	if group == nil {
		return ErrNotFound
	}

	if err := s.favoriteRepo.InsertIgnore(ctx, nil, &types.FavoriteProblemGroup{
		ID:             uuid.New(),
		UserID:         userID,
		ProblemGroupID: groupID,
	}); err != nil {
		return fmt.Errorf("save favorite: %w", err)
	}
	return nil
}

func (s *libraryService) RemoveFavorite(ctx context.Context, userID, groupID uuid.UUID) error {
	if err := s.favoriteRepo.Delete(ctx, nil, userID, groupID); err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	return nil
}

func (s *libraryService) ListFavorites(ctx context.Context, userID uuid.UUID) ([]*types.ProblemGroup, error) {
	favorites, err := s.favoriteRepo.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(favorites))
	for _, f := range favorites {
		ids = append(ids, f.ProblemGroupID)
	}
	groups, err := s.groupRepo.GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("load groups: %w", err)
	}
	return groups, nil
}
