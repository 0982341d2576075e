package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sekkei-dojo/backend/internal/identity"
	"github.com/sekkei-dojo/backend/internal/services"
	"github.com/sekkei-dojo/backend/internal/types"
)

// gradeDisplay renders the numeric grade the way the UI shows it.
var gradeDisplay = map[int]string{
	types.GradeIncorrect: "×",
	types.GradePartial:   "△",
	types.GradeCorrect:   "○",
}

type GradeHandler struct {
	libraryService services.LibraryService
}

func NewGradeHandler(libraryService services.LibraryService) *GradeHandler {
	return &GradeHandler{libraryService: libraryService}
}

func (h *GradeHandler) GradeBatch(c *gin.Context) {
	var req struct {
		ProblemGroupID string `json:"problem_group_id"`
		GuestToken     string `json:"guest_token"`
		Answers        []struct {
			ProblemID  string `json:"problem_id"`
			AnswerBody string `json:"answer_body"`
		} `json:"answers"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err)
		return
	}
	if req.ProblemGroupID == "" {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", errors.New("problem_group_id is required"))
		return
	}
	groupID, err := uuid.Parse(req.ProblemGroupID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", errors.New("invalid problem_group_id"))
		return
	}

	requester, ok := identity.FromContext(c.Request.Context())
	if !ok {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", errors.New("no requester identity"))
		return
	}
	// Exactly one credential: users are identified by their token, guests
	// by the allocation token. Supplying the wrong one is a client bug.
	if requester.IsUser() && req.GuestToken != "" {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", errors.New("guest_token must not be set for authenticated requests"))
		return
	}
	if !requester.IsUser() && req.GuestToken == "" {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", errors.New("guest_token is required for guest requests"))
		return
	}

	submissions := make([]services.AnswerSubmission, 0, len(req.Answers))
	for _, a := range req.Answers {
		problemID, err := uuid.Parse(a.ProblemID)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", errors.New("invalid problem_id"))
			return
		}
		submissions = append(submissions, services.AnswerSubmission{
			ProblemID:  problemID,
			AnswerBody: a.AnswerBody,
		})
	}

	results, err := h.libraryService.GradeBatch(c.Request.Context(), requester, groupID, req.GuestToken, submissions)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	payload := make([]gin.H, 0, len(results))
	for _, r := range results {
		payload = append(payload, gin.H{
			"problem_id":    r.ProblemID,
			"grade":         r.Grade,
			"grade_display": gradeDisplay[r.Grade],
			"model_answer":  r.ModelAnswer,
			"explanation":   r.Explanation,
		})
	}
	RespondOK(c, gin.H{"results": payload})
}
