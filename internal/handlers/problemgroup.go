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

type ProblemGroupHandler struct {
	allocationService services.AllocationService
	completionService services.CompletionService
	stockService      services.StockService
	libraryService    services.LibraryService
}

func NewProblemGroupHandler(
	allocationService services.AllocationService,
	completionService services.CompletionService,
	stockService services.StockService,
	libraryService services.LibraryService,
) *ProblemGroupHandler {
	return &ProblemGroupHandler{
		allocationService: allocationService,
		completionService: completionService,
		stockService:      stockService,
		libraryService:    libraryService,
	}
}

func (h *ProblemGroupHandler) Allocate(c *gin.Context) {
	var req struct {
		Difficulty string `json:"difficulty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err)
		return
	}
	if !types.ValidDifficulty(req.Difficulty) {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", errors.New("difficulty must be easy, medium or hard"))
		return
	}

	requester, ok := identity.FromContext(c.Request.Context())
	if !ok {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", errors.New("no requester identity"))
		return
	}

	result, err := h.allocationService.Allocate(c.Request.Context(), requester, req.Difficulty)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	payload := gin.H{"problem_group": result.Group}
	if result.GuestToken != "" {
		payload["guest_token"] = result.GuestToken
	}
	RespondOK(c, payload)
}

func (h *ProblemGroupHandler) Complete(c *gin.Context) {
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", errors.New("invalid problem group id"))
		return
	}

	var req struct {
		GuestToken string `json:"guest_token"`
	}
	// Body is optional for authenticated users.
	_ = c.ShouldBindJSON(&req)

	requester, ok := identity.FromContext(c.Request.Context())
	if !ok {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", errors.New("no requester identity"))
		return
	}

	if err := h.completionService.Complete(c.Request.Context(), requester, groupID, req.GuestToken); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"completed": true, "problem_group_id": groupID})
}

func (h *ProblemGroupHandler) Stock(c *gin.Context) {
	if difficulty := c.Query("difficulty"); difficulty != "" {
		if !types.ValidDifficulty(difficulty) {
			RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", errors.New("difficulty must be easy, medium or hard"))
			return
		}
		count, err := h.stockService.Stock(c.Request.Context(), difficulty)
		if err != nil {
			RespondServiceError(c, err)
			return
		}
		RespondOK(c, gin.H{"difficulty": difficulty, "stock": count})
		return
	}

	counts, err := h.stockService.StockAll(c.Request.Context(), []string{
		types.DifficultyEasy, types.DifficultyMedium, types.DifficultyHard,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"stock": counts})
}

func (h *ProblemGroupHandler) Mine(c *gin.Context) {
	requester, ok := identity.FromContext(c.Request.Context())
	if !ok || !requester.IsUser() {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", errors.New("authentication required"))
		return
	}

	groups, err := h.libraryService.Mine(c.Request.Context(), requester.UserID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"problem_groups": groups})
}

func (h *ProblemGroupHandler) Detail(c *gin.Context) {
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", errors.New("invalid problem group id"))
		return
	}

	requester, ok := identity.FromContext(c.Request.Context())
	if !ok {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", errors.New("no requester identity"))
		return
	}

	detail, err := h.libraryService.Detail(c.Request.Context(), requester, groupID, c.Query("guest_token"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, detail)
}
