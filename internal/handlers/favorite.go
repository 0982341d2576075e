package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sekkei-dojo/backend/internal/identity"
	"github.com/sekkei-dojo/backend/internal/services"
)

type FavoriteHandler struct {
	libraryService services.LibraryService
}

func NewFavoriteHandler(libraryService services.LibraryService) *FavoriteHandler {
	return &FavoriteHandler{libraryService: libraryService}
}

func (h *FavoriteHandler) requireUser(c *gin.Context) (uuid.UUID, bool) {
	requester, ok := identity.FromContext(c.Request.Context())
	if !ok || !requester.IsUser() {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", errors.New("authentication required"))
		return uuid.Nil, false
	}
	return requester.UserID, true
}

func (h *FavoriteHandler) Add(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", errors.New("invalid problem group id"))
		return
	}
	if err := h.libraryService.AddFavorite(c.Request.Context(), userID, groupID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"favorited": true, "problem_group_id": groupID})
}

func (h *FavoriteHandler) Remove(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", errors.New("invalid problem group id"))
		return
	}
	if err := h.libraryService.RemoveFavorite(c.Request.Context(), userID, groupID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"favorited": false, "problem_group_id": groupID})
}

func (h *FavoriteHandler) List(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	groups, err := h.libraryService.ListFavorites(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"problem_groups": groups})
}
