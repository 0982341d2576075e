package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sekkei-dojo/backend/internal/services"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondServiceError maps the service layer's sentinel outcomes onto HTTP
// statuses and stable machine-readable codes. Unrecognized errors become an
// opaque 500 so internals never leak to clients.
func RespondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrAlreadyInProgress):
		RespondError(c, http.StatusConflict, "ALREADY_IN_PROGRESS", err)
	case errors.Is(err, services.ErrAlreadyAllocated):
		RespondError(c, http.StatusConflict, "ALREADY_ALLOCATED", err)
	case errors.Is(err, services.ErrOutOfStock):
		RespondError(c, http.StatusServiceUnavailable, "OUT_OF_STOCK", err)
	case errors.Is(err, services.ErrGuestLimitReached):
		RespondError(c, http.StatusForbidden, "GUEST_LIMIT_REACHED", err)
	case errors.Is(err, services.ErrNoActiveClaim):
		RespondError(c, http.StatusConflict, "NO_ACTIVE_CLAIM", err)
	case errors.Is(err, services.ErrNotFound):
		RespondError(c, http.StatusNotFound, "NOT_FOUND", err)
	case errors.Is(err, services.ErrPermissionDenied):
		RespondError(c, http.StatusForbidden, "PERMISSION_DENIED", err)
	case errors.Is(err, services.ErrEmailTaken):
		RespondError(c, http.StatusConflict, "EMAIL_TAKEN", err)
	case errors.Is(err, services.ErrInvalidLogin):
		RespondError(c, http.StatusUnauthorized, "INVALID_LOGIN", err)
	case errors.Is(err, services.ErrGeneration):
		RespondError(c, http.StatusBadGateway, "GENERATION_FAILED", err)
	case errors.Is(err, services.ErrGrading):
		RespondError(c, http.StatusBadGateway, "GRADING_FAILED", err)
	default:
		RespondError(c, http.StatusInternalServerError, "INTERNAL", errors.New("internal server error"))
	}
}
