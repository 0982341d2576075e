package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sekkei-dojo/backend/internal/logger"
	"github.com/sekkei-dojo/backend/internal/requestdata"
	"github.com/sekkei-dojo/backend/internal/services"
)

// guestSessionCookie keys the ephemeral claim state for anonymous visitors.
const guestSessionCookie = "guest_session"

type AuthMiddleware struct {
	log            *logger.Logger
	authService    services.AuthService
	guestCookieTTL int
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService, guestCookieTTLSeconds int) *AuthMiddleware {
	middlewareLogger := log.With("middleware", "AuthMiddleware")
	return &AuthMiddleware{
		log:            middlewareLogger,
		authService:    authService,
		guestCookieTTL: guestCookieTTLSeconds,
	}
}

// RequireAuth rejects the request unless a valid bearer token resolves to a
// user.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}
		ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		rd := requestdata.GetRequestData(ctx)
		if rd == nil || rd.UserID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// ResolveRequester attaches an identity to every request: a valid bearer
// token yields the user, anything else yields a guest session. First-time
// guests get a session cookie minted on the spot so the same browser keeps
// hitting the same ephemeral claim.
func (am *AuthMiddleware) ResolveRequester() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := extractToken(c); tokenString != "" {
			ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString)
			if err == nil {
				c.Request = c.Request.WithContext(ctx)
				c.Next()
				return
			}
			am.log.Debug("Bearer token rejected, falling back to guest", "error", err)
		}

		sessionID, err := c.Cookie(guestSessionCookie)
		if err != nil || sessionID == "" {
			sessionID = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(guestSessionCookie, sessionID, am.guestCookieTTL, "/", "", false, true)
		}

		ctx := requestdata.WithRequestData(c.Request.Context(), &requestdata.RequestData{
			GuestSessionID: sessionID,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}
