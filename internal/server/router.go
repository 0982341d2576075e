package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/sekkei-dojo/backend/internal/handlers"
	"github.com/sekkei-dojo/backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler         *handlers.AuthHandler
	ProblemGroupHandler *handlers.ProblemGroupHandler
	GradeHandler        *handlers.GradeHandler
	FavoriteHandler     *handlers.FavoriteHandler
	AuthMiddleware      *middleware.AuthMiddleware
	AllowedOrigins      []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5173",
		}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api/v1")

	// Auth
	api.POST("/auth/register", cfg.AuthHandler.Register)
	api.POST("/auth/login", cfg.AuthHandler.Login)
	authed := api.Group("/")
	authed.Use(cfg.AuthMiddleware.RequireAuth())
	authed.POST("/auth/refresh", cfg.AuthHandler.Refresh)
	authed.POST("/auth/logout", cfg.AuthHandler.Logout)

	// Problem groups. Open to guests and users alike; the middleware pins
	// an identity on every request.
	groups := api.Group("/problem-groups")
	groups.Use(cfg.AuthMiddleware.ResolveRequester())
	groups.POST("", cfg.ProblemGroupHandler.Allocate)
	groups.POST("/:id/complete", cfg.ProblemGroupHandler.Complete)
	groups.POST("/grade", cfg.GradeHandler.GradeBatch)
	groups.GET("/stock", cfg.ProblemGroupHandler.Stock)
	groups.GET("/:id", cfg.ProblemGroupHandler.Detail)

	// User-only views
	authed.GET("/problem-groups/mine", cfg.ProblemGroupHandler.Mine)
	authed.GET("/problem-groups/favorites", cfg.FavoriteHandler.List)
	authed.POST("/problem-groups/:id/favorite", cfg.FavoriteHandler.Add)
	authed.DELETE("/problem-groups/:id/favorite", cfg.FavoriteHandler.Remove)

	return router
}
