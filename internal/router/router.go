package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prepstack/mockexam-backend/internal/config"
	"github.com/prepstack/mockexam-backend/internal/handler"
	"github.com/prepstack/mockexam-backend/internal/middleware"
	"github.com/prepstack/mockexam-backend/internal/response"
	"github.com/prepstack/mockexam-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Attempt    *handler.AttemptHandler
	Assessment *handler.AssessmentHandler
	WS         *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally. Papers are the main beneficiary.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/candidate/login", handlers.Auth.CandidateLogin)
		auth.POST("/author/login", handlers.Auth.AuthorLogin)

		// Authenticated profile routes
		auth.POST("/candidate/logout",
			middleware.RequireCandidateJWT(authService),
			middleware.CheckSingleDeviceSession(authService),
			handlers.Auth.CandidateLogout)
		auth.GET("/candidate/me",
			middleware.RequireCandidateJWT(authService),
			middleware.CheckSingleDeviceSession(authService),
			handlers.Auth.GetCandidateProfile)
		auth.GET("/author/me", middleware.RequireAuthorJWT(authService), handlers.Auth.GetAuthorProfile)
	}

	// ─── 2. Candidate Group (JWT) ──────────────────────────────────────
	candidateAPI := router.Group("/api/v1/candidate")
	candidateAPI.Use(
		middleware.RequireCandidateJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		candidateAPI.GET("/assessments", handlers.Attempt.ListAssessments)
		candidateAPI.GET("/assessments/:assessment_id/paper", handlers.Attempt.GetPaper)

		candidateAPI.POST("/assessments/:assessment_id/attempt", handlers.Attempt.StartAttempt)
		candidateAPI.GET("/assessments/:assessment_id/attempt", handlers.Attempt.GetSnapshot)
		candidateAPI.POST("/assessments/:assessment_id/attempt/select", handlers.Attempt.SelectQuestion)
		candidateAPI.POST("/assessments/:assessment_id/attempt/answers", handlers.Attempt.SubmitAnswer)
		candidateAPI.POST("/assessments/:assessment_id/attempt/mark", handlers.Attempt.ToggleMark)
		candidateAPI.POST("/assessments/:assessment_id/attempt/advance", handlers.Attempt.AdvanceSection)
		candidateAPI.POST("/assessments/:assessment_id/attempt/submit", handlers.Attempt.SubmitExam)
		candidateAPI.GET("/assessments/:assessment_id/attempt/palette", handlers.Attempt.GetPalette)
		candidateAPI.GET("/assessments/:assessment_id/attempt/score", handlers.Attempt.GetScore)
	}

	// ─── 3. WebSocket Group (Candidate WS Auth) ────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(
		middleware.RequireCandidateWSAuth(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		ws.GET("/candidate/assessments/:assessment_id/stream", handlers.WS.AttemptStream)
	}

	// ─── 4. Author Group (JWT) ─────────────────────────────────────────
	authorAPI := router.Group("/api/v1/author")
	authorAPI.Use(middleware.RequireAuthorJWT(authService))
	{
		authorAPI.POST("/assessments", handlers.Assessment.Create)
		authorAPI.GET("/assessments", handlers.Assessment.List)
		authorAPI.GET("/assessments/:assessment_id", handlers.Assessment.Get)
		authorAPI.POST("/assessments/:assessment_id/publish", handlers.Assessment.Publish)
		authorAPI.POST("/assessments/:assessment_id/refresh-cache", handlers.Assessment.RefreshCache)
		authorAPI.GET("/assessments/:assessment_id/results", handlers.Assessment.ListResults)
	}

	return router
}
