package main

import (
	"hippocampus/config"
	"hippocampus/handler"
	"hippocampus/middleware"
	"hippocampus/services"
	"hippocampus/usecase"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// App holds the services the router dispatches to.
type App struct {
	Config      *config.Config
	Auth        *usecase.AuthService
	Bookmarks   *usecase.RecordService
	Notes       *usecase.RecordService
	Collections *usecase.CollectionsService
	Health      *services.HealthMonitor
	Limiter     *services.RateLimiter
}

func setupRouter(app *App) *gin.Engine {
	router := gin.New()
	authCfg := app.Config.Auth

	router.Use(middleware.EnhancedRecoveryMiddleware())
	router.Use(middleware.RequestTracingMiddleware())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORSMiddleware(app.Config.Server.CORSOrigins))
	router.Use(middleware.RequestSizeLimiter(app.Config.Server.MaxBodyBytes))
	router.Use(middleware.ErrorHandler())

	router.GET("/health", func(c *gin.Context) {
		handler.HealthHandler(c, app.Health)
	})
	router.GET("/health/detailed", func(c *gin.Context) {
		handler.DetailedHealthHandler(c, app.Health)
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	requireAuth := middleware.AuthMiddleware(app.Auth, authCfg)
	limit := func(q services.Quota) gin.HandlerFunc {
		return middleware.RateLimit(app.Limiter, q)
	}

	// Public auth endpoints
	auth := router.Group("/auth")
	auth.Use(middleware.NoStore())
	{
		auth.POST("/login", middleware.RequireJSON(), func(c *gin.Context) {
			handler.LoginHandler(c, app.Auth, authCfg)
		})
		auth.POST("/refresh", func(c *gin.Context) {
			handler.RefreshHandler(c, app.Auth, authCfg)
		})
		auth.POST("/logout", func(c *gin.Context) {
			handler.LogoutHandler(c, app.Auth, authCfg)
		})
		auth.GET("/status", func(c *gin.Context) {
			handler.AuthStatusHandler(c, app.Auth)
		})
		auth.GET("/verify", requireAuth, func(c *gin.Context) {
			handler.VerifyHandler(c, app.Auth)
		})
	}

	protected := router.Group("/")
	protected.Use(requireAuth, middleware.NoStore())

	links := protected.Group("/links")
	{
		links.POST("/save", limit(middleware.QuotaSave), middleware.RequireJSON(), func(c *gin.Context) {
			handler.SaveBookmarkHandler(c, app.Bookmarks)
		})
		links.POST("/search", limit(middleware.QuotaSearch), middleware.RequireJSON(), func(c *gin.Context) {
			handler.SearchBookmarksHandler(c, app.Bookmarks)
		})
		links.DELETE("/delete", limit(middleware.QuotaDelete), func(c *gin.Context) {
			handler.DeleteBookmarkHandler(c, app.Bookmarks)
		})
		links.GET("/get", limit(middleware.QuotaList), func(c *gin.Context) {
			handler.ListBookmarksHandler(c, app.Bookmarks)
		})
	}

	notes := protected.Group("/notes")
	{
		notes.GET("/", limit(middleware.QuotaList), func(c *gin.Context) {
			handler.ListNotesHandler(c, app.Notes)
		})
		notes.POST("/", limit(middleware.QuotaCreate), middleware.RequireJSON(), func(c *gin.Context) {
			handler.CreateNoteHandler(c, app.Notes)
		})
		notes.PUT("/:id", limit(middleware.QuotaCreate), middleware.RequireJSON(), func(c *gin.Context) {
			handler.UpdateNoteHandler(c, app.Notes)
		})
		notes.POST("/search", limit(middleware.QuotaSearch), middleware.RequireJSON(), func(c *gin.Context) {
			handler.SearchNotesHandler(c, app.Notes)
		})
		notes.DELETE("/:id", limit(middleware.QuotaDelete), func(c *gin.Context) {
			handler.DeleteNoteHandler(c, app.Notes)
		})
	}

	protected.GET("/collections/", limit(middleware.QuotaCollections), func(c *gin.Context) {
		handler.ListCollectionsHandler(c, app.Collections)
	})

	return router
}
