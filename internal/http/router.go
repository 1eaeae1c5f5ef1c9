package http

import (
	"github.com/gin-gonic/gin"

	"github.com/foliolib/folio/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())

	// Apply CSRF protection if auth is enabled.
	// CSRF must run before session so that session context is preserved.
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}

	// Session runs after CSRF so session context isn't overwritten
	// by CSRF's request replacement.
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	} else {
		// No auth - inject default user ID
		router.Use(func(c *gin.Context) {
			c.Set(auth.ContextKeyUserID, auth.DefaultUserID)
			c.Set(auth.ContextKeyAuthType, auth.AuthTypeNone)
			c.Next()
		})
	}

	// Register auth routes when local auth is configured
	if cfg.AuthService != nil && cfg.AuthService.IsAuthEnabled() {
		authController := auth.NewController(cfg.AuthService, cfg.SessionManager)
		authController.RegisterRoutes(router)
	}

	// Create controllers with appropriate interfaces
	health := NewHealthController(cfg.Database, cfg.SearchIndex, cfg.Version)
	booksController := NewBooksController(cfg.BookStore)
	viewsController := NewViewsController(cfg.ViewService)
	var searchController *SearchController
	if cfg.Search != nil {
		searchController = NewSearchController(cfg.Search)
	}

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Books API endpoints
	router.GET("/api/books", booksController.ListBooks)
	router.GET("/api/books/stats", booksController.GetStats)
	router.GET("/api/books/:id", booksController.GetBook)
	router.DELETE("/api/books/:id", booksController.DeleteBook)
	router.PUT("/api/books/:id/personal", booksController.UpdatePersonal)
	router.GET("/api/books/:id/cover", booksController.GetCover)
	router.GET("/api/books/:id/files/:fileId", booksController.DownloadFile)
	router.GET("/api/authors", booksController.ListAuthors)
	router.GET("/api/subjects", booksController.ListSubjects)

	// View endpoints
	router.GET("/api/views", viewsController.ListViews)
	router.POST("/api/views", viewsController.CreateView)
	router.POST("/api/views/validate", viewsController.ValidateView)
	router.POST("/api/views/import", viewsController.ImportView)
	router.GET("/api/views/:name", viewsController.GetView)
	router.PUT("/api/views/:name", viewsController.UpdateView)
	router.DELETE("/api/views/:name", viewsController.DeleteView)
	router.POST("/api/views/:name/rename", viewsController.RenameView)
	router.GET("/api/views/:name/books", viewsController.EvaluateView)
	router.POST("/api/views/:name/books/:id", viewsController.AddBook)
	router.DELETE("/api/views/:name/books/:id", viewsController.RemoveBook)
	router.GET("/api/views/:name/overrides", viewsController.ListOverrides)
	router.PUT("/api/views/:name/overrides/:id", viewsController.SetOverride)
	router.DELETE("/api/views/:name/overrides/:id", viewsController.UnsetOverride)
	router.GET("/api/views/:name/export", viewsController.ExportView)
	router.GET("/api/views/:name/dependencies", viewsController.Dependencies)
	router.GET("/api/views/:name/dependents", viewsController.Dependents)

	// Search endpoints
	if searchController != nil {
		router.GET("/api/search", searchController.Search)
		router.POST("/api/search/reindex", searchController.Reindex)
	}

	// OPDS feed endpoints
	if cfg.OPDSCatalog != nil {
		var searcher OPDSSearcher
		if cfg.Search != nil {
			searcher = cfg.Search
		}
		opdsController := NewOPDSController(cfg.OPDSCatalog, cfg.ViewService, cfg.BookStore, searcher)
		router.GET("/opds", opdsController.Root)
		router.GET("/opds/all", opdsController.AllBooks)
		router.GET("/opds/views/:name", opdsController.View)
		if searcher != nil {
			router.GET("/opds/search", opdsController.Search)
		}
	}

	return router
}
