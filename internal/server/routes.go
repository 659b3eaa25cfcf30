package server

import (
	"github.com/engineer42AI/regtrace/internal/server/middleware"
	"github.com/engineer42AI/regtrace/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Corpus routes
	apiRoutes.GET("/corpora", routes.GetCorporaHandler, middleware.RequirePermission("corpus.view"))
	apiRoutes.POST("/corpora/:id/files", routes.PostCorpusFilesHandler, middleware.RequirePermission("corpus.upload"))
	apiRoutes.DELETE("/corpora/:id", routes.DeleteCorpusHandler, middleware.RequirePermission("corpus.delete"))
	apiRoutes.GET("/corpora/:id/files/:name/link", routes.GetCorpusFileLinkHandler, middleware.RequirePermission("corpus.view"))

	// Outline and trace routes
	apiRoutes.GET("/corpora/:id/outline", routes.GetOutlineHandler, middleware.RequirePermission("corpus.view"))
	apiRoutes.GET("/corpora/:id/trace/:node", routes.GetTraceHandler, middleware.RequirePermission("corpus.view"))
	apiRoutes.GET("/corpora/:id/sections", routes.GetSectionsHandler, middleware.RequirePermission("corpus.view"))

	// View routes
	apiRoutes.POST("/corpora/:id/view/expand", routes.PostViewExpandHandler, middleware.RequirePermission("corpus.view"))
	apiRoutes.POST("/corpora/:id/view/collapse", routes.PostViewCollapseHandler, middleware.RequirePermission("corpus.view"))

	// Scan routes
	apiRoutes.POST("/corpora/:id/scan", routes.PostScanHandler, middleware.RequirePermission("scan.run"))
	apiRoutes.GET("/corpora/:id/runs", routes.GetRunsHandler, middleware.RequirePermission("scan.view"))
	apiRoutes.GET("/runs/:run_id", routes.GetRunHandler, middleware.RequirePermission("scan.view"))
	apiRoutes.GET("/runs/:run_id/results", routes.GetRunResultsHandler, middleware.RequirePermission("scan.view"))

	// Recommendation routes
	apiRoutes.POST("/corpora/:id/embed", routes.PostEmbedHandler, middleware.RequirePermission("scan.run"))
	apiRoutes.POST("/corpora/:id/recommend", routes.PostRecommendHandler, middleware.RequirePermission("corpus.view"))
}
