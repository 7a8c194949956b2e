package api

import (
	"github.com/Conceptual-Machines/text2midi-studio/internal/api/handlers"
	apimiddleware "github.com/Conceptual-Machines/text2midi-studio/internal/api/middleware"
	"github.com/Conceptual-Machines/text2midi-studio/internal/generator"
	"github.com/Conceptual-Machines/text2midi-studio/internal/metrics"
	"github.com/Conceptual-Machines/text2midi-studio/internal/services"
	webhandlers "github.com/Conceptual-Machines/text2midi-studio/internal/web/handlers"
	"github.com/gin-gonic/gin"
)

func SetupRouter(studio *services.Studio, recorder metrics.Recorder, version string) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking(recorder))

	// CORS middleware
	router.Use(apimiddleware.CORS())

	// Health check
	healthHandler := handlers.NewHealthHandler(studio.Generator())
	router.GET("/health", healthHandler.HealthCheck)

	// Metrics endpoint
	metricsHandler := handlers.NewMetricsHandler(version, studio)
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	// Generated MIDI files
	filesHandler := handlers.NewFilesHandler(studio.Generator().Store())
	router.GET(generator.FilesRoute+"/*name", filesHandler.Serve)

	// Web pages
	webHandler := webhandlers.NewWebHandler(studio)
	router.GET("/", webHandler.Home)
	router.POST("/", webHandler.Submit)
	router.GET("/static/styles.css", webHandler.Styles)
	router.GET("/static/app.js", webHandler.Script)

	// HTMX endpoints
	router.POST("/htmx/generate", webHandler.Generate)

	v1 := router.Group("/api/v1")
	{
		generationHandler := handlers.NewGenerationHandler(studio)
		v1.POST("/generations", generationHandler.Generate)

		examplesHandler := handlers.NewExamplesHandler(studio)
		v1.GET("/examples", examplesHandler.List)
		v1.POST("/examples/:index/generate", examplesHandler.Generate)
	}

	return router
}
