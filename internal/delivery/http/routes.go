package http

import (
	"github.com/gin-gonic/gin"

	"github.com/pricehunt/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		search := v1.Group("/search")
		{
			search.POST("", handler.SearchProducts)
			search.GET("/best-deals", handler.GetBestDeals)
			search.GET("/similar/:productName", handler.SearchSimilarProducts)
			search.GET("/:queryId", handler.GetSearchResult)
		}
	}

	return router
}
