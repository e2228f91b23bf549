package api

import (
	"net/http"
	"slices"

	"api_analytics/internal/analytics"
	"api_analytics/internal/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InitRoutes registers the dashboard analytics endpoints on the given Gin engine.
// It builds the analytics service and handler over store, installs CORS and
// request logging, then binds each HTTP method and path to its handler.
func InitRoutes(e *gin.Engine, store analytics.Storage, cfg config.Config, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}

	e.Use(cors.New(corsConfig(cfg.CORSAllowedOrigins)), requestLogger(logger))

	analyticsService := analytics.NewService(logger, cfg.CurrencySymbol)
	analyticsHandler := NewAnalyticsHandler(analyticsService, store, cfg.DefaultFeedLimit, logger)

	e.GET("/getStats/stats", analyticsHandler.handleGetStats)
	e.GET("/weekdayAnalysis/weekdayAnalysis", analyticsHandler.handleWeekdayAnalysis)
	e.POST("/message/message", analyticsHandler.handleActivityFeed)
	e.GET("/overviewSection/recent-activity", analyticsHandler.handleActivityFeed)

	e.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
}

// corsConfig allows every origin unless specific ones are configured.
func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	c.AddAllowHeaders(requestIDHeader)
	c.AddExposeHeaders(requestIDHeader)
	if len(origins) == 0 || slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	return c
}
