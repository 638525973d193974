package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the gin engine with CORS and every route registered.
func NewRouter(allowedOrigins []string, handler *Handler, gatherer prometheus.Gatherer) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(allowedOrigins)))

	SetupRoutes(router, handler, gatherer)
	return router
}

func SetupRoutes(router *gin.Engine, handler *Handler, gatherer prometheus.Gatherer) {
	api := router.Group("/api")
	{
		api.POST("/analyze", handler.Analyze)
		api.GET("/sample", handler.Sample)
		api.POST("/batch", handler.SubmitBatch)
		api.GET("/analyses", handler.ListAnalyses)
		api.GET("/analyses/:id", handler.GetAnalysis)
		api.GET("/analyses/:id/map", handler.GetAnalysisMap)
		api.POST("/properties", handler.SaveProperties)
		api.GET("/properties/:id", handler.GetProperty)
		api.GET("/markets", handler.ListMarkets)
		api.GET("/markets/:name", handler.GetMarket)
		api.PUT("/markets/:name", handler.UpdateMarket)
		api.DELETE("/markets/:name", handler.DeleteMarket)
	}

	router.GET("/healthz", handler.Health)
	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
}

func corsConfig(allowedOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}

	if len(allowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	for _, origin := range allowedOrigins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = allowedOrigins
	return cfg
}
