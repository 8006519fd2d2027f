package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/landsat-go/internal/config"
	"github.com/jengzang/landsat-go/internal/handler"
	"github.com/jengzang/landsat-go/internal/metrics"
	"github.com/jengzang/landsat-go/internal/middleware"
	"github.com/jengzang/landsat-go/internal/service"
)

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, sampleService *service.SampleService) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger())

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "LandSat API is running",
		})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	sampleHandler := handler.NewSampleHandler(sampleService)

	api := r.Group("/api/v1")
	{
		bodies := api.Group("/bodies")
		{
			bodies.GET("", sampleHandler.ListBodies)
			bodies.GET("/:body", sampleHandler.GetBody)
			bodies.GET("/:body/average", sampleHandler.GetAverage)
			bodies.GET("/:body/samples", sampleHandler.GetSamples)
			bodies.GET("/:body/summary", sampleHandler.GetSummary)
		}

		api.GET("/store", sampleHandler.GetStoreStatus)

		// mutating routes
		protected := api.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret), middleware.RateLimit(cfg.RateLimit, time.Minute))
		{
			protected.POST("/samples", sampleHandler.IngestSamples)
			protected.POST("/store/prune", sampleHandler.PruneStore)
			protected.POST("/store/save", sampleHandler.SaveStore)
		}
	}

	return r
}
