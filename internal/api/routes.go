package api

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title Note Sync API
// @version 1.0
// @description API for orchestrating note synchronization jobs
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// SetupRouter configures the API routes
func SetupRouter(h *Handler) *gin.Engine {
	r := gin.Default()

	// API documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	{
		v1.POST("/sync", h.CreateJob)

		jobs := v1.Group("/sync/jobs")
		{
			jobs.GET("", h.ListJobs)
			jobs.GET("/:id", h.GetJob)
			jobs.GET("/:id/logs", h.GetJobLogs)
			jobs.POST("/:id/retry", h.RetryJob)
			jobs.POST("/:id/abort", h.AbortJob)
		}

		users := v1.Group("/users/:id")
		{
			users.PUT("/credentials", h.SaveCredentials)
			users.GET("/credentials", h.GetCredentials)
			users.DELETE("/credentials", h.DeleteCredentials)
			users.DELETE("/state", h.ResetUserState)
		}
	}

	return r
}
