package api

import (
	"net/http"

	"muscledynamics/workout-planner/internal/service"

	"github.com/gin-gonic/gin"
)

// SetupRoutes registers the catalog API under basePath ("" mounts at the root).
func SetupRoutes(
	router *gin.Engine,
	basePath string,
	clientOrigin string,
	exerciseService service.ExerciseService,
) {
	exerciseHandler := NewExerciseHandler(exerciseService)
	healthHandler := NewHealthHandler(exerciseService)

	router.Use(RequestIDMiddleware(), CORSMiddleware(clientOrigin))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiGroup := router.Group(basePath)
	{
		apiGroup.GET("/health", healthHandler.Health)

		exerciseGroup := apiGroup.Group("/exercises")
		{
			exerciseGroup.GET("", exerciseHandler.ListExercises)
			exerciseGroup.POST("/search", exerciseHandler.SearchExercises)

			// Static segments take precedence over :id.
			exerciseGroup.GET("/muscles", exerciseHandler.ListMuscles)
			exerciseGroup.GET("/equipment", exerciseHandler.ListEquipment)
			exerciseGroup.GET("/stats", exerciseHandler.GetStats)
			exerciseGroup.GET("/:id", exerciseHandler.GetExercise)
		}
	}
}
