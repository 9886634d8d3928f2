package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"peakpt/workout-app/internal/metrics"
	"peakpt/workout-app/internal/service"
)

// SetupRoutes mounts every endpoint on router.
// photoService may be nil when no vision model is configured; the photo routes are then left out.
// A nil gatherer disables /metrics.
func SetupRoutes(
	router *gin.Engine,
	workoutService service.WorkoutService,
	exerciseService service.ExerciseService,
	photoService service.PhotoService,
	maxUploadBytes int64,
	metricsManager *metrics.Manager,
	gatherer prometheus.Gatherer,
) {
	registerValidators()

	// route on the escaped path so an encoded slash stays inside :date
	// ("9%2F9%2F2024") and is rejected as a date instead of missing every route
	router.UseRawPath = true
	router.UnescapePathValues = true
	router.NoRoute(func(c *gin.Context) {
		abortWithError(c, http.StatusNotFound, "Route not found")
	})

	workoutHandler := NewWorkoutHandler(workoutService)
	exerciseHandler := NewExerciseHandler(exerciseService)

	router.Use(RequestLogger())
	if metricsManager != nil {
		router.Use(MetricsMiddleware(metricsManager))
	}

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	apiGroup := router.Group("/api")

	workoutGroup := apiGroup.Group("/workouts")
	{
		workoutGroup.GET("", workoutHandler.ListWorkouts)
		workoutGroup.GET("/:date", workoutHandler.GetWorkoutByDate)

		// ?name= selects the exercise for the collection-level routes
		workoutGroup.GET("/:date/exercises", workoutHandler.GetExerciseByName)
		workoutGroup.DELETE("/:date/exercises", workoutHandler.DeleteExerciseByName)

		workoutGroup.GET("/:date/exercises/:exerciseId", workoutHandler.GetExerciseByID)
		workoutGroup.DELETE("/:date/exercises/:exerciseId", workoutHandler.DeleteExerciseByID)
		workoutGroup.DELETE("/:date/exercises/:exerciseId/sets", workoutHandler.DeleteSetsByExerciseID)

		workoutGroup.POST("/:date/exercises/byname/:name/sets", workoutHandler.AddSet)
		workoutGroup.PUT("/:date/exercises/byname/:name/sets", workoutHandler.BulkUpdateSets)
		workoutGroup.DELETE("/:date/exercises/byname/:name/sets", workoutHandler.DeleteSetsByExerciseName)

		if photoService != nil {
			photoHandler := NewPhotoHandler(photoService, maxUploadBytes)
			workoutGroup.POST("/:date/photos", photoHandler.UploadPhoto)
			workoutGroup.POST("/:date/photos/upload-url", photoHandler.RequestUploadURL)
			workoutGroup.POST("/:date/photos/import", photoHandler.ImportPhoto)
		}
	}

	exerciseGroup := apiGroup.Group("/exercises")
	{
		exerciseGroup.GET("", exerciseHandler.ListExercises)
		exerciseGroup.POST("", exerciseHandler.CreateExercise)
		exerciseGroup.GET("/:id", exerciseHandler.GetExercise)
		exerciseGroup.PUT("/:id", exerciseHandler.UpdateExercise)
		exerciseGroup.DELETE("/:id", exerciseHandler.DeleteExercise)
	}
}
