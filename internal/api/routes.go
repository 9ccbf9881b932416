package api

import (
	"net/http"

	"fithub/workout-service/internal/cache"
	"fithub/workout-service/internal/domain"
	"fithub/workout-service/internal/service"

	"github.com/gin-gonic/gin"
)

// SetupRoutes wires every operation onto the router. Catalog and composition
// mutations are trainer/admin; reads are open to any authenticated caller.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	coherence *cache.Coherence,
	exerciseService service.ExerciseService,
	planService service.PlanService,
	assignmentService service.AssignmentService,
	workoutLogService service.WorkoutLogService,
) {
	exerciseHandler := NewExerciseHandler(exerciseService, coherence)
	planHandler := NewPlanHandler(planService, coherence)
	assignmentHandler := NewAssignmentHandler(assignmentService, coherence)
	workoutLogHandler := NewWorkoutLogHandler(workoutLogService, coherence)

	authMiddleware := AuthMiddleware(jwtSecret)
	staffOnly := RoleMiddleware(domain.RoleTrainer, domain.RoleAdmin)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		// --- Exercise Catalog ---
		exerciseGroup := protected.Group("/exercises")
		{
			exerciseGroup.GET("", exerciseHandler.ListExercises)
			exerciseGroup.GET("/:id", exerciseHandler.GetExercise)
			exerciseGroup.POST("", staffOnly, exerciseHandler.CreateExercise)
			exerciseGroup.PUT("/:id", staffOnly, exerciseHandler.UpdateExercise)
			exerciseGroup.DELETE("/:id", staffOnly, exerciseHandler.DeleteExercise)
			exerciseGroup.POST("/:id/video-upload-url", staffOnly, exerciseHandler.RequestVideoUploadURL)
			exerciseGroup.GET("/:id/video-download-url", exerciseHandler.GetVideoDownloadURL)
		}

		// --- Plan Composition ---
		planGroup := protected.Group("/plans")
		{
			planGroup.GET("", planHandler.ListPlans)
			planGroup.GET("/:planId", planHandler.GetPlan)
			planGroup.POST("", staffOnly, planHandler.CreatePlan)
			planGroup.PUT("/:planId", staffOnly, planHandler.UpdatePlan)
			planGroup.DELETE("/:planId", staffOnly, planHandler.DeletePlan)

			planGroup.GET("/:planId/days", planHandler.GetDays)
			planGroup.POST("/:planId/days", staffOnly, planHandler.AddDay)
			planGroup.PUT("/:planId/days/:dayId", staffOnly, planHandler.UpdateDay)
			planGroup.DELETE("/:planId/days/:dayId", staffOnly, planHandler.DeleteDay)

			planGroup.POST("/:planId/days/:dayId/exercises", staffOnly, planHandler.AddExerciseRow)
			planGroup.PUT("/:planId/days/:dayId/exercises/:rowId", staffOnly, planHandler.UpdateExerciseRow)
			planGroup.DELETE("/:planId/days/:dayId/exercises/:rowId", staffOnly, planHandler.RemoveExerciseRow)
		}

		// --- Assignment Lifecycle ---
		assignmentGroup := protected.Group("/assignments")
		{
			assignmentGroup.POST("", staffOnly, assignmentHandler.Assign)
			assignmentGroup.GET("/:id", assignmentHandler.GetAssignment)
			assignmentGroup.PUT("/:id", staffOnly, assignmentHandler.UpdateAssignment)
			assignmentGroup.POST("/:id/cancel", staffOnly, assignmentHandler.CancelAssignment)
			assignmentGroup.POST("/:id/complete", staffOnly, assignmentHandler.CompleteAssignment)
			assignmentGroup.DELETE("/:id", staffOnly, assignmentHandler.DeleteAssignment)
		}

		// --- Member views ---
		memberGroup := protected.Group("/members/:memberId")
		{
			memberGroup.GET("/assignments", assignmentHandler.ListMemberAssignments)
			memberGroup.GET("/current-plan", assignmentHandler.GetCurrentPlan)

			memberGroup.POST("/workout-logs", workoutLogHandler.LogWorkout)
			memberGroup.GET("/workout-logs", workoutLogHandler.ListWorkoutLogs)
			memberGroup.DELETE("/workout-logs/:logId", workoutLogHandler.DeleteWorkoutLog)
		}

		// --- Trainer views ---
		protected.GET("/trainers/:trainerId/assignments", staffOnly, assignmentHandler.ListTrainerAssignments)
	}
}
