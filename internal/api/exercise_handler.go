package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"peakpt/workout-app/internal/domain"
	"peakpt/workout-app/internal/service"
)

// ExerciseHandler holds the exercise library service dependency.
type ExerciseHandler struct {
	exerciseService service.ExerciseService
}

// NewExerciseHandler creates a new ExerciseHandler.
func NewExerciseHandler(exerciseService service.ExerciseService) *ExerciseHandler {
	return &ExerciseHandler{exerciseService: exerciseService}
}

// --- DTOs for API (Data Transfer Objects) ---

// CreateExerciseRequest defines the expected JSON for creating a library exercise.
type CreateExerciseRequest struct {
	ID          string `json:"id" binding:"omitempty,max=64"` // generated when omitted
	Name        string `json:"name" binding:"required,max=100"`
	MuscleGroup string `json:"muscleGroup" binding:"omitempty,max=50"` // e.g., "Chest", "Legs"
}

// UpdateExerciseRequest defines the expected JSON for updating a library exercise.
type UpdateExerciseRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	MuscleGroup string `json:"muscleGroup" binding:"omitempty,max=50"`
}

// LibraryExerciseResponse is the DTO for returning library entries.
type LibraryExerciseResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	MuscleGroup string    `json:"muscleGroup,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// MapLibraryExerciseToResponse converts a domain.LibraryExercise to its response DTO.
func MapLibraryExerciseToResponse(ex *domain.LibraryExercise) LibraryExerciseResponse {
	if ex == nil {
		return LibraryExerciseResponse{}
	}
	return LibraryExerciseResponse{
		ID:          ex.ID,
		Name:        ex.Name,
		MuscleGroup: ex.MuscleGroup,
		CreatedAt:   ex.CreatedAt,
		UpdatedAt:   ex.UpdatedAt,
	}
}

// MapLibraryExercisesToResponse converts a slice of library entries.
func MapLibraryExercisesToResponse(exercises []domain.LibraryExercise) []LibraryExerciseResponse {
	responses := make([]LibraryExerciseResponse, len(exercises))
	for i := range exercises {
		responses[i] = MapLibraryExerciseToResponse(&exercises[i])
	}
	return responses
}

// --- Handler Methods ---

// ListExercises godoc
// @Summary List the exercise library
// @Tags Exercises
// @Produce json
// @Success 200 {array} LibraryExerciseResponse
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /exercises [get]
func (h *ExerciseHandler) ListExercises(c *gin.Context) {
	exercises, err := h.exerciseService.ListExercises(c.Request.Context())
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapLibraryExercisesToResponse(exercises))
}

// GetExercise godoc
// @Summary Get a library exercise
// @Tags Exercises
// @Produce json
// @Param id path string true "Exercise ID"
// @Success 200 {object} LibraryExerciseResponse
// @Failure 404 {object} gin.H "Not found"
// @Router /exercises/{id} [get]
func (h *ExerciseHandler) GetExercise(c *gin.Context) {
	exercise, err := h.exerciseService.GetExerciseByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapLibraryExerciseToResponse(exercise))
}

// CreateExercise godoc
// @Summary Add an exercise to the library
// @Tags Exercises
// @Accept json
// @Produce json
// @Param exercise body CreateExerciseRequest true "Exercise details"
// @Success 201 {object} LibraryExerciseResponse "Exercise created successfully"
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Failure 409 {object} gin.H "Name already taken"
// @Router /exercises [post]
func (h *ExerciseHandler) CreateExercise(c *gin.Context) {
	var req CreateExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	exercise, err := h.exerciseService.CreateExercise(c.Request.Context(), req.ID, req.Name, req.MuscleGroup)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapLibraryExerciseToResponse(exercise))
}

// UpdateExercise godoc
// @Summary Rename a library exercise or change its muscle group
// @Tags Exercises
// @Accept json
// @Produce json
// @Param id path string true "Exercise ID"
// @Param exercise body UpdateExerciseRequest true "Exercise details"
// @Success 200 {object} LibraryExerciseResponse
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Failure 404 {object} gin.H "Not found"
// @Failure 409 {object} gin.H "Name already taken"
// @Router /exercises/{id} [put]
func (h *ExerciseHandler) UpdateExercise(c *gin.Context) {
	var req UpdateExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	exercise, err := h.exerciseService.UpdateExercise(c.Request.Context(), c.Param("id"), req.Name, req.MuscleGroup)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapLibraryExerciseToResponse(exercise))
}

// DeleteExercise godoc
// @Summary Remove an exercise from the library
// @Tags Exercises
// @Param id path string true "Exercise ID"
// @Success 204 "Deleted"
// @Failure 404 {object} gin.H "Not found"
// @Router /exercises/{id} [delete]
func (h *ExerciseHandler) DeleteExercise(c *gin.Context) {
	if err := h.exerciseService.DeleteExercise(c.Request.Context(), c.Param("id")); err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
