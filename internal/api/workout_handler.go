package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"peakpt/workout-app/internal/domain"
	"peakpt/workout-app/internal/service"
)

// WorkoutHandler exposes the workout store over HTTP.
type WorkoutHandler struct {
	workoutService service.WorkoutService
}

// NewWorkoutHandler creates a new WorkoutHandler.
func NewWorkoutHandler(workoutService service.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{workoutService: workoutService}
}

// --- DTOs for API (Data Transfer Objects) ---

// SetIDsRequest lists the sets to delete.
type SetIDsRequest struct {
	SetIDs []string `json:"setIds" binding:"required"`
}

// SetUpdateRequest is one entry of a bulk update. Omitted fields stay as they are.
type SetUpdateRequest struct {
	ID     string   `json:"id"`
	Reps   *int     `json:"reps"`
	Weight *float64 `json:"weight"`
}

type BulkUpdateSetsRequest struct {
	Updates []SetUpdateRequest `json:"updates" binding:"required"`
}

// AddSetRequest carries the new set. Both fields must be present; weight may be 0.
type AddSetRequest struct {
	Reps   *int     `json:"reps" binding:"required"`
	Weight *float64 `json:"weight" binding:"required"`
}

type SetResponse struct {
	ID     string  `json:"id"`
	Reps   int     `json:"reps"`
	Weight float64 `json:"weight"`
}

type ExerciseResponse struct {
	ID   string        `json:"id"`
	Name string        `json:"name"`
	Sets []SetResponse `json:"sets"`
}

type WorkoutResponse struct {
	Date      string             `json:"date"`
	Name      string             `json:"name"`
	Exercises []ExerciseResponse `json:"exercises"`
}

// MapExerciseToResponse converts a domain.Exercise to ExerciseResponse DTO.
func MapExerciseToResponse(ex *domain.Exercise) ExerciseResponse {
	if ex == nil {
		return ExerciseResponse{Sets: []SetResponse{}}
	}
	sets := make([]SetResponse, len(ex.Sets))
	for i, s := range ex.Sets {
		sets[i] = SetResponse{ID: s.ID, Reps: s.Reps, Weight: s.Weight}
	}
	return ExerciseResponse{ID: ex.ID, Name: ex.Name, Sets: sets}
}

// MapWorkoutToResponse converts a domain.Workout to WorkoutResponse DTO.
func MapWorkoutToResponse(w *domain.Workout) WorkoutResponse {
	if w == nil {
		return WorkoutResponse{Exercises: []ExerciseResponse{}}
	}
	exercises := make([]ExerciseResponse, len(w.Exercises))
	for i := range w.Exercises {
		exercises[i] = MapExerciseToResponse(&w.Exercises[i])
	}
	return WorkoutResponse{Date: w.Date, Name: w.Name, Exercises: exercises}
}

// MapWorkoutsToResponse converts a slice of domain.Workout to WorkoutResponse DTOs.
func MapWorkoutsToResponse(workouts []domain.Workout) []WorkoutResponse {
	responses := make([]WorkoutResponse, len(workouts))
	for i := range workouts {
		responses[i] = MapWorkoutToResponse(&workouts[i])
	}
	return responses
}

func bindDate(c *gin.Context) (string, bool) {
	var uri dateURI
	if err := c.ShouldBindUri(&uri); err != nil {
		abortWithError(c, http.StatusBadRequest, domain.ErrInvalidDate.Error())
		return "", false
	}
	return uri.Date, true
}

func requiredNameQuery(c *gin.Context) (string, bool) {
	name, ok := c.GetQuery("name")
	if !ok || name == "" {
		abortWithError(c, http.StatusBadRequest, "Query parameter 'name' is required")
		return "", false
	}
	return name, true
}

// --- Handler Methods ---

// ListWorkouts godoc
// @Summary List workouts, newest first
// @Router /workouts [get]
func (h *WorkoutHandler) ListWorkouts(c *gin.Context) {
	workouts, err := h.workoutService.ListWorkouts(c.Request.Context())
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapWorkoutsToResponse(workouts))
}

// GetWorkoutByDate answers with an empty workout when the day has none.
// @Router /workouts/{date} [get]
func (h *WorkoutHandler) GetWorkoutByDate(c *gin.Context) {
	date, ok := bindDate(c)
	if !ok {
		return
	}
	workout, err := h.workoutService.GetWorkoutByDate(c.Request.Context(), date)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(workout))
}

// @Router /workouts/{date}/exercises [get]
func (h *WorkoutHandler) GetExerciseByName(c *gin.Context) {
	date, ok := bindDate(c)
	if !ok {
		return
	}
	name, ok := requiredNameQuery(c)
	if !ok {
		return
	}
	exercise, err := h.workoutService.GetExerciseByName(c.Request.Context(), date, name)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapExerciseToResponse(exercise))
}

// @Router /workouts/{date}/exercises/{exerciseId} [get]
func (h *WorkoutHandler) GetExerciseByID(c *gin.Context) {
	date, ok := bindDate(c)
	if !ok {
		return
	}
	exercise, err := h.workoutService.GetExerciseByID(c.Request.Context(), date, c.Param("exerciseId"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapExerciseToResponse(exercise))
}

// @Router /workouts/{date}/exercises/{exerciseId} [delete]
func (h *WorkoutHandler) DeleteExerciseByID(c *gin.Context) {
	date, ok := bindDate(c)
	if !ok {
		return
	}
	if err := h.workoutService.DeleteExerciseByID(c.Request.Context(), date, c.Param("exerciseId")); err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Router /workouts/{date}/exercises [delete]
func (h *WorkoutHandler) DeleteExerciseByName(c *gin.Context) {
	date, ok := bindDate(c)
	if !ok {
		return
	}
	name, ok := requiredNameQuery(c)
	if !ok {
		return
	}
	if err := h.workoutService.DeleteExerciseByName(c.Request.Context(), date, name); err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Router /workouts/{date}/exercises/{exerciseId}/sets [delete]
func (h *WorkoutHandler) DeleteSetsByExerciseID(c *gin.Context) {
	date, ok := bindDate(c)
	if !ok {
		return
	}
	var req SetIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "setIds must be a non-empty array in the request body")
		return
	}
	if err := h.workoutService.DeleteSetsByExerciseID(c.Request.Context(), date, c.Param("exerciseId"), req.SetIDs); err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Router /workouts/{date}/exercises/byname/{name}/sets [delete]
func (h *WorkoutHandler) DeleteSetsByExerciseName(c *gin.Context) {
	date, ok := bindDate(c)
	if !ok {
		return
	}
	var req SetIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "setIds must be a non-empty array in the request body")
		return
	}
	if err := h.workoutService.DeleteSetsByExerciseName(c.Request.Context(), date, c.Param("name"), req.SetIDs); err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// BulkUpdateSets applies every update or none of them.
// @Router /workouts/{date}/exercises/byname/{name}/sets [put]
func (h *WorkoutHandler) BulkUpdateSets(c *gin.Context) {
	date, ok := bindDate(c)
	if !ok {
		return
	}
	var req BulkUpdateSetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "updates must be a non-empty array in the request body")
		return
	}
	updates := make([]domain.SetUpdate, len(req.Updates))
	for i, u := range req.Updates {
		updates[i] = domain.SetUpdate{ID: u.ID, Reps: u.Reps, Weight: u.Weight}
	}

	exercise, err := h.workoutService.BulkUpdateSets(c.Request.Context(), date, c.Param("name"), updates)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapExerciseToResponse(exercise))
}

// AddSet creates the workout and the exercise on the fly when needed.
// @Router /workouts/{date}/exercises/byname/{name}/sets [post]
func (h *WorkoutHandler) AddSet(c *gin.Context) {
	date, ok := bindDate(c)
	if !ok {
		return
	}
	var req AddSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: reps and weight must be numbers")
		return
	}

	exercise, err := h.workoutService.AddSet(c.Request.Context(), date, c.Param("name"), *req.Reps, *req.Weight)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapExerciseToResponse(exercise))
}
