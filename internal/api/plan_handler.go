package api

import (
	"context"
	"net/http"
	"time"

	"fithub/workout-service/internal/cache"
	"fithub/workout-service/internal/domain"
	"fithub/workout-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanHandler exposes the plan composition hierarchy.
type PlanHandler struct {
	planService service.PlanService
	coherence   *cache.Coherence
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(planService service.PlanService, coherence *cache.Coherence) *PlanHandler {
	return &PlanHandler{planService: planService, coherence: coherence}
}

// --- DTOs ---

// CreatePlanRequest defines the expected JSON for creating a plan template.
type CreatePlanRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Difficulty  string `json:"difficulty" binding:"required"`
}

// UpdatePlanRequest merges only top-level scalar fields; the day collection is
// never touched through this request.
type UpdatePlanRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Difficulty  *string `json:"difficulty"`
	IsActive    *bool   `json:"isActive"`
}

// ExerciseRowRequest is one prescribed row within a day submission.
type ExerciseRowRequest struct {
	ExerciseID        string `json:"exerciseId" binding:"required"`
	Sets              int    `json:"sets" binding:"required,gt=0"`
	Reps              string `json:"reps" binding:"required"`
	RestTimeInSeconds *int   `json:"restTimeInSeconds"`
	OrderInDay        int    `json:"orderInDay"`
}

// DayRequest carries a day and its complete exercise set. On update the set
// fully replaces the stored one; omitted rows are deleted.
type DayRequest struct {
	DayNumber int                  `json:"dayNumber" binding:"required,gt=0"`
	Notes     string               `json:"notes"`
	Exercises []ExerciseRowRequest `json:"exercises"`
}

// WorkoutExerciseResponse is the DTO for one row within a day.
type WorkoutExerciseResponse struct {
	ID                string `json:"id"`
	DayID             string `json:"dayId"`
	ExerciseID        string `json:"exerciseId"`
	Sets              int    `json:"sets"`
	Reps              string `json:"reps"`
	RestTimeInSeconds *int   `json:"restTimeInSeconds,omitempty"`
	OrderInDay        int    `json:"orderInDay"`
}

// WorkoutDayResponse is the DTO for returning day details.
type WorkoutDayResponse struct {
	ID        string                    `json:"id"`
	PlanID    string                    `json:"planId"`
	DayNumber int                       `json:"dayNumber"`
	Notes     string                    `json:"notes,omitempty"`
	Exercises []WorkoutExerciseResponse `json:"exercises"`
	CreatedAt time.Time                 `json:"createdAt"`
	UpdatedAt time.Time                 `json:"updatedAt"`
}

// WorkoutPlanResponse is the DTO for returning plan details.
type WorkoutPlanResponse struct {
	ID                 string               `json:"id"`
	Name               string               `json:"name"`
	Description        string               `json:"description,omitempty"`
	Difficulty         string               `json:"difficulty"`
	CreatedByTrainerID string               `json:"createdByTrainerId,omitempty"`
	IsActive           bool                 `json:"isActive"`
	Days               []WorkoutDayResponse `json:"days"`
	CreatedAt          time.Time            `json:"createdAt"`
	UpdatedAt          time.Time            `json:"updatedAt"`
}

// MapDayToResponse converts a domain.WorkoutDay to its DTO.
func MapDayToResponse(planID primitive.ObjectID, day *domain.WorkoutDay) WorkoutDayResponse {
	if day == nil {
		return WorkoutDayResponse{}
	}
	rows := make([]WorkoutExerciseResponse, len(day.Exercises))
	for i, row := range day.Exercises {
		rows[i] = WorkoutExerciseResponse{
			ID:                row.ID.Hex(),
			DayID:             day.ID.Hex(),
			ExerciseID:        row.ExerciseID.Hex(),
			Sets:              row.Sets,
			Reps:              row.Reps,
			RestTimeInSeconds: row.RestTimeInSeconds,
			OrderInDay:        row.OrderInDay,
		}
	}
	return WorkoutDayResponse{
		ID:        day.ID.Hex(),
		PlanID:    planID.Hex(),
		DayNumber: day.DayNumber,
		Notes:     day.Notes,
		Exercises: rows,
		CreatedAt: day.CreatedAt,
		UpdatedAt: day.UpdatedAt,
	}
}

// MapPlanToResponse converts a domain.WorkoutPlan to its DTO.
func MapPlanToResponse(plan *domain.WorkoutPlan) WorkoutPlanResponse {
	if plan == nil {
		return WorkoutPlanResponse{}
	}
	days := make([]WorkoutDayResponse, len(plan.Days))
	for i := range plan.Days {
		days[i] = MapDayToResponse(plan.ID, &plan.Days[i])
	}
	resp := WorkoutPlanResponse{
		ID:          plan.ID.Hex(),
		Name:        plan.Name,
		Description: plan.Description,
		Difficulty:  string(plan.Difficulty),
		IsActive:    plan.IsActive,
		Days:        days,
		CreatedAt:   plan.CreatedAt,
		UpdatedAt:   plan.UpdatedAt,
	}
	if plan.CreatedByTrainerID != nil {
		resp.CreatedByTrainerID = plan.CreatedByTrainerID.Hex()
	}
	return resp
}

// MapPlansToResponse converts a slice of domain.WorkoutPlan to response DTOs.
func MapPlansToResponse(plans []domain.WorkoutPlan) []WorkoutPlanResponse {
	responses := make([]WorkoutPlanResponse, len(plans))
	for i := range plans {
		responses[i] = MapPlanToResponse(&plans[i])
	}
	return responses
}

func (r ExerciseRowRequest) toInput(c *gin.Context) (service.ExerciseRowInput, bool) {
	exerciseID, err := primitive.ObjectIDFromHex(r.ExerciseID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exerciseId format")
		return service.ExerciseRowInput{}, false
	}
	return service.ExerciseRowInput{
		ExerciseID:        exerciseID,
		Sets:              r.Sets,
		Reps:              r.Reps,
		RestTimeInSeconds: r.RestTimeInSeconds,
		OrderInDay:        r.OrderInDay,
	}, true
}

func (r DayRequest) toInput(c *gin.Context) (service.DayInput, bool) {
	rows := make([]service.ExerciseRowInput, 0, len(r.Exercises))
	for _, rowReq := range r.Exercises {
		row, ok := rowReq.toInput(c)
		if !ok {
			return service.DayInput{}, false
		}
		rows = append(rows, row)
	}
	return service.DayInput{
		DayNumber: r.DayNumber,
		Notes:     r.Notes,
		Exercises: rows,
	}, true
}

// --- Handler Methods ---

// CreatePlan handles POST /plans. The creating trainer comes from the token.
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	in := service.CreatePlanInput{
		Name:        req.Name,
		Description: req.Description,
		Difficulty:  domain.Difficulty(req.Difficulty),
	}
	if userIDStr, err := getUserIDFromContext(c); err == nil {
		if trainerID, err := primitive.ObjectIDFromHex(userIDStr); err == nil {
			in.CreatedByTrainerID = &trainerID
		}
	}

	plan, err := h.planService.CreatePlan(c.Request.Context(), in)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.coherence.Invalidate(c.Request.Context(), cache.MutationPlanWrite, cache.Scope{PlanID: plan.ID.Hex()})
	c.JSON(http.StatusCreated, MapPlanToResponse(plan))
}

// ListPlans handles GET /plans, optionally filtered by ?trainerId= or
// ?difficulty=. Filtered lists bypass the cache; the unfiltered list is the
// cached read-key.
func (h *PlanHandler) ListPlans(c *gin.Context) {
	if trainerIDStr := c.Query("trainerId"); trainerIDStr != "" {
		trainerID, err := primitive.ObjectIDFromHex(trainerIDStr)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid trainerId format")
			return
		}
		plans, err := h.planService.ListPlansByTrainer(c.Request.Context(), trainerID)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, MapPlansToResponse(plans))
		return
	}

	if difficulty := c.Query("difficulty"); difficulty != "" {
		plans, err := h.planService.ListPlansByDifficulty(c.Request.Context(), domain.Difficulty(difficulty))
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, MapPlansToResponse(plans))
		return
	}

	var out []WorkoutPlanResponse
	err := h.coherence.GetOrFetch(c.Request.Context(), cache.PlansKey(), &out, func(ctx context.Context) (interface{}, error) {
		plans, err := h.planService.ListPlans(ctx)
		if err != nil {
			return nil, err
		}
		return MapPlansToResponse(plans), nil
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if out == nil {
		out = []WorkoutPlanResponse{}
	}
	c.JSON(http.StatusOK, out)
}

// GetPlan handles GET /plans/:planId.
func (h *PlanHandler) GetPlan(c *gin.Context) {
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}

	var out WorkoutPlanResponse
	err := h.coherence.GetOrFetch(c.Request.Context(), cache.PlanKey(planID.Hex()), &out, func(ctx context.Context) (interface{}, error) {
		plan, err := h.planService.GetPlan(ctx, planID)
		if err != nil {
			return nil, err
		}
		return MapPlanToResponse(plan), nil
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// UpdatePlan handles PUT /plans/:planId, scalar fields only.
func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	var req UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	in := service.UpdatePlanInput{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
	}
	if req.Difficulty != nil {
		d := domain.Difficulty(*req.Difficulty)
		in.Difficulty = &d
	}

	plan, err := h.planService.UpdatePlan(c.Request.Context(), planID, in)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.coherence.Invalidate(c.Request.Context(), cache.MutationPlanWrite, cache.Scope{PlanID: planID.Hex()})
	c.JSON(http.StatusOK, MapPlanToResponse(plan))
}

// DeletePlan handles DELETE /plans/:planId. Refused with 409 while any
// assignment references the plan; retire with isActive=false instead.
func (h *PlanHandler) DeletePlan(c *gin.Context) {
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}

	if err := h.planService.DeletePlan(c.Request.Context(), planID); err != nil {
		respondServiceError(c, err)
		return
	}

	h.coherence.Invalidate(c.Request.Context(), cache.MutationPlanWrite, cache.Scope{PlanID: planID.Hex()})
	c.Status(http.StatusNoContent)
}

// GetDays handles GET /plans/:planId/days, sorted ascending by dayNumber.
func (h *PlanHandler) GetDays(c *gin.Context) {
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}

	var out []WorkoutDayResponse
	err := h.coherence.GetOrFetch(c.Request.Context(), cache.DaysOfPlanKey(planID.Hex()), &out, func(ctx context.Context) (interface{}, error) {
		days, err := h.planService.GetDays(ctx, planID)
		if err != nil {
			return nil, err
		}
		responses := make([]WorkoutDayResponse, len(days))
		for i := range days {
			responses[i] = MapDayToResponse(planID, &days[i])
		}
		return responses, nil
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if out == nil {
		out = []WorkoutDayResponse{}
	}
	c.JSON(http.StatusOK, out)
}

// AddDay handles POST /plans/:planId/days. An X-Idempotency-Key is accepted
// for shape validation; the (planId, dayNumber) pair is the natural dedupe
// key, so an ambiguous-timeout retry surfaces as 409 rather than a duplicate.
func (h *PlanHandler) AddDay(c *gin.Context) {
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	if _, ok := idempotencyKey(c); !ok {
		return
	}
	var req DayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	in, ok := req.toInput(c)
	if !ok {
		return
	}

	day, err := h.planService.AddDay(c.Request.Context(), planID, in)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.coherence.Invalidate(c.Request.Context(), cache.MutationDayWrite, cache.Scope{PlanID: planID.Hex()})
	c.JSON(http.StatusCreated, MapDayToResponse(planID, day))
}

// UpdateDay handles PUT /plans/:planId/days/:dayId. Full-replace semantics:
// the submitted exercise set becomes the day's complete set.
func (h *PlanHandler) UpdateDay(c *gin.Context) {
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	dayID, ok := pathObjectID(c, "dayId")
	if !ok {
		return
	}
	var req DayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	in, ok := req.toInput(c)
	if !ok {
		return
	}

	day, err := h.planService.UpdateDay(c.Request.Context(), planID, dayID, in)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.coherence.Invalidate(c.Request.Context(), cache.MutationDayWrite, cache.Scope{PlanID: planID.Hex()})
	c.JSON(http.StatusOK, MapDayToResponse(planID, day))
}

// DeleteDay handles DELETE /plans/:planId/days/:dayId, cascading the day's
// exercise rows.
func (h *PlanHandler) DeleteDay(c *gin.Context) {
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	dayID, ok := pathObjectID(c, "dayId")
	if !ok {
		return
	}

	if err := h.planService.DeleteDay(c.Request.Context(), planID, dayID); err != nil {
		respondServiceError(c, err)
		return
	}

	h.coherence.Invalidate(c.Request.Context(), cache.MutationDayWrite, cache.Scope{PlanID: planID.Hex()})
	c.Status(http.StatusNoContent)
}

// AddExerciseRow handles POST /plans/:planId/days/:dayId/exercises.
func (h *PlanHandler) AddExerciseRow(c *gin.Context) {
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	dayID, ok := pathObjectID(c, "dayId")
	if !ok {
		return
	}
	var req ExerciseRowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	in, ok := req.toInput(c)
	if !ok {
		return
	}

	day, err := h.planService.AddExercise(c.Request.Context(), planID, dayID, in)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.coherence.Invalidate(c.Request.Context(), cache.MutationDayWrite, cache.Scope{PlanID: planID.Hex()})
	c.JSON(http.StatusCreated, MapDayToResponse(planID, day))
}

// UpdateExerciseRow handles PUT /plans/:planId/days/:dayId/exercises/:rowId.
func (h *PlanHandler) UpdateExerciseRow(c *gin.Context) {
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	dayID, ok := pathObjectID(c, "dayId")
	if !ok {
		return
	}
	rowID, ok := pathObjectID(c, "rowId")
	if !ok {
		return
	}
	var req ExerciseRowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	in, ok := req.toInput(c)
	if !ok {
		return
	}

	day, err := h.planService.UpdateExercise(c.Request.Context(), planID, dayID, rowID, in)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.coherence.Invalidate(c.Request.Context(), cache.MutationDayWrite, cache.Scope{PlanID: planID.Hex()})
	c.JSON(http.StatusOK, MapDayToResponse(planID, day))
}

// RemoveExerciseRow handles DELETE /plans/:planId/days/:dayId/exercises/:rowId.
// Sibling rows keep their orderInDay values; the store never renumbers.
func (h *PlanHandler) RemoveExerciseRow(c *gin.Context) {
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	dayID, ok := pathObjectID(c, "dayId")
	if !ok {
		return
	}
	rowID, ok := pathObjectID(c, "rowId")
	if !ok {
		return
	}

	day, err := h.planService.RemoveExercise(c.Request.Context(), planID, dayID, rowID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.coherence.Invalidate(c.Request.Context(), cache.MutationDayWrite, cache.Scope{PlanID: planID.Hex()})
	c.JSON(http.StatusOK, MapDayToResponse(planID, day))
}
