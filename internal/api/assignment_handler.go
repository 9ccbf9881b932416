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

// AssignmentHandler exposes the assignment lifecycle.
type AssignmentHandler struct {
	assignmentService service.AssignmentService
	coherence         *cache.Coherence
}

// NewAssignmentHandler creates a new AssignmentHandler.
func NewAssignmentHandler(assignmentService service.AssignmentService, coherence *cache.Coherence) *AssignmentHandler {
	return &AssignmentHandler{assignmentService: assignmentService, coherence: coherence}
}

// --- DTOs ---

// AssignRequest defines the expected JSON for assigning a plan to a member.
type AssignRequest struct {
	MemberID  string     `json:"memberId" binding:"required"`
	PlanID    string     `json:"planId" binding:"required"`
	StartDate time.Time  `json:"startDate" binding:"required"`
	EndDate   *time.Time `json:"endDate"`
	Status    string     `json:"status"`
}

// UpdateAssignmentRequest carries a partial update; absent fields stay as-is.
type UpdateAssignmentRequest struct {
	StartDate *time.Time `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
	Status    *string    `json:"status"`
}

// AssignmentResponse is the DTO for returning assignment details.
type AssignmentResponse struct {
	ID                  string     `json:"id"`
	MemberID            string     `json:"memberId"`
	PlanID              string     `json:"planId"`
	AssignedByTrainerID string     `json:"assignedByTrainerId,omitempty"`
	StartDate           time.Time  `json:"startDate"`
	EndDate             *time.Time `json:"endDate,omitempty"`
	Status              string     `json:"status"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// MapAssignmentToResponse converts a domain.AssignedWorkoutPlan to its DTO.
func MapAssignmentToResponse(a *domain.AssignedWorkoutPlan) AssignmentResponse {
	if a == nil {
		return AssignmentResponse{}
	}
	resp := AssignmentResponse{
		ID:        a.ID.Hex(),
		MemberID:  a.MemberID.Hex(),
		PlanID:    a.PlanID.Hex(),
		StartDate: a.StartDate,
		EndDate:   a.EndDate,
		Status:    string(a.Status),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
	if a.AssignedByTrainerID != nil {
		resp.AssignedByTrainerID = a.AssignedByTrainerID.Hex()
	}
	return resp
}

// MapAssignmentsToResponse converts a slice of assignments to response DTOs.
func MapAssignmentsToResponse(assignments []domain.AssignedWorkoutPlan) []AssignmentResponse {
	responses := make([]AssignmentResponse, len(assignments))
	for i := range assignments {
		responses[i] = MapAssignmentToResponse(&assignments[i])
	}
	return responses
}

func (h *AssignmentHandler) invalidate(c *gin.Context, m cache.Mutation, a *domain.AssignedWorkoutPlan) {
	scope := cache.Scope{
		MemberID:     a.MemberID.Hex(),
		AssignmentID: a.ID.Hex(),
	}
	if a.AssignedByTrainerID != nil {
		scope.TrainerID = a.AssignedByTrainerID.Hex()
	}
	h.coherence.Invalidate(c.Request.Context(), m, scope)
}

// --- Handler Methods ---

// Assign handles POST /assignments. An optional X-Idempotency-Key makes the
// create safely retryable after an ambiguous timeout: the retried call
// returns the row the first attempt stored.
func (h *AssignmentHandler) Assign(c *gin.Context) {
	key, ok := idempotencyKey(c)
	if !ok {
		return
	}
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	memberID, err := primitive.ObjectIDFromHex(req.MemberID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid memberId format")
		return
	}
	planID, err := primitive.ObjectIDFromHex(req.PlanID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid planId format")
		return
	}

	in := service.AssignInput{
		MemberID:       memberID,
		PlanID:         planID,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		Status:         domain.AssignmentStatus(req.Status),
		IdempotencyKey: key,
	}
	if userIDStr, err := getUserIDFromContext(c); err == nil {
		if trainerID, err := primitive.ObjectIDFromHex(userIDStr); err == nil {
			in.AssignedByTrainerID = &trainerID
		}
	}

	assignment, err := h.assignmentService.Assign(c.Request.Context(), in)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.invalidate(c, cache.MutationAssignmentWrite, assignment)
	c.JSON(http.StatusCreated, MapAssignmentToResponse(assignment))
}

// GetAssignment handles GET /assignments/:id.
func (h *AssignmentHandler) GetAssignment(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var out AssignmentResponse
	err := h.coherence.GetOrFetch(c.Request.Context(), cache.AssignmentKey(id.Hex()), &out, func(ctx context.Context) (interface{}, error) {
		assignment, err := h.assignmentService.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return MapAssignmentToResponse(assignment), nil
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// UpdateAssignment handles PUT /assignments/:id. A transition into ACTIVE
// re-runs the one-active-per-member check.
func (h *AssignmentHandler) UpdateAssignment(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req UpdateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	in := service.UpdateAssignmentInput{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	}
	if req.Status != nil {
		status := domain.AssignmentStatus(*req.Status)
		in.Status = &status
	}

	assignment, err := h.assignmentService.Update(c.Request.Context(), id, in)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.invalidate(c, cache.MutationAssignmentWrite, assignment)
	c.JSON(http.StatusOK, MapAssignmentToResponse(assignment))
}

// CancelAssignment handles POST /assignments/:id/cancel. Idempotent on an
// already-CANCELLED row; 409 on a COMPLETED one.
func (h *AssignmentHandler) CancelAssignment(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	assignment, err := h.assignmentService.Cancel(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.invalidate(c, cache.MutationAssignmentWrite, assignment)
	c.JSON(http.StatusOK, MapAssignmentToResponse(assignment))
}

// CompleteAssignment handles POST /assignments/:id/complete.
func (h *AssignmentHandler) CompleteAssignment(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	assignment, err := h.assignmentService.Complete(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.invalidate(c, cache.MutationAssignmentWrite, assignment)
	c.JSON(http.StatusOK, MapAssignmentToResponse(assignment))
}

// DeleteAssignment handles DELETE /assignments/:id, a hard delete.
func (h *AssignmentHandler) DeleteAssignment(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	// Read first so the invalidation scope still knows the member/trainer.
	assignment, err := h.assignmentService.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if err := h.assignmentService.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}

	h.invalidate(c, cache.MutationAssignmentDelete, assignment)
	c.Status(http.StatusNoContent)
}

// ListMemberAssignments handles GET /members/:memberId/assignments.
func (h *AssignmentHandler) ListMemberAssignments(c *gin.Context) {
	memberID, ok := pathObjectID(c, "memberId")
	if !ok {
		return
	}

	var out []AssignmentResponse
	err := h.coherence.GetOrFetch(c.Request.Context(), cache.MemberAssignmentsKey(memberID.Hex()), &out, func(ctx context.Context) (interface{}, error) {
		assignments, err := h.assignmentService.ListByMember(ctx, memberID)
		if err != nil {
			return nil, err
		}
		return MapAssignmentsToResponse(assignments), nil
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if out == nil {
		out = []AssignmentResponse{}
	}
	c.JSON(http.StatusOK, out)
}

// GetCurrentPlan handles GET /members/:memberId/current-plan. No active plan
// is a normal outcome: 200 with a null body, not 404.
func (h *AssignmentHandler) GetCurrentPlan(c *gin.Context) {
	memberID, ok := pathObjectID(c, "memberId")
	if !ok {
		return
	}

	var out *AssignmentResponse
	err := h.coherence.GetOrFetch(c.Request.Context(), cache.CurrentPlanKey(memberID.Hex()), &out, func(ctx context.Context) (interface{}, error) {
		assignment, err := h.assignmentService.GetCurrent(ctx, memberID)
		if err != nil {
			return nil, err
		}
		if assignment == nil {
			return (*AssignmentResponse)(nil), nil
		}
		resp := MapAssignmentToResponse(assignment)
		return &resp, nil
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// ListTrainerAssignments handles GET /trainers/:trainerId/assignments.
func (h *AssignmentHandler) ListTrainerAssignments(c *gin.Context) {
	trainerID, ok := pathObjectID(c, "trainerId")
	if !ok {
		return
	}

	var out []AssignmentResponse
	err := h.coherence.GetOrFetch(c.Request.Context(), cache.TrainerAssignmentsKey(trainerID.Hex()), &out, func(ctx context.Context) (interface{}, error) {
		assignments, err := h.assignmentService.ListByTrainer(ctx, trainerID)
		if err != nil {
			return nil, err
		}
		return MapAssignmentsToResponse(assignments), nil
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if out == nil {
		out = []AssignmentResponse{}
	}
	c.JSON(http.StatusOK, out)
}
