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

// WorkoutLogHandler exposes members' performed-work records.
type WorkoutLogHandler struct {
	logService service.WorkoutLogService
	coherence  *cache.Coherence
}

// NewWorkoutLogHandler creates a new WorkoutLogHandler.
func NewWorkoutLogHandler(logService service.WorkoutLogService, coherence *cache.Coherence) *WorkoutLogHandler {
	return &WorkoutLogHandler{logService: logService, coherence: coherence}
}

// --- DTOs ---

// LogWorkoutRequest defines the expected JSON for logging performed work.
type LogWorkoutRequest struct {
	ExerciseID string    `json:"exerciseId" binding:"required"`
	LogDate    time.Time `json:"logDate" binding:"required"`
	ActualSets *int      `json:"actualSets"`
	ActualReps string    `json:"actualReps"`
	Notes      string    `json:"notes"`
}

// WorkoutLogResponse is the DTO for returning a workout log entry.
type WorkoutLogResponse struct {
	ID         string    `json:"id"`
	MemberID   string    `json:"memberId"`
	ExerciseID string    `json:"exerciseId"`
	LogDate    time.Time `json:"logDate"`
	ActualSets *int      `json:"actualSets,omitempty"`
	ActualReps string    `json:"actualReps,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// MapWorkoutLogToResponse converts a domain.WorkoutLog to its DTO.
func MapWorkoutLogToResponse(l *domain.WorkoutLog) WorkoutLogResponse {
	if l == nil {
		return WorkoutLogResponse{}
	}
	return WorkoutLogResponse{
		ID:         l.ID.Hex(),
		MemberID:   l.MemberID.Hex(),
		ExerciseID: l.ExerciseID.Hex(),
		LogDate:    l.LogDate,
		ActualSets: l.ActualSets,
		ActualReps: l.ActualReps,
		Notes:      l.Notes,
		CreatedAt:  l.CreatedAt,
		UpdatedAt:  l.UpdatedAt,
	}
}

// MapWorkoutLogsToResponse converts a slice of logs to response DTOs.
func MapWorkoutLogsToResponse(logs []domain.WorkoutLog) []WorkoutLogResponse {
	responses := make([]WorkoutLogResponse, len(logs))
	for i := range logs {
		responses[i] = MapWorkoutLogToResponse(&logs[i])
	}
	return responses
}

// --- Handler Methods ---

// LogWorkout handles POST /members/:memberId/workout-logs. Members log for
// themselves; trainers and admins may log on a member's behalf.
func (h *WorkoutLogHandler) LogWorkout(c *gin.Context) {
	memberID, ok := pathObjectID(c, "memberId")
	if !ok {
		return
	}
	if !h.callerMayAccessMember(c, memberID) {
		return
	}
	var req LogWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	exerciseID, err := primitive.ObjectIDFromHex(req.ExerciseID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exerciseId format")
		return
	}

	log, err := h.logService.Log(c.Request.Context(), service.LogWorkoutInput{
		MemberID:   memberID,
		ExerciseID: exerciseID,
		LogDate:    req.LogDate,
		ActualSets: req.ActualSets,
		ActualReps: req.ActualReps,
		Notes:      req.Notes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.coherence.Invalidate(c.Request.Context(), cache.MutationWorkoutLogWrite, cache.Scope{MemberID: memberID.Hex()})
	c.JSON(http.StatusCreated, MapWorkoutLogToResponse(log))
}

// ListWorkoutLogs handles GET /members/:memberId/workout-logs, optionally
// bounded by ?from= and ?to= (RFC 3339). Bounded queries bypass the cache.
func (h *WorkoutLogHandler) ListWorkoutLogs(c *gin.Context) {
	memberID, ok := pathObjectID(c, "memberId")
	if !ok {
		return
	}
	if !h.callerMayAccessMember(c, memberID) {
		return
	}

	from, ok := queryTime(c, "from")
	if !ok {
		return
	}
	to, ok := queryTime(c, "to")
	if !ok {
		return
	}

	if from != nil || to != nil {
		logs, err := h.logService.ListByMember(c.Request.Context(), memberID, from, to)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, MapWorkoutLogsToResponse(logs))
		return
	}

	var out []WorkoutLogResponse
	err := h.coherence.GetOrFetch(c.Request.Context(), cache.WorkoutLogsKey(memberID.Hex()), &out, func(ctx context.Context) (interface{}, error) {
		logs, err := h.logService.ListByMember(ctx, memberID, nil, nil)
		if err != nil {
			return nil, err
		}
		return MapWorkoutLogsToResponse(logs), nil
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if out == nil {
		out = []WorkoutLogResponse{}
	}
	c.JSON(http.StatusOK, out)
}

// DeleteWorkoutLog handles DELETE /members/:memberId/workout-logs/:logId.
func (h *WorkoutLogHandler) DeleteWorkoutLog(c *gin.Context) {
	memberID, ok := pathObjectID(c, "memberId")
	if !ok {
		return
	}
	if !h.callerMayAccessMember(c, memberID) {
		return
	}
	logID, ok := pathObjectID(c, "logId")
	if !ok {
		return
	}

	log, err := h.logService.Get(c.Request.Context(), logID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if log.MemberID != memberID {
		abortWithError(c, http.StatusNotFound, "workout log not found for member")
		return
	}
	if err := h.logService.Delete(c.Request.Context(), logID); err != nil {
		respondServiceError(c, err)
		return
	}

	h.coherence.Invalidate(c.Request.Context(), cache.MutationWorkoutLogWrite, cache.Scope{MemberID: memberID.Hex()})
	c.Status(http.StatusNoContent)
}

// callerMayAccessMember allows a member through only for their own records;
// trainers and admins pass for any member.
func (h *WorkoutLogHandler) callerMayAccessMember(c *gin.Context, memberID primitive.ObjectID) bool {
	role, err := getUserRoleFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify caller role")
		return false
	}
	if role == domain.RoleTrainer || role == domain.RoleAdmin {
		return true
	}
	userIDStr, err := getUserIDFromContext(c)
	if err != nil || userIDStr != memberID.Hex() {
		abortWithError(c, http.StatusForbidden, "Members may only access their own workout logs")
		return false
	}
	return true
}

func queryTime(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+name+" timestamp, expected RFC 3339")
		return nil, false
	}
	return &t, true
}
