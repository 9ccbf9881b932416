package api

import (
	"context"
	"net/http"
	"time"

	"fithub/workout-service/internal/cache"
	"fithub/workout-service/internal/domain"
	"fithub/workout-service/internal/service"

	"github.com/gin-gonic/gin"
)

// ExerciseHandler exposes the exercise catalog.
type ExerciseHandler struct {
	exerciseService service.ExerciseService
	coherence       *cache.Coherence
}

// NewExerciseHandler creates a new ExerciseHandler.
func NewExerciseHandler(exerciseService service.ExerciseService, coherence *cache.Coherence) *ExerciseHandler {
	return &ExerciseHandler{exerciseService: exerciseService, coherence: coherence}
}

// --- DTOs ---

// CreateExerciseRequest defines the expected JSON for creating an exercise.
type CreateExerciseRequest struct {
	Name        string `json:"name" binding:"required"`
	BodyPart    string `json:"bodyPart" binding:"required"`
	Equipment   string `json:"equipment" binding:"required"`
	Difficulty  string `json:"difficulty" binding:"required"`
	VideoURL    string `json:"videoUrl" binding:"omitempty,url"`
	Description string `json:"description"`
}

// UpdateExerciseRequest carries a partial update; absent fields stay as-is.
type UpdateExerciseRequest struct {
	Name        *string `json:"name"`
	BodyPart    *string `json:"bodyPart"`
	Equipment   *string `json:"equipment"`
	Difficulty  *string `json:"difficulty"`
	VideoURL    *string `json:"videoUrl"`
	Description *string `json:"description"`
}

// ExerciseResponse is the DTO for returning exercise details.
type ExerciseResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	BodyPart    string    `json:"bodyPart"`
	Equipment   string    `json:"equipment"`
	Difficulty  string    `json:"difficulty"`
	VideoURL    string    `json:"videoUrl,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// MapExerciseToResponse converts a domain.Exercise to ExerciseResponse DTO.
func MapExerciseToResponse(ex *domain.Exercise) ExerciseResponse {
	if ex == nil {
		return ExerciseResponse{}
	}
	return ExerciseResponse{
		ID:          ex.ID.Hex(),
		Name:        ex.Name,
		BodyPart:    string(ex.BodyPart),
		Equipment:   string(ex.Equipment),
		Difficulty:  string(ex.Difficulty),
		VideoURL:    ex.VideoURL,
		Description: ex.Description,
		CreatedAt:   ex.CreatedAt,
		UpdatedAt:   ex.UpdatedAt,
	}
}

// MapExercisesToResponse converts a slice of domain.Exercise to response DTOs.
func MapExercisesToResponse(exercises []domain.Exercise) []ExerciseResponse {
	responses := make([]ExerciseResponse, len(exercises))
	for i, ex := range exercises {
		responses[i] = MapExerciseToResponse(&ex)
	}
	return responses
}

// --- Handler Methods ---

// CreateExercise handles POST /exercises.
func (h *ExerciseHandler) CreateExercise(c *gin.Context) {
	var req CreateExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	exercise, err := h.exerciseService.Create(c.Request.Context(), service.CreateExerciseInput{
		Name:        req.Name,
		BodyPart:    domain.BodyPart(req.BodyPart),
		Equipment:   domain.Equipment(req.Equipment),
		Difficulty:  domain.Difficulty(req.Difficulty),
		VideoURL:    req.VideoURL,
		Description: req.Description,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.coherence.Invalidate(c.Request.Context(), cache.MutationExerciseWrite, cache.Scope{ExerciseID: exercise.ID.Hex()})
	c.JSON(http.StatusCreated, MapExerciseToResponse(exercise))
}

// ListExercises handles GET /exercises, read-through cached.
func (h *ExerciseHandler) ListExercises(c *gin.Context) {
	var out []ExerciseResponse
	err := h.coherence.GetOrFetch(c.Request.Context(), cache.ExercisesKey(), &out, func(ctx context.Context) (interface{}, error) {
		exercises, err := h.exerciseService.List(ctx)
		if err != nil {
			return nil, err
		}
		return MapExercisesToResponse(exercises), nil
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if out == nil {
		out = []ExerciseResponse{}
	}
	c.JSON(http.StatusOK, out)
}

// GetExercise handles GET /exercises/:id.
func (h *ExerciseHandler) GetExercise(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var out ExerciseResponse
	err := h.coherence.GetOrFetch(c.Request.Context(), cache.ExerciseKey(id.Hex()), &out, func(ctx context.Context) (interface{}, error) {
		exercise, err := h.exerciseService.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return MapExerciseToResponse(exercise), nil
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// UpdateExercise handles PUT /exercises/:id.
func (h *ExerciseHandler) UpdateExercise(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req UpdateExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	in := service.UpdateExerciseInput{
		Name:        req.Name,
		VideoURL:    req.VideoURL,
		Description: req.Description,
	}
	if req.BodyPart != nil {
		bp := domain.BodyPart(*req.BodyPart)
		in.BodyPart = &bp
	}
	if req.Equipment != nil {
		eq := domain.Equipment(*req.Equipment)
		in.Equipment = &eq
	}
	if req.Difficulty != nil {
		d := domain.Difficulty(*req.Difficulty)
		in.Difficulty = &d
	}

	exercise, err := h.exerciseService.Update(c.Request.Context(), id, in)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.coherence.Invalidate(c.Request.Context(), cache.MutationExerciseWrite, cache.Scope{ExerciseID: id.Hex()})
	c.JSON(http.StatusOK, MapExerciseToResponse(exercise))
}

// DeleteExercise handles DELETE /exercises/:id. Refused with 409 while any
// plan row references the exercise.
func (h *ExerciseHandler) DeleteExercise(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	if err := h.exerciseService.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}

	h.coherence.Invalidate(c.Request.Context(), cache.MutationExerciseWrite, cache.Scope{ExerciseID: id.Hex()})
	c.Status(http.StatusNoContent)
}

// VideoUploadURLRequest carries the upload's content type.
type VideoUploadURLRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

// RequestVideoUploadURL handles POST /exercises/:id/video-upload-url.
func (h *ExerciseHandler) RequestVideoUploadURL(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req VideoUploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	uploadURL, err := h.exerciseService.VideoUploadURL(c.Request.Context(), id, req.ContentType)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	// The videoUrl field changed, so the catalog views are stale.
	h.coherence.Invalidate(c.Request.Context(), cache.MutationExerciseWrite, cache.Scope{ExerciseID: id.Hex()})
	c.JSON(http.StatusOK, gin.H{"uploadUrl": uploadURL})
}

// GetVideoDownloadURL handles GET /exercises/:id/video-download-url.
func (h *ExerciseHandler) GetVideoDownloadURL(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	downloadURL, err := h.exerciseService.VideoDownloadURL(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"downloadUrl": downloadURL})
}
