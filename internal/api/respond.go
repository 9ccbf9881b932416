package api

import (
	"errors"
	"net/http"

	"fithub/workout-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// respondServiceError maps the service error taxonomy onto HTTP statuses.
// Conflict and validation messages are surfaced verbatim so the caller sees
// what blocked the operation.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConflict):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUnavailable):
		abortWithError(c, http.StatusServiceUnavailable, "Store temporarily unavailable, retry later")
	default:
		abortWithError(c, http.StatusInternalServerError, "Internal server error")
	}
}

// pathObjectID parses the named path parameter as an ObjectID, aborting with
// 400 on malformed input. The second return is false after an abort.
func pathObjectID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+name+" format")
		return primitive.NilObjectID, false
	}
	return id, true
}

// idempotencyKey reads the optional X-Idempotency-Key header. A present but
// non-UUID key is rejected so malformed keys cannot silently disable replay
// detection. The second return is false after an abort.
func idempotencyKey(c *gin.Context) (string, bool) {
	key := c.GetHeader("X-Idempotency-Key")
	if key == "" {
		return "", true
	}
	if _, err := uuid.Parse(key); err != nil {
		abortWithError(c, http.StatusBadRequest, "X-Idempotency-Key must be a UUID")
		return "", false
	}
	return key, true
}
