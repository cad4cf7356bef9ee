package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dongle-tracker-backend/internal/store"
)

// writeError maps store error kinds onto HTTP statuses. Unclassified
// errors are storage failures: logged in full, reported generically.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrValidation):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrDuplicateID), errors.Is(err, store.ErrConflict):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.log.WithError(err).Error("storage operation failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "storage operation failed"})
	}
}
