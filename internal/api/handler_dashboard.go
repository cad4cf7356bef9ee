package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Dashboard handles GET /api/dashboard: summary counts by state and
// availability.
func (h *Handler) Dashboard(c *gin.Context) {
	summary, err := h.store.Summary(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// FilterOptions handles GET /api/filters: distinct values for the history
// view dropdowns.
func (h *Handler) FilterOptions(c *gin.Context) {
	opts, err := h.store.FilterOptions(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, opts)
}
