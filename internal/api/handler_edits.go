package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"dongle-tracker-backend/internal/export"
	"dongle-tracker-backend/internal/store"
)

// ListEdits handles GET /api/edits: the per-field edit audit trail, newest
// first. Filters: dongle_id, changed_by, field, from, to, limit.
// ?format=csv streams the rows as a CSV download.
func (h *Handler) ListEdits(c *gin.Context) {
	filter := store.EditFilter{
		DongleID:  c.Query("dongle_id"),
		ChangedBy: c.Query("changed_by"),
		Field:     c.Query("field"),
	}

	var ok bool
	if filter.From, ok = parseTimeQuery(c, "from"); !ok {
		return
	}
	if filter.To, ok = parseTimeQuery(c, "to"); !ok {
		return
	}
	if filter.Limit, ok = parseLimitQuery(c); !ok {
		return
	}

	rows, err := h.store.ListEdits(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if c.Query("format") == "csv" {
		writeCSVHeaders(c, "dongle_edits.csv")
		if err := export.WriteEdits(c.Writer, rows); err != nil {
			h.log.WithError(err).Error("failed to stream edit csv")
		}
		return
	}
	c.JSON(http.StatusOK, rows)
}

// parseTimeQuery reads an optional RFC 3339 timestamp or plain date query
// parameter. A false return means the response has already been written.
func parseTimeQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t, true
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": name + " must be RFC 3339 or YYYY-MM-DD"})
	return nil, false
}

func parseLimitQuery(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return 0, false
	}
	return limit, true
}

func writeCSVHeaders(c *gin.Context, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)
}
