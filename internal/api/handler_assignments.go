package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dongle-tracker-backend/internal/export"
	"dongle-tracker-backend/internal/model"
	"dongle-tracker-backend/internal/store"
)

// CheckOut handles POST /api/dongles/:dongle_id/checkout.
func (h *Handler) CheckOut(c *gin.Context) {
	var req store.CheckOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	req.DongleID = c.Param("dongle_id")

	if err := h.store.CheckOut(c.Request.Context(), req); err != nil {
		h.writeError(c, err)
		return
	}
	h.invalidate()
	c.JSON(http.StatusCreated, gin.H{
		"dongleId": req.DongleID,
		"action":   model.ActionCheckOut,
		"assignee": req.Assignee,
	})
}

// CheckIn handles POST /api/dongles/:dongle_id/checkin. The body is
// optional; check-in carries at most a note.
func (h *Handler) CheckIn(c *gin.Context) {
	var req store.CheckInRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
	}
	req.DongleID = c.Param("dongle_id")

	if err := h.store.CheckIn(c.Request.Context(), req); err != nil {
		h.writeError(c, err)
		return
	}
	h.invalidate()
	c.JSON(http.StatusCreated, gin.H{
		"dongleId": req.DongleID,
		"action":   model.ActionCheckIn,
	})
}

// ListAssignments handles GET /api/assignments: the check-out/check-in
// history, newest first. Filters: dongle_id, assignee, action, from, to,
// limit. ?format=csv streams the rows as a CSV download.
func (h *Handler) ListAssignments(c *gin.Context) {
	filter := store.AssignmentFilter{
		DongleID: c.Query("dongle_id"),
		Assignee: c.Query("assignee"),
	}

	if raw := c.Query("action"); raw != "" {
		action := model.ActionType(raw)
		if action != model.ActionCheckOut && action != model.ActionCheckIn {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "action must be check_out or check_in"})
			return
		}
		filter.Action = action
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

	rows, err := h.store.ListAssignments(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if c.Query("format") == "csv" {
		writeCSVHeaders(c, "assignments.csv")
		if err := export.WriteAssignments(c.Writer, rows); err != nil {
			h.log.WithError(err).Error("failed to stream assignment csv")
		}
		return
	}
	c.JSON(http.StatusOK, rows)
}
