package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dongle-tracker-backend/internal/model"
	"dongle-tracker-backend/internal/store"
)

// ListDongles handles GET /api/dongles. Optional filters: ?state=Working
// and ?available=true|false.
func (h *Handler) ListDongles(c *gin.Context) {
	var filter store.DongleFilter

	if raw := c.Query("state"); raw != "" {
		state := model.DongleState(raw)
		if !state.Valid() {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown state " + strconv.Quote(raw)})
			return
		}
		filter.State = &state
	}
	if raw := c.Query("available"); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "available must be true or false"})
			return
		}
		filter.Available = &available
	}

	dongles, err := h.store.ListDongles(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dongles)
}

// AddDongle handles POST /api/dongles.
func (h *Handler) AddDongle(c *gin.Context) {
	var req store.AddDongleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	dongle, err := h.store.AddDongle(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.invalidate()
	c.JSON(http.StatusCreated, dongle)
}

// dongleResponse is a dongle snapshot plus its derived current holder.
type dongleResponse struct {
	store.DongleInfo
	CurrentHolder string `json:"currentHolder"`
}

// GetDongle handles GET /api/dongles/:dongle_id.
func (h *Handler) GetDongle(c *gin.Context) {
	info, err := h.store.GetDongle(c.Request.Context(), c.Param("dongle_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	holder := info.DefaultOwner
	if info.AssignedTo != "" {
		holder = info.AssignedTo
	}
	c.JSON(http.StatusOK, dongleResponse{DongleInfo: *info, CurrentHolder: holder})
}

// EditDongle handles PATCH /api/dongles/:dongle_id. The body carries the
// changed fields plus who made the change and why; one audit row is
// written per changed field.
func (h *Handler) EditDongle(c *gin.Context) {
	var req store.EditDongleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	req.DongleID = c.Param("dongle_id")

	changed, err := h.store.EditDongle(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if len(changed) > 0 {
		h.invalidate()
	}
	if changed == nil {
		changed = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"dongleId": req.DongleID, "changed": changed})
}
