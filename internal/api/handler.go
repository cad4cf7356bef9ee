package api

import (
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"dongle-tracker-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store store.Store
	cache *cache.Cache
	log   *logrus.Logger
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, responseCache *cache.Cache, log *logrus.Logger) *Handler {
	return &Handler{
		store: s,
		cache: responseCache,
		log:   log,
	}
}

// invalidate drops every cached read so the next request observes the
// mutation that just committed.
func (h *Handler) invalidate() {
	if h.cache != nil {
		h.cache.Flush()
	}
}
