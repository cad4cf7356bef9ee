package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"dongle-tracker-backend/config"
	"dongle-tracker-backend/internal/mw"
	"dongle-tracker-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, cfg *config.ServerConfig, log *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestLogger(log))

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	handler := NewHandler(s, cacheStore, log)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/dashboard", caching, handler.Dashboard)

		api.GET("/dongles", caching, handler.ListDongles)
		api.POST("/dongles", handler.AddDongle)
		api.GET("/dongles/:dongle_id", handler.GetDongle)
		api.PATCH("/dongles/:dongle_id", handler.EditDongle)
		api.POST("/dongles/:dongle_id/checkout", handler.CheckOut)
		api.POST("/dongles/:dongle_id/checkin", handler.CheckIn)

		api.GET("/assignments", caching, handler.ListAssignments)
		api.GET("/edits", caching, handler.ListEdits)
		api.GET("/filters", caching, handler.FilterOptions)
	}

	return r
}
