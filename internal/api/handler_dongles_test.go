package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"dongle-tracker-backend/config"
	"dongle-tracker-backend/internal/db"
	"dongle-tracker-backend/internal/store"
)

// newTestRouter wires the full router over a fresh in-memory sqlite store.
func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	require.NoError(t, db.Migrate(gormDB, quiet))

	cfg := &config.ServerConfig{
		RateLimitPerSec: 1000,
		RateLimitBurst:  1000,
		CacheTTLSeconds: 60,
	}
	return NewRouter(store.NewGormStore(gormDB), cfg, quiet)
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAddDongleEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, "POST", "/api/dongles",
		`{"dongleId":"HAL-001","version":"23.05","defaultOwner":"Pool","state":"Working"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	// Duplicate id.
	w = doJSON(t, router, "POST", "/api/dongles", `{"dongleId":"HAL-001"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Missing required id.
	w = doJSON(t, router, "POST", "/api/dongles", `{"version":"23.05"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown state.
	w = doJSON(t, router, "POST", "/api/dongles", `{"dongleId":"HAL-002","state":"Broken"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetDongleEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, "GET", "/api/dongles/HAL-001", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	doJSON(t, router, "POST", "/api/dongles", `{"dongleId":"HAL-001","defaultOwner":"Pool"}`)

	w = doJSON(t, router, "GET", "/api/dongles/HAL-001", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		DongleID      string `json:"dongleId"`
		CurrentHolder string `json:"currentHolder"`
		Available     bool   `json:"available"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "HAL-001", resp.DongleID)
	assert.Equal(t, "Pool", resp.CurrentHolder)
	assert.True(t, resp.Available)

	doJSON(t, router, "POST", "/api/dongles/HAL-001/checkout", `{"assignee":"Carol"}`)

	w = doJSON(t, router, "GET", "/api/dongles/HAL-001", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Carol", resp.CurrentHolder)
	assert.False(t, resp.Available)
}

func TestEditDongleEndpoint(t *testing.T) {
	router := newTestRouter(t)
	doJSON(t, router, "POST", "/api/dongles", `{"dongleId":"HAL-001","version":"23.05"}`)

	w := doJSON(t, router, "PATCH", "/api/dongles/HAL-001",
		`{"changes":{"version":"24.11","notes":"recalibrated"},"changedBy":"Bob","reason":"upgrade"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Changed []string `json:"changed"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.ElementsMatch(t, []string{"version", "notes"}, resp.Changed)

	// changed_by is mandatory for the audit trail.
	w = doJSON(t, router, "PATCH", "/api/dongles/HAL-001", `{"changes":{"notes":"x"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, "PATCH", "/api/dongles/HAL-404", `{"changes":{"notes":"x"},"changedBy":"Bob"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListDonglesEndpoint(t *testing.T) {
	router := newTestRouter(t)
	doJSON(t, router, "POST", "/api/dongles", `{"dongleId":"HAL-001"}`)
	doJSON(t, router, "POST", "/api/dongles", `{"dongleId":"HAL-002","state":"Missing"}`)

	w := doJSON(t, router, "GET", "/api/dongles?state=Working", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	w = doJSON(t, router, "GET", "/api/dongles?state=Nonsense", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, "GET", "/api/dongles?available=maybe", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMutationInvalidatesCache(t *testing.T) {
	router := newTestRouter(t)

	// Prime the cache with the empty listing.
	w := doJSON(t, router, "GET", "/api/dongles", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))

	doJSON(t, router, "POST", "/api/dongles", `{"dongleId":"HAL-001"}`)

	// The mutation must have flushed the cached response.
	w = doJSON(t, router, "GET", "/api/dongles", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}
