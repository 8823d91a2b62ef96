package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	promhandler "github.com/jwalitptl/patients-api/internal/handler/prometheus"
	"github.com/jwalitptl/patients-api/internal/middleware"
)

type pingHandler struct{}

func (pingHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, middleware.SessionID(c))
	})
}

func newTestRouter() *Router {
	r := NewRouter(RouterConfig{
		Mode:           gin.TestMode,
		RequestTimeout: time.Second,
		MaxBodyBytes:   1 << 10,
		CORSConfig:     middleware.DefaultCORSConfig(),
	}, promhandler.New("test", prometheus.NewRegistry()), pingHandler{})
	r.Setup()
	return r
}

func TestRouter_APIGroup(t *testing.T) {
	r := newTestRouter()

	w := httptest.NewRecorder()
	r.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, APIVersion, w.Header().Get(middleware.HeaderXAPIVersion))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderXRequestID))
	assert.Equal(t, w.Body.String(), w.Header().Get(middleware.HeaderXSessionID))
}

func TestRouter_MetricsAndFallbacks(t *testing.T) {
	r := newTestRouter()

	w := httptest.NewRecorder()
	r.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Route not found")

	w = httptest.NewRecorder()
	r.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/ping", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = httptest.NewRecorder()
	r.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test_http_requests_total")
}
