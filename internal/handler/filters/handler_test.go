package filters

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/patients-api/internal/middleware"
	"github.com/jwalitptl/patients-api/internal/service/filters"
)

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1", middleware.Session())
	NewHandler(filters.NewStore(time.Hour)).RegisterRoutes(api)
	return r
}

func request(r *gin.Engine, method, body, session string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, "/api/v1/patient-filters", nil)
	} else {
		req = httptest.NewRequest(method, "/api/v1/patient-filters", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if session != "" {
		req.Header.Set(middleware.HeaderXSessionID, session)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestFilters_Defaults(t *testing.T) {
	r := setupRouter()

	w := request(r, http.MethodGet, "", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"searchTerm":"","statusFilter":""}}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderXSessionID))
}

func TestFilters_PartialUpdateAndClear(t *testing.T) {
	r := setupRouter()

	w := request(r, http.MethodPut, `{"searchTerm":"ann"}`, "s1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"searchTerm":"ann","statusFilter":""}}`, w.Body.String())

	w = request(r, http.MethodPut, `{"statusFilter":"Active"}`, "s1")
	assert.JSONEq(t, `{"data":{"searchTerm":"ann","statusFilter":"Active"}}`, w.Body.String())

	w = request(r, http.MethodGet, "", "s2")
	assert.JSONEq(t, `{"data":{"searchTerm":"","statusFilter":""}}`, w.Body.String())

	w = request(r, http.MethodDelete, "", "s1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"searchTerm":"","statusFilter":""}}`, w.Body.String())

	w = request(r, http.MethodGet, "", "s1")
	assert.JSONEq(t, `{"data":{"searchTerm":"","statusFilter":""}}`, w.Body.String())
}

func TestFilters_InvalidBody(t *testing.T) {
	r := setupRouter()

	w := request(r, http.MethodPut, `{"searchTerm":42}`, "s1")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
