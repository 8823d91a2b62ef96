package filters

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/patients-api/internal/middleware"
	"github.com/jwalitptl/patients-api/internal/service/filters"
	"github.com/jwalitptl/patients-api/pkg/httputil"
)

// Handler exposes the per-session patient list filters.
type Handler struct {
	store *filters.Store
}

func NewHandler(store *filters.Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	f := r.Group("/patient-filters")
	{
		f.GET("", h.GetFilters)
		f.PUT("", h.UpdateFilters)
		f.DELETE("", h.ClearFilters)
	}
}

func (h *Handler) GetFilters(c *gin.Context) {
	httputil.RespondWithData(c, h.store.Get(middleware.SessionID(c)))
}

// UpdateFilters changes only the fields present in the body.
func (h *Handler) UpdateFilters(c *gin.Context) {
	var patch filters.Patch
	if c.Request.ContentLength == 0 {
		httputil.RespondWithData(c, h.store.Get(middleware.SessionID(c)))
		return
	}
	if err := c.ShouldBind(&patch); err != nil {
		httputil.RespondWithMessage(c, http.StatusBadRequest, "Invalid filter values.")
		return
	}

	httputil.RespondWithData(c, h.store.Update(middleware.SessionID(c), patch))
}

func (h *Handler) ClearFilters(c *gin.Context) {
	httputil.RespondWithData(c, h.store.Clear(middleware.SessionID(c)))
}
