package patient

import (
	stderrors "errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/patients-api/internal/middleware"
	"github.com/jwalitptl/patients-api/internal/model"
	"github.com/jwalitptl/patients-api/internal/service/filters"
	"github.com/jwalitptl/patients-api/internal/service/patient"
	"github.com/jwalitptl/patients-api/pkg/errors"
	"github.com/jwalitptl/patients-api/pkg/httputil"
)

type Handler struct {
	service patient.PatientService
	filters *filters.Store
}

// NewHandler builds the patient handler. A nil store disables session
// filters on the list endpoint.
func NewHandler(service patient.PatientService, store *filters.Store) *Handler {
	return &Handler{
		service: service,
		filters: store,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	{
		patients.GET("", h.ListPatients)
		patients.POST("", h.CreatePatient)
		patients.GET("/:id", h.GetPatient)
		patients.PATCH("/:id", h.UpdatePatient)
		patients.POST("/:id/archive", h.ArchivePatient)
		patients.PUT("/:id/status", h.UpdatePatientStatus)
	}
}

func (h *Handler) ListPatients(c *gin.Context) {
	query := model.ListPatientsQuery{
		Page:      queryInt(c, "page"),
		Limit:     queryInt(c, "limit"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}

	// Explicit search/status parameters win over the session's filters.
	var state filters.State
	if h.filters != nil {
		state = h.filters.Get(middleware.SessionID(c))
	}
	if search, ok := c.GetQuery("search"); ok {
		state.SetSearchTerm(search)
	}
	if status, ok := c.GetQuery("status"); ok {
		state.SetStatusFilter(status)
	}
	state.Apply(&query)

	page, err := h.service.ListPatients(c.Request.Context(), query)
	if err != nil {
		_ = c.Error(err)
		httputil.RespondWithMessage(c, http.StatusInternalServerError, msgFetchFailed)
		return
	}

	httputil.RespondWithPage(c, page.Data, page.Meta)
}

func (h *Handler) GetPatient(c *gin.Context) {
	p, err := h.service.GetPatient(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, err, msgFetchOne)
		return
	}

	httputil.RespondWithData(c, p)
}

func (h *Handler) CreatePatient(c *gin.Context) {
	var form model.CreatePatientForm
	if err := bind(c, &form); err != nil {
		c.JSON(http.StatusBadRequest, model.MutationResult{
			Message: createMessages.invalid,
			Issues:  []string{msgInvalidBody},
		})
		return
	}

	p, err := h.service.CreatePatient(c.Request.Context(), &form)
	if err != nil {
		respondMutationError(c, err, createMessages, form.Fields(), "")
		return
	}

	c.JSON(http.StatusCreated, model.MutationResult{
		Message: createMessages.success,
		ID:      p.ID.String(),
		Status:  p.Status,
		Patient: p,
	})
}

func (h *Handler) UpdatePatient(c *gin.Context) {
	var form model.UpdatePatientForm
	if err := bind(c, &form); err != nil {
		c.JSON(http.StatusBadRequest, model.MutationResult{
			Message: updateMessages.invalid,
			Issues:  []string{msgInvalidBody},
			ID:      c.Param("id"),
		})
		return
	}
	form.ID = c.Param("id")

	p, err := h.service.UpdatePatient(c.Request.Context(), &form)
	if err != nil {
		respondMutationError(c, err, updateMessages, form.Fields(), form.ID)
		return
	}

	c.JSON(http.StatusOK, model.MutationResult{
		Message: updateMessages.success,
		ID:      p.ID.String(),
		Status:  p.Status,
		Patient: p,
	})
}

func (h *Handler) ArchivePatient(c *gin.Context) {
	form := model.ArchivePatientForm{ID: c.Param("id")}

	p, err := h.service.ArchivePatient(c.Request.Context(), &form)
	if err != nil {
		respondMutationError(c, err, archiveMessages, nil, form.ID)
		return
	}

	c.JSON(http.StatusOK, model.MutationResult{
		Message: archiveMessages.success,
		ID:      p.ID.String(),
		Status:  p.Status,
		Patient: p,
	})
}

func (h *Handler) UpdatePatientStatus(c *gin.Context) {
	var form model.UpdatePatientStatusForm
	if err := bind(c, &form); err != nil {
		c.JSON(http.StatusBadRequest, model.MutationResult{
			Message: statusMessages.invalid,
			Issues:  []string{msgInvalidBody},
			ID:      c.Param("id"),
		})
		return
	}
	form.ID = c.Param("id")

	p, err := h.service.UpdatePatientStatus(c.Request.Context(), &form)
	if err != nil {
		respondMutationError(c, err, statusMessages, nil, form.ID)
		return
	}

	c.JSON(http.StatusOK, model.MutationResult{
		Message: statusMessages.success,
		ID:      p.ID.String(),
		Status:  p.Status,
		Patient: p,
	})
}

func respondMutationError(c *gin.Context, err error, m messages, fields map[string]string, id string) {
	if stderrors.Is(err, patient.ErrNoChanges) {
		c.JSON(http.StatusOK, model.MutationResult{Message: m.noChanges, ID: id})
		return
	}

	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.Internal(err)
	}

	switch appErr.Code {
	case errors.ErrValidation, errors.ErrBadRequest:
		c.JSON(http.StatusBadRequest, model.MutationResult{
			Message: m.invalid,
			Issues:  appErr.Issues,
			Fields:  fields,
			ID:      id,
		})
	case errors.ErrNotFound:
		c.JSON(http.StatusNotFound, model.MutationResult{Message: m.notFound, ID: id})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, model.MutationResult{
			Message: m.unexpected,
			Fields:  fields,
			ID:      id,
		})
	}
}

// bind decodes a JSON or url-encoded body. An empty body leaves obj untouched.
func bind(c *gin.Context, obj interface{}) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBind(obj); err != nil && !stderrors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// queryInt returns 0 for a missing or non-numeric parameter so the query's
// defaults apply.
func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}
