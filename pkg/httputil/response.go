package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jwalitptl/patients-api/pkg/errors"
)

// DataResponse wraps a single resource or a page of resources.
type DataResponse struct {
	Data interface{} `json:"data"`
	Meta interface{} `json:"meta,omitempty"`
}

// MessageResponse is the body for errors and mutation results.
type MessageResponse struct {
	Message string   `json:"message"`
	Issues  []string `json:"issues,omitempty"`
}

// RespondWithData sends a 200 with {"data": ...}
func RespondWithData(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, DataResponse{Data: data})
}

// RespondWithPage sends a 200 with {"data": ..., "meta": ...}
func RespondWithPage(c *gin.Context, data, meta interface{}) {
	c.JSON(http.StatusOK, DataResponse{Data: data, Meta: meta})
}

// RespondWithMessage sends {"message": ...} with the given status.
func RespondWithMessage(c *gin.Context, status int, message string) {
	c.JSON(status, MessageResponse{Message: message})
}

// RespondWithError sends an error response. AppErrors keep their own status
// and message; anything else becomes a 500 carrying fallback.
func RespondWithError(c *gin.Context, err error, fallback string) {
	if appErr, ok := errors.As(err); ok && appErr.Code != errors.ErrInternal {
		c.JSON(appErr.HTTPStatus(), MessageResponse{
			Message: appErr.Message,
			Issues:  appErr.Issues,
		})
		return
	}

	if fallback == "" {
		fallback = "Internal server error"
	}
	c.JSON(http.StatusInternalServerError, MessageResponse{Message: fallback})
}
