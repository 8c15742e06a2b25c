package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/collabcare-api/pkg/errors"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// RespondWithError renders err. AppErrors keep their status and message;
// anything else is a 500 with the cause in details.
func RespondWithError(c *gin.Context, err error) {
	if appErr, ok := errors.As(err); ok {
		body := ErrorBody{Error: appErr.Message, Details: appErr.Details}
		if appErr.Code == errors.ErrInternal && appErr.Err != nil {
			body.Details = appErr.Err.Error()
		}
		c.AbortWithStatusJSON(appErr.StatusCode(), body)
		return
	}

	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorBody{
		Error:   "Internal server error",
		Details: err.Error(),
	})
}

// RespondWithCreated sends a 201 with data.
func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// RespondWithSuccess sends a 200 with data.
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// RespondWithFile sends a generated document as an attachment.
func RespondWithFile(c *gin.Context, contentType, filename string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}
