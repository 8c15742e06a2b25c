package httputil

import (
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/collabcare-api/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRespondWithError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{
			name:     "not found",
			err:      errors.NewNotFound("patient", nil),
			wantCode: http.StatusNotFound,
			wantBody: `{"error":"patient not found"}`,
		},
		{
			name:     "validation with details",
			err:      errors.NewValidation("invalid request", map[string]string{"contactDate": "is required"}),
			wantCode: http.StatusBadRequest,
			wantBody: `{"error":"invalid request","details":{"contactDate":"is required"}}`,
		},
		{
			name:     "unexpected",
			err:      stderrors.New("connection refused"),
			wantCode: http.StatusInternalServerError,
			wantBody: `{"error":"Internal server error","details":"connection refused"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			RespondWithError(c, tt.err)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestRespondWithFile(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondWithFile(c, "application/pdf", "intake.pdf", []byte("%PDF-1.4"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="intake.pdf"`, w.Header().Get("Content-Disposition"))
}
