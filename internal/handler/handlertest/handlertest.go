// Package handlertest builds gin engines for handler tests.
package handlertest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/collabcare-api/internal/middleware"
	"github.com/jwalitptl/collabcare-api/internal/model"
	"github.com/jwalitptl/collabcare-api/pkg/auth"
	"github.com/jwalitptl/collabcare-api/pkg/validator"
)

// Engine returns a test engine with error rendering and, when claims is
// non-nil, an authenticated caller on every request.
func Engine(t *testing.T, claims *model.TokenClaims) (*gin.Engine, *gin.RouterGroup) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, validator.Register())

	r := gin.New()
	r.Use(middleware.ErrorHandler())
	if claims != nil {
		r.Use(func(c *gin.Context) {
			c.Request = c.Request.WithContext(auth.WithClaims(c.Request.Context(), claims))
			c.Next()
		})
	}
	return r, r.Group("/api/v1")
}

// Do sends body as JSON, or no body when it is nil.
func Do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// Decode unmarshals the response body into v.
func Decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}
