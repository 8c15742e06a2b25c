// Package handler holds request helpers shared by the per-domain handlers.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/collabcare-api/internal/model"
	"github.com/jwalitptl/collabcare-api/pkg/auth"
	apperrors "github.com/jwalitptl/collabcare-api/pkg/errors"
	"github.com/jwalitptl/collabcare-api/pkg/validator"
)

// Message is the body of writes that only acknowledge success.
type Message struct {
	Message string `json:"message"`
}

// Fail records err for the ErrorHandler middleware and stops the chain.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// BindJSON decodes and validates the body into obj. On failure it has already responded.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		Fail(c, apperrors.NewValidation("invalid request", validator.Details(err)))
		return false
	}
	return true
}

// ParamUUID parses the named path parameter.
func ParamUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		Fail(c, apperrors.NewValidation("invalid "+name, map[string]string{name: "must be a UUID"}))
		return uuid.Nil, false
	}
	return id, true
}

// QueryUUID parses an optional query parameter; nil when absent.
func QueryUUID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		Fail(c, apperrors.NewValidation("invalid "+name, map[string]string{name: "must be a UUID"}))
		return nil, false
	}
	return &id, true
}

// QueryDate parses an optional YYYY-MM-DD query parameter; nil when absent.
func QueryDate(c *gin.Context, name string) (*model.Date, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		Fail(c, apperrors.NewValidation("invalid "+name, map[string]string{name: "must be a date in YYYY-MM-DD format"}))
		return nil, false
	}
	return &d, true
}

// CurrentUser returns the authenticated user's id from the request context.
func CurrentUser(c *gin.Context) (uuid.UUID, bool) {
	claims, ok := auth.ClaimsFrom(c.Request.Context())
	if !ok {
		Fail(c, apperrors.Unauthorized(nil))
		return uuid.Nil, false
	}
	return claims.UserID, true
}

// UserOrSelf reads the named query parameter and falls back to the caller.
func UserOrSelf(c *gin.Context, name string) (uuid.UUID, bool) {
	id, ok := QueryUUID(c, name)
	if !ok {
		return uuid.Nil, false
	}
	if id != nil {
		return *id, true
	}
	return CurrentUser(c)
}

func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
