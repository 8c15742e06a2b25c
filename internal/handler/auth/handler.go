package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/collabcare-api/internal/handler"
	"github.com/jwalitptl/collabcare-api/internal/model"
	"github.com/jwalitptl/collabcare-api/internal/service/auth"
	"github.com/jwalitptl/collabcare-api/pkg/httputil"
)

type Handler struct {
	svc *auth.Service
}

func NewHandler(svc *auth.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the public authentication routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	a := r.Group("/auth")
	{
		a.POST("/login", h.Login)
	}
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, resp)
}
