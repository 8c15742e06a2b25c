package user

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/collabcare-api/internal/handler"
	"github.com/jwalitptl/collabcare-api/internal/model"
	"github.com/jwalitptl/collabcare-api/internal/service/user"
	"github.com/jwalitptl/collabcare-api/pkg/httputil"
)

// MinutesCounter totals the minutes a user tracked between optional dates.
type MinutesCounter interface {
	UserMinutes(ctx context.Context, userID uuid.UUID, start, end *model.Date) (*model.UserMinutes, error)
}

type Handler struct {
	service user.UserServicer
	minutes MinutesCounter
}

func NewHandler(service user.UserServicer, minutes MinutesCounter) *Handler {
	return &Handler{service: service, minutes: minutes}
}

// RegisterRoutes mounts the user routes. Account changes additionally pass through adminOnly.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, adminOnly gin.HandlerFunc) {
	users := r.Group("/users")
	{
		users.POST("", adminOnly, h.CreateUser)
		users.GET("", h.ListUsers)
		users.GET("/:id", h.GetUser)
		users.PUT("/:id", adminOnly, h.UpdateUser)
		users.DELETE("/:id", adminOnly, h.DeleteUser)
		users.GET("/:id/clinics", h.ListUserClinics)
		users.GET("/:id/minutes", h.UserMinutes)
	}
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req model.CreateUserRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	created, err := h.service.CreateUser(c.Request.Context(), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithCreated(c, created)
}

// ListUsers filters by the optional role and clinicId query parameters.
func (h *Handler) ListUsers(c *gin.Context) {
	clinicID, ok := handler.QueryUUID(c, "clinicId")
	if !ok {
		return
	}

	users, err := h.service.ListUsers(c.Request.Context(), model.UserFilter{
		Role:     model.Role(c.Query("role")),
		ClinicID: clinicID,
	})
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, users)
}

func (h *Handler) GetUser(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	u, err := h.service.GetUser(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, u)
}

func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateUserRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	u, err := h.service.UpdateUser(c.Request.Context(), id, &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, u)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteUser(c.Request.Context(), id); err != nil {
		handler.Fail(c, err)
		return
	}
	handler.NoContent(c)
}

func (h *Handler) ListUserClinics(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	clinics, err := h.service.ListUserClinics(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, clinics)
}

func (h *Handler) UserMinutes(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	start, ok := handler.QueryDate(c, "startDate")
	if !ok {
		return
	}
	end, ok := handler.QueryDate(c, "endDate")
	if !ok {
		return
	}

	total, err := h.minutes.UserMinutes(c.Request.Context(), id, start, end)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, total)
}
